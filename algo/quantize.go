package algo

import (
	"math"

	"ar-navigation/model"
)

// DefaultTolerance is the coordinate equality tolerance in local meters.
const DefaultTolerance = 1e-5

// GridKey is a quantized planar position. Two points within tolerance of each
// other land in the same or an adjacent cell.
type GridKey struct {
	X int64
	Z int64
}

// Quantize maps p onto the tolerance grid.
func Quantize(p model.LocalPoint, tolerance float64) GridKey {
	return GridKey{
		X: int64(math.Round(p.X / tolerance)),
		Z: int64(math.Round(p.Z / tolerance)),
	}
}

// SameLocation is the equality used for node deduplication: both planar
// components differ by less than tolerance.
func SameLocation(a, b model.LocalPoint, tolerance float64) bool {
	return math.Abs(a.X-b.X) < tolerance && math.Abs(a.Z-b.Z) < tolerance
}

// nodeIndex finds the node, if any, that a position deduplicates onto.
// Lookups probe the point's own cell first, then its eight neighbors, so the
// result does not depend on which side of a cell boundary a point falls.
type nodeIndex struct {
	tolerance float64
	cells     map[GridKey][]*model.GraphNode
}

func newNodeIndex(tolerance float64) *nodeIndex {
	return &nodeIndex{tolerance: tolerance, cells: make(map[GridKey][]*model.GraphNode)}
}

var neighborOffsets = [9][2]int64{
	{0, 0},
	{-1, -1}, {-1, 0}, {-1, 1},
	{0, -1}, {0, 1},
	{1, -1}, {1, 0}, {1, 1},
}

func (ix *nodeIndex) lookup(p model.LocalPoint) (*model.GraphNode, bool) {
	k := Quantize(p, ix.tolerance)
	for _, off := range neighborOffsets {
		for _, n := range ix.cells[GridKey{X: k.X + off[0], Z: k.Z + off[1]}] {
			if SameLocation(n.Position, p, ix.tolerance) {
				return n, true
			}
		}
	}
	return nil, false
}

func (ix *nodeIndex) insert(n *model.GraphNode) {
	k := Quantize(n.Position, ix.tolerance)
	ix.cells[k] = append(ix.cells[k], n)
}
