package model

import "sort"

// GeodeticPoint is a WGS84 latitude/longitude pair in degrees.
type GeodeticPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// LocalPoint is a position in the scene-local frame, in meters.
// X grows east, Z grows north, Y is height and stays 0 for projected points.
type LocalPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Add returns p + q.
func (p LocalPoint) Add(q LocalPoint) LocalPoint {
	return LocalPoint{X: p.X + q.X, Y: p.Y + q.Y, Z: p.Z + q.Z}
}

// Sub returns p - q.
func (p LocalPoint) Sub(q LocalPoint) LocalPoint {
	return LocalPoint{X: p.X - q.X, Y: p.Y - q.Y, Z: p.Z - q.Z}
}

// Scale multiplies every component by f.
func (p LocalPoint) Scale(f float64) LocalPoint {
	return LocalPoint{X: p.X * f, Y: p.Y * f, Z: p.Z * f}
}

// Flat drops the height component.
func (p LocalPoint) Flat() LocalPoint {
	return LocalPoint{X: p.X, Z: p.Z}
}

// GraphNode is a deduplicated walkable location.
// Neighbors holds the ids of nodes reachable by one directed edge.
type GraphNode struct {
	ID        uint64              `json:"id"`
	Position  LocalPoint          `json:"position"`
	Neighbors map[uint64]struct{} `json:"-"`
}

// NewGraphNode creates a node with an empty neighbor set.
func NewGraphNode(id uint64, pos LocalPoint) *GraphNode {
	return &GraphNode{ID: id, Position: pos, Neighbors: make(map[uint64]struct{})}
}

// AddNeighbor inserts a directed edge to id. It reports false if the edge already existed.
func (n *GraphNode) AddNeighbor(id uint64) bool {
	if _, ok := n.Neighbors[id]; ok {
		return false
	}
	n.Neighbors[id] = struct{}{}
	return true
}

// HasNeighbor reports whether there is an edge n -> id.
func (n *GraphNode) HasNeighbor(id uint64) bool {
	_, ok := n.Neighbors[id]
	return ok
}

// NeighborIDs returns the neighbor ids in ascending order.
func (n *GraphNode) NeighborIDs() []uint64 {
	ids := make([]uint64, 0, len(n.Neighbors))
	for id := range n.Neighbors {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
