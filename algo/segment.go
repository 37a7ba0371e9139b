package algo

import (
	"math"

	"ar-navigation/model"
)

const degenerateSegmentEpsilon = 1e-12

// PlanarDistance ignores height.
func PlanarDistance(a, b model.LocalPoint) float64 {
	return math.Hypot(a.X-b.X, a.Z-b.Z)
}

// NearestPointOnSegment projects p onto segment AB in the horizontal plane,
// clamping to the endpoints. A zero-length segment returns A.
func NearestPointOnSegment(a, b, p model.LocalPoint) model.LocalPoint {
	dx := b.X - a.X
	dz := b.Z - a.Z
	lenSq := dx*dx + dz*dz
	if lenSq < degenerateSegmentEpsilon {
		return model.LocalPoint{X: a.X, Z: a.Z}
	}

	t := ((p.X-a.X)*dx + (p.Z-a.Z)*dz) / lenSq
	t = math.Max(0, math.Min(1, t))

	return model.LocalPoint{X: a.X + t*dx, Z: a.Z + t*dz}
}
