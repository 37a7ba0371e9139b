package utils

import (
	"errors"
	"math"

	"ar-navigation/model"
)

// EarthRadius is the WGS84 semi-major axis in meters.
const EarthRadius = 6378137.0

// FarFromReferenceMeters is the distance beyond which the flat-earth projection is no longer trusted.
const FarFromReferenceMeters = 5000.0

// ErrInvalidScale is returned when a meters-per-degree scale is not a positive finite number.
var ErrInvalidScale = errors.New("meters-per-degree scale must be positive")

// DegreesToRadians converts degrees to radians.
func DegreesToRadians(d float64) float64 {
	return d * math.Pi / 180.0
}

// HaversineDistance returns the great-circle distance between two points in meters.
// Only used for advisories; local geometry stays planar.
func HaversineDistance(p1, p2 model.GeodeticPoint) float64 {
	lat1 := DegreesToRadians(p1.Latitude)
	lon1 := DegreesToRadians(p1.Longitude)
	lat2 := DegreesToRadians(p2.Latitude)
	lon2 := DegreesToRadians(p2.Longitude)

	dLat := lat2 - lat1
	dLon := lon2 - lon1
	// a = sin²(Δlat/2) + cos(lat1) * cos(lat2) * sin²(Δlon/2)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadius * c
}

// Project maps geo onto the local plane around reference with fixed per-degree scales.
// x is the east offset, z the north offset, y is always 0.
func Project(geo, reference model.GeodeticPoint, metersPerDegreeLat, metersPerDegreeLon float64) model.LocalPoint {
	return model.LocalPoint{
		X: (geo.Longitude - reference.Longitude) * metersPerDegreeLon,
		Z: (geo.Latitude - reference.Latitude) * metersPerDegreeLat,
	}
}

// Projector holds an immutable reference point and scale pair.
type Projector struct {
	Reference          model.GeodeticPoint
	MetersPerDegreeLat float64
	MetersPerDegreeLon float64
}

// NewProjector validates the scales. The reference point itself is not range checked here.
func NewProjector(reference model.GeodeticPoint, metersPerDegreeLat, metersPerDegreeLon float64) (*Projector, error) {
	for _, s := range []float64{metersPerDegreeLat, metersPerDegreeLon} {
		if !(s > 0) || math.IsInf(s, 0) {
			return nil, ErrInvalidScale
		}
	}
	return &Projector{
		Reference:          reference,
		MetersPerDegreeLat: metersPerDegreeLat,
		MetersPerDegreeLon: metersPerDegreeLon,
	}, nil
}

// Project converts a geodetic point to local coordinates.
func (p *Projector) Project(geo model.GeodeticPoint) model.LocalPoint {
	return Project(geo, p.Reference, p.MetersPerDegreeLat, p.MetersPerDegreeLon)
}

// Unproject is the exact inverse of Project, ignoring height.
func (p *Projector) Unproject(local model.LocalPoint) model.GeodeticPoint {
	return model.GeodeticPoint{
		Latitude:  p.Reference.Latitude + local.Z/p.MetersPerDegreeLat,
		Longitude: p.Reference.Longitude + local.X/p.MetersPerDegreeLon,
	}
}

// DistanceFromReference returns the great-circle distance from the reference point to geo.
func (p *Projector) DistanceFromReference(geo model.GeodeticPoint) float64 {
	return HaversineDistance(p.Reference, geo)
}

// FarFromReference reports whether geo lies outside the range the projection is meant for.
func (p *Projector) FarFromReference(geo model.GeodeticPoint) bool {
	return p.DistanceFromReference(geo) > FarFromReferenceMeters
}
