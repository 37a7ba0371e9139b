package algo

import (
	"math"
	"testing"

	"ar-navigation/model"
)

func TestNearestPointOnSegment(t *testing.T) {
	a := model.LocalPoint{X: 0, Z: 0}
	b := model.LocalPoint{X: 10, Z: 0}
	tests := []struct {
		name string
		a, b model.LocalPoint
		p    model.LocalPoint
		want model.LocalPoint
	}{
		{"interior", a, b, model.LocalPoint{X: 4, Z: 3}, model.LocalPoint{X: 4}},
		{"before start clamps to A", a, b, model.LocalPoint{X: -5, Z: 2}, a},
		{"past end clamps to B", a, b, model.LocalPoint{X: 15, Z: -2}, b},
		{"height is ignored", a, b, model.LocalPoint{X: 5, Y: 9, Z: 1}, model.LocalPoint{X: 5}},
		{"degenerate returns A", model.LocalPoint{X: 2, Z: 2}, model.LocalPoint{X: 2, Z: 2}, model.LocalPoint{X: 7, Z: 7}, model.LocalPoint{X: 2, Z: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NearestPointOnSegment(tt.a, tt.b, tt.p)
			if math.Abs(got.X-tt.want.X) > 1e-9 || math.Abs(got.Z-tt.want.Z) > 1e-9 || got.Y != 0 {
				t.Errorf("NearestPointOnSegment = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPlanarDistance(t *testing.T) {
	got := PlanarDistance(model.LocalPoint{X: 0, Y: 100, Z: 0}, model.LocalPoint{X: 3, Z: 4})
	if got != 5 {
		t.Errorf("PlanarDistance = %v, want 5", got)
	}
}

func TestQuantizeAndSameLocation(t *testing.T) {
	p := model.LocalPoint{X: 1.000004, Z: -2}
	q := model.LocalPoint{X: 1.000006, Z: -2}
	if !SameLocation(p, q, DefaultTolerance) {
		t.Error("points 2e-6 apart should be the same location")
	}
	kp, kq := Quantize(p, DefaultTolerance), Quantize(q, DefaultTolerance)
	if d := kp.X - kq.X; d < -1 || d > 1 {
		t.Errorf("grid keys %v and %v are not adjacent", kp, kq)
	}
	if SameLocation(p, model.LocalPoint{X: 1.00002, Z: -2}, DefaultTolerance) {
		t.Error("points 1.6e-5 apart should differ")
	}
}
