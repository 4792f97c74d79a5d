package geo

import (
	"math"
	"testing"
)

func TestHaversine(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64
		tolerance              float64
	}{
		{"same point", 12.5, -7.25, 12.5, -7.25, 0, 1e-9},
		{"0.1 degree longitude at equator", 0, 0, 0, 0.1, 11.119, 0.01},
		{"one degree latitude", 0, 0, 1, 0, 111.195, 0.01},
		{"origin to 10,10", 0, 0, 10, 10, 1568.5, 1},
		{"antipodal", 0, 0, 0, 180, math.Pi * EarthRadiusKm, 0.001},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Haversine(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if math.Abs(got-tt.want) > tt.tolerance {
				t.Errorf("Haversine() = %v, want %v (+/- %v)", got, tt.want, tt.tolerance)
			}
		})
	}
}

func TestHaversine_Symmetric(t *testing.T) {
	a := Haversine(51.5074, -0.1278, 48.8566, 2.3522)
	b := Haversine(48.8566, 2.3522, 51.5074, -0.1278)
	if math.Abs(a-b) > 1e-9 {
		t.Errorf("Haversine() not symmetric: %v vs %v", a, b)
	}
	if a < 340 || a > 345 {
		t.Errorf("London-Paris = %v, want ~343km", a)
	}
}

func TestWithin(t *testing.T) {
	origin := Point{}
	near := Point{Latitude: 0, Longitude: 0.1}
	far := Point{Latitude: 10, Longitude: 10}

	if !Within(origin, origin, 0) {
		t.Error("Within() identical points with 0km should be true")
	}
	if !Within(origin, near, 20) {
		t.Error("Within() near point inside 20km should be true")
	}
	if Within(origin, far, 20) {
		t.Error("Within() far point inside 20km should be false")
	}
}
