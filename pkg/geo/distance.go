// Package geo provides great-circle distance helpers.
package geo

import "math"

// EarthRadiusKm is the mean earth radius used for distance calculations.
const EarthRadiusKm = 6371.0

// Point is a latitude/longitude pair in decimal degrees.
type Point struct {
	Latitude  float64
	Longitude float64
}

// Haversine returns the great-circle distance in kilometres between two
// coordinates given in decimal degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

// DistanceKm returns the distance between two points.
func DistanceKm(a, b Point) float64 {
	return Haversine(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
}

// Within reports whether b lies at most maxKm from a. A non-positive maxKm
// matches only identical coordinates.
func Within(a, b Point, maxKm float64) bool {
	return DistanceKm(a, b) <= maxKm
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
