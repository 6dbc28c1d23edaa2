// Package geo carries the great-circle math used by the therapist locator.
package geo

import "math"

// earthRadiusKm is the spherical-earth approximation radius.
const earthRadiusKm = 6371

// Haversine returns the great-circle distance in kilometers between two
// coordinate pairs given in degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := radians(lat1)
	phi2 := radians(lat2)
	dPhi := radians(lat2 - lat1)
	dLambda := radians(lon2 - lon1)

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
