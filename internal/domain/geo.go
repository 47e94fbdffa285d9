package domain

import "math"

// earthRadiusKM is the fixed mean Earth radius used by the distance contract.
const earthRadiusKM = 6371.0

// HaversineKM computes the great-circle distance between two coordinates
// in kilometers.
func HaversineKM(a, b Geo) float64 {
	latA := a.Lat * math.Pi / 180
	latB := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(latA)*math.Cos(latB)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKM * math.Asin(math.Sqrt(h))
}

// WalkingMinutes estimates travel time at the given speed in km/h, rounded
// to the nearest minute and floored at one.
func WalkingMinutes(distanceKM, speedKMH float64) int {
	if speedKMH <= 0 {
		return 1
	}
	minutes := int(math.Round(distanceKM / speedKMH * 60))
	if minutes < 1 {
		return 1
	}
	return minutes
}
