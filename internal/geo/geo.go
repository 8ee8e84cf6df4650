// Package geo provides great-circle distance math for presence tracking.
package geo

import "math"

// earthRadiusMeters is the mean Earth radius used by the haversine formula.
const earthRadiusMeters = 6371000.0

// Status describes whether a reported position falls inside the home geofence.
type Status string

const (
	StatusHome    Status = "home"
	StatusAway    Status = "away"
	StatusUnknown Status = "unknown"
)

// Distance returns the haversine distance in meters between two WGS84
// coordinates.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := radians(lat1)
	phi2 := radians(lat2)
	dPhi := radians(lat2 - lat1)
	dLambda := radians(lon2 - lon1)

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// Evaluate computes the distance from a reported position to the home point
// and classifies it against the geofence radius. Points exactly on the
// boundary count as home.
func Evaluate(lat, lon, homeLat, homeLon, radiusMeters float64) (Status, float64) {
	d := Distance(lat, lon, homeLat, homeLon)
	if d <= radiusMeters {
		return StatusHome, d
	}
	return StatusAway, d
}

// Valid reports whether a coordinate pair is a usable position: finite
// numbers inside the latitude/longitude domain.
func Valid(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lon) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
