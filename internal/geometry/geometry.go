// Package geometry places aircraft in the observer's sky and measures how far
// apart two sky directions are.
package geometry

import (
	"math"

	"sun_transit/internal/models"
)

// MetersPerDegree is the flat-earth scale applied to both latitude and
// longitude deltas. Longitude distances are overstated away from the equator.
const MetersPerDegree = 111000.0

// Direction is a line of sight from the observer.
type Direction struct {
	Azimuth   float64 // Degrees clockwise from north, [0, 360)
	Elevation float64 // Degrees above the horizon, [-90, 90]
}

// FromCelestial converts a computed sky position into a Direction.
func FromCelestial(p models.CelestialPosition) Direction {
	return Direction{Azimuth: p.Azimuth, Elevation: p.Altitude}
}

// AngularSeparation returns the great-circle angle between a and b in degrees,
// in the range [0, 180]. Identical directions are exactly 0 apart.
func AngularSeparation(a, b Direction) float64 {
	if a == b {
		return 0
	}

	el1 := deg2rad(a.Elevation)
	el2 := deg2rad(b.Elevation)
	dAz := deg2rad(a.Azimuth - b.Azimuth)

	cosSep := math.Sin(el1)*math.Sin(el2) + math.Cos(el1)*math.Cos(el2)*math.Cos(dAz)

	// Rounding can push cosSep just outside [-1, 1]
	cosSep = math.Max(-1, math.Min(1, cosSep))

	return rad2deg(math.Acos(cosSep))
}

// GroundDistance returns the flat-earth horizontal distance in meters between
// two points given in decimal degrees.
func GroundDistance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := lat2 - lat1
	dLon := lon2 - lon1
	return math.Sqrt(dLat*dLat+dLon*dLon) * MetersPerDegree
}

// AircraftDirection returns where the aircraft appears in the observer's sky.
// The report must be valid. An aircraft directly overhead has zero ground
// distance and resolves to an elevation of ±90°.
func AircraftDirection(obs models.Observer, r *models.AircraftReport) Direction {
	dLat := *r.Lat - obs.Latitude
	dLon := *r.Lon - obs.Longitude
	dAlt := *r.AltBaro - obs.Elevation

	dist := GroundDistance(obs.Latitude, obs.Longitude, *r.Lat, *r.Lon)

	return Direction{
		Azimuth:   NormalizeAzimuth(rad2deg(math.Atan2(dLon, dLat))),
		Elevation: rad2deg(math.Atan2(dAlt, dist)),
	}
}

// NormalizeAzimuth wraps any angle in degrees into [0, 360).
func NormalizeAzimuth(az float64) float64 {
	az = math.Mod(az, 360)
	if az < 0 {
		az += 360
	}
	// -1e-15 + 360 rounds to 360
	if az >= 360 {
		az = 0
	}
	return az
}

func deg2rad(deg float64) float64 {
	return deg / 180.0 * math.Pi
}

func rad2deg(rad float64) float64 {
	return rad / math.Pi * 180.0
}
