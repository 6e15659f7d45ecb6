package models

// CelestialPosition is a direction in the observer's sky.
type CelestialPosition struct {
	Azimuth  float64 // Degrees clockwise from true north, [0, 360)
	Altitude float64 // Degrees above the horizon, [-90, 90]
}
