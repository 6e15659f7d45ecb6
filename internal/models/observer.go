package models

// Observer is the fixed ground location the sky is viewed from.
type Observer struct {
	Latitude  float64 // Decimal degrees, positive north
	Longitude float64 // Decimal degrees, positive east
	Elevation float64 // Meters above mean sea level
}
