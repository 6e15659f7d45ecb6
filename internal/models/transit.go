package models

import "time"

// TransitMatch is an aircraft found within the angular margin of the sun.
type TransitMatch struct {
	Callsign   string    `json:"callsign"` // ICAO address when no callsign was broadcast
	ICAO       string    `json:"icao,omitempty"`
	Azimuth    float64   `json:"azimuth"`
	Elevation  float64   `json:"elevation"`
	Separation float64   `json:"sep"`
	Timestamp  time.Time `json:"timestamp"`

	// Filled from the aircraft registry when one is configured
	Registration string `json:"registration,omitempty"`
	TypeCode     string `json:"typecode,omitempty"`
	Model        string `json:"model,omitempty"`
	Operator     string `json:"operator,omitempty"`
}
