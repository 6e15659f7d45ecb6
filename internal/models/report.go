package models

// AircraftReport is one aircraft position from a single feed snapshot.
// Position fields are pointers because the feed omits them for aircraft
// without a current fix; a zero value is a legitimate coordinate.
type AircraftReport struct {
	ICAO     string   // 6 hex digit ICAO address, empty if the feed does not provide one
	Callsign string   // Flight number or registration as broadcast, may be empty
	Lat      *float64 // Decimal degrees
	Lon      *float64 // Decimal degrees
	AltBaro  *float64 // Barometric altitude in meters
}

// Valid reports whether the report carries every field needed to place the
// aircraft in the sky.
func (r *AircraftReport) Valid() bool {
	return r != nil && r.Lat != nil && r.Lon != nil && r.AltBaro != nil
}

// Identifier returns the callsign, falling back to the ICAO address.
func (r *AircraftReport) Identifier() string {
	if r.Callsign != "" {
		return r.Callsign
	}
	return r.ICAO
}
