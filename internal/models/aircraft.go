package models

// Aircraft represents aircraft information from the aircraft registry.
// Fields correspond to columns in the OpenSky aircraft-database CSV files.
type Aircraft struct {
	ICAO24           string `csv:"icao24"`           // Primary key - 6 hex digit ICAO address
	Registration     string `csv:"registration"`     // Aircraft registration (e.g., ZK-NZE)
	ManufacturerName string `csv:"manufacturerName"` // Manufacturer name
	Model            string `csv:"model"`            // Aircraft model
	TypeCode         string `csv:"typecode"`         // Aircraft type code
	Operator         string `csv:"operator"`         // Operator name
	OperatorCallsign string `csv:"operatorCallsign"` // Operator callsign
	OperatorICAO     string `csv:"operatorIcao"`     // Operator ICAO code
	Owner            string `csv:"owner"`            // Owner name
	Country          string `csv:"country"`          // Country of registration
	Built            string `csv:"built"`            // Year built
}

// Enrich copies the registry details onto a transit match.
func (a *Aircraft) Enrich(m *TransitMatch) {
	m.Registration = a.Registration
	m.TypeCode = a.TypeCode
	m.Model = a.Model
	m.Operator = a.Operator
	if m.Operator == "" {
		m.Operator = a.Owner
	}
}
