// Package feed retrieves aircraft snapshots around the observer.
package feed

import (
	"context"
	"encoding/json"
	"strings"

	"sun_transit/internal/models"
)

// FeetToMeters converts the feed's barometric altitude into meters.
const FeetToMeters = 0.3048

// KmPerNauticalMile is used where an API expects its radius in nautical miles.
const KmPerNauticalMile = 1.852

// Source is an aircraft feed that can be queried around a point.
type Source interface {
	// Fetch returns every aircraft the feed reports within radiusKm of center.
	Fetch(ctx context.Context, center models.Observer, radiusKm float64) ([]models.AircraftReport, error)

	// Close releases any idle connections held by the source.
	Close() error
}

// altitude decodes alt_baro, which is a number of feet while airborne and the
// string "ground" otherwise. Any other value leaves the altitude unset so only
// that aircraft is dropped from the snapshot.
type altitude struct {
	feet     *float64
	onGround bool
}

func (a *altitude) UnmarshalJSON(b []byte) error {
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		a.feet = &f
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil && s == "ground" {
		a.onGround = true
	}
	return nil
}

// Aircraft is one entry of a readsb-style aircraft list, the format shared by
// ADS-B Exchange and dump1090's aircraft.json.
// Field documentation: https://www.adsbexchange.com/version-2-api-wip/
type Aircraft struct {
	Hex     string   `json:"hex"`
	Flight  *string  `json:"flight"`
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
	AltBaro altitude `json:"alt_baro"`
}

// Report converts the feed record. Aircraft on the ground carry no
// barometric altitude and come back without one.
func (a Aircraft) Report() models.AircraftReport {
	r := models.AircraftReport{
		ICAO: strings.ToLower(strings.TrimSpace(a.Hex)),
		Lat:  a.Lat,
		Lon:  a.Lon,
	}
	if a.Flight != nil {
		r.Callsign = strings.TrimSpace(*a.Flight)
	}
	if a.AltBaro.feet != nil {
		meters := *a.AltBaro.feet * FeetToMeters
		r.AltBaro = &meters
	}
	return r
}

// Reports converts a whole aircraft list, keeping feed order.
func Reports(ac []Aircraft) []models.AircraftReport {
	reports := make([]models.AircraftReport, 0, len(ac))
	for _, a := range ac {
		reports = append(reports, a.Report())
	}
	return reports
}
