// Package detector decides which aircraft in a snapshot are aligned with the sun.
package detector

import (
	"fmt"
	"log/slog"
	"time"

	"sun_transit/internal/geometry"
	"sun_transit/internal/models"
)

// Config is the immutable input shared by every detection cycle.
type Config struct {
	Observer models.Observer
	Margin   float64 // Degrees; an aircraft closer than this to the sun is a match
}

// Detector evaluates aircraft snapshots against the sun's position.
type Detector struct {
	cfg Config
}

// New creates a detector. The margin must lie in (0, 180].
func New(cfg Config) (*Detector, error) {
	if cfg.Margin <= 0 || cfg.Margin > 180 {
		return nil, fmt.Errorf("margin must be in (0, 180], got %v", cfg.Margin)
	}
	return &Detector{cfg: cfg}, nil
}

// Observer returns the configured observer.
func (d *Detector) Observer() models.Observer {
	return d.cfg.Observer
}

// Detect returns a match for every valid report whose angular separation from
// the sun is below the margin, in the order the reports were given. Reports
// missing a position or altitude are skipped.
func (d *Detector) Detect(reports []models.AircraftReport, sun models.CelestialPosition, now time.Time) []models.TransitMatch {
	sunDir := geometry.FromCelestial(sun)
	ts := now.UTC()

	var matches []models.TransitMatch
	for i := range reports {
		r := &reports[i]
		if !r.Valid() {
			slog.Debug("Skipping incomplete aircraft report", "aircraft", r.Identifier())
			continue
		}

		dir := geometry.AircraftDirection(d.cfg.Observer, r)
		sep := geometry.AngularSeparation(sunDir, dir)
		if sep >= d.cfg.Margin {
			continue
		}

		matches = append(matches, models.TransitMatch{
			Callsign:   r.Identifier(),
			ICAO:       r.ICAO,
			Azimuth:    dir.Azimuth,
			Elevation:  dir.Elevation,
			Separation: sep,
			Timestamp:  ts,
		})
	}

	return matches
}
