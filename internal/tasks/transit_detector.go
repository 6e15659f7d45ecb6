package tasks

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"sun_transit/internal/detector"
	"sun_transit/internal/feed"
	"sun_transit/internal/models"
	"sun_transit/internal/notify"
	"sun_transit/internal/solar"
)

// AircraftLookup resolves registry details for an ICAO address. A nil result
// with a nil error means the aircraft is unknown.
type AircraftLookup interface {
	FindByICAO(icao24 string) (*models.Aircraft, error)
}

// TransitDetectorConfig holds the collaborators of a TransitDetector
type TransitDetectorConfig struct {
	Source   feed.Source
	Sun      solar.Locator
	Detector *detector.Detector
	Notifier notify.Notifier
	Registry AircraftLookup // Optional
	RadiusKm float64
	Interval time.Duration
}

// TransitDetector runs one detection cycle per tick: fetch the aircraft
// around the observer, locate the sun, and notify every aligned aircraft
type TransitDetector struct {
	source   feed.Source
	sun      solar.Locator
	detector *detector.Detector
	notifier notify.Notifier
	registry AircraftLookup
	radiusKm float64
	interval time.Duration
	now      func() time.Time
}

// Default interval is 15 seconds
func NewTransitDetector(cfg TransitDetectorConfig) *TransitDetector {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &TransitDetector{
		source:   cfg.Source,
		sun:      cfg.Sun,
		detector: cfg.Detector,
		notifier: cfg.Notifier,
		registry: cfg.Registry,
		radiusKm: cfg.RadiusKm,
		interval: interval,
		now:      time.Now,
	}
}

func (t *TransitDetector) Name() string            { return "transit_detector" }
func (t *TransitDetector) Interval() time.Duration { return t.interval }

// Run performs a single detection cycle. Feed and notification failures are
// logged and absorbed so the next cycle always runs. The fetch and each
// notification are bounded by the poll interval separately.
func (t *TransitDetector) Run(ctx context.Context) error {
	obs := t.detector.Observer()

	reports, err := t.fetch(ctx, obs)
	if err != nil {
		if !errors.Is(ctx.Err(), context.Canceled) {
			slog.Error("Failed to fetch aircraft, treating as empty snapshot", "error", err)
		}
		return nil
	}

	now := t.now()
	sun := t.sun.Position(now, obs.Latitude, obs.Longitude)
	matches := t.detector.Detect(reports, sun, now)

	slog.Debug("Detection cycle complete",
		"aircraft", len(reports),
		"matches", len(matches),
		"sun_azimuth", sun.Azimuth,
		"sun_altitude", sun.Altitude,
	)

	for _, m := range matches {
		if ctx.Err() != nil {
			return nil
		}
		t.enrich(&m)
		if err := t.notify(ctx, m); err != nil {
			slog.Error("Failed to send transit notification", "callsign", m.Callsign, "icao", m.ICAO, "error", err)
			continue
		}
		slog.Info("Transit notification sent",
			"callsign", m.Callsign,
			"separation", m.Separation,
			"azimuth", m.Azimuth,
			"elevation", m.Elevation,
		)
	}

	return nil
}

func (t *TransitDetector) fetch(ctx context.Context, obs models.Observer) ([]models.AircraftReport, error) {
	ctx, cancel := context.WithTimeout(ctx, t.interval)
	defer cancel()
	return t.source.Fetch(ctx, obs, t.radiusKm)
}

func (t *TransitDetector) notify(ctx context.Context, m models.TransitMatch) error {
	ctx, cancel := context.WithTimeout(ctx, t.interval)
	defer cancel()
	return t.notifier.Notify(ctx, m)
}

func (t *TransitDetector) enrich(m *models.TransitMatch) {
	if t.registry == nil || m.ICAO == "" {
		return
	}
	ac, err := t.registry.FindByICAO(m.ICAO)
	if err != nil {
		slog.Warn("Aircraft registry lookup failed", "icao", m.ICAO, "error", err)
		return
	}
	if ac != nil {
		ac.Enrich(m)
	}
}
