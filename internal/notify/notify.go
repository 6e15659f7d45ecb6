// Package notify delivers transit matches to the outside world.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"sun_transit/internal/models"
)

// Supported delivery methods.
const (
	MethodEmail = "email"
	MethodLog   = "log"
)

// Subject is used for every transit email.
const Subject = "🌞 SUN TRANSIT DETECTED!"

// Notifier delivers a single match.
type Notifier interface {
	Notify(ctx context.Context, match models.TransitMatch) error
	Close() error
}

// Body renders a match as indented JSON.
func Body(match models.TransitMatch) (string, error) {
	b, err := json.MarshalIndent(match, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode match: %w", err)
	}
	return string(b), nil
}

// Log writes matches to the structured log instead of sending them anywhere.
type Log struct{}

// Notify implements Notifier.
func (Log) Notify(_ context.Context, m models.TransitMatch) error {
	slog.Info("Sun transit detected",
		"callsign", m.Callsign,
		"icao", m.ICAO,
		"registration", m.Registration,
		"azimuth", m.Azimuth,
		"elevation", m.Elevation,
		"separation", m.Separation,
		"timestamp", m.Timestamp,
	)
	return nil
}

// Close implements Notifier.
func (Log) Close() error { return nil }
