// Package solar computes the sun's apparent position for an observer.
package solar

import (
	"fmt"
	"math"
	"time"

	"sun_transit/internal/models"

	"github.com/sixdouglas/suncalc"
)

// Supported ephemeris models.
const (
	ModelSunCalc = "suncalc"
	ModelNOAA    = "noaa"
)

// Locator returns the sun's position in the sky of a ground observer.
type Locator interface {
	Position(t time.Time, lat, lon float64) models.CelestialPosition
}

// New returns the Locator for the named model.
func New(model string) (Locator, error) {
	switch model {
	case ModelSunCalc, "":
		return SunCalc{}, nil
	case ModelNOAA:
		return NOAA{}, nil
	default:
		return nil, fmt.Errorf("unknown solar model %q (must be %s or %s)", model, ModelSunCalc, ModelNOAA)
	}
}

// SunCalc uses the SunCalc ephemeris. It does not correct for refraction.
type SunCalc struct{}

// Position implements Locator.
func (SunCalc) Position(t time.Time, lat, lon float64) models.CelestialPosition {
	pos := suncalc.GetPosition(t, lat, lon)

	// SunCalc measures azimuth from south towards west
	return models.CelestialPosition{
		Azimuth:  normalize(rad2deg(pos.Azimuth) + 180),
		Altitude: rad2deg(pos.Altitude),
	}
}

func normalize(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	if deg >= 360 {
		deg = 0
	}
	return deg
}

func deg2rad(deg float64) float64 {
	return deg * math.Pi / 180.0
}

func rad2deg(rad float64) float64 {
	return rad * 180.0 / math.Pi
}
