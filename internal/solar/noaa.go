package solar

import (
	"math"
	"time"

	"sun_transit/internal/models"
)

// NOAA implements the NOAA solar calculator, accurate to about one arcminute,
// with a correction for atmospheric refraction near the horizon.
type NOAA struct{}

// Position implements Locator.
func (NOAA) Position(t time.Time, lat, lon float64) models.CelestialPosition {
	jd := julianDate(t)
	jc := (jd - 2451545.0) / 36525.0

	// Geometric mean longitude and mean anomaly
	l0 := math.Mod(280.46646+jc*(36000.76983+jc*0.0003032), 360.0)
	m := deg2rad(357.52911 + jc*(35999.05029-0.0001537*jc))

	center := math.Sin(m)*(1.914602-jc*(0.004817+0.000014*jc)) +
		math.Sin(2*m)*(0.019993-0.000101*jc) +
		math.Sin(3*m)*0.000289

	// Apparent longitude, corrected for aberration and nutation
	omega := deg2rad(125.04 - 1934.136*jc)
	lambda := deg2rad(l0 + center - 0.00569 - 0.00478*math.Sin(omega))

	seconds := 21.448 - jc*(46.815+jc*(0.00059-jc*0.001813))
	epsilon := deg2rad(23.0 + (26.0+seconds/60.0)/60.0 + 0.00256*math.Cos(omega))

	ra := rad2deg(math.Atan2(math.Cos(epsilon)*math.Sin(lambda), math.Cos(lambda)))
	dec := math.Asin(math.Sin(epsilon) * math.Sin(lambda))

	gmst := 280.46061837 + 360.98564736629*(jd-2451545.0) + 0.000387933*jc*jc - jc*jc*jc/38710000.0
	ha := deg2rad(normalize(gmst+lon-ra+180) - 180)

	phi := deg2rad(lat)
	sinAlt := math.Sin(phi)*math.Sin(dec) + math.Cos(phi)*math.Cos(dec)*math.Cos(ha)
	alt := math.Asin(math.Max(-1, math.Min(1, sinAlt)))

	// Azimuth from north, eastward
	az := math.Atan2(-math.Sin(ha)*math.Cos(dec), math.Cos(phi)*math.Sin(dec)-math.Sin(phi)*math.Cos(dec)*math.Cos(ha))

	altitude := rad2deg(alt)
	altitude += refraction(altitude) / 3600.0

	return models.CelestialPosition{
		Azimuth:  normalize(rad2deg(az)),
		Altitude: math.Min(90, altitude),
	}
}

// refraction returns the apparent lift in arcseconds for a true altitude.
func refraction(alt float64) float64 {
	if alt >= 85.0 || alt <= -0.575 {
		return 0
	}
	if alt <= 5.0 {
		return 1735.0 + alt*(-518.2+alt*(103.4+alt*(-12.79+alt*0.711)))
	}
	tanAlt := math.Tan(deg2rad(alt))
	return 58.1/tanAlt - 0.07/math.Pow(tanAlt, 3) + 0.000086/math.Pow(tanAlt, 5)
}

func julianDate(t time.Time) float64 {
	return float64(t.UnixNano())/float64(24*time.Hour) + 2440587.5
}
