package wcs

import "math"

const (
	deg2rad = math.Pi / 180
	rad2deg = 180 / math.Pi
)

// tanToSky deprojects intermediate world coordinates (degrees, x toward
// increasing longitude) from a gnomonic plane tangent at (lon0, lat0).
func tanToSky(x, y, lon0, lat0 float64) (float64, float64) {
	xi, eta := x*deg2rad, y*deg2rad
	sd0, cd0 := math.Sincos(lat0 * deg2rad)

	den := cd0 - eta*sd0
	lon := lon0 + math.Atan2(xi, den)*rad2deg
	lat := math.Atan2(sd0+eta*cd0, math.Hypot(xi, den)) * rad2deg

	return normalizeLon(lon), lat
}

// skyToTan is the inverse of tanToSky.
func skyToTan(lon, lat, lon0, lat0 float64) (float64, float64, bool) {
	sd, cd := math.Sincos(lat * deg2rad)
	sd0, cd0 := math.Sincos(lat0 * deg2rad)
	sda, cda := math.Sincos((lon - lon0) * deg2rad)

	cosc := sd*sd0 + cd*cd0*cda
	if cosc <= 0 {
		return 0, 0, false
	}

	xi := cd * sda / cosc
	eta := (sd*cd0 - cd*sd0*cda) / cosc

	return xi * rad2deg, eta * rad2deg, true
}

func normalizeLon(lon float64) float64 {
	lon = math.Mod(lon, 360)
	if lon < 0 {
		lon += 360
	}
	return lon
}

// wrapDelta folds a longitude difference into [-180, 180).
func wrapDelta(d float64) float64 {
	d = math.Mod(d+180, 360)
	if d < 0 {
		d += 360
	}
	return d - 180
}
