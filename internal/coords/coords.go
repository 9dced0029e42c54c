// Package coords provides the coordinate and time conversions the readers
// depend on: geodetic to Earth-centered Cartesian (WGS84), local East-North-Up
// offsets to ECEF, Unix epoch to Julian date, and apparent sidereal time.
package coords

import "math"

// WGS84 ellipsoid.
const (
	wgs84A = 6378137.0
	wgs84F = 1.0 / 298.257223563
)

// XYZ is an Earth-centered, Earth-fixed Cartesian position in meters.
type XYZ struct {
	X, Y, Z float64
}

// XYZFromLatLonAlt converts geodetic latitude/longitude (radians) and
// altitude (meters above the ellipsoid) to ECEF.
func XYZFromLatLonAlt(lat, lon, alt float64) XYZ {
	e2 := wgs84F * (2 - wgs84F)
	sinLat, cosLat := math.Sincos(lat)
	sinLon, cosLon := math.Sincos(lon)
	n := wgs84A / math.Sqrt(1-e2*sinLat*sinLat)
	return XYZ{
		X: (n + alt) * cosLat * cosLon,
		Y: (n + alt) * cosLat * sinLon,
		Z: (n*(1-e2) + alt) * sinLat,
	}
}

// ECEFFromENU converts a local East-North-Up offset at the given geodetic
// reference point to an absolute ECEF position.
func ECEFFromENU(enu [3]float64, lat, lon, alt float64) XYZ {
	sinLat, cosLat := math.Sincos(lat)
	sinLon, cosLon := math.Sincos(lon)
	e, n, u := enu[0], enu[1], enu[2]
	ref := XYZFromLatLonAlt(lat, lon, alt)
	return XYZ{
		X: ref.X - sinLon*e - sinLat*cosLon*n + cosLat*cosLon*u,
		Y: ref.Y + cosLon*e - sinLat*sinLon*n + cosLat*sinLon*u,
		Z: ref.Z + cosLat*n + sinLat*u,
	}
}

// unixJDEpoch is the Julian date of the Unix epoch (1970-01-01T00:00:00 UTC).
const unixJDEpoch = 2440587.5

// JDFromUnix converts Unix seconds to a Julian date.
func JDFromUnix(sec float64) float64 {
	return sec/86400.0 + unixJDEpoch
}

// LSTFromJD returns the local apparent sidereal time in radians for the given
// Julian date and east longitude (radians), using the IAU 1982 GMST series.
// Accuracy is a fraction of a second of time, sufficient for bookkeeping.
func LSTFromJD(jd, lon float64) float64 {
	// days since J2000.0
	d := jd - 2451545.0
	t := d / 36525.0
	// GMST in seconds of time
	gmst := 67310.54841 + (876600.0*3600.0+8640184.812866)*t + 0.093104*t*t - 6.2e-6*t*t*t
	gmstRad := math.Mod(gmst/240.0, 360.0) * math.Pi / 180.0
	lst := math.Mod(gmstRad+lon, 2*math.Pi)
	if lst < 0 {
		lst += 2 * math.Pi
	}
	return lst
}
