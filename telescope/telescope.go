// Package telescope holds the table of known radio telescopes and resolves a
// telescope name to its site coordinates.
package telescope

import (
	"math"
	"strings"

	"github.com/uvdata-dev/uvdata/internal/coords"
)

// Telescope describes one known observatory site.
type Telescope struct {
	Name string
	// geodetic site coordinates
	LatitudeRad  float64
	LongitudeRad float64
	AltitudeM    float64
	// Citation records where the coordinates came from.
	Citation string
}

// ECEF returns the telescope location in the Earth-centered frame.
func (t Telescope) ECEF() coords.XYZ {
	return coords.XYZFromLatLonAlt(t.LatitudeRad, t.LongitudeRad, t.AltitudeM)
}

func dms(d, m, s float64) float64 {
	sign := 1.0
	if d < 0 {
		sign, d = -1, -d
	}
	return sign * (d + m/60 + s/3600) * math.Pi / 180
}

// known is the table of observatories this library can resolve by name.
var known = map[string]Telescope{
	"PAPER": {
		Name:         "PAPER",
		LatitudeRad:  dms(-30, 43, 17.5),
		LongitudeRad: dms(21, 25, 41.9),
		AltitudeM:    1073.0,
		Citation:     "value taken from capo/cals/hsa7458_v000.py, comment reads KAT/SA (GPS), altitude from elevationmap.net",
	},
	"HERA": {
		Name:         "HERA",
		LatitudeRad:  dms(-30, 43, 17.5),
		LongitudeRad: dms(21, 25, 41.9),
		AltitudeM:    1073.0,
		Citation:     "value taken from capo/cals/hsa7458_v000.py, comment reads KAT/SA (GPS), altitude from elevationmap.net",
	},
	"MWA": {
		Name:         "MWA",
		LatitudeRad:  dms(-26, 42, 11.94986),
		LongitudeRad: dms(116, 40, 14.93485),
		AltitudeM:    377.827,
		Citation:     "Tingay et al., 2013",
	},
}

// Lookup resolves a telescope by name, case-insensitively.
func Lookup(name string) (Telescope, bool) {
	t, ok := known[strings.ToUpper(strings.TrimSpace(name))]
	return t, ok
}

// Names returns the known telescope names.
func Names() []string {
	out := make([]string, 0, len(known))
	for name := range known {
		out = append(out, name)
	}
	return out
}
