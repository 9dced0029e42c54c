// Package uvdata holds interferometric visibility data and reads it from
// on-disk formats. The container keeps dense flat arrays in baseline-time
// order; readers populate every array in one pass and the explicit schema in
// schema.go validates the result.
package uvdata

import "fmt"

// Polarization codes, AIPS convention.
const (
	PolYY = -6
	PolYX = -8
	PolXY = -7
	PolXX = -5
)

// UVData is a dense visibility dataset. Axis order for the per-visibility
// arrays is (baseline-time, frequency, polarization); the baseline axis
// varies fastest within each integration, so row blt = t*Nbls + b.
type UVData struct {
	Nants  int // antennas in the antenna table
	Nbls   int // baselines per integration, autos included
	Ntimes int
	Nblts  int // Nbls * Ntimes
	Nfreqs int
	Npols  int
	Nspws  int

	Data     []complex64 // Nblts*Nfreqs*Npols visibilities
	Flags    []bool      // same shape as Data; true marks bad or absent samples
	Nsamples []float32   // same shape as Data

	FreqHz         []float64 // Nfreqs channel centers
	ChannelWidthHz float64
	Pols           []int // Npols AIPS codes
	SpwArray       []int

	TimeJD          []float64 // Nblts, Julian date of the integration center
	LSTRad          []float64 // Nblts
	IntegrationTime []float64 // Nblts, seconds
	Ant1            []int     // Nblts antenna numbers, Ant1[i] <= Ant2[i]
	Ant2            []int
	Baselines       []int64      // Nblts packed baseline IDs
	UVW             [][3]float64 // Nblts, meters

	AntNumbers   []int
	AntNames     []string
	AntPositions [][3]float64 // ECEF relative to the telescope location, meters

	TelescopeName     string
	Instrument        string
	ObjectName        string
	TelescopeLocation [3]float64 // ECEF, meters
	History           string
	VisUnits          string
	PhaseType         string
}

// visIndex returns the flat offset of (blt, freq, pol) in Data/Flags/Nsamples.
func (uv *UVData) visIndex(blt, freq, pol int) int {
	return (blt*uv.Nfreqs+freq)*uv.Npols + pol
}

// DataAt returns the visibility at (blt, freq, pol).
func (uv *UVData) DataAt(blt, freq, pol int) complex64 {
	return uv.Data[uv.visIndex(blt, freq, pol)]
}

// FlagAt returns the flag at (blt, freq, pol).
func (uv *UVData) FlagAt(blt, freq, pol int) bool {
	return uv.Flags[uv.visIndex(blt, freq, pol)]
}

// NsampleAt returns the sample count at (blt, freq, pol).
func (uv *UVData) NsampleAt(blt, freq, pol int) float32 {
	return uv.Nsamples[uv.visIndex(blt, freq, pol)]
}

// BltIndex returns the row for integration t and baseline b.
func (uv *UVData) BltIndex(t, b int) int { return t*uv.Nbls + b }

// TriangleIndex returns the canonical upper-triangular baseline index for the
/// antenna-table positions a1 <= a2 out of nants antennas:
//
//	index = nants*a1 - a1*(a1+1)/2 + a2
//
// Enumerating all pairs covers 0..nants*(nants+1)/2-1 exactly once.
func TriangleIndex(nants, a1, a2 int) int {
	return nants*a1 - a1*(a1+1)/2 + a2
}

// AntnumsToBaseline packs an antenna-number pair into the 2048-based baseline
// ID used on disk by the container formats.
func AntnumsToBaseline(ant1, ant2 int) int64 {
	return 2048*int64(ant1+1) + int64(ant2+1) + 65536
}

// BaselineToAntnums unpacks a 2048-based baseline ID.
func BaselineToAntnums(bl int64) (ant1, ant2 int, err error) {
	if bl < 65536 {
		return 0, 0, fmt.Errorf("uvdata: baseline ID %d is not 2048-packed", bl)
	}
	bl -= 65536
	return int(bl/2048) - 1, int(bl%2048) - 1, nil
}
