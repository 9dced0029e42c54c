package uvdata

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// The triangle formula over all (a1 <= a2) pairs of 128 antennas must cover
// 0..8255 exactly once.
func TestTriangleIndexBijection(t *testing.T) {
	const n = 128
	seen := make([]bool, n*(n+1)/2)
	for a1 := 0; a1 < n; a1++ {
		for a2 := a1; a2 < n; a2++ {
			idx := TriangleIndex(n, a1, a2)
			if idx < 0 || idx >= len(seen) {
				t.Fatalf("(%d,%d) -> %d outside 0..%d", a1, a2, idx, len(seen)-1)
			}
			if seen[idx] {
				t.Fatalf("(%d,%d) -> %d collides", a1, a2, idx)
			}
			seen[idx] = true
		}
	}
	for idx, ok := range seen {
		if !ok {
			t.Fatalf("index %d never produced", idx)
		}
	}
}

func TestAntnumsBaselineRoundtrip(t *testing.T) {
	for _, pair := range [][2]int{{0, 0}, {0, 127}, {5, 17}, {127, 127}, {300, 511}} {
		bl := AntnumsToBaseline(pair[0], pair[1])
		a1, a2, err := BaselineToAntnums(bl)
		require.NoError(t, err)
		require.Equal(t, pair[0], a1)
		require.Equal(t, pair[1], a2)
	}
	_, _, err := BaselineToAntnums(100)
	require.Error(t, err)
}

// minimal consistent container for schema tests
func testUVData(t *testing.T) *UVData {
	t.Helper()
	uv := &UVData{
		Nants: 2, Nbls: 3, Ntimes: 1, Nblts: 3, Nfreqs: 2, Npols: 4, Nspws: 1,
		ChannelWidthHz: 40000,
		Pols:           []int{PolYY, PolYX, PolXY, PolXX},
		SpwArray:       []int{0},
		FreqHz:         []float64{1.2e8, 1.2004e8},
		AntNumbers:     []int{1, 2},
		AntNames:       []string{"Tile011", "Tile012"},
		AntPositions:   make([][3]float64, 2),
	}
	n := uv.Nblts * uv.Nfreqs * uv.Npols
	uv.Data = make([]complex64, n)
	uv.Flags = make([]bool, n)
	uv.Nsamples = make([]float32, n)
	uv.TimeJD = []float64{2457338.5, 2457338.5, 2457338.5}
	uv.LSTRad = []float64{1, 1, 1}
	uv.IntegrationTime = []float64{2, 2, 2}
	uv.Ant1 = []int{1, 1, 2}
	uv.Ant2 = []int{1, 2, 2}
	uv.Baselines = []int64{0, 0, 0}
	for i := range uv.Baselines {
		uv.Baselines[i] = AntnumsToBaseline(uv.Ant1[i], uv.Ant2[i])
	}
	uv.UVW = make([][3]float64, 3)
	return uv
}

func TestCheckPasses(t *testing.T) {
	require.NoError(t, testUVData(t).Check(true))
}

func TestCheckShapeMismatch(t *testing.T) {
	uv := testUVData(t)
	uv.FreqHz = uv.FreqHz[:1]
	err := uv.Check(false)
	require.Error(t, err)
	require.Contains(t, err.Error(), "freq_array")
}

func TestCheckCountIdentity(t *testing.T) {
	uv := testUVData(t)
	uv.Ntimes = 2
	require.Error(t, uv.Check(false))
}

func TestCheckAcceptability(t *testing.T) {
	uv := testUVData(t)
	uv.TimeJD[0] = 1447000000 // raw Unix seconds, not a JD
	require.Error(t, uv.Check(true))
	require.NoError(t, uv.Check(false))

	uv = testUVData(t)
	uv.FreqHz[0] = -1
	require.Error(t, uv.Check(true))

	uv = testUVData(t)
	uv.AntNumbers = []int{2, 1}
	require.Error(t, uv.Check(true))
}
