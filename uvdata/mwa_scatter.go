package uvdata

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/uvdata-dev/uvdata/internal/fits"
)

// The correlator emits one row per fine channel holding the full
// baseline-polarization triangle for its fixed 128 tile slots, regardless of
// how many tiles an observation uses.
const (
	corrTileSlots = 128
	corrRowWidth  = corrTileSlots * (corrTileSlots + 1) / 2 * 4 // complex samples per row
)

// mwaStagingCube is the raw (time, frequency, baseline*pol) staging array the
// data files are scattered into. Cells start out unfound; a record unmarks
// exactly the cells it supplies, so anything never touched stays flagged and
// zero. The row axis is sized to the correlator's full slot space so the PFB
// permutation always lands in range.
type mwaStagingCube struct {
	ntimes, nfreqs int
	data           []complex64
	found          []bool
}

func newMWAStagingCube(ntimes, nfreqs int) *mwaStagingCube {
	n := ntimes * nfreqs * corrRowWidth
	return &mwaStagingCube{
		ntimes: ntimes,
		nfreqs: nfreqs,
		data:   make([]complex64, n),
		found:  make([]bool, n),
	}
}

func (c *mwaStagingCube) index(t, f, r int) int {
	return (t*c.nfreqs+f)*corrRowWidth + r
}

// scatterFile copies every record of one data file into the staging cube.
// Records are located on the time grid by exact match of their header
// timestamp; freqStart is the file's frequency-block offset. Writes from
// different files touch disjoint (time row, frequency block) slices, so files
// scatter concurrently without locking.
func (c *mwaStagingCube) scatterFile(path string, intTimeMs int64, timeIndex map[int64]int, freqStart, fineCount int) error {
	units, err := fits.OpenFile(path)
	if err != nil {
		return err
	}
	for _, u := range units[1:] {
		recMs, err := headerTimeMs(u.Header)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		centerMs := recMs + intTimeMs/2
		t, ok := timeIndex[centerMs]
		if !ok {
			return &TimeLookupError{File: path, UnixMs: centerMs}
		}
		axes := u.Header.Naxis()
		if len(axes) == 0 || u.Image == nil {
			return &FormatError{Reason: fmt.Sprintf("%s: record without image payload", path)}
		}
		rowFloats := axes[0] // interleaved re/im, so rowFloats/2 complex samples
		width := rowFloats / 2
		if width > corrRowWidth {
			width = corrRowWidth
		}
		rows := 1
		if len(axes) >= 2 {
			rows = axes[1]
		}
		if rows != fineCount {
			return &FormatError{Reason: fmt.Sprintf("%s: record has %d fine channels, expected %d", path, rows, fineCount)}
		}
		for f := 0; f < fineCount; f++ {
			src := u.Image[f*rowFloats : (f+1)*rowFloats]
			base := c.index(t, freqStart+f, 0)
			for k := 0; k < width; k++ {
				c.data[base+k] = complex(src[2*k], src[2*k+1])
				c.found[base+k] = true
			}
		}
	}
	return nil
}

// scatterMWAFiles runs scatterFile over all data files, in parallel up to the
// worker bound. Each file owns a disjoint frequency block, so the cube needs
// no synchronization.
func scatterMWAFiles(cube *mwaStagingCube, data []string, intTimeMs int64, timeIndex map[int64]int, cm mwaChannelMap, fineCount, workers int) error {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if len(data) < workers {
		workers = len(data)
	}
	var g errgroup.Group
	g.SetLimit(workers)
	for _, path := range data {
		path := path
		g.Go(func() error {
			num, err := mwaFileNumber(path)
			if err != nil {
				return err
			}
			freqStart := cm.fileNumToIndex[num] * fineCount
			return cube.scatterFile(path, intTimeMs, timeIndex, freqStart, fineCount)
		})
	}
	return g.Wait()
}
