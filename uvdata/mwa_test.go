package uvdata

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/uvdata-dev/uvdata/internal/coords"
	"github.com/uvdata-dev/uvdata/internal/fits"
)

const (
	e2eStartSec  = 1447000000
	e2eRowFloats = 528 // 264 complex samples, enough for 3 tiles through the PFB
	e2eFineCount = 2
)

// writeTestMetafits synthesizes a metafits for a 3-antenna observation on
// coarse channels 100 and 101, with antenna 2 flagged. The antenna table
// carries each antenna twice in scrambled order, like the real files do.
func writeTestMetafits(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "1447000000.metafits")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	cards := []fits.Card{
		{Key: "CHANNELS", Value: "100,101"},
		{Key: "INTTIME", Value: 2.0},
		{Key: "FINECHAN", Value: 40.0},
		{Key: "TELESCOP", Value: "MWA"},
		{Key: "FILENAME", Value: "e2e_obs"},
	}
	if err := fits.EncodePrimary(f, cards, []string{"observed by the test suite"}); err != nil {
		t.Fatal(err)
	}
	cols := []fits.TableColumn{
		{Name: "Antenna", Ints: []int{3, 3, 1, 1, 2, 2}},
		{Name: "TileName", Strings: []string{"Tile003", "Tile003", "Tile001", "Tile001", "Tile002", "Tile002"}},
		{Name: "Flag", Ints: []int{0, 0, 0, 0, 1, 1}},
		{Name: "East", Floats: []float64{30, 30, 10, 10, 20, 20}},
		{Name: "North", Floats: []float64{3, 3, 1, 1, 2, 2}},
		{Name: "Height", Floats: []float64{377, 377, 375, 375, 376, 376}},
	}
	if err := fits.EncodeBintable(f, nil, cols); err != nil {
		t.Fatal(err)
	}
	return path
}

// recordPix fills one record image so that the complex sample at raw index r
// of global frequency F at time slot t holds (base+2r, base+2r+1) with
// base = t*1e6 + F*1e4. Tests derive expected visibilities from the same rule.
func recordPix(tslot, freqStart int) []float32 {
	pix := make([]float32, e2eRowFloats*e2eFineCount)
	for f := 0; f < e2eFineCount; f++ {
		base := float32(tslot*1000000 + (freqStart+f)*10000)
		for j := 0; j < e2eRowFloats; j++ {
			pix[f*e2eRowFloats+j] = base + float32(j)
		}
	}
	return pix
}

// writeTestGpubox synthesizes one data file with a record per listed time
// slot. Slot i covers TIME = e2eStartSec + 2*i.
func writeTestGpubox(t *testing.T, dir string, num int, slots []int, freqStart int) string {
	t.Helper()
	name := "1447000000_20151108123456_gpubox0" + string(rune('0'+num)) + "_00.fits"
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if err := fits.EncodePrimary(f, nil, nil); err != nil {
		t.Fatal(err)
	}
	for _, s := range slots {
		cards := []fits.Card{
			{Key: "TIME", Value: e2eStartSec + 2*s},
			{Key: "MILLITIM", Value: 0},
		}
		if err := fits.EncodeImage(f, cards, recordPix(s, freqStart), []int{e2eRowFloats, e2eFineCount}); err != nil {
			t.Fatal(err)
		}
	}
	return path
}

// expectedVis resolves a visibility through the PFB wiring and the raw
// triangle layout, mirroring what the correlator files actually store.
func expectedVis(tslot, freq, a1, a2, p1, p2 int) complex64 {
	pfb := pfbInputsToOutputs()
	out1, out2 := pfb[2*a1+p1], pfb[2*a2+p2]
	oa1, op1 := out1/2, out1%2
	oa2, op2 := out2/2, out2%2
	var raw int
	conj := oa1 < oa2
	if conj {
		raw = 2*oa2*(oa2+1) + 4*oa1 + 2*op2 + op1
	} else {
		raw = 2*oa1*(oa1+1) + 4*oa2 + 2*op1 + op2
	}
	base := float32(tslot*1000000 + freq*10000)
	v := complex(base+float32(2*raw), base+float32(2*raw)+1)
	if conj {
		v = complex(real(v), -imag(v))
	}
	return v
}

func hasWarning(warns Warnings, substr string) bool {
	for _, w := range warns {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}

func TestReadMWACorrFITS(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeTestMetafits(t, dir),
		writeTestGpubox(t, dir, 1, []int{0, 1}, 0), // coarse 100, both integrations
		writeTestGpubox(t, dir, 2, []int{0}, 2),    // coarse 101, second integration missing
	}
	uv, warns, err := ReadMWACorrFITS(files, MWAOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if !hasWarning(warns, "no flag files") {
		t.Errorf("missing no-flag-files warning, got %v", warns)
	}

	if uv.Nants != 3 || uv.Nbls != 6 || uv.Ntimes != 2 || uv.Nblts != 12 || uv.Nfreqs != 4 || uv.Npols != 4 {
		t.Fatalf("dims: nants=%d nbls=%d ntimes=%d nblts=%d nfreqs=%d npols=%d",
			uv.Nants, uv.Nbls, uv.Ntimes, uv.Nblts, uv.Nfreqs, uv.Npols)
	}
	if uv.AntNumbers[0] != 1 || uv.AntNumbers[1] != 2 || uv.AntNumbers[2] != 3 {
		t.Fatalf("antenna numbers %v, want [1 2 3]", uv.AntNumbers)
	}
	if uv.AntNames[0] != "Tile001" || uv.AntNames[2] != "Tile003" {
		t.Errorf("antenna names %v out of order", uv.AntNames)
	}

	// 40 kHz channels averaged from 10 kHz ones shift the first center up
	// by 15 kHz: coarse channel C starts at C*1280 - 640 + 15 kHz
	wantFreqs := []float64{127375e3, 127415e3, 128655e3, 128695e3}
	for i, want := range wantFreqs {
		if math.Abs(uv.FreqHz[i]-want) > 1e-3 {
			t.Errorf("freq[%d] = %v, want %v", i, uv.FreqHz[i], want)
		}
	}

	// baseline-time axis: all baselines of time 0, then all of time 1
	wantPairs := [][2]int{{1, 1}, {1, 2}, {1, 3}, {2, 2}, {2, 3}, {3, 3}}
	for i, p := range wantPairs {
		for _, blt := range []int{i, i + uv.Nbls} {
			if uv.Ant1[blt] != p[0] || uv.Ant2[blt] != p[1] {
				t.Errorf("blt %d: pair (%d,%d), want (%d,%d)", blt, uv.Ant1[blt], uv.Ant2[blt], p[0], p[1])
			}
		}
		a1, a2, err := BaselineToAntnums(uv.Baselines[i])
		if err != nil {
			t.Fatalf("BaselineToAntnums(%d): %v", uv.Baselines[i], err)
		}
		if a1 != p[0] || a2 != p[1] {
			t.Errorf("baseline %d decodes to (%d,%d), want (%d,%d)", uv.Baselines[i], a1, a2, p[0], p[1])
		}
	}

	wantJD := coords.JDFromUnix(e2eStartSec + 1)
	if math.Abs(uv.TimeJD[0]-wantJD) > 1e-9 {
		t.Errorf("time[0] = %v, want %v", uv.TimeJD[0], wantJD)
	}
	if uv.IntegrationTime[0] != 2.0 {
		t.Errorf("integration time %v, want 2", uv.IntegrationTime[0])
	}
	if !strings.Contains(uv.History, "AIPS WTSCAL = 1.0") || !strings.Contains(uv.History, "observed by the test suite") {
		t.Errorf("history %q missing expected lines", uv.History)
	}

	// visibilities on unflagged baselines, across both files and both times
	checks := []struct{ tslot, freq, a1, a2, p1, p2 int }{
		{0, 0, 0, 0, 0, 0}, // slot 0 auto yy, raw cell 0
		{0, 0, 0, 1, 0, 0}, // swapped pair, conjugated
		{1, 1, 2, 2, 1, 1}, // widest raw index the 3-antenna set reaches
		{0, 2, 0, 2, 1, 0}, // file 2's frequency block
		{0, 3, 2, 2, 0, 1},
		{1, 0, 0, 2, 1, 1},
	}
	for _, c := range checks {
		blt := uv.BltIndex(c.tslot, TriangleIndex(3, c.a1, c.a2))
		got := uv.DataAt(blt, c.freq, 2*c.p1+c.p2)
		want := expectedVis(c.tslot, c.freq, c.a1, c.a2, c.p1, c.p2)
		if got != want {
			t.Errorf("t=%d f=%d (%d,%d,p%d%d): got %v, want %v", c.tslot, c.freq, c.a1, c.a2, c.p1, c.p2, got, want)
		}
	}

	// antenna 2 is flagged in the metafits: every baseline touching it is
	// fully flagged but keeps its sample counts
	for blt := 0; blt < uv.Nblts; blt++ {
		touches := uv.Ant1[blt] == 2 || uv.Ant2[blt] == 2
		for f := 0; f < uv.Nfreqs; f++ {
			missing := blt >= uv.Nbls && f >= 2 // file 2 has no second record
			for p := 0; p < 4; p++ {
				wantFlag := touches || missing
				if uv.FlagAt(blt, f, p) != wantFlag {
					t.Errorf("blt %d f %d p %d: flag=%v, want %v", blt, f, p, uv.FlagAt(blt, f, p), wantFlag)
				}
				wantNs := float32(1)
				if missing {
					wantNs = 0
				}
				if uv.NsampleAt(blt, f, p) != wantNs {
					t.Errorf("blt %d f %d p %d: nsample=%v, want %v", blt, f, p, uv.NsampleAt(blt, f, p), wantNs)
				}
				if missing && uv.DataAt(blt, f, p) != 0 {
					t.Errorf("blt %d f %d p %d: data=%v in a slot with no record", blt, f, p, uv.DataAt(blt, f, p))
				}
			}
		}
	}
}

func TestReadMWAMetafits(t *testing.T) {
	path := writeTestMetafits(t, t.TempDir())
	meta, err := readMWAMetafits(path)
	if err != nil {
		t.Fatal(err)
	}
	// duplicated rows collapse to one per antenna, reordered by number
	if len(meta.antNumbers) != 3 || meta.antNumbers[0] != 1 || meta.antNumbers[2] != 3 {
		t.Fatalf("antenna numbers %v", meta.antNumbers)
	}
	if meta.antNames[1] != "Tile002" {
		t.Errorf("antenna names %v", meta.antNames)
	}
	if meta.antENU[0] != [3]float64{10, 1, 375} {
		t.Errorf("antenna 1 ENU %v", meta.antENU[0])
	}
	if !meta.flaggedAnts[2] || meta.flaggedAnts[1] || meta.flaggedAnts[3] {
		t.Errorf("flagged set %v", meta.flaggedAnts)
	}
	if len(meta.coarseChans) != 2 || meta.coarseChans[0] != 100 {
		t.Errorf("coarse channels %v", meta.coarseChans)
	}
	if meta.intTimeSec != 2.0 || meta.chanWidthHz != 40e3 {
		t.Errorf("inttime %v width %v", meta.intTimeSec, meta.chanWidthHz)
	}
}

func TestReadMWACorrFITSOffGridRecord(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeTestMetafits(t, dir),
		writeTestGpubox(t, dir, 1, []int{0}, 0),
	}
	// append a record half an integration off the grid
	f, err := os.OpenFile(files[1], os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		t.Fatal(err)
	}
	cards := []fits.Card{
		{Key: "TIME", Value: e2eStartSec + 2},
		{Key: "MILLITIM", Value: 500},
	}
	if err := fits.EncodeImage(f, cards, recordPix(1, 0), []int{e2eRowFloats, e2eFineCount}); err != nil {
		t.Fatal(err)
	}
	f.Close()

	_, _, err = ReadMWACorrFITS(files, MWAOptions{})
	var tle *TimeLookupError
	if !errors.As(err, &tle) {
		t.Fatalf("got %v, want TimeLookupError", err)
	}
}

func TestScanMWADataFilesFineChannelMismatch(t *testing.T) {
	dir := t.TempDir()
	a := writeTestGpubox(t, dir, 1, []int{0}, 0)

	// second file with a different NAXIS2
	path := filepath.Join(dir, "1447000000_20151108123456_gpubox02_00.fits")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := fits.EncodePrimary(f, nil, nil); err != nil {
		t.Fatal(err)
	}
	cards := []fits.Card{{Key: "TIME", Value: e2eStartSec}, {Key: "MILLITIM", Value: 0}}
	if err := fits.EncodeImage(f, cards, recordPix(0, 0)[:e2eRowFloats], []int{e2eRowFloats, 1}); err != nil {
		t.Fatal(err)
	}
	f.Close()

	_, err = scanMWADataFiles([]string{a, path})
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("got %v, want FormatError", err)
	}
	if !strings.Contains(fe.Reason, "fine channel") {
		t.Errorf("unexpected reason %q", fe.Reason)
	}
}

func TestClassifyMWAFiles(t *testing.T) {
	var warns Warnings
	fs, err := classifyMWAFiles([]string{
		"obs.metafits",
		"obs_gpubox01_00.fits",
		"obs_gpubox02_01.fits",
		"obs_01.mwaf",
	}, false, &warns)
	if err != nil {
		t.Fatal(err)
	}
	if fs.metafits != "obs.metafits" || len(fs.data) != 2 || len(fs.flags) != 1 {
		t.Fatalf("classified %+v", fs)
	}
	if !hasWarning(warns, "will not be used") {
		t.Errorf("missing cotter warning, got %v", warns)
	}

	warns = nil
	if _, err := classifyMWAFiles([]string{"a.metafits", "b.metafits", "obs_gpubox01_00.fits"}, false, &warns); err == nil {
		t.Error("multiple metafits accepted")
	}
	if _, err := classifyMWAFiles([]string{"obs_gpubox01_00.fits"}, false, &warns); err == nil {
		t.Error("missing metafits accepted")
	}
	if _, err := classifyMWAFiles([]string{"a.metafits"}, false, &warns); err == nil {
		t.Error("missing data files accepted")
	}

	warns = nil
	if _, err := classifyMWAFiles([]string{"a.metafits", "obs_gpubox01_00.fits"}, false, &warns); err != nil {
		t.Fatal(err)
	}
	if !hasWarning(warns, "no flag files") {
		t.Errorf("missing no-flag-files warning, got %v", warns)
	}
}
