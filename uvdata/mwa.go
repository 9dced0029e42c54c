package uvdata

import (
	"fmt"

	"github.com/uvdata-dev/uvdata/internal/coords"
	"github.com/uvdata-dev/uvdata/telescope"
)

// MWAOptions configure ReadMWACorrFITS. The zero value mirrors the reader's
// defaults: validation on, cotter flag files ignored.
type MWAOptions struct {
	// UseCotterFlags accepts .mwaf flag files without a warning. Merging
	// their contents into the flag array is not implemented; the files are
	// classified and recorded only.
	UseCotterFlags bool
	// SkipCheck disables the post-read schema validation.
	SkipCheck bool
	// SkipAcceptability disables the value-range part of the validation.
	SkipAcceptability bool
	// Workers bounds the number of data files read concurrently.
	// Zero means one per CPU.
	Workers int
}

// ReadMWACorrFITS reads one observation from a list of MWA correlator FITS
// files. The list must contain exactly one metafits file and at least one
// gpubox data file; a single read covers a single observation. Recoverable
// conditions (missing flag files, gaps in the coarse channel set) are
// returned as warnings; any fatal condition aborts with no partial object.
func ReadMWACorrFITS(files []string, opts MWAOptions) (*UVData, Warnings, error) {
	var warns Warnings

	fs, err := classifyMWAFiles(files, opts.UseCotterFlags, &warns)
	if err != nil {
		return nil, warns, err
	}
	scan, err := scanMWADataFiles(fs.data)
	if err != nil {
		return nil, warns, err
	}
	meta, err := readMWAMetafits(fs.metafits)
	if err != nil {
		return nil, warns, err
	}
	tel, ok := telescope.Lookup(meta.telescope)
	if !ok {
		return nil, warns, &ConfigError{Reason: fmt.Sprintf("unknown telescope %q in metafits", meta.telescope)}
	}

	cm, err := resolveMWAChannels(meta.coarseChans, scan.fileNums, &warns)
	if err != nil {
		return nil, warns, err
	}

	// time grid of integration centers, uniform at the metadata integration
	// time, spanning the earliest to latest record across all files
	intTimeMs := int64(meta.intTimeSec * 1000)
	if intTimeMs <= 0 {
		return nil, warns, &FormatError{Reason: fmt.Sprintf("metafits integration time %v s is not positive", meta.intTimeSec)}
	}
	ntimes := int((scan.endMs-scan.startMs)/intTimeMs) + 1
	centersMs := make([]int64, ntimes)
	timeIndex := make(map[int64]int, ntimes)
	for i := range centersMs {
		centersMs[i] = scan.startMs + int64(i)*intTimeMs + intTimeMs/2
		timeIndex[centersMs[i]] = i
	}

	nants := len(meta.antNumbers)
	uv := &UVData{
		Nants:  nants,
		Nbls:   nants * (nants + 1) / 2,
		Ntimes: ntimes,
		Nfreqs: len(cm.includedCoarse) * scan.numFineChans,
		Npols:  4,
		Nspws:  1,

		ChannelWidthHz: meta.chanWidthHz,
		Pols:           []int{PolYY, PolYX, PolXY, PolXX},
		SpwArray:       []int{0},

		AntNumbers: meta.antNumbers,
		AntNames:   meta.antNames,

		TelescopeName: tel.Name,
		Instrument:    meta.telescope,
		ObjectName:    meta.object,
		History:       meta.history + "\n AIPS WTSCAL = 1.0\n",
		VisUnits:      "uncalib",
		PhaseType:     "drift",
	}
	uv.Nblts = uv.Nbls * uv.Ntimes
	uv.FreqHz = buildMWAFreqArray(cm.includedCoarse, scan.numFineChans, meta.chanWidthHz)

	telXYZ := tel.ECEF()
	uv.TelescopeLocation = [3]float64{telXYZ.X, telXYZ.Y, telXYZ.Z}
	uv.AntPositions = make([][3]float64, nants)
	for i, enu := range meta.antENU {
		p := coords.ECEFFromENU(enu, tel.LatitudeRad, tel.LongitudeRad, tel.AltitudeM)
		uv.AntPositions[i] = [3]float64{p.X - telXYZ.X, p.Y - telXYZ.Y, p.Z - telXYZ.Z}
	}

	uv.TimeJD = make([]float64, uv.Nblts)
	uv.LSTRad = make([]float64, uv.Nblts)
	uv.IntegrationTime = make([]float64, uv.Nblts)
	uv.Ant1 = make([]int, uv.Nblts)
	uv.Ant2 = make([]int, uv.Nblts)
	uv.Baselines = make([]int64, uv.Nblts)
	uv.UVW = make([][3]float64, uv.Nblts)
	for t := 0; t < ntimes; t++ {
		jd := coords.JDFromUnix(float64(centersMs[t]) / 1000)
		lst := coords.LSTFromJD(jd, tel.LongitudeRad)
		for a1 := 0; a1 < nants; a1++ {
			for a2 := a1; a2 < nants; a2++ {
				blt := uv.BltIndex(t, TriangleIndex(nants, a1, a2))
				uv.TimeJD[blt] = jd
				uv.LSTRad[blt] = lst
				uv.IntegrationTime[blt] = meta.intTimeSec
				uv.Ant1[blt] = meta.antNumbers[a1]
				uv.Ant2[blt] = meta.antNumbers[a2]
				uv.Baselines[blt] = AntnumsToBaseline(meta.antNumbers[a1], meta.antNumbers[a2])
				for k := 0; k < 3; k++ {
					uv.UVW[blt][k] = uv.AntPositions[a2][k] - uv.AntPositions[a1][k]
				}
			}
		}
	}

	uv.Data = make([]complex64, uv.Nblts*uv.Nfreqs*uv.Npols)
	uv.Flags = make([]bool, len(uv.Data))
	uv.Nsamples = make([]float32, len(uv.Data))

	cube := newMWAStagingCube(ntimes, uv.Nfreqs)
	if err := scatterMWAFiles(cube, fs.data, intTimeMs, timeIndex, cm, scan.numFineChans, opts.Workers); err != nil {
		return nil, warns, err
	}
	if err := reindexMWA(uv, cube, meta); err != nil {
		return nil, warns, err
	}

	if !opts.SkipCheck {
		if err := uv.Check(!opts.SkipAcceptability); err != nil {
			return nil, warns, err
		}
	}
	return uv, warns, nil
}
