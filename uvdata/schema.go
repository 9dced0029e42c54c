package uvdata

import (
	"fmt"
	"math"
)

// The container is validated by an explicit schema: a list of field
// descriptors checked by one routine, instead of per-field reflection. Each
// descriptor names the field, the length it must have given the current
// counts, and an optional acceptability check over its values.

type fieldSpec struct {
	name   string
	length func(uv *UVData) (got, want int)
	accept func(uv *UVData) error
}

func jdAcceptable(jd float64) bool {
	// JD between years ~1859 and ~2406; generous but catches raw Unix seconds
	return jd > 2.4e6 && jd < 2.6e6
}

var uvSchema = []fieldSpec{
	{
		name:   "data_array",
		length: func(uv *UVData) (int, int) { return len(uv.Data), uv.Nblts * uv.Nfreqs * uv.Npols },
	},
	{
		name:   "flag_array",
		length: func(uv *UVData) (int, int) { return len(uv.Flags), uv.Nblts * uv.Nfreqs * uv.Npols },
	},
	{
		name:   "nsample_array",
		length: func(uv *UVData) (int, int) { return len(uv.Nsamples), uv.Nblts * uv.Nfreqs * uv.Npols },
		accept: func(uv *UVData) error {
			for i, n := range uv.Nsamples {
				if n < 0 {
					return fmt.Errorf("nsample_array[%d] = %v is negative", i, n)
				}
			}
			return nil
		},
	},
	{
		name:   "freq_array",
		length: func(uv *UVData) (int, int) { return len(uv.FreqHz), uv.Nfreqs },
		accept: func(uv *UVData) error {
			for i, f := range uv.FreqHz {
				if f <= 0 || f > 1e12 {
					return fmt.Errorf("freq_array[%d] = %v Hz out of range", i, f)
				}
			}
			return nil
		},
	},
	{
		name:   "polarization_array",
		length: func(uv *UVData) (int, int) { return len(uv.Pols), uv.Npols },
		accept: func(uv *UVData) error {
			for _, p := range uv.Pols {
				if p < -8 || p > 4 || p == 0 {
					return fmt.Errorf("polarization code %d out of range", p)
				}
			}
			return nil
		},
	},
	{
		name:   "time_array",
		length: func(uv *UVData) (int, int) { return len(uv.TimeJD), uv.Nblts },
		accept: func(uv *UVData) error {
			for i, jd := range uv.TimeJD {
				if !jdAcceptable(jd) {
					return fmt.Errorf("time_array[%d] = %v is not a plausible JD", i, jd)
				}
			}
			return nil
		},
	},
	{
		name:   "lst_array",
		length: func(uv *UVData) (int, int) { return len(uv.LSTRad), uv.Nblts },
		accept: func(uv *UVData) error {
			for i, l := range uv.LSTRad {
				if l < 0 || l >= 2*math.Pi {
					return fmt.Errorf("lst_array[%d] = %v outside [0, 2pi)", i, l)
				}
			}
			return nil
		},
	},
	{
		name:   "integration_time",
		length: func(uv *UVData) (int, int) { return len(uv.IntegrationTime), uv.Nblts },
	},
	{
		name:   "ant_1_array",
		length: func(uv *UVData) (int, int) { return len(uv.Ant1), uv.Nblts },
	},
	{
		name:   "ant_2_array",
		length: func(uv *UVData) (int, int) { return len(uv.Ant2), uv.Nblts },
	},
	{
		name:   "baseline_array",
		length: func(uv *UVData) (int, int) { return len(uv.Baselines), uv.Nblts },
	},
	{
		name:   "uvw_array",
		length: func(uv *UVData) (int, int) { return len(uv.UVW), uv.Nblts },
		accept: func(uv *UVData) error {
			for i, u := range uv.UVW {
				r := math.Sqrt(u[0]*u[0] + u[1]*u[1] + u[2]*u[2])
				if r > 1e8 {
					return fmt.Errorf("uvw_array[%d] is %v m long", i, r)
				}
			}
			return nil
		},
	},
	{
		name:   "antenna_numbers",
		length: func(uv *UVData) (int, int) { return len(uv.AntNumbers), uv.Nants },
		accept: func(uv *UVData) error {
			seen := make(map[int]bool, len(uv.AntNumbers))
			last := math.MinInt
			for i, n := range uv.AntNumbers {
				if seen[n] {
					return fmt.Errorf("antenna number %d appears twice", n)
				}
				seen[n] = true
				if n < last {
					return fmt.Errorf("antenna_numbers not ascending at index %d", i)
				}
				last = n
			}
			return nil
		},
	},
	{
		name:   "antenna_names",
		length: func(uv *UVData) (int, int) { return len(uv.AntNames), uv.Nants },
	},
	{
		name:   "antenna_positions",
		length: func(uv *UVData) (int, int) { return len(uv.AntPositions), uv.Nants },
	},
}

// Check validates array shapes against the counts, plus the count identities
// Nblts = Nbls*Ntimes and Nbls = Nants*(Nants+1)/2. With acceptability on it
// also range-checks values.
func (uv *UVData) Check(acceptability bool) error {
	if uv.Nblts != uv.Nbls*uv.Ntimes {
		return fmt.Errorf("uvdata: Nblts=%d != Nbls*Ntimes=%d", uv.Nblts, uv.Nbls*uv.Ntimes)
	}
	if want := uv.Nants * (uv.Nants + 1) / 2; uv.Nbls != want {
		return fmt.Errorf("uvdata: Nbls=%d != Nants*(Nants+1)/2=%d", uv.Nbls, want)
	}
	for _, f := range uvSchema {
		got, want := f.length(uv)
		if got != want {
			return fmt.Errorf("uvdata: %s has length %d, expected %d", f.name, got, want)
		}
		if acceptability && f.accept != nil {
			if err := f.accept(uv); err != nil {
				return fmt.Errorf("uvdata: %s: %w", f.name, err)
			}
		}
	}
	return nil
}
