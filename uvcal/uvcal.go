// Package uvcal holds antenna-based calibration solutions: either
// frequency-resolved complex gains or wideband delays, per antenna, time and
// Jones polarization. It shares the dense flat-array layout and the explicit
// schema validation of the visibility container.
package uvcal

import (
	"fmt"
	"math"
)

// Calibration types. A gain solution carries one complex factor per fine
// channel; a delay solution carries one wideband delay per antenna instead,
// with the frequency axis collapsed to a single entry.
const (
	TypeGain  = "gain"
	TypeDelay = "delay"
)

// Gain conventions: whether calibrated data is raw divided by the gains or
// multiplied by them.
const (
	ConventionDivide   = "divide"
	ConventionMultiply = "multiply"
)

// Jones polarization codes, AIPS convention.
const (
	JonesXX = -5
	JonesYY = -6
	JonesXY = -7
	JonesYX = -8
)

// UVCal is a calibration solution set. Solution arrays are flat with the
// slowest axis first: (antenna, spectral window, frequency, time, jones);
// delay-type solutions use a frequency axis of length 1.
type UVCal struct {
	NantsData      int // antennas with solutions
	NantsTelescope int // antennas in the telescope table
	Nfreqs         int
	Ntimes         int
	Njones         int
	Nspws          int

	CalType        string // TypeGain or TypeDelay
	GainConvention string // ConventionDivide or ConventionMultiply

	// Gains is set for TypeGain, Delays (in seconds) for TypeDelay. Quality
	// and Flags always follow the shape of whichever solution array is
	// active.
	Gains   []complex64
	Delays  []float64
	Quality []float32
	Flags   []bool

	FreqHz          []float64
	ChannelWidthHz  float64
	TimeJD          []float64
	IntegrationTime float64
	JonesArray      []int
	SpwArray        []int

	// AntArray lists the antenna numbers with solutions; the telescope
	// tables may be larger.
	AntArray   []int
	AntNumbers []int
	AntNames   []string

	TelescopeName string
	History       string
}

// freqAxis is the length of the frequency axis of the solution arrays.
func (c *UVCal) freqAxis() int {
	if c.CalType == TypeDelay {
		return 1
	}
	return c.Nfreqs
}

func (c *UVCal) solutionSize() int {
	return c.NantsData * c.Nspws * c.freqAxis() * c.Ntimes * c.Njones
}

func (c *UVCal) solIndex(ant, spw, freq, time, jones int) int {
	return (((ant*c.Nspws+spw)*c.freqAxis()+freq)*c.Ntimes+time)*c.Njones + jones
}

// GainAt returns one gain solution. Valid only for TypeGain.
func (c *UVCal) GainAt(ant, spw, freq, time, jones int) complex64 {
	return c.Gains[c.solIndex(ant, spw, freq, time, jones)]
}

// DelayAt returns one delay solution in seconds. Valid only for TypeDelay.
func (c *UVCal) DelayAt(ant, spw, time, jones int) float64 {
	return c.Delays[c.solIndex(ant, spw, 0, time, jones)]
}

// FlagAt reports whether one solution cell is flagged.
func (c *UVCal) FlagAt(ant, spw, freq, time, jones int) bool {
	return c.Flags[c.solIndex(ant, spw, freq, time, jones)]
}

// SetCalTypeGain switches the container to gain calibration, allocating the
// solution arrays for the current counts. Any delay array is dropped.
func (c *UVCal) SetCalTypeGain() {
	c.CalType = TypeGain
	c.Delays = nil
	n := c.solutionSize()
	c.Gains = make([]complex64, n)
	c.Quality = make([]float32, n)
	c.Flags = make([]bool, n)
}

// SetCalTypeDelay switches the container to delay calibration, allocating the
// solution arrays for the current counts. Any gain array is dropped.
func (c *UVCal) SetCalTypeDelay() {
	c.CalType = TypeDelay
	c.Gains = nil
	n := c.solutionSize()
	c.Delays = make([]float64, n)
	c.Quality = make([]float32, n)
	c.Flags = make([]bool, n)
}

type calFieldSpec struct {
	name   string
	length func(c *UVCal) (got, want int)
	accept func(c *UVCal) error
}

var calSchema = []calFieldSpec{
	{
		name:   "quality_array",
		length: func(c *UVCal) (int, int) { return len(c.Quality), c.solutionSize() },
		accept: func(c *UVCal) error {
			for i, q := range c.Quality {
				if q < 0 {
					return fmt.Errorf("quality_array[%d] = %v is negative", i, q)
				}
			}
			return nil
		},
	},
	{
		name:   "flag_array",
		length: func(c *UVCal) (int, int) { return len(c.Flags), c.solutionSize() },
	},
	{
		name:   "freq_array",
		length: func(c *UVCal) (int, int) { return len(c.FreqHz), c.Nfreqs },
		accept: func(c *UVCal) error {
			for i, f := range c.FreqHz {
				if f <= 0 || f > 1e12 {
					return fmt.Errorf("freq_array[%d] = %v Hz out of range", i, f)
				}
			}
			return nil
		},
	},
	{
		name:   "time_array",
		length: func(c *UVCal) (int, int) { return len(c.TimeJD), c.Ntimes },
		accept: func(c *UVCal) error {
			for i, jd := range c.TimeJD {
				if jd < 2.4e6 || jd > 2.6e6 {
					return fmt.Errorf("time_array[%d] = %v is not a plausible JD", i, jd)
				}
			}
			return nil
		},
	},
	{
		name:   "jones_array",
		length: func(c *UVCal) (int, int) { return len(c.JonesArray), c.Njones },
		accept: func(c *UVCal) error {
			for _, j := range c.JonesArray {
				if j < JonesYX || j > JonesXX {
					return fmt.Errorf("jones code %d out of range", j)
				}
			}
			return nil
		},
	},
	{
		name:   "spw_array",
		length: func(c *UVCal) (int, int) { return len(c.SpwArray), c.Nspws },
	},
	{
		name:   "ant_array",
		length: func(c *UVCal) (int, int) { return len(c.AntArray), c.NantsData },
	},
	{
		name:   "antenna_numbers",
		length: func(c *UVCal) (int, int) { return len(c.AntNumbers), c.NantsTelescope },
		accept: func(c *UVCal) error {
			seen := make(map[int]bool, len(c.AntNumbers))
			last := math.MinInt
			for i, n := range c.AntNumbers {
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
		length: func(c *UVCal) (int, int) { return len(c.AntNames), c.NantsTelescope },
	},
}

// Check validates the container: the calibration type determines which of
// the gain/delay arrays is required, everything else is shape-checked
// against the counts. With acceptability on it also range-checks values.
func (c *UVCal) Check(acceptability bool) error {
	switch c.CalType {
	case TypeGain:
		if c.Gains == nil {
			return fmt.Errorf("uvcal: gain_array required for cal_type %q", c.CalType)
		}
		if got, want := len(c.Gains), c.solutionSize(); got != want {
			return fmt.Errorf("uvcal: gain_array has length %d, expected %d", got, want)
		}
	case TypeDelay:
		if c.Delays == nil {
			return fmt.Errorf("uvcal: delay_array required for cal_type %q", c.CalType)
		}
		if got, want := len(c.Delays), c.solutionSize(); got != want {
			return fmt.Errorf("uvcal: delay_array has length %d, expected %d", got, want)
		}
	default:
		return fmt.Errorf("uvcal: unknown cal_type %q", c.CalType)
	}
	if c.NantsData > c.NantsTelescope {
		return fmt.Errorf("uvcal: NantsData=%d exceeds NantsTelescope=%d", c.NantsData, c.NantsTelescope)
	}
	if acceptability {
		switch c.GainConvention {
		case ConventionDivide, ConventionMultiply:
		default:
			return fmt.Errorf("uvcal: unknown gain convention %q", c.GainConvention)
		}
	}
	for _, f := range calSchema {
		got, want := f.length(c)
		if got != want {
			return fmt.Errorf("uvcal: %s has length %d, expected %d", f.name, got, want)
		}
		if acceptability && f.accept != nil {
			if err := f.accept(c); err != nil {
				return fmt.Errorf("uvcal: %s: %w", f.name, err)
			}
		}
	}
	return nil
}
