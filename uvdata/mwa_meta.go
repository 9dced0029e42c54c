package uvdata

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/uvdata-dev/uvdata/internal/fits"
)

// mwaMetadata is the static observation description read from the single
// metafits file.
type mwaMetadata struct {
	coarseChans []int   // physical channel numbers as listed, not file order
	intTimeSec  float64 // integration time
	chanWidthHz float64 // fine channel width after averaging
	history     string
	telescope   string
	object      string

	// antenna table, ascending antenna-number order
	antNumbers  []int
	antNames    []string
	antENU      [][3]float64
	flaggedAnts map[int]bool
}

// readMWAMetafits extracts the observation metadata and the antenna table.
// The source table lists each antenna twice, once per receiver polarization;
// only the odd-indexed half is semantically distinct.
func readMWAMetafits(path string) (*mwaMetadata, error) {
	units, err := fits.OpenFile(path)
	if err != nil {
		return nil, err
	}
	if len(units) < 2 || units[1].Class != "BINTABLE" {
		return nil, &FormatError{Reason: fmt.Sprintf("%s: expected a primary header plus antenna table", path)}
	}
	hdr := units[0].Header

	meta := &mwaMetadata{flaggedAnts: make(map[int]bool)}

	chanStr, ok := hdr.Str("CHANNELS")
	if !ok {
		return nil, &FormatError{Reason: fmt.Sprintf("%s: missing CHANNELS", path)}
	}
	for _, tok := range strings.Split(chanStr, ",") {
		ch, err := strconv.Atoi(strings.TrimSpace(tok))
		if err != nil {
			return nil, &FormatError{Reason: fmt.Sprintf("%s: bad CHANNELS entry %q", path, tok)}
		}
		meta.coarseChans = append(meta.coarseChans, ch)
	}
	if meta.intTimeSec, ok = hdr.Float("INTTIME"); !ok {
		return nil, &FormatError{Reason: fmt.Sprintf("%s: missing INTTIME", path)}
	}
	fineKHz, ok := hdr.Float("FINECHAN")
	if !ok {
		return nil, &FormatError{Reason: fmt.Sprintf("%s: missing FINECHAN", path)}
	}
	meta.chanWidthHz = fineKHz * 1000
	meta.history = strings.Join(hdr.History, "\n")
	if meta.telescope, ok = hdr.Str("TELESCOP"); !ok {
		return nil, &FormatError{Reason: fmt.Sprintf("%s: missing TELESCOP", path)}
	}
	meta.object, _ = hdr.Str("FILENAME")

	tbl := units[1]
	numbers, err := tbl.ColumnInts("Antenna")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	names, err := tbl.ColumnStrings("TileName")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	flags, err := tbl.ColumnInts("Flag")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	east, err := tbl.ColumnFloats("East")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	north, err := tbl.ColumnFloats("North")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	height, err := tbl.ColumnFloats("Height")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	// take every second row, then sort by antenna number
	type antRow struct {
		num  int
		name string
		enu  [3]float64
		flag bool
	}
	var rows []antRow
	for i := 1; i < len(numbers); i += 2 {
		rows = append(rows, antRow{
			num:  numbers[i],
			name: names[i],
			enu:  [3]float64{east[i], north[i], height[i]},
			flag: flags[i] != 0,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].num < rows[j].num })
	for _, r := range rows {
		meta.antNumbers = append(meta.antNumbers, r.num)
		meta.antNames = append(meta.antNames, r.name)
		meta.antENU = append(meta.antENU, r.enu)
		if r.flag {
			meta.flaggedAnts[r.num] = true
		}
	}
	return meta, nil
}
