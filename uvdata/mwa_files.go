package uvdata

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/uvdata-dev/uvdata/internal/fits"
)

// mwaFileSet is the classified input file list for one observation.
type mwaFileSet struct {
	metafits string
	data     []string
	flags    []string
}

// mwaFileNumber extracts the two-digit correlator file number from a data
// filename: the last two characters of the second-to-last underscore token,
// e.g. 1131733552_20151110121857_gpubox02_00.fits -> 2.
func mwaFileNumber(path string) (int, error) {
	parts := strings.Split(path, "_")
	if len(parts) < 2 {
		return 0, &ConfigError{Reason: fmt.Sprintf("cannot find file number in %q", path)}
	}
	tok := parts[len(parts)-2]
	if len(tok) < 2 {
		return 0, &ConfigError{Reason: fmt.Sprintf("cannot find file number in %q", path)}
	}
	n, err := strconv.Atoi(tok[len(tok)-2:])
	if err != nil {
		return 0, &ConfigError{Reason: fmt.Sprintf("cannot find file number in %q", path)}
	}
	return n, nil
}

// classifyMWAFiles partitions the input list by suffix convention. Exactly one
// metafits file and at least one data file are required; flag files are
// optional and produce a warning when absent, or when present but disabled.
func classifyMWAFiles(files []string, useCotterFlags bool, warns *Warnings) (mwaFileSet, error) {
	var fs mwaFileSet
	cotterWarned := false
	for _, f := range files {
		lower := strings.ToLower(f)
		switch {
		case strings.HasSuffix(lower, ".metafits"):
			if fs.metafits != "" {
				return fs, &ConfigError{Reason: "multiple metafits files in filelist"}
			}
			fs.metafits = f
		case strings.HasSuffix(lower, "00.fits") || strings.HasSuffix(lower, "01.fits"):
			fs.data = append(fs.data, f)
		case strings.HasSuffix(lower, ".mwaf"):
			if !useCotterFlags && !cotterWarned {
				warns.addf("mwaf files submitted but will not be used; rerun with UseCotterFlags to include them")
				cotterWarned = true
			}
			fs.flags = append(fs.flags, f)
		}
	}
	if fs.metafits == "" {
		return fs, &ConfigError{Reason: "no metafits file submitted"}
	}
	if len(fs.data) == 0 {
		return fs, &ConfigError{Reason: "no data files submitted"}
	}
	if len(fs.flags) == 0 {
		warns.addf("no flag files submitted")
	}
	return fs, nil
}

// mwaScan summarizes the data-file headers without decoding payloads.
type mwaScan struct {
	startMs      int64 // first record timestamp across all files, Unix ms
	endMs        int64 // last record timestamp across all files, Unix ms
	numFineChans int
	fileNums     []int // included file numbers, ascending, deduplicated
}

// headerTimeMs reads the TIME/MILLITIM pair of a record header as Unix
// milliseconds. Millisecond precision makes the exact-match rule of the time
// grid lossless.
func headerTimeMs(h fits.Header) (int64, error) {
	sec, ok := h.Int("TIME")
	if !ok {
		return 0, &FormatError{Reason: "record header missing TIME"}
	}
	ms, ok := h.Int("MILLITIM")
	if !ok {
		return 0, &FormatError{Reason: "record header missing MILLITIM"}
	}
	return int64(sec)*1000 + int64(ms), nil
}

// scanMWADataFiles finds the global time range and the shared fine-channel
// count across all data files, and collects the included file numbers.
func scanMWADataFiles(data []string) (mwaScan, error) {
	scan := mwaScan{startMs: -1, endMs: -1}
	seen := make(map[int]bool)
	for _, path := range data {
		num, err := mwaFileNumber(path)
		if err != nil {
			return scan, err
		}
		if !seen[num] {
			seen[num] = true
			scan.fileNums = append(scan.fileNums, num)
		}
		headers, err := fits.ScanFileHeaders(path)
		if err != nil {
			return scan, err
		}
		if len(headers) < 2 {
			return scan, &FormatError{Reason: fmt.Sprintf("%s has no data records", path)}
		}
		first, err := headerTimeMs(headers[1])
		if err != nil {
			return scan, fmt.Errorf("%s: %w", path, err)
		}
		last, err := headerTimeMs(headers[len(headers)-1])
		if err != nil {
			return scan, fmt.Errorf("%s: %w", path, err)
		}
		if scan.startMs < 0 || first < scan.startMs {
			scan.startMs = first
		}
		if last > scan.endMs {
			scan.endMs = last
		}
		// fine-channel count is NAXIS2 of the record images
		fine := 1
		if axes := headers[1].Naxis(); len(axes) >= 2 {
			fine = axes[1]
		}
		if scan.numFineChans == 0 {
			scan.numFineChans = fine
		} else if scan.numFineChans != fine {
			return scan, &FormatError{
				Reason: fmt.Sprintf("data files disagree on fine channel count: %d vs %d (%s)",
					scan.numFineChans, fine, path),
			}
		}
	}
	sort.Ints(scan.fileNums)
	return scan, nil
}
