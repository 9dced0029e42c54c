package uvdata

import "fmt"

// ConfigError reports an unusable ingest configuration: a bad file list or an
// option combination the reader cannot honor. It is raised before any data is
// decoded.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string { return "uvdata: config: " + e.Reason }

// FormatError reports files that are individually readable but mutually
// inconsistent, such as data files disagreeing on the fine-channel count.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string { return "uvdata: format: " + e.Reason }

// TimeLookupError reports a data record whose timestamp does not land exactly
// on the computed time grid.
type TimeLookupError struct {
	File   string
	UnixMs int64
}

func (e *TimeLookupError) Error() string {
	return fmt.Sprintf("uvdata: %s: record time %d.%03d s not on the time grid",
		e.File, e.UnixMs/1000, e.UnixMs%1000)
}

// InvariantError reports an internal index mapping that went out of range.
// This signals a corrupted hardware table or antenna table, not a recoverable
// data condition.
type InvariantError struct {
	Reason string
}

func (e *InvariantError) Error() string { return "uvdata: invariant violated: " + e.Reason }

// Warnings collects the recoverable conditions a read encountered. They never
// alter array shapes, which are always sized to the included data.
type Warnings []string

func (w *Warnings) addf(format string, args ...interface{}) {
	*w = append(*w, fmt.Sprintf(format, args...))
}
