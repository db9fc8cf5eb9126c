package table

import "strings"

// WriteMode governs whether a new batch is merged with or replaces the
// existing table contents.
type WriteMode string

const (
	// ModeAppend merges the batch with any previously stored rows.
	ModeAppend WriteMode = "append"
	// ModeOverwrite replaces the table with the batch alone.
	ModeOverwrite WriteMode = "overwrite"
)

// Valid reports whether m is a recognized write mode.
func (m WriteMode) Valid() bool {
	return m == ModeAppend || m == ModeOverwrite
}

// String returns the wire representation of the mode.
func (m WriteMode) String() string {
	return string(m)
}

// ParseWriteMode parses a mode string case-insensitively, falling back
// to def when the input is empty or unrecognized. The fallback is the
// process-wide configured default, never an error: a bad write_mode
// must not reject the batch.
func ParseWriteMode(s string, def WriteMode) (mode WriteMode, recognized bool) {
	mode = WriteMode(strings.ToLower(strings.TrimSpace(s)))
	if mode.Valid() {
		return mode, true
	}
	return def, s == ""
}
