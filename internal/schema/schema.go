// Package schema computes the unified column header for a merged table.
//
// The header order is stable and deterministic for a given key set:
// a fixed priority prefix of well-known columns, followed by all
// remaining columns in lexicographic order. The legacy "timestamp"
// column never survives reconciliation once split into date/time.
package schema

import (
	"sort"

	"github.com/eeglab/taskdata/internal/record"
)

// PriorityColumns is the fixed-order header prefix. Members appear in
// this order when present in the key set; everything else follows
// alphabetically.
var PriorityColumns = []string{
	record.ColumnParticipant,
	record.ColumnSession,
	record.ColumnTask,
	record.ColumnDate,
	record.ColumnTime,
	record.ColumnValue,
	record.ColumnMarker,
}

// Reconcile computes the ordered header list for the given set of
// column names. The input set is not modified.
func Reconcile(keys map[string]struct{}) []string {
	present := make(map[string]struct{}, len(keys))
	for k := range keys {
		present[k] = struct{}{}
	}
	delete(present, record.ColumnTimestamp)

	header := make([]string, 0, len(present))
	for _, col := range PriorityColumns {
		if _, ok := present[col]; ok {
			header = append(header, col)
			delete(present, col)
		}
	}

	rest := make([]string, 0, len(present))
	for k := range present {
		rest = append(rest, k)
	}
	sort.Strings(rest)

	return append(header, rest...)
}

// KeySet builds a key set from a list of column names.
func KeySet(columns []string) map[string]struct{} {
	set := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		set[c] = struct{}{}
	}
	return set
}
