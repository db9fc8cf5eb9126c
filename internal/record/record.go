// Package record defines the measurement record model and the
// preprocessing applied to incoming batches before they are merged
// into a persisted table.
package record

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Well-known column names. The identity columns are stamped onto every
// record by Preprocess; date/time/timestamp participate in timestamp
// normalization.
const (
	ColumnParticipant = "participant_id"
	ColumnSession     = "session_id"
	ColumnTask        = "task"
	ColumnDate        = "date"
	ColumnTime        = "time"
	ColumnValue       = "value"
	ColumnMarker      = "marker"
	ColumnTimestamp   = "timestamp" // legacy, superseded by date/time
)

// Record represents one measurement sample: a mapping from column name
// to a scalar value. Values arrive as whatever the JSON decoder produced
// (string, float64, bool, nil) and are only coerced to strings at
// serialization time.
type Record map[string]any

// Clone returns a shallow copy of the record. Scalar values need no
// deep copy.
func (r Record) Clone() Record {
	out := make(Record, len(r)+3)
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Cell renders the value stored under key as a CSV cell. Missing keys
// and nil values render as the empty string.
func (r Record) Cell(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	return CellString(v)
}

// CellString renders a scalar value as a CSV cell.
//
// JSON numbers decode as float64; integral values render without a
// decimal point or exponent so an incoming 5 round-trips as "5".
func CellString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return CellString(float64(val))
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	case json.Number:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// Batch is the list of records in one ingestion request.
type Batch []Record

// KeyUnion folds every record's column names into dst. A nil dst is
// allocated on first use.
func (b Batch) KeyUnion(dst map[string]struct{}) map[string]struct{} {
	if dst == nil {
		dst = make(map[string]struct{})
	}
	for _, r := range b {
		for k := range r {
			dst[k] = struct{}{}
		}
	}
	return dst
}
