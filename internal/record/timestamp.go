package record

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Timestamp formats. Incoming samples carry epoch milliseconds; tables
// written before the date/time split carry a combined legacy string.
const (
	dateLayout       = "2006-01-02"
	timeLayout       = "15:04:05.000"
	legacyScanLayout = "2006-01-02 15:04:05.999999"
)

// Numeric extracts a float64 from a decoded JSON scalar. Only
// genuinely numeric types qualify; strings and booleans do not.
func Numeric(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// maxEpochMillis bounds the epoch values representable as int64
// nanoseconds; beyond it the conversion would wrap.
const maxEpochMillis = float64(math.MaxInt64 / int64(time.Millisecond))

// Normalize converts an epoch-milliseconds value into separate
// calendar-date and time-of-day strings, interpreted in local time.
//
// Malformed input must never abort ingestion: non-numeric values and
// epochs outside the representable range come back stringified as the
// date with an empty time, and the caller applies its fallback policy.
func Normalize(v any) (date, timeOfDay string) {
	ms, ok := Numeric(v)
	if !ok || math.IsNaN(ms) || ms > maxEpochMillis || ms < -maxEpochMillis {
		return fmt.Sprint(v), ""
	}

	t := time.Unix(0, int64(ms*float64(time.Millisecond)))
	return t.Format(dateLayout), t.Format(timeLayout)
}

// SplitLegacy parses a combined legacy timestamp of the form
// "YYYY-MM-DD HH:MM:SS.mmm" into separate date and time strings, the
// time half re-rendered at millisecond precision. ok is false when the
// input does not match, in which case the caller leaves the original
// field untouched.
func SplitLegacy(s string) (date, timeOfDay string, ok bool) {
	t, err := time.ParseInLocation(legacyScanLayout, s, time.Local)
	if err != nil {
		return "", "", false
	}
	return t.Format(dateLayout), t.Format(timeLayout), true
}
