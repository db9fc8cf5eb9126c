// Package validation provides centralized input validation for taskdata.
//
package validation

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// =============================================================================
// Scalar Coercion
// =============================================================================

// CoerceString renders a decoded JSON scalar as the opaque string the
// storage layer works with. Participant and session identifiers accept
// any scalar type; integral numbers must not grow a decimal point on
// the way through.
func CoerceString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	case nil:
		return ""
	default:
		return fmt.Sprint(val)
	}
}

// =============================================================================
// Path Component Safety
// =============================================================================

// SafeComponent returns a form of name that is safe to embed in a file
// or directory name. Path separators and other filesystem-hostile runes
// are replaced with underscores; a name reducing to nothing or to a
// dot-only string becomes "_".
//
// Identifiers are opaque strings from remote clients and end up in
// on-disk paths, so they must not be able to escape the data root.
func SafeComponent(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	for _, r := range name {
		switch {
		case r == '/' || r == '\\' || r == 0:
			b.WriteRune('_')
		case r < 32 || r == 127:
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}

	out := b.String()
	if out == "" || strings.Trim(out, ".") == "" {
		return "_"
	}
	return out
}
