package validation

import (
	"strings"
	"testing"
)

func TestCoerceString(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"abc", "abc"},
		{float64(42), "42"},       // JSON integer: no decimal point
		{float64(4.5), "4.5"},
		{float64(1700000000000), "1700000000000"}, // no exponent form
		{true, "true"},
		{nil, ""},
	}

	for _, tt := range tests {
		if got := CoerceString(tt.in); got != tt.want {
			t.Errorf("CoerceString(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSafeComponent(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"flanker", "flanker"},
		{"p-01_a.b", "p-01_a.b"},
		{"a/b", "a_b"},
		{`a\b`, "a_b"},
		{"..", "_"},
		{".", "_"},
		{"", "_"},
		{"tab\there", "tab_here"},
	}

	for _, tt := range tests {
		if got := SafeComponent(tt.in); got != tt.want {
			t.Errorf("SafeComponent(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSafeComponentNeverContainsSeparators(t *testing.T) {
	inputs := []string{"../../../etc/passwd", "a/../b", `..\..\win`, "x\x00y"}
	for _, in := range inputs {
		got := SafeComponent(in)
		if strings.ContainsAny(got, `/\`) {
			t.Errorf("SafeComponent(%q) = %q still contains a separator", in, got)
		}
	}
}
