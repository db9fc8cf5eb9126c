package table

import "testing"

func TestParseWriteMode(t *testing.T) {
	tests := []struct {
		in             string
		def            WriteMode
		want           WriteMode
		wantRecognized bool
	}{
		{"append", ModeOverwrite, ModeAppend, true},
		{"overwrite", ModeAppend, ModeOverwrite, true},
		{"OVERWRITE", ModeAppend, ModeOverwrite, true},
		{" Append ", ModeOverwrite, ModeAppend, true},
		{"", ModeAppend, ModeAppend, true},
		{"replace", ModeAppend, ModeAppend, false},
		{"banana", ModeOverwrite, ModeOverwrite, false},
	}

	for _, tt := range tests {
		got, recognized := ParseWriteMode(tt.in, tt.def)
		if got != tt.want || recognized != tt.wantRecognized {
			t.Errorf("ParseWriteMode(%q, %q) = (%q, %v), want (%q, %v)",
				tt.in, tt.def, got, recognized, tt.want, tt.wantRecognized)
		}
	}
}
