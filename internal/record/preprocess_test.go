package record

import (
	"testing"
	"time"
)

func TestPreprocessStampsIdentity(t *testing.T) {
	batch := Batch{
		{"value": 0.5},
		{"value": 0.7, "participant_id": "spoofed"},
	}

	out := Preprocess(batch, "p1", "s1", "flanker")

	if len(out) != 2 {
		t.Fatalf("got %d records, want 2", len(out))
	}
	for i, r := range out {
		if r[ColumnParticipant] != "p1" || r[ColumnSession] != "s1" || r[ColumnTask] != "flanker" {
			t.Errorf("record %d identity = %v/%v/%v",
				i, r[ColumnParticipant], r[ColumnSession], r[ColumnTask])
		}
	}
}

func TestPreprocessNormalizesNumericTime(t *testing.T) {
	const ms = int64(1700000000000)
	batch := Batch{
		{"time": float64(ms), "value": 0.5, "timestamp": "2023-11-14 22:13:20.000"},
	}

	out := Preprocess(batch, "p1", "s1", "unknown")
	r := out[0]

	want := time.UnixMilli(ms)
	if r[ColumnDate] != want.Format("2006-01-02") {
		t.Errorf("date = %v, want %v", r[ColumnDate], want.Format("2006-01-02"))
	}
	if r[ColumnTime] != want.Format("15:04:05.000") {
		t.Errorf("time = %v, want %v", r[ColumnTime], want.Format("15:04:05.000"))
	}
	if _, ok := r[ColumnTimestamp]; ok {
		t.Error("superseded timestamp field survived preprocessing")
	}
}

func TestPreprocessNonNumericTimePassesThrough(t *testing.T) {
	batch := Batch{
		{"time": "22:13:20.000", "timestamp": "legacy", "value": 1},
		{"value": 2},
	}

	out := Preprocess(batch, "p1", "s1", "unknown")

	if out[0][ColumnTime] != "22:13:20.000" {
		t.Errorf("non-numeric time rewritten: %v", out[0][ColumnTime])
	}
	if _, ok := out[0][ColumnDate]; ok {
		t.Error("date added without a numeric time")
	}
	if out[0][ColumnTimestamp] != "legacy" {
		t.Error("timestamp dropped on a record whose time was not normalized")
	}
	if _, ok := out[1][ColumnTime]; ok {
		t.Error("time invented on a record that had none")
	}
}

func TestPreprocessDoesNotMutateInput(t *testing.T) {
	batch := Batch{
		{"time": float64(1700000000000), "value": 0.5},
	}

	Preprocess(batch, "p1", "s1", "unknown")

	if batch[0]["time"] != float64(1700000000000) {
		t.Error("input record mutated")
	}
	if _, ok := batch[0][ColumnParticipant]; ok {
		t.Error("identity stamped onto input record")
	}
	if len(batch[0]) != 2 {
		t.Errorf("input record grew to %d fields", len(batch[0]))
	}
}
