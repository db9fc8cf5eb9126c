package table

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/eeglab/taskdata/internal/record"
	helpers "github.com/eeglab/taskdata/internal/testing"
)

func testIdentity() record.Identity {
	return record.Identity{ParticipantID: "p1", SessionID: "s1", Task: "unknown"}
}

func sampleBatch(n int) record.Batch {
	batch := make(record.Batch, 0, n)
	for i := 0; i < n; i++ {
		batch = append(batch, record.Record{
			"time":   float64(1700000000000 + i*100),
			"value":  0.5,
			"marker": "x",
		})
	}
	return batch
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return rows
}

func TestMergeCreatesTable(t *testing.T) {
	e := NewEngine(t.TempDir())

	res, err := e.Merge(testIdentity(), sampleBatch(1), ModeAppend)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}

	if !res.Created {
		t.Error("Created = false for a fresh table")
	}
	if res.Action() != "created" {
		t.Errorf("action = %q", res.Action())
	}
	if res.RecordsAdded != 1 || res.TotalRecords != 1 {
		t.Errorf("counts = %d/%d, want 1/1", res.RecordsAdded, res.TotalRecords)
	}

	wantPath := filepath.Join(e.DataDir(), "unknown", "participant_p1_session_s1.csv")
	if res.Path != wantPath {
		t.Errorf("path = %q, want %q", res.Path, wantPath)
	}

	rows := readCSV(t, res.Path)
	wantHeader := []string{"participant_id", "session_id", "task", "date", "time", "value", "marker"}
	if !reflect.DeepEqual(rows[0], wantHeader) {
		t.Errorf("header = %v, want %v", rows[0], wantHeader)
	}
	if len(rows) != 2 {
		t.Errorf("file has %d rows incl. header, want 2", len(rows))
	}
}

func TestMergeAppendIsAdditive(t *testing.T) {
	e := NewEngine(t.TempDir())
	id := testIdentity()

	if _, err := e.Merge(id, sampleBatch(3), ModeAppend); err != nil {
		t.Fatalf("first merge: %v", err)
	}

	res, err := e.Merge(id, sampleBatch(2), ModeAppend)
	if err != nil {
		t.Fatalf("second merge: %v", err)
	}

	if res.Created {
		t.Error("Created = true for an existing table")
	}
	if res.Action() != "appended to" {
		t.Errorf("action = %q", res.Action())
	}
	if res.RecordsAdded != 2 || res.TotalRecords != 5 {
		t.Errorf("counts = %d/%d, want 2/5", res.RecordsAdded, res.TotalRecords)
	}

	rows := readCSV(t, res.Path)
	if len(rows) != 6 { // header + 5
		t.Errorf("file has %d rows incl. header, want 6", len(rows))
	}
}

func TestMergeOverwriteReplaces(t *testing.T) {
	e := NewEngine(t.TempDir())
	id := testIdentity()

	if _, err := e.Merge(id, sampleBatch(3), ModeAppend); err != nil {
		t.Fatalf("first merge: %v", err)
	}

	res, err := e.Merge(id, sampleBatch(1), ModeOverwrite)
	if err != nil {
		t.Fatalf("overwrite merge: %v", err)
	}

	if res.Action() != "overwritten" {
		t.Errorf("action = %q", res.Action())
	}
	if res.TotalRecords != 1 {
		t.Errorf("total = %d, want 1", res.TotalRecords)
	}

	rows := readCSV(t, res.Path)
	if len(rows) != 2 {
		t.Errorf("file has %d rows incl. header, want 2", len(rows))
	}
}

func TestMergeUnionsColumnsAcrossBatches(t *testing.T) {
	e := NewEngine(t.TempDir())
	id := testIdentity()

	if _, err := e.Merge(id, record.Batch{{"value": 1}}, ModeAppend); err != nil {
		t.Fatalf("first merge: %v", err)
	}

	res, err := e.Merge(id, record.Batch{{"reaction_ms": 412}}, ModeAppend)
	if err != nil {
		t.Fatalf("second merge: %v", err)
	}

	rows := readCSV(t, res.Path)
	header := rows[0]
	if !contains(header, "value") || !contains(header, "reaction_ms") {
		t.Errorf("header missing unioned columns: %v", header)
	}

	// Old rows back-fill the new column as empty
	idx := -1
	for i, col := range header {
		if col == "reaction_ms" {
			idx = i
		}
	}
	if rows[1][idx] != "" {
		t.Errorf("back-filled cell = %q, want empty", rows[1][idx])
	}
}

func TestMergeMigratesLegacyTable(t *testing.T) {
	e := NewEngine(t.TempDir())
	id := testIdentity()

	// A table written before the date/time split
	taskDir := e.TaskDir(id.Task)
	if err := os.MkdirAll(taskDir, 0o755); err != nil {
		t.Fatal(err)
	}
	legacy := "timestamp,value\n2023-11-14 22:13:20.500,1\n"
	if err := os.WriteFile(e.TablePath(id), []byte(legacy), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := e.Merge(id, sampleBatch(1), ModeAppend)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}

	rows := readCSV(t, res.Path)
	if contains(rows[0], "timestamp") {
		t.Errorf("legacy timestamp column survived: %v", rows[0])
	}
	if !contains(rows[0], "date") || !contains(rows[0], "time") {
		t.Errorf("date/time columns missing: %v", rows[0])
	}

	// The migrated legacy row keeps its split values
	dateIdx, timeIdx := -1, -1
	for i, col := range rows[0] {
		switch col {
		case "date":
			dateIdx = i
		case "time":
			timeIdx = i
		}
	}
	if rows[1][dateIdx] != "2023-11-14" || rows[1][timeIdx] != "22:13:20.500" {
		t.Errorf("migrated row = %v", rows[1])
	}

	if res.TotalRecords != 2 {
		t.Errorf("total = %d, want 2", res.TotalRecords)
	}
}

func TestMergeKeepsMigratedColumnsWithoutNewTimes(t *testing.T) {
	e := NewEngine(t.TempDir())
	id := testIdentity()

	taskDir := e.TaskDir(id.Task)
	if err := os.MkdirAll(taskDir, 0o755); err != nil {
		t.Fatal(err)
	}
	legacy := "timestamp,value\n2023-11-14 22:13:20.500,1\n"
	if err := os.WriteFile(e.TablePath(id), []byte(legacy), 0o644); err != nil {
		t.Fatal(err)
	}

	// The incoming batch contributes no time field of its own.
	res, err := e.Merge(id, record.Batch{{"value": 2}}, ModeAppend)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}

	rows := readCSV(t, res.Path)
	if !contains(rows[0], "date") || !contains(rows[0], "time") {
		t.Errorf("migrated date/time columns lost: %v", rows[0])
	}
}

func TestMergeSanitizesPathComponents(t *testing.T) {
	dataDir := t.TempDir()
	e := NewEngine(dataDir)

	id := record.Identity{ParticipantID: "../escape", SessionID: "s/1", Task: "../../etc"}
	res, err := e.Merge(id, sampleBatch(1), ModeAppend)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}

	rel, err := filepath.Rel(dataDir, res.Path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.HasPrefix(rel, "..") {
		t.Errorf("table escaped data root: %s", res.Path)
	}
}

func TestMergeConcurrentSameKey(t *testing.T) {
	e := NewEngine(t.TempDir())
	id := testIdentity()

	const (
		workers = 8
		perCall = 5
	)

	h := helpers.NewTestHelper(t)
	for i := 0; i < workers; i++ {
		h.Add(1)
		go func() {
			defer h.Done()
			if _, err := e.Merge(id, sampleBatch(perCall), ModeAppend); err != nil {
				h.Error(err)
			}
		}()
	}
	h.Wait()

	rows := readCSV(t, e.TablePath(id))
	want := workers*perCall + 1 // + header
	if len(rows) != want {
		t.Errorf("file has %d rows incl. header, want %d: concurrent appends lost rows", len(rows), want)
	}
}
