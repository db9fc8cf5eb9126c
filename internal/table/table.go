// Package table implements the on-disk measurement table and the merge
// engine that reconciles incoming batches against previously stored
// rows.
//
// A table is a CSV file with a header row followed by one row per
// record. Every row is written aligned to the full reconciled header;
// cells with no value render empty. Rewrites go through a temp file and
// rename so a failed write never leaves a truncated table behind.
package table

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"

	"github.com/eeglab/taskdata/internal/errors"
	"github.com/eeglab/taskdata/internal/record"
)

// Table holds the full persisted row set plus header for one identity.
type Table struct {
	Header []string
	Rows   []record.Record
}

// Load reads a table file and returns its header and rows. Rows come
// back as records keyed by the header columns; short rows are padded
// with empty cells the way a ragged CSV is conventionally read.
//
// Rows still carrying a combined legacy "timestamp" value and no
// date/time columns are migrated in memory: the timestamp splits into
// separate date and time fields when parseable and stays untouched
// otherwise. The migration becomes durable on the next rewrite.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewStorage("open", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return &Table{}, nil
	}
	if err != nil {
		return nil, errors.NewStorage("parse", path, err)
	}

	hasDate := contains(header, record.ColumnDate)
	hasTime := contains(header, record.ColumnTime)

	t := &Table{Header: header}
	for {
		cells, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.NewStorage("parse", path, err)
		}

		row := make(record.Record, len(header))
		for i, col := range header {
			if i < len(cells) {
				row[col] = cells[i]
			} else {
				row[col] = ""
			}
		}

		migrateLegacyTimestamp(row, hasDate, hasTime)
		t.Rows = append(t.Rows, row)
	}

	return t, nil
}

// migrateLegacyTimestamp splits a combined legacy timestamp into
// date/time on rows that predate the split. Unparseable values are
// left alone; the reconciled header drops the timestamp column either
// way.
func migrateLegacyTimestamp(row record.Record, hasDate, hasTime bool) {
	if hasDate || hasTime {
		return
	}
	ts, ok := row[record.ColumnTimestamp].(string)
	if !ok {
		return
	}
	date, timeOfDay, ok := record.SplitLegacy(ts)
	if !ok {
		return
	}
	row[record.ColumnDate] = date
	row[record.ColumnTime] = timeOfDay
	delete(row, record.ColumnTimestamp)
}

// Write serializes rows under header to path, fully replacing any
// previous contents. The write lands in a temp file in the target
// directory first and is renamed into place after a successful sync.
func Write(path string, header []string, rows []record.Record) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.NewStorage("create temp file in", dir, err)
	}
	tmpPath := tmp.Name()
	defer func() {
		// No-ops once the rename has happened.
		tmp.Close()
		os.Remove(tmpPath)
	}()

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		return errors.NewStorage("write header", tmpPath, err)
	}

	cells := make([]string, len(header))
	for _, row := range rows {
		for i, col := range header {
			cells[i] = row.Cell(col)
		}
		if err := w.Write(cells); err != nil {
			return errors.NewStorage("write row", tmpPath, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return errors.NewStorage("flush", tmpPath, err)
	}
	if err := tmp.Sync(); err != nil {
		return errors.NewStorage("sync", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return errors.NewStorage("close", tmpPath, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return errors.NewStorage("rename to", path, err)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
