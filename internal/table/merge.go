package table

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/eeglab/taskdata/internal/errors"
	"github.com/eeglab/taskdata/internal/logging"
	"github.com/eeglab/taskdata/internal/record"
	"github.com/eeglab/taskdata/internal/schema"
	"github.com/eeglab/taskdata/internal/validation"
)

// Engine merges incoming batches into per-identity table files under a
// data root. It owns the whole read-then-write sequence for a request;
// the data root and nothing else is shared between requests.
type Engine struct {
	dataDir string
	locks   *keyLocks
	log     *slog.Logger
}

// NewEngine creates a merge engine rooted at dataDir.
func NewEngine(dataDir string) *Engine {
	return &Engine{
		dataDir: dataDir,
		locks:   newKeyLocks(),
		log:     logging.Component("merge"),
	}
}

// DataDir returns the engine's data root.
func (e *Engine) DataDir() string {
	return e.dataDir
}

// MergeResult summarizes one completed merge.
type MergeResult struct {
	Created      bool      // true when no table existed before
	Mode         WriteMode // mode the merge actually ran under
	Path         string    // table file path
	TaskDir      string    // task-scoped directory
	RecordsAdded int       // records in the incoming batch
	TotalRecords int       // rows in the written table
}

// Action returns the past-tense verb describing what the merge did:
// "created", "appended to" or "overwritten".
func (r MergeResult) Action() string {
	switch {
	case r.Created:
		return "created"
	case r.Mode == ModeAppend:
		return "appended to"
	default:
		return "overwritten"
	}
}

// TaskDir resolves the directory holding all tables for a task.
func (e *Engine) TaskDir(task string) string {
	return filepath.Join(e.dataDir, validation.SafeComponent(task))
}

// TablePath resolves the table file for an identity.
func (e *Engine) TablePath(id record.Identity) string {
	name := fmt.Sprintf("participant_%s_session_%s.csv",
		validation.SafeComponent(id.ParticipantID),
		validation.SafeComponent(id.SessionID))
	return filepath.Join(e.TaskDir(id.Task), name)
}

// Merge reconciles a batch against the table identified by id and
// writes the combined result back.
//
// In append mode any existing rows are loaded first (migrating legacy
// timestamps as they come in) and the new header is the reconciled
// union of old and new columns; in overwrite mode the batch replaces
// the table outright. The write is always a full rewrite: the header
// may have grown, and every row must be re-emitted under the new
// column set. Rows missing a value for a header column serialize that
// cell as empty.
func (e *Engine) Merge(id record.Identity, batch record.Batch, mode WriteMode) (*MergeResult, error) {
	taskDir := e.TaskDir(id.Task)
	path := e.TablePath(id)

	release := e.locks.acquire(path)
	defer release()

	if err := os.MkdirAll(taskDir, 0o755); err != nil {
		return nil, errors.NewStorage("create task directory", taskDir, err)
	}

	existed := fileExists(path)

	var existingRows []record.Record
	keys := make(map[string]struct{})

	switch {
	case existed && mode == ModeAppend:
		e.log.Info("appending to existing table", "path", path)
		t, err := Load(path)
		if err != nil {
			return nil, err
		}
		existingRows = t.Rows
		for _, col := range t.Header {
			keys[col] = struct{}{}
		}
		// Migrated legacy rows carry date/time keys the old header
		// does not; union row keys so the split values survive.
		for _, row := range t.Rows {
			for k := range row {
				keys[k] = struct{}{}
			}
		}
	case existed && mode == ModeOverwrite:
		e.log.Info("overwriting existing table", "path", path)
	default:
		e.log.Info("creating new table", "path", path)
	}

	enriched := record.Preprocess(batch, id.ParticipantID, id.SessionID, id.Task)
	enriched.KeyUnion(keys)

	// Unparseable legacy timestamps still ride along in their rows,
	// but the column itself is gone after reconciliation.
	header := schema.Reconcile(keys)

	if existed && mode == ModeAppend {
		if added := headerGrowth(existingRows, header); len(added) > 0 {
			e.log.Debug("union added columns absent from existing rows",
				"path", path, "columns", added)
		}
	}

	finalRows := enriched
	if mode == ModeAppend {
		finalRows = append(existingRows, enriched...)
	}

	if err := Write(path, header, finalRows); err != nil {
		return nil, err
	}

	return &MergeResult{
		Created:      !existed,
		Mode:         mode,
		Path:         path,
		TaskDir:      taskDir,
		RecordsAdded: len(batch),
		TotalRecords: len(finalRows),
	}, nil
}

// headerGrowth returns header columns that none of the existing rows
// carry, i.e. cells that will back-fill as empty.
func headerGrowth(rows []record.Record, header []string) []string {
	if len(rows) == 0 {
		return nil
	}
	var added []string
	for _, col := range header {
		if _, ok := rows[0][col]; !ok {
			added = append(added, col)
		}
	}
	return added
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
