// Package ingest orchestrates record ingestion: request validation,
// the table merge, statistics, and the outcome summary returned to the
// HTTP layer.
package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/eeglab/taskdata/internal/errors"
	"github.com/eeglab/taskdata/internal/errreport"
	"github.com/eeglab/taskdata/internal/logging"
	"github.com/eeglab/taskdata/internal/stats"
	"github.com/eeglab/taskdata/internal/table"
)

// Options configures a Service. Everything the service needs arrives
// here at construction time; there is no ambient configuration lookup.
type Options struct {
	// DataDir is the root directory for persisted tables.
	DataDir string

	// DefaultWriteMode is used when a request supplies no write mode
	// or an unrecognized one.
	DefaultWriteMode table.WriteMode

	// DefaultTask names the task directory for requests without a task.
	DefaultTask string

	// Reporter receives storage errors. Nil means no forwarding.
	Reporter errreport.Reporter
}

// Service handles ingestion requests end to end.
type Service struct {
	engine      *table.Engine
	defaultMode table.WriteMode
	defaultTask string
	stats       *stats.Collector
	reporter    errreport.Reporter
	log         *slog.Logger
}

// New creates an ingestion service.
func New(opts Options) *Service {
	if opts.DefaultWriteMode == "" {
		opts.DefaultWriteMode = table.ModeAppend
	}
	if opts.DefaultTask == "" {
		opts.DefaultTask = "unknown"
	}
	reporter := opts.Reporter
	if reporter == nil {
		reporter = errreport.Nop()
	}

	return &Service{
		engine:      table.NewEngine(opts.DataDir),
		defaultMode: opts.DefaultWriteMode,
		defaultTask: opts.DefaultTask,
		stats:       stats.New(0.01),
		reporter:    reporter,
		log:         logging.Component("ingest"),
	}
}

// Submit validates a decoded request body, merges its batch into the
// target table, and returns the outcome summary. Validation failures
// return before any filesystem mutation; storage failures are
// forwarded to the error reporter.
func (s *Service) Submit(ctx context.Context, body map[string]any) (*Response, error) {
	s.stats.RecordRequest()

	req, err := ParseRequest(body, s.defaultMode, s.defaultTask)
	if err != nil {
		s.stats.RecordValidationError()
		s.log.Warn("rejected submission", "error", err)
		return nil, err
	}

	ctx = logging.ContextWithParticipant(ctx, req.Identity.ParticipantID)
	ctx = logging.ContextWithSession(ctx, req.Identity.SessionID)
	ctx = logging.ContextWithTask(ctx, req.Identity.Task)
	log := logging.WithContext(ctx).With("component", "ingest")

	if req.ModeFellBack {
		log.Warn("invalid write_mode specified, using default", "default", s.defaultMode)
	}

	log.Info("received data",
		"records", len(req.Batch),
		"write_mode", req.Mode)

	result, err := s.engine.Merge(req.Identity, req.Batch, req.Mode)
	if err != nil {
		s.stats.RecordStorageError()
		log.Error("merge failed", "error", err)
		s.reporter.Report(ctx, fmt.Sprintf("merge %s", req.Identity), err)
		if !errors.IsStorage(err) {
			err = errors.Wrapf(err, "merge %s", req.Identity)
		}
		return nil, err
	}

	s.stats.RecordBatch(req.Batch)

	log.Info("successfully "+result.Action()+" data",
		"path", result.Path,
		"records_added", result.RecordsAdded,
		"total_records", result.TotalRecords)

	return buildResponse(req.Identity, result), nil
}

// Stats returns a snapshot of the ingestion statistics.
func (s *Service) Stats() stats.Snapshot {
	return s.stats.Snapshot()
}

// Engine exposes the merge engine, mainly for tests.
func (s *Service) Engine() *table.Engine {
	return s.engine
}
