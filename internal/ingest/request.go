package ingest

import (
	"fmt"

	"github.com/eeglab/taskdata/internal/errors"
	"github.com/eeglab/taskdata/internal/record"
	"github.com/eeglab/taskdata/internal/table"
	"github.com/eeglab/taskdata/internal/validation"
)

// SubmitRequest is a fully validated ingestion request.
type SubmitRequest struct {
	Identity record.Identity
	Batch    record.Batch
	Mode     table.WriteMode

	// ModeFellBack is true when the request named a write mode that
	// was not recognized and the configured default was used instead.
	ModeFellBack bool
}

// ParseRequest validates a decoded request body and coerces it into a
// SubmitRequest. The checks run in a fixed order and the first failure
// wins: no body, then missing required fields, then data not a list,
// then empty batch. Nothing touches the filesystem until every check
// has passed.
func ParseRequest(body map[string]any, defaultMode table.WriteMode, defaultTask string) (*SubmitRequest, error) {
	if len(body) == 0 {
		return nil, errors.ErrNoBody
	}

	id, hasID := body["id"]
	session, hasSession := body["session"]
	data, hasData := body["data"]
	if !hasID || !hasSession || !hasData {
		return nil, errors.ErrMissingFields
	}

	points, ok := data.([]any)
	if !ok {
		return nil, errors.ErrDataNotList
	}

	if len(points) == 0 {
		return nil, errors.ErrEmptyBatch
	}

	batch := make(record.Batch, 0, len(points))
	for i, p := range points {
		fields, ok := p.(map[string]any)
		if !ok {
			// Not client-taggable as one of the validation states; the
			// original surfaced this as an unexpected failure.
			return nil, fmt.Errorf("data point %d is not an object", i)
		}
		batch = append(batch, record.Record(fields))
	}

	task := defaultTask
	if v, ok := body["task"]; ok {
		task = validation.CoerceString(v)
	}

	modeStr := ""
	if v, ok := body["write_mode"]; ok {
		modeStr = validation.CoerceString(v)
	}
	mode, recognized := table.ParseWriteMode(modeStr, defaultMode)

	return &SubmitRequest{
		Identity: record.Identity{
			ParticipantID: validation.CoerceString(id),
			SessionID:     validation.CoerceString(session),
			Task:          task,
		},
		Batch:        batch,
		Mode:         mode,
		ModeFellBack: !recognized,
	}, nil
}
