package ingest

import (
	"fmt"

	"github.com/eeglab/taskdata/internal/record"
	"github.com/eeglab/taskdata/internal/table"
)

// Response is the success payload returned for a submission. It is a
// pure projection of the merge result; no business logic lives here.
type Response struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	Filename     string `json:"filename"`
	TaskDir      string `json:"task_dir"`
	RecordsAdded int    `json:"records_added"`
	TotalRecords int    `json:"total_records"`
	WriteMode    string `json:"write_mode"`
}

// buildResponse projects a merge result into the response payload.
func buildResponse(id record.Identity, result *table.MergeResult) *Response {
	return &Response{
		Success: true,
		Message: fmt.Sprintf("Data %s for participant %s, session %s, task %s",
			result.Action(), id.ParticipantID, id.SessionID, id.Task),
		Filename:     result.Path,
		TaskDir:      result.TaskDir,
		RecordsAdded: result.RecordsAdded,
		TotalRecords: result.TotalRecords,
		WriteMode:    result.Mode.String(),
	}
}
