// Package reactive bridges stage-completion signals fired inside worker
// processes into asynchronous callbacks in a single long-lived subscriber.
package reactive

import (
	"encoding/json"
	"fmt"
)

// DefaultChannel is the well-known broadcast channel for completion events.
const DefaultChannel = "pipeline_stage_completed"

// HeaderJobID is the headers key carrying the correlating job id.
const HeaderJobID = "job_id"

// Headers carries the correlation id and caller-supplied metadata.
type Headers map[string]string

// Envelope is the completion event published for every finished stage task.
// The wire format is a JSON 3-element array (task_id, stage_name, headers);
// result payloads are never embedded, only the task id needed to fetch them.
type Envelope struct {
	TaskID  string
	Stage   string
	Headers Headers
}

// MarshalJSON encodes the envelope as a 3-element array.
func (e Envelope) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]any{e.TaskID, e.Stage, e.Headers})
}

// UnmarshalJSON decodes the 3-element array wire format.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("envelope is not a JSON array: %w", err)
	}
	if len(parts) != 3 {
		return fmt.Errorf("envelope must have 3 elements, got %d", len(parts))
	}
	if err := json.Unmarshal(parts[0], &e.TaskID); err != nil {
		return fmt.Errorf("invalid task id: %w", err)
	}
	if err := json.Unmarshal(parts[1], &e.Stage); err != nil {
		return fmt.Errorf("invalid stage name: %w", err)
	}
	if err := json.Unmarshal(parts[2], &e.Headers); err != nil {
		return fmt.Errorf("invalid headers: %w", err)
	}
	return nil
}
