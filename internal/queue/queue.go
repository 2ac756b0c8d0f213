// Package queue adapts the distributed task queue that runs stage executors
// in worker processes.
package queue

import (
	"context"

	"github.com/google/uuid"
)

// DefaultQueue is the queue name all pipeline stages run on.
const DefaultQueue = "pipeline"

// Scheduler enqueues one stage task for a job. inputs carries optional
// stage-specific parameters; executors that derive everything from the job
// record may ignore it.
type Scheduler interface {
	Schedule(ctx context.Context, stage string, jobID uuid.UUID, inputs map[string]string) error
}

// StageHandler is the executor entry point invoked by the worker for one
// task attempt. isLastAttempt is derived from the queue's own retry counter,
// so the bound cannot drift from the counter that enforces it.
type StageHandler func(ctx context.Context, jobID uuid.UUID, isLastAttempt bool) error

// taskPayload is the serialized task body.
type taskPayload struct {
	JobID  string            `json:"job_id"`
	Inputs map[string]string `json:"inputs,omitempty"`
}

// taskOutcome is what workers write into the task queue's result store. The
// terminal error is recorded here synchronously, before the completion event
// is published, so the bridge always reads an authoritative outcome.
type taskOutcome struct {
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}
