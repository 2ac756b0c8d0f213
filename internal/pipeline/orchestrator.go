package pipeline

import (
	"context"
	"fmt"

	"github.com/jonathan/transcript-pipeline/internal/job"
	"github.com/jonathan/transcript-pipeline/internal/queue"
)

// Orchestrator kicks a pipeline run off by scheduling the first stage. The
// rest of the graph advances through the stage result handlers, which
// schedule each successor only after the completed stage's record mutation
// is already persisted.
type Orchestrator struct {
	scheduler queue.Scheduler
}

// NewOrchestrator wraps a task scheduler.
func NewOrchestrator(scheduler queue.Scheduler) *Orchestrator {
	return &Orchestrator{scheduler: scheduler}
}

// Start schedules the download stage for a freshly persisted job.
func (o *Orchestrator) Start(ctx context.Context, j *job.Job) error {
	if err := o.scheduler.Schedule(ctx, StageDownload, j.ID, nil); err != nil {
		return fmt.Errorf("failed to start pipeline for job %s: %w", j.ID, err)
	}
	return nil
}
