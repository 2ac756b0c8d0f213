package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/jonathan/transcript-pipeline/internal/reactive"
)

// AsynqScheduler enqueues stage tasks on an asynq (Redis) queue. The retry
// bound and retention are applied once here, at enqueue time; workers read
// the same bound back from the task context.
type AsynqScheduler struct {
	client    *asynq.Client
	queue     string
	maxRetry  int
	retention time.Duration
}

// NewAsynqScheduler wraps an asynq client.
func NewAsynqScheduler(client *asynq.Client, queue string, maxRetry int, retention time.Duration) *AsynqScheduler {
	if queue == "" {
		queue = DefaultQueue
	}
	return &AsynqScheduler{client: client, queue: queue, maxRetry: maxRetry, retention: retention}
}

// TaskID returns the deterministic task id for a stage of a job. One id per
// (stage, job) pair means an accidental duplicate enqueue is rejected by the
// queue itself.
func TaskID(stage string, jobID uuid.UUID) string {
	return stage + "_" + jobID.String()
}

// Schedule enqueues one stage task for a job.
func (s *AsynqScheduler) Schedule(ctx context.Context, stage string, jobID uuid.UUID, inputs map[string]string) error {
	payload, err := json.Marshal(taskPayload{JobID: jobID.String(), Inputs: inputs})
	if err != nil {
		return fmt.Errorf("failed to encode task payload: %w", err)
	}

	_, err = s.client.EnqueueContext(ctx, asynq.NewTask(stage, payload),
		asynq.Queue(s.queue),
		asynq.TaskID(TaskID(stage, jobID)),
		asynq.MaxRetry(s.maxRetry),
		asynq.Retention(s.retention),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule stage %s for job %s: %w", stage, jobID, err)
	}
	return nil
}

// AsynqResults reads stage outcomes back out of the asynq result store.
type AsynqResults struct {
	inspector *asynq.Inspector
	queue     string
}

// NewAsynqResults wraps an asynq inspector.
func NewAsynqResults(inspector *asynq.Inspector, queue string) *AsynqResults {
	if queue == "" {
		queue = DefaultQueue
	}
	return &AsynqResults{inspector: inspector, queue: queue}
}

// FetchResult implements reactive.ResultFetcher. The worker writes a tagged
// outcome before publishing the completion event, so by the time an event is
// observed the outcome is already durable.
func (r *AsynqResults) FetchResult(_ context.Context, taskID string) ([]byte, error, error) {
	info, err := r.inspector.GetTaskInfo(r.queue, taskID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to look up task %s: %w", taskID, err)
	}

	if len(info.Result) > 0 {
		var outcome taskOutcome
		if err := json.Unmarshal(info.Result, &outcome); err != nil {
			return nil, nil, fmt.Errorf("failed to decode outcome of task %s: %w", taskID, err)
		}
		if outcome.Error != "" {
			return nil, errors.New(outcome.Error), nil
		}
		return []byte(outcome.Result), nil, nil
	}

	if info.LastErr != "" {
		return nil, errors.New(info.LastErr), nil
	}
	return nil, nil, nil
}

var _ reactive.ResultFetcher = (*AsynqResults)(nil)
