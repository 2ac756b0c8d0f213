package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/jonathan/transcript-pipeline/internal/reactive"
)

// Worker hosts stage executors inside one worker process. Every finished
// task, success or terminal failure, is followed by a completion event on
// the notification channel; retryable failures stay silent until the queue
// gives up.
type Worker struct {
	srv       *asynq.Server
	mux       *asynq.ServeMux
	publisher *reactive.Publisher
}

// WorkerConfig tunes the asynq server hosting the executors.
type WorkerConfig struct {
	Queue       string
	Concurrency int
	// RetryDelay is the fixed backoff between attempts of a failed stage.
	RetryDelay time.Duration
}

// NewWorker builds an asynq server with a fixed-backoff retry policy.
func NewWorker(redisOpt asynq.RedisClientOpt, publisher *reactive.Publisher, cfg WorkerConfig) *Worker {
	queue := cfg.Queue
	if queue == "" {
		queue = DefaultQueue
	}
	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues:      map[string]int{queue: 1},
		RetryDelayFunc: func(int, error, *asynq.Task) time.Duration {
			return cfg.RetryDelay
		},
	})
	return &Worker{srv: srv, mux: asynq.NewServeMux(), publisher: publisher}
}

// Handle registers the executor for one stage name.
func (w *Worker) Handle(stage string, h StageHandler) {
	w.mux.HandleFunc(stage, w.wrap(stage, h))
}

// Run starts processing tasks and blocks until Shutdown.
func (w *Worker) Run() error {
	return w.srv.Run(w.mux)
}

// Shutdown stops the server, waiting for in-flight tasks.
func (w *Worker) Shutdown() {
	w.srv.Shutdown()
}

// wrap adapts a StageHandler to an asynq handler. It derives isLastAttempt
// from the queue's own retry counters, records the task outcome in the
// result store, and publishes the completion event.
func (w *Worker) wrap(stage string, h StageHandler) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload taskPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("invalid payload for stage %s: %v: %w", stage, err, asynq.SkipRetry)
		}
		jobID, err := uuid.Parse(payload.JobID)
		if err != nil {
			return fmt.Errorf("invalid job id %q for stage %s: %v: %w", payload.JobID, stage, err, asynq.SkipRetry)
		}

		retried, _ := asynq.GetRetryCount(ctx)
		maxRetry, _ := asynq.GetMaxRetry(ctx)
		isLast := isLastAttempt(retried, maxRetry)

		execErr := h(ctx, jobID, isLast)
		plan := planAttempt(payload.JobID, execErr, isLast)

		if plan.outcome != nil {
			// The outcome must be durable before the event goes out, so the
			// bridge never observes an event whose result is still missing.
			w.writeOutcome(t, stage, *plan.outcome)
		}
		if plan.publish {
			taskID, _ := asynq.GetTaskID(ctx)
			w.publisher.Publish(ctx, taskID, stage, reactive.Headers{reactive.HeaderJobID: payload.JobID})
		}
		return plan.retErr
	}
}

// isLastAttempt reports whether the current attempt is the final one. retried
// counts previous attempts, so the bound the scheduler set at enqueue time is
// reached when the queue has already retried maxRetry times.
func isLastAttempt(retried, maxRetry int) bool {
	return retried >= maxRetry
}

// attemptPlan describes how one finished attempt is reported.
type attemptPlan struct {
	outcome *taskOutcome
	publish bool
	retErr  error
}

// planAttempt applies the reporting rules for one attempt. A success or a
// terminal failure records an outcome and publishes a completion event, as
// does a failure on the last attempt; an earlier retryable failure stays
// silent so the queue retries it. Terminal failures are returned wrapped in
// SkipRetry so the queue archives instead of retrying.
func planAttempt(jobID string, execErr error, isLast bool) attemptPlan {
	if execErr == nil {
		return attemptPlan{outcome: &taskOutcome{Result: jobID}, publish: true}
	}
	if IsTerminal(execErr) {
		return attemptPlan{
			outcome: &taskOutcome{Error: execErr.Error()},
			publish: true,
			retErr:  fmt.Errorf("%v: %w", execErr, asynq.SkipRetry),
		}
	}
	if isLast {
		return attemptPlan{outcome: &taskOutcome{Error: execErr.Error()}, publish: true, retErr: execErr}
	}
	return attemptPlan{retErr: execErr}
}

func (w *Worker) writeOutcome(t *asynq.Task, stage string, outcome taskOutcome) {
	data, err := json.Marshal(outcome)
	if err != nil {
		log.Printf("[worker] failed to encode outcome for stage %s: %v", stage, err)
		return
	}
	if _, err := t.ResultWriter().Write(data); err != nil {
		log.Printf("[worker] failed to record outcome for stage %s: %v", stage, err)
	}
}
