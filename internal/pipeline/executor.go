package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/jonathan/transcript-pipeline/internal/job"
	"github.com/jonathan/transcript-pipeline/internal/notify"
	"github.com/jonathan/transcript-pipeline/internal/queue"
	"github.com/jonathan/transcript-pipeline/internal/storage"
	"github.com/jonathan/transcript-pipeline/internal/store"
)

// Executor runs one stage's business logic against one job. It owns the
// business decision of whether a failure is user-visible yet: retryable
// failures stay silent until the last attempt, terminal ones are surfaced
// immediately. When to re-run the task remains the queue layer's decision.
type Executor struct {
	stage        string
	precondition job.Status
	// from/to describe the status transition applied on success; a zero to
	// means the stage finishes inside its current coarse status.
	from, to job.Status

	store    store.Store
	notifier notify.Notifier
	op       func(ctx context.Context, j *job.Job) error
}

// Execute implements queue.StageHandler.
func (e *Executor) Execute(ctx context.Context, jobID uuid.UUID, isLastAttempt bool) error {
	j, err := e.store.Get(ctx, jobID)
	if errors.Is(err, store.ErrNotFound) {
		return queue.TerminalErr(fmt.Errorf("%w: stage %s, job %s", ErrJobNotFound, e.stage, jobID))
	}
	if err != nil {
		return fmt.Errorf("stage %s: failed to load job %s: %w", e.stage, jobID, err)
	}

	if j.Status != e.precondition {
		return queue.TerminalErr(fmt.Errorf("%w: stage %s requires %s, job %s is %s",
			ErrStageOutOfOrder, e.stage, e.precondition, jobID, j.Status))
	}

	if err := e.op(ctx, j); err != nil {
		return e.fail(ctx, j, err, isLastAttempt)
	}

	if e.to != "" {
		if err := j.Transition(e.from, e.to); err != nil {
			return queue.TerminalErr(fmt.Errorf("stage %s: %w", e.stage, err))
		}
	}
	if err := e.store.Save(ctx, j); err != nil {
		return fmt.Errorf("stage %s: failed to persist job %s: %w", e.stage, jobID, err)
	}

	if err := e.notifier.Notify(ctx, j.OwnerID, notify.KindStageCompleted,
		map[string]string{notify.ParamStage: e.stage}); err != nil {
		log.Printf("[pipeline] stage %s: failed to notify owner %d: %v", e.stage, j.OwnerID, err)
	}
	return nil
}

// fail decides whether a domain failure becomes user-visible. Terminal
// failures and last attempts mark the job failed and notify the owner
// exactly once; the error is re-raised either way so the queue's retry
// machinery keeps the authoritative attempt count.
func (e *Executor) fail(ctx context.Context, j *job.Job, cause error, isLastAttempt bool) error {
	// Untagged errors count as retryable so infrastructure hiccups get the
	// queue's remaining attempts.
	retryable := queue.IsRetryable(cause) || !queue.IsTerminal(cause)
	if retryable && !isLastAttempt {
		return fmt.Errorf("stage %s: %w", e.stage, cause)
	}

	if j.IsActive() {
		if err := j.MarkFailed(cause); err != nil {
			log.Printf("[pipeline] stage %s: job %s already terminal, not re-marking: %v", e.stage, j.ID, err)
		} else {
			if err := e.store.Save(ctx, j); err != nil {
				log.Printf("[pipeline] stage %s: failed to persist failure of job %s: %v", e.stage, j.ID, err)
			}
			if err := e.notifier.Notify(ctx, j.OwnerID, notify.KindStageFailed,
				map[string]string{notify.ParamStage: e.stage}); err != nil {
				log.Printf("[pipeline] stage %s: failed to notify owner %d of failure: %v", e.stage, j.OwnerID, err)
			}
		}
	}
	return fmt.Errorf("stage %s: %w", e.stage, cause)
}

// NewDownloadExecutor fetches the job's source audio into file storage and
// moves the job from downloading to processing.
func NewDownloadExecutor(s store.Store, n notify.Notifier, loader storage.FileLoader, files storage.FileStorage) *Executor {
	e := &Executor{
		stage:        StageDownload,
		precondition: job.StatusDownloading,
		from:         job.StatusDownloading,
		to:           job.StatusProcessing,
		store:        s,
		notifier:     n,
	}
	e.op = func(ctx context.Context, j *job.Job) error {
		data, filename, err := loader.Load(ctx, j.Source)
		if err != nil {
			return err
		}
		if err := files.Save(ctx, data, j.Paths.Original); err != nil {
			return err
		}
		if filename != "" && !j.AdoptFilename(filename) {
			log.Printf("[pipeline] job %s: keeping original filename %q, loader reported %q",
				j.ID, j.OriginalFilename, filename)
		}
		return nil
	}
	return e
}

// NewConvertExecutor normalizes the original audio. Runs inside the
// processing status; no coarse transition.
func NewConvertExecutor(s store.Store, n notify.Notifier, converter Converter) *Executor {
	e := &Executor{stage: StageConvert, precondition: job.StatusProcessing, store: s, notifier: n}
	e.op = func(ctx context.Context, j *job.Job) error {
		return converter.Convert(ctx, j.Paths.Original, j.Paths.Audio)
	}
	return e
}

// NewDiarizeExecutor runs speaker diarization, one of the two concurrent
// fan-out siblings.
func NewDiarizeExecutor(s store.Store, n notify.Notifier, diarizer Diarizer) *Executor {
	e := &Executor{stage: StageDiarize, precondition: job.StatusProcessing, store: s, notifier: n}
	e.op = func(ctx context.Context, j *job.Job) error {
		return diarizer.Diarize(ctx, j.Paths.Audio, j.Paths.Diarization)
	}
	return e
}

// NewTranscribeExecutor runs speech-to-text, the other fan-out sibling.
func NewTranscribeExecutor(s store.Store, n notify.Notifier, transcriber Transcriber) *Executor {
	e := &Executor{stage: StageTranscribe, precondition: job.StatusProcessing, store: s, notifier: n}
	e.op = func(ctx context.Context, j *job.Job) error {
		return transcriber.Transcribe(ctx, j.Paths.Audio, j.Paths.Transcription)
	}
	return e
}

// NewMergeExecutor joins the fan-out results and moves the job to
// postprocessing.
func NewMergeExecutor(s store.Store, n notify.Notifier, merger Merger) *Executor {
	e := &Executor{
		stage:        StageMerge,
		precondition: job.StatusProcessing,
		from:         job.StatusProcessing,
		to:           job.StatusPostprocessing,
		store:        s,
		notifier:     n,
	}
	e.op = func(ctx context.Context, j *job.Job) error {
		return merger.Merge(ctx, j.Paths.Transcription, j.Paths.Diarization, j.Paths.Merged)
	}
	return e
}

// NewPostprocessExecutor produces the final transcript and parks the job in
// pending confirmation.
func NewPostprocessExecutor(s store.Store, n notify.Notifier, postprocessor Postprocessor) *Executor {
	e := &Executor{
		stage:        StagePostprocess,
		precondition: job.StatusPostprocessing,
		from:         job.StatusPostprocessing,
		to:           job.StatusPendingConfirmation,
		store:        s,
		notifier:     n,
	}
	e.op = func(ctx context.Context, j *job.Job) error {
		return postprocessor.Postprocess(ctx, j.Paths.Merged, j.Paths.Postprocessed)
	}
	return e
}
