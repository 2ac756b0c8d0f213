package pipeline

import (
	"context"
	"log"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/transcript-pipeline/internal/confirm"
	"github.com/jonathan/transcript-pipeline/internal/job"
	"github.com/jonathan/transcript-pipeline/internal/notify"
	"github.com/jonathan/transcript-pipeline/internal/queue"
	"github.com/jonathan/transcript-pipeline/internal/reactive"
	"github.com/jonathan/transcript-pipeline/internal/storage"
	"github.com/jonathan/transcript-pipeline/internal/store"
)

// Handlers are the per-stage callbacks registered with the reactive bridge.
// They never mutate job status (the executors already did), so a duplicate
// delivery can at worst re-schedule a successor, which the successor's own
// precondition guard then rejects. On an error event the executor has
// already marked the job failed and notified the owner; handlers only stop
// the graph.
type Handlers struct {
	store     store.Store
	scheduler queue.Scheduler
	barrier   Barrier
	notifier  notify.Notifier
	files     storage.FileStorage
	tokens    *confirm.Tokens
}

// NewHandlers wires the handler set.
func NewHandlers(s store.Store, scheduler queue.Scheduler, barrier Barrier, notifier notify.Notifier, files storage.FileStorage, tokens *confirm.Tokens) *Handlers {
	return &Handlers{
		store:     s,
		scheduler: scheduler,
		barrier:   barrier,
		notifier:  notifier,
		files:     files,
		tokens:    tokens,
	}
}

// Register binds one callback per stage name plus the fallback.
func (h *Handlers) Register(b *reactive.Bridge) {
	b.Register(StageDownload, h.afterDownload)
	b.Register(StageConvert, h.afterConvert)
	b.Register(StageDiarize, h.afterSibling(StageDiarize))
	b.Register(StageTranscribe, h.afterSibling(StageTranscribe))
	b.Register(StageMerge, h.afterMerge)
	b.Register(StagePostprocess, h.afterPostprocess)
	b.SetDefault(h.unexpected)
}

// load resolves the job referenced by the event headers.
func (h *Handlers) load(ctx context.Context, headers reactive.Headers) (*job.Job, bool) {
	raw, ok := headers[reactive.HeaderJobID]
	if !ok {
		log.Printf("[handlers] event without %s header, dropping", reactive.HeaderJobID)
		return nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		log.Printf("[handlers] invalid job id %q in event headers: %v", raw, err)
		return nil, false
	}
	j, err := h.store.Get(ctx, id)
	if err != nil {
		log.Printf("[handlers] failed to load job %s: %v", id, err)
		return nil, false
	}
	return j, true
}

// ended reports and logs an error event. The pipeline simply stops here.
func ended(stage string, j *job.Job, taskErr error) bool {
	if taskErr == nil {
		return false
	}
	log.Printf("[handlers] stage %s of job %s ended with terminal error: %v", stage, j.ID, taskErr)
	return true
}

func (h *Handlers) afterDownload(ctx context.Context, taskErr error, _ []byte, headers reactive.Headers) {
	j, ok := h.load(ctx, headers)
	if !ok || ended(StageDownload, j, taskErr) {
		return
	}
	h.schedule(ctx, StageConvert, j.ID)
}

// afterConvert fans out to the two concurrent siblings.
func (h *Handlers) afterConvert(ctx context.Context, taskErr error, _ []byte, headers reactive.Headers) {
	j, ok := h.load(ctx, headers)
	if !ok || ended(StageConvert, j, taskErr) {
		return
	}

	g, gCtx := errgroup.WithContext(ctx)
	for _, stage := range []string{StageDiarize, StageTranscribe} {
		g.Go(func() error {
			return h.scheduler.Schedule(gCtx, stage, j.ID, nil)
		})
	}
	if err := g.Wait(); err != nil {
		log.Printf("[handlers] failed to fan out after convert for job %s: %v", j.ID, err)
	}
}

// afterSibling returns the callback for one fan-out sibling. Each sibling
// feeds the barrier under its own stage name, so a redelivered event for a
// sibling that already arrived is a no-op and only the last distinct sibling
// releases merge.
func (h *Handlers) afterSibling(stage string) reactive.Callback {
	return func(ctx context.Context, taskErr error, _ []byte, headers reactive.Headers) {
		j, ok := h.load(ctx, headers)
		if !ok || ended(stage, j, taskErr) {
			return
		}

		release, err := h.barrier.Arrive(ctx, j.ID, stage)
		if err != nil {
			log.Printf("[handlers] barrier failed for job %s: %v", j.ID, err)
			return
		}
		if release {
			h.schedule(ctx, StageMerge, j.ID)
		}
	}
}

func (h *Handlers) afterMerge(ctx context.Context, taskErr error, _ []byte, headers reactive.Headers) {
	j, ok := h.load(ctx, headers)
	if !ok || ended(StageMerge, j, taskErr) {
		return
	}
	h.schedule(ctx, StagePostprocess, j.ID)
}

// afterPostprocess ends the graph: fetch the final artifact and present it
// to the owner with a confirmation prompt.
func (h *Handlers) afterPostprocess(ctx context.Context, taskErr error, _ []byte, headers reactive.Headers) {
	j, ok := h.load(ctx, headers)
	if !ok || ended(StagePostprocess, j, taskErr) {
		return
	}

	artifact, err := h.files.Read(ctx, j.Paths.Postprocessed)
	if err != nil {
		log.Printf("[handlers] failed to read result of job %s: %v", j.ID, err)
		return
	}

	token, err := h.tokens.Issue(j.ID, j.OwnerID)
	if err != nil {
		log.Printf("[handlers] failed to issue confirmation token for job %s: %v", j.ID, err)
		return
	}

	if err := h.notifier.SendResultWithConfirmation(ctx, j.OwnerID, artifact, resultFilename(j), j.ID, token); err != nil {
		log.Printf("[handlers] failed to deliver result of job %s: %v", j.ID, err)
	}
}

func (h *Handlers) unexpected(_ context.Context, taskErr error, _ []byte, headers reactive.Headers) {
	log.Printf("[handlers] event for unregistered stage (job %s, err=%v), dropping",
		headers[reactive.HeaderJobID], taskErr)
}

func (h *Handlers) schedule(ctx context.Context, stage string, jobID uuid.UUID) {
	if err := h.scheduler.Schedule(ctx, stage, jobID, nil); err != nil {
		log.Printf("[handlers] failed to schedule stage %s for job %s: %v", stage, jobID, err)
	}
}

// resultFilename names the delivered transcript after the original upload.
func resultFilename(j *job.Job) string {
	name := j.OriginalFilename
	if name == "" {
		return "transcript.txt"
	}
	return strings.TrimSuffix(name, filepath.Ext(name)) + ".txt"
}
