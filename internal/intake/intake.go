// Package intake implements the owner-facing use cases: accepting new audio
// sources and handling confirmation or rejection of a delivered transcript.
package intake

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/jonathan/transcript-pipeline/internal/confirm"
	"github.com/jonathan/transcript-pipeline/internal/job"
	"github.com/jonathan/transcript-pipeline/internal/notify"
	"github.com/jonathan/transcript-pipeline/internal/pipeline"
	"github.com/jonathan/transcript-pipeline/internal/store"
)

// Intake wires the owner-facing operations together. Every operation answers
// the owner with a notification; errors are returned only for infrastructure
// failures the front-end should retry or report separately.
type Intake struct {
	store        store.Store
	notifier     notify.Notifier
	orchestrator *pipeline.Orchestrator
	tokens       *confirm.Tokens
}

// New wires an intake service.
func New(s store.Store, n notify.Notifier, o *pipeline.Orchestrator, tokens *confirm.Tokens) *Intake {
	return &Intake{store: s, notifier: n, orchestrator: o, tokens: tokens}
}

// HandleNewURL accepts a remote audio URL from an owner. Invalid URLs and a
// still-running job are answered with a notification, not an error.
func (i *Intake) HandleNewURL(ctx context.Context, ownerID int64, rawURL string) error {
	if !validURL(rawURL) {
		return i.notify(ctx, ownerID, notify.KindWrongURL, nil)
	}
	return i.accept(ctx, ownerID, job.Source{Kind: job.SourceRemoteURL, Value: rawURL}, "")
}

// HandleNewFile accepts a platform file upload identified by the platform's
// file id.
func (i *Intake) HandleNewFile(ctx context.Context, ownerID int64, fileID, filename string) error {
	return i.accept(ctx, ownerID, job.Source{Kind: job.SourcePlatformFileID, Value: fileID}, filename)
}

// HandleNewPath accepts a file already present on the local filesystem. Used
// by the CLI and by tests.
func (i *Intake) HandleNewPath(ctx context.Context, ownerID int64, path string) error {
	return i.accept(ctx, ownerID, job.Source{Kind: job.SourceLocalPath, Value: path}, "")
}

// accept creates the job, persists it and starts the pipeline. One active job
// per owner: a second source while one is running is refused.
func (i *Intake) accept(ctx context.Context, ownerID int64, source job.Source, filename string) error {
	_, err := i.store.FindActiveForOwner(ctx, ownerID)
	if err == nil {
		return i.notify(ctx, ownerID, notify.KindJobAlreadyRunning, nil)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("failed to check for an active job of owner %d: %w", ownerID, err)
	}

	j := job.New(ownerID, source, filename)
	if err := i.store.Save(ctx, j); err != nil {
		return fmt.Errorf("failed to persist new job for owner %d: %w", ownerID, err)
	}
	if err := i.orchestrator.Start(ctx, j); err != nil {
		return err
	}
	return i.notify(ctx, ownerID, notify.KindFileIsDownloading, nil)
}

// HandleConfirmation accepts the owner's confirmation token and closes the
// job as confirmed.
func (i *Intake) HandleConfirmation(ctx context.Context, ownerID int64, token string) error {
	return i.settle(ctx, ownerID, token, job.StatusConfirmed, notify.KindConfirmed)
}

// HandleRejection accepts the owner's rejection token and closes the job as
// rejected.
func (i *Intake) HandleRejection(ctx context.Context, ownerID int64, token string) error {
	return i.settle(ctx, ownerID, token, job.StatusRejected, notify.KindRejected)
}

func (i *Intake) settle(ctx context.Context, ownerID int64, token string, to job.Status, done notify.MessageKind) error {
	j, err := i.store.FindActiveForOwner(ctx, ownerID)
	if errors.Is(err, store.ErrNotFound) {
		return i.notify(ctx, ownerID, notify.KindNoActiveJob, nil)
	}
	if err != nil {
		return fmt.Errorf("failed to load active job of owner %d: %w", ownerID, err)
	}

	tokenJob, tokenOwner, err := i.tokens.Verify(token)
	if err != nil || tokenJob != j.ID || tokenOwner != ownerID {
		return i.notify(ctx, ownerID, notify.KindBadConfirmation, nil)
	}

	if err := j.Transition(job.StatusPendingConfirmation, to); err != nil {
		return i.notify(ctx, ownerID, notify.KindJobWrongStatus, nil)
	}
	if err := i.store.Save(ctx, j); err != nil {
		return fmt.Errorf("failed to persist %s job %s: %w", to, j.ID, err)
	}
	return i.notify(ctx, ownerID, done, nil)
}

func (i *Intake) notify(ctx context.Context, ownerID int64, kind notify.MessageKind, params map[string]string) error {
	if err := i.notifier.Notify(ctx, ownerID, kind, params); err != nil {
		return fmt.Errorf("failed to notify owner %d: %w", ownerID, err)
	}
	return nil
}

// validURL accepts absolute http(s) URLs without embedded whitespace.
func validURL(raw string) bool {
	if raw == "" || strings.ContainsAny(raw, " \t\n") {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
