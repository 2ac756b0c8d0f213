// Package notify defines how job owners are told about pipeline progress.
package notify

import (
	"context"
	"log"

	"github.com/google/uuid"
)

// MessageKind names a notification template. The front-end adapter decides
// how each kind is rendered for its platform.
type MessageKind string

const (
	KindFileIsDownloading MessageKind = "file_is_downloading"
	KindStageCompleted    MessageKind = "stage_completed"
	KindStageFailed       MessageKind = "stage_failed"
	KindWrongURL          MessageKind = "wrong_url"
	KindJobAlreadyRunning MessageKind = "job_already_running"
	KindNoActiveJob       MessageKind = "no_active_job"
	KindJobWrongStatus    MessageKind = "job_wrong_status"
	KindBadConfirmation   MessageKind = "bad_confirmation"
	KindConfirmed         MessageKind = "confirmed"
	KindRejected          MessageKind = "rejected"
)

// ParamStage is the params key carrying the stage name for stage messages.
const ParamStage = "stage"

// Notifier delivers messages to a job owner. Implementations live outside
// this module (the bot front-end); Log is the default for local runs.
type Notifier interface {
	Notify(ctx context.Context, ownerID int64, kind MessageKind, params map[string]string) error
	// SendResultWithConfirmation delivers the final artifact together with a
	// signed token the owner presents when confirming or rejecting it.
	SendResultWithConfirmation(ctx context.Context, ownerID int64, artifact []byte, filename string, jobID uuid.UUID, token string) error
}

// Log writes notifications to the process log. Used when no front-end
// notifier is wired in.
type Log struct{}

// Notify logs the notification instead of delivering it.
func (Log) Notify(_ context.Context, ownerID int64, kind MessageKind, params map[string]string) error {
	log.Printf("[notify] owner=%d kind=%s params=%v", ownerID, kind, params)
	return nil
}

// SendResultWithConfirmation logs the result delivery instead of sending it.
func (Log) SendResultWithConfirmation(_ context.Context, ownerID int64, artifact []byte, filename string, jobID uuid.UUID, _ string) error {
	log.Printf("[notify] owner=%d result %s (%d bytes) for job %s awaiting confirmation", ownerID, filename, len(artifact), jobID)
	return nil
}
