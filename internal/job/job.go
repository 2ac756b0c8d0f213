// Package job defines the transcription job record and its guarded state machine.
package job

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidTransition is returned when a status change is requested from a
// status other than the declared predecessor. Duplicate or out-of-order
// completion events surface as this error instead of silently re-applying.
var ErrInvalidTransition = errors.New("invalid status transition")

// SourceKind tags where a job's audio comes from.
type SourceKind string

const (
	SourceLocalPath      SourceKind = "local-path"
	SourceRemoteURL      SourceKind = "remote-url"
	SourcePlatformFileID SourceKind = "platform-file-id"
)

// Source identifies the audio input for a job. Immutable after creation.
type Source struct {
	Kind  SourceKind `json:"kind"`
	Value string     `json:"value"`
}

// Paths holds the six artifact path slots for one job. They are computed
// deterministically from the job id and creation timestamp, so they are never
// persisted and can be recomputed on load.
type Paths struct {
	Original      string
	Audio         string
	Diarization   string
	Transcription string
	Merged        string
	Postprocessed string
}

// Job is the persistent record of one pipeline run.
type Job struct {
	ID               uuid.UUID
	OwnerID          int64
	Source           Source
	OriginalFilename string
	Status           Status
	Paths            Paths
	CreatedAt        time.Time
	UpdatedAt        time.Time
	Error            string
}

// New creates a job in StatusDownloading with a fresh id and derived paths.
// originalFilename may be empty; the download stage may fill it in later.
func New(ownerID int64, source Source, originalFilename string) *Job {
	now := time.Now().UTC()
	id := uuid.New()
	return &Job{
		ID:               id,
		OwnerID:          ownerID,
		Source:           source,
		OriginalFilename: originalFilename,
		Status:           StatusDownloading,
		Paths:            DerivePaths(id, now),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// DerivePaths computes the artifact paths for a job created at the given time.
// All artifacts for one job live under a single working directory.
func DerivePaths(id uuid.UUID, createdAt time.Time) Paths {
	base := fmt.Sprintf("%d_%s", createdAt.Unix(), id)
	return Paths{
		Original:      filepath.Join(base, "original"),
		Audio:         filepath.Join(base, "converted.wav"),
		Diarization:   filepath.Join(base, "diarization.txt"),
		Transcription: filepath.Join(base, "transcription.txt"),
		Merged:        filepath.Join(base, "merged.txt"),
		Postprocessed: filepath.Join(base, "postprocessed.txt"),
	}
}

// IsActive reports whether the job is still moving through the pipeline.
func (j *Job) IsActive() bool {
	return !j.Status.Terminal()
}

// Transition moves the job from one status to the next declared status.
// It fails with ErrInvalidTransition if the job is not currently in from, or
// if to is not declared to follow from.
func (j *Job) Transition(from, to Status) error {
	if pred, ok := predecessor[to]; !ok || pred != from {
		return fmt.Errorf("%w: %s -> %s is not a declared transition", ErrInvalidTransition, from, to)
	}
	if j.Status != from {
		return fmt.Errorf("%w: job %s is %s, expected %s", ErrInvalidTransition, j.ID, j.Status, from)
	}
	j.Status = to
	j.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkFailed moves the job to StatusFailed and records the cause. It fails if
// the job is no longer active, so callers must check IsActive first; a second
// call for the same job is a contract violation, not a no-op.
func (j *Job) MarkFailed(cause error) error {
	if !j.IsActive() {
		return fmt.Errorf("%w: job %s is already %s", ErrInvalidTransition, j.ID, j.Status)
	}
	j.Status = StatusFailed
	j.Error = cause.Error()
	j.UpdatedAt = time.Now().UTC()
	return nil
}

// AdoptFilename sets OriginalFilename if it is still empty. It returns true
// when the name was applied; false means the stored name differs and the
// caller should log the mismatch rather than overwrite.
func (j *Job) AdoptFilename(name string) bool {
	if j.OriginalFilename == "" {
		j.OriginalFilename = name
		j.UpdatedAt = time.Now().UTC()
		return true
	}
	return j.OriginalFilename == name
}
