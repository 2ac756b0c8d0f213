// Package store provides persistence for job records.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/jonathan/transcript-pipeline/internal/job"
)

// ErrNotFound is returned when no job matches the lookup.
var ErrNotFound = errors.New("job not found")

// Store is the job repository consumed by the pipeline. Implementations must
// serialize concurrent writes to the same job id; the guarded transitions on
// the record make illegal overwrites fail loudly before they reach a Save.
type Store interface {
	// Get returns the job with the given id, or ErrNotFound.
	Get(ctx context.Context, id uuid.UUID) (*job.Job, error)
	// Save upserts the job record.
	Save(ctx context.Context, j *job.Job) error
	// FindActiveForOwner returns the owner's most recent non-terminal job,
	// or ErrNotFound when the owner has no active job.
	FindActiveForOwner(ctx context.Context, ownerID int64) (*job.Job, error)
}
