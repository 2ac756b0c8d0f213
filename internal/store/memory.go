package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/jonathan/transcript-pipeline/internal/job"
)

// Memory is an in-process Store used by tests and local development.
type Memory struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]job.Job
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{jobs: make(map[uuid.UUID]job.Job)}
}

// Get returns a copy of the stored job so callers never share a record.
func (m *Memory) Get(_ context.Context, id uuid.UUID) (*job.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	j, ok := m.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &j, nil
}

// Save stores a copy of the job keyed by its id.
func (m *Memory) Save(_ context.Context, j *job.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.jobs[j.ID] = *j
	return nil
}

// FindActiveForOwner returns the owner's most recently created active job.
func (m *Memory) FindActiveForOwner(_ context.Context, ownerID int64) (*job.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var found *job.Job
	for id := range m.jobs {
		j := m.jobs[id]
		if j.OwnerID != ownerID || !j.IsActive() {
			continue
		}
		if found == nil || j.CreatedAt.After(found.CreatedAt) {
			copied := j
			found = &copied
		}
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}
