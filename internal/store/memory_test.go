package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/transcript-pipeline/internal/job"
)

func TestMemory_GetNotFound(t *testing.T) {
	m := NewMemory()

	_, err := m.Get(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_SaveAndGet(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	j := job.New(7, job.Source{Kind: job.SourceRemoteURL, Value: "https://example.com/a.mp3"}, "a.mp3")

	require.NoError(t, m.Save(ctx, j))

	got, err := m.Get(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, j.ID, got.ID)
	assert.Equal(t, job.StatusDownloading, got.Status)

	// Mutating the returned copy must not leak into the store.
	got.Status = job.StatusFailed
	again, err := m.Get(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, job.StatusDownloading, again.Status)
}

func TestMemory_FindActiveForOwner(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, err := m.FindActiveForOwner(ctx, 7)
	require.ErrorIs(t, err, ErrNotFound)

	done := job.New(7, job.Source{Kind: job.SourceLocalPath, Value: "old.mp3"}, "old.mp3")
	require.NoError(t, done.MarkFailed(errors.New("gone")))
	require.NoError(t, m.Save(ctx, done))

	_, err = m.FindActiveForOwner(ctx, 7)
	require.ErrorIs(t, err, ErrNotFound, "terminal jobs are not active")

	older := job.New(7, job.Source{Kind: job.SourceLocalPath, Value: "b.mp3"}, "b.mp3")
	older.CreatedAt = time.Now().Add(-time.Hour)
	newer := job.New(7, job.Source{Kind: job.SourceLocalPath, Value: "c.mp3"}, "c.mp3")
	other := job.New(8, job.Source{Kind: job.SourceLocalPath, Value: "d.mp3"}, "d.mp3")
	require.NoError(t, m.Save(ctx, older))
	require.NoError(t, m.Save(ctx, newer))
	require.NoError(t, m.Save(ctx, other))

	got, err := m.FindActiveForOwner(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, newer.ID, got.ID, "most recent active job wins")
}
