package job

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJob() *Job {
	return New(42, Source{Kind: SourceRemoteURL, Value: "https://example.com/a.mp3"}, "a.mp3")
}

func TestNew_InitialState(t *testing.T) {
	j := newTestJob()

	assert.Equal(t, StatusDownloading, j.Status)
	assert.Equal(t, int64(42), j.OwnerID)
	assert.True(t, j.IsActive())
	assert.Empty(t, j.Error)
	assert.Equal(t, j.CreatedAt, j.UpdatedAt)
}

func TestDerivePaths_Deterministic(t *testing.T) {
	j := newTestJob()

	again := DerivePaths(j.ID, j.CreatedAt)
	assert.Equal(t, j.Paths, again)
	assert.Contains(t, j.Paths.Audio, j.ID.String())
	assert.NotEqual(t, j.Paths.Diarization, j.Paths.Transcription)
}

func TestTransition_HappyPath(t *testing.T) {
	j := newTestJob()

	require.NoError(t, j.Transition(StatusDownloading, StatusProcessing))
	require.NoError(t, j.Transition(StatusProcessing, StatusPostprocessing))
	require.NoError(t, j.Transition(StatusPostprocessing, StatusPendingConfirmation))
	require.NoError(t, j.Transition(StatusPendingConfirmation, StatusConfirmed))

	assert.Equal(t, StatusConfirmed, j.Status)
	assert.False(t, j.IsActive())
}

func TestTransition_GuardedByCurrentStatus(t *testing.T) {
	j := newTestJob()

	// Job is downloading; any transition not starting there must fail.
	err := j.Transition(StatusProcessing, StatusPostprocessing)
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StatusDownloading, j.Status)
}

func TestTransition_UndeclaredEdge(t *testing.T) {
	j := newTestJob()

	err := j.Transition(StatusDownloading, StatusPendingConfirmation)
	require.ErrorIs(t, err, ErrInvalidTransition)

	// No transition ever reverts to an earlier state.
	require.NoError(t, j.Transition(StatusDownloading, StatusProcessing))
	err = j.Transition(StatusProcessing, StatusDownloading)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestTransition_DuplicateDeliveryRejected(t *testing.T) {
	j := newTestJob()
	require.NoError(t, j.Transition(StatusDownloading, StatusProcessing))

	// Second delivery of the same completion event replays the same transition.
	err := j.Transition(StatusDownloading, StatusProcessing)
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StatusProcessing, j.Status)
}

func TestMarkFailed(t *testing.T) {
	j := newTestJob()
	require.NoError(t, j.Transition(StatusDownloading, StatusProcessing))

	require.NoError(t, j.MarkFailed(errors.New("conversion exploded")))
	assert.Equal(t, StatusFailed, j.Status)
	assert.Equal(t, "conversion exploded", j.Error)
	assert.False(t, j.IsActive())
}

func TestMarkFailed_TwiceRaises(t *testing.T) {
	j := newTestJob()
	require.NoError(t, j.MarkFailed(errors.New("boom")))

	err := j.MarkFailed(errors.New("boom again"))
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, "boom", j.Error)
}

func TestRejection_SecondAttemptFails(t *testing.T) {
	j := newTestJob()
	require.NoError(t, j.Transition(StatusDownloading, StatusProcessing))
	require.NoError(t, j.Transition(StatusProcessing, StatusPostprocessing))
	require.NoError(t, j.Transition(StatusPostprocessing, StatusPendingConfirmation))

	require.NoError(t, j.Transition(StatusPendingConfirmation, StatusRejected))
	err := j.Transition(StatusPendingConfirmation, StatusRejected)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestIsActive_TerminalStates(t *testing.T) {
	for _, status := range []Status{StatusFailed, StatusConfirmed, StatusRejected} {
		j := newTestJob()
		j.Status = status
		assert.False(t, j.IsActive(), "status %s should not be active", status)
	}
	for _, status := range []Status{StatusDownloading, StatusProcessing, StatusPostprocessing, StatusPendingConfirmation} {
		j := newTestJob()
		j.Status = status
		assert.True(t, j.IsActive(), "status %s should be active", status)
	}
}

func TestAdoptFilename(t *testing.T) {
	j := New(1, Source{Kind: SourceRemoteURL, Value: "https://example.com/a.mp3"}, "")

	assert.True(t, j.AdoptFilename("meeting.mp3"))
	assert.Equal(t, "meeting.mp3", j.OriginalFilename)

	// Same name again is fine, a different one is reported and kept as is.
	assert.True(t, j.AdoptFilename("meeting.mp3"))
	assert.False(t, j.AdoptFilename("other.mp3"))
	assert.Equal(t, "meeting.mp3", j.OriginalFilename)
}
