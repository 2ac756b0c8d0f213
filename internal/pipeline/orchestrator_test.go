package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/transcript-pipeline/internal/job"
)

func TestStartSchedulesDownload(t *testing.T) {
	scheduler := &recordingScheduler{}
	o := NewOrchestrator(scheduler)
	j := job.New(7, job.Source{Kind: job.SourceRemoteURL, Value: "https://example.com/a.mp3"}, "")

	require.NoError(t, o.Start(context.Background(), j))
	assert.Equal(t, []string{StageDownload}, scheduler.scheduled())
}

func TestStartSurfacesSchedulerFailure(t *testing.T) {
	scheduler := &recordingScheduler{err: errors.New("queue unavailable")}
	o := NewOrchestrator(scheduler)
	j := job.New(7, job.Source{Kind: job.SourceRemoteURL, Value: "https://example.com/a.mp3"}, "")

	err := o.Start(context.Background(), j)
	require.Error(t, err)
	assert.Contains(t, err.Error(), j.ID.String())
}
