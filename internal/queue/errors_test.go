package queue

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRetryableAndTerminalTags(t *testing.T) {
	base := errors.New("ffmpeg exited with status 1")

	retryable := RetryableErr(base)
	assert.True(t, IsRetryable(retryable))
	assert.False(t, IsTerminal(retryable))
	assert.Equal(t, base.Error(), retryable.Error())
	assert.ErrorIs(t, retryable, base)

	terminal := TerminalErr(base)
	assert.True(t, IsTerminal(terminal))
	assert.False(t, IsRetryable(terminal))
	assert.ErrorIs(t, terminal, base)
}

func TestTagsSurviveWrapping(t *testing.T) {
	err := fmt.Errorf("convert stage: %w", TerminalErr(errors.New("bad input")))
	assert.True(t, IsTerminal(err))

	err = fmt.Errorf("transcribe stage: %w", RetryableErr(errors.New("api timeout")))
	assert.True(t, IsRetryable(err))
}

func TestUntaggedErrorHasNoTag(t *testing.T) {
	err := errors.New("plain")
	assert.False(t, IsRetryable(err))
	assert.False(t, IsTerminal(err))
}
