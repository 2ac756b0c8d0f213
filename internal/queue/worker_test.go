package queue

import (
	"errors"
	"fmt"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanAttemptSuccess(t *testing.T) {
	plan := planAttempt("job-1", nil, false)

	require.NotNil(t, plan.outcome)
	assert.Equal(t, "job-1", plan.outcome.Result)
	assert.Empty(t, plan.outcome.Error)
	assert.True(t, plan.publish)
	assert.NoError(t, plan.retErr)
}

func TestPlanAttemptTerminalFailure(t *testing.T) {
	plan := planAttempt("job-1", TerminalErr(errors.New("stage out of order")), false)

	require.NotNil(t, plan.outcome)
	assert.Contains(t, plan.outcome.Error, "stage out of order")
	assert.True(t, plan.publish)
	require.Error(t, plan.retErr)
	assert.ErrorIs(t, plan.retErr, asynq.SkipRetry, "terminal failures must not be retried by the queue")
}

func TestPlanAttemptLastAttemptFailure(t *testing.T) {
	cause := errors.New("codec hiccup")
	plan := planAttempt("job-1", cause, true)

	require.NotNil(t, plan.outcome)
	assert.Contains(t, plan.outcome.Error, "codec hiccup")
	assert.True(t, plan.publish)
	assert.Equal(t, cause, plan.retErr)
	assert.NotErrorIs(t, plan.retErr, asynq.SkipRetry)
}

func TestPlanAttemptRetryableFailureStaysSilent(t *testing.T) {
	cause := RetryableErr(errors.New("codec hiccup"))
	plan := planAttempt("job-1", cause, false)

	assert.Nil(t, plan.outcome, "no outcome before the queue has given up")
	assert.False(t, plan.publish, "no completion event before the queue has given up")
	assert.Equal(t, cause, plan.retErr)
}

func TestPlanAttemptWrappedTerminalFailure(t *testing.T) {
	cause := fmt.Errorf("stage convert: %w", TerminalErr(errors.New("no command configured")))
	plan := planAttempt("job-1", cause, false)

	require.NotNil(t, plan.outcome)
	assert.True(t, plan.publish)
	assert.ErrorIs(t, plan.retErr, asynq.SkipRetry)
}

func TestIsLastAttempt(t *testing.T) {
	assert.False(t, isLastAttempt(0, 2))
	assert.False(t, isLastAttempt(1, 2))
	assert.True(t, isLastAttempt(2, 2))
	assert.True(t, isLastAttempt(3, 2))
	assert.True(t, isLastAttempt(0, 0), "a zero retry bound makes the first attempt the last")
}
