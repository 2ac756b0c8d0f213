package confirm

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	tokens := NewTokens("test-secret", time.Hour)
	jobID := uuid.New()

	signed, err := tokens.Issue(jobID, 42)
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	gotJob, gotOwner, err := tokens.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, jobID, gotJob)
	assert.Equal(t, int64(42), gotOwner)
}

func TestVerifyEmptyToken(t *testing.T) {
	tokens := NewTokens("test-secret", time.Hour)

	_, _, err := tokens.Verify("")
	assert.Error(t, err)
}

func TestVerifyWrongSecret(t *testing.T) {
	issuer := NewTokens("secret-a", time.Hour)
	verifier := NewTokens("secret-b", time.Hour)

	signed, err := issuer.Issue(uuid.New(), 1)
	require.NoError(t, err)

	_, _, err = verifier.Verify(signed)
	assert.Error(t, err)
}

func TestVerifyExpiredToken(t *testing.T) {
	tokens := NewTokens("test-secret", -time.Minute)

	signed, err := tokens.Issue(uuid.New(), 1)
	require.NoError(t, err)

	_, _, err = tokens.Verify(signed)
	assert.Error(t, err)
}

func TestVerifyGarbage(t *testing.T) {
	tokens := NewTokens("test-secret", time.Hour)

	_, _, err := tokens.Verify("not.a.token")
	assert.Error(t, err)
}
