package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/pipeline")
	t.Setenv("CONFIRM_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("CONVERT_CMD", "ffmpeg -i {input} {output}")
	t.Setenv("DIARIZE_CMD", "diarize {input} {output}")
	t.Setenv("TRANSCRIBE_CMD", "whisper {input} {output}")
	t.Setenv("MERGE_CMD", "merge {input} {input2} {output}")
	t.Setenv("POSTPROCESS_CMD", "tidy {input} {output}")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, "pipeline", cfg.Queue)
	assert.Equal(t, 2, cfg.StageMaxRetry)
	assert.Equal(t, 4, cfg.WorkerConcurrency)
	assert.Equal(t, 5*time.Second, cfg.StageRetryDelay)
	assert.Equal(t, 24*time.Hour, cfg.ResultRetention)
	assert.Equal(t, time.Hour, cfg.BarrierTTL)
	assert.Equal(t, time.Second, cfg.BridgeRetryWait)
	assert.Equal(t, 24*time.Hour, cfg.ConfirmTTL)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("REDIS_ADDR", "redis:6380")
	t.Setenv("STAGE_MAX_RETRY", "5")
	t.Setenv("STAGE_RETRY_DELAY", "30s")
	t.Setenv("BRIDGE_RETRY_WAIT", "250ms")
	t.Setenv("QUEUE_NAME", "transcripts")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "redis:6380", cfg.RedisAddr)
	assert.Equal(t, 5, cfg.StageMaxRetry)
	assert.Equal(t, 30*time.Second, cfg.StageRetryDelay)
	assert.Equal(t, 250*time.Millisecond, cfg.BridgeRetryWait)
	assert.Equal(t, "transcripts", cfg.Queue)
}

func TestLoadMissingDatabaseURL(t *testing.T) {
	setRequired(t)
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadShortSecret(t *testing.T) {
	setRequired(t)
	t.Setenv("CONFIRM_SECRET", "tooshort")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadBadDuration(t *testing.T) {
	setRequired(t)
	t.Setenv("STAGE_RETRY_DELAY", "five seconds")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadBadInt(t *testing.T) {
	setRequired(t)
	t.Setenv("WORKER_CONCURRENCY", "many")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadBadRedisAddr(t *testing.T) {
	setRequired(t)
	t.Setenv("REDIS_ADDR", "not a host port")

	_, err := Load()
	assert.Error(t, err)
}
