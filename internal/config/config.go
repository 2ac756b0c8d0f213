// Package config provides configuration loading and validation for the
// pipeline processes.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds everything the serve and worker processes need. Values come
// from the environment; an optional .env file is loaded by the CLI before
// this package reads them.
type Config struct {
	// Storage
	DatabaseURL string `validate:"required"`
	AudioDir    string `validate:"required"`

	// Redis backs both the task queue and the notification channel.
	RedisAddr string `validate:"required,hostname_port"`
	RedisDB   int    `validate:"gte=0"`

	// Queue behavior
	Queue             string        `validate:"required"`
	StageMaxRetry     int           `validate:"gte=0"`
	StageRetryDelay   time.Duration `validate:"gt=0"`
	ResultRetention   time.Duration `validate:"gt=0"`
	WorkerConcurrency int           `validate:"gt=0"`
	BarrierTTL        time.Duration `validate:"gte=0"`
	// BridgeRetryWait is the pause before the completion subscriber retries
	// after a channel receive error.
	BridgeRetryWait time.Duration `validate:"gt=0"`

	// Confirmation tokens
	ConfirmSecret string        `validate:"required,min=16"`
	ConfirmTTL    time.Duration `validate:"gt=0"`

	// Stage commands. Each is a template executed by the worker, with
	// {input}, {input2} and {output} expanded to absolute artifact paths.
	ConvertCmd     string `validate:"required"`
	DiarizeCmd     string `validate:"required"`
	TranscribeCmd  string `validate:"required"`
	MergeCmd       string `validate:"required"`
	PostprocessCmd string `validate:"required"`
}

// Load reads the configuration from the environment, applies defaults and
// validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		AudioDir:       getEnv("AUDIO_DIR", "./audio"),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		Queue:          getEnv("QUEUE_NAME", "pipeline"),
		ConfirmSecret:  os.Getenv("CONFIRM_SECRET"),
		ConvertCmd:     os.Getenv("CONVERT_CMD"),
		DiarizeCmd:     os.Getenv("DIARIZE_CMD"),
		TranscribeCmd:  os.Getenv("TRANSCRIBE_CMD"),
		MergeCmd:       os.Getenv("MERGE_CMD"),
		PostprocessCmd: os.Getenv("POSTPROCESS_CMD"),
	}

	var err error
	if cfg.RedisDB, err = getEnvInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.StageMaxRetry, err = getEnvInt("STAGE_MAX_RETRY", 2); err != nil {
		return nil, err
	}
	if cfg.WorkerConcurrency, err = getEnvInt("WORKER_CONCURRENCY", 4); err != nil {
		return nil, err
	}
	if cfg.StageRetryDelay, err = getEnvDuration("STAGE_RETRY_DELAY", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.ResultRetention, err = getEnvDuration("RESULT_RETENTION", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.BarrierTTL, err = getEnvDuration("BARRIER_TTL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.BridgeRetryWait, err = getEnvDuration("BRIDGE_RETRY_WAIT", time.Second); err != nil {
		return nil, err
	}
	if cfg.ConfirmTTL, err = getEnvDuration("CONFIRM_TTL", 24*time.Hour); err != nil {
		return nil, err
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}
