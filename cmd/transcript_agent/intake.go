package main

import (
	"context"

	"github.com/hibiken/asynq"

	"github.com/jonathan/transcript-pipeline/internal/config"
	"github.com/jonathan/transcript-pipeline/internal/confirm"
	"github.com/jonathan/transcript-pipeline/internal/intake"
	"github.com/jonathan/transcript-pipeline/internal/notify"
	"github.com/jonathan/transcript-pipeline/internal/pipeline"
	"github.com/jonathan/transcript-pipeline/internal/queue"
	"github.com/jonathan/transcript-pipeline/internal/store"
)

// newIntake wires the intake service for the one-shot CLI commands. The
// returned cleanup closes the connections the service holds.
func newIntake(ctx context.Context) (*intake.Intake, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	jobs, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := jobs.Migrate(ctx); err != nil {
		jobs.Close()
		return nil, nil, err
	}

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
	scheduler := queue.NewAsynqScheduler(asynqClient, cfg.Queue, cfg.StageMaxRetry, cfg.ResultRetention)

	in := intake.New(
		jobs,
		notify.Log{},
		pipeline.NewOrchestrator(scheduler),
		confirm.NewTokens(cfg.ConfirmSecret, cfg.ConfirmTTL),
	)
	cleanup := func() {
		_ = asynqClient.Close()
		jobs.Close()
	}
	return in, cleanup, nil
}
