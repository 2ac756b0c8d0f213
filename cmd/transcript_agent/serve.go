package main

import (
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/jonathan/transcript-pipeline/internal/config"
	"github.com/jonathan/transcript-pipeline/internal/confirm"
	"github.com/jonathan/transcript-pipeline/internal/notify"
	"github.com/jonathan/transcript-pipeline/internal/pipeline"
	"github.com/jonathan/transcript-pipeline/internal/queue"
	"github.com/jonathan/transcript-pipeline/internal/reactive"
	"github.com/jonathan/transcript-pipeline/internal/storage"
	"github.com/jonathan/transcript-pipeline/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the pipeline coordinator",
	Long: `Run the coordinator process: it subscribes to stage completion events,
advances jobs through the stage graph and delivers finished transcripts.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	jobs, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer jobs.Close()
	if err := jobs.Migrate(ctx); err != nil {
		return err
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
	defer redisClient.Close()

	asynqOpt := asynq.RedisClientOpt{Addr: cfg.RedisAddr, DB: cfg.RedisDB}
	asynqClient := asynq.NewClient(asynqOpt)
	defer asynqClient.Close()

	scheduler := queue.NewAsynqScheduler(asynqClient, cfg.Queue, cfg.StageMaxRetry, cfg.ResultRetention)
	results := queue.NewAsynqResults(asynq.NewInspector(asynqOpt), cfg.Queue)

	bridge := reactive.NewBridge(reactive.NewRedisChannel(redisClient), results, reactive.DefaultChannel, cfg.BridgeRetryWait)

	handlers := pipeline.NewHandlers(
		jobs,
		scheduler,
		pipeline.NewRedisBarrier(redisClient, cfg.BarrierTTL),
		notify.Log{},
		storage.NewLocal(cfg.AudioDir),
		confirm.NewTokens(cfg.ConfirmSecret, cfg.ConfirmTTL),
	)
	handlers.Register(bridge)

	if err := bridge.Start(ctx); err != nil {
		return fmt.Errorf("failed to start completion bridge: %w", err)
	}

	log.Printf("[serve] coordinator running, queue=%s channel=%s", cfg.Queue, reactive.DefaultChannel)
	<-ctx.Done()

	log.Printf("[serve] shutting down")
	bridge.Stop()
	return nil
}
