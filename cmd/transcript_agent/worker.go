package main

import (
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/jonathan/transcript-pipeline/internal/config"
	"github.com/jonathan/transcript-pipeline/internal/job"
	"github.com/jonathan/transcript-pipeline/internal/notify"
	"github.com/jonathan/transcript-pipeline/internal/pipeline"
	"github.com/jonathan/transcript-pipeline/internal/queue"
	"github.com/jonathan/transcript-pipeline/internal/reactive"
	"github.com/jonathan/transcript-pipeline/internal/stages"
	"github.com/jonathan/transcript-pipeline/internal/storage"
	"github.com/jonathan/transcript-pipeline/internal/store"

	goredis "github.com/redis/go-redis/v9"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run a stage worker",
	Long: `Run a worker process that executes pipeline stage tasks from the queue
and publishes a completion event for every finished stage.`,
	RunE: runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, _ []string) error {
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

	redisClient := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
	defer redisClient.Close()

	files := storage.NewLocal(cfg.AudioDir)
	loader := storage.KindLoader{
		job.SourceRemoteURL: storage.NewHTTPLoader(10 * time.Minute),
		job.SourceLocalPath: storage.LocalLoader{},
	}

	publisher := reactive.NewPublisher(reactive.NewRedisChannel(redisClient), reactive.DefaultChannel)
	worker := queue.NewWorker(asynq.RedisClientOpt{Addr: cfg.RedisAddr, DB: cfg.RedisDB}, publisher, queue.WorkerConfig{
		Queue:       cfg.Queue,
		Concurrency: cfg.WorkerConcurrency,
		RetryDelay:  cfg.StageRetryDelay,
	})

	notifier := notify.Log{}
	executors := map[string]queue.StageHandler{
		pipeline.StageDownload:    pipeline.NewDownloadExecutor(jobs, notifier, loader, files).Execute,
		pipeline.StageConvert:     pipeline.NewConvertExecutor(jobs, notifier, stages.NewConverter(files, cfg.ConvertCmd)).Execute,
		pipeline.StageDiarize:     pipeline.NewDiarizeExecutor(jobs, notifier, stages.NewDiarizer(files, cfg.DiarizeCmd)).Execute,
		pipeline.StageTranscribe:  pipeline.NewTranscribeExecutor(jobs, notifier, stages.NewTranscriber(files, cfg.TranscribeCmd)).Execute,
		pipeline.StageMerge:       pipeline.NewMergeExecutor(jobs, notifier, stages.NewMerger(files, cfg.MergeCmd)).Execute,
		pipeline.StagePostprocess: pipeline.NewPostprocessExecutor(jobs, notifier, stages.NewPostprocessor(files, cfg.PostprocessCmd)).Execute,
	}
	for _, stage := range pipeline.Stages {
		h, ok := executors[stage]
		if !ok {
			return fmt.Errorf("no executor registered for stage %s", stage)
		}
		worker.Handle(stage, h)
	}

	go func() {
		<-ctx.Done()
		log.Printf("[worker] shutting down")
		worker.Shutdown()
	}()

	log.Printf("[worker] processing queue %s with concurrency %d", cfg.Queue, cfg.WorkerConcurrency)
	return worker.Run()
}
