package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/kjusys/script-intake/internal/async"
	"github.com/kjusys/script-intake/internal/blob"
	"github.com/kjusys/script-intake/internal/common"
	"github.com/kjusys/script-intake/internal/processor"
	"github.com/kjusys/script-intake/internal/repository"
	"github.com/kjusys/script-intake/internal/server"
	"github.com/kjusys/script-intake/internal/trigger"
	"github.com/kjusys/script-intake/internal/validate"
	"github.com/kjusys/script-intake/internal/watch"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, col, err := repository.Open(ctx, repository.Config{
		URI:            cfg.Mongo.URI,
		Database:       cfg.Mongo.Database,
		JobsCollection: cfg.Mongo.JobsCollection,
		ConnectTimeout: cfg.Mongo.ConnectTimeout,
	}, logger)
	if err != nil {
		logger.Error("open job store", "error", err)
		os.Exit(1)
	}
	defer repository.Close(client, logger)

	jobs := repository.NewJobRepository(col, logger)
	blobs := blob.NewFSStore(cfg.Storage.Root)
	validator := validate.NewClient(validate.Config{
		GatewayURL:   cfg.Validation.GatewayURL,
		FunctionName: cfg.Validation.FunctionName,
		Timeout:      cfg.Validation.Timeout,
	}, logger)
	proc := processor.NewProcessor(jobs, blobs, validator, cfg.Job.DeleteZipAfterSuccess, logger)

	e := server.NewHTTPServer(server.NewHandler(proc, jobs, logger))

	var queue *async.ProcessorQueue
	if cfg.Watch.Enabled {
		if err := os.MkdirAll(cfg.Storage.Root, 0o755); err != nil {
			logger.Error("create storage root", "root", cfg.Storage.Root, "error", err)
			os.Exit(1)
		}
		queue = async.NewProcessorQueue(proc, logger, async.WithWorkers(cfg.Watch.Workers))
		triggers, watchErrs, err := watch.Start(ctx, watch.Config{
			Root:        cfg.Storage.Root,
			Debounce:    cfg.Watch.Debounce,
			InitialScan: cfg.Watch.InitialScan,
		}, logger)
		if err != nil {
			logger.Error("start archive watcher", "error", err)
			os.Exit(1)
		}
		go func() {
			for trig := range triggers {
				_ = queue.Enqueue(ctx, async.Job{
					Payload:     trigger.NewStorageEvent(trig.Bucket, trig.Key),
					SubmittedAt: time.Now(),
					TraceID:     uuid.NewString(),
				})
			}
		}()
		go func() {
			for err := range watchErrs {
				logger.Error("archive watcher error", "error", err)
			}
		}()
	}

	go func() {
		logger.Info("http server listening", "addr", cfg.Server.HTTPAddr, "storage_root", cfg.Storage.Root)
		if err := e.Start(cfg.Server.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	if queue != nil {
		queue.Shutdown(shutdownCtx)
	}
}
