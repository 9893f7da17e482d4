package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/kjusys/script-intake/internal/blob"
	"github.com/kjusys/script-intake/internal/common"
	"github.com/kjusys/script-intake/internal/processor"
	"github.com/kjusys/script-intake/internal/repository"
	"github.com/kjusys/script-intake/internal/validate"
)

// intake-job runs a single trigger payload through the whole intake state
// machine and prints the result JSON. Exit code 0 on SUCCESS, 1 otherwise.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if len(os.Args) < 2 {
		logger.Error("usage: intake-job <trigger.json | ->")
		os.Exit(2)
	}
	payload, err := readTrigger(os.Args[1])
	if err != nil {
		logger.Error("read trigger", "arg", os.Args[1], "error", err)
		os.Exit(2)
	}

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
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

	runCtx, cancel := common.WithTimeout(ctx, 10*time.Minute)
	defer cancel()

	res := proc.Process(runCtx, payload)

	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		logger.Error("encode result", "error", err)
		os.Exit(1)
	}
	fmt.Println(string(out))

	if res.StatusCode != http.StatusOK {
		os.Exit(1)
	}
}

func readTrigger(arg string) ([]byte, error) {
	if arg == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(arg)
}
