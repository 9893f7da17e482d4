package repository_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kjusys/script-intake/constants"
	"github.com/kjusys/script-intake/internal/repository"
)

func TestJobRepositoryMongoIntegration(t *testing.T) {
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI is not set")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	ctx := context.Background()

	client, col, err := repository.Open(ctx, repository.Config{
		URI:            uri,
		Database:       "kjusys_db_test",
		JobsCollection: fmt.Sprintf("processing_jobs_%s", uuid.NewString()[:8]),
		ConnectTimeout: 10 * time.Second,
	}, logger)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() {
		_ = col.Drop(context.Background())
		repository.Close(client, logger)
	})

	repo := repository.NewJobRepository(col, logger)
	jobID := "JOB-" + uuid.NewString()

	if err := repo.CreateIfAbsent(ctx, jobID, repository.Fields{
		"type":     constants.JobTypeAnswerScript,
		"status":   constants.JobStatusPending,
		"progress": 0,
		"examCode": "EX1",
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	first, err := repo.Get(ctx, jobID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if first.Status != constants.JobStatusPending {
		t.Fatalf("status = %s, want PENDING", first.Status)
	}
	if first.CreatedAt == 0 {
		t.Fatal("createdAt not stamped")
	}

	// Re-creating must leave the existing document untouched.
	if err := repo.CreateIfAbsent(ctx, jobID, repository.Fields{
		"status":   constants.JobStatusFailed,
		"examCode": "EX2",
	}); err != nil {
		t.Fatalf("re-create: %v", err)
	}
	again, err := repo.Get(ctx, jobID)
	if err != nil {
		t.Fatalf("get after re-create: %v", err)
	}
	if again.ExamCode != "EX1" || again.Status != constants.JobStatusPending {
		t.Fatalf("document changed: examCode=%s status=%s", again.ExamCode, again.Status)
	}
	if again.CreatedAt != first.CreatedAt {
		t.Fatalf("createdAt changed: %d -> %d", first.CreatedAt, again.CreatedAt)
	}

	if err := repo.Update(ctx, jobID, repository.Fields{
		"status":   constants.JobStatusUnzipping,
		"progress": 10,
	}); err != nil {
		t.Fatalf("update: %v", err)
	}
	updated, err := repo.Get(ctx, jobID)
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if updated.Status != constants.JobStatusUnzipping || updated.Progress != 10 {
		t.Fatalf("status/progress = %s/%d", updated.Status, updated.Progress)
	}
	if updated.UpdatedAt == 0 {
		t.Fatal("updatedAt not stamped")
	}

	if _, err := repo.Get(ctx, "JOB-missing-"+uuid.NewString()); !errors.Is(err, repository.ErrJobNotFound) {
		t.Fatalf("missing job err = %v, want ErrJobNotFound", err)
	}
}
