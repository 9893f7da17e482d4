package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kjusys/script-intake/internal/entity"
	"github.com/kjusys/script-intake/internal/utils"
)

// ErrJobNotFound is returned when no document matches a job ID.
var ErrJobNotFound = errors.New("job not found")

// Fields is a partial job-document update. Timestamps are stamped by the
// repository, never by callers.
type Fields map[string]any

// JobRepository persists processing-job documents keyed by jobId.
//
// CreateIfAbsent is an upsert that never touches an existing document, so a
// duplicate trigger for the same job cannot reset it. Beyond that there is
// no conditional locking: the deployment contract is one invocation per job
// at a time, and concurrent same-job writers would lose updates.
type JobRepository interface {
	// CreateIfAbsent writes the initial document for jobID unless one
	// already exists. Stamps createdAt on insert.
	CreateIfAbsent(ctx context.Context, jobID string, fields Fields) error
	// Update merges fields into the document for jobID and refreshes
	// updatedAt in the same write. Updating a missing job is a no-op.
	Update(ctx context.Context, jobID string, fields Fields) error
	// Get fetches the document for jobID.
	Get(ctx context.Context, jobID string) (*entity.JobRecord, error)
}

type mongoJobRepo struct {
	col *mongo.Collection
	log *slog.Logger
	now func() time.Time
}

func NewJobRepository(col *mongo.Collection, log *slog.Logger) JobRepository {
	return &mongoJobRepo{col: col, log: log, now: time.Now}
}

func (r *mongoJobRepo) CreateIfAbsent(ctx context.Context, jobID string, fields Fields) error {
	doc := bson.M{"createdAt": utils.ISTMillis(r.now())}
	for k, v := range fields {
		doc[k] = v
	}

	// The jobId filter field is folded into the inserted document.
	res, err := r.col.UpdateOne(ctx,
		bson.M{"jobId": jobID},
		bson.M{"$setOnInsert": doc},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		r.log.Error("job create failed", "job_id", jobID, "err", err)
		return err
	}
	if res.UpsertedCount == 1 {
		r.log.Info("job created", "job_id", jobID)
	} else {
		r.log.Debug("job already exists", "job_id", jobID)
	}
	return nil
}

func (r *mongoJobRepo) Update(ctx context.Context, jobID string, fields Fields) error {
	set := bson.M{"updatedAt": utils.ISTMillis(r.now())}
	for k, v := range fields {
		set[k] = v
	}

	res, err := r.col.UpdateOne(ctx, bson.M{"jobId": jobID}, bson.M{"$set": set})
	if err != nil {
		r.log.Error("job update failed", "job_id", jobID, "err", err)
		return err
	}
	if res.MatchedCount == 0 {
		r.log.Warn("job update matched nothing", "job_id", jobID)
		return nil
	}
	if status, ok := fields["status"]; ok {
		r.log.Info("job updated", "job_id", jobID, "status", status)
	} else {
		r.log.Debug("job updated", "job_id", jobID)
	}
	return nil
}

func (r *mongoJobRepo) Get(ctx context.Context, jobID string) (*entity.JobRecord, error) {
	var rec entity.JobRecord
	err := r.col.FindOne(ctx, bson.M{"jobId": jobID}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		r.log.Error("job get failed", "job_id", jobID, "err", err)
		return nil, err
	}
	return &rec, nil
}
