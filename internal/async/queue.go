// Package async runs intake triggers through the processor on a small
// worker pool, decoupling archive drops from the processing itself.
package async

import (
	"context"
	"time"
)

// Job is one trigger payload awaiting processing.
type Job struct {
	Payload     []byte
	SubmittedAt time.Time
	TraceID     string
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
