package async

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/kjusys/script-intake/internal/processor"
)

// Runner is the part of the processor the queue drives.
type Runner interface {
	Process(ctx context.Context, raw []byte) processor.Result
}

type ProcessorQueue struct {
	runner  Runner
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*ProcessorQueue)

func WithWorkers(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewProcessorQueue(runner Runner, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		runner:  runner,
		logger:  logger,
		workers: 2,
		timeout: 10 * time.Minute,
		ch:      make(chan Job, 64),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("async.worker.started", "worker_id", workerID)

				for job := range q.ch {
					// Jobs already in flight finish even during shutdown, so
					// the timeout runs off a fresh context.
					ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
					res := q.runner.Process(ctx, job.Payload)
					cancel()

					if res.StatusCode != http.StatusOK {
						q.logger.Error("async.job.failed",
							"worker_id", workerID, "job_id", res.JobID, "trace_id", job.TraceID, "error", res.Error)
					} else {
						q.logger.Info("async.job.done",
							"worker_id", workerID, "job_id", res.JobID, "trace_id", job.TraceID, "waited", time.Since(job.SubmittedAt))
					}
				}

				q.logger.Info("async.worker.stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *ProcessorQueue) Enqueue(_ context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("async.enqueue.rejected", "trace_id", job.TraceID)
		return nil
	}
	select {
	case q.ch <- job:
		q.logger.Info("async.enqueue.ok", "trace_id", job.TraceID)
	default:
		q.logger.Warn("async.enqueue.backpressure", "trace_id", job.TraceID)
		q.ch <- job
	}
	return nil
}

func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("async.shutdown.interrupted")
	case <-done:
		q.logger.Info("async.shutdown.drained")
	}
}
