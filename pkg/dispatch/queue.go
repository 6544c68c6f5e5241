package dispatch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Deliverer performs one delivery attempt.
type Deliverer interface {
	Deliver(ctx context.Context, job Job) (Result, error)
}

// Enqueuer accepts callbacks for asynchronous delivery. Enqueue must not
// block on the network.
type Enqueuer interface {
	Enqueue(ctx context.Context, job Job) error
}

// Prepare fills in the job id, enqueue time and trace context.
func Prepare(ctx context.Context, job Job) Job {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now().UTC()
	}
	if job.TraceContext == nil {
		job.TraceContext = CaptureTrace(ctx)
	}
	return job
}

// MemoryQueue is a bounded in-process queue drained by a fixed worker pool.
type MemoryQueue struct {
	deliverer Deliverer
	jobs      chan Job
	workers   int
	logger    *slog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewMemoryQueue creates a queue holding up to size pending jobs.
func NewMemoryQueue(d Deliverer, size, workers int, logger *slog.Logger) *MemoryQueue {
	if size <= 0 {
		size = 256
	}
	if workers <= 0 {
		workers = 4
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoryQueue{
		deliverer: d,
		jobs:      make(chan Job, size),
		workers:   workers,
		logger:    logger.With("component", "dispatch_queue"),
	}
}

// Start launches the workers. Deliveries run under ctx with its
// cancellation stripped, so in-flight callbacks finish during shutdown.
func (q *MemoryQueue) Start(ctx context.Context) {
	base := context.WithoutCancel(ctx)
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			for job := range q.jobs {
				_, _ = q.deliverer.Deliver(base, job)
			}
		}()
	}
}

// Enqueue buffers job or returns ErrQueueFull without blocking.
func (q *MemoryQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.jobs <- Prepare(ctx, job):
		return nil
	default:
		q.logger.WarnContext(ctx, "dispatch queue full, dropping callback", "action", job.Action, "target", job.TargetURI)
		return ErrQueueFull
	}
}

// Len reports the number of buffered jobs.
func (q *MemoryQueue) Len() int { return len(q.jobs) }

// Close stops accepting jobs and waits for buffered ones to drain or for
// ctx to expire.
func (q *MemoryQueue) Close(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
