package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agrolink-ro/supplier-docs/internal/metrics"
)

// Job is one queued extraction request.
type Job struct {
	DocumentID  uuid.UUID
	SubmittedAt time.Time
}

// Queue is the asynchronous entry point the upload intake and the reprocess
// operation hand extractions to.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}

// ExtractorQueue fans jobs out to a fixed worker pool. Each worker runs one
// extraction at a time under the processor's own timeout.
type ExtractorQueue struct {
	proc    *Processor
	metrics *metrics.Metrics
	logger  *slog.Logger
	workers int

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*ExtractorQueue)

func WithWorkers(n int) Option {
	return func(q *ExtractorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *ExtractorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

func NewExtractorQueue(proc *Processor, m *metrics.Metrics, logger *slog.Logger, opts ...Option) *ExtractorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ExtractorQueue{
		proc:    proc,
		metrics: m,
		logger:  logger,
		workers: 4,
		ch:      make(chan Job, 256),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ExtractorQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("extraction worker started", "worker_id", workerID)

				for job := range q.ch {
					q.metrics.ObserveQueueLag(time.Since(job.SubmittedAt))
					err := q.proc.Extract(context.Background(), job.DocumentID)
					if err != nil {
						q.logger.Error("extraction failed", "worker_id", workerID, "document_id", job.DocumentID, "error", err)
					} else {
						q.logger.Info("extraction finished", "worker_id", workerID, "document_id", job.DocumentID)
					}
				}

				q.logger.Info("extraction worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *ExtractorQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "document_id", job.DocumentID)
		return nil
	}

	select {
	case q.ch <- job:
		q.logger.Info("queued document for extraction", "document_id", job.DocumentID)
		return nil
	default:
	}

	// full channel: block with backpressure until a worker drains a slot,
	// but respect the caller's deadline. Shutdown cannot close the channel
	// here because it also takes the mutex.
	q.logger.Warn("queue full, applying backpressure", "document_id", job.DocumentID)
	select {
	case q.ch <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *ExtractorQueue) Shutdown(ctx context.Context) {
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
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
