package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/joseph-ayodele/gym-slots/internal/common"
	"github.com/joseph-ayodele/gym-slots/internal/pipeline"
)

// Ingester is satisfied by *pipeline.Processor.
type Ingester interface {
	Ingest(ctx context.Context, req pipeline.Request) (pipeline.Result, error)
}

// ProcessorQueue feeds jobs to a fixed pool of ingestion workers.
type ProcessorQueue struct {
	ingester Ingester
	logger   *slog.Logger
	workers  int
	timeout  time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.RWMutex
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

func NewProcessorQueue(ingester Ingester, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		ingester: ingester,
		logger:   logger,
		workers:  2,
		timeout:  3 * time.Minute,
		ch:       make(chan Job, 64),
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
				q.logger.Debug("queue.worker.started", "worker_id", workerID)
				for job := range q.ch {
					q.run(workerID, job)
				}
				q.logger.Debug("queue.worker.stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *ProcessorQueue) run(workerID int, job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()
	if job.RequestID != "" {
		ctx = common.WithRequestID(ctx, job.RequestID)
	}

	res, err := q.ingester.Ingest(ctx, pipeline.Request{SourceID: job.SourceID, URL: job.URL})
	if err != nil {
		stage, _ := pipeline.FailedStage(err)
		q.logger.Error("queue.job.failed",
			"worker_id", workerID,
			"source_id", job.SourceID,
			"stage", stage,
			"waited_ms", time.Since(job.SubmittedAt).Milliseconds(),
			"error", err,
		)
		return
	}
	q.logger.Info("queue.job.ok",
		"worker_id", workerID,
		"source_id", job.SourceID,
		"gym_id", res.GymID,
		"slots_added", res.SlotsAdded,
		"slots_failed", res.SlotsFailed,
	)
}

// Enqueue hands job to the pool without blocking. A full buffer returns
// ErrQueueFull; a queue being shut down returns ErrQueueClosed.
func (q *ProcessorQueue) Enqueue(_ context.Context, job Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.logger.Warn("queue.enqueue.closed", "source_id", job.SourceID)
		return ErrQueueClosed
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	select {
	case q.ch <- job:
		q.logger.Info("queue.enqueue.ok", "source_id", job.SourceID, "depth", len(q.ch))
		return nil
	default:
		q.logger.Warn("queue.enqueue.full", "source_id", job.SourceID, "capacity", cap(q.ch))
		return ErrQueueFull
	}
}

// Shutdown stops intake and waits for queued jobs to drain or ctx to end.
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
		q.logger.Warn("queue.shutdown.interrupted")
	case <-done:
		q.logger.Info("queue.shutdown.drained")
	}
}
