// Package worker runs reconciliation off the caller's goroutine. Callers
// send one SYNC_ASSETS request and receive exactly one response.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/hydromap/internal/adapters/mq/queue"
	"github.com/okian/hydromap/internal/domain/reconcile"
	"github.com/okian/hydromap/pkg/logger"
	"github.com/okian/hydromap/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Handler turns one request into its response.
type Handler func(reconcile.Request) reconcile.Response

// Source is where workers receive jobs from.
type Source interface {
	Dequeue() <-chan *queue.Job
}

// InMemoryWorker answers jobs from a Source.
type InMemoryWorker struct {
	source Source
	handle Handler
	name   string
	done   chan struct{}
	logger logger.Logger
}

// NewInMemoryWorker creates a worker reading from source.
func NewInMemoryWorker(source Source, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		source: source,
		handle: reconcile.Handle,
		name:   "worker",
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run answers jobs until the source is closed and drained, or ctx ends.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.source.Dequeue()
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			w.process(ctx, job)
		}
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

func (w *InMemoryWorker) process(ctx context.Context, job *queue.Job) {
	start := time.Now()
	resp := w.safeHandle(ctx, job.Request)
	elapsed := time.Since(start)

	metrics.RecordWorkerProcessing(float64(elapsed.Microseconds()) / 1000)
	if resp.Type == reconcile.TypeSyncComplete && resp.Payload != nil {
		metrics.RecordReconcileDuration(float64(elapsed.Microseconds()) / 1000)
		st := resp.Payload.Stats
		metrics.RecordReconciled("live", st.Live)
		metrics.RecordReconciled("fixture", st.Fixtures)
		metrics.RecordReconciled("excluded", st.Excluded)
		metrics.RecordReconciled("shadowed", st.Shadowed)
		metrics.RecordReconciled("dropped", st.Dropped)
		w.logger.Debug(ctx, "reconciled",
			logger.String("request_id", job.Request.ID),
			logger.Int("assets", len(resp.Payload.Assets)),
			logger.Int("excluded", st.Excluded),
			logger.Int("shadowed", st.Shadowed),
			logger.Duration("queued", start.Sub(job.Enqueued)),
			logger.Duration("took", elapsed),
		)
	}

	if !job.Reply(resp) {
		w.logger.Warn(ctx, "duplicate reply dropped", logger.String("request_id", job.Request.ID))
	}
}

// safeHandle converts a handler panic into a SYNC_ERROR reply so the caller
// is never left waiting.
func (w *InMemoryWorker) safeHandle(ctx context.Context, req reconcile.Request) (resp reconcile.Response) {
	defer func() {
		if r := recover(); r != nil {
			metrics.RecordWorkerPanic()
			metrics.RecordError("worker", "panic")
			w.logger.Error(ctx, "reconcile panicked",
				logger.String("request_id", req.ID),
				logger.Any("panic", r),
			)
			resp = reconcile.Failure(req.ID, fmt.Errorf("%w: panic: %v", ErrSyncFailed, r))
		}
	}()
	return w.handle(req)
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   queue.Queue

	started  atomic.Bool
	stopOnce sync.Once
	logger   logger.Logger
}

// NewPool creates a pool of workerCount workers; values below 1 use NumCPU.
func NewPool(workerCount int, q queue.Queue, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range p.workers {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		p.workers[i] = NewInMemoryWorker(q, wopts...)
	}
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start launches every worker.
func (p *Pool) Start(ctx context.Context) {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	metrics.UpdateWorkerActive(len(p.workers))
}

// Shutdown closes the queue, lets workers answer what is already queued and
// waits for them to exit or ctx to end.
func (p *Pool) Shutdown(ctx context.Context) error {
	var err error
	p.stopOnce.Do(func() {
		if cerr := p.queue.Close(); cerr != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(cerr))
		}

		if !p.started.Load() {
			return
		}

		shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
		defer cancel()

		for i, w := range p.workers {
			select {
			case <-w.Done():
			case <-shutdownCtx.Done():
				p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
				err = fmt.Errorf("shutdown timed out: %w", shutdownCtx.Err())
				return
			}
		}
		metrics.UpdateWorkerActive(0)
	})
	return err
}
