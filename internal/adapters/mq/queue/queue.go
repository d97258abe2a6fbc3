// Package queue carries sync jobs from callers to the reconcile workers.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/okian/hydromap/internal/domain/reconcile"
	"github.com/okian/hydromap/pkg/metrics"
)

const defaultQueueCapacity = 64

// Job is one request message plus the slot its single response goes into.
type Job struct {
	Request  reconcile.Request
	Enqueued time.Time
	reply    chan reconcile.Response
}

// NewJob wraps req with a one-slot reply channel.
func NewJob(req reconcile.Request) *Job {
	return &Job{Request: req, reply: make(chan reconcile.Response, 1)}
}

// Reply delivers the response. Only the first call has an effect; the send
// never blocks, even when the caller has stopped waiting.
func (j *Job) Reply(resp reconcile.Response) bool {
	select {
	case j.reply <- resp:
		return true
	default:
		return false
	}
}

// Done returns the channel the response arrives on.
func (j *Job) Done() <-chan reconcile.Response { return j.reply }

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a job or reports why it could not.
	Enqueue(ctx context.Context, j *Job) error
	// Dequeue returns the channel workers receive jobs from. It is closed by Close.
	Dequeue() <-chan *Job
	// Len returns the number of pending jobs.
	Len() int
	// Close stops accepting jobs; pending ones remain readable.
	Close() error
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	jobs     chan *Job
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.jobs = make(chan *Job, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue adds a job to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, j *Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueRejected("closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueRejected("context_cancelled")
		return err
	}

	j.Enqueued = time.Now()
	select {
	case q.jobs <- j:
		metrics.RecordQueueEnqueue()
		metrics.UpdateQueueSize(len(q.jobs))
		return nil
	default:
		metrics.RecordQueueRejected("full")
		return ErrFull
	}
}

// Dequeue returns the receive side of the job channel.
func (q *InMemoryQueue) Dequeue() <-chan *Job {
	return q.jobs
}

// Len returns the number of pending jobs.
func (q *InMemoryQueue) Len() int {
	size := len(q.jobs)
	metrics.UpdateQueueSize(size)
	return size
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.jobs)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
