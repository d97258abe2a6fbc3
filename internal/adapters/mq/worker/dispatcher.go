package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/hydromap/internal/adapters/mq/queue"
	"github.com/okian/hydromap/internal/domain/reconcile"
)

// Enqueuer accepts jobs for the worker pool.
type Enqueuer interface {
	Enqueue(ctx context.Context, j *queue.Job) error
}

// Dispatcher turns the queue/reply exchange into a blocking call. It does
// not deduplicate or order overlapping calls.
type Dispatcher struct {
	queue Enqueuer
}

// NewDispatcher creates a dispatcher over q.
func NewDispatcher(q Enqueuer) *Dispatcher {
	return &Dispatcher{queue: q}
}

// Dispatch sends req and waits for its single response or for ctx to end.
// Delivery failures are returned as errors; a SYNC_ERROR response is not.
func (d *Dispatcher) Dispatch(ctx context.Context, req reconcile.Request) (reconcile.Response, error) {
	job := queue.NewJob(req)
	if err := d.queue.Enqueue(ctx, job); err != nil {
		switch {
		case errors.Is(err, queue.ErrClosed):
			return reconcile.Response{}, fmt.Errorf("%w: %w", ErrStopped, err)
		case errors.Is(err, queue.ErrFull):
			return reconcile.Response{}, fmt.Errorf("%w: %w", ErrQueueFull, err)
		default:
			return reconcile.Response{}, err
		}
	}

	select {
	case resp := <-job.Done():
		return resp, nil
	case <-ctx.Done():
		// The worker still answers into the job's buffered slot; nobody reads it.
		return reconcile.Response{}, fmt.Errorf("waiting for sync %s: %w", req.ID, ctx.Err())
	}
}

// Sync is Dispatch that also folds SYNC_ERROR responses into ErrSyncFailed.
func (d *Dispatcher) Sync(ctx context.Context, req reconcile.Request) (reconcile.Result, error) {
	resp, err := d.Dispatch(ctx, req)
	if err != nil {
		return reconcile.Result{}, err
	}
	if resp.Type != reconcile.TypeSyncComplete {
		return reconcile.Result{}, fmt.Errorf("%w: %s", ErrSyncFailed, resp.Error)
	}
	return resp.Result()
}
