package worker_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/hydromap/internal/adapters/mq/queue"
	"github.com/okian/hydromap/internal/adapters/mq/worker"
	"github.com/okian/hydromap/internal/domain/asset"
	"github.com/okian/hydromap/internal/domain/reconcile"
	logging "github.com/okian/hydromap/pkg/logger"
)

func sampleRequest() reconcile.Request {
	live := []asset.RawRecord{
		{"id": "pump-1", "name": "Main Pump", "type": "pump", "latitude": 17.45, "longitude": 78.35},
		{"id": "bw-8", "name": "Borewell P8", "type": "bore"},
	}
	fixtures := []asset.Asset{
		{ID: "pump-1", Name: "Stale Pump", Type: asset.TypePump},
		{ID: "sump-1", Name: "Sump S1", Type: asset.TypeSump},
	}
	return reconcile.NewRequest(live, fixtures, []string{"Borewell P8"})
}

func waitReply(job *queue.Job) (reconcile.Response, bool) {
	select {
	case resp := <-job.Done():
		return resp, true
	case <-time.After(time.Second):
		return reconcile.Response{}, false
	}
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker reading from an in-memory queue", t, func() {
		_ = logging.Init()

		q := queue.NewInMemoryQueue(queue.WithCapacity(4))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		convey.Convey("When a SYNC_ASSETS job is processed", func() {
			w := worker.NewInMemoryWorker(q, worker.WithName("test-worker"))
			go w.Run(ctx)

			req := sampleRequest()
			job := queue.NewJob(req)
			convey.So(q.Enqueue(ctx, job), convey.ShouldBeNil)
			resp, ok := waitReply(job)

			convey.Convey("Then exactly one SYNC_COMPLETE reply carries the merge", func() {
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(resp.Type, convey.ShouldEqual, reconcile.TypeSyncComplete)
				convey.So(resp.ID, convey.ShouldEqual, req.ID)
				convey.So(resp.Payload.AssetMap, convey.ShouldContainKey, "pump-1")
				convey.So(resp.Payload.AssetMap, convey.ShouldContainKey, "sump-1")
				convey.So(resp.Payload.AssetMap, convey.ShouldNotContainKey, "bw-8")
				convey.So(resp.Payload.AssetMap["pump-1"].Name, convey.ShouldEqual, "Main Pump")
				convey.So(job.Reply(reconcile.Response{}), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When the handler panics", func() {
			w := worker.NewInMemoryWorker(q, worker.WithHandler(func(reconcile.Request) reconcile.Response {
				panic("corrupt row")
			}))
			go w.Run(ctx)

			job := queue.NewJob(sampleRequest())
			convey.So(q.Enqueue(ctx, job), convey.ShouldBeNil)
			resp, ok := waitReply(job)

			convey.Convey("Then the caller still receives a SYNC_ERROR", func() {
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(resp.Type, convey.ShouldEqual, reconcile.TypeSyncError)
				convey.So(resp.Error, convey.ShouldContainSubstring, "corrupt row")
			})
		})

		convey.Convey("When the context is cancelled", func() {
			w := worker.NewInMemoryWorker(q)
			go w.Run(ctx)
			cancel()

			convey.Convey("Then Run returns", func() {
				select {
				case <-w.Done():
				case <-time.After(time.Second):
					t.Fatal("worker did not stop")
				}
			})
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool of workers", t, func() {
		_ = logging.Init()
		ctx := context.Background()

		convey.Convey("When created with a non-positive count", func() {
			p := worker.NewPool(0, queue.NewInMemoryQueue())

			convey.Convey("Then it falls back to at least one worker", func() {
				convey.So(p.Size(), convey.ShouldBeGreaterThan, 0)
				convey.So(p.Shutdown(ctx), convey.ShouldBeNil)
			})
		})

		convey.Convey("When jobs are queued before Shutdown", func() {
			var handled atomic.Int32
			q := queue.NewInMemoryQueue(queue.WithCapacity(8))
			p := worker.NewPool(2, q, worker.WithHandler(func(req reconcile.Request) reconcile.Response {
				handled.Add(1)
				return reconcile.Handle(req)
			}))

			jobs := make([]*queue.Job, 5)
			for i := range jobs {
				jobs[i] = queue.NewJob(sampleRequest())
				convey.So(q.Enqueue(ctx, jobs[i]), convey.ShouldBeNil)
			}
			p.Start(ctx)
			convey.So(p.Shutdown(ctx), convey.ShouldBeNil)

			convey.Convey("Then every queued job is answered once", func() {
				convey.So(handled.Load(), convey.ShouldEqual, 5)
				for _, j := range jobs {
					resp, ok := waitReply(j)
					convey.So(ok, convey.ShouldBeTrue)
					convey.So(resp.Type, convey.ShouldEqual, reconcile.TypeSyncComplete)
				}
			})

			convey.Convey("Then the queue refuses new work", func() {
				err := q.Enqueue(ctx, queue.NewJob(sampleRequest()))
				convey.So(errors.Is(err, queue.ErrClosed), convey.ShouldBeTrue)
			})
		})
	})
}

func TestDispatcher(t *testing.T) {
	convey.Convey("Given a dispatcher in front of a running pool", t, func() {
		_ = logging.Init()
		ctx := context.Background()
		q := queue.NewInMemoryQueue(queue.WithCapacity(1))
		d := worker.NewDispatcher(q)

		convey.Convey("When syncing a valid request", func() {
			p := worker.NewPool(1, q)
			p.Start(ctx)
			defer func() { _ = p.Shutdown(ctx) }()

			res, err := d.Sync(ctx, sampleRequest())

			convey.Convey("Then the merged result is returned", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(res.Assets), convey.ShouldEqual, 2)
				convey.So(res.Stats.Excluded, convey.ShouldEqual, 1)
				convey.So(res.Stats.Shadowed, convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When the worker answers SYNC_ERROR", func() {
			p := worker.NewPool(1, q, worker.WithHandler(func(req reconcile.Request) reconcile.Response {
				return reconcile.Failure(req.ID, errors.New("bad feed"))
			}))
			p.Start(ctx)
			defer func() { _ = p.Shutdown(ctx) }()

			_, err := d.Sync(ctx, sampleRequest())

			convey.Convey("Then Sync fails with ErrSyncFailed", func() {
				convey.So(errors.Is(err, worker.ErrSyncFailed), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "bad feed")
			})
		})

		convey.Convey("When the pool has been shut down", func() {
			p := worker.NewPool(1, q)
			convey.So(p.Shutdown(ctx), convey.ShouldBeNil)

			_, err := d.Sync(ctx, sampleRequest())

			convey.Convey("Then Sync reports ErrStopped", func() {
				convey.So(errors.Is(err, worker.ErrStopped), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When no worker is running and the queue is full", func() {
			convey.So(q.Enqueue(ctx, queue.NewJob(sampleRequest())), convey.ShouldBeNil)

			_, err := d.Sync(ctx, sampleRequest())

			convey.Convey("Then Sync reports ErrQueueFull", func() {
				convey.So(errors.Is(err, worker.ErrQueueFull), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the caller stops waiting", func() {
			waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
			defer cancel()

			_, err := d.Sync(waitCtx, sampleRequest())

			convey.Convey("Then the context error is returned", func() {
				convey.So(errors.Is(err, context.DeadlineExceeded), convey.ShouldBeTrue)
			})
		})
	})
}
