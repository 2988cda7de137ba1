package reports

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/siad-agro/siad-api/internal/storage"
)

var (
	ErrNotReady  = errors.New("report not ready")
	ErrQueueFull = errors.New("report queue full")
)

// Queue hands jobs to a fixed set of workers. Jobs are persisted before they are
// queued, so a restart picks pending work back up in Start.
type Queue struct {
	store    Store
	blobs    storage.BlobStore
	render   *Renderer
	log      *zap.Logger
	counter  *prometheus.CounterVec // label: status
	workers  int
	jobs     chan int64
	wg       sync.WaitGroup
	startOne sync.Once
}

func NewQueue(store Store, blobs storage.BlobStore, render *Renderer, workers int, log *zap.Logger, counter *prometheus.CounterVec) *Queue {
	if workers <= 0 {
		workers = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Queue{
		store: store, blobs: blobs, render: render, log: log, counter: counter,
		workers: workers, jobs: make(chan int64, 128),
	}
}

// Start launches the workers and requeues unfinished jobs. Workers exit when ctx is done.
func (q *Queue) Start(ctx context.Context) error {
	var err error
	q.startOne.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go q.work(ctx)
		}
		var ids []int64
		ids, err = q.store.Pending(ctx)
		for _, id := range ids {
			select {
			case q.jobs <- id:
			default:
				q.log.Warn("report queue full on resume", zap.Int64("job_id", id))
			}
		}
	})
	return err
}

// Wait blocks until every worker has exited.
func (q *Queue) Wait() { q.wg.Wait() }

func (q *Queue) Enqueue(ctx context.Context, req Request) (Job, error) {
	j, err := q.store.Create(ctx, req)
	if err != nil {
		return Job{}, err
	}
	select {
	case q.jobs <- j.ID:
	default:
		// stays pending and is picked up on the next Start
		q.log.Warn("report queue full", zap.Int64("job_id", j.ID))
		return j, ErrQueueFull
	}
	return j, nil
}

func (q *Queue) List(ctx context.Context) ([]Job, error) { return q.store.List(ctx) }

func (q *Queue) Get(ctx context.Context, id int64) (Job, error) { return q.store.Get(ctx, id) }

// Open returns the rendered document of a finished job.
func (q *Queue) Open(ctx context.Context, id int64) (io.ReadCloser, error) {
	j, err := q.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if j.Status != StatusFinished {
		return nil, fmt.Errorf("report %d is %s: %w", id, j.Status, ErrNotReady)
	}
	return q.blobs.Get(ctx, blobKey(id))
}

// BlobPrefix is the blob key prefix of rendered reports.
const BlobPrefix = "reports/"

func blobKey(id int64) string { return fmt.Sprintf("%s%d.html", BlobPrefix, id) }

// DownloadPath is the API route serving a finished report.
func DownloadPath(id int64) string { return fmt.Sprintf("/reports/%d/download", id) }

func (q *Queue) work(ctx context.Context) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case id := <-q.jobs:
			q.process(ctx, id)
		}
	}
}

func (q *Queue) process(ctx context.Context, id int64) {
	log := q.log.With(zap.Int64("job_id", id))
	err := q.run(ctx, id)
	status := StatusFinished
	if err != nil {
		status = StatusFailed
		log.Error("report failed", zap.Error(err))
		if ferr := q.store.Fail(context.WithoutCancel(ctx), id, err.Error()); ferr != nil {
			log.Error("mark report failed", zap.Error(ferr))
		}
	} else {
		log.Info("report finished")
	}
	if q.counter != nil {
		q.counter.WithLabelValues(string(status)).Inc()
	}
}

func (q *Queue) run(ctx context.Context, id int64) error {
	j, err := q.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := q.store.SetRunning(ctx, id); err != nil {
		return err
	}
	doc, err := q.render.Render(ctx, j)
	if err != nil {
		return err
	}
	if _, err := q.blobs.Put(ctx, blobKey(id), bytes.NewReader(doc)); err != nil {
		return fmt.Errorf("store report: %w", err)
	}
	return q.store.Finish(ctx, id, DownloadPath(id))
}
