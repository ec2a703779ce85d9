package db

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/Rasheed893/biotime-live-view/internal/logging"
	"github.com/Rasheed893/biotime-live-view/internal/metrics"
)

// ErrWorkerClosed is returned by Do after Close.
var ErrWorkerClosed = errors.New("db: write worker closed")

// TxFn runs inside the worker's transaction. Returning an error rolls back.
type TxFn func(ctx context.Context, tx *sql.Tx) error

type writeJob struct {
	ctx    context.Context
	fn     TxFn
	result chan error
}

// Worker serializes every write (event appends, message appends, device
// last-seen updates) through one goroutine so SQLite never sees two
// writers. Reads go straight to the *sql.DB.
type Worker struct {
	db    *sql.DB
	queue chan writeJob

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

const writeQueueSize = 256

func NewWorker(db *sql.DB) *Worker {
	w := &Worker{
		db:    db,
		queue: make(chan writeJob, writeQueueSize),
		done:  make(chan struct{}),
	}
	go w.run()
	return w
}

// Close drains queued writes and stops the worker. It is safe to call
// more than once.
func (w *Worker) Close() {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.queue)
	}
	w.mu.Unlock()
	<-w.done
}

// Do queues fn and waits for its transaction to finish. A caller whose
// context ends first gets ctx.Err(); the transaction itself still runs to
// completion on the worker.
func (w *Worker) Do(ctx context.Context, fn TxFn) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	job := writeJob{ctx: ctx, fn: fn, result: make(chan error, 1)}

	w.mu.RLock()
	if w.closed {
		w.mu.RUnlock()
		return ErrWorkerClosed
	}
	select {
	case w.queue <- job:
		w.mu.RUnlock()
	case <-ctx.Done():
		w.mu.RUnlock()
		return ctx.Err()
	}

	select {
	case err := <-job.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) run() {
	defer close(w.done)

	for job := range w.queue {
		start := time.Now()
		err := w.apply(job)
		metrics.RecordStoreQuery("write", time.Since(start), 0, err)
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Warn().Err(err).Msg("write transaction failed")
		}
		job.result <- err
	}
}

func (w *Worker) apply(job writeJob) error {
	tx, err := w.db.BeginTx(job.ctx, nil)
	if err != nil {
		return err
	}
	if err := job.fn(job.ctx, tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
