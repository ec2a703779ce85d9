// Package live keeps the near-real-time event view: a polling loop that
// fetches the newest logs, reconciles them with what is displayed, marks
// fresh arrivals for a short highlight and publishes snapshots.
package live

import (
	"context"
	"sync"
	"time"

	"github.com/Rasheed893/biotime-live-view/internal/attendance/filter"
	"github.com/Rasheed893/biotime-live-view/internal/attendance/types"
	"github.com/Rasheed893/biotime-live-view/internal/logging"
	"github.com/Rasheed893/biotime-live-view/internal/metrics"
)

// Fetcher is satisfied by service.LogService.
type Fetcher interface {
	Logs(ctx context.Context, q filter.Query) ([]types.AttendanceLog, error)
}

type Config struct {
	// Interval between polls. Defaults to 1s.
	Interval time.Duration
	// Highlight is how long a new row stays marked. Defaults to 2s.
	Highlight time.Duration
	// MaxRows caps the display. Defaults to 500.
	MaxRows int
	// Window is the row limit of each fetch, clamped by the live profile.
	Window int
	// Paused starts the reconciler in the paused state.
	Paused bool
	Now    func() time.Time
}

// Snapshot is the published view.
type Snapshot struct {
	Running   bool                  `json:"running"`
	Rows      []types.AttendanceLog `json:"rows"`
	NewIDs    []string              `json:"newIds"`
	UpdatedAt time.Time             `json:"updatedAt"`
}

// Reconciler polls a Fetcher while running. Pause stops polling and
// invalidates any fetch in flight; Resume polls again at once.
type Reconciler struct {
	fetch    Fetcher
	interval time.Duration
	hold     time.Duration
	maxRows  int
	window   int
	now      func() time.Time

	mu        sync.Mutex
	running   bool
	gen       uint64
	cancel    context.CancelFunc
	rows      []types.AttendanceLog
	highlight map[string]time.Time
	updatedAt time.Time
	subs      map[int]func(Snapshot)
	nextSub   int

	wake chan struct{}
}

func NewReconciler(f Fetcher, cfg Config) *Reconciler {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	if cfg.Highlight <= 0 {
		cfg.Highlight = 2 * time.Second
	}
	if cfg.MaxRows <= 0 {
		cfg.MaxRows = 500
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Reconciler{
		fetch:     f,
		interval:  cfg.Interval,
		hold:      cfg.Highlight,
		maxRows:   cfg.MaxRows,
		window:    filter.LiveProfile.Clamp(cfg.Window),
		now:       cfg.Now,
		running:   !cfg.Paused,
		highlight: make(map[string]time.Time),
		subs:      make(map[int]func(Snapshot)),
		wake:      make(chan struct{}, 1),
	}
}

func (r *Reconciler) String() string { return "live-reconciler" }

// Serve polls once, then on every tick, until ctx is cancelled.
func (r *Reconciler) Serve(ctx context.Context) error {
	logging.Info().Dur("interval", r.interval).Int("window", r.window).Msg("live reconciler started")

	r.poll(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.mu.Lock()
			if r.cancel != nil {
				r.cancel()
				r.cancel = nil
			}
			r.mu.Unlock()
			return ctx.Err()
		case <-r.wake:
			r.poll(ctx)
		case <-ticker.C:
			r.Expire()
			r.poll(ctx)
		}
	}
}

func (r *Reconciler) poll(ctx context.Context) {
	if err := r.Poll(ctx); err != nil {
		logging.Warn().Err(err).Msg("live poll failed")
	}
}

// Poll runs one fetch and applies it unless the reconciler was paused or
// resumed while the fetch was in flight. It is a no-op while paused.
func (r *Reconciler) Poll(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	gen := r.gen
	fctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.mu.Unlock()
	defer cancel()

	logs, err := r.fetch.Logs(fctx, filter.Query{Limit: r.window})

	r.mu.Lock()
	if gen != r.gen || !r.running {
		r.mu.Unlock()
		metrics.RecordLivePoll("stale")
		return nil
	}
	r.cancel = nil
	if err != nil {
		r.mu.Unlock()
		metrics.RecordLivePoll("error")
		return err
	}

	if len(logs) == 0 && len(r.rows) > 0 {
		r.mu.Unlock()
		metrics.RecordLivePoll("empty")
		return nil
	}

	rows, added := Reconcile(r.rows, logs, r.maxRows)
	now := r.now()
	r.rows = rows
	r.updatedAt = now
	expires := now.Add(r.hold)
	for _, id := range added {
		r.highlight[id] = expires
	}
	r.expireLocked(now)
	snap := r.snapshotLocked(now)
	r.mu.Unlock()

	metrics.RecordLivePoll("applied")
	metrics.LiveRowsDisplayed.Set(float64(len(rows)))
	r.publish(snap)
	return nil
}

// Expire clears highlights whose time is up and publishes when any were
// cleared.
func (r *Reconciler) Expire() {
	r.mu.Lock()
	now := r.now()
	if !r.expireLocked(now) {
		r.mu.Unlock()
		return
	}
	snap := r.snapshotLocked(now)
	r.mu.Unlock()
	r.publish(snap)
}

func (r *Reconciler) expireLocked(now time.Time) bool {
	cleared := false
	for id, until := range r.highlight {
		if !now.Before(until) {
			delete(r.highlight, id)
			cleared = true
		}
	}
	return cleared
}

func (r *Reconciler) Pause() Snapshot {
	r.mu.Lock()
	if r.running {
		r.running = false
		r.gen++
		if r.cancel != nil {
			r.cancel()
			r.cancel = nil
		}
	}
	snap := r.snapshotLocked(r.now())
	r.mu.Unlock()

	logging.Info().Msg("live feed paused")
	r.publish(snap)
	return snap
}

func (r *Reconciler) Resume() Snapshot {
	r.mu.Lock()
	if !r.running {
		r.running = true
		r.gen++
	}
	snap := r.snapshotLocked(r.now())
	r.mu.Unlock()

	select {
	case r.wake <- struct{}{}:
	default:
	}

	logging.Info().Msg("live feed resumed")
	r.publish(snap)
	return snap
}

func (r *Reconciler) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked(r.now())
}

func (r *Reconciler) snapshotLocked(now time.Time) Snapshot {
	ids := []string{}
	for _, l := range r.rows {
		if until, ok := r.highlight[l.LogID]; ok && now.Before(until) {
			ids = append(ids, l.LogID)
		}
	}
	rows := r.rows
	if rows == nil {
		rows = []types.AttendanceLog{}
	}
	return Snapshot{Running: r.running, Rows: rows, NewIDs: ids, UpdatedAt: r.updatedAt}
}

// Subscribe registers fn for every published snapshot. fn runs on the
// publishing goroutine and must not block. The returned func unsubscribes.
func (r *Reconciler) Subscribe(fn func(Snapshot)) func() {
	r.mu.Lock()
	id := r.nextSub
	r.nextSub++
	r.subs[id] = fn
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.subs, id)
		r.mu.Unlock()
	}
}

func (r *Reconciler) publish(s Snapshot) {
	r.mu.Lock()
	fns := make([]func(Snapshot), 0, len(r.subs))
	for _, fn := range r.subs {
		fns = append(fns, fn)
	}
	r.mu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}
