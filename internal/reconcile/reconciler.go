// Package reconcile keeps a local copy of the remote sample collection in
// sync and notifies on status transitions.
package reconcile

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fentz26/labtrack/internal/models"
	"go.uber.org/zap"
)

// ErrStale is returned by Refresh when a newer response was applied first.
var ErrStale = errors.New("stale response discarded")

// Fetcher reads the full sample collection from the remote source.
type Fetcher interface {
	ListSamples(ctx context.Context) ([]models.SampleRecord, error)
}

// Observer receives reconcile outcomes, e.g. for metrics.
type Observer interface {
	ObserveFetch(err error, took time.Duration)
	ObserveSnapshot(s Snapshot)
	ObserveCompleted(n int)
}

// Snapshot is a read-only view of the local collection.
type Snapshot struct {
	All      []models.SampleRecord
	Active   *Partition
	Done     *Partition
	Err      error
	Loading  bool
	SyncedAt time.Time
	Seq      uint64
}

// Online reports whether the last fetch succeeded.
func (s Snapshot) Online() bool {
	return s.Err == nil && !s.SyncedAt.IsZero()
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithNotifier sets the completion notifier.
func WithNotifier(n Notifier) Option {
	return func(r *Reconciler) { r.notifier = n }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Reconciler) { r.logger = l }
}

// WithObserver sets an outcome observer.
func WithObserver(o Observer) Option {
	return func(r *Reconciler) { r.observer = o }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) { r.now = now }
}

// Reconciler owns the local sample collection. It is the only writer;
// everything else reads Snapshots.
type Reconciler struct {
	fetcher  Fetcher
	role     models.Role
	notifier Notifier
	observer Observer
	logger   *zap.Logger
	now      func() time.Time

	issued atomic.Uint64

	// deliverMu orders subscriber delivery across concurrent refreshes.
	deliverMu sync.Mutex

	mu      sync.Mutex
	snap    Snapshot
	applied uint64
	prev    map[string]models.Status
	subs    map[int]func(Snapshot)
	nextSub int
}

// New creates a Reconciler for the given role's partitioning.
func New(f Fetcher, role models.Role, opts ...Option) *Reconciler {
	r := &Reconciler{
		fetcher:  f,
		role:     role,
		notifier: nopNotifier{},
		logger:   zap.NewNop(),
		now:      time.Now,
		subs:     make(map[int]func(Snapshot)),
		snap: Snapshot{
			Active:  newPartition(nil),
			Done:    newPartition(nil),
			Loading: true,
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Role returns the partitioning role.
func (r *Reconciler) Role() models.Role {
	return r.role
}

// Snapshot returns the current state.
func (r *Reconciler) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snap
}

// Lookup returns the last fetched record with the given ID.
func (r *Reconciler) Lookup(sampleID string) (models.SampleRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.snap.All {
		if rec.SampleID == sampleID {
			return rec, true
		}
	}
	return models.SampleRecord{}, false
}

// Subscribe registers fn to receive every new snapshot. The returned func
// unregisters it.
func (r *Reconciler) Subscribe(fn func(Snapshot)) func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextSub
	r.nextSub++
	r.subs[id] = fn
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.subs, id)
	}
}

// Refresh fetches the collection once and merges it. On failure the last
// good data is kept and the error is recorded on the snapshot. Responses
// older than the last applied one are discarded with ErrStale.
func (r *Reconciler) Refresh(ctx context.Context) error {
	seq := r.issued.Add(1)
	start := r.now()
	records, err := r.fetcher.ListSamples(ctx)
	took := r.now().Sub(start)

	if r.observer != nil {
		r.observer.ObserveFetch(err, took)
	}

	// The owner is gone; nothing may be updated.
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	r.deliverMu.Lock()
	defer r.deliverMu.Unlock()

	r.mu.Lock()
	if seq <= r.applied {
		r.mu.Unlock()
		r.logger.Debug("discarding stale sample response", zap.Uint64("seq", seq), zap.Uint64("applied", r.applied))
		return ErrStale
	}
	r.applied = seq

	var completed []models.SampleRecord
	if err != nil {
		r.snap.Err = err
		r.snap.Loading = false
		r.snap.Seq = seq
	} else {
		completed = r.merge(records, seq)
	}
	snap := r.snap
	subs := make([]func(Snapshot), 0, len(r.subs))
	for _, fn := range r.subs {
		subs = append(subs, fn)
	}
	r.mu.Unlock()

	if err != nil {
		r.logger.Warn("sample fetch failed; keeping last known data", zap.Error(err), zap.Uint64("seq", seq))
	}
	if len(completed) > 0 {
		ids := make([]string, len(completed))
		for i, rec := range completed {
			ids[i] = rec.SampleID
		}
		r.logger.Info("results available", zap.Strings("samples", ids))
		r.notifier.Notify(completed)
		if r.observer != nil {
			r.observer.ObserveCompleted(len(completed))
		}
	}
	if r.observer != nil {
		r.observer.ObserveSnapshot(snap)
	}
	for _, fn := range subs {
		fn(snap)
	}
	return err
}

// merge applies a successful fetch and returns the newly completed records.
// Caller holds r.mu.
func (r *Reconciler) merge(records []models.SampleRecord, seq uint64) []models.SampleRecord {
	var completed []models.SampleRecord
	if r.prev != nil {
		completed = newlyCompleted(r.prev, records)
	}
	r.prev = statusIndex(records)

	active, done := split(records, r.role)
	r.snap.Active = keepOrAdopt(r.snap.Active, newPartition(active))
	r.snap.Done = keepOrAdopt(r.snap.Done, newPartition(done))
	r.snap.All = records
	r.snap.Err = nil
	r.snap.Loading = false
	r.snap.SyncedAt = r.now()
	r.snap.Seq = seq
	return completed
}
