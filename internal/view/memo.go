package view

import (
	"sync"
	"time"

	"github.com/fentz26/labtrack/internal/reconcile"
)

type memoKey struct {
	part  *reconcile.Partition
	query Query
}

// Memo caches Derive output for one table, keyed on the partition's pointer
// identity and the query. The reconciler keeps partition pointers stable
// across no-op refreshes, so polling alone does not recompute anything.
type Memo struct {
	table Table
	now   func() time.Time

	mu       sync.Mutex
	key      memoKey
	rows     []Row
	computed bool
	misses   int
}

// NewMemo creates a memo for t. A nil clock uses time.Now.
func NewMemo(t Table, now func() time.Time) *Memo {
	if now == nil {
		now = time.Now
	}
	return &Memo{table: t, now: now}
}

// Table returns the table description.
func (m *Memo) Table() Table {
	return m.table
}

// Rows returns the derived rows for the partition and query. The window
// cutoff uses the clock at the time of recomputation.
func (m *Memo) Rows(part *reconcile.Partition, q Query) []Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := memoKey{part: part, query: q}
	if m.computed && m.key == key {
		return m.rows
	}
	m.rows = Derive(part.Records(), m.table, q, m.now())
	m.key = key
	m.computed = true
	m.misses++
	return m.rows
}

// Invalidate forces the next Rows call to recompute, e.g. when the wall
// clock has moved enough to matter for the window.
func (m *Memo) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.computed = false
}

// Recomputes returns how many times the rows were derived.
func (m *Memo) Recomputes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.misses
}
