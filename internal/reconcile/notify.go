package reconcile

import (
	"io"
	"sync"

	"github.com/fentz26/labtrack/internal/models"
)

// Notifier is told once per reconcile cycle about the records that newly
// reached Results Available. It is never called with an empty slice.
type Notifier interface {
	Notify(completed []models.SampleRecord)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(completed []models.SampleRecord)

// Notify calls f.
func (f NotifierFunc) Notify(completed []models.SampleRecord) { f(completed) }

// Bell rings the terminal bell on w.
type Bell struct {
	mu sync.Mutex
	w  io.Writer
}

// NewBell returns a Notifier writing BEL to w.
func NewBell(w io.Writer) *Bell {
	return &Bell{w: w}
}

// Notify writes a single BEL regardless of how many records completed.
func (b *Bell) Notify(completed []models.SampleRecord) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.w.Write([]byte{'\a'})
}

type nopNotifier struct{}

func (nopNotifier) Notify([]models.SampleRecord) {}

// newlyCompleted returns records present in prev whose status moved from
// non-terminal to terminal.
func newlyCompleted(prev map[string]models.Status, next []models.SampleRecord) []models.SampleRecord {
	var out []models.SampleRecord
	for _, rec := range next {
		before, ok := prev[rec.SampleID]
		if !ok {
			continue
		}
		if !before.IsTerminal() && rec.Status.IsTerminal() {
			out = append(out, rec)
		}
	}
	return out
}

func statusIndex(records []models.SampleRecord) map[string]models.Status {
	idx := make(map[string]models.Status, len(records))
	for _, rec := range records {
		idx[rec.SampleID] = rec.Status
	}
	return idx
}
