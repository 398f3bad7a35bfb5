// Package view derives the rendered tables from a reconciled collection:
// time window, recency sort, search, masking, pagination and metrics.
// Everything here is a pure function of its inputs.
package view

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fentz26/labtrack/internal/models"
)

// Window is how far back the dashboard looks.
type Window time.Duration

const (
	Window1h  = Window(time.Hour)
	Window6h  = Window(6 * time.Hour)
	Window12h = Window(12 * time.Hour)
	Window24h = Window(24 * time.Hour)
)

// Windows lists the selectable windows in display order.
var Windows = []Window{Window1h, Window6h, Window12h, Window24h}

// ParseWindow accepts "1h", "6h", "12h" or "24h" (also "1", "1hour", "24hours").
func ParseWindow(s string) (Window, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.TrimSuffix(norm, "ours")
	norm = strings.TrimSuffix(norm, "our")
	norm = strings.TrimSuffix(norm, "h")
	for _, w := range Windows {
		if fmt.Sprint(w.Hours()) == norm {
			return w, nil
		}
	}
	return 0, fmt.Errorf("unknown window %q (want 1h, 6h, 12h or 24h)", s)
}

// Hours returns the window length in hours.
func (w Window) Hours() int {
	return int(time.Duration(w) / time.Hour)
}

func (w Window) String() string {
	return fmt.Sprintf("%dh", w.Hours())
}

// Next cycles to the following window.
func (w Window) Next() Window {
	for i, cand := range Windows {
		if cand == w {
			return Windows[(i+1)%len(Windows)]
		}
	}
	return Window24h
}

// Cutoff is the oldest instant still inside the window, exclusive.
func (w Window) Cutoff(now time.Time) time.Time {
	return now.Add(-time.Duration(w))
}

// FilterWindow keeps records whose timestamp is strictly after now - w.
func FilterWindow(records []models.SampleRecord, w Window, now time.Time) []models.SampleRecord {
	cutoff := w.Cutoff(now)
	out := make([]models.SampleRecord, 0, len(records))
	for _, rec := range records {
		if rec.Timestamp.After(cutoff) {
			out = append(out, rec)
		}
	}
	return out
}

// SortRecent orders records newest first. Ties keep a stable sample ID order.
func SortRecent(records []models.SampleRecord) []models.SampleRecord {
	out := make([]models.SampleRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		ti, tj := out[i].Timestamp.Time, out[j].Timestamp.Time
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return out[i].SampleID < out[j].SampleID
	})
	return out
}
