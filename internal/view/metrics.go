package view

import (
	"sort"
	"time"

	"github.com/fentz26/labtrack/internal/models"
)

// StatusCount is one bar of the status histogram.
type StatusCount struct {
	Status models.Status
	Count  int
}

// Histogram counts records per status over the whole collection, ignoring
// the time window. Known statuses come first in workflow order; unknown
// ones follow alphabetically.
func Histogram(records []models.SampleRecord) []StatusCount {
	counts := make(map[models.Status]int)
	for _, rec := range records {
		counts[rec.Status]++
	}

	out := make([]StatusCount, 0, len(counts))
	for _, st := range models.Statuses {
		out = append(out, StatusCount{Status: st, Count: counts[st]})
		delete(counts, st)
	}
	var extra []models.Status
	for st := range counts {
		extra = append(extra, st)
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	for _, st := range extra {
		out = append(out, StatusCount{Status: st, Count: counts[st]})
	}
	return out
}

// TATAverage is the mean turnaround of one test type.
type TATAverage struct {
	TestType string
	Minutes  float64
	Count    int
}

// AverageTAT averages turnaround per test type over records whose tatEnd
// falls on now's calendar day, in now's location.
func AverageTAT(records []models.SampleRecord, now time.Time) []TATAverage {
	y, m, d := now.Date()
	loc := now.Location()

	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, rec := range records {
		if rec.TATEnd == nil {
			continue
		}
		ey, em, ed := rec.TATEnd.In(loc).Date()
		if ey != y || em != m || ed != d {
			continue
		}
		minutes, ok := rec.Turnaround()
		if !ok {
			continue
		}
		sums[rec.TestType] += minutes
		counts[rec.TestType]++
	}

	out := make([]TATAverage, 0, len(counts))
	for tt, n := range counts {
		out = append(out, TATAverage{TestType: tt, Minutes: sums[tt] / float64(n), Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TestType < out[j].TestType })
	return out
}
