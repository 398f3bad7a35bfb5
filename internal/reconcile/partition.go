package reconcile

import (
	"encoding/json"
	"sort"

	"github.com/fentz26/labtrack/internal/models"
)

// Partition is an immutable subset of the collection. Its pointer identity
// is kept across refreshes while its contents are unchanged, so consumers
// can memoize on it.
type Partition struct {
	records   []models.SampleRecord
	canonical string
}

func newPartition(records []models.SampleRecord) *Partition {
	return &Partition{
		records:   records,
		canonical: canonicalize(records),
	}
}

// Records returns a copy of the partition's records.
func (p *Partition) Records() []models.SampleRecord {
	if p == nil {
		return nil
	}
	out := make([]models.SampleRecord, len(p.records))
	copy(out, p.records)
	return out
}

// Len returns the number of records.
func (p *Partition) Len() int {
	if p == nil {
		return 0
	}
	return len(p.records)
}

// Equal reports whether both partitions hold the same records, ignoring order.
func (p *Partition) Equal(other *Partition) bool {
	if p == nil || other == nil {
		return p == other
	}
	return p.canonical == other.canonical
}

// canonicalize serializes records sorted by sample ID.
func canonicalize(records []models.SampleRecord) string {
	sorted := make([]models.SampleRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SampleID < sorted[j].SampleID
	})
	data, err := json.Marshal(sorted)
	if err != nil {
		// Unreachable for SampleRecord; an empty key forces adoption.
		return ""
	}
	return string(data)
}

// split divides records into (active, done) using the role's predicate.
// Every record lands in exactly one side.
func split(records []models.SampleRecord, role models.Role) (active, done []models.SampleRecord) {
	active = make([]models.SampleRecord, 0, len(records))
	done = make([]models.SampleRecord, 0)
	for _, rec := range records {
		if role.IsDone(rec) {
			done = append(done, rec)
		} else {
			active = append(active, rec)
		}
	}
	return active, done
}

// keepOrAdopt returns prev if next is unchanged, otherwise next.
func keepOrAdopt(prev, next *Partition) *Partition {
	if prev != nil && prev.canonical != "" && prev.canonical == next.canonical {
		return prev
	}
	return next
}
