package view

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fentz26/labtrack/internal/models"
	"github.com/fentz26/labtrack/internal/reconcile"
)

var now = time.Date(2024, 5, 14, 15, 0, 0, 0, time.UTC)

func rec(id, name string, status models.Status, age time.Duration) models.SampleRecord {
	return models.SampleRecord{
		SampleID:    id,
		PatientName: name,
		PatientID:   "P-" + id,
		TestType:    "BMP",
		Source:      "ED",
		Status:      status,
		Timestamp:   models.NewTime(now.Add(-age)),
	}
}

func TestMask(t *testing.T) {
	tests := []struct {
		name string
		fn   func(string) string
		in   string
		want string
	}{
		{"two tokens", MaskName, "Jane Doe", "Jane D."},
		{"single token", MaskName, "Madonna", "Madonna"},
		{"three tokens", MaskName, "Mary Ann Smith", "Mary A."},
		{"blank name", MaskName, "  ", ""},
		{"patient id", MaskID, "P-12345", "****-2345"},
		{"short id", MaskID, "P1", "****-P1"},
		{"empty id", MaskID, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.in); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestFilterWindowBoundary(t *testing.T) {
	inside := rec("IN", "A B", models.StatusReceived, 24*time.Hour-time.Second)
	outside := rec("OUT", "A B", models.StatusReceived, 24*time.Hour+time.Second)
	exact := rec("EXACT", "A B", models.StatusReceived, 24*time.Hour)

	got := FilterWindow([]models.SampleRecord{inside, outside, exact}, Window24h, now)
	if len(got) != 1 || got[0].SampleID != "IN" {
		t.Errorf("Expected only IN to survive the 24h window, got %+v", got)
	}
}

func TestParseWindow(t *testing.T) {
	for in, want := range map[string]Window{"1h": Window1h, "6": Window6h, "12hours": Window12h, "24H": Window24h} {
		got, err := ParseWindow(in)
		if err != nil || got != want {
			t.Errorf("ParseWindow(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseWindow("2h"); err == nil {
		t.Error("Expected error for 2h")
	}
	if Window24h.Next() != Window1h || Window1h.Next() != Window6h {
		t.Error("Unexpected window cycle order")
	}
}

func TestDeriveSortsSearchesAndMasks(t *testing.T) {
	records := []models.SampleRecord{
		rec("S-1", "Jane Doe", models.StatusReceived, 3*time.Hour),
		rec("S-2", "John Roe", models.StatusInProgress, time.Hour),
		rec("S-3", "Janet Poe", models.StatusReceived, 2*time.Hour),
	}
	records[0].PatientID = "P-12345"
	active, _ := Tables(models.RoleED)

	rows := Derive(records, active, Query{Window: Window24h}, now)
	if len(rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(rows))
	}
	if rows[0].Record.SampleID != "S-2" || rows[2].Record.SampleID != "S-1" {
		t.Errorf("Expected newest first, got %s..%s", rows[0].Record.SampleID, rows[2].Record.SampleID)
	}
	if rows[2].PatientName != "Jane D." || rows[2].PatientID != "****-2345" {
		t.Errorf("Expected masked projection, got %q / %q", rows[2].PatientName, rows[2].PatientID)
	}
	if rows[2].Record.PatientName != "Jane Doe" {
		t.Error("Masking must not touch the underlying record")
	}

	rows = Derive(records, active, Query{Window: Window24h, Search: "JAN"}, now)
	if len(rows) != 2 {
		t.Errorf("Expected 2 case-insensitive matches, got %d", len(rows))
	}

	rows = Derive(records, active, Query{Window: Window1h + Window(time.Minute), Search: ""}, now)
	if len(rows) != 1 {
		t.Errorf("Expected window to drop older rows, got %d", len(rows))
	}
}

func TestSearchClaimerOnlyInDoneTable(t *testing.T) {
	by := "Dr. House"
	r := rec("S-9", "Greg Smith", models.StatusResultsAvailable, time.Hour)
	r.ClaimedBy = &by

	active, done := Tables(models.RoleED)
	if got := Derive([]models.SampleRecord{r}, active, Query{Window: Window24h, Search: "house"}, now); len(got) != 0 {
		t.Error("Active table must not search the claimer")
	}
	if got := Derive([]models.SampleRecord{r}, done, Query{Window: Window24h, Search: "house"}, now); len(got) != 1 {
		t.Error("Done table must search the claimer")
	}
	if done.Masked {
		t.Error("Only the ED active queue is masked")
	}
}

func TestPaginate(t *testing.T) {
	rows := make([]Row, 45)
	for i := range rows {
		rows[i] = Row{PatientName: string(rune('a' + i%26))}
	}

	p := Paginate(rows, 20, 3)
	if p.Number != 3 || len(p.Rows) != 5 || p.TotalPages != 3 {
		t.Errorf("Unexpected last page: number=%d rows=%d total=%d", p.Number, len(p.Rows), p.TotalPages)
	}
	if p.HasNext() || !p.HasPrev() {
		t.Error("Unexpected navigation flags on last page")
	}

	p = Paginate(rows, 20, 99)
	if p.Number != 3 {
		t.Errorf("Expected page to clamp to 3, got %d", p.Number)
	}
	p = Paginate(rows, 20, -4)
	if p.Number != 1 || len(p.Rows) != 20 {
		t.Errorf("Expected page to clamp to 1, got %d", p.Number)
	}
}

func TestPaginateEmpty(t *testing.T) {
	active, _ := Tables(models.RoleLab)
	rows := Derive(nil, active, Query{Window: Window24h, Search: "nothing"}, now)
	p := Paginate(rows, active.PageSize, 1)
	if !p.Empty() {
		t.Error("Expected an empty page")
	}
	if p.Number != 1 || p.TotalPages != 1 || len(p.Rows) != 0 {
		t.Errorf("Unexpected empty page: %+v", p)
	}
}

func TestPagerResetsOnQueryChange(t *testing.T) {
	var pg Pager
	q := DefaultQuery()

	pg.Next(q, 5)
	pg.Next(q, 5)
	if got := pg.Page(q); got != 3 {
		t.Fatalf("Expected page 3, got %d", got)
	}
	pg.Next(q, 3)
	if got := pg.Page(q); got != 3 {
		t.Errorf("Expected Next to stop at the last page, got %d", got)
	}

	q.Search = "jane"
	if got := pg.Page(q); got != 1 {
		t.Errorf("Expected reset to 1 after search change, got %d", got)
	}

	pg.Next(q, 5)
	q.Window = Window6h
	if got := pg.Page(q); got != 1 {
		t.Errorf("Expected reset to 1 after window change, got %d", got)
	}

	pg.Next(q, 5)
	pg.Clamp(1)
	if got := pg.Page(q); got != 1 {
		t.Errorf("Expected clamp to 1, got %d", got)
	}
}

type staticFetcher struct {
	mu   sync.Mutex
	recs []models.SampleRecord
}

func (f *staticFetcher) ListSamples(context.Context) ([]models.SampleRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.recs, nil
}

func TestMemoSurvivesNoOpRefresh(t *testing.T) {
	f := &staticFetcher{recs: []models.SampleRecord{rec("S-1", "Jane Doe", models.StatusReceived, time.Hour)}}
	r := reconcile.New(f, models.RoleLab)
	ctx := context.Background()
	active, _ := Tables(models.RoleLab)
	memo := NewMemo(active, func() time.Time { return now })
	q := DefaultQuery()

	r.Refresh(ctx)
	first := memo.Rows(active.Partition(r.Snapshot()), q)
	r.Refresh(ctx)
	second := memo.Rows(active.Partition(r.Snapshot()), q)

	if memo.Recomputes() != 1 {
		t.Errorf("Expected 1 recompute across a no-op refresh, got %d", memo.Recomputes())
	}
	if len(first) != 1 || &first[0] != &second[0] {
		t.Error("Expected the cached rows to be returned")
	}

	q.Search = "zzz"
	if rows := memo.Rows(active.Partition(r.Snapshot()), q); len(rows) != 0 {
		t.Errorf("Expected no rows for zzz, got %d", len(rows))
	}
	if memo.Recomputes() != 2 {
		t.Errorf("Expected recompute on query change, got %d", memo.Recomputes())
	}

	memo.Invalidate()
	memo.Rows(active.Partition(r.Snapshot()), q)
	if memo.Recomputes() != 3 {
		t.Errorf("Expected recompute after Invalidate, got %d", memo.Recomputes())
	}
}

func TestDeriveDeterministic(t *testing.T) {
	records := []models.SampleRecord{
		rec("S-1", "Jane Doe", models.StatusReceived, time.Hour),
		rec("S-2", "John Roe", models.StatusReceived, time.Hour),
	}
	active, _ := Tables(models.RoleED)
	q := Query{Window: Window6h, Search: "o"}
	a := Derive(records, active, q, now)
	b := Derive(records, active, q, now)
	if len(a) != len(b) {
		t.Fatal("Expected identical output for identical input")
	}
	for i := range a {
		if a[i].Record.SampleID != b[i].Record.SampleID || a[i].PatientName != b[i].PatientName {
			t.Errorf("Row %d differs between runs", i)
		}
	}
}

func TestHistogram(t *testing.T) {
	records := []models.SampleRecord{
		rec("1", "A B", models.StatusReceived, 48*time.Hour),
		rec("2", "A B", models.StatusReceived, time.Hour),
		rec("3", "A B", models.StatusResultsAvailable, time.Hour),
		rec("4", "A B", "Rejected", time.Hour),
	}
	h := Histogram(records)
	if len(h) != 5 {
		t.Fatalf("Expected 4 known statuses plus 1 unknown, got %d", len(h))
	}
	if h[0].Status != models.StatusReceived || h[0].Count != 2 {
		t.Errorf("Expected 2 Received (window ignored), got %+v", h[0])
	}
	if h[4].Status != "Rejected" || h[4].Count != 1 {
		t.Errorf("Expected trailing unknown status, got %+v", h[4])
	}
}

func TestAverageTATToday(t *testing.T) {
	mk := func(id, test string, end time.Time, minutes float64) models.SampleRecord {
		r := rec(id, "A B", models.StatusResultsAvailable, time.Hour)
		r.TestType = test
		e := models.NewTime(end)
		r.TATEnd = &e
		r.TurnaroundTime = &minutes
		return r
	}
	start := models.NewTime(now.Add(-90 * time.Minute))
	computed := rec("5", "A B", models.StatusResultsAvailable, time.Hour)
	computed.TestType = "CBC"
	end := models.NewTime(now.Add(-30 * time.Minute))
	computed.TATStart = &start
	computed.TATEnd = &end

	records := []models.SampleRecord{
		mk("1", "BMP", now.Add(-time.Hour), 30),
		mk("2", "BMP", now.Add(-2*time.Hour), 60),
		mk("3", "BMP", now.Add(-24*time.Hour), 600), // yesterday
		mk("4", "Troponin", now.Add(-time.Minute), 20),
		computed,
	}

	avgs := AverageTAT(records, now)
	if len(avgs) != 3 {
		t.Fatalf("Expected 3 test types, got %+v", avgs)
	}
	if avgs[0].TestType != "BMP" || avgs[0].Minutes != 45 || avgs[0].Count != 2 {
		t.Errorf("Unexpected BMP average: %+v", avgs[0])
	}
	if avgs[1].TestType != "CBC" || avgs[1].Minutes != 60 {
		t.Errorf("Expected CBC computed from tat fields, got %+v", avgs[1])
	}
}
