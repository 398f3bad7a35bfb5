package view

import (
	"time"

	"github.com/fentz26/labtrack/internal/models"
	"github.com/fentz26/labtrack/internal/reconcile"
)

// Page sizes for the two kinds of table.
const (
	ActivePageSize = 20
	DonePageSize   = 5
)

// EmptyMessage is shown in place of rows when a table has nothing to show.
const EmptyMessage = "No samples to display for this time range."

// Query is the user's current filter input.
type Query struct {
	Window Window
	Search string
}

// DefaultQuery looks back 24 hours with no search.
func DefaultQuery() Query {
	return Query{Window: Window24h}
}

// Row is the rendered projection of a record. Record is untouched and is
// what mutation calls must use; PatientName and PatientID may be masked.
type Row struct {
	Record      models.SampleRecord
	PatientName string
	PatientID   string
}

// Table describes one of a role's two tables.
type Table struct {
	Title    string
	Done     bool // reads the claimed/completed partition
	PageSize int
	Masked   bool
	Fields   []Field
}

// Tables returns the (active, done) table descriptions for a role.
func Tables(role models.Role) (active, done Table) {
	if role == models.RoleLab {
		active = Table{
			Title:    "Sample Queue",
			PageSize: ActivePageSize,
			Fields:   []Field{FieldPatientName, FieldPatientID, FieldSampleID, FieldTestType},
		}
		done = Table{
			Title:    "Completed",
			Done:     true,
			PageSize: DonePageSize,
			Fields:   []Field{FieldPatientName, FieldPatientID, FieldSampleID, FieldTestType, FieldClaimedBy},
		}
		return active, done
	}

	active = Table{
		Title:    "Active Queue",
		PageSize: ActivePageSize,
		Masked:   true,
		Fields:   []Field{FieldPatientName, FieldSampleID, FieldTestType},
	}
	done = Table{
		Title:    "Claimed",
		Done:     true,
		PageSize: DonePageSize,
		Fields:   []Field{FieldPatientName, FieldSampleID, FieldTestType, FieldClaimedBy},
	}
	return active, done
}

// Partition picks the table's side of a snapshot.
func (t Table) Partition(s reconcile.Snapshot) *reconcile.Partition {
	if t.Done {
		return s.Done
	}
	return s.Active
}

// Derive runs window filter, recency sort, search and masking over one
// partition's records.
func Derive(records []models.SampleRecord, t Table, q Query, now time.Time) []Row {
	recs := FilterWindow(records, q.Window, now)
	recs = SortRecent(recs)
	recs = Search(recs, q.Search, t.Fields)

	rows := make([]Row, len(recs))
	for i, rec := range recs {
		rows[i] = t.Project(rec)
	}
	return rows
}

// Project builds the rendered row for one record.
func (t Table) Project(rec models.SampleRecord) Row {
	row := Row{Record: rec, PatientName: rec.PatientName, PatientID: rec.PatientID}
	if t.Masked {
		row.PatientName = MaskName(rec.PatientName)
		row.PatientID = MaskID(rec.PatientID)
	}
	return row
}

// Records returns the unmasked records behind rows.
func Records(rows []Row) []models.SampleRecord {
	out := make([]models.SampleRecord, len(rows))
	for i, r := range rows {
		out[i] = r.Record
	}
	return out
}

// Projected returns the records as displayed, with masked patient fields
// where the table masks them. Exports use this so a file never shows more
// than the screen did.
func Projected(rows []Row) []models.SampleRecord {
	out := make([]models.SampleRecord, len(rows))
	for i, r := range rows {
		rec := r.Record
		rec.PatientName = r.PatientName
		rec.PatientID = r.PatientID
		out[i] = rec
	}
	return out
}
