package view

import (
	"strings"

	"github.com/fentz26/labtrack/internal/models"
)

// Field extracts a searchable value from a record.
type Field func(models.SampleRecord) string

// Searchable fields.
var (
	FieldPatientName Field = func(r models.SampleRecord) string { return r.PatientName }
	FieldPatientID   Field = func(r models.SampleRecord) string { return r.PatientID }
	FieldSampleID    Field = func(r models.SampleRecord) string { return r.SampleID }
	FieldTestType    Field = func(r models.SampleRecord) string { return r.TestType }
	FieldClaimedBy   Field = func(r models.SampleRecord) string { return r.Claimer() }
)

// Search keeps records where any field contains term, case-insensitively.
// A blank term matches everything.
func Search(records []models.SampleRecord, term string, fields []Field) []models.SampleRecord {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return records
	}
	out := make([]models.SampleRecord, 0, len(records))
	for _, rec := range records {
		for _, f := range fields {
			if strings.Contains(strings.ToLower(f(rec)), term) {
				out = append(out, rec)
				break
			}
		}
	}
	return out
}
