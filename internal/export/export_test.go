package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fentz26/labtrack/internal/models"
	"github.com/xuri/excelize/v2"
)

func TestCSVFromJSON(t *testing.T) {
	records, err := FromJSON([]byte(`[{"a":1,"b":"x,y"},{"a":2,"b":"z"}]`))
	if err != nil {
		t.Fatalf("FromJSON failed: %v", err)
	}

	want := "a,b\n1,\"x,y\"\n2,z"
	if got := CSV(records); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestCSVCells(t *testing.T) {
	records, err := FromJSON([]byte(`[
		{"name":"Doe, \"JJ\" Jane","note":"say \"hi\"","claimedBy":null,"ok":true,"tatStart":"x","tatEnd":"y"},
		{"note":"only note"}
	]`))
	if err != nil {
		t.Fatalf("FromJSON failed: %v", err)
	}

	want := strings.Join([]string{
		"name,note,claimedBy,ok",
		`"Doe, ""JJ"" Jane",say "hi",,true`,
		",only note,,",
	}, "\n")
	if got := CSV(records); got != want {
		t.Errorf("Expected:\n%s\ngot:\n%s", want, got)
	}
}

func TestCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("Expected empty document, got %q", buf.String())
	}

	records, err := FromJSON([]byte(`[]`))
	if err != nil {
		t.Fatalf("FromJSON failed: %v", err)
	}
	if CSV(records) != "" {
		t.Error("Expected empty document for empty array")
	}
}

func TestFromJSONRejectsNonArray(t *testing.T) {
	if _, err := FromJSON([]byte(`{"a":1}`)); err == nil {
		t.Error("Expected error for object input")
	}
	if _, err := FromJSON([]byte(`[1,2]`)); err == nil {
		t.Error("Expected error for array of numbers")
	}
}

func TestFromSamplesColumns(t *testing.T) {
	ts := time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)
	by := "Dr. House"
	samples := []models.SampleRecord{{
		SampleID:    "S-1",
		PatientName: "Jane Doe",
		PatientID:   "P-12345",
		TestType:    "CBC",
		Source:      "Floor 3",
		Status:      models.StatusResultsAvailable,
		Timestamp:   models.NewTime(ts),
		ClaimedBy:   &by,
	}}

	records, err := FromSamples(samples)
	if err != nil {
		t.Fatalf("FromSamples failed: %v", err)
	}
	header := Header(records)
	for _, col := range header {
		if col == "tatStart" || col == "tatEnd" {
			t.Errorf("Column %s should be excluded", col)
		}
	}
	if header[0] != "sampleID" {
		t.Errorf("Expected first column sampleID, got %s", header[0])
	}

	lines := strings.Split(CSV(records), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[1], "S-1,Jane Doe,P-12345,CBC,Floor 3,Results Available,2024-03-01T08:30:00Z,Dr. House") {
		t.Errorf("Unexpected row: %s", lines[1])
	}
}

func TestWriteXLSX(t *testing.T) {
	records, err := FromJSON([]byte(`[{"sampleID":"S-1","turnaroundTime":45,"claimedBy":null,"tatEnd":"x"}]`))
	if err != nil {
		t.Fatalf("FromJSON failed: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteXLSX(&buf, records); err != nil {
		t.Fatalf("WriteXLSX failed: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader failed: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatalf("GetRows failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(rows))
	}
	if strings.Join(rows[0], ",") != "sampleID,turnaroundTime,claimedBy" {
		t.Errorf("Unexpected header: %v", rows[0])
	}
	if rows[1][0] != "S-1" || rows[1][1] != "45" {
		t.Errorf("Unexpected data row: %v", rows[1])
	}
}

func TestWriteFilePicksFormat(t *testing.T) {
	dir := t.TempDir()
	samples := []models.SampleRecord{{SampleID: "S-1", PatientName: "Doe, Jane", Status: models.StatusReceived}}

	csvPath := filepath.Join(dir, "out.csv")
	if err := WriteFile(csvPath, samples); err != nil {
		t.Fatalf("WriteFile csv failed: %v", err)
	}
	data, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `S-1,"Doe, Jane"`) {
		t.Errorf("Unexpected CSV: %s", data)
	}
	if strings.HasSuffix(string(data), "\n") {
		t.Error("CSV should not end with a newline")
	}

	xlsxPath := filepath.Join(dir, "out.XLSX")
	if err := WriteFile(xlsxPath, samples); err != nil {
		t.Fatalf("WriteFile xlsx failed: %v", err)
	}
	f, err := excelize.OpenFile(xlsxPath)
	if err != nil {
		t.Fatalf("Expected a workbook: %v", err)
	}
	f.Close()
}
