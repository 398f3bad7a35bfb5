package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    Status
		wantErr bool
	}{
		{"Received", StatusReceived, false},
		{"in progress", StatusInProgress, false},
		{"in-progress", StatusInProgress, false},
		{"analysis_complete", StatusAnalysisComplete, false},
		{" Results Available ", StatusResultsAvailable, false},
		{"done", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStatus(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseStatus(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestIsForward(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusReceived, StatusInProgress, true},
		{StatusReceived, StatusResultsAvailable, true},
		{StatusAnalysisComplete, StatusResultsAvailable, true},
		{StatusResultsAvailable, StatusReceived, false},
		{StatusInProgress, StatusInProgress, false},
		{"", StatusReceived, true},
		{StatusReceived, "Lost", false},
	}

	for _, tt := range tests {
		if got := IsForward(tt.from, tt.to); got != tt.want {
			t.Errorf("IsForward(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestSessionKeysDistinct(t *testing.T) {
	if RoleED.SessionKey() == RoleLab.SessionKey() {
		t.Fatal("ED and Lab session keys must differ")
	}
	if RoleED.SessionKey() != "edIsAuthenticated" {
		t.Errorf("Expected edIsAuthenticated, got %s", RoleED.SessionKey())
	}
}

func TestSampleRecordDecode(t *testing.T) {
	raw := `{
		"sampleID": "S-1",
		"patientName": "Jane Doe",
		"patientID": "P-12345",
		"testType": "BMP",
		"source": "ED",
		"status": "Results Available",
		"timestamp": "Tue, 14 May 2024 10:30:00 GMT",
		"claimedBy": null,
		"tatStart": "2024-05-14T10:00:00",
		"tatEnd": "2024-05-14T10:45:00",
		"turnaroundTime": null
	}`

	var rec SampleRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	want := time.Date(2024, 5, 14, 10, 30, 0, 0, time.UTC)
	if !rec.Timestamp.Equal(want) {
		t.Errorf("Expected timestamp %v, got %v", want, rec.Timestamp)
	}
	if rec.Claimed() {
		t.Error("Expected record to be unclaimed")
	}
	if !rec.Status.IsTerminal() {
		t.Error("Expected terminal status")
	}
	tat, ok := rec.Turnaround()
	if !ok || tat != 45 {
		t.Errorf("Expected turnaround 45m, got %v (ok=%v)", tat, ok)
	}
}

func TestNewSampleValidate(t *testing.T) {
	now := time.Date(2024, 5, 14, 9, 5, 0, 0, time.UTC)
	ns := NewSampleAt("Jane Doe", "P-1", "BMP", "ED", now)
	if err := ns.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if ns.TimeOfSample != "09:05" || ns.DateOfSample != "2024-05-14" {
		t.Errorf("Unexpected date fields: %+v", ns)
	}

	ns.Source = "Basement"
	if err := ns.Validate(); err == nil {
		t.Error("Expected error for unknown source")
	}
}
