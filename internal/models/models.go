// Package models defines the core domain types for labtrack.
package models

import (
	"fmt"
	"strings"
	"time"
)

// Status represents where a specimen is in the lab workflow.
type Status string

const (
	StatusReceived         Status = "Received"
	StatusInProgress       Status = "In Progress"
	StatusAnalysisComplete Status = "Analysis Complete"
	StatusResultsAvailable Status = "Results Available"
)

// Statuses lists every status in workflow order.
var Statuses = []Status{
	StatusReceived,
	StatusInProgress,
	StatusAnalysisComplete,
	StatusResultsAvailable,
}

// Rank returns the position of s in the workflow, or -1 for an unknown status.
func (s Status) Rank() int {
	for i, st := range Statuses {
		if st == s {
			return i
		}
	}
	return -1
}

// IsTerminal reports whether results are available for the specimen.
func (s Status) IsTerminal() bool {
	return s == StatusResultsAvailable
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s.Rank() >= 0
}

// ParseStatus matches input against the known statuses, ignoring case and
// treating dashes and underscores as spaces ("in-progress" -> In Progress).
func ParseStatus(input string) (Status, error) {
	norm := strings.NewReplacer("-", " ", "_", " ").Replace(strings.TrimSpace(input))
	for _, st := range Statuses {
		if strings.EqualFold(string(st), norm) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", input)
}

// IsForward reports whether moving from one status to another follows the
// workflow order. Staying on the same status is not a forward move.
func IsForward(from, to Status) bool {
	if !to.Valid() {
		return false
	}
	// A record with an unrecognized status can be put back on the workflow.
	if !from.Valid() {
		return true
	}
	return to.Rank() > from.Rank()
}

// SampleRecord is one specimen under tracking.
type SampleRecord struct {
	SampleID       string   `json:"sampleID"`
	PatientName    string   `json:"patientName"`
	PatientID      string   `json:"patientID"`
	TestType       string   `json:"testType"`
	Source         string   `json:"source"`
	Status         Status   `json:"status"`
	Timestamp      Time     `json:"timestamp"`
	ClaimedBy      *string  `json:"claimedBy"`
	TATStart       *Time    `json:"tatStart"`
	TATEnd         *Time    `json:"tatEnd"`
	TurnaroundTime *float64 `json:"turnaroundTime"` // minutes
}

// Claimed reports whether an ED user has claimed the record.
func (r SampleRecord) Claimed() bool {
	return r.ClaimedBy != nil && strings.TrimSpace(*r.ClaimedBy) != ""
}

// Claimer returns the claiming user or an empty string.
func (r SampleRecord) Claimer() string {
	if r.ClaimedBy == nil {
		return ""
	}
	return *r.ClaimedBy
}

// Turnaround returns the record's turnaround in minutes, preferring the
// server-computed value and falling back to tatEnd - tatStart.
func (r SampleRecord) Turnaround() (float64, bool) {
	if r.TurnaroundTime != nil {
		return *r.TurnaroundTime, true
	}
	if r.TATStart != nil && r.TATEnd != nil {
		return r.TATEnd.Sub(r.TATStart.Time).Minutes(), true
	}
	return 0, false
}

// Role identifies which staff dashboard is in use.
type Role string

const (
	RoleED  Role = "ed"
	RoleLab Role = "lab"
)

// ParseRole parses "ed" or "lab".
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleED:
		return RoleED, nil
	case RoleLab:
		return RoleLab, nil
	}
	return "", fmt.Errorf("unknown role %q (want ed or lab)", s)
}

// SessionKey is the persisted key of the role's authentication flag.
// ED and Lab keys never collide.
func (r Role) SessionKey() string {
	return string(r) + "IsAuthenticated"
}

// Label is the display name of the role.
func (r Role) Label() string {
	if r == RoleLab {
		return "Lab"
	}
	return "ED"
}

// TestTypes are the tests offered at sample creation.
var TestTypes = []string{"BMP", "CMP", "Troponin", "PT/INR", "CBC"}

// Sources are the departments a specimen may originate from.
var Sources = []string{"ED", "ICU", "Floor 3", "OR"}

// ValidSource reports whether s is a known source department.
func ValidSource(s string) bool {
	for _, src := range Sources {
		if src == s {
			return true
		}
	}
	return false
}

// NewSample is the creation payload for POST /api/add-sample. The server
// assigns the sample ID, status, claim and timing fields.
type NewSample struct {
	PatientName  string `json:"patientName"`
	PatientID    string `json:"patientID"`
	TestType     string `json:"testType"`
	Source       string `json:"source"`
	DateOfSample string `json:"dateOfSample"`
	TimeOfSample string `json:"timeOfSample"`
	DateReported string `json:"dateReported"`
}

// NewSampleAt builds a creation payload with the date fields set from now.
func NewSampleAt(patientName, patientID, testType, source string, now time.Time) NewSample {
	return NewSample{
		PatientName:  patientName,
		PatientID:    patientID,
		TestType:     testType,
		Source:       source,
		DateOfSample: now.Format("2006-01-02"),
		TimeOfSample: now.Format("15:04"),
		DateReported: now.Format("2006-01-02"),
	}
}

// Validate checks the required creation fields.
func (n NewSample) Validate() error {
	switch {
	case strings.TrimSpace(n.PatientName) == "":
		return fmt.Errorf("patient name is required")
	case strings.TrimSpace(n.PatientID) == "":
		return fmt.Errorf("patient ID is required")
	case strings.TrimSpace(n.TestType) == "":
		return fmt.Errorf("test type is required")
	case !ValidSource(n.Source):
		return fmt.Errorf("unknown source %q (want one of %s)", n.Source, strings.Join(Sources, ", "))
	}
	return nil
}

// AuditEntry records a mutation submitted from this client.
type AuditEntry struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	InputsHash string    `json:"inputs_hash"`
	Outcome    string    `json:"outcome"`
	SampleID   string    `json:"sample_id,omitempty"`
	Details    string    `json:"details,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// IsDone reports whether rec belongs in the role's claimed/completed set
// rather than its active queue. ED staff work unclaimed records; the lab
// works records whose results are not yet available.
func (r Role) IsDone(rec SampleRecord) bool {
	if r == RoleLab {
		return rec.Status.IsTerminal()
	}
	return rec.Claimed()
}
