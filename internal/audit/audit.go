// Package audit records the mutations labtrack submits.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/fentz26/labtrack/internal/models"
)

// Outcomes recorded for a mutation.
const (
	OutcomeSuccess  = "success"
	OutcomeFailed   = "failed"
	OutcomeRefused  = "refused"
	OutcomeOverride = "override"
)

// Sink persists audit entries.
type Sink interface {
	WriteAudit(action, inputsHash, outcome, sampleID, details string) (*models.AuditEntry, error)
}

// Writer writes audit entries for state-mutating actions.
type Writer struct {
	sink Sink
}

// NewWriter creates a new audit writer. A nil sink discards entries.
func NewWriter(s Sink) *Writer {
	return &Writer{sink: s}
}

// Record writes an audit entry.
func (w *Writer) Record(action string, inputs interface{}, outcome, sampleID, details string) (*models.AuditEntry, error) {
	if w == nil || w.sink == nil {
		return nil, nil
	}
	return w.sink.WriteAudit(action, hashInputs(inputs), outcome, sampleID, details)
}

// hashInputs creates a SHA256 hash of the inputs for reproducibility.
func hashInputs(inputs interface{}) string {
	data, err := json.Marshal(inputs)
	if err != nil {
		return "hash_error"
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
