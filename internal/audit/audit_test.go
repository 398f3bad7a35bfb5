package audit

import (
	"path/filepath"
	"testing"

	"github.com/fentz26/labtrack/internal/store"
)

func TestRecord(t *testing.T) {
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer s.Close()

	w := NewWriter(s)
	inputs := map[string]string{"sampleID": "S-1", "newStatus": "In Progress"}

	entry, err := w.Record("sample.status", inputs, OutcomeSuccess, "S-1", "")
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if entry.Outcome != OutcomeSuccess {
		t.Errorf("Expected outcome %q, got %q", OutcomeSuccess, entry.Outcome)
	}
	if len(entry.InputsHash) != 64 {
		t.Errorf("Expected sha256 hex hash, got %q", entry.InputsHash)
	}

	again, _ := w.Record("sample.status", inputs, OutcomeSuccess, "S-1", "")
	if again.InputsHash != entry.InputsHash {
		t.Error("Expected identical inputs to hash identically")
	}
}

func TestNilWriterDiscards(t *testing.T) {
	var w *Writer
	entry, err := w.Record("sample.add", nil, OutcomeSuccess, "", "")
	if err != nil || entry != nil {
		t.Errorf("Expected no-op, got %v, %v", entry, err)
	}

	entry, err = NewWriter(nil).Record("sample.add", nil, OutcomeSuccess, "", "")
	if err != nil || entry != nil {
		t.Errorf("Expected no-op, got %v, %v", entry, err)
	}
}
