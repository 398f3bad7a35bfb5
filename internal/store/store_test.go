package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "nested", "test.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer s.Close()

	// Verify file was created
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestSessionFlags(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	got, err := s.LoadFlag("edIsAuthenticated")
	if err != nil {
		t.Fatalf("LoadFlag failed: %v", err)
	}
	if got {
		t.Error("Expected unset flag to read false")
	}

	if err := s.SaveFlag("edIsAuthenticated", true); err != nil {
		t.Fatalf("SaveFlag failed: %v", err)
	}
	if got, _ := s.LoadFlag("edIsAuthenticated"); !got {
		t.Error("Expected flag to be true after save")
	}
	if got, _ := s.LoadFlag("labIsAuthenticated"); got {
		t.Error("Expected lab flag to stay false")
	}

	// Overwrite
	if err := s.SaveFlag("edIsAuthenticated", false); err != nil {
		t.Fatalf("SaveFlag overwrite failed: %v", err)
	}
	if got, _ := s.LoadFlag("edIsAuthenticated"); got {
		t.Error("Expected flag to be false after overwrite")
	}
}

func TestSessionFlagsSurviveReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	s.SaveFlag("labIsAuthenticated", true)
	s.Close()

	s, err = New(dbPath)
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	defer s.Close()
	if got, _ := s.LoadFlag("labIsAuthenticated"); !got {
		t.Error("Expected flag to persist across reopen")
	}
}

func TestAudit(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	first, err := s.WriteAudit("sample.status", "abc", "success", "S-1", "Received -> In Progress")
	if err != nil {
		t.Fatalf("WriteAudit failed: %v", err)
	}
	if first.ID == "" {
		t.Error("Audit ID should not be empty")
	}
	time.Sleep(2 * time.Millisecond)
	if _, err := s.WriteAudit("sample.status", "def", "override", "S-2", ""); err != nil {
		t.Fatalf("WriteAudit failed: %v", err)
	}

	all, err := s.ListAudit("", 10)
	if err != nil {
		t.Fatalf("ListAudit failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(all))
	}
	if all[0].SampleID != "S-2" {
		t.Errorf("Expected newest first, got %s", all[0].SampleID)
	}

	one, err := s.ListAudit("S-1", 10)
	if err != nil {
		t.Fatalf("ListAudit failed: %v", err)
	}
	if len(one) != 1 || one[0].Details != "Received -> In Progress" {
		t.Errorf("Unexpected entries for S-1: %+v", one)
	}
}

func TestPing(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := s.Ping(ctx)
	if err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func newTestStore(t *testing.T) *Store {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return s
}
