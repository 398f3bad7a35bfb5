package session

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/fentz26/labtrack/internal/models"
	"github.com/fentz26/labtrack/internal/store"
)

type brokenPersistence struct{}

func (brokenPersistence) LoadFlag(string) (bool, error) { return true, errors.New("disk gone") }
func (brokenPersistence) SaveFlag(string, bool) error   { return errors.New("disk gone") }

func TestLoginLogout(t *testing.T) {
	s := New(NewMemoryPersistence(), nil)

	if s.IsAuthenticated(models.RoleED) {
		t.Fatal("Expected ED signed out initially")
	}
	if err := s.Login(models.RoleED, "ed_user", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials, got %v", err)
	}
	if err := s.Login(models.RoleED, "lab_user", "labpass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Lab credentials must not sign into ED, got %v", err)
	}
	if err := s.Login(models.RoleED, "ed_user", "password123"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if !s.IsAuthenticated(models.RoleED) {
		t.Error("Expected ED signed in")
	}
	if s.IsAuthenticated(models.RoleLab) {
		t.Error("ED login must not sign in Lab")
	}

	if err := s.Logout(models.RoleED); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if s.IsAuthenticated(models.RoleED) {
		t.Error("Expected ED signed out")
	}
}

func TestCustomCredentials(t *testing.T) {
	creds := map[models.Role]Credential{
		models.RoleLab: {Username: "tech", Password: "s3cret"},
	}
	s := New(nil, creds)
	if err := s.Login(models.RoleLab, "tech", "s3cret"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if err := s.Login(models.RoleED, "ed_user", "password123"); err == nil {
		t.Error("Expected error for role without credentials")
	}
}

func TestFlagsPersistAcrossSessions(t *testing.T) {
	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer st.Close()

	first := New(st, nil)
	if err := first.Login(models.RoleLab, "lab_user", "labpass"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	second := New(st, nil)
	if !second.IsAuthenticated(models.RoleLab) {
		t.Error("Expected Lab session restored from store")
	}
	if second.IsAuthenticated(models.RoleED) {
		t.Error("Expected ED to remain signed out")
	}
}

func TestReadFailureMeansSignedOut(t *testing.T) {
	s := New(brokenPersistence{}, nil)
	if s.IsAuthenticated(models.RoleED) || s.IsAuthenticated(models.RoleLab) {
		t.Error("Expected unreadable flags to count as signed out")
	}
	if err := s.Login(models.RoleED, "ed_user", "password123"); err == nil {
		t.Error("Expected persistence error from Login")
	}
}
