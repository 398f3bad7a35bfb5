// Package session tracks which roles are signed in on this machine.
package session

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"sync"

	"github.com/fentz26/labtrack/internal/models"
)

// ErrInvalidCredentials is returned when a login does not match the
// configured user for the role.
var ErrInvalidCredentials = errors.New("invalid username or password")

// Persistence stores the per-role authentication flags.
type Persistence interface {
	LoadFlag(key string) (bool, error)
	SaveFlag(key string, value bool) error
}

// Credential is the username/password accepted for one role.
type Credential struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// DefaultCredentials returns the built-in role logins.
func DefaultCredentials() map[models.Role]Credential {
	return map[models.Role]Credential{
		models.RoleED:  {Username: "ed_user", Password: "password123"},
		models.RoleLab: {Username: "lab_user", Password: "labpass"},
	}
}

// Session holds the authentication state of both roles. ED and Lab are
// independent; signing into one never affects the other.
type Session struct {
	store Persistence
	creds map[models.Role]Credential

	mu    sync.RWMutex
	flags map[models.Role]bool
}

// New creates a Session and reads the persisted flags. A flag that cannot
// be read counts as signed out.
func New(store Persistence, creds map[models.Role]Credential) *Session {
	if store == nil {
		store = NewMemoryPersistence()
	}
	if creds == nil {
		creds = DefaultCredentials()
	}
	s := &Session{
		store: store,
		creds: creds,
		flags: make(map[models.Role]bool),
	}
	for _, role := range []models.Role{models.RoleED, models.RoleLab} {
		v, err := store.LoadFlag(role.SessionKey())
		s.flags[role] = err == nil && v
	}
	return s
}

// IsAuthenticated reports whether role is signed in.
func (s *Session) IsAuthenticated(role models.Role) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flags[role]
}

// Login signs role in if username and password match.
func (s *Session) Login(role models.Role, username, password string) error {
	cred, ok := s.creds[role]
	if !ok {
		return fmt.Errorf("no credentials configured for role %q", role)
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(cred.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(cred.Password)) == 1
	if !userOK || !passOK {
		return ErrInvalidCredentials
	}
	return s.set(role, true)
}

// Logout signs role out.
func (s *Session) Logout(role models.Role) error {
	return s.set(role, false)
}

func (s *Session) set(role models.Role, v bool) error {
	s.mu.Lock()
	s.flags[role] = v
	s.mu.Unlock()

	if err := s.store.SaveFlag(role.SessionKey(), v); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

// MemoryPersistence keeps flags in memory only.
type MemoryPersistence struct {
	mu    sync.Mutex
	flags map[string]bool
}

// NewMemoryPersistence creates an empty in-memory store.
func NewMemoryPersistence() *MemoryPersistence {
	return &MemoryPersistence{flags: make(map[string]bool)}
}

// LoadFlag implements Persistence.
func (m *MemoryPersistence) LoadFlag(key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flags[key], nil
}

// SaveFlag implements Persistence.
func (m *MemoryPersistence) SaveFlag(key string, value bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flags[key] = value
	return nil
}
