package session

import (
	"crypto/subtle"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yegors/cctv-repairs/pkg/logger"
)

// ErrBadCredentials is returned when the login identity or secret does not
// match the configured admin. The caller re-displays the login state; the
// session does not advance.
var ErrBadCredentials = errors.New("invalid username or password")

// Credentials is the single configured admin identity
type Credentials struct {
	Username string
	Password string
}

// Manager owns all live sessions. Access to a session's state goes through
// WithSession so that handler goroutines never race on the same session.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	admin    Credentials
	logger   *logger.Logger
}

// NewManager creates a session manager for the given admin identity
func NewManager(admin Credentials, log *logger.Logger) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		admin:    admin,
		logger:   log.Named("sessions"),
	}
}

// Login checks the credentials by exact match and, on success, creates a
// new session at the home page. The comparison is constant-time.
func (m *Manager) Login(username, password string) (*Session, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(m.admin.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(m.admin.Password)) == 1
	if !userOK || !passOK {
		m.logger.Warn("Login rejected", logger.String("username", username))
		return nil, ErrBadCredentials
	}

	now := time.Now()
	s := &Session{
		Token:     uuid.New().String(),
		Inspector: username,
		Page:      PageHome,
		Journal:   JournalComposing,
		CreatedAt: now,
		LastSeen:  now,
	}

	m.mu.Lock()
	m.sessions[s.Token] = s
	m.mu.Unlock()

	m.logger.Info("Session started", logger.String("inspector", username))
	return s, nil
}

// Logout drops the session. Allowed from any page; all transient state
// (draft, search snapshot) is discarded with it.
func (m *Manager) Logout(token string) {
	m.mu.Lock()
	_, existed := m.sessions[token]
	delete(m.sessions, token)
	m.mu.Unlock()

	if existed {
		m.logger.Info("Session ended")
	}
}

// Valid reports whether the token belongs to a live session
func (m *Manager) Valid(token string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[token]
	return ok
}

// WithSession runs fn with the session for the given token, serialized
// against all other session access. Returns false when the token is unknown.
func (m *Manager) WithSession(token string, fn func(*Session)) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[token]
	if !ok {
		return false
	}
	s.LastSeen = time.Now()
	fn(s)
	return true
}
