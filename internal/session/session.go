// Package session binds a browser to its own transcript and model selection.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"medchat/internal/catalog"
	"medchat/internal/conversation"
	app_errors "medchat/internal/errors"
)

// CookieName is the cookie that carries the session ID.
const CookieName = "medchat_session"

// Session is the session-scoped context handed to the relay. Nothing in it is
// shared with any other session.
type Session struct {
	ID        string
	Store     *conversation.Store
	Selection *catalog.Selection

	mu           sync.Mutex
	lastActiveAt time.Time
	busy         bool
}

// New creates an empty session with the table's default model selected.
func New(id string, table catalog.Table) *Session {
	return &Session{
		ID:           id,
		Store:        conversation.NewStore(),
		Selection:    catalog.NewSelection(table),
		lastActiveAt: time.Now(),
	}
}

// BeginTurn claims the session for one question/answer cycle. It fails with
// ErrConflict while a previous answer is still streaming.
func (s *Session) BeginTurn() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return fmt.Errorf("%w: an answer is still being generated", app_errors.ErrConflict)
	}
	s.busy = true
	s.lastActiveAt = time.Now()
	return nil
}

func (s *Session) EndTurn() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
	s.lastActiveAt = time.Now()
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastActiveAt = time.Now()
	s.mu.Unlock()
}

// idleSince reports whether the session has been inactive since cutoff.
// A session with a turn in flight is never idle.
func (s *Session) idleSince(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.busy && s.lastActiveAt.Before(cutoff)
}

// Manager tracks live sessions in memory.
type Manager struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	table       catalog.Table
	idleTimeout time.Duration
}

func NewManager(table catalog.Table, idleTimeout time.Duration) *Manager {
	return &Manager{
		sessions:    make(map[string]*Session),
		table:       table,
		idleTimeout: idleTimeout,
	}
}

// Resolve returns the caller's session, creating one (and setting the cookie)
// when the request carries no known session ID.
func (m *Manager) Resolve(w http.ResponseWriter, r *http.Request) *Session {
	if c, err := r.Cookie(CookieName); err == nil {
		if sess, ok := m.Get(c.Value); ok {
			sess.touch()
			return sess
		}
	}

	sess := m.create()
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sess
}

func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	return sess, ok
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) create() *Session {
	sess := New(uuid.NewString(), m.table)
	m.mu.Lock()
	m.sessions[sess.ID] = sess
	m.mu.Unlock()
	slog.Debug("Created session", "session_id", sess.ID)
	return sess
}

// StartGC reaps idle sessions until ctx is cancelled. Their transcripts are discarded.
func (m *Manager) StartGC(ctx context.Context) {
	if m.idleTimeout <= 0 {
		return
	}
	interval := m.idleTimeout / 2
	if interval > 5*time.Minute {
		interval = 5 * time.Minute
	}
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.gc(time.Now().Add(-m.idleTimeout))
		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) gc(cutoff time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, sess := range m.sessions {
		if sess.idleSince(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		slog.Info("Removed idle sessions", "count", removed, "remaining", len(m.sessions))
	}
	return removed
}
