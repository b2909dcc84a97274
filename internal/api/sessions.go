package api

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/campusops/coursemap/internal/view"
)

// SessionStore holds live search sessions with TTL eviction. Each
// session serializes its own operations, so concurrent requests against
// one session apply in some total order.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*SessionEntry
	ttl      time.Duration
}

// SessionEntry binds a search session to the job whose tree it explores.
type SessionEntry struct {
	mu      sync.Mutex
	JobID   string
	session *view.Session
	touched time.Time
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*SessionEntry),
		ttl:      ttl,
	}
}

// Create opens a session over the given disclosure tree.
func (s *SessionStore) Create(jobID string, root *view.Unit) string {
	id := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = &SessionEntry{
		JobID:   jobID,
		session: view.NewSession(root),
		touched: time.Now(),
	}
	return id
}

func (s *SessionStore) Get(id string) *SessionEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.sessions[id]
	if e != nil {
		e.touched = time.Now()
	}
	return e
}

// Cleanup removes sessions idle past the TTL.
func (s *SessionStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, e := range s.sessions {
		if now.Sub(e.touched) > s.ttl {
			delete(s.sessions, id)
		}
	}
}

// Do runs fn while holding the session's lock.
func (e *SessionEntry) Do(fn func(*view.Session)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.session)
}
