package session

import (
	"errors"
	"sync"
	"time"
)

// ErrStale marks a result that was superseded by a newer request in the
// same session.
var ErrStale = errors.New("result superseded by a newer upload")

// Ticket identifies one request within a session.
type Ticket uint64

// Session is one browser's display state.
type Session struct {
	ID        string
	CreatedAt time.Time
	ExpiresAt time.Time

	mu      sync.Mutex
	counter uint64
	state   State
}

func newSession(id string, ttl time.Duration) *Session {
	now := time.Now()
	return &Session{
		ID:        id,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// Begin starts a new request and returns its ticket. Any earlier ticket
// becomes stale.
func (s *Session) Begin() Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counter++
	return Ticket(s.counter)
}

// Commit stores state if t is still the latest ticket. It returns false and
// leaves the current state untouched otherwise.
func (s *Session) Commit(t Ticket, state State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if uint64(t) != s.counter {
		return false
	}
	s.state = state
	return true
}

// State returns the current display state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Clear tears the current state down and returns what was removed. It also
// invalidates in-flight tickets.
func (s *Session) Clear() Removed {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counter++
	var removed Removed
	s.state, removed = s.state.Teardown()
	return removed
}

func (s *Session) expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
