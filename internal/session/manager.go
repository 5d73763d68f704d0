package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// CookieName is the name of the signed session cookie.
	CookieName = "facetag_session"
	// Duration is the lifetime of a session counted from its creation.
	// Activity does not extend it.
	Duration = 24 * time.Hour

	cleanupInterval = 10 * time.Minute
	devSecret       = "facetag-dev-secret-change-in-production"
)

// Manager owns all sessions and the cookies that point at them.
type Manager struct {
	secret   []byte
	sessions map[string]*Session
	mu       sync.RWMutex
	stop     chan struct{}
	stopOnce sync.Once
}

// NewManager creates a manager and starts its expiry loop.
func NewManager(secret string) *Manager {
	// Use a default secret if none provided (for development)
	if secret == "" {
		secret = devSecret
	}
	m := &Manager{
		secret:   []byte(secret),
		sessions: make(map[string]*Session),
		stop:     make(chan struct{}),
	}
	go m.cleanupLoop()
	return m
}

// Create registers a new session.
func (m *Manager) Create() *Session {
	s := newSession(uuid.NewString(), Duration)
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s
}

// Get returns a live session or nil.
func (m *Manager) Get(id string) *Session {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok || s.expired(time.Now()) {
		return nil
	}
	return s
}

// Delete removes a session.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Count returns the number of tracked sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// FromRequest returns the session referenced by the request cookie, or nil
// when the cookie is missing, forged or expired.
func (m *Manager) FromRequest(r *http.Request) *Session {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil
	}
	id, signature, ok := strings.Cut(cookie.Value, ".")
	if !ok || !m.verifySignature(id, signature) {
		return nil
	}
	return m.Get(id)
}

// Ensure returns the request's session, creating one and setting its cookie
// when needed.
func (m *Manager) Ensure(w http.ResponseWriter, r *http.Request) *Session {
	if s := m.FromRequest(r); s != nil {
		return s
	}
	s := m.Create()
	m.SetCookie(w, s)
	return s
}

// SetCookie writes the signed session cookie.
func (m *Manager) SetCookie(w http.ResponseWriter, s *Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    s.ID + "." + m.signData(s.ID),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(Duration.Seconds()),
	})
}

// Stop ends the expiry loop.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
}

func (m *Manager) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case now := <-ticker.C:
			m.removeExpired(now)
		}
	}
}

func (m *Manager) removeExpired(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, s := range m.sessions {
		if s.expired(now) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// signData creates an HMAC signature for data
func (m *Manager) signData(data string) string {
	h := hmac.New(sha256.New, m.secret)
	h.Write([]byte(data))
	return base64.URLEncoding.EncodeToString(h.Sum(nil))
}

// verifySignature verifies an HMAC signature
func (m *Manager) verifySignature(data, signature string) bool {
	expected := m.signData(data)
	return hmac.Equal([]byte(signature), []byte(expected))
}
