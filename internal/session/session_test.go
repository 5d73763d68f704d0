package session

import (
	"image"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/kozaktomas/facetag/internal/render"
)

func fullState() State {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	return State{Image: NewDisplay(img), Overlay: render.OverlayFor(img)}
}

func TestState_Teardown(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		expected Removed
	}{
		{"empty", State{}, Removed{}},
		{"image and overlay", fullState(), Removed{Images: 1, Overlays: 1}},
		{"image only", State{Image: NewDisplay(image.NewRGBA(image.Rect(0, 0, 1, 1)))}, Removed{Images: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, removed := tt.state.Teardown()
			if removed != tt.expected {
				t.Errorf("Teardown() removed = %+v, want %+v", removed, tt.expected)
			}
			if !next.Empty() {
				t.Error("Teardown() should return an empty state")
			}

			// Second teardown is a no-op.
			_, again := next.Teardown()
			if again != (Removed{}) {
				t.Errorf("second Teardown() removed = %+v", again)
			}
		})
	}
}

func TestNewDisplay_UniqueIDs(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	a, b := NewDisplay(img), NewDisplay(img)
	if a.ID == "" || a.ID == b.ID {
		t.Errorf("expected distinct non-empty ids, got %q and %q", a.ID, b.ID)
	}
}

func TestSession_CommitLatestOnly(t *testing.T) {
	s := newSession("s1", time.Hour)

	first := s.Begin()
	second := s.Begin()

	if s.Commit(first, fullState()) {
		t.Error("stale ticket should not commit")
	}
	if !s.State().Empty() {
		t.Error("stale commit must not change state")
	}

	st := fullState()
	if !s.Commit(second, st) {
		t.Error("latest ticket should commit")
	}
	if s.State().Image != st.Image {
		t.Error("committed state not stored")
	}
}

func TestSession_Clear(t *testing.T) {
	s := newSession("s1", time.Hour)
	ticket := s.Begin()
	s.Commit(ticket, fullState())

	inFlight := s.Begin()
	removed := s.Clear()
	if removed != (Removed{Images: 1, Overlays: 1}) {
		t.Errorf("Clear() = %+v", removed)
	}
	if s.Commit(inFlight, fullState()) {
		t.Error("Clear() should invalidate in-flight tickets")
	}
	if !s.State().Empty() {
		t.Error("state should be empty after Clear()")
	}
}

func TestSession_ConcurrentBegin(t *testing.T) {
	s := newSession("s1", time.Hour)
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Begin()
		}()
	}
	wg.Wait()

	last := s.Begin()
	if last != 51 {
		t.Errorf("Begin() = %d, want 51", last)
	}
}

func TestManager_CreateAndGet(t *testing.T) {
	m := NewManager("test-secret")
	defer m.Stop()

	s := m.Create()
	if s.ID == "" {
		t.Fatal("session ID is empty")
	}
	if m.Get(s.ID) != s {
		t.Error("Get() should return the created session")
	}
	if m.Get("nonexistent") != nil {
		t.Error("Get() should return nil for unknown id")
	}

	m.Delete(s.ID)
	if m.Get(s.ID) != nil {
		t.Error("Get() should return nil after Delete()")
	}
}

func TestManager_EnsureSetsCookie(t *testing.T) {
	m := NewManager("test-secret")
	defer m.Stop()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	s := m.Ensure(w, r)

	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != CookieName {
		t.Fatalf("expected %s cookie, got %v", CookieName, cookies)
	}

	// The cookie resolves to the same session.
	r2 := httptest.NewRequest(http.MethodGet, "/", nil)
	r2.AddCookie(cookies[0])
	w2 := httptest.NewRecorder()
	if got := m.Ensure(w2, r2); got != s {
		t.Error("Ensure() with cookie should return the existing session")
	}
	if len(w2.Result().Cookies()) != 0 {
		t.Error("existing session should not reissue the cookie")
	}
}

func TestManager_RejectsForgedCookie(t *testing.T) {
	m := NewManager("test-secret")
	defer m.Stop()
	other := NewManager("other")
	defer other.Stop()
	s := m.Create()

	tests := []struct {
		name  string
		value string
	}{
		{"no signature", s.ID},
		{"bad signature", s.ID + ".forged"},
		{"signed by other secret", s.ID + "." + other.signData(s.ID)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.AddCookie(&http.Cookie{Name: CookieName, Value: tt.value})
			if m.FromRequest(r) != nil {
				t.Error("FromRequest() should reject the cookie")
			}
		})
	}
}

func TestManager_RemoveExpired(t *testing.T) {
	m := NewManager("test-secret")
	defer m.Stop()

	live := m.Create()
	old := m.Create()
	old.ExpiresAt = time.Now().Add(-time.Minute)

	if m.Get(old.ID) != nil {
		t.Error("Get() should hide expired sessions")
	}
	if n := m.removeExpired(time.Now()); n != 1 {
		t.Errorf("removeExpired() = %d, want 1", n)
	}
	if m.Count() != 1 || m.Get(live.ID) == nil {
		t.Error("live session should survive cleanup")
	}
}

func TestManager_ExpiryIsAbsolute(t *testing.T) {
	m := NewManager("test-secret")
	defer m.Stop()

	s := m.Create()
	if got := s.ExpiresAt.Sub(s.CreatedAt); got != Duration {
		t.Errorf("lifetime = %v, want %v", got, Duration)
	}

	expires := s.ExpiresAt
	for range 3 {
		if m.Get(s.ID) == nil {
			t.Fatal("Get() should return the live session")
		}
	}
	if !s.ExpiresAt.Equal(expires) {
		t.Errorf("Get() moved ExpiresAt from %v to %v", expires, s.ExpiresAt)
	}
}

func TestManager_DefaultSecret(t *testing.T) {
	m := NewManager("")
	defer m.Stop()
	if string(m.secret) != devSecret {
		t.Errorf("secret = %q, want dev default", m.secret)
	}
	m.Stop() // Stop is idempotent.
}
