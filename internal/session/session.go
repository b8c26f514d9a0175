// Package session keeps per-browser state for the frontend: the upstream
// credentials captured at login, the query cache, the single toast slot and
// the in-flight action guard. It replaces module-level mutable state with an
// explicit application-scoped store.
package session

import (
	"sync"
	"time"

	"expenseweb/internal/api"
	"expenseweb/internal/cache"
)

// Toast kinds
const (
	ToastSuccess = "success"
	ToastError   = "error"
)

// toastTTL bounds how long an unread toast stays deliverable. A toast left
// over from an abandoned action must not surface minutes later.
const toastTTL = 10 * time.Second

// Toast is the single-slot ephemeral notification. A new toast overwrites the
// previous one; there is no queue.
type Toast struct {
	Kind    string
	Message string
}

// Session is one browser's server-side state.
type Session struct {
	ID string

	mu       sync.Mutex
	creds    api.Credentials
	cache    *cache.Store
	toast    *Toast
	toastAt  time.Time
	inflight map[string]struct{}
	lastSeen time.Time
	now      func() time.Time
}

func newSession(id string, cacheTTL time.Duration) *Session {
	return &Session{
		ID:       id,
		cache:    cache.New(cacheTTL),
		inflight: make(map[string]struct{}),
		lastSeen: time.Now(),
		now:      time.Now,
	}
}

// Cache returns this session's query cache.
func (s *Session) Cache() *cache.Store {
	return s.cache
}

// Credentials returns the upstream cookies for this user, or nil when not
// logged in.
func (s *Session) Credentials() api.Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds
}

// SetCredentials installs a fresh upstream login. The cache is reset so no
// read from a previous identity survives the switch.
func (s *Session) SetCredentials(creds api.Credentials) {
	s.mu.Lock()
	s.creds = creds
	s.mu.Unlock()
	s.cache.Reset()
}

// ClearCredentials drops the upstream login and the cache with it.
func (s *Session) ClearCredentials() {
	s.mu.Lock()
	s.creds = nil
	s.mu.Unlock()
	s.cache.Reset()
}

// SetToast overwrites the toast slot.
func (s *Session) SetToast(kind, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toast = &Toast{Kind: kind, Message: message}
	s.toastAt = s.now()
}

// PopToast returns the pending toast once and clears the slot. Expired
// toasts are dropped silently.
func (s *Session) PopToast() *Toast {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.toast
	s.toast = nil
	if t == nil || s.now().Sub(s.toastAt) > toastTTL {
		return nil
	}
	return t
}

// Begin marks a mutation on the given resource as in flight. It returns false
// when one is already running, which is how concurrent posts on the same
// resource from one session are refused.
func (s *Session) Begin(resource string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[resource]; busy {
		return false
	}
	s.inflight[resource] = struct{}{}
	return true
}

// End releases the in-flight mark set by Begin.
func (s *Session) End(resource string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, resource)
}

func (s *Session) touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = time.Now()
}
