// Package cache holds query results between page renders. Entries are only
// ever replaced by a fresh fetch or dropped by an explicit invalidation;
// nothing mutates a cached value in place.
package cache

import (
	"sync"
	"time"
)

// Kind identifies a cached resource family.
type Kind int

const (
	KindHealth Kind = iota
	KindMe
	KindRequests
	KindRequest
	KindHistory
	KindInbox
	KindInboxDetail
)

func (k Kind) String() string {
	switch k {
	case KindHealth:
		return "health"
	case KindMe:
		return "me"
	case KindRequests:
		return "requests"
	case KindRequest:
		return "request"
	case KindHistory:
		return "history"
	case KindInbox:
		return "inbox"
	case KindInboxDetail:
		return "inboxDetail"
	}
	return "unknown"
}

// Key addresses one cache entry. Collection-level entries use an empty ID.
type Key struct {
	Kind Kind
	ID   string
}

type entry struct {
	value    any
	storedAt time.Time
	pinned   bool
}

// Store is a TTL'd key-value cache. A zero TTL means entries never expire on
// their own and only invalidation removes them.
type Store struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[Key]entry
	now     func() time.Time
}

func New(ttl time.Duration) *Store {
	return &Store{
		ttl:     ttl,
		entries: make(map[Key]entry),
		now:     time.Now,
	}
}

// Get returns the cached value for key, or false when absent or expired.
func (s *Store) Get(key Key) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if !e.pinned && s.ttl > 0 && s.now().Sub(e.storedAt) > s.ttl {
		delete(s.entries, key)
		return nil, false
	}
	return e.value, true
}

// Put stores value under key, replacing any previous entry.
func (s *Store) Put(key Key, value any) {
	s.put(key, value, false)
}

// PutPinned stores value under key exempt from the TTL; only invalidation
// removes it. Used for the session query, which must not flap between pages.
func (s *Store) PutPinned(key Key, value any) {
	s.put(key, value, true)
}

func (s *Store) put(key Key, value any, pinned bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry{value: value, storedAt: s.now(), pinned: pinned}
}

// Invalidate drops every entry of the given kind.
func (s *Store) Invalidate(kind Kind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.entries {
		if key.Kind == kind {
			delete(s.entries, key)
		}
	}
}

// InvalidateKey drops the single entry for (kind, id).
func (s *Store) InvalidateKey(kind Kind, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, Key{Kind: kind, ID: id})
}

// Reset drops everything. Called on login and logout so cached reads never
// cross users.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[Key]entry)
}

// Fetch returns the cached value for key or runs load and caches its result.
// Errors are not cached: the next read retries, which is how the pages get
// their refetch-after-failure behavior without any automatic retry.
func Fetch[T any](s *Store, key Key, load func() (T, error)) (T, error) {
	if v, ok := s.Get(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}
	value, err := load()
	if err != nil {
		var zero T
		return zero, err
	}
	s.Put(key, value)
	return value, nil
}

// FetchPinned is Fetch with a TTL-exempt store.
func FetchPinned[T any](s *Store, key Key, load func() (T, error)) (T, error) {
	if v, ok := s.Get(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}
	value, err := load()
	if err != nil {
		var zero T
		return zero, err
	}
	s.PutPinned(key, value)
	return value, nil
}
