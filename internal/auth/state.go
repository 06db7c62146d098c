package auth

import (
	"sync"
	"time"
)

type stateEntry struct {
	verifier string
	expires  time.Time
}

// stateStore holds pending login attempts keyed by the OAuth state value.
type stateStore struct {
	items map[string]stateEntry
	mu    sync.Mutex
	now   func() time.Time
}

func newStateStore() *stateStore {
	return &stateStore{items: make(map[string]stateEntry), now: time.Now}
}

func (s *stateStore) put(state, verifier string, exp time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, v := range s.items {
		if now.After(v.expires) {
			delete(s.items, k)
		}
	}
	s.items[state] = stateEntry{verifier: verifier, expires: exp}
}

// consume returns the PKCE verifier for state. Each state is usable once.
func (s *stateStore) consume(state string) (string, bool) {
	s.mu.Lock()
	entry, ok := s.items[state]
	if ok {
		delete(s.items, state)
	}
	s.mu.Unlock()
	if !ok || s.now().After(entry.expires) {
		return "", false
	}
	return entry.verifier, true
}

func (s *stateStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
