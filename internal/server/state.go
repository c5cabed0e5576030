package server

import (
	"sync"
	"time"
)

// stateStore tracks issued authorization states. States are single-use and
// expire after a TTL, so a leaked redirect URL cannot be replayed.
type stateStore struct {
	ttl time.Duration
	now func() time.Time

	mu     sync.Mutex
	issued map[string]time.Time // state -> expiry
}

func newStateStore(ttl time.Duration) *stateStore {
	return &stateStore{
		ttl:    ttl,
		now:    time.Now,
		issued: make(map[string]time.Time),
	}
}

// Issue registers a state for later consumption.
func (s *stateStore) Issue(state string) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeLocked(now)
	s.issued[state] = now.Add(s.ttl)
}

// Consume redeems a state, reporting whether it was issued and still live.
// A state can be consumed at most once.
func (s *stateStore) Consume(state string) bool {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeLocked(now)

	expiry, ok := s.issued[state]
	if !ok {
		return false
	}
	delete(s.issued, state)
	return now.Before(expiry)
}

func (s *stateStore) purgeLocked(now time.Time) {
	for state, expiry := range s.issued {
		if !now.Before(expiry) {
			delete(s.issued, state)
		}
	}
}
