// Package storage keeps the relay's small amount of in-process state.
package storage

import (
	"sync"
	"time"
)

// DefaultWindow is how long an update id is remembered. Telegram gives up
// redelivering well before this.
const DefaultWindow = time.Hour

// SeenUpdates remembers recently claimed update ids so a redelivered update
// is processed once. It is the in-process counterpart of the task id the
// redis dispatcher sets.
type SeenUpdates struct {
	mu     sync.Mutex
	window time.Duration
	seen   map[int]time.Time
	now    func() time.Time
}

// NewSeenUpdates constructs a SeenUpdates. A non-positive window uses
// DefaultWindow.
func NewSeenUpdates(window time.Duration) *SeenUpdates {
	if window <= 0 {
		window = DefaultWindow
	}
	return &SeenUpdates{
		window: window,
		seen:   make(map[int]time.Time),
		now:    time.Now,
	}
}

// Claim records id and reports whether it was new. Expired entries are pruned
// on the way.
func (s *SeenUpdates) Claim(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, at := range s.seen {
		if now.Sub(at) >= s.window {
			delete(s.seen, k)
		}
	}
	if _, ok := s.seen[id]; ok {
		return false
	}
	s.seen[id] = now
	return true
}

// Release forgets id so a later delivery can be claimed again.
func (s *SeenUpdates) Release(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.seen, id)
}

// Len reports how many ids are currently remembered.
func (s *SeenUpdates) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}
