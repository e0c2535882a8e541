package memory

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// SessionLocks serializes chat requests per session key. The lock is held
// from the history read through the turn append, so two requests for the
// same session can never interleave their histories. Requests for
// different sessions proceed fully in parallel.
type SessionLocks struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
	// lastSeen drives eviction of locks for idle sessions.
	lastSeen *cache.Cache
}

type lockEntry struct {
	mu sync.Mutex
	// refs counts waiters so an entry is never evicted while held.
	refs int
}

func NewSessionLocks() *SessionLocks {
	return &SessionLocks{
		locks:    make(map[string]*lockEntry),
		lastSeen: cache.New(1*time.Hour, 10*time.Minute),
	}
}

// Acquire blocks until the caller holds the lock for key and returns the
// release function.
func (s *SessionLocks) Acquire(key string) func() {
	s.mu.Lock()
	entry, ok := s.locks[key]
	if !ok {
		entry = &lockEntry{}
		s.locks[key] = entry
	}
	entry.refs++
	s.mu.Unlock()

	entry.mu.Lock()
	s.lastSeen.Set(key, time.Now(), cache.DefaultExpiration)

	var once sync.Once
	return func() {
		once.Do(func() {
			entry.mu.Unlock()
			s.mu.Lock()
			entry.refs--
			if entry.refs == 0 {
				delete(s.locks, key)
			}
			s.mu.Unlock()
		})
	}
}

// Forget drops bookkeeping for a deleted session. Safe to call while no
// request holds the lock.
func (s *SessionLocks) Forget(key string) {
	s.mu.Lock()
	if entry, ok := s.locks[key]; ok && entry.refs == 0 {
		delete(s.locks, key)
	}
	s.mu.Unlock()
	s.lastSeen.Delete(key)
}
