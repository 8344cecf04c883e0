// Package cache provides time-bounded in-memory memoization for query results.
// Two store instances back the application: a short-lived one for screening
// results and a day-scale one for per-stock holding lookups.
package cache

import (
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
)

type entry struct {
	value     interface{}
	createdAt time.Time
}

// Store is a TTL-bounded in-memory key/value cache safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

// NewStore creates a cache store with the given entry lifetime.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// SetClock overrides the store's clock. Intended for tests.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Get returns the cached value for key. Expired entries are misses.
func (s *Store) Get(key string) (interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if s.now().Sub(e.createdAt) >= s.ttl {
		return nil, false
	}
	return e.value, true
}

// Put stores a value under key, resetting its lifetime.
func (s *Store) Put(key string, value interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry{value: value, createdAt: s.now()}
}

// Purge removes expired entries and returns how many were dropped.
func (s *Store) Purge() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	dropped := 0
	now := s.now()
	for key, e := range s.entries {
		if now.Sub(e.createdAt) >= s.ttl {
			delete(s.entries, key)
			dropped++
		}
	}
	return dropped
}

// Len returns the number of entries currently held, expired or not.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// StartJanitor schedules periodic Purge sweeps over the given stores.
// The returned cron runner should be stopped on shutdown.
func StartJanitor(schedule string, logger arbor.ILogger, stores ...*Store) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		dropped := 0
		for _, s := range stores {
			dropped += s.Purge()
		}
		if dropped > 0 && logger != nil {
			logger.Debug().
				Int("dropped", dropped).
				Msg("Purged expired cache entries")
		}
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}
