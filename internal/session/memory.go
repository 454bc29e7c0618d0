package session

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore is an in-process TTL store. Entries expire automatically so an
// abandoned round-1 session cannot leak memory when the client never sends
// round 2 or closes the connection.
type MemoryStore struct {
	cache *gocache.Cache
}

// NewMemoryStore creates a memory store with the given TTL. A non-positive
// TTL disables expiration.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	return &MemoryStore{
		cache: gocache.New(ttl, 2*time.Minute),
	}
}

// Put stores a snapshot.
func (s *MemoryStore) Put(key string, snap *Snapshot) error {
	s.cache.Set(key, snap, gocache.DefaultExpiration)
	return nil
}

// Get retrieves a snapshot. The second return is false on a miss.
func (s *MemoryStore) Get(key string) (*Snapshot, bool) {
	v, ok := s.cache.Get(key)
	if !ok {
		return nil, false
	}
	snap, ok := v.(*Snapshot)
	return snap, ok
}

// Clear removes a session.
func (s *MemoryStore) Clear(key string) {
	s.cache.Delete(key)
}

// Len reports the number of live sessions, expired entries included until
// the next janitor sweep.
func (s *MemoryStore) Len() int {
	return s.cache.ItemCount()
}
