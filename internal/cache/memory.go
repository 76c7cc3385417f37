package cache

import (
	"context"
	"sync"
	"time"
)

const (
	// memorySweepEvery is how often Set drops expired entries.
	memorySweepEvery = time.Minute
	// memoryMaxEntries bounds the store between sweeps.
	memoryMaxEntries = 10000
)

type memoryEntry struct {
	value   []byte
	expires time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expires.IsZero() && !now.Before(e.expires)
}

// MemoryStore is a process-local Store. Expired entries are dropped on read
// and by a sweep that Set runs at most once per memorySweepEvery, or sooner
// when the store is full. A full store with nothing expired evicts an
// arbitrary entry.
type MemoryStore struct {
	mu         sync.Mutex
	entries    map[string]memoryEntry
	now        func() time.Time
	maxEntries int
	nextSweep  time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries:    make(map[string]memoryEntry),
		now:        time.Now,
		maxEntries: memoryMaxEntries,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	if e.expired(s.now()) {
		delete(s.entries, key)
		return nil, false, nil
	}
	return e.value, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	_, exists := s.entries[key]
	full := !exists && len(s.entries) >= s.maxEntries
	if full || !now.Before(s.nextSweep) {
		s.sweep(now)
	}
	if !exists && len(s.entries) >= s.maxEntries {
		for k := range s.entries {
			delete(s.entries, k)
			break
		}
	}

	e := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expires = now.Add(ttl)
	}
	s.entries[key] = e
	return nil
}

// sweep drops expired entries. The caller holds mu.
func (s *MemoryStore) sweep(now time.Time) {
	for k, e := range s.entries {
		if e.expired(now) {
			delete(s.entries, k)
		}
	}
	s.nextSweep = now.Add(memorySweepEvery)
}

func (s *MemoryStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]memoryEntry)
	return nil
}
