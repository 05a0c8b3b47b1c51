package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	json "github.com/goccy/go-json"
)

type memoryEntry struct {
	raw       []byte
	expiresAt time.Time
}

// MemoryStore is the single-process fallback used when no Redis address is configured.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{ttl: ttl, entries: make(map[string]memoryEntry), now: time.Now}
}

func (s *MemoryStore) Load(_ context.Context, sessionID, key string, dst any) (bool, error) {
	if !ValidID(sessionID) {
		return false, ErrInvalidSessionID
	}
	s.mu.Lock()
	e, ok := s.entries[storageKey(sessionID, key)]
	if ok && s.now().After(e.expiresAt) {
		delete(s.entries, storageKey(sessionID, key))
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(e.raw, dst); err != nil {
		return false, fmt.Errorf("session: decode %s: %w", key, err)
	}
	return true, nil
}

func (s *MemoryStore) Save(_ context.Context, sessionID, key string, value any) error {
	if !ValidID(sessionID) {
		return ErrInvalidSessionID
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("session: encode %s: %w", key, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictExpired()
	s.entries[storageKey(sessionID, key)] = memoryEntry{raw: raw, expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID, key string) error {
	if !ValidID(sessionID) {
		return ErrInvalidSessionID
	}
	s.mu.Lock()
	delete(s.entries, storageKey(sessionID, key))
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Claim(_ context.Context, sessionID, key string, ttl time.Duration) (bool, error) {
	if !ValidID(sessionID) {
		return false, ErrInvalidSessionID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	k := storageKey(sessionID, key)
	if e, ok := s.entries[k]; ok && !s.now().After(e.expiresAt) {
		return false, nil
	}
	s.entries[k] = memoryEntry{raw: []byte("1"), expiresAt: s.now().Add(ttl)}
	return true, nil
}

// evictExpired keeps the map bounded; caller holds mu.
func (s *MemoryStore) evictExpired() {
	if len(s.entries) < 10000 {
		return
	}
	now := s.now()
	for k, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, k)
		}
	}
}
