package session

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryStore is the default single-instance backend: a bounded LRU with a
// TTL, so an abandoned conversation cannot grow the map forever.
type MemoryStore struct {
	cache *expirable.LRU[string, *Session]
}

// NewMemoryStore creates a store holding at most maxEntries sessions, each
// evicted ttl after its last write.
func NewMemoryStore(maxEntries int, ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		cache: expirable.NewLRU[string, *Session](maxEntries, nil, ttl),
	}
}

func (m *MemoryStore) GetOrCreate(_ context.Context, sessionID, walletUserID string) (*Session, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	if s, ok := m.cache.Get(sessionID); ok {
		return s, nil
	}

	s := &Session{
		ID:           sessionID,
		WalletUserID: walletUserID,
		CreatedAt:    time.Now(),
	}
	m.cache.Add(sessionID, s)
	return s, nil
}

func (m *MemoryStore) AppendMessage(_ context.Context, s *Session, role Role, content string) error {
	s.mu.Lock()
	s.append(role, content)
	s.mu.Unlock()

	// Re-add to refresh the entry's TTL and recency.
	m.cache.Add(s.ID, s)
	return nil
}

func (m *MemoryStore) Clear(_ context.Context, sessionID string) (bool, error) {
	return m.cache.Remove(sessionID), nil
}

// Len reports the number of live sessions.
func (m *MemoryStore) Len() int {
	return m.cache.Len()
}
