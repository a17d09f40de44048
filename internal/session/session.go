// Package session holds short-lived per-conversation state for the AI
// concierge: the rolling message history and a lookup key for the user's
// wallet. Sessions are ephemeral; the durable wallet store is always
// authoritative for balances.
package session

import (
	"context"
	"sync"
	"time"
)

// MaxHistory caps the number of messages retained per session. Older
// messages are dropped from the front.
const MaxHistory = 10

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is per-conversation state. WalletUserID is a lookup key, not an
// owned copy: wallet mutations go through the wallet repository.
type Session struct {
	ID           string    `json:"id"`
	WalletUserID string    `json:"wallet_user_id"`
	History      []Message `json:"history"`
	CreatedAt    time.Time `json:"created_at"`

	mu sync.Mutex
}

// append adds a message, enforcing MaxHistory. Callers must hold the
// session's lock via the owning store.
func (s *Session) append(role Role, content string) {
	s.History = append(s.History, Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	})
	if len(s.History) > MaxHistory {
		s.History = s.History[len(s.History)-MaxHistory:]
	}
}

// Snapshot returns a copy of the message history in arrival order.
func (s *Session) Snapshot() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Message, len(s.History))
	copy(out, s.History)
	return out
}

// Store manages conversation sessions. Implementations serialize mutations
// per session id so concurrent requests for the same conversation cannot
// lose appends.
type Store interface {
	// GetOrCreate returns the session for the id, creating it when absent.
	// An empty id gets a generated one.
	GetOrCreate(ctx context.Context, sessionID, walletUserID string) (*Session, error)
	// AppendMessage records a message, dropping the oldest entry beyond
	// MaxHistory.
	AppendMessage(ctx context.Context, s *Session, role Role, content string) error
	// Clear deletes the session. Returns false when the id is unknown.
	Clear(ctx context.Context, sessionID string) (bool, error)
}
