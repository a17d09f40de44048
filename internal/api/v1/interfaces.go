package v1

import (
	"context"

	"github.com/dodopoint/concierge/internal/concierge"
	"github.com/dodopoint/concierge/internal/domain"
)

// DataStore abstracts the repository accessor pattern for handler testing.
// *postgres.Store satisfies this interface.
type DataStore interface {
	Wallets() domain.WalletRepository
	Transactions() domain.TransactionRepository
	Audit() domain.AuditRepository
}

// ChatService abstracts the conversational concierge for handler testing.
// *concierge.Service satisfies this interface.
type ChatService interface {
	Chat(ctx context.Context, userID, sessionID, message string) (*concierge.ChatResult, error)
	ClearSession(ctx context.Context, sessionID string) (bool, error)
	Wallet(ctx context.Context, userID string) (*domain.Wallet, error)
	ExplainCharge(ctx context.Context, userID, transactionID, question string) (*concierge.Explanation, error)
}
