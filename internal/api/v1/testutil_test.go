package v1_test

import (
	"context"

	"github.com/dodopoint/concierge/internal/concierge"
	"github.com/dodopoint/concierge/internal/domain"
	"github.com/dodopoint/concierge/internal/server/middleware"
)

// ---------------------------------------------------------------------------
// Context helpers: inject the acting user into context for the Ctx variants
// ---------------------------------------------------------------------------

func userCtx(userID string) context.Context {
	return context.WithValue(context.Background(), middleware.ContextKeyUserID, userID)
}

// ---------------------------------------------------------------------------
// Mock DataStore
// ---------------------------------------------------------------------------

type mockDataStore struct {
	wallets      domain.WalletRepository
	transactions domain.TransactionRepository
	audit        domain.AuditRepository
}

func (m *mockDataStore) Wallets() domain.WalletRepository           { return m.wallets }
func (m *mockDataStore) Transactions() domain.TransactionRepository { return m.transactions }
func (m *mockDataStore) Audit() domain.AuditRepository              { return m.audit }

// ---------------------------------------------------------------------------
// Mock WalletRepository
// ---------------------------------------------------------------------------

type mockWalletRepo struct {
	getByUserFunc func(ctx context.Context, userID string) (*domain.Wallet, error)
	createFunc    func(ctx context.Context, w *domain.Wallet) error
	saveFunc      func(ctx context.Context, w *domain.Wallet) error
}

func (m *mockWalletRepo) GetByUser(ctx context.Context, userID string) (*domain.Wallet, error) {
	return m.getByUserFunc(ctx, userID)
}

func (m *mockWalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	return m.createFunc(ctx, w)
}

func (m *mockWalletRepo) Save(ctx context.Context, w *domain.Wallet) error {
	return m.saveFunc(ctx, w)
}

// ---------------------------------------------------------------------------
// Mock TransactionRepository
// ---------------------------------------------------------------------------

type mockTransactionRepo struct {
	createFunc  func(ctx context.Context, t *domain.Transaction) error
	getByIDFunc func(ctx context.Context, userID, transactionID string) (*domain.Transaction, error)
	listFunc    func(ctx context.Context, userID string, f domain.TransactionFilter) ([]*domain.Transaction, error)
	countFunc   func(ctx context.Context, userID string, f domain.TransactionFilter) (int64, error)
	summaryFunc func(ctx context.Context, userID string) (*domain.TransactionSummary, error)
}

func (m *mockTransactionRepo) Create(ctx context.Context, t *domain.Transaction) error {
	return m.createFunc(ctx, t)
}

func (m *mockTransactionRepo) GetByID(ctx context.Context, userID, transactionID string) (*domain.Transaction, error) {
	return m.getByIDFunc(ctx, userID, transactionID)
}

func (m *mockTransactionRepo) List(ctx context.Context, userID string, f domain.TransactionFilter) ([]*domain.Transaction, error) {
	return m.listFunc(ctx, userID, f)
}

func (m *mockTransactionRepo) Count(ctx context.Context, userID string, f domain.TransactionFilter) (int64, error) {
	return m.countFunc(ctx, userID, f)
}

func (m *mockTransactionRepo) Summary(ctx context.Context, userID string) (*domain.TransactionSummary, error) {
	return m.summaryFunc(ctx, userID)
}

// ---------------------------------------------------------------------------
// Mock AuditRepository
// ---------------------------------------------------------------------------

type mockAuditRepo struct {
	appendFunc  func(ctx context.Context, e *domain.AuditEntry) error
	getByIDFunc func(ctx context.Context, userID, logID string) (*domain.AuditEntry, error)
	listFunc    func(ctx context.Context, userID string, f domain.AuditFilter) ([]*domain.AuditEntry, error)
	countFunc   func(ctx context.Context, userID string, f domain.AuditFilter) (int64, error)
	statsFunc   func(ctx context.Context, userID string) (*domain.AuditStats, error)
}

func (m *mockAuditRepo) Append(ctx context.Context, e *domain.AuditEntry) error {
	if m.appendFunc == nil {
		return nil
	}
	return m.appendFunc(ctx, e)
}

func (m *mockAuditRepo) GetByID(ctx context.Context, userID, logID string) (*domain.AuditEntry, error) {
	return m.getByIDFunc(ctx, userID, logID)
}

func (m *mockAuditRepo) List(ctx context.Context, userID string, f domain.AuditFilter) ([]*domain.AuditEntry, error) {
	return m.listFunc(ctx, userID, f)
}

func (m *mockAuditRepo) Count(ctx context.Context, userID string, f domain.AuditFilter) (int64, error) {
	return m.countFunc(ctx, userID, f)
}

func (m *mockAuditRepo) Stats(ctx context.Context, userID string) (*domain.AuditStats, error) {
	return m.statsFunc(ctx, userID)
}

// ---------------------------------------------------------------------------
// Mock ChatService
// ---------------------------------------------------------------------------

type mockChatService struct {
	chatFunc          func(ctx context.Context, userID, sessionID, message string) (*concierge.ChatResult, error)
	clearSessionFunc  func(ctx context.Context, sessionID string) (bool, error)
	walletFunc        func(ctx context.Context, userID string) (*domain.Wallet, error)
	explainChargeFunc func(ctx context.Context, userID, transactionID, question string) (*concierge.Explanation, error)
}

func (m *mockChatService) Chat(ctx context.Context, userID, sessionID, message string) (*concierge.ChatResult, error) {
	return m.chatFunc(ctx, userID, sessionID, message)
}

func (m *mockChatService) ClearSession(ctx context.Context, sessionID string) (bool, error) {
	return m.clearSessionFunc(ctx, sessionID)
}

func (m *mockChatService) Wallet(ctx context.Context, userID string) (*domain.Wallet, error) {
	return m.walletFunc(ctx, userID)
}

func (m *mockChatService) ExplainCharge(ctx context.Context, userID, transactionID, question string) (*concierge.Explanation, error) {
	return m.explainChargeFunc(ctx, userID, transactionID, question)
}
