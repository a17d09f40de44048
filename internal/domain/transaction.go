package domain

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

type TransactionType string

const (
	TransactionCredit TransactionType = "credit"
	TransactionDebit  TransactionType = "debit"
)

func (t TransactionType) Valid() bool {
	return t == TransactionCredit || t == TransactionDebit
}

type TransactionCategory string

const (
	CategoryDeposit        TransactionCategory = "deposit"
	CategoryWithdrawal     TransactionCategory = "withdrawal"
	CategoryPurchase       TransactionCategory = "purchase"
	CategoryRefund         TransactionCategory = "refund"
	CategoryPointsEarned   TransactionCategory = "points_earned"
	CategoryPointsRedeemed TransactionCategory = "points_redeemed"
	CategoryOther          TransactionCategory = "other"
)

type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionCompleted TransactionStatus = "completed"
	TransactionFailed    TransactionStatus = "failed"
)

type Transaction struct {
	TransactionID string
	UserID        string
	Amount        float64 // always stored as an absolute value
	Type          TransactionType
	Reason        string
	Category      TransactionCategory
	Status        TransactionStatus
	CreatedAt     time.Time
}

// NewTransaction builds a completed transaction with a generated id of the
// form TXN-<epoch-ms>-<6 upper hex chars>.
func NewTransaction(userID string, amount float64, t TransactionType, reason string, category TransactionCategory) *Transaction {
	if category == "" {
		category = CategoryOther
	}
	now := time.Now()
	return &Transaction{
		TransactionID: newReference("TXN", now, 6),
		UserID:        userID,
		Amount:        math.Abs(amount),
		Type:          t,
		Reason:        reason,
		Category:      category,
		Status:        TransactionCompleted,
		CreatedAt:     now,
	}
}

// newReference generates ids like TXN-1718000000000-3FA2B1.
func newReference(prefix string, now time.Time, randLen int) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:randLen]
	return fmt.Sprintf("%s-%d-%s", prefix, now.UnixMilli(), suffix)
}

type TransactionFilter struct {
	Type     TransactionType
	Category TransactionCategory
	Limit    int
	Offset   int
}

type TransactionSummary struct {
	TotalCredits float64
	TotalDebits  float64
	CreditCount  int64
	DebitCount   int64
	NetBalance   float64
}

type TransactionRepository interface {
	Create(ctx context.Context, t *Transaction) error
	// GetByID returns ErrNotFound for an unknown transaction id.
	GetByID(ctx context.Context, userID, transactionID string) (*Transaction, error)
	List(ctx context.Context, userID string, f TransactionFilter) ([]*Transaction, error)
	Count(ctx context.Context, userID string, f TransactionFilter) (int64, error)
	Summary(ctx context.Context, userID string) (*TransactionSummary, error)
}
