package domain

import (
	"context"
	"fmt"
	"time"
)

type HistoryType string

const (
	HistoryEarn     HistoryType = "EARN"
	HistoryRedeem   HistoryType = "REDEEM"
	HistoryDeposit  HistoryType = "DEPOSIT"
	HistoryPurchase HistoryType = "PURCHASE"
)

// PointsPerUnit is the redemption exchange rate: 10 DoDo points buy 1 unit
// of wallet currency.
const PointsPerUnit = 10

type HistoryEntry struct {
	Type        HistoryType
	Amount      float64
	Description string
	Date        time.Time
}

// Wallet is the durable per-user record of spendable balance and DoDo
// points. History is append-only: every balance or points mutation appends
// exactly one entry, and the whole record is persisted in a single Save.
type Wallet struct {
	UserID     string
	Balance    float64
	DodoPoints int
	History    []HistoryEntry
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewWallet creates a wallet with the demo starting balances.
func NewWallet(userID string, balance float64, points int) *Wallet {
	now := time.Now()
	return &Wallet{
		UserID:     userID,
		Balance:    balance,
		DodoPoints: points,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Redeem exchanges points for balance at PointsPerUnit. Returns
// ErrInsufficientPoints without mutating when the wallet holds fewer
// points than requested.
func (w *Wallet) Redeem(points int, description string) error {
	if points <= 0 {
		return fmt.Errorf("wallet.Redeem: points must be positive, got %d", points)
	}
	if w.DodoPoints < points {
		return ErrInsufficientPoints
	}

	w.DodoPoints -= points
	w.Balance += float64(points) / PointsPerUnit
	w.appendHistory(HistoryRedeem, float64(points), description)
	return nil
}

// EarnPoints adds reward points.
func (w *Wallet) EarnPoints(points int, description string) error {
	if points <= 0 {
		return fmt.Errorf("wallet.EarnPoints: points must be positive, got %d", points)
	}

	w.DodoPoints += points
	w.appendHistory(HistoryEarn, float64(points), description)
	return nil
}

// Deposit adds spendable balance.
func (w *Wallet) Deposit(amount float64, description string) error {
	if amount <= 0 {
		return fmt.Errorf("wallet.Deposit: amount must be positive, got %v", amount)
	}

	w.Balance += amount
	w.appendHistory(HistoryDeposit, amount, description)
	return nil
}

// Purchase deducts balance. Returns ErrInsufficientFunds without mutating
// when balance would go negative.
func (w *Wallet) Purchase(amount float64, description string) error {
	if amount <= 0 {
		return fmt.Errorf("wallet.Purchase: amount must be positive, got %v", amount)
	}
	if w.Balance < amount {
		return ErrInsufficientFunds
	}

	w.Balance -= amount
	w.appendHistory(HistoryPurchase, amount, description)
	return nil
}

func (w *Wallet) appendHistory(t HistoryType, amount float64, description string) {
	w.History = append(w.History, HistoryEntry{
		Type:        t,
		Amount:      amount,
		Description: description,
		Date:        time.Now(),
	})
}

// RecentHistory returns up to n entries, newest first.
func (w *Wallet) RecentHistory(n int) []HistoryEntry {
	if n <= 0 || len(w.History) == 0 {
		return nil
	}
	if n > len(w.History) {
		n = len(w.History)
	}

	out := make([]HistoryEntry, 0, n)
	for i := len(w.History) - 1; i >= len(w.History)-n; i-- {
		out = append(out, w.History[i])
	}
	return out
}

type WalletRepository interface {
	// GetByUser returns ErrNotFound when no wallet exists for the user.
	GetByUser(ctx context.Context, userID string) (*Wallet, error)
	Create(ctx context.Context, w *Wallet) error
	// Save persists balance, points, and history atomically. Returns
	// ErrConflict when the stored record changed since it was loaded.
	Save(ctx context.Context, w *Wallet) error
}
