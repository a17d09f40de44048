package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dodopoint/concierge/internal/domain"
)

type WalletRepo struct {
	pool *pgxpool.Pool
}

func NewWalletRepo(pool *pgxpool.Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

func (r *WalletRepo) GetByUser(ctx context.Context, userID string) (*domain.Wallet, error) {
	var (
		w       domain.Wallet
		history []byte
	)

	err := r.pool.QueryRow(ctx,
		`SELECT user_id, balance, dodo_points, history, created_at, updated_at
		 FROM wallets WHERE user_id = $1`,
		userID,
	).Scan(&w.UserID, &w.Balance, &w.DodoPoints, &history, &w.CreatedAt, &w.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("walletRepo.GetByUser: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("walletRepo.GetByUser: %w", err)
	}

	if err := json.Unmarshal(history, &w.History); err != nil {
		return nil, fmt.Errorf("walletRepo.GetByUser: unmarshal history: %w", err)
	}

	return &w, nil
}

func (r *WalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	history, err := json.Marshal(w.History)
	if err != nil {
		return fmt.Errorf("walletRepo.Create: marshal history: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO wallets (user_id, balance, dodo_points, history, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		w.UserID, w.Balance, w.DodoPoints, history, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("walletRepo.Create: %w", err)
	}

	return nil
}

// Save persists balance, points, and history in one UPDATE so a partial
// mutation can never be observed. The updated_at guard rejects lost
// updates: when the stored row changed since this wallet was loaded, the
// save fails with ErrConflict and the caller re-fetches.
func (r *WalletRepo) Save(ctx context.Context, w *domain.Wallet) error {
	history, err := json.Marshal(w.History)
	if err != nil {
		return fmt.Errorf("walletRepo.Save: marshal history: %w", err)
	}

	now := time.Now()

	tag, err := r.pool.Exec(ctx,
		`UPDATE wallets
		 SET balance = $2, dodo_points = $3, history = $4, updated_at = $5
		 WHERE user_id = $1 AND updated_at = $6`,
		w.UserID, w.Balance, w.DodoPoints, history, now, w.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("walletRepo.Save: %w", err)
	}

	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM wallets WHERE user_id = $1)`, w.UserID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("walletRepo.Save: %w", err)
		}
		if !exists {
			return fmt.Errorf("walletRepo.Save: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("walletRepo.Save: %w", domain.ErrConflict)
	}

	w.UpdatedAt = now
	return nil
}
