package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dodopoint/concierge/internal/domain"
)

type TransactionRepo struct {
	pool *pgxpool.Pool
}

func NewTransactionRepo(pool *pgxpool.Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

func (r *TransactionRepo) Create(ctx context.Context, t *domain.Transaction) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO transactions (transaction_id, user_id, amount, type, reason, category, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		t.TransactionID, t.UserID, t.Amount, t.Type, t.Reason, t.Category, t.Status, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("transactionRepo.Create: %w", err)
	}

	return nil
}

func (r *TransactionRepo) GetByID(ctx context.Context, userID, transactionID string) (*domain.Transaction, error) {
	var t domain.Transaction

	err := r.pool.QueryRow(ctx,
		`SELECT transaction_id, user_id, amount, type, reason, category, status, created_at
		 FROM transactions WHERE user_id = $1 AND transaction_id = $2`,
		userID, transactionID,
	).Scan(&t.TransactionID, &t.UserID, &t.Amount, &t.Type, &t.Reason, &t.Category, &t.Status, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("transactionRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("transactionRepo.GetByID: %w", err)
	}

	return &t, nil
}

func (r *TransactionRepo) List(ctx context.Context, userID string, f domain.TransactionFilter) ([]*domain.Transaction, error) {
	query, args := filterQuery(
		`SELECT transaction_id, user_id, amount, type, reason, category, status, created_at
		 FROM transactions`, userID, f, true)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("transactionRepo.List: %w", err)
	}
	defer rows.Close()

	var out []*domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		if err := rows.Scan(&t.TransactionID, &t.UserID, &t.Amount, &t.Type, &t.Reason, &t.Category, &t.Status, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("transactionRepo.List: scan: %w", err)
		}
		out = append(out, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("transactionRepo.List: rows: %w", err)
	}

	return out, nil
}

func (r *TransactionRepo) Count(ctx context.Context, userID string, f domain.TransactionFilter) (int64, error) {
	f.Limit = 0
	f.Offset = 0
	query, args := filterQuery(`SELECT COUNT(*) FROM transactions`, userID, f, false)

	var n int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("transactionRepo.Count: %w", err)
	}
	return n, nil
}

func (r *TransactionRepo) Summary(ctx context.Context, userID string) (*domain.TransactionSummary, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT type, COALESCE(SUM(amount), 0), COUNT(*)
		 FROM transactions WHERE user_id = $1
		 GROUP BY type`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("transactionRepo.Summary: %w", err)
	}
	defer rows.Close()

	var s domain.TransactionSummary
	for rows.Next() {
		var (
			txType domain.TransactionType
			total  float64
			count  int64
		)
		if err := rows.Scan(&txType, &total, &count); err != nil {
			return nil, fmt.Errorf("transactionRepo.Summary: scan: %w", err)
		}
		if txType == domain.TransactionCredit {
			s.TotalCredits = total
			s.CreditCount = count
		} else {
			s.TotalDebits = total
			s.DebitCount = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("transactionRepo.Summary: rows: %w", err)
	}

	s.NetBalance = s.TotalCredits - s.TotalDebits
	return &s, nil
}

// filterQuery builds the WHERE/ORDER/LIMIT tail shared by List and Count.
func filterQuery(base, userID string, f domain.TransactionFilter, ordered bool) (string, []any) {
	query := base + ` WHERE user_id = $1`
	args := []any{userID}

	if f.Type != "" {
		args = append(args, f.Type)
		query += fmt.Sprintf(` AND type = $%d`, len(args))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		query += fmt.Sprintf(` AND category = $%d`, len(args))
	}

	if ordered {
		query += ` ORDER BY created_at DESC`
	}
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	return query, args
}
