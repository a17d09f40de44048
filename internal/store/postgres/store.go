package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dodopoint/concierge/internal/domain"
)

type Store struct {
	pool         *pgxpool.Pool
	wallets      *WalletRepo
	transactions *TransactionRepo
	audit        *AuditRepo
}

func New(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: parse config: %w", err)
	}

	cfg.MaxConns = maxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: connect: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	return &Store{
		pool:         pool,
		wallets:      NewWalletRepo(pool),
		transactions: NewTransactionRepo(pool),
		audit:        NewAuditRepo(pool),
	}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Wallets() domain.WalletRepository           { return s.wallets }
func (s *Store) Transactions() domain.TransactionRepository { return s.transactions }
func (s *Store) Audit() domain.AuditRepository              { return s.audit }
