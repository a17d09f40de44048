package postgres

import (
	"context"
	"fmt"
)

// schema bootstraps the concierge tables. The audit_log trigger enforces the
// append-only contract at the storage layer: UPDATE and DELETE on sealed
// entries fail regardless of which code path attempts them.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS wallets (
		user_id     TEXT PRIMARY KEY,
		balance     DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (balance >= 0),
		dodo_points INTEGER NOT NULL DEFAULT 0 CHECK (dodo_points >= 0),
		history     JSONB NOT NULL DEFAULT '[]',
		created_at  TIMESTAMPTZ NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS transactions (
		transaction_id TEXT PRIMARY KEY,
		user_id        TEXT NOT NULL,
		amount         DOUBLE PRECISION NOT NULL,
		type           TEXT NOT NULL,
		reason         TEXT NOT NULL,
		category       TEXT NOT NULL,
		status         TEXT NOT NULL,
		created_at     TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_user_created
		ON transactions (user_id, created_at DESC)`,

	`CREATE TABLE IF NOT EXISTS audit_log (
		log_id          TEXT PRIMARY KEY,
		user_id         TEXT NOT NULL,
		action          TEXT NOT NULL,
		category        TEXT NOT NULL,
		description     TEXT NOT NULL,
		details         JSONB,
		proof_source    TEXT,
		proof_reference TEXT,
		proof_timestamp TIMESTAMPTZ,
		proof_checksum  TEXT NOT NULL,
		ai_explanation  JSONB,
		ts              TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_log_user_ts
		ON audit_log (user_id, ts DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_log_action_ts
		ON audit_log (action, ts DESC)`,

	`CREATE OR REPLACE FUNCTION audit_log_immutable() RETURNS trigger AS $$
	BEGIN
		RAISE EXCEPTION 'audit log entries are immutable';
	END;
	$$ LANGUAGE plpgsql`,
	`DROP TRIGGER IF EXISTS audit_log_no_rewrite ON audit_log`,
	`CREATE TRIGGER audit_log_no_rewrite
		BEFORE UPDATE OR DELETE ON audit_log
		FOR EACH ROW EXECUTE FUNCTION audit_log_immutable()`,
}

// Migrate applies the schema. Safe to run on every startup.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres.Migrate: %w", err)
		}
	}
	return nil
}
