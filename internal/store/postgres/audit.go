package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dodopoint/concierge/internal/domain"
)

type AuditRepo struct {
	pool *pgxpool.Pool
}

func NewAuditRepo(pool *pgxpool.Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

const auditColumns = `log_id, user_id, action, category, description, details,
	 proof_source, proof_reference, proof_timestamp, proof_checksum, ai_explanation, ts`

func (r *AuditRepo) Append(ctx context.Context, e *domain.AuditEntry) error {
	details, err := json.Marshal(e.Details)
	if err != nil {
		return fmt.Errorf("auditRepo.Append: marshal details: %w", err)
	}

	var explanation []byte
	if e.AIExplanation != nil {
		explanation, err = json.Marshal(e.AIExplanation)
		if err != nil {
			return fmt.Errorf("auditRepo.Append: marshal explanation: %w", err)
		}
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO audit_log (`+auditColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		e.LogID, e.UserID, e.Action, e.Category, e.Description, details,
		e.Proof.Source, e.Proof.Reference, e.Proof.Timestamp, e.Proof.Checksum,
		explanation, e.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("auditRepo.Append: %w", auditErr(err))
	}

	return nil
}

func (r *AuditRepo) GetByID(ctx context.Context, userID, logID string) (*domain.AuditEntry, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+auditColumns+`
		 FROM audit_log WHERE user_id = $1 AND log_id = $2`,
		userID, logID,
	)

	e, err := scanAuditEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("auditRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("auditRepo.GetByID: %w", err)
	}

	return e, nil
}

func (r *AuditRepo) List(ctx context.Context, userID string, f domain.AuditFilter) ([]*domain.AuditEntry, error) {
	query, args := auditFilterQuery(
		`SELECT `+auditColumns+` FROM audit_log`, userID, f, true)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("auditRepo.List: %w", err)
	}
	defer rows.Close()

	var out []*domain.AuditEntry
	for rows.Next() {
		e, err := scanAuditEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("auditRepo.List: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("auditRepo.List: rows: %w", err)
	}

	return out, nil
}

func (r *AuditRepo) Count(ctx context.Context, userID string, f domain.AuditFilter) (int64, error) {
	f.Limit = 0
	f.Offset = 0
	query, args := auditFilterQuery(`SELECT COUNT(*) FROM audit_log`, userID, f, false)

	var n int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("auditRepo.Count: %w", err)
	}
	return n, nil
}

func (r *AuditRepo) Stats(ctx context.Context, userID string) (*domain.AuditStats, error) {
	stats := &domain.AuditStats{ByCategory: make(map[domain.AuditCategory]int64)}

	rows, err := r.pool.Query(ctx,
		`SELECT category, COUNT(*)
		 FROM audit_log WHERE user_id = $1
		 GROUP BY category`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("auditRepo.Stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			category domain.AuditCategory
			count    int64
		)
		if err := rows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("auditRepo.Stats: scan: %w", err)
		}
		stats.ByCategory[category] = count
		stats.TotalLogs += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("auditRepo.Stats: rows: %w", err)
	}

	recent, err := r.List(ctx, userID, domain.AuditFilter{Limit: 5})
	if err != nil {
		return nil, fmt.Errorf("auditRepo.Stats: %w", err)
	}
	stats.RecentActivity = recent

	return stats, nil
}

func scanAuditEntry(row pgx.Row) (*domain.AuditEntry, error) {
	var (
		e           domain.AuditEntry
		details     []byte
		explanation []byte
	)

	err := row.Scan(
		&e.LogID, &e.UserID, &e.Action, &e.Category, &e.Description, &details,
		&e.Proof.Source, &e.Proof.Reference, &e.Proof.Timestamp, &e.Proof.Checksum,
		&explanation, &e.Timestamp,
	)
	if err != nil {
		return nil, err
	}

	if len(details) > 0 {
		if err := json.Unmarshal(details, &e.Details); err != nil {
			return nil, fmt.Errorf("unmarshal details: %w", err)
		}
	}
	if len(explanation) > 0 {
		e.AIExplanation = &domain.AIExplanation{}
		if err := json.Unmarshal(explanation, e.AIExplanation); err != nil {
			return nil, fmt.Errorf("unmarshal explanation: %w", err)
		}
	}

	return &e, nil
}

func auditFilterQuery(base, userID string, f domain.AuditFilter, ordered bool) (string, []any) {
	query := base + ` WHERE user_id = $1`
	args := []any{userID}

	if f.Category != "" {
		args = append(args, f.Category)
		query += fmt.Sprintf(` AND category = $%d`, len(args))
	}
	if f.Action != "" {
		args = append(args, f.Action)
		query += fmt.Sprintf(` AND action = $%d`, len(args))
	}

	if ordered {
		query += ` ORDER BY ts DESC`
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

// auditErr maps the append-only trigger's raise into the domain sentinel so
// callers see domain.ErrImmutable instead of a raw SQLSTATE.
func auditErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "P0001" {
		return domain.ErrImmutable
	}
	return err
}
