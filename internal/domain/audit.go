package domain

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"
)

type AuditAction string

const (
	ActionWalletCreated      AuditAction = "WALLET_CREATED"
	ActionFundsAdded         AuditAction = "FUNDS_ADDED"
	ActionFundsWithdrawn     AuditAction = "FUNDS_WITHDRAWN"
	ActionPointsEarned       AuditAction = "POINTS_EARNED"
	ActionPointsRedeemed     AuditAction = "POINTS_REDEEMED"
	ActionTransactionCreated AuditAction = "TRANSACTION_CREATED"
	ActionChargeApplied      AuditAction = "CHARGE_APPLIED"
	ActionRefundIssued       AuditAction = "REFUND_ISSUED"
	ActionAIQuery            AuditAction = "AI_QUERY"
	ActionLogin              AuditAction = "LOGIN"
	ActionSettingsChanged    AuditAction = "SETTINGS_CHANGED"
	ActionOther              AuditAction = "OTHER"
)

type AuditCategory string

const (
	AuditFinancial AuditCategory = "financial"
	AuditAccount   AuditCategory = "account"
	AuditSecurity  AuditCategory = "security"
	AuditAI        AuditCategory = "ai"
	AuditSystem    AuditCategory = "system"
)

// AuditProof carries tamper evidence for an entry: where the action came
// from, what it references, and a checksum over the core fields.
type AuditProof struct {
	Source    string // "system", "user_request", "scheduled_job"
	Reference string
	Timestamp time.Time
	Checksum  string
}

// AIExplanation is populated when a user asks the concierge to explain an
// entry after the fact.
type AIExplanation struct {
	Summary     string
	Detailed    string
	GeneratedAt time.Time
}

// AuditEntry is an immutable record of a system or user action. Entries are
// append-only: the repository exposes no update or delete path, and the
// storage layer rejects attempts to modify a stored row.
type AuditEntry struct {
	LogID         string
	UserID        string
	Action        AuditAction
	Category      AuditCategory
	Description   string
	Details       map[string]any
	Proof         AuditProof
	AIExplanation *AIExplanation
	Timestamp     time.Time
}

// NewAuditEntry builds a sealed entry with a generated id of the form
// LOG-<epoch-ms>-<8 upper hex chars>.
func NewAuditEntry(userID string, action AuditAction, category AuditCategory, description string) *AuditEntry {
	if category == "" {
		category = AuditSystem
	}
	now := time.Now()
	e := &AuditEntry{
		LogID:       newReference("LOG", now, 8),
		UserID:      userID,
		Action:      action,
		Category:    category,
		Description: description,
		Timestamp:   now,
	}
	e.Seal()
	return e
}

// Seal stamps the proof timestamp and computes the integrity checksum over
// the core fields. The checksum is deterministic for identical inputs.
func (e *AuditEntry) Seal() {
	e.Proof.Timestamp = time.Now()
	e.Proof.Checksum = Checksum(e.UserID, e.Action, e.Description, e.Timestamp)
}

// Verify recomputes the checksum and reports whether the entry still
// matches its proof.
func (e *AuditEntry) Verify() bool {
	return e.Proof.Checksum == Checksum(e.UserID, e.Action, e.Description, e.Timestamp)
}

// Checksum derives the tamper-evidence string for an entry's core fields.
func Checksum(userID string, action AuditAction, description string, ts time.Time) string {
	data := fmt.Sprintf("%s-%s-%s-%s", userID, action, description, ts.UTC().Format(time.RFC3339Nano))
	return base64.StdEncoding.EncodeToString([]byte(data))
}

type AuditFilter struct {
	Category AuditCategory
	Action   AuditAction
	Limit    int
	Offset   int
}

type AuditStats struct {
	TotalLogs      int64
	ByCategory     map[AuditCategory]int64
	RecentActivity []*AuditEntry
}

// AuditRepository is append-only by contract: there is no update or delete.
type AuditRepository interface {
	Append(ctx context.Context, e *AuditEntry) error
	// GetByID returns ErrNotFound for an unknown log id.
	GetByID(ctx context.Context, userID, logID string) (*AuditEntry, error)
	List(ctx context.Context, userID string, f AuditFilter) ([]*AuditEntry, error)
	Count(ctx context.Context, userID string, f AuditFilter) (int64, error)
	Stats(ctx context.Context, userID string) (*AuditStats, error)
}
