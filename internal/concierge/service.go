// Package concierge orchestrates one chat turn: session state, prompt
// composition, the model gateway, intent dispatch, and reconciliation of
// wallet mutations into the ledger and audit trail.
package concierge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dodopoint/concierge/internal/ai"
	"github.com/dodopoint/concierge/internal/domain"
	"github.com/dodopoint/concierge/internal/session"
)

// Demo wallet starting balances, matching the product's onboarding flow.
const (
	initialBalance = 1000
	initialPoints  = 50
)

// ErrEmptyMessage rejects a chat request whose message is empty after
// trimming. No side effects occur.
var ErrEmptyMessage = errors.New("concierge: message is required and must be a non-empty string")

type Service struct {
	sessions     session.Store
	wallets      domain.WalletRepository
	transactions domain.TransactionRepository
	audit        domain.AuditRepository
	model        ai.Generator
	dispatcher   *ai.Dispatcher
}

func NewService(
	sessions session.Store,
	wallets domain.WalletRepository,
	transactions domain.TransactionRepository,
	audit domain.AuditRepository,
	model ai.Generator,
	dispatcher *ai.Dispatcher,
) *Service {
	return &Service{
		sessions:     sessions,
		wallets:      wallets,
		transactions: transactions,
		audit:        audit,
		model:        model,
		dispatcher:   dispatcher,
	}
}

type ChatResult struct {
	Message   string
	Data      map[string]any
	SessionID string
	Timestamp int64 // epoch milliseconds
}

// Chat handles one conversation turn. The session history always records
// the final post-dispatch message, never raw model output, so later prompts
// reflect what the user actually saw.
func (s *Service) Chat(ctx context.Context, userID, sessionID, message string) (*ChatResult, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	// The durable store is authoritative: the wallet is re-fetched every
	// turn rather than cached on the session.
	wallet, err := s.ensureWallet(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("concierge.Chat: %w", err)
	}

	sess, err := s.sessions.GetOrCreate(ctx, sessionID, userID)
	if err != nil {
		return nil, fmt.Errorf("concierge.Chat: session: %w", err)
	}

	// History before this message goes into the prompt.
	history := sess.Snapshot()
	if err := s.sessions.AppendMessage(ctx, sess, session.RoleUser, message); err != nil {
		return nil, fmt.Errorf("concierge.Chat: append user message: %w", err)
	}

	prompt := ai.ComposePrompt(history, walletSnapshot(wallet), message)

	raw, err := s.model.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("concierge.Chat: %w", err)
	}

	// A disconnected caller must not abort an in-flight wallet mutation:
	// dispatch and reconciliation run detached from request cancellation.
	turnCtx := context.WithoutCancel(ctx)

	res, err := s.dispatcher.Dispatch(turnCtx, raw, wallet)
	if err != nil {
		return nil, fmt.Errorf("concierge.Chat: %w", err)
	}

	if res.Mutated {
		s.recordRedemption(turnCtx, wallet)
	}

	if err := s.sessions.AppendMessage(turnCtx, sess, session.RoleAssistant, res.Message); err != nil {
		return nil, fmt.Errorf("concierge.Chat: append reply: %w", err)
	}

	return &ChatResult{
		Message:   res.Message,
		Data:      res.Data,
		SessionID: sess.ID,
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

// ClearSession deletes conversation state. Returns false when the id is
// unknown.
func (s *Service) ClearSession(ctx context.Context, sessionID string) (bool, error) {
	ok, err := s.sessions.Clear(ctx, sessionID)
	if err != nil {
		return false, fmt.Errorf("concierge.ClearSession: %w", err)
	}
	return ok, nil
}

// Wallet returns the user's wallet, provisioning the demo wallet on first
// use.
func (s *Service) Wallet(ctx context.Context, userID string) (*domain.Wallet, error) {
	w, err := s.ensureWallet(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("concierge.Wallet: %w", err)
	}
	return w, nil
}

func (s *Service) ensureWallet(ctx context.Context, userID string) (*domain.Wallet, error) {
	wallet, err := s.wallets.GetByUser(ctx, userID)
	if err == nil {
		return wallet, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	wallet = domain.NewWallet(userID, initialBalance, initialPoints)
	if err := s.wallets.Create(ctx, wallet); err != nil {
		return nil, err
	}

	entry := domain.NewAuditEntry(userID, domain.ActionWalletCreated, domain.AuditAccount,
		fmt.Sprintf("Wallet created with balance $%.2f and %d DoDo Points", wallet.Balance, wallet.DodoPoints))
	s.appendAudit(ctx, entry)

	return wallet, nil
}

// recordRedemption reconciles a dispatched redeem into the transaction
// ledger and audit trail. Both writes are best-effort: a failure is logged
// and never rolls back the wallet save it describes.
func (s *Service) recordRedemption(ctx context.Context, wallet *domain.Wallet) {
	if len(wallet.History) == 0 {
		return
	}
	last := wallet.History[len(wallet.History)-1]
	if last.Type != domain.HistoryRedeem {
		return
	}

	points := int(last.Amount)
	credited := last.Amount / domain.PointsPerUnit

	tx := domain.NewTransaction(wallet.UserID, credited, domain.TransactionCredit,
		fmt.Sprintf("Redeemed %d DoDo Points", points), domain.CategoryPointsRedeemed)
	if err := s.transactions.Create(ctx, tx); err != nil {
		log.Error().Err(err).Str("user_id", wallet.UserID).Msg("failed to record redemption transaction")
	}

	entry := domain.NewAuditEntry(wallet.UserID, domain.ActionPointsRedeemed, domain.AuditFinancial,
		fmt.Sprintf("Redeemed %d DoDo Points for $%.2f", points, credited))
	entry.Details = map[string]any{
		"amount":        points,
		"credited":      credited,
		"new_balance":   wallet.Balance,
		"new_points":    wallet.DodoPoints,
		"transactionId": tx.TransactionID,
	}
	entry.Proof.Source = "system"
	entry.Proof.Reference = tx.TransactionID
	entry.Seal()
	s.appendAudit(ctx, entry)
}

func (s *Service) appendAudit(ctx context.Context, entry *domain.AuditEntry) {
	if err := s.audit.Append(ctx, entry); err != nil {
		log.Error().Err(err).
			Str("user_id", entry.UserID).
			Str("action", string(entry.Action)).
			Msg("failed to append audit entry")
	}
}

// walletSnapshot projects the wallet into the prompt's user-data block.
// History entries stand in for merchant transactions; spends render as
// negative amounts.
func walletSnapshot(w *domain.Wallet) ai.WalletSnapshot {
	snap := ai.WalletSnapshot{
		Balance: w.Balance,
		Points:  w.DodoPoints,
	}
	for _, e := range w.RecentHistory(5) {
		amount := e.Amount
		if e.Type == domain.HistoryPurchase {
			amount = -amount
		}
		snap.Transactions = append(snap.Transactions, ai.TransactionLine{
			Date:     e.Date,
			Merchant: e.Description,
			Amount:   amount,
		})
	}
	return snap
}

type ExplainContext struct {
	TransactionID  string
	Amount         float64
	ProofAvailable bool
}

type Explanation struct {
	Explanation string
	Context     ExplainContext
}

// ExplainCharge answers "why was I charged": it gathers wallet, ledger, and
// audit context, asks the model for a plain-text explanation, and records
// the query itself as an AI_QUERY audit entry.
func (s *Service) ExplainCharge(ctx context.Context, userID, transactionID, question string) (*Explanation, error) {
	if question == "" {
		question = "Why was I charged?"
	}

	wallet, err := s.ensureWallet(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("concierge.ExplainCharge: %w", err)
	}

	transactions, err := s.transactions.List(ctx, userID, domain.TransactionFilter{Limit: 10})
	if err != nil {
		return nil, fmt.Errorf("concierge.ExplainCharge: list transactions: %w", err)
	}

	auditLogs, err := s.audit.List(ctx, userID, domain.AuditFilter{Limit: 10})
	if err != nil {
		return nil, fmt.Errorf("concierge.ExplainCharge: list audit entries: %w", err)
	}

	var target *domain.Transaction
	if transactionID != "" {
		target, err = s.transactions.GetByID(ctx, userID, transactionID)
		if err != nil {
			return nil, fmt.Errorf("concierge.ExplainCharge: %w", err)
		}
	}

	prompt, err := explainPrompt(question, wallet, transactions, auditLogs, target)
	if err != nil {
		return nil, fmt.Errorf("concierge.ExplainCharge: %w", err)
	}

	explanation, err := s.model.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("concierge.ExplainCharge: %w", err)
	}

	entry := domain.NewAuditEntry(userID, domain.ActionAIQuery, domain.AuditAI,
		fmt.Sprintf("User asked: %q", question))
	entry.Details = map[string]any{"transactionId": transactionID, "question": question}
	entry.Proof.Source = "user_request"
	entry.Proof.Reference = "general_inquiry"
	if target != nil {
		entry.Proof.Reference = target.TransactionID
	}
	entry.AIExplanation = &domain.AIExplanation{
		Summary:     truncate(explanation, 200),
		Detailed:    explanation,
		GeneratedAt: time.Now(),
	}
	entry.Seal()
	s.appendAudit(context.WithoutCancel(ctx), entry)

	out := &Explanation{
		Explanation: explanation,
		Context:     ExplainContext{ProofAvailable: len(auditLogs) > 0},
	}
	if target != nil {
		out.Context.TransactionID = target.TransactionID
		out.Context.Amount = target.Amount
	}
	return out, nil
}

func explainPrompt(question string, wallet *domain.Wallet, transactions []*domain.Transaction, auditLogs []*domain.AuditEntry, target *domain.Transaction) (string, error) {
	type txContext struct {
		ID     string    `json:"id"`
		Type   string    `json:"type"`
		Amount float64   `json:"amount"`
		Reason string    `json:"reason"`
		Date   time.Time `json:"date"`
	}
	type logContext struct {
		Action      string    `json:"action"`
		Description string    `json:"description"`
		Proof       string    `json:"proof"`
		Date        time.Time `json:"date"`
	}

	contextData := struct {
		CurrentBalance     float64      `json:"currentBalance"`
		CurrentPoints      int          `json:"currentPoints"`
		RecentTransactions []txContext  `json:"recentTransactions"`
		RecentAuditLogs    []logContext `json:"recentAuditLogs"`
		TargetTransaction  *txContext   `json:"targetTransaction,omitempty"`
	}{
		CurrentBalance: wallet.Balance,
		CurrentPoints:  wallet.DodoPoints,
	}
	for _, t := range transactions {
		contextData.RecentTransactions = append(contextData.RecentTransactions, txContext{
			ID: t.TransactionID, Type: string(t.Type), Amount: t.Amount, Reason: t.Reason, Date: t.CreatedAt,
		})
	}
	for _, l := range auditLogs {
		contextData.RecentAuditLogs = append(contextData.RecentAuditLogs, logContext{
			Action: string(l.Action), Description: l.Description, Proof: l.Proof.Source, Date: l.Timestamp,
		})
	}
	if target != nil {
		contextData.TargetTransaction = &txContext{
			ID: target.TransactionID, Type: string(target.Type), Amount: target.Amount, Reason: target.Reason, Date: target.CreatedAt,
		}
	}

	encoded, err := json.MarshalIndent(contextData, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode explain context: %w", err)
	}

	var b strings.Builder
	b.WriteString("You are a trust-focused financial concierge. A user is asking about their charges.\n\n")
	fmt.Fprintf(&b, "User Question: %q\n\n", question)
	fmt.Fprintf(&b, "Context Data:\n%s\n\n", encoded)
	if target != nil {
		fmt.Fprintf(&b, "The user is specifically asking about transaction: %s for $%.2f (%s)\n\n",
			target.TransactionID, target.Amount, target.Reason)
	}
	b.WriteString(`Provide a clear, trust-building explanation that:
1. Directly answers why the charge occurred
2. References specific transaction details as proof
3. Shows the audit trail that led to this charge
4. Reassures the user with transparency

Keep your response concise but thorough. Format as readable text, not JSON.`)

	return b.String(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
