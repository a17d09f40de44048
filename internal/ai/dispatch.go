package ai

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dodopoint/concierge/internal/domain"
)

// defaultRedeemPoints is used when the model extracted no amount.
const defaultRedeemPoints = 50

// Result is the outcome of dispatching one model reply: the user-facing
// message, structured data for the client, and whether the wallet changed.
type Result struct {
	Message string
	Data    map[string]any
	Mutated bool
}

// Handler executes one intent against the user's wallet.
type Handler func(ctx context.Context, env *Envelope, wallet *domain.Wallet) (Result, error)

// Dispatcher routes recognized intents to registered handlers. Malformed or
// unrecognized model output is never an error: it falls back to plain-text
// passthrough. Only persistence failures from mutating handlers propagate.
type Dispatcher struct {
	wallets  domain.WalletRepository
	handlers map[string]Handler
}

func NewDispatcher(wallets domain.WalletRepository) *Dispatcher {
	d := &Dispatcher{
		wallets:  wallets,
		handlers: make(map[string]Handler),
	}
	d.Register(IntentCheckBalance, d.checkBalance)
	d.Register(IntentRedeemPoints, d.redeemPoints)
	d.Register(IntentViewTransactions, d.viewTransactions)
	d.Register(IntentExplainCharge, d.explainCharge)
	d.Register(IntentGenerateInvoice, d.generateInvoice)
	return d
}

// Register adds or replaces the handler for an intent name.
func (d *Dispatcher) Register(intent string, h Handler) {
	d.handlers[intent] = h
}

// Dispatch parses raw model output and executes any recognized intent.
func (d *Dispatcher) Dispatch(ctx context.Context, raw string, wallet *domain.Wallet) (Result, error) {
	reply := ParseReply(raw)
	if reply.Kind == ReplyPlain {
		return Result{Message: reply.Text, Data: map[string]any{}}, nil
	}

	env := reply.Intent
	handler, ok := d.handlers[env.Intent]
	if !ok {
		// Unknown intent name: use the model's suggested text, never fail.
		log.Debug().Str("intent", env.Intent).Msg("unrecognized intent, passing through")
		return Result{Message: env.ResponseText, Data: map[string]any{}}, nil
	}

	log.Info().Str("intent", env.Intent).Msg("detected intent")
	return handler(ctx, env, wallet)
}

func (d *Dispatcher) checkBalance(_ context.Context, env *Envelope, wallet *domain.Wallet) (Result, error) {
	msg := env.ResponseText
	if msg == "" {
		msg = fmt.Sprintf("Your current balance is $%.2f and you have %d DoDo Points.", wallet.Balance, wallet.DodoPoints)
	}
	return Result{
		Message: msg,
		Data: map[string]any{
			"balance": wallet.Balance,
			"points":  wallet.DodoPoints,
		},
	}, nil
}

func (d *Dispatcher) redeemPoints(ctx context.Context, env *Envelope, wallet *domain.Wallet) (Result, error) {
	points := numberParam(env.Parameters, "amount", defaultRedeemPoints)

	err := wallet.Redeem(points, "Points Redeemed")
	if err != nil {
		// Business-rule rejection, not a system error: report the
		// shortfall and leave the wallet untouched.
		return Result{
			Message: fmt.Sprintf("I'm sorry, you only have %d points, which isn't enough to redeem %d.", wallet.DodoPoints, points),
			Data: map[string]any{
				"success": false,
				"points":  wallet.DodoPoints,
			},
		}, nil
	}

	// One Save covers balance, points, and the history entry together.
	if err := d.wallets.Save(ctx, wallet); err != nil {
		return Result{}, fmt.Errorf("dispatcher.redeemPoints: %w", err)
	}

	return Result{
		Message: fmt.Sprintf("Success! I've redeemed %d points for $%.2f. Your new balance is $%.2f.",
			points, float64(points)/domain.PointsPerUnit, wallet.Balance),
		Data: map[string]any{
			"success":     true,
			"new_points":  wallet.DodoPoints,
			"new_balance": wallet.Balance,
		},
		Mutated: true,
	}, nil
}

func (d *Dispatcher) viewTransactions(_ context.Context, env *Envelope, wallet *domain.Wallet) (Result, error) {
	msg := env.ResponseText
	if msg == "" {
		msg = "Here are your recent transactions."
	}

	recent := wallet.RecentHistory(promptTransactions)

	// Append the rendered list unless the model already included it; the
	// first entry's label is the dedup heuristic.
	if len(recent) > 0 && !strings.Contains(msg, recent[0].Description) {
		var lines []string
		for _, e := range recent {
			lines = append(lines, fmt.Sprintf("- %s: %s ($%.2f)", e.Date.Format("2006-01-02"), e.Description, math.Abs(e.Amount)))
		}
		msg += "\n\n" + strings.Join(lines, "\n")
	}

	return Result{
		Message: msg,
		Data:    map[string]any{"transactions": recent},
	}, nil
}

func (d *Dispatcher) explainCharge(_ context.Context, env *Envelope, _ *domain.Wallet) (Result, error) {
	// Hand-off point: the audit explain endpoint does the full transaction
	// join; here we only tag the response for the client.
	return Result{
		Message: env.ResponseText,
		Data: map[string]any{
			"success": true,
			"action":  "lookup_transaction",
			"details": "Transaction details retrieved",
		},
	}, nil
}

func (d *Dispatcher) generateInvoice(_ context.Context, env *Envelope, _ *domain.Wallet) (Result, error) {
	// Intentionally a stub: an opaque id is issued but no document exists.
	invoiceID := "INV-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])

	msg := env.ResponseText
	if msg == "" {
		msg = fmt.Sprintf("I've generated invoice #%s for you. You can download it below.", invoiceID)
	}

	return Result{
		Message: msg,
		Data: map[string]any{
			"success":     true,
			"invoice_id":  invoiceID,
			"invoice_url": fmt.Sprintf("/api/documents/%s.pdf", invoiceID),
		},
	}, nil
}

// numberParam reads a numeric parameter that may arrive as a JSON number or
// a numeric string.
func numberParam(params map[string]any, key string, fallback int) int {
	v, ok := params[key]
	if !ok {
		return fallback
	}
	switch n := v.(type) {
	case float64:
		if n > 0 {
			return int(n)
		}
	case int:
		if n > 0 {
			return n
		}
	case string:
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil && parsed > 0 {
			return int(parsed)
		}
	}
	return fallback
}
