// Package ai implements the concierge's conversational core: prompt
// composition, the model gateway retry policy, and parsing/dispatch of the
// JSON intent envelope the model is instructed to emit.
package ai

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dodopoint/concierge/internal/session"
)

// promptHistory is how many prior messages are rendered into the prompt.
// The session keeps up to session.MaxHistory; only the tail goes upstream.
const promptHistory = 5

// promptTransactions caps how many recent transactions are listed in the
// user-data block.
const promptTransactions = 5

// systemPrompt is the fixed persona and intent contract sent ahead of every
// conversation turn.
const systemPrompt = `You are the AI Concierge for DoDo Point Client Concierge, a premium trust-based financial platform.

Your personality:
- Professional and articulate
- Trust-focused and transparent
- Empathetic and understanding
- Proactive with helpful suggestions
- Concise and clear in communication

Your role:
- Assist users with their wallet, transactions, and trust score
- Provide clear explanations about charges and transactions
- Help users understand the DoDo Points system
- Offer guidance on earning and redeeming points
- Maintain a premium, trustworthy tone
- Use the provided user data (balance, points, transactions) to answer specific questions accurately

Intent Detection & JSON Output:
If the user's request matches one of the following intents, you MUST return a valid JSON object strictly complying with the schema below. Do NOT include any other text, markdown formatting, or code blocks. Just the raw JSON string.

Supported Intents:
- CHECK_BALANCE: User asks for current wallet balance.
- REDEEM_POINTS: User explicitly asks to redeem DoDo points.
- VIEW_TRANSACTIONS: User asks to see recent transactions.
- EXPLAIN_CHARGE: User asks for details or explanation of a specific transaction.
- GENERATE_INVOICE: User asks for an invoice.

JSON Schema:
{
  "type": "intent",
  "intent": "INTENT_NAME",
  "parameters": {
    // any relevant entities extracted from the prompt (e.g., amount, merchant)
  },
  "response_text": "A brief, natural language response confirming the action or answering the query based on the data."
}

Example JSON Response:
{
  "type": "intent",
  "intent": "CHECK_BALANCE",
  "parameters": {},
  "response_text": "Your current wallet balance is $1,250.50."
}

Guidelines:
- If the request is a normal chat conversation, reply with plain text as usual.
- If it is an intent, return ONLY the JSON.
- Lead with the answer or key information
- Provide context when needed
- Suggest relevant next steps
- Keep responses concise (2-3 sentences typically)
- Use a warm but professional tone
- Never make up information about specific transactions or balances`

// WelcomeMessage is the canned greeting for a fresh conversation.
const WelcomeMessage = "Hello! I'm your AI Concierge. How can I assist you today?"

// TransactionLine is one row of the user-data block.
type TransactionLine struct {
	Date     time.Time
	Merchant string
	Amount   float64
}

// WalletSnapshot is the read-only wallet view rendered into the prompt.
type WalletSnapshot struct {
	Balance      float64
	Points       int
	Transactions []TransactionLine
}

// ComposePrompt renders one model request: system instructions, the tail of
// the conversation, the user-data block, and the new message. Pure and
// deterministic for identical inputs.
func ComposePrompt(history []session.Message, snap WalletSnapshot, userMessage string) string {
	var b strings.Builder

	b.WriteString(systemPrompt)
	b.WriteString("\n\n")

	if len(history) > 0 {
		b.WriteString("Previous conversation:\n")
		tail := history
		if len(tail) > promptHistory {
			tail = tail[len(tail)-promptHistory:]
		}
		for _, msg := range tail {
			speaker := "AI"
			if msg.Role == session.RoleUser {
				speaker = "User"
			}
			fmt.Fprintf(&b, "%s: %s\n", speaker, msg.Content)
		}
		b.WriteString("\n")
	}

	b.WriteString("User Information:\n")
	fmt.Fprintf(&b, "- Wallet Balance: $%.2f\n", snap.Balance)
	fmt.Fprintf(&b, "- DoDo Points: %d\n", snap.Points)
	if len(snap.Transactions) > 0 {
		b.WriteString("\nRecent Transactions:\n")
		lines := snap.Transactions
		if len(lines) > promptTransactions {
			lines = lines[:promptTransactions]
		}
		for _, tx := range lines {
			fmt.Fprintf(&b, "- %s: %s ($%.2f)\n", tx.Date.Format("2006-01-02"), tx.Merchant, math.Abs(tx.Amount))
		}
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "User: %s\n\nAI:", userMessage)

	return b.String()
}
