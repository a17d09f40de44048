package ai

import (
	"encoding/json"
	"strings"
)

// Intent names the model is instructed to emit.
const (
	IntentCheckBalance     = "CHECK_BALANCE"
	IntentRedeemPoints     = "REDEEM_POINTS"
	IntentViewTransactions = "VIEW_TRANSACTIONS"
	IntentExplainCharge    = "EXPLAIN_CHARGE"
	IntentGenerateInvoice  = "GENERATE_INVOICE"
)

// Envelope is the JSON intent contract the model is instructed to follow.
// It is untrusted input: parsed per request and discarded after dispatch.
type Envelope struct {
	Type         string         `json:"type"`
	Intent       string         `json:"intent"`
	Parameters   map[string]any `json:"parameters"`
	ResponseText string         `json:"response_text"`
}

type ReplyKind int

const (
	ReplyPlain ReplyKind = iota
	ReplyIntent
)

// Reply is the tagged result of parsing raw model output: either plain
// conversational text or a recognized intent envelope.
type Reply struct {
	Kind   ReplyKind
	Text   string
	Intent *Envelope
}

// ParseReply extracts an intent envelope from raw model output. The model
// sometimes wraps JSON in code fences and sometimes answers in prose, so
// anything that does not parse as an envelope with type "intent" falls back
// to plain text. Never fails.
func ParseReply(raw string) Reply {
	cleaned := stripCodeFences(raw)

	// Cheap shape check, not full JSON detection: a malformed but
	// brace-bounded string still attempts (and may fail) parsing.
	if !strings.HasPrefix(cleaned, "{") || !strings.HasSuffix(cleaned, "}") {
		return Reply{Kind: ReplyPlain, Text: raw}
	}

	var env Envelope
	if err := json.Unmarshal([]byte(cleaned), &env); err != nil {
		return Reply{Kind: ReplyPlain, Text: raw}
	}
	if env.Type != "intent" {
		return Reply{Kind: ReplyPlain, Text: raw}
	}

	return Reply{Kind: ReplyIntent, Text: raw, Intent: &env}
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
