// Package gemini is a REST client for the Google Generative Language API,
// used as the concierge's model gateway.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dodopoint/concierge/internal/ai"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com"

type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	HTTPClient *http.Client
	// MaxAttempts is the total call budget per Generate, including the
	// first attempt.
	MaxAttempts int
	// Backoff overrides the default 2s/4s/8s schedule. Tests use this to
	// avoid real waits.
	Backoff func(attempt int) time.Duration
}

type Client struct {
	cfg    Config
	policy ai.RetryPolicy
}

var _ ai.Generator = (*Client)(nil)

func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-pro"
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}

	policy := ai.DefaultRetryPolicy(IsRetryable)
	if cfg.MaxAttempts > 0 {
		policy.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.Backoff != nil {
		policy.Backoff = cfg.Backoff
	}

	return &Client{cfg: cfg, policy: policy}
}

// upstreamError is a classified failure from the generation endpoint.
type upstreamError struct {
	status    int
	retryable bool
	msg       string
}

func (e *upstreamError) Error() string {
	return fmt.Sprintf("gemini: upstream status %d: %s", e.status, e.msg)
}

// IsRetryable reports whether an error is in the rate-limit or
// transient-unavailable class. Transport failures are retryable; any other
// upstream response is not, to avoid re-sending requests that may already
// have had side effects.
func IsRetryable(err error) bool {
	var ue *upstreamError
	if errors.As(err, &ue) {
		return ue.retryable
	}
	var te *transportError
	return errors.As(err, &te)
}

type transportError struct{ cause error }

func (e *transportError) Error() string { return "gemini: request failed: " + e.cause.Error() }
func (e *transportError) Unwrap() error { return e.cause }

// Generate sends a composed prompt and returns the model's raw text. On
// terminal failure it returns *ai.GenerationError; the upstream cause is
// logged but not exposed to callers' clients.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	var text string
	err := c.policy.Do(ctx, func(ctx context.Context) error {
		var callErr error
		text, callErr = c.callOnce(ctx, prompt)
		return callErr
	})
	if err != nil {
		log.Error().Err(err).Msg("model generation failed")
		return "", &ai.GenerationError{Cause: err}
	}
	return text, nil
}

func (c *Client) callOnce(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:     0.7,
			TopP:            0.95,
			TopK:            40,
			MaxOutputTokens: 1024,
		},
		SafetySettings: defaultSafetySettings,
	})
	if err != nil {
		return "", fmt.Errorf("gemini: marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		strings.TrimSuffix(c.cfg.BaseURL, "/"), c.cfg.Model, c.cfg.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("gemini: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return "", &transportError{cause: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("gemini: read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &upstreamError{
			status:    resp.StatusCode,
			retryable: resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500,
			msg:       errorMessage(respBody),
		}
	}

	return parseText(respBody)
}

func parseText(body []byte) (string, error) {
	var resp generateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("gemini: decode response: %w", err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("gemini: empty candidates in response")
	}

	var texts []string
	for _, p := range resp.Candidates[0].Content.Parts {
		if p.Text != "" {
			texts = append(texts, p.Text)
		}
	}
	if len(texts) == 0 {
		return "", errors.New("gemini: missing text parts in response")
	}
	return strings.Join(texts, ""), nil
}

func errorMessage(body []byte) string {
	var e struct {
		Error struct {
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err != nil || e.Error.Message == "" {
		return "unknown error"
	}
	return e.Error.Message
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
	SafetySettings   []safetySetting  `json:"safetySettings,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP"`
	TopK            int     `json:"topK"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type safetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

var defaultSafetySettings = []safetySetting{
	{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
	{Category: "HARM_CATEGORY_HATE_SPEECH", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
	{Category: "HARM_CATEGORY_SEXUALLY_EXPLICIT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
	{Category: "HARM_CATEGORY_DANGEROUS_CONTENT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}
