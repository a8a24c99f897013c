// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reason

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"

	"github.com/pdiddy/unimatch/internal/httputil"
	"github.com/pdiddy/unimatch/pkg/types"
)

// Remote calls a chat-completion style provider. Requests are bounded by
// the configured timeout and wrapped in a circuit breaker: once the
// provider starts failing consistently, calls short-circuit straight to
// the fallback path instead of stacking up timeouts.
type Remote struct {
	client    *http.Client
	endpoint  string
	model     string
	apiKey    string
	userAgent string
	retries   int
	breaker   *gobreaker.CircuitBreaker[string]
}

// NewRemote builds a Remote reasoner from cfg.
func NewRemote(cfg types.ReasoningConfig) *Remote {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Remote{
		client:    &http.Client{Timeout: timeout},
		endpoint:  cfg.Endpoint,
		model:     cfg.Model,
		apiKey:    cfg.APIKey,
		userAgent: cfg.UserAgent,
		retries:   cfg.MaxRetries,
		breaker: gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
			Name:        "reasoning-provider",
			MaxRequests: 3,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= 5
			},
		}),
	}
}

type chatRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	Messages  []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Reason requests a justification from the provider. Every failure —
// transport, timeout, open breaker, empty response — comes back as
// ReasoningProviderError; the composer substitutes the fallback template.
func (r *Remote) Reason(ctx context.Context, q types.Query, record types.CatalogRecord, matchPct float64) (string, error) {
	text, err := r.breaker.Execute(func() (string, error) {
		return r.call(ctx, Prompt(q, record))
	})
	if err != nil {
		return "", &types.ReasoningProviderError{Err: err}
	}
	return text, nil
}

func (r *Remote) call(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:     r.model,
		MaxTokens: 200,
		Messages:  []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if r.userAgent != "" {
		req.Header.Set("User-Agent", r.userAgent)
	}
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := httputil.DoWithRetry(ctx, r.client, req, r.retries)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, snippet)
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", fmt.Errorf("parsing response: %w", err)
	}
	if len(cr.Choices) == 0 || cr.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("empty completion in response")
	}
	return cr.Choices[0].Message.Content, nil
}
