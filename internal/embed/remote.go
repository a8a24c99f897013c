// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embed

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"

	"github.com/pdiddy/unimatch/internal/httputil"
	"github.com/pdiddy/unimatch/pkg/types"
)

// Remote calls a hosted embeddings API. The request/response shapes follow
// the common embeddings endpoint convention: POST {model, input} returning
// {data: [{embedding: [...]}]}.
type Remote struct {
	client    *http.Client
	endpoint  string
	model     string
	apiKey    string
	userAgent string
	retries   int

	// dimension is learned from the first successful response. Atomic
	// because bulk builds call Embed from several workers.
	dimension atomic.Int32
}

// NewRemote builds a Remote embedder from cfg.
func NewRemote(cfg types.EmbeddingConfig) *Remote {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	r := &Remote{
		client:    &http.Client{Timeout: timeout},
		endpoint:  cfg.Endpoint,
		model:     cfg.Model,
		apiKey:    cfg.APIKey,
		userAgent: cfg.UserAgent,
		retries:   cfg.MaxRetries,
	}
	r.dimension.Store(int32(cfg.Dimension))
	return r
}

// Dimension returns the configured or last observed vector width.
func (r *Remote) Dimension() int { return int(r.dimension.Load()) }

type embedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed requests a single-text embedding. All failures come back as
// EmbeddingProviderError so callers can classify them uniformly.
func (r *Remote) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embedRequest{Model: r.model, Input: text})
	if err != nil {
		return nil, &types.EmbeddingProviderError{Op: "embed", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &types.EmbeddingProviderError{Op: "embed", Err: err}
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
		return nil, &types.EmbeddingProviderError{Op: "embed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, &types.EmbeddingProviderError{
			Op:  "embed",
			Err: fmt.Errorf("HTTP %d: %s", resp.StatusCode, snippet),
		}
	}

	var er embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return nil, &types.EmbeddingProviderError{Op: "embed", Err: fmt.Errorf("parsing response: %w", err)}
	}
	if len(er.Data) == 0 || len(er.Data[0].Embedding) == 0 {
		return nil, &types.EmbeddingProviderError{Op: "embed", Err: fmt.Errorf("empty embedding in response")}
	}

	vec := er.Data[0].Embedding
	r.dimension.Store(int32(len(vec)))
	return vec, nil
}
