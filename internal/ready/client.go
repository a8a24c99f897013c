// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ready

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/pdiddy/unimatch/pkg/types"
)

// Client fetches readiness from a running server's health endpoint.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// Status fetches and decodes the health document. The endpoint responds in
// every cache state, so any transport or decode failure means the server
// itself is unreachable.
func (c *Client) Status(ctx context.Context) (types.ReadinessStatus, error) {
	var status types.ReadinessStatus

	url := strings.TrimRight(c.BaseURL, "/") + "/api/v1/health"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return status, fmt.Errorf("building health request: %w", err)
	}

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return status, fmt.Errorf("fetching health: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return status, fmt.Errorf("reading health response: %w", err)
	}
	if err := json.Unmarshal(body, &status); err != nil {
		return status, fmt.Errorf("decoding health response: %w", err)
	}
	return status, nil
}
