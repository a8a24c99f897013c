// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package matcher turns a structured query into ranked candidate records
// against the current ready index. Per-query work is read-only and safe to
// run fully in parallel across requests.
package matcher

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pdiddy/unimatch/internal/embed"
	"github.com/pdiddy/unimatch/internal/index"
	"github.com/pdiddy/unimatch/pkg/types"
)

// Matcher performs similarity search with a single-record query embedding
// call. When the embedding call fails and keyword fallback is enabled, the
// request degrades to deterministic keyword-overlap scoring instead of
// failing; the degradation is logged, never silent.
type Matcher struct {
	embedder        embed.Embedder
	keywordFallback bool
	log             zerolog.Logger
}

// New constructs a Matcher.
func New(embedder embed.Embedder, keywordFallback bool, log zerolog.Logger) *Matcher {
	return &Matcher{
		embedder:        embedder,
		keywordFallback: keywordFallback,
		log:             log.With().Str("component", "matcher").Logger(),
	}
}

// Search returns up to k candidates in descending similarity order.
// Identical (index, query) inputs produce identical orderings.
func (m *Matcher) Search(ctx context.Context, ix *index.EmbeddingIndex, q types.Query, k int) ([]index.Match, error) {
	text := QueryText(q)

	matches, err := ix.Search(ctx, m.embedder, text, k)
	if err == nil {
		return matches, nil
	}

	var qerr *types.QueryEmbeddingError
	if !errors.As(err, &qerr) || !m.keywordFallback {
		return nil, err
	}

	m.log.Warn().Err(err).Msg("query embedding failed; degrading to keyword overlap scoring")
	return ix.KeywordSearch(text, k), nil
}

// QueryText renders the structured preferences as labeled text in the same
// vocabulary used for record embedding, so query and record vectors share a
// space.
func QueryText(q types.Query) string {
	var parts []string
	if q.DesiredProgram != "" {
		parts = append(parts, fmt.Sprintf("Program: %s", q.DesiredProgram))
	}
	if q.ProgramLevel != "" {
		parts = append(parts, fmt.Sprintf("Level: %s", q.ProgramLevel))
	}
	if len(q.PreferredCountries) > 0 {
		parts = append(parts, fmt.Sprintf("Countries: %s", strings.Join(q.PreferredCountries, ", ")))
	}
	if len(q.InstitutionTypes) > 0 {
		parts = append(parts, fmt.Sprintf("University Types: %s", strings.Join(q.InstitutionTypes, ", ")))
	}
	if q.FreeText != "" {
		parts = append(parts, fmt.Sprintf("Additional: %s", q.FreeText))
	}
	return strings.Join(parts, " ")
}
