// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package index builds and queries the embedding index: one fixed-dimension
// vector per catalog record plus exact nearest-neighbor search by cosine
// similarity. An index is immutable after Build returns; the lifecycle
// manager hands out read-only references.
package index

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/pdiddy/unimatch/internal/embed"
	"github.com/pdiddy/unimatch/pkg/types"
)

// Entry pairs a catalog record with its embedding vector.
type Entry struct {
	Record types.CatalogRecord
	Vector []float32
}

// Match is one ranked search hit.
type Match struct {
	RecordID string
	// Similarity is cosine similarity mapped to [0, 1].
	Similarity float64
}

// EmbeddingIndex holds the per-record vectors in catalog order. Immutable
// after construction.
type EmbeddingIndex struct {
	dimension int
	entries   []Entry
	byID      map[string]int
	warning   string
}

// FromEntries assembles an index from previously persisted entries. Used by
// the cache store's cold-start path so a restart never re-embeds.
func FromEntries(entries []Entry, dimension int, warning string) *EmbeddingIndex {
	byID := make(map[string]int, len(entries))
	for i, e := range entries {
		byID[e.Record.ID] = i
	}
	return &EmbeddingIndex{
		dimension: dimension,
		entries:   entries,
		byID:      byID,
		warning:   warning,
	}
}

// Size returns the number of indexed records.
func (ix *EmbeddingIndex) Size() int { return len(ix.entries) }

// Dimension returns the vector width.
func (ix *EmbeddingIndex) Dimension() int { return ix.dimension }

// Warning returns the non-fatal build shortfall note, if any.
func (ix *EmbeddingIndex) Warning() string { return ix.warning }

// Entries returns the underlying entries in catalog order. Callers must
// treat the slice as read-only.
func (ix *EmbeddingIndex) Entries() []Entry { return ix.entries }

// Records returns the indexed catalog records in catalog order.
func (ix *EmbeddingIndex) Records() []types.CatalogRecord {
	out := make([]types.CatalogRecord, len(ix.entries))
	for i, e := range ix.entries {
		out[i] = e.Record
	}
	return out
}

// Record looks up a record by ID.
func (ix *EmbeddingIndex) Record(id string) (types.CatalogRecord, bool) {
	i, ok := ix.byID[id]
	if !ok {
		return types.CatalogRecord{}, false
	}
	return ix.entries[i].Record, true
}

// Search embeds queryText with embedder and returns up to k matches in
// descending similarity order. Exact similarity ties break by ascending
// global rank (unranked last), then by record ID, so identical inputs
// always produce identical orderings.
func (ix *EmbeddingIndex) Search(ctx context.Context, embedder embed.Embedder, queryText string, k int) ([]Match, error) {
	qvec, err := embedder.Embed(ctx, queryText)
	if err != nil {
		return nil, &types.QueryEmbeddingError{Err: err}
	}
	if len(qvec) != ix.dimension {
		return nil, &types.QueryEmbeddingError{
			Err: fmt.Errorf("query vector dimension %d does not match index dimension %d", len(qvec), ix.dimension),
		}
	}

	matches := make([]Match, len(ix.entries))
	for i, e := range ix.entries {
		matches[i] = Match{RecordID: e.Record.ID, Similarity: cosine01(qvec, e.Vector)}
	}
	return ix.rank(matches, k), nil
}

// KeywordSearch is the deterministic degraded scorer used when the query
// embedding call fails: token-overlap (Jaccard) similarity between the
// query text and each record's document text. Same ranking and tie-break
// rules as Search.
func (ix *EmbeddingIndex) KeywordSearch(queryText string, k int) []Match {
	qtokens := tokenSet(queryText)
	matches := make([]Match, len(ix.entries))
	for i, e := range ix.entries {
		matches[i] = Match{
			RecordID:   e.Record.ID,
			Similarity: jaccard(qtokens, tokenSet(RecordText(e.Record))),
		}
	}
	return ix.rank(matches, k)
}

func (ix *EmbeddingIndex) rank(matches []Match, k int) []Match {
	sort.Slice(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.Similarity != b.Similarity {
			return a.Similarity > b.Similarity
		}
		ra := effectiveRank(ix.entries[ix.byID[a.RecordID]].Record)
		rb := effectiveRank(ix.entries[ix.byID[b.RecordID]].Record)
		if ra != rb {
			return ra < rb
		}
		return a.RecordID < b.RecordID
	})
	if k > 0 && len(matches) > k {
		matches = matches[:k]
	}
	return matches
}

// effectiveRank orders unranked institutions after every ranked one.
func effectiveRank(r types.CatalogRecord) int {
	if !r.Ranked() {
		return math.MaxInt
	}
	return r.GlobalRank
}

// cosine01 maps cosine similarity from [-1, 1] to [0, 1]. Mismatched
// lengths score 0 rather than panic; the store rejects such vectors at
// load time.
func cosine01(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	cos := dot / (math.Sqrt(na) * math.Sqrt(nb))
	return (cos + 1) / 2
}

func tokenSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range embed.Tokenize(text) {
		set[tok] = true
	}
	return set
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for tok := range a {
		if b[tok] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// RecordText builds the descriptive text embedded for a record. Structured
// attributes are labeled so the same vocabulary appears in query text built
// by the matcher.
func RecordText(r types.CatalogRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "University: %s\n", r.Institution)
	fmt.Fprintf(&b, "Course: %s\n", r.CourseName)
	fmt.Fprintf(&b, "Program: %s\n", r.Program)
	fmt.Fprintf(&b, "Level: %s - %s\n", r.Level, r.Credential)
	fmt.Fprintf(&b, "Location: %s, %s\n", r.City, r.Country)
	if r.Ranked() {
		fmt.Fprintf(&b, "Global Rank: %d\n", r.GlobalRank)
	}
	if r.TuitionUSD > 0 {
		fmt.Fprintf(&b, "Tuition (USD): $%.0f\n", r.TuitionUSD)
	}
	if r.InstitutionType != "" {
		fmt.Fprintf(&b, "University Type: %s\n", r.InstitutionType)
	}
	if r.Description != "" {
		b.WriteString(r.Description)
		b.WriteString("\n")
	}
	return b.String()
}
