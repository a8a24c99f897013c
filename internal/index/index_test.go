// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pdiddy/unimatch/internal/embed"
	"github.com/pdiddy/unimatch/pkg/types"
)

func testRecords() []types.CatalogRecord {
	return []types.CatalogRecord{
		{
			ID: "rec-1", Program: "Computer Science", CourseName: "MSc Computer Science",
			Institution: "Maple University", Country: "Canada", City: "Toronto",
			Level: "Master's", TuitionUSD: 15000, GlobalRank: 40,
		},
		{
			ID: "rec-2", Program: "Computer Science", CourseName: "MS Computer Science",
			Institution: "Liberty College", Country: "United States", City: "Boston",
			Level: "Master's", TuitionUSD: 25000, GlobalRank: 15,
		},
		{
			ID: "rec-3", Program: "Fine Arts", CourseName: "MFA Painting",
			Institution: "Atelier Institute", Country: "Canada", City: "Montreal",
			Level: "Master's", TuitionUSD: 10000,
		},
	}
}

func buildTestIndex(t *testing.T) *EmbeddingIndex {
	t.Helper()
	ix, err := Build(context.Background(), testRecords(), embed.NewLocal(128), BuildOptions{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return ix
}

func TestSearchRanksByRelevance(t *testing.T) {
	ix := buildTestIndex(t)

	matches, err := ix.Search(context.Background(), embed.NewLocal(128), "Program: Computer Science\nLevel: Master's", 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(matches) != 3 {
		t.Fatalf("len(matches) = %d, want 3", len(matches))
	}

	// The fine-arts record must rank below both computer-science records.
	if matches[2].RecordID != "rec-3" {
		t.Errorf("last match = %s, want rec-3", matches[2].RecordID)
	}
	for i := 1; i < len(matches); i++ {
		if matches[i].Similarity > matches[i-1].Similarity {
			t.Errorf("matches out of order at %d: %v > %v", i, matches[i].Similarity, matches[i-1].Similarity)
		}
	}
	for _, m := range matches {
		if m.Similarity < 0 || m.Similarity > 1 {
			t.Errorf("similarity %v outside [0, 1]", m.Similarity)
		}
	}
}

func TestSearchDeterministic(t *testing.T) {
	ix := buildTestIndex(t)
	e := embed.NewLocal(128)

	a, err := ix.Search(context.Background(), e, "computer science in canada", 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	b, err := ix.Search(context.Background(), e, "computer science in canada", 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("match %d differs across identical searches: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestRankTieBreaks(t *testing.T) {
	records := []types.CatalogRecord{
		{ID: "b", GlobalRank: 10},
		{ID: "a", GlobalRank: 10},
		{ID: "c"}, // unranked sorts last
		{ID: "d", GlobalRank: 5},
	}
	entries := make([]Entry, len(records))
	for i, r := range records {
		entries[i] = Entry{Record: r, Vector: []float32{1}}
	}
	ix := FromEntries(entries, 1, "")

	matches := ix.rank([]Match{
		{RecordID: "b", Similarity: 0.5},
		{RecordID: "a", Similarity: 0.5},
		{RecordID: "c", Similarity: 0.5},
		{RecordID: "d", Similarity: 0.5},
	}, 0)

	want := []string{"d", "a", "b", "c"}
	for i, id := range want {
		if matches[i].RecordID != id {
			t.Fatalf("matches[%d] = %s, want %s (full order %v)", i, matches[i].RecordID, id, matches)
		}
	}
}

func TestSearchDimensionMismatch(t *testing.T) {
	ix := buildTestIndex(t)

	_, err := ix.Search(context.Background(), embed.NewLocal(64), "anything", 3)
	var qerr *types.QueryEmbeddingError
	if !errors.As(err, &qerr) {
		t.Fatalf("error = %v, want QueryEmbeddingError", err)
	}
}

type failingEmbedder struct{ dim int }

func (f failingEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, &types.EmbeddingProviderError{Op: "embed", Err: errors.New("quota exhausted")}
}
func (f failingEmbedder) Dimension() int { return f.dim }

func TestSearchWrapsEmbedderFailure(t *testing.T) {
	ix := buildTestIndex(t)

	_, err := ix.Search(context.Background(), failingEmbedder{dim: 128}, "anything", 3)
	var qerr *types.QueryEmbeddingError
	if !errors.As(err, &qerr) {
		t.Fatalf("error = %v, want QueryEmbeddingError", err)
	}
	var perr *types.EmbeddingProviderError
	if !errors.As(err, &perr) {
		t.Errorf("QueryEmbeddingError should wrap the provider error, got %v", err)
	}
}

func TestSearchToleratesShortVector(t *testing.T) {
	e := embed.NewLocal(128)
	records := testRecords()
	good, err := e.Embed(context.Background(), RecordText(records[0]))
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	entries := []Entry{
		{Record: records[0], Vector: good},
		{Record: records[1], Vector: good[:1]}, // undersized
	}
	ix := FromEntries(entries, 128, "")

	matches, err := ix.Search(context.Background(), e, RecordText(records[0]), 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	for _, m := range matches {
		if m.RecordID == "rec-2" && m.Similarity != 0 {
			t.Errorf("undersized vector scored %v, want 0", m.Similarity)
		}
	}
}

func TestKeywordSearch(t *testing.T) {
	ix := buildTestIndex(t)

	matches := ix.KeywordSearch("computer science toronto", 3)
	if len(matches) != 3 {
		t.Fatalf("len(matches) = %d, want 3", len(matches))
	}
	if matches[0].RecordID != "rec-1" {
		t.Errorf("top match = %s, want rec-1 (shares program and city tokens)", matches[0].RecordID)
	}
	if matches[0].Similarity <= matches[2].Similarity {
		t.Errorf("overlap scores should separate relevant from irrelevant records")
	}
}

func TestRecordLookup(t *testing.T) {
	ix := buildTestIndex(t)

	r, ok := ix.Record("rec-2")
	if !ok || r.Institution != "Liberty College" {
		t.Errorf("Record(rec-2) = %+v, %t", r, ok)
	}
	if _, ok := ix.Record("nope"); ok {
		t.Error("Record should miss for an unknown ID")
	}
}

func TestRecordText(t *testing.T) {
	text := RecordText(testRecords()[0])
	for _, want := range []string{"University: Maple University", "Program: Computer Science", "Global Rank: 40", "Tuition (USD): $15000"} {
		if !strings.Contains(text, want) {
			t.Errorf("RecordText missing %q:\n%s", want, text)
		}
	}

	// Unranked and tuition-free records skip those lines.
	text = RecordText(types.CatalogRecord{ID: "x", Institution: "X", CourseName: "Y", Program: "Z"})
	if strings.Contains(text, "Global Rank") || strings.Contains(text, "Tuition") {
		t.Errorf("RecordText should omit unknown rank and tuition:\n%s", text)
	}
}
