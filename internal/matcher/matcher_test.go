// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package matcher

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/pdiddy/unimatch/internal/embed"
	"github.com/pdiddy/unimatch/internal/index"
	"github.com/pdiddy/unimatch/pkg/types"
)

func buildIndex(t *testing.T) *index.EmbeddingIndex {
	t.Helper()
	records := []types.CatalogRecord{
		{ID: "cs-ca", Program: "Computer Science", CourseName: "MSc CS", Institution: "Maple University", Country: "Canada", Level: "Master's"},
		{ID: "cs-us", Program: "Computer Science", CourseName: "MS CS", Institution: "Liberty College", Country: "United States", Level: "Master's"},
		{ID: "art", Program: "Fine Arts", CourseName: "MFA Painting", Institution: "Atelier Institute", Country: "Canada", Level: "Master's"},
	}
	ix, err := index.Build(context.Background(), records, embed.NewLocal(128), index.BuildOptions{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return ix
}

type brokenEmbedder struct{ dim int }

func (b brokenEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, &types.EmbeddingProviderError{Op: "embed", Err: errors.New("provider down")}
}
func (b brokenEmbedder) Dimension() int { return b.dim }

func TestSearchRanksRelevantFirst(t *testing.T) {
	ix := buildIndex(t)
	m := New(embed.NewLocal(128), true, zerolog.Nop())

	q := types.Query{DesiredProgram: "Computer Science", ProgramLevel: "Master's"}
	matches, err := m.Search(context.Background(), ix, q, 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(matches) != 3 {
		t.Fatalf("len(matches) = %d, want 3", len(matches))
	}
	if matches[2].RecordID != "art" {
		t.Errorf("least relevant = %s, want art", matches[2].RecordID)
	}
}

func TestSearchFallsBackToKeywords(t *testing.T) {
	ix := buildIndex(t)
	m := New(brokenEmbedder{dim: 128}, true, zerolog.Nop())

	q := types.Query{DesiredProgram: "Computer Science"}
	matches, err := m.Search(context.Background(), ix, q, 3)
	if err != nil {
		t.Fatalf("Search should degrade, got %v", err)
	}
	if len(matches) == 0 {
		t.Fatal("degraded search should still return candidates")
	}
	if matches[0].RecordID == "art" {
		t.Errorf("keyword overlap should rank computer-science records first, got %s", matches[0].RecordID)
	}
}

func TestSearchFallbackDisabled(t *testing.T) {
	ix := buildIndex(t)
	m := New(brokenEmbedder{dim: 128}, false, zerolog.Nop())

	_, err := m.Search(context.Background(), ix, types.Query{DesiredProgram: "CS"}, 3)
	var qerr *types.QueryEmbeddingError
	if !errors.As(err, &qerr) {
		t.Fatalf("error = %v, want QueryEmbeddingError with fallback disabled", err)
	}
}

func TestQueryText(t *testing.T) {
	q := types.Query{
		DesiredProgram:     "Computer Science",
		ProgramLevel:       "Master's",
		PreferredCountries: []string{"Canada", "Germany"},
		InstitutionTypes:   []string{"Public"},
		FreeText:           "strong research culture",
	}
	text := QueryText(q)

	for _, want := range []string{
		"Program: Computer Science",
		"Level: Master's",
		"Countries: Canada, Germany",
		"University Types: Public",
		"Additional: strong research culture",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("QueryText missing %q: %q", want, text)
		}
	}

	if got := QueryText(types.Query{DesiredProgram: "Law"}); got != "Program: Law" {
		t.Errorf("QueryText = %q, want only the program part", got)
	}
}
