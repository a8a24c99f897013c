// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package reason produces the natural-language justification attached to
// each recommendation. The provider is an opaque text-generation capability
// with a timeout and a failure mode; every failure is recovered locally
// with a deterministic template, so reasoning can degrade but never fail a
// request.
package reason

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/unimatch/pkg/types"
)

// Reasoner generates a free-text justification for recommending record to
// the student behind query.
type Reasoner interface {
	Reason(ctx context.Context, q types.Query, record types.CatalogRecord, matchPct float64) (string, error)
}

// Static is a Reasoner that always answers with the deterministic fallback
// template. Used when no remote provider is configured, and in tests.
type Static struct{}

// Reason returns the fallback text.
func (Static) Reason(_ context.Context, q types.Query, record types.CatalogRecord, matchPct float64) (string, error) {
	return FallbackText(q, record, matchPct), nil
}

// FallbackText builds the deterministic justification from the candidate's
// known attributes. It is never empty.
func FallbackText(q types.Query, r types.CatalogRecord, matchPct float64) string {
	var reasons []string

	if q.DesiredProgram != "" && containsFold(r.Program, q.DesiredProgram) {
		reasons = append(reasons, fmt.Sprintf("Strong program match: %s", r.Program))
	}
	if q.WantsCountry(r.Country) && len(q.PreferredCountries) > 0 {
		reasons = append(reasons, fmt.Sprintf("Located in your preferred country: %s", r.Country))
	}
	if q.MaxBudgetUSD > 0 && r.TuitionUSD > 0 && r.TuitionUSD <= q.MaxBudgetUSD {
		reasons = append(reasons, fmt.Sprintf("Within your budget: $%.0f", r.TuitionUSD))
	}
	if q.MinGlobalRank > 0 && r.Ranked() && r.GlobalRank <= q.MinGlobalRank {
		reasons = append(reasons, fmt.Sprintf("Meets your ranking criteria: #%d", r.GlobalRank))
	}

	if len(reasons) == 0 {
		return fmt.Sprintf("This program matches %.1f%% of your preferences based on program, location, and cost factors.", matchPct)
	}
	return fmt.Sprintf("This program matches %.1f%% of your preferences. Key factors: %s.",
		matchPct, strings.Join(reasons, "; "))
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// Prompt renders the provider prompt from the query and the candidate's
// salient attributes.
func Prompt(q types.Query, r types.CatalogRecord) string {
	var b strings.Builder
	b.WriteString("In two sentences, explain why this program suits this student.\n\nStudent preferences:\n")
	fmt.Fprintf(&b, "- Program: %s\n", q.DesiredProgram)
	if q.ProgramLevel != "" {
		fmt.Fprintf(&b, "- Level: %s\n", q.ProgramLevel)
	}
	if len(q.PreferredCountries) > 0 {
		fmt.Fprintf(&b, "- Countries: %s\n", strings.Join(q.PreferredCountries, ", "))
	}
	if q.MaxBudgetUSD > 0 {
		fmt.Fprintf(&b, "- Budget (USD/year): %.0f\n", q.MaxBudgetUSD)
	}
	if q.GPA > 0 {
		fmt.Fprintf(&b, "- GPA: %.2f\n", q.GPA)
	}
	if q.FreeText != "" {
		fmt.Fprintf(&b, "- Additional: %s\n", q.FreeText)
	}
	b.WriteString("\nCandidate program:\n")
	fmt.Fprintf(&b, "- %s at %s (%s)\n", r.CourseName, r.Institution, r.Country)
	fmt.Fprintf(&b, "- Program: %s, Level: %s\n", r.Program, r.Level)
	if r.TuitionUSD > 0 {
		fmt.Fprintf(&b, "- Tuition (USD/year): %.0f\n", r.TuitionUSD)
	}
	if r.Ranked() {
		fmt.Fprintf(&b, "- Global rank: %d\n", r.GlobalRank)
	}
	return b.String()
}
