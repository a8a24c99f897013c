// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package recommend composes ranked candidates into user-facing results:
// hard filtering, match percentage, and natural-language reasoning with a
// deterministic fallback.
package recommend

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/pdiddy/unimatch/internal/index"
	"github.com/pdiddy/unimatch/internal/reason"
	"github.com/pdiddy/unimatch/pkg/types"
)

// Composer turns matcher output into RecommendationResults.
type Composer struct {
	reasoner      reason.Reasoner
	cfg           types.MatchConfig
	maxConcurrent int
	fallbacks     func() // counter hook, may be nil
	log           zerolog.Logger
}

// Option mutates a Composer during construction.
type Option func(*Composer)

// WithFallbackCounter installs a hook invoked once per reasoning fallback.
func WithFallbackCounter(fn func()) Option {
	return func(c *Composer) { c.fallbacks = fn }
}

const defaultMaxConcurrent = 4

// New constructs a Composer. Zero cfg weights fall back to 0.6/0.4.
func New(reasoner reason.Reasoner, cfg types.MatchConfig, maxConcurrent int, log zerolog.Logger, opts ...Option) *Composer {
	if cfg.SimilarityWeight <= 0 && cfg.RuleWeight <= 0 {
		cfg.SimilarityWeight, cfg.RuleWeight = 0.6, 0.4
	}
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}
	c := &Composer{
		reasoner:      reasoner,
		cfg:           cfg,
		maxConcurrent: maxConcurrent,
		log:           log.With().Str("component", "composer").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compose applies hard filters, scores the survivors, attaches reasoning,
// and returns up to k results sorted by match percentage descending. Ties
// break by ascending global rank, then record ID. Candidates violating a
// hard constraint (country, budget, or a complete program-name mismatch
// when a program is stated) never appear in the output.
func (c *Composer) Compose(ctx context.Context, ix *index.EmbeddingIndex, candidates []index.Match, q types.Query, k int) []types.RecommendationResult {
	var results []types.RecommendationResult
	var records []types.CatalogRecord

	for _, m := range candidates {
		rec, ok := ix.Record(m.RecordID)
		if !ok {
			continue
		}
		if !q.WantsCountry(rec.Country) {
			continue
		}
		if !q.WithinBudget(rec.TuitionUSD) {
			continue
		}
		if q.DesiredProgram != "" && !programMatches(rec, q.DesiredProgram) {
			continue
		}

		results = append(results, types.RecommendationResult{
			RecordID:        rec.ID,
			Program:         rec.Program,
			CourseName:      rec.CourseName,
			Institution:     rec.Institution,
			Country:         rec.Country,
			City:            rec.City,
			Level:           rec.Level,
			Credential:      rec.Credential,
			InstitutionType: rec.InstitutionType,
			TuitionUSD:      rec.TuitionUSD,
			GlobalRank:      rec.GlobalRank,
			Similarity:      m.Similarity,
			MatchPercentage: c.matchPercentage(m.Similarity, rec, q),
		})
		records = append(records, rec)
	}

	c.sortResults(results)
	if k > 0 && len(results) > k {
		// records must stay parallel to results for the reasoning pass.
		byID := make(map[string]types.CatalogRecord, len(records))
		for _, r := range records {
			byID[r.ID] = r
		}
		results = results[:k]
		records = records[:0]
		for _, res := range results {
			records = append(records, byID[res.RecordID])
		}
	}

	c.attachReasoning(ctx, results, records, q)
	return results
}

// matchPercentage combines raw similarity with the rule-based fit score.
// Strictly higher similarity with identical other factors never produces a
// lower percentage: the rule score does not depend on similarity and the
// similarity weight is non-negative.
func (c *Composer) matchPercentage(similarity float64, r types.CatalogRecord, q types.Query) float64 {
	pct := c.cfg.SimilarityWeight*100*similarity + c.cfg.RuleWeight*ruleScore(r, q)
	return math.Max(0, math.Min(100, pct))
}

// ruleScore awards points per preference factor and returns the percentage
// of applicable points earned. Weights follow the intake policy: program
// 25, level 15, country 20, institution type 15, tuition 15, rank 10.
func ruleScore(r types.CatalogRecord, q types.Query) float64 {
	earned, applicable := 0.0, 0.0

	if q.DesiredProgram != "" {
		applicable += 25
		switch {
		case containsFold(r.Program, q.DesiredProgram):
			earned += 25
		case containsFold(r.CourseName, q.DesiredProgram):
			earned += 20
		}
	}

	if q.ProgramLevel != "" {
		applicable += 15
		if containsFold(r.Level, q.ProgramLevel) || containsFold(r.Credential, q.ProgramLevel) {
			earned += 15
		}
	}

	if len(q.PreferredCountries) > 0 {
		applicable += 20
		if q.WantsCountry(r.Country) {
			earned += 20
		}
	}

	if len(q.InstitutionTypes) > 0 {
		applicable += 15
		for _, t := range q.InstitutionTypes {
			if equalFold(r.InstitutionType, t) {
				earned += 15
				break
			}
		}
	}

	if q.MaxBudgetUSD > 0 && r.TuitionUSD > 0 {
		applicable += 15
		if r.TuitionUSD <= q.MaxBudgetUSD {
			// 10 points for fitting, up to 5 more for headroom.
			headroom := (q.MaxBudgetUSD - r.TuitionUSD) / q.MaxBudgetUSD
			earned += 10 + 5*headroom
		}
	}

	if q.MinGlobalRank > 0 && r.Ranked() {
		applicable += 10
		if r.GlobalRank <= q.MinGlobalRank {
			earned += 10
		}
	}

	if applicable == 0 {
		return 0
	}
	return earned / applicable * 100
}

// attachReasoning requests justifications in parallel, bounded by
// maxConcurrent. Any provider failure substitutes the deterministic
// fallback; the request as a whole always succeeds.
func (c *Composer) attachReasoning(ctx context.Context, results []types.RecommendationResult, records []types.CatalogRecord, q types.Query) {
	sem := make(chan struct{}, c.maxConcurrent)
	var wg sync.WaitGroup

	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			text, err := c.reasoner.Reason(ctx, q, records[i], results[i].MatchPercentage)
			if err != nil || text == "" {
				if err != nil {
					c.log.Debug().Err(err).Str("record", results[i].RecordID).Msg("reasoning fell back to template")
				}
				if c.fallbacks != nil {
					c.fallbacks()
				}
				text = reason.FallbackText(q, records[i], results[i].MatchPercentage)
			}
			results[i].Reasoning = text
		}(i)
	}
	wg.Wait()
}

// sortResults orders by match percentage descending, then ascending global
// rank (unranked last), then record ID.
func (c *Composer) sortResults(results []types.RecommendationResult) {
	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.MatchPercentage != b.MatchPercentage {
			return a.MatchPercentage > b.MatchPercentage
		}
		ra, rb := effectiveRank(a.GlobalRank), effectiveRank(b.GlobalRank)
		if ra != rb {
			return ra < rb
		}
		return a.RecordID < b.RecordID
	})
}

func effectiveRank(rank int) int {
	if rank <= 0 {
		return math.MaxInt
	}
	return rank
}

// programMatches reports whether the record's program or course name
// overlaps the desired program in either direction, case-insensitively.
// A record with no name overlap at all is a hard mismatch, not a
// low-scoring candidate.
func programMatches(r types.CatalogRecord, desired string) bool {
	for _, field := range []string{r.Program, r.CourseName} {
		if field == "" {
			continue
		}
		if containsFold(field, desired) || containsFold(desired, field) {
			return true
		}
	}
	return false
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
