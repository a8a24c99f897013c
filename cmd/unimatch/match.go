// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/pdiddy/unimatch/pkg/types"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Run a one-shot recommendation query",
	Long: `Match embeds the given preferences, searches the cache, and prints the
top recommendations. The cache must have been built ("unimatch cache build");
match does not build it implicitly.`,
	RunE: runMatch,
}

func init() {
	matchCmd.Flags().String("program", "", "desired program (required)")
	matchCmd.Flags().String("level", "", "program level (e.g. Master's)")
	matchCmd.Flags().StringSlice("countries", nil, "preferred countries (hard filter)")
	matchCmd.Flags().StringSlice("institution-types", nil, "preferred institution types")
	matchCmd.Flags().Float64("budget", 0, "maximum tuition budget in USD (0 = no ceiling)")
	matchCmd.Flags().Int("min-rank", 0, "worst acceptable global rank (0 = ignore rank)")
	matchCmd.Flags().String("notes", "", "additional preferences in free text")
	matchCmd.Flags().Int("top", 0, "number of recommendations (default from config)")
	matchCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(matchCmd)
}

func runMatch(cmd *cobra.Command, args []string) error {
	program, _ := cmd.Flags().GetString("program")
	if program == "" {
		return fmt.Errorf("--program is required")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	mgr, err := newManager(cfg, log, nil)
	if err != nil {
		return err
	}
	if err := mgr.Open(cmd.Context()); err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}
	ix, ok := mgr.IndexIfReady()
	if !ok {
		return fmt.Errorf("cache is not ready; run \"unimatch cache build\" first")
	}

	level, _ := cmd.Flags().GetString("level")
	countries, _ := cmd.Flags().GetStringSlice("countries")
	instTypes, _ := cmd.Flags().GetStringSlice("institution-types")
	budget, _ := cmd.Flags().GetFloat64("budget")
	minRank, _ := cmd.Flags().GetInt("min-rank")
	notes, _ := cmd.Flags().GetString("notes")
	top, _ := cmd.Flags().GetInt("top")
	if top <= 0 {
		top = cfg.Match.TopK
	}

	q := types.Query{
		DesiredProgram:     program,
		ProgramLevel:       level,
		PreferredCountries: countries,
		InstitutionTypes:   instTypes,
		MaxBudgetUSD:       budget,
		MinGlobalRank:      minRank,
		FreeText:           notes,
	}

	m, c, err := newMatchStack(cfg, log)
	if err != nil {
		return err
	}
	candidates, err := m.Search(cmd.Context(), ix, q, top*2)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	results := c.Compose(cmd.Context(), ix, candidates, q, top)

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Fprintln(os.Stdout, "No programs matched the given preferences.")
		return nil
	}
	for i, r := range results {
		fmt.Fprintf(os.Stdout, "%d. %s, %s (%s)\n", i+1, r.Institution, r.CourseName, r.Country)
		fmt.Fprintf(os.Stdout, "   match %.1f%%  similarity %.3f", r.MatchPercentage, r.Similarity)
		if r.TuitionUSD > 0 {
			fmt.Fprintf(os.Stdout, "  tuition $%.0f", r.TuitionUSD)
		}
		fmt.Fprintln(os.Stdout)
		if r.Reasoning != "" {
			fmt.Fprintf(os.Stdout, "   %s\n", strings.ReplaceAll(r.Reasoning, "\n", "\n   "))
		}
	}
	return nil
}
