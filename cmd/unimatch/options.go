// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/pdiddy/unimatch/internal/catalog"
)

var optionsCmd = &cobra.Command{
	Use:   "options",
	Short: "Print the filter options derived from the cached catalog",
	RunE:  runOptions,
}

func init() {
	optionsCmd.Flags().Bool("json", false, "output options as JSON")

	rootCmd.AddCommand(optionsCmd)
}

func runOptions(cmd *cobra.Command, args []string) error {
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

	opts := catalog.DeriveOptions(ix.Records())

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(opts)
	}

	printList := func(name string, values []string) {
		fmt.Fprintf(os.Stdout, "%s (%d):\n", name, len(values))
		for _, v := range values {
			fmt.Fprintf(os.Stdout, "  %s\n", v)
		}
	}
	printList("Programs", opts.Programs)
	printList("Countries", opts.Countries)
	printList("Program levels", opts.Levels)
	printList("Institution types", opts.InstitutionTypes)
	printList("Previous degrees", opts.PreviousDegrees)
	printList("Previous courses", opts.PreviousCourses)
	return nil
}
