// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/unimatch/internal/lifecycle"
	"github.com/pdiddy/unimatch/pkg/types"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the embedding cache",
}

var cacheBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the embedding cache from the catalog",
	Long: `Build loads the catalog, embeds every record, and writes the cache
snapshot to disk. An existing snapshot for the same catalog version is
rebuilt anyway; use "cache status" first to check whether a rebuild is
needed. After a successful build a smoke query verifies the index answers.`,
	RunE: runCacheBuild,
}

var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show cache state and metadata",
	RunE:  runCacheStatus,
}

var cacheInvalidateCmd = &cobra.Command{
	Use:   "invalidate",
	Short: "Delete the cache snapshot",
	RunE:  runCacheInvalidate,
}

func init() {
	cacheStatusCmd.Flags().Bool("yaml", false, "output metadata as YAML")

	cacheCmd.AddCommand(cacheBuildCmd, cacheStatusCmd, cacheInvalidateCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheBuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	progress := func(done, total int) {
		if done%100 == 0 || done == total {
			fmt.Fprintf(os.Stdout, "Embedding records: %d/%d\n", done, total)
		}
	}
	mgr, err := newManager(cfg, log, progress)
	if err != nil {
		return err
	}
	if err := mgr.Open(cmd.Context()); err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}

	handle, err := mgr.Build(cmd.Context())
	if err != nil {
		return fmt.Errorf("starting build: %w", err)
	}
	<-handle.Done()
	if err := handle.Err(); err != nil {
		return fmt.Errorf("cache build failed: %w", err)
	}

	meta := mgr.Current()
	fmt.Fprintf(os.Stdout, "Cache built: %d records, catalog version %s, took %s\n",
		meta.RecordCount, meta.CatalogVersion,
		meta.BuildFinishedAt.Sub(meta.BuildStartedAt).Round(10*time.Millisecond))
	if meta.ErrorDetail != "" {
		fmt.Fprintf(os.Stdout, "Warning: %s\n", meta.ErrorDetail)
	}

	return smokeQuery(cmd, cfg, mgr)
}

// smokeQuery runs a fixed sample search against the freshly built index so
// a broken cache is caught at build time rather than by the first user.
func smokeQuery(cmd *cobra.Command, cfg types.ServiceConfig, mgr *lifecycle.Manager) error {
	log := newLogger(cfg)
	ix, ok := mgr.IndexIfReady()
	if !ok {
		return fmt.Errorf("cache not ready after build")
	}
	m, _, err := newMatchStack(cfg, log)
	if err != nil {
		return err
	}
	q := types.Query{DesiredProgram: "Computer Science", ProgramLevel: "Master's"}
	matches, err := m.Search(cmd.Context(), ix, q, 3)
	if err != nil {
		return fmt.Errorf("smoke query failed: %w", err)
	}
	fmt.Fprintf(os.Stdout, "Smoke query returned %d match(es)\n", len(matches))
	return nil
}

func runCacheStatus(cmd *cobra.Command, args []string) error {
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

	meta := mgr.Current()
	if asYAML, _ := cmd.Flags().GetBool("yaml"); asYAML {
		out, err := yaml.Marshal(meta)
		if err != nil {
			return fmt.Errorf("encoding cache metadata: %w", err)
		}
		_, err = os.Stdout.Write(out)
		return err
	}

	fmt.Fprintf(os.Stdout, "State:           %s\n", meta.State)
	fmt.Fprintf(os.Stdout, "Cache file:      %s (exists: %t)\n", cfg.Cache.Path, mgr.CacheExists())
	if meta.CatalogVersion != "" {
		fmt.Fprintf(os.Stdout, "Catalog version: %s\n", meta.CatalogVersion)
	}
	if meta.RecordCount > 0 {
		fmt.Fprintf(os.Stdout, "Records:         %d\n", meta.RecordCount)
		fmt.Fprintf(os.Stdout, "Dimension:       %d\n", meta.Dimension)
	}
	if !meta.BuildFinishedAt.IsZero() {
		fmt.Fprintf(os.Stdout, "Last build:      %s\n", meta.BuildFinishedAt.Format("2006-01-02 15:04:05 MST"))
	}
	if meta.ErrorDetail != "" {
		fmt.Fprintf(os.Stdout, "Detail:          %s\n", meta.ErrorDetail)
	}
	return nil
}

func runCacheInvalidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	mgr, err := newManager(cfg, log, nil)
	if err != nil {
		return err
	}
	if err := mgr.Invalidate(); err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	fmt.Fprintln(os.Stdout, "Cache invalidated")
	return nil
}
