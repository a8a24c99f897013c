// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/unimatch/internal/lifecycle"
	"github.com/pdiddy/unimatch/internal/metrics"
	"github.com/pdiddy/unimatch/internal/recommend"
	"github.com/pdiddy/unimatch/internal/server"
	"github.com/pdiddy/unimatch/pkg/types"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the recommendation HTTP API",
	Long: `Serve starts the HTTP API. On startup the cache is loaded from disk if a
snapshot matching the current catalog exists; otherwise a build starts in the
background and the API answers 503 with a retry hint until the cache is ready.
The health endpoint always responds.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :8080)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}
	log := newLogger(cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mgr, err := newManager(cfg, log, nil)
	if err != nil {
		return err
	}
	if err := mgr.Open(ctx); err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}

	mx := metrics.New()

	if mgr.Current().State == types.CacheReady {
		mx.CacheReady.Set(1)
	} else {
		handle, err := mgr.Build(ctx)
		if err != nil && err != lifecycle.ErrBuildLocked {
			return fmt.Errorf("starting cache build: %w", err)
		}
		if handle != nil {
			go func() {
				<-handle.Done()
				if berr := handle.Err(); berr != nil {
					log.Error().Err(berr).Msg("background cache build failed")
					return
				}
				meta := mgr.Current()
				mx.CacheReady.Set(1)
				mx.BuildSeconds.Observe(meta.BuildFinishedAt.Sub(meta.BuildStartedAt).Seconds())
				log.Info().Int("records", meta.RecordCount).Msg("background cache build finished")
			}()
		}
	}

	m, c, err := newMatchStack(cfg, log,
		recommend.WithFallbackCounter(func() { mx.ReasoningFallbacks.Inc() }))
	if err != nil {
		return err
	}

	h := server.NewHandler(mgr, m, c, mx, cfg.Match.TopK, log)
	srv := server.New(cfg.Server, h)
	return server.Run(ctx, srv, cfg.Server.ShutdownTimeout, log)
}
