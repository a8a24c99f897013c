// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/unimatch/internal/ready"
)

var waitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Block until a running server reports the cache is ready",
	Long: `Wait polls the health endpoint of a running unimatch server until it
reports the cache is ready, then exits 0. Useful in deployment scripts that
must not route traffic before the cache is warm.`,
	RunE: runWait,
}

func init() {
	waitCmd.Flags().String("url", "http://localhost:8080", "base URL of the server")
	waitCmd.Flags().Int("attempts", 0, "maximum poll attempts (default 30)")
	waitCmd.Flags().Duration("interval", 0, "delay between polls (default 2s)")

	rootCmd.AddCommand(waitCmd)
}

func runWait(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	url, _ := cmd.Flags().GetString("url")
	attempts, _ := cmd.Flags().GetInt("attempts")
	interval, _ := cmd.Flags().GetDuration("interval")

	client := &ready.Client{
		BaseURL:    url,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
	poller := &ready.Poller{
		MaxAttempts: attempts,
		Interval:    interval,
		Log:         log,
	}
	if !poller.Wait(cmd.Context(), client.Status) {
		return fmt.Errorf("server at %s did not become ready", url)
	}
	fmt.Println("Server is ready")
	return nil
}
