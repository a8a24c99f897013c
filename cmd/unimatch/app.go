// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/pdiddy/unimatch/internal/cachestore"
	"github.com/pdiddy/unimatch/internal/catalog"
	"github.com/pdiddy/unimatch/internal/embed"
	"github.com/pdiddy/unimatch/internal/index"
	"github.com/pdiddy/unimatch/internal/lifecycle"
	"github.com/pdiddy/unimatch/internal/logging"
	"github.com/pdiddy/unimatch/internal/matcher"
	"github.com/pdiddy/unimatch/internal/reason"
	"github.com/pdiddy/unimatch/internal/recommend"
	"github.com/pdiddy/unimatch/pkg/types"
)

const defaultUserAgent = "unimatch/0.1"

// loadConfig unmarshals the viper state into a ServiceConfig, applies
// defaults, and injects secrets for any API keys not set explicitly.
func loadConfig() (types.ServiceConfig, error) {
	var cfg types.ServiceConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Catalog.Path == "" {
		cfg.Catalog.Path = "catalog.json"
	}
	if cfg.Cache.Path == "" {
		cfg.Cache.Path = "unimatch-cache.db"
	}
	if cfg.Embedding.Dimension <= 0 {
		cfg.Embedding.Dimension = embed.DefaultDimension
	}
	if cfg.Embedding.MinCoverage <= 0 {
		cfg.Embedding.MinCoverage = 0.9
	}
	if cfg.Embedding.Workers <= 0 {
		cfg.Embedding.Workers = runtime.NumCPU()
	}
	if cfg.Embedding.Timeout <= 0 {
		cfg.Embedding.Timeout = 30 * time.Second
	}
	if cfg.Embedding.UserAgent == "" {
		cfg.Embedding.UserAgent = defaultUserAgent
	}
	if cfg.Reasoning.Timeout <= 0 {
		cfg.Reasoning.Timeout = 30 * time.Second
	}
	if cfg.Reasoning.UserAgent == "" {
		cfg.Reasoning.UserAgent = defaultUserAgent
	}
	if cfg.Reasoning.MaxConcurrent <= 0 {
		cfg.Reasoning.MaxConcurrent = 4
	}
	if cfg.Match.TopK <= 0 {
		cfg.Match.TopK = 10
	}
	if cfg.Match.SimilarityWeight == 0 && cfg.Match.RuleWeight == 0 {
		cfg.Match.SimilarityWeight = 0.6
		cfg.Match.RuleWeight = 0.4
		cfg.Match.KeywordFallback = true
	}

	cfg.Embedding.APIKey = secretDefault("embedding-api-key", cfg.Embedding.APIKey)
	cfg.Reasoning.APIKey = secretDefault("reasoning-api-key", cfg.Reasoning.APIKey)

	return cfg, nil
}

func newLogger(cfg types.ServiceConfig) zerolog.Logger {
	return logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
}

// newManager wires the cache lifecycle manager from configuration.
func newManager(cfg types.ServiceConfig, log zerolog.Logger, progress func(done, total int)) (*lifecycle.Manager, error) {
	embedder, err := embed.New(cfg.Embedding)
	if err != nil {
		return nil, err
	}
	store := cachestore.New(cfg.Cache.Path)
	load := func() ([]types.CatalogRecord, string, error) {
		return catalog.Load(cfg.Catalog.Path)
	}
	opts := index.BuildOptions{
		Workers:     cfg.Embedding.Workers,
		MinCoverage: cfg.Embedding.MinCoverage,
		Progress:    progress,
	}
	return lifecycle.New(store, load, embedder, opts, log), nil
}

// newMatchStack wires the query-side collaborators.
func newMatchStack(cfg types.ServiceConfig, log zerolog.Logger, opts ...recommend.Option) (*matcher.Matcher, *recommend.Composer, error) {
	embedder, err := embed.New(cfg.Embedding)
	if err != nil {
		return nil, nil, err
	}
	m := matcher.New(embedder, cfg.Match.KeywordFallback, log)

	var reasoner reason.Reasoner = reason.Static{}
	if cfg.Reasoning.Enabled {
		reasoner = reason.NewRemote(cfg.Reasoning)
	}
	c := recommend.New(reasoner, cfg.Match, cfg.Reasoning.MaxConcurrent, log, opts...)
	return m, c, nil
}
