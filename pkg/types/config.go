// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that call external
// providers.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "unimatch/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// AIConfig holds shared settings for stages that call a hosted model API.
type AIConfig struct {
	// Model is the model identifier at the provider.
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// Endpoint is the provider base URL.
	Endpoint string `json:"endpoint" yaml:"endpoint" mapstructure:"endpoint"`

	// APIKey is the authentication key; usually injected from .secrets/.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// MaxRetries is the number of retry attempts for rate-limited calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// CatalogConfig holds settings for the catalog loader.
type CatalogConfig struct {
	// Path is the catalog file (.json, .yaml, or .yml).
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// EmbeddingConfig holds settings for the embedding capability.
type EmbeddingConfig struct {
	AIConfig   `yaml:",inline" mapstructure:",squash"`
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Provider selects the embedder: "local" (deterministic feature hashing)
	// or "remote" (hosted embeddings API).
	Provider string `json:"provider" yaml:"provider" mapstructure:"provider"`

	// Dimension is the local embedder's vector width (default 256). Remote
	// embedders report their own dimension.
	Dimension int `json:"dimension" yaml:"dimension" mapstructure:"dimension"`

	// MinCoverage is the minimum fraction of records that must embed
	// successfully for a build to succeed (default 0.9). A shortfall above
	// this floor is recorded as a warning, not a failure.
	MinCoverage float64 `json:"min_coverage" yaml:"min_coverage" mapstructure:"min_coverage"`

	// Workers bounds concurrent bulk embedding calls (default 4).
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`
}

// CacheConfig holds settings for the cache store and lifecycle manager.
type CacheConfig struct {
	// Path is the cache database file. The build lock lives beside it.
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// ReasoningConfig holds settings for the natural-language reasoning provider.
type ReasoningConfig struct {
	AIConfig   `yaml:",inline" mapstructure:",squash"`
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Enabled turns the remote provider on. When false every result carries
	// the deterministic fallback text.
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// MaxConcurrent bounds parallel per-candidate reasoning calls (default 4).
	MaxConcurrent int `json:"max_concurrent" yaml:"max_concurrent" mapstructure:"max_concurrent"`
}

// MatchConfig holds the ranking policy knobs.
type MatchConfig struct {
	// TopK is the default number of recommendations returned (default 10).
	// The matcher overfetches 2*TopK candidates before hard filtering.
	TopK int `json:"top_k" yaml:"top_k" mapstructure:"top_k"`

	// SimilarityWeight and RuleWeight combine the raw similarity score with
	// the rule-based fit score into the match percentage. Defaults 0.6/0.4.
	// Match percentage is monotone in similarity for any non-negative
	// SimilarityWeight.
	SimilarityWeight float64 `json:"similarity_weight" yaml:"similarity_weight" mapstructure:"similarity_weight"`
	RuleWeight       float64 `json:"rule_weight" yaml:"rule_weight" mapstructure:"rule_weight"`

	// KeywordFallback degrades query scoring to deterministic keyword overlap
	// when the query embedding call fails (default true). When false such
	// requests fail with QueryEmbeddingError instead.
	KeywordFallback bool `json:"keyword_fallback" yaml:"keyword_fallback" mapstructure:"keyword_fallback"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// ReadTimeout, WriteTimeout, and ShutdownTimeout guard the listener.
	ReadTimeout     time.Duration `json:"read_timeout" yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout" yaml:"write_timeout" mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum level: debug, info, warn, error (default info).
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is "json" or "console" (default console).
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// ServiceConfig groups all stage configurations.
type ServiceConfig struct {
	Catalog   CatalogConfig   `json:"catalog" yaml:"catalog" mapstructure:"catalog"`
	Embedding EmbeddingConfig `json:"embedding" yaml:"embedding" mapstructure:"embedding"`
	Cache     CacheConfig     `json:"cache" yaml:"cache" mapstructure:"cache"`
	Reasoning ReasoningConfig `json:"reasoning" yaml:"reasoning" mapstructure:"reasoning"`
	Match     MatchConfig     `json:"match" yaml:"match" mapstructure:"match"`
	Server    ServerConfig    `json:"server" yaml:"server" mapstructure:"server"`
	Logging   LoggingConfig   `json:"logging" yaml:"logging" mapstructure:"logging"`
}
