// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics registers the Prometheus instruments exposed at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the service instruments on an isolated registry so tests
// can construct independent instances.
type Metrics struct {
	Registry *prometheus.Registry

	// BuildSeconds observes index build wall time.
	BuildSeconds prometheus.Histogram

	// SearchSeconds observes per-request search plus compose time.
	SearchSeconds prometheus.Histogram

	// ReasoningFallbacks counts candidates whose reasoning fell back to the
	// deterministic template.
	ReasoningFallbacks prometheus.Counter

	// CacheReady is 1 while a ready index is servable.
	CacheReady prometheus.Gauge

	// Requests counts HTTP requests by route and status class.
	Requests *prometheus.CounterVec
}

// New constructs and registers all instruments.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		BuildSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "unimatch_build_seconds",
			Help:    "Embedding index build duration in seconds.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		SearchSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "unimatch_search_seconds",
			Help:    "Recommendation request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		ReasoningFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "unimatch_reasoning_fallbacks_total",
			Help: "Candidates whose reasoning used the deterministic fallback.",
		}),
		CacheReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "unimatch_cache_ready",
			Help: "1 while a ready embedding index is servable.",
		}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "unimatch_requests_total",
			Help: "HTTP requests by route and status class.",
		}, []string{"route", "status"}),
	}

	reg.MustRegister(m.BuildSeconds, m.SearchSeconds, m.ReasoningFallbacks, m.CacheReady, m.Requests)
	return m
}
