// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// CacheState is the lifecycle state of the embedding cache.
type CacheState string

const (
	// CacheAbsent means no usable cache exists and no build is running.
	CacheAbsent CacheState = "absent"

	// CacheBuilding means a build is in flight. At most one build may be in
	// flight system-wide.
	CacheBuilding CacheState = "building"

	// CacheReady means a fully-built index is loaded and servable.
	CacheReady CacheState = "ready"

	// CacheError means the last build failed. A previously ready index, if
	// one exists, remains servable.
	CacheError CacheState = "error"
)

// CacheMetadata describes the current cache. The lifecycle manager is the
// sole writer; everyone else receives value copies.
type CacheMetadata struct {
	// State is the current lifecycle state.
	State CacheState `json:"state" yaml:"state"`

	// CatalogVersion is the content hash of the catalog source the index was
	// built from. A changed catalog cannot silently serve a stale index.
	CatalogVersion string `json:"catalog_version" yaml:"catalog_version"`

	// RecordCount is the number of catalog records behind the index.
	RecordCount int `json:"record_count" yaml:"record_count"`

	// Dimension is the embedding vector width.
	Dimension int `json:"dimension" yaml:"dimension"`

	// BuildStartedAt and BuildFinishedAt bound the most recent build.
	BuildStartedAt  time.Time `json:"build_started_at" yaml:"build_started_at"`
	BuildFinishedAt time.Time `json:"build_finished_at" yaml:"build_finished_at"`

	// ErrorDetail holds the failure reason when State is error, or a
	// non-fatal warning (e.g. partial embedding coverage) when State is ready.
	ErrorDetail string `json:"error_detail,omitempty" yaml:"error_detail,omitempty"`
}

// ReadinessStatus is the queryable readiness view exposed to consumers.
type ReadinessStatus struct {
	// Status is "operational", "initializing", or "error".
	Status string `json:"status" yaml:"status"`

	// Message is a human-readable summary; surfaces ErrorDetail after a
	// failed build.
	Message string `json:"message" yaml:"message"`

	// CacheState mirrors the lifecycle state.
	CacheState CacheState `json:"cache_status" yaml:"cache_status"`

	// Ready is true iff CacheState is ready.
	Ready bool `json:"ready" yaml:"ready"`

	// CacheExists reports whether a persisted cache is present on disk.
	CacheExists bool `json:"cache_exists" yaml:"cache_exists"`

	// RecordCount is the number of indexed programs when ready.
	RecordCount int `json:"programs_count" yaml:"programs_count"`
}

// Readiness status values.
const (
	StatusOperational  = "operational"
	StatusInitializing = "initializing"
	StatusError        = "error"
)
