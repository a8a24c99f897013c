// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ready exposes cache lifecycle state as a queryable readiness
// status and provides a consumer-side poller that waits for readiness with
// bounded attempts. Neither side holds state that can go stale: every poll
// is a fresh read of the lifecycle manager's authoritative metadata, and
// every readiness-gated operation re-validates rather than trusting a past
// poll.
package ready

import (
	"fmt"

	"github.com/pdiddy/unimatch/pkg/types"
)

// StateSource is the slice of the lifecycle manager the reporter reads.
type StateSource interface {
	Current() types.CacheMetadata
	CacheExists() bool
}

// Reporter converts lifecycle metadata into a ReadinessStatus. It is a pure
// read and never triggers a build.
type Reporter struct {
	source StateSource
}

// NewReporter constructs a Reporter over source.
func NewReporter(source StateSource) *Reporter {
	return &Reporter{source: source}
}

// Status reports the current readiness view. Ready is true iff the cache
// state is ready.
func (r *Reporter) Status() types.ReadinessStatus {
	meta := r.source.Current()

	st := types.ReadinessStatus{
		CacheState:  meta.State,
		Ready:       meta.State == types.CacheReady,
		CacheExists: r.source.CacheExists(),
		RecordCount: meta.RecordCount,
	}

	switch meta.State {
	case types.CacheReady:
		st.Status = types.StatusOperational
		st.Message = "System is ready"
		if meta.ErrorDetail != "" {
			st.Message = fmt.Sprintf("System is ready (%s)", meta.ErrorDetail)
		}
	case types.CacheError:
		st.Status = types.StatusError
		st.Message = fmt.Sprintf("Last build failed: %s", meta.ErrorDetail)
	default: // absent, building
		st.Status = types.StatusInitializing
		st.Message = "System is still initializing"
	}
	return st
}
