// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
)

// ErrCacheNotReady is returned to request paths while no ready index exists.
// It is a retryable condition, not a hard failure.
var ErrCacheNotReady = errors.New("embedding cache is not ready")

// MalformedCatalogError reports a catalog record that is missing required
// fields or carries a value of the wrong semantic type. It is fatal to a
// build attempt; a previously ready cache is preserved.
type MalformedCatalogError struct {
	Source string // catalog file path
	Row    int    // zero-based record index, -1 when the file itself is bad
	Reason string
}

func (e *MalformedCatalogError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("malformed catalog %s: %s", e.Source, e.Reason)
	}
	return fmt.Sprintf("malformed catalog %s: record %d: %s", e.Source, e.Row, e.Reason)
}

// EmbeddingProviderError wraps a failure of the bulk or single-record
// embedding capability (quota, timeout, transport). Build-time occurrences
// are retryable; the failed build can be retried manually or on restart.
type EmbeddingProviderError struct {
	Op  string // "embed-record", "embed-query"
	Err error
}

func (e *EmbeddingProviderError) Error() string {
	return fmt.Sprintf("embedding provider: %s: %v", e.Op, e.Err)
}

func (e *EmbeddingProviderError) Unwrap() error { return e.Err }

// IndexBuildError reports that too few records embedded successfully for the
// index to be usable.
type IndexBuildError struct {
	Embedded int
	Total    int
	Err      error
}

func (e *IndexBuildError) Error() string {
	return fmt.Sprintf("index build: only %d of %d records embedded: %v", e.Embedded, e.Total, e.Err)
}

func (e *IndexBuildError) Unwrap() error { return e.Err }

// QueryEmbeddingError reports that the per-request query embedding failed and
// no fallback scorer was permitted. It affects a single request and never
// corrupts the index.
type QueryEmbeddingError struct {
	Err error
}

func (e *QueryEmbeddingError) Error() string {
	return fmt.Sprintf("query embedding: %v", e.Err)
}

func (e *QueryEmbeddingError) Unwrap() error { return e.Err }

// ReasoningProviderError wraps a reasoning provider failure. It is always
// recovered locally with the deterministic fallback template and never
// surfaced to the caller as an error.
type ReasoningProviderError struct {
	Err error
}

func (e *ReasoningProviderError) Error() string {
	return fmt.Sprintf("reasoning provider: %v", e.Err)
}

func (e *ReasoningProviderError) Unwrap() error { return e.Err }
