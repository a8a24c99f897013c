// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"fmt"
	"sync"

	"github.com/pdiddy/unimatch/internal/embed"
	"github.com/pdiddy/unimatch/pkg/types"
)

// BuildOptions tunes the bulk embedding step.
type BuildOptions struct {
	// Workers bounds concurrent embedding calls (default 4).
	Workers int

	// MinCoverage is the minimum fraction of records that must embed
	// successfully (default 0.9). Below it the build fails with
	// IndexBuildError; above it with failures present, the index carries a
	// warning and the failed records are simply absent from search.
	MinCoverage float64

	// Progress, when non-nil, receives (dispatched, total) as records are
	// handed to the workers.
	Progress func(done, total int)
}

const (
	defaultWorkers     = 4
	defaultMinCoverage = 0.9
)

// Build embeds every record and assembles the searchable index. This is the
// only step allowed to call the embedding capability in bulk; it dominates
// build latency. Record order in the result matches catalog order
// regardless of worker scheduling.
func Build(ctx context.Context, records []types.CatalogRecord, embedder embed.Embedder, opts BuildOptions) (*EmbeddingIndex, error) {
	if len(records) == 0 {
		return nil, &types.IndexBuildError{Err: fmt.Errorf("empty catalog")}
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	minCoverage := opts.MinCoverage
	if minCoverage <= 0 || minCoverage > 1 {
		minCoverage = defaultMinCoverage
	}

	type slot struct {
		vec []float32
		err error
	}
	slots := make([]slot, len(records))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				vec, err := embedder.Embed(ctx, RecordText(records[i]))
				slots[i] = slot{vec: vec, err: err}
			}
		}()
	}

	done := 0
feed:
	for i := range records {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
			done++
			if opts.Progress != nil {
				opts.Progress(done, len(records))
			}
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, &types.IndexBuildError{Total: len(records), Err: err}
	}

	var entries []Entry
	var firstErr error
	failed := 0
	for i, s := range slots {
		if s.err != nil {
			failed++
			if firstErr == nil {
				firstErr = s.err
			}
			continue
		}
		entries = append(entries, Entry{Record: records[i], Vector: s.vec})
	}

	embedded := len(entries)
	if float64(embedded) < minCoverage*float64(len(records)) {
		return nil, &types.IndexBuildError{
			Embedded: embedded,
			Total:    len(records),
			Err:      fmt.Errorf("below minimum coverage %.0f%%: %w", minCoverage*100, firstErr),
		}
	}

	warning := ""
	if failed > 0 {
		warning = fmt.Sprintf("partial coverage: %d of %d records failed to embed (first error: %v)",
			failed, len(records), firstErr)
	}

	return FromEntries(entries, embedder.Dimension(), warning), nil
}
