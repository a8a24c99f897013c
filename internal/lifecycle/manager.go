// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package lifecycle owns the embedding cache state machine. Legal
// transitions are absent→building, building→ready, building→error,
// error→building, and ready→building (explicit rebuild); ready→absent
// happens only through explicit invalidation. The Manager is the sole
// writer of cache state; everyone else reads metadata snapshots or
// immutable index references.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog"

	"github.com/pdiddy/unimatch/internal/cachestore"
	"github.com/pdiddy/unimatch/internal/embed"
	"github.com/pdiddy/unimatch/internal/index"
	"github.com/pdiddy/unimatch/pkg/types"
)

// ErrBuildLocked is returned when another process holds the build lock.
// At most one build may be in flight system-wide.
var ErrBuildLocked = errors.New("another process is already building the cache")

// LoadFunc loads the catalog: ordered records plus the catalog version.
// catalog.Load curried with a path satisfies it; tests supply fakes.
type LoadFunc func() ([]types.CatalogRecord, string, error)

// Manager drives builds and owns the current index and metadata.
type Manager struct {
	store    *cachestore.Store
	load     LoadFunc
	embedder embed.Embedder
	opts     index.BuildOptions
	lock     *flock.Flock
	log      zerolog.Logger

	mu       sync.Mutex
	meta     types.CacheMetadata
	idx      *index.EmbeddingIndex
	building *BuildHandle
}

// BuildHandle tracks one in-flight build. A build request that arrives
// while a build is running receives the existing handle rather than
// starting a second build.
type BuildHandle struct {
	done chan struct{}
	err  error
}

// Done returns a channel closed when the build finishes.
func (h *BuildHandle) Done() <-chan struct{} { return h.done }

// Err returns the build outcome; valid only after Done is closed.
func (h *BuildHandle) Err() error {
	<-h.done
	return h.err
}

// New constructs a Manager. The build lock file lives beside the cache.
func New(store *cachestore.Store, load LoadFunc, embedder embed.Embedder, opts index.BuildOptions, log zerolog.Logger) *Manager {
	return &Manager{
		store:    store,
		load:     load,
		embedder: embedder,
		opts:     opts,
		lock:     flock.New(store.Path() + ".lock"),
		log:      log.With().Str("component", "lifecycle").Logger(),
		meta:     types.CacheMetadata{State: types.CacheAbsent},
	}
}

// Open is the cold-start path. If a persisted cache exists and its catalog
// version matches the current source, the index is loaded and the state
// becomes ready without re-embedding. An absent, corrupt, or
// version-mismatched cache leaves the state absent; the caller decides
// whether to Build. Open never triggers a build itself.
func (m *Manager) Open(ctx context.Context) error {
	_, version, err := m.load()
	if err != nil {
		return fmt.Errorf("loading catalog for version check: %w", err)
	}

	if !m.store.Exists() {
		m.log.Info().Msg("no cache on disk; index build required")
		return nil
	}

	snap, err := m.store.Load()
	if err != nil {
		m.log.Warn().Err(err).Msg("cache unreadable; index build required")
		return nil
	}
	if snap.CatalogVersion != version {
		m.log.Info().
			Str("cache_version", snap.CatalogVersion).
			Str("catalog_version", version).
			Msg("cache is stale; index build required")
		return nil
	}

	idx := index.FromEntries(snap.Entries, snap.Dimension, snap.Warning)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.idx = idx
	m.meta = types.CacheMetadata{
		State:           types.CacheReady,
		CatalogVersion:  snap.CatalogVersion,
		RecordCount:     idx.Size(),
		Dimension:       snap.Dimension,
		BuildFinishedAt: snap.BuiltAt,
		ErrorDetail:     snap.Warning,
	}
	m.log.Info().
		Int("records", idx.Size()).
		Str("catalog_version", version).
		Msg("loaded cached index")
	return nil
}

// Current returns a snapshot of the cache metadata.
func (m *Manager) Current() types.CacheMetadata {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.meta
}

// CacheExists reports whether a persisted cache file is present.
func (m *Manager) CacheExists() bool { return m.store.Exists() }

// IndexIfReady returns the current fully-built index, or nil. After a
// failed rebuild the previous ready index remains servable even though the
// state is error; a half-built index is never returned because builds only
// publish complete indices.
func (m *Manager) IndexIfReady() (*index.EmbeddingIndex, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.idx == nil {
		return nil, false
	}
	return m.idx, true
}

// Build starts a background build and returns its handle. If a build is
// already running in this process the existing handle is returned (no-op).
// If another process holds the build lock, Build returns ErrBuildLocked.
func (m *Manager) Build(ctx context.Context) (*BuildHandle, error) {
	m.mu.Lock()
	if m.building != nil {
		h := m.building
		m.mu.Unlock()
		return h, nil
	}

	locked, err := m.lock.TryLock()
	if err != nil {
		m.mu.Unlock()
		return nil, fmt.Errorf("acquiring build lock: %w", err)
	}
	if !locked {
		m.mu.Unlock()
		return nil, ErrBuildLocked
	}

	h := &BuildHandle{done: make(chan struct{})}
	m.building = h
	m.meta.State = types.CacheBuilding
	m.meta.BuildStartedAt = time.Now().UTC()
	m.meta.BuildFinishedAt = time.Time{}
	m.meta.ErrorDetail = ""
	m.mu.Unlock()

	go m.runBuild(ctx, h)
	return h, nil
}

// runBuild performs the build and publishes the outcome. The build lock is
// held for the build's full duration. On any failure the previous ready
// index and cache file are left untouched and still servable.
func (m *Manager) runBuild(ctx context.Context, h *BuildHandle) {
	err := m.build(ctx)

	m.mu.Lock()
	m.building = nil
	m.meta.BuildFinishedAt = time.Now().UTC()
	if err != nil {
		m.meta.State = types.CacheError
		m.meta.ErrorDetail = err.Error()
		m.log.Error().Err(err).Msg("index build failed")
	}
	m.mu.Unlock()

	if unlockErr := m.lock.Unlock(); unlockErr != nil {
		m.log.Warn().Err(unlockErr).Msg("releasing build lock")
	}

	h.err = err
	close(h.done)
}

func (m *Manager) build(ctx context.Context) error {
	start := time.Now()

	records, version, err := m.load()
	if err != nil {
		return err
	}
	m.log.Info().Int("records", len(records)).Str("catalog_version", version).Msg("building embedding index")

	idx, err := index.Build(ctx, records, m.embedder, m.opts)
	if err != nil {
		return err
	}

	snap := &cachestore.Snapshot{
		CatalogVersion: version,
		Dimension:      idx.Dimension(),
		BuiltAt:        time.Now().UTC(),
		Warning:        idx.Warning(),
		Entries:        idx.Entries(),
	}
	if err := m.store.Save(snap); err != nil {
		return fmt.Errorf("persisting cache: %w", err)
	}

	m.mu.Lock()
	m.idx = idx
	m.meta.State = types.CacheReady
	m.meta.CatalogVersion = version
	m.meta.RecordCount = idx.Size()
	m.meta.Dimension = idx.Dimension()
	m.meta.ErrorDetail = idx.Warning()
	m.mu.Unlock()

	m.log.Info().
		Int("indexed", idx.Size()).
		Dur("elapsed", time.Since(start)).
		Msg("index build complete")
	return nil
}

// Invalidate discards the in-memory index and deletes the persisted cache.
// This is the only path from ready to absent. A running build is not
// interrupted; Invalidate refuses while building.
func (m *Manager) Invalidate() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.meta.State == types.CacheBuilding {
		return fmt.Errorf("cannot invalidate while a build is in progress")
	}
	if err := m.store.Remove(); err != nil {
		return err
	}
	m.idx = nil
	m.meta = types.CacheMetadata{State: types.CacheAbsent}
	m.log.Info().Msg("cache invalidated")
	return nil
}
