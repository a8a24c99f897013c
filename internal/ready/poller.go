// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ready

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/unimatch/pkg/types"
)

// StatusFunc fetches one readiness status. Implementations may read a local
// Reporter or call the health endpoint of a remote process; a returned
// error means the status could not be fetched at all (connectivity), which
// counts as an attempt but is logged differently from "not ready yet".
type StatusFunc func(ctx context.Context) (types.ReadinessStatus, error)

// Poller waits for a StatusFunc to report ready, sleeping Interval between
// attempts. It is cooperative: it suspends only at its own sleep points,
// cancels cleanly through the context, and leaves no timers running after
// cancellation.
type Poller struct {
	// MaxAttempts bounds the number of status fetches (default 30).
	MaxAttempts int

	// Interval is the sleep between attempts (default 2s).
	Interval time.Duration

	// Sleep is injectable for tests; nil means a context-aware real sleep.
	Sleep func(ctx context.Context, d time.Duration) error

	Log zerolog.Logger
}

const (
	defaultMaxAttempts = 30
	defaultInterval    = 2 * time.Second
)

// Wait polls until fn reports ready or the attempt budget is exhausted.
// Returns true on ready, false on exhaustion or context cancellation.
// Cancellation mid-sleep stops polling immediately with no side effects.
func (p *Poller) Wait(ctx context.Context, fn StatusFunc) bool {
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	interval := p.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if ctx.Err() != nil {
			return false
		}

		st, err := fn(ctx)
		switch {
		case err != nil:
			p.Log.Warn().Err(err).Int("attempt", attempt).Msg("readiness check unreachable")
		case st.Ready:
			p.Log.Debug().Int("attempt", attempt).Msg("system ready")
			return true
		default:
			p.Log.Debug().
				Int("attempt", attempt).
				Str("state", string(st.CacheState)).
				Msg("not ready yet")
		}

		if attempt == maxAttempts {
			break
		}
		if err := sleep(ctx, interval); err != nil {
			return false
		}
	}
	return false
}

// sleepCtx sleeps for d or until ctx is cancelled, whichever comes first.
// The timer is always stopped, so cancellation leaves nothing behind.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
