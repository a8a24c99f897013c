// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ready

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pdiddy/unimatch/pkg/types"
)

// fastSleep counts sleeps without actually sleeping.
func fastSleep(sleeps *int) func(context.Context, time.Duration) error {
	return func(ctx context.Context, _ time.Duration) error {
		*sleeps++
		return ctx.Err()
	}
}

func TestWaitReadyImmediately(t *testing.T) {
	sleeps := 0
	p := &Poller{Sleep: fastSleep(&sleeps)}

	ok := p.Wait(context.Background(), func(context.Context) (types.ReadinessStatus, error) {
		return types.ReadinessStatus{Ready: true}, nil
	})
	if !ok {
		t.Fatal("Wait should report ready")
	}
	if sleeps != 0 {
		t.Errorf("sleeps = %d, want 0 when ready on the first attempt", sleeps)
	}
}

func TestWaitBecomesReady(t *testing.T) {
	sleeps := 0
	attempts := 0
	p := &Poller{MaxAttempts: 10, Sleep: fastSleep(&sleeps)}

	ok := p.Wait(context.Background(), func(context.Context) (types.ReadinessStatus, error) {
		attempts++
		return types.ReadinessStatus{Ready: attempts >= 4, CacheState: types.CacheBuilding}, nil
	})
	if !ok {
		t.Fatal("Wait should report ready")
	}
	if attempts != 4 {
		t.Errorf("attempts = %d, want 4", attempts)
	}
	if sleeps != 3 {
		t.Errorf("sleeps = %d, want 3 (no sleep after the final attempt)", sleeps)
	}
}

func TestWaitExhaustsAttempts(t *testing.T) {
	sleeps := 0
	attempts := 0
	p := &Poller{MaxAttempts: 5, Sleep: fastSleep(&sleeps)}

	ok := p.Wait(context.Background(), func(context.Context) (types.ReadinessStatus, error) {
		attempts++
		return types.ReadinessStatus{CacheState: types.CacheBuilding}, nil
	})
	if ok {
		t.Fatal("Wait should give up")
	}
	if attempts != 5 {
		t.Errorf("attempts = %d, want 5", attempts)
	}
	if sleeps != 4 {
		t.Errorf("sleeps = %d, want 4", sleeps)
	}
}

func TestWaitCountsUnreachableAsAttempt(t *testing.T) {
	attempts := 0
	sleeps := 0
	p := &Poller{MaxAttempts: 3, Sleep: fastSleep(&sleeps)}

	ok := p.Wait(context.Background(), func(context.Context) (types.ReadinessStatus, error) {
		attempts++
		return types.ReadinessStatus{}, errors.New("connection refused")
	})
	if ok {
		t.Fatal("Wait should give up")
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3 (connectivity failures spend the budget)", attempts)
	}
}

func TestWaitCancelledMidSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	p := &Poller{
		MaxAttempts: 100,
		Sleep: func(ctx context.Context, _ time.Duration) error {
			cancel()
			return ctx.Err()
		},
	}

	ok := p.Wait(ctx, func(context.Context) (types.ReadinessStatus, error) {
		attempts++
		return types.ReadinessStatus{}, nil
	})
	if ok {
		t.Fatal("Wait should stop on cancellation")
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 (cancellation mid-sleep stops polling)", attempts)
	}
}

func TestWaitCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &Poller{}
	ok := p.Wait(ctx, func(context.Context) (types.ReadinessStatus, error) {
		t.Fatal("fn should not run with a cancelled context")
		return types.ReadinessStatus{}, nil
	})
	if ok {
		t.Error("Wait should return false immediately")
	}
}
