package services

import (
	"sync"
	"testing"
	"time"

	"github.com/IANDYI/lifeclock-service/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountdownClock_IdleSnapshotIsZero(t *testing.T) {
	clock := NewCountdownClock()

	assert.False(t, clock.Running())
	assert.Equal(t, domain.RemainingDuration{}, clock.Snapshot())
}

func TestCountdownClock_SnapshotAgainstTarget(t *testing.T) {
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	clock := NewCountdownClock()
	clock.now = func() time.Time { return now }

	clock.Start(now.Add(48*time.Hour+30*time.Second), func(domain.RemainingDuration) {})
	defer clock.Reset()

	snap := clock.Snapshot()
	assert.Equal(t, int64(2), snap.Days)
	assert.Equal(t, int64(30), snap.Seconds)
}

func TestCountdownClock_ClampedAtZeroStaysRunning(t *testing.T) {
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	clock := NewCountdownClock()
	clock.now = func() time.Time { return now }

	// Target already in the past: the clock keeps ticking, all zeros
	clock.Start(now.Add(-time.Hour), func(domain.RemainingDuration) {})
	defer clock.Reset()

	assert.True(t, clock.Running())
	assert.True(t, clock.Snapshot().IsZero())
}

func TestCountdownClock_StartWhileRunningIsNoOp(t *testing.T) {
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	clock := NewCountdownClock()
	clock.now = func() time.Time { return now }

	clock.Start(now.Add(time.Hour), func(domain.RemainingDuration) {})
	defer clock.Reset()

	// Second Start must not replace the target
	clock.Start(now.Add(10*time.Hour), func(domain.RemainingDuration) {})

	assert.Equal(t, int64(1), clock.Snapshot().Hours)
}

func TestCountdownClock_TickDelivery(t *testing.T) {
	clock := NewCountdownClock()

	ticks := make(chan domain.RemainingDuration, 4)
	clock.Start(time.Now().Add(time.Hour), func(r domain.RemainingDuration) {
		select {
		case ticks <- r:
		default:
		}
	})
	defer clock.Reset()

	select {
	case r := <-ticks:
		assert.Equal(t, int64(0), r.Days)
		assert.LessOrEqual(t, r.Minutes, int64(59))
	case <-time.After(3 * TickInterval):
		t.Fatal("no tick delivered")
	}
}

func TestCountdownClock_NoTickAfterReset(t *testing.T) {
	clock := NewCountdownClock()

	var mu sync.Mutex
	ticked := false
	clock.Start(time.Now().Add(time.Hour), func(domain.RemainingDuration) {
		mu.Lock()
		ticked = true
		mu.Unlock()
	})

	clock.Reset()
	require.False(t, clock.Running())

	mu.Lock()
	ticked = false
	mu.Unlock()

	time.Sleep(TickInterval + 200*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.False(t, ticked, "tick fired after reset")
}

func TestCountdownClock_ResetIdleIsNoOp(t *testing.T) {
	clock := NewCountdownClock()
	clock.Reset()
	clock.Reset()
	assert.False(t, clock.Running())
}

func TestCountdownClock_RestartAfterReset(t *testing.T) {
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	clock := NewCountdownClock()
	clock.now = func() time.Time { return now }

	clock.Start(now.Add(time.Hour), func(domain.RemainingDuration) {})
	clock.Reset()

	clock.Start(now.Add(5*time.Hour), func(domain.RemainingDuration) {})
	defer clock.Reset()

	assert.Equal(t, int64(5), clock.Snapshot().Hours)
}
