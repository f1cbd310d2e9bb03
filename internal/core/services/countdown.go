package services

import (
	"sync"
	"time"

	"github.com/IANDYI/lifeclock-service/internal/core/domain"
)

// TickInterval is the fixed countdown recomputation period
const TickInterval = 1 * time.Second

// CountdownClock recomputes the remaining-time decomposition against a fixed
// target date every tick. It has two states: Idle (no target) and Running
// (target fixed, ticking). Reaching the target does not stop the clock; all
// components simply report zero. Only an explicit Reset returns it to Idle
// and deterministically cancels the tick, so no stale tick can ever run
// against a discarded target.
type CountdownClock struct {
	mu      sync.Mutex
	target  time.Time
	running bool
	stop    chan struct{}
	done    chan struct{}

	// now is stubbable in tests; defaults to time.Now
	now func() time.Time
}

// NewCountdownClock creates a clock in the Idle state
func NewCountdownClock() *CountdownClock {
	return &CountdownClock{now: time.Now}
}

// Start transitions Idle -> Running against the given target and invokes
// onTick with a fresh decomposition every second. Calling Start while
// Running is a no-op: the target is write-once until Reset.
func (c *CountdownClock) Start(target time.Time, onTick func(domain.RemainingDuration)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return
	}
	c.target = target
	c.running = true
	c.stop = make(chan struct{})
	c.done = make(chan struct{})

	go c.run(target, c.stop, c.done, onTick)
}

// run is the single ticking goroutine; ticks never overlap
func (c *CountdownClock) run(target time.Time, stop <-chan struct{}, done chan<- struct{}, onTick func(domain.RemainingDuration)) {
	defer close(done)

	ticker := time.NewTicker(TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			onTick(Remaining(target, c.now()))
		}
	}
}

// Snapshot returns the current decomposition without waiting for a tick.
// In the Idle state it returns the zero value.
func (c *CountdownClock) Snapshot() domain.RemainingDuration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return domain.RemainingDuration{}
	}
	return Remaining(c.target, c.now())
}

// Running reports whether the clock is ticking
func (c *CountdownClock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Reset transitions Running -> Idle, discarding the target. It blocks until
// the ticking goroutine has exited, so no tick fires after Reset returns.
// Resetting an Idle clock is a no-op.
func (c *CountdownClock) Reset() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	c.target = time.Time{}
	stop, done := c.stop, c.done
	c.mu.Unlock()

	close(stop)
	<-done
}
