package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// State is the lifecycle position of a Countdown.
type State int

const (
	StateIdle State = iota
	StateRunning
	StatePaused
	StateCompleted
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

const (
	defaultTickInterval = time.Second
	defaultPollInterval = 100 * time.Millisecond
)

// Countdown counts a duration down one second at a time. Pausing freezes the
// remaining time without discarding it; while paused the run loop polls every
// pollInterval so cancellation stays observable within one poll. Callback
// errors are collected and returned by Run after the countdown reaches a
// terminal state; they never abort the countdown.
type Countdown struct {
	tickInterval time.Duration
	pollInterval time.Duration

	onTick     func(remaining int) error
	onComplete func() error

	mu        sync.Mutex
	state     State
	total     int
	remaining int
	pauseReq  bool
	cancelReq bool
}

// NewCountdown creates an idle countdown of the given number of seconds.
// Both callbacks may be nil.
func NewCountdown(seconds int, onTick func(remaining int) error, onComplete func() error) *Countdown {
	return &Countdown{
		tickInterval: defaultTickInterval,
		pollInterval: defaultPollInterval,
		onTick:       onTick,
		onComplete:   onComplete,
		state:        StateIdle,
		total:        seconds,
		remaining:    seconds,
	}
}

// Run drives the countdown until it completes or is cancelled, invoking
// onTick with the remaining seconds at the start of each second and
// onComplete when the time is up. It blocks until a terminal state and
// returns the joined callback errors, if any. Run may be called at most once.
func (c *Countdown) Run(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateIdle {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("countdown already started (state %s)", state)
	}
	c.state = StateRunning
	c.mu.Unlock()

	var errs []error
	for {
		c.mu.Lock()
		if c.cancelReq || ctx.Err() != nil {
			c.state = StateCancelled
			c.mu.Unlock()
			return errors.Join(errs...)
		}
		if c.pauseReq {
			c.state = StatePaused
			c.mu.Unlock()
			if !c.sleep(ctx, c.pollInterval) {
				return errors.Join(errs...)
			}
			continue
		}
		if c.state == StatePaused {
			c.state = StateRunning
		}
		if c.remaining <= 0 {
			c.state = StateCompleted
			c.mu.Unlock()
			break
		}
		remaining := c.remaining
		c.mu.Unlock()

		// Tick with the full remaining value before the wait, so a 3s
		// countdown shows 3, 2, 1 and never a zero.
		if c.onTick != nil {
			if err := c.onTick(remaining); err != nil {
				errs = append(errs, fmt.Errorf("tick callback at %ds: %w", remaining, err))
			}
		}

		if !c.sleep(ctx, c.tickInterval) {
			return errors.Join(errs...)
		}

		c.mu.Lock()
		if c.cancelReq {
			c.state = StateCancelled
			c.mu.Unlock()
			return errors.Join(errs...)
		}
		c.remaining--
		c.mu.Unlock()
	}

	if c.onComplete != nil {
		if err := c.onComplete(); err != nil {
			errs = append(errs, fmt.Errorf("completion callback: %w", err))
		}
	}
	return errors.Join(errs...)
}

// sleep waits for d or context cancellation, marking the countdown cancelled
// and reporting false when the context ends first.
func (c *Countdown) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		c.mu.Lock()
		c.state = StateCancelled
		c.mu.Unlock()
		return false
	case <-time.After(d):
		return true
	}
}

// Pause requests the countdown to freeze. It reports whether the countdown
// was still live.
func (c *Countdown) Pause() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateCompleted || c.state == StateCancelled {
		return false
	}
	c.pauseReq = true
	return true
}

// Resume lifts a pause. It reports whether the countdown was still live.
func (c *Countdown) Resume() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateCompleted || c.state == StateCancelled {
		return false
	}
	c.pauseReq = false
	return true
}

// Cancel requests termination. The run loop observes it within one poll
// interval while paused and within one tick while running.
func (c *Countdown) Cancel() {
	c.mu.Lock()
	c.cancelReq = true
	c.mu.Unlock()
}

// State returns the current lifecycle state.
func (c *Countdown) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Remaining returns the seconds left on the countdown.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Total returns the configured duration in seconds.
func (c *Countdown) Total() int {
	return c.total
}

// Paused reports whether a pause is in effect or requested.
func (c *Countdown) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pauseReq && c.state != StateCompleted && c.state != StateCancelled
}
