package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/quizwire/quizwire/retry"
)

const defaultCancelWait = 2 * time.Second

// Timer is a handle to a countdown registered for a channel key. Done closes
// when the countdown goroutine reaches a terminal state; Err then carries any
// callback errors the run collected.
type Timer struct {
	key       string
	countdown *Countdown
	cancel    context.CancelFunc
	done      chan struct{}

	mu  sync.Mutex
	err error
}

// Done returns a channel closed when the countdown has finished or been
// cancelled.
func (t *Timer) Done() <-chan struct{} { return t.done }

// Completed reports whether the countdown ran to zero rather than being
// cancelled.
func (t *Timer) Completed() bool { return t.countdown.State() == StateCompleted }

// Err returns the joined callback errors collected by the run, if any. It is
// meaningful once Done is closed.
func (t *Timer) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Remaining returns the seconds left on the countdown.
func (t *Timer) Remaining() int { return t.countdown.Remaining() }

// TimerStatus is a point-in-time view of a registered timer.
type TimerStatus struct {
	Remaining int  `json:"remaining"`
	Total     int  `json:"total"`
	Paused    bool `json:"paused"`
}

// Registry enforces at most one live timer per channel key. Countdown
// goroutines are launched by the registry and never block the caller.
type Registry struct {
	logger     *slog.Logger
	policy     retry.Policy
	cancelWait time.Duration

	// countdown intervals, overridable in tests
	tickInterval time.Duration
	pollInterval time.Duration

	mu     sync.Mutex
	timers map[string]*Timer
}

// NewRegistry creates an empty timer registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		logger:       logger,
		policy:       retry.Default,
		cancelWait:   defaultCancelWait,
		tickInterval: defaultTickInterval,
		pollInterval: defaultPollInterval,
		timers:       make(map[string]*Timer),
	}
}

// Ready reports whether the channel can accept a new timer. A finished record
// found under the key is evicted as a side effect.
func (r *Registry) Ready(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.timers[key]
	if !ok {
		return true
	}
	select {
	case <-t.done:
		delete(r.timers, key)
		return true
	default:
		return false
	}
}

// StartTimer registers a countdown for the channel and launches it on its own
// goroutine. Registration is retried with exponential backoff; exhaustion
// yields ErrTimerConflict when a live timer kept the key busy, ErrTimerStart
// when creation itself kept failing.
func (r *Registry) StartTimer(ctx context.Context, key string, seconds int, onTick func(remaining int) error, onComplete func() error) (*Timer, error) {
	var (
		timer    *Timer
		conflict bool
	)
	err := r.policy.Do(ctx, func(attempt int) error {
		if !r.Ready(key) {
			// Try to clear the stale timer before giving up on this attempt.
			r.CancelTimer(key)
			if !r.Ready(key) {
				conflict = true
				r.logger.Warn("channel timer busy", "channel", key, "attempt", attempt)
				return fmt.Errorf("channel %s busy", key)
			}
		}
		conflict = false

		t, err := r.launch(key, seconds, onTick, onComplete)
		if err != nil {
			r.logger.Warn("timer creation failed", "channel", key, "attempt", attempt, "error", err)
			return err
		}
		timer = t
		return nil
	})
	if err != nil {
		if conflict {
			return nil, fmt.Errorf("%w: %s", ErrTimerConflict, key)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrTimerStart, key, err)
	}
	return timer, nil
}

// launch registers and starts a single countdown. A registration that loses a
// race to another caller is undone before returning.
func (r *Registry) launch(key string, seconds int, onTick func(remaining int) error, onComplete func() error) (*Timer, error) {
	if seconds <= 0 {
		return nil, fmt.Errorf("duration must be positive, got %d", seconds)
	}

	cd := NewCountdown(seconds, onTick, onComplete)
	cd.tickInterval = r.tickInterval
	cd.pollInterval = r.pollInterval

	ctx, cancel := context.WithCancel(context.Background())
	t := &Timer{
		key:       key,
		countdown: cd,
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	r.mu.Lock()
	if existing, ok := r.timers[key]; ok {
		select {
		case <-existing.done:
			delete(r.timers, key)
		default:
			r.mu.Unlock()
			cancel()
			return nil, fmt.Errorf("channel %s busy", key)
		}
	}
	r.timers[key] = t
	r.mu.Unlock()

	go func() {
		defer close(t.done)
		if err := cd.Run(ctx); err != nil {
			t.mu.Lock()
			t.err = err
			t.mu.Unlock()
			r.logger.Error("countdown callbacks reported errors", "channel", key, "error", err)
		}
	}()

	r.logger.Info("timer started", "channel", key, "duration", seconds)
	return t, nil
}

// CancelTimer stops the channel's timer and waits for the countdown goroutine
// to acknowledge. If it does not stop within the wait window the record is
// force-evicted so the channel becomes usable again. It reports whether a
// timer was registered.
func (r *Registry) CancelTimer(key string) bool {
	r.mu.Lock()
	t, ok := r.timers[key]
	r.mu.Unlock()
	if !ok {
		return false
	}

	t.countdown.Cancel()
	t.cancel()

	select {
	case <-t.done:
	case <-time.After(r.cancelWait):
		r.logger.Warn("timer did not acknowledge cancellation, force evicting", "channel", key)
	}

	r.mu.Lock()
	if r.timers[key] == t {
		delete(r.timers, key)
	}
	r.mu.Unlock()

	r.logger.Info("timer cancelled", "channel", key)
	return true
}

// PauseTimer freezes the channel's countdown. It reports false when no live
// timer is registered.
func (r *Registry) PauseTimer(key string) bool {
	t, ok := r.live(key)
	if !ok {
		return false
	}
	return t.countdown.Pause()
}

// ResumeTimer lifts a pause on the channel's countdown. It reports false when
// no live timer is registered.
func (r *Registry) ResumeTimer(key string) bool {
	t, ok := r.live(key)
	if !ok {
		return false
	}
	return t.countdown.Resume()
}

// Status returns a snapshot of the channel's live timer.
func (r *Registry) Status(key string) (TimerStatus, bool) {
	t, ok := r.live(key)
	if !ok {
		return TimerStatus{}, false
	}
	return TimerStatus{
		Remaining: t.countdown.Remaining(),
		Total:     t.countdown.Total(),
		Paused:    t.countdown.Paused(),
	}, true
}

// Count returns the number of registered timers, live or finished.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.timers)
}

func (r *Registry) live(key string) (*Timer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.timers[key]
	if !ok {
		return nil, false
	}
	select {
	case <-t.done:
		return nil, false
	default:
		return t, true
	}
}
