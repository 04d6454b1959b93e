// Package retry provides a small bounded exponential backoff policy shared by
// the timer registry, the session controller, and the presentation layer.
package retry

import (
	"context"
	"time"

	"github.com/jpillora/backoff"
)

// Policy describes a bounded retry schedule: up to MaxAttempts tries with
// exponential delays between them, starting at MinDelay and capped at
// MaxDelay.
type Policy struct {
	MaxAttempts int
	MinDelay    time.Duration
	MaxDelay    time.Duration
	Factor      float64
}

// Default is the schedule used for timer registration: three attempts with
// delays of 100ms and 200ms between them.
var Default = Policy{
	MaxAttempts: 3,
	MinDelay:    100 * time.Millisecond,
	MaxDelay:    2 * time.Second,
	Factor:      2,
}

func (p Policy) newBackoff() *backoff.Backoff {
	return &backoff.Backoff{
		Min:    p.MinDelay,
		Max:    p.MaxDelay,
		Factor: p.Factor,
		Jitter: false,
	}
}

// Do invokes fn until it returns nil, the attempt budget is exhausted, or ctx
// is cancelled. It returns the error from the final attempt, or ctx.Err() if
// the context ended first. No delay is taken after the last attempt.
func (p Policy) Do(ctx context.Context, fn func(attempt int) error) error {
	b := p.newBackoff()
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(attempt); err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(b.Duration()):
		}
	}
	return err
}
