package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDo(t *testing.T) {
	fast := Policy{MaxAttempts: 3, MinDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond, Factor: 2}

	t.Run("succeeds first attempt", func(t *testing.T) {
		calls := 0
		err := fast.Do(context.Background(), func(attempt int) error {
			calls++
			return nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if calls != 1 {
			t.Errorf("expected 1 call, got %d", calls)
		}
	})

	t.Run("succeeds after retries", func(t *testing.T) {
		calls := 0
		err := fast.Do(context.Background(), func(attempt int) error {
			calls++
			if attempt < 3 {
				return errors.New("not yet")
			}
			return nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if calls != 3 {
			t.Errorf("expected 3 calls, got %d", calls)
		}
	})

	t.Run("returns last error on exhaustion", func(t *testing.T) {
		wantErr := errors.New("still failing")
		calls := 0
		err := fast.Do(context.Background(), func(attempt int) error {
			calls++
			return wantErr
		})
		if !errors.Is(err, wantErr) {
			t.Errorf("expected last error, got %v", err)
		}
		if calls != 3 {
			t.Errorf("expected 3 calls, got %d", calls)
		}
	})

	t.Run("passes attempt numbers", func(t *testing.T) {
		var attempts []int
		fast.Do(context.Background(), func(attempt int) error {
			attempts = append(attempts, attempt)
			return errors.New("fail")
		})
		if len(attempts) != 3 || attempts[0] != 1 || attempts[2] != 3 {
			t.Errorf("unexpected attempt sequence: %v", attempts)
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		slow := Policy{MaxAttempts: 5, MinDelay: time.Hour, MaxDelay: time.Hour, Factor: 2}
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			done <- slow.Do(ctx, func(attempt int) error {
				return errors.New("fail")
			})
		}()
		cancel()
		select {
		case err := <-done:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("expected context.Canceled, got %v", err)
			}
		case <-time.After(time.Second):
			t.Fatal("Do did not return after cancellation")
		}
	})

	t.Run("zero attempts runs once", func(t *testing.T) {
		p := Policy{MaxAttempts: 0, MinDelay: time.Millisecond, MaxDelay: time.Millisecond, Factor: 2}
		calls := 0
		p.Do(context.Background(), func(attempt int) error {
			calls++
			return errors.New("fail")
		})
		if calls != 1 {
			t.Errorf("expected 1 call, got %d", calls)
		}
	})
}
