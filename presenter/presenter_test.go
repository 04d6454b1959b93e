package presenter

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestMemorySendAndEdit(t *testing.T) {
	ctx := context.Background()

	t.Run("send appends to transcript", func(t *testing.T) {
		m := NewMemory()
		ref, err := m.Send(ctx, "chan-1", "hello")
		if err != nil {
			t.Fatalf("Send failed: %v", err)
		}
		if ref == "" {
			t.Fatal("expected non-empty message ref")
		}

		msgs := m.Transcript("chan-1")
		if len(msgs) != 1 {
			t.Fatalf("expected 1 message, got %d", len(msgs))
		}
		if msgs[0].Text != "hello" {
			t.Errorf("unexpected text: %q", msgs[0].Text)
		}
		if msgs[0].Edited {
			t.Error("fresh message should not be marked edited")
		}
	})

	t.Run("edit replaces text in place", func(t *testing.T) {
		m := NewMemory()
		ref, _ := m.Send(ctx, "chan-1", "question")
		if err := m.Edit(ctx, "chan-1", ref, "answer"); err != nil {
			t.Fatalf("Edit failed: %v", err)
		}

		msgs := m.Transcript("chan-1")
		if len(msgs) != 1 {
			t.Fatalf("expected 1 message, got %d", len(msgs))
		}
		if msgs[0].Text != "answer" {
			t.Errorf("expected edited text, got %q", msgs[0].Text)
		}
		if !msgs[0].Edited {
			t.Error("message should be marked edited")
		}
	})

	t.Run("edit unknown ref fails", func(t *testing.T) {
		m := NewMemory()
		err := m.Edit(ctx, "chan-1", "nope", "text")
		if !errors.Is(err, ErrMessageNotFound) {
			t.Errorf("expected ErrMessageNotFound, got %v", err)
		}
	})

	t.Run("channels are isolated", func(t *testing.T) {
		m := NewMemory()
		m.Send(ctx, "chan-1", "one")
		m.Send(ctx, "chan-2", "two")

		if got := len(m.Transcript("chan-1")); got != 1 {
			t.Errorf("chan-1: expected 1 message, got %d", got)
		}
		if got := len(m.Transcript("chan-2")); got != 1 {
			t.Errorf("chan-2: expected 1 message, got %d", got)
		}
	})

	t.Run("transcript is a copy", func(t *testing.T) {
		m := NewMemory()
		m.Send(ctx, "chan-1", "original")
		msgs := m.Transcript("chan-1")
		msgs[0].Text = "mutated"
		if m.Transcript("chan-1")[0].Text != "original" {
			t.Error("mutating returned transcript affected stored messages")
		}
	})

	t.Run("clear drops transcript", func(t *testing.T) {
		m := NewMemory()
		m.Send(ctx, "chan-1", "msg")
		m.Clear("chan-1")
		if got := len(m.Transcript("chan-1")); got != 0 {
			t.Errorf("expected empty transcript, got %d messages", got)
		}
	})
}

func TestMemoryConcurrentAccess(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				ref, err := m.Send(ctx, "shared", "msg")
				if err != nil {
					t.Errorf("Send failed: %v", err)
					return
				}
				if err := m.Edit(ctx, "shared", ref, "edited"); err != nil {
					t.Errorf("Edit failed: %v", err)
					return
				}
				m.Transcript("shared")
			}
		}()
	}
	wg.Wait()

	if got := len(m.Transcript("shared")); got != 200 {
		t.Errorf("expected 200 messages, got %d", got)
	}
}
