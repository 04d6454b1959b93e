package config

import (
	"errors"
	"strings"
	"sync"
	"testing"
)

func TestStoreSetters(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		st := NewStore()
		s := st.Snapshot()
		if s.QuestionCount != nil {
			t.Errorf("expected no question limit, got %d", *s.QuestionCount)
		}
		if s.RandomOrder {
			t.Error("random order should default to off")
		}
		if s.TimerDuration != DefaultTimerDuration {
			t.Errorf("expected default timer %d, got %d", DefaultTimerDuration, s.TimerDuration)
		}
	})

	t.Run("question count bounds", func(t *testing.T) {
		st := NewStore()
		for _, n := range []int{0, -5, 101, 1000} {
			if err := st.SetQuestionCount(n); !errors.Is(err, ErrInvalidSetting) {
				t.Errorf("SetQuestionCount(%d): expected ErrInvalidSetting, got %v", n, err)
			}
		}
		if err := st.SetQuestionCount(1); err != nil {
			t.Errorf("SetQuestionCount(1) failed: %v", err)
		}
		if err := st.SetQuestionCount(100); err != nil {
			t.Errorf("SetQuestionCount(100) failed: %v", err)
		}
		if got := st.Snapshot().QuestionCount; got == nil || *got != 100 {
			t.Errorf("unexpected question count after set: %v", got)
		}
	})

	t.Run("clear question count", func(t *testing.T) {
		st := NewStore()
		st.SetQuestionCount(5)
		st.ClearQuestionCount()
		if st.Snapshot().QuestionCount != nil {
			t.Error("expected question count cleared")
		}
	})

	t.Run("timer duration bounds", func(t *testing.T) {
		st := NewStore()
		for _, sec := range []int{0, 4, 301, -1} {
			if err := st.SetTimerDuration(sec); !errors.Is(err, ErrInvalidSetting) {
				t.Errorf("SetTimerDuration(%d): expected ErrInvalidSetting, got %v", sec, err)
			}
		}
		if err := st.SetTimerDuration(5); err != nil {
			t.Errorf("SetTimerDuration(5) failed: %v", err)
		}
		if err := st.SetTimerDuration(300); err != nil {
			t.Errorf("SetTimerDuration(300) failed: %v", err)
		}
	})

	t.Run("toggle random order", func(t *testing.T) {
		st := NewStore()
		if got := st.ToggleRandomOrder(); !got {
			t.Error("first toggle should enable random order")
		}
		if got := st.ToggleRandomOrder(); got {
			t.Error("second toggle should disable random order")
		}
	})

	t.Run("reset defaults", func(t *testing.T) {
		st := NewStore()
		st.SetQuestionCount(7)
		st.SetTimerDuration(60)
		st.SetRandomOrder(true)
		st.ResetDefaults()
		s := st.Snapshot()
		if s.QuestionCount != nil || s.RandomOrder || s.TimerDuration != DefaultTimerDuration {
			t.Errorf("unexpected settings after reset: %+v", s)
		}
	})
}

func TestSnapshotIsolation(t *testing.T) {
	st := NewStore()
	st.SetQuestionCount(10)

	snap := st.Snapshot()
	*snap.QuestionCount = 99

	if got := *st.Snapshot().QuestionCount; got != 10 {
		t.Errorf("mutating snapshot leaked into store: got %d", got)
	}
}

func TestSettingsValidate(t *testing.T) {
	five := 5
	zero := 0
	cases := []struct {
		name    string
		s       Settings
		wantErr bool
	}{
		{"valid defaults", DefaultSettings(), false},
		{"valid with count", Settings{QuestionCount: &five, TimerDuration: 30}, false},
		{"timer too low", Settings{TimerDuration: 4}, true},
		{"timer too high", Settings{TimerDuration: 301}, true},
		{"count too low", Settings{QuestionCount: &zero, TimerDuration: 30}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.s.Validate()
			if tc.wantErr && !errors.Is(err, ErrInvalidSetting) {
				t.Errorf("expected ErrInvalidSetting, got %v", err)
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestSettingsSummary(t *testing.T) {
	st := NewStore()
	s := st.Snapshot().Summary()
	if !strings.Contains(s, "all") || !strings.Contains(s, "30s") {
		t.Errorf("unexpected summary: %q", s)
	}

	st.SetQuestionCount(12)
	st.SetRandomOrder(true)
	s = st.Snapshot().Summary()
	if !strings.Contains(s, "12") || !strings.Contains(s, "on") {
		t.Errorf("unexpected summary: %q", s)
	}
}

func TestStoreConcurrentAccess(t *testing.T) {
	st := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			st.SetQuestionCount(n%MaxQuestionCount + 1)
			st.SetTimerDuration(MinTimerDuration + n)
			st.ToggleRandomOrder()
			st.Snapshot()
		}(i)
	}
	wg.Wait()

	if err := st.Snapshot().Validate(); err != nil {
		t.Errorf("settings invalid after concurrent writes: %v", err)
	}
}
