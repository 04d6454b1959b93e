// Package config holds the global quiz settings and their validation rules.
//
// Settings apply to sessions started after a change; running sessions keep
// the snapshot they were started with.
package config

import (
	"errors"
	"fmt"
	"sync"
)

// Bounds for user-adjustable settings.
const (
	MinTimerDuration = 5
	MaxTimerDuration = 300
	MinQuestionCount = 1
	MaxQuestionCount = 100

	DefaultTimerDuration = 30
)

// ErrInvalidSetting is returned when a setter receives an out-of-range value.
var ErrInvalidSetting = errors.New("invalid setting")

// Settings are the quiz parameters captured per session at start time.
// A nil QuestionCount means every question in the selected set is used.
type Settings struct {
	QuestionCount *int `json:"question_count,omitempty"`
	RandomOrder   bool `json:"random_order"`
	TimerDuration int  `json:"timer_duration"`
}

// Clone returns a value copy safe to hand to a session.
func (s Settings) Clone() Settings {
	out := s
	if s.QuestionCount != nil {
		n := *s.QuestionCount
		out.QuestionCount = &n
	}
	return out
}

// Validate checks the settings against the allowed bounds.
func (s Settings) Validate() error {
	if s.TimerDuration < MinTimerDuration || s.TimerDuration > MaxTimerDuration {
		return fmt.Errorf("%w: timer duration must be between %d and %d seconds, got %d",
			ErrInvalidSetting, MinTimerDuration, MaxTimerDuration, s.TimerDuration)
	}
	if s.QuestionCount != nil {
		if n := *s.QuestionCount; n < MinQuestionCount || n > MaxQuestionCount {
			return fmt.Errorf("%w: question count must be between %d and %d, got %d",
				ErrInvalidSetting, MinQuestionCount, MaxQuestionCount, n)
		}
	}
	return nil
}

// Summary renders the settings in the form shown to users.
func (s Settings) Summary() string {
	count := "all"
	if s.QuestionCount != nil {
		count = fmt.Sprintf("%d", *s.QuestionCount)
	}
	order := "off"
	if s.RandomOrder {
		order = "on"
	}
	return fmt.Sprintf("questions: %s, random order: %s, timer: %ds", count, order, s.TimerDuration)
}

// DefaultSettings returns the out-of-the-box configuration.
func DefaultSettings() Settings {
	return Settings{
		QuestionCount: nil,
		RandomOrder:   false,
		TimerDuration: DefaultTimerDuration,
	}
}

// Store holds the current global settings behind a mutex.
type Store struct {
	mu       sync.RWMutex
	settings Settings
}

// NewStore creates a store with default settings.
func NewStore() *Store {
	return &Store{settings: DefaultSettings()}
}

// Snapshot returns an independent copy of the current settings.
func (st *Store) Snapshot() Settings {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.settings.Clone()
}

// SetQuestionCount limits future sessions to n questions.
func (st *Store) SetQuestionCount(n int) error {
	if n < MinQuestionCount || n > MaxQuestionCount {
		return fmt.Errorf("%w: question count must be between %d and %d, got %d",
			ErrInvalidSetting, MinQuestionCount, MaxQuestionCount, n)
	}
	st.mu.Lock()
	st.settings.QuestionCount = &n
	st.mu.Unlock()
	return nil
}

// ClearQuestionCount removes the question limit so full sets are used again.
func (st *Store) ClearQuestionCount() {
	st.mu.Lock()
	st.settings.QuestionCount = nil
	st.mu.Unlock()
}

// SetTimerDuration sets the per-question countdown length in seconds.
func (st *Store) SetTimerDuration(seconds int) error {
	if seconds < MinTimerDuration || seconds > MaxTimerDuration {
		return fmt.Errorf("%w: timer duration must be between %d and %d seconds, got %d",
			ErrInvalidSetting, MinTimerDuration, MaxTimerDuration, seconds)
	}
	st.mu.Lock()
	st.settings.TimerDuration = seconds
	st.mu.Unlock()
	return nil
}

// SetRandomOrder enables or disables shuffling.
func (st *Store) SetRandomOrder(on bool) {
	st.mu.Lock()
	st.settings.RandomOrder = on
	st.mu.Unlock()
}

// ToggleRandomOrder flips shuffling and returns the new state.
func (st *Store) ToggleRandomOrder() bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.settings.RandomOrder = !st.settings.RandomOrder
	return st.settings.RandomOrder
}

// ResetDefaults restores the out-of-the-box configuration.
func (st *Store) ResetDefaults() {
	st.mu.Lock()
	st.settings = DefaultSettings()
	st.mu.Unlock()
}
