package session

import (
	"context"

	"github.com/quizwire/quizwire/quiz/config"
	"github.com/quizwire/quizwire/quiz/data"
	"github.com/quizwire/quizwire/quiz/engine"
)

// Timer is the handle the controller needs from a running countdown.
type Timer interface {
	Done() <-chan struct{}
	Completed() bool
	Err() error
	Remaining() int
}

// TimerRegistry is the per-channel timer lifecycle the controller drives.
// Implemented by engine.Registry via WrapRegistry.
type TimerRegistry interface {
	Ready(key string) bool
	StartTimer(ctx context.Context, key string, seconds int, onTick func(remaining int) error, onComplete func() error) (Timer, error)
	CancelTimer(key string) bool
	PauseTimer(key string) bool
	ResumeTimer(key string) bool
	Status(key string) (engine.TimerStatus, bool)
}

// QuestionSource provides named question sets. Implemented by data.Repository.
type QuestionSource interface {
	Questions(name string) ([]data.Question, error)
	Names() []string
}

// SettingsSource provides the settings snapshot captured at session start.
// Implemented by config.Store.
type SettingsSource interface {
	Snapshot() config.Settings
}

type registryAdapter struct {
	*engine.Registry
}

func (a registryAdapter) StartTimer(ctx context.Context, key string, seconds int, onTick func(remaining int) error, onComplete func() error) (Timer, error) {
	t, err := a.Registry.StartTimer(ctx, key, seconds, onTick, onComplete)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// WrapRegistry adapts an engine.Registry to the TimerRegistry interface.
func WrapRegistry(r *engine.Registry) TimerRegistry {
	return registryAdapter{r}
}
