package service

import (
	"context"

	"github.com/quizwire/quizwire/presenter"
	"github.com/quizwire/quizwire/quiz/session"
)

// QuizService is the operation surface consumed by the transports.
type QuizService interface {
	// StartQuiz begins a quiz in the channel with the current global settings.
	StartQuiz(ctx context.Context, channelKey, quizName string) (*StartResult, error)

	// StopQuiz ends the channel's quiz and returns its final snapshot.
	StopQuiz(ctx context.Context, channelKey string) (*StopResult, error)

	// PauseQuiz freezes the channel's quiz and its countdown.
	PauseQuiz(ctx context.Context, channelKey string) (*ControlResult, error)

	// ResumeQuiz lifts a pause on the channel's quiz.
	ResumeQuiz(ctx context.Context, channelKey string) (*ControlResult, error)

	// QuizStatus reports the channel's session progress, timer state, and
	// recent errors.
	QuizStatus(ctx context.Context, channelKey string) (*StatusResult, error)

	// ListQuizzes returns the available question sets.
	ListQuizzes(ctx context.Context) ([]QuizInfo, error)

	// ReloadQuizzes rescans the quiz directory and returns the refreshed list.
	ReloadQuizzes(ctx context.Context) ([]QuizInfo, error)

	// ListSessions returns a snapshot of every tracked session.
	ListSessions(ctx context.Context) ([]session.Snapshot, error)

	// GetSettings returns the current global settings.
	GetSettings(ctx context.Context) (*SettingsView, error)

	// UpdateSettings applies a partial settings change and returns the result.
	UpdateSettings(ctx context.Context, update SettingsUpdate) (*SettingsView, error)

	// Transcript returns the messages posted to the channel, oldest first.
	Transcript(ctx context.Context, channelKey string) ([]presenter.Message, error)
}
