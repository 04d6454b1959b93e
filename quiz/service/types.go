package service

import (
	"github.com/quizwire/quizwire/quiz/config"
	"github.com/quizwire/quizwire/quiz/session"
)

// QuizInfo describes one loadable question set.
type QuizInfo struct {
	Name      string `json:"name"`
	Questions int    `json:"questions"`
}

// StartResult is returned by StartQuiz.
type StartResult struct {
	Session session.Snapshot `json:"session"`
	Message string           `json:"message"`
}

// StopResult is returned by StopQuiz with the final session snapshot.
type StopResult struct {
	Session session.Snapshot `json:"session"`
	Message string           `json:"message"`
}

// ControlResult is returned by PauseQuiz and ResumeQuiz. Changed is false
// when the request was an idempotent no-op.
type ControlResult struct {
	Changed bool   `json:"changed"`
	Message string `json:"message"`
}

// StatusResult is returned by QuizStatus.
type StatusResult struct {
	Session session.Snapshot     `json:"session"`
	Errors  []session.ErrorEntry `json:"errors,omitempty"`
	Message string               `json:"message"`
}

// SettingsView is the settings snapshot plus its rendered summary.
type SettingsView struct {
	Settings config.Settings `json:"settings"`
	Summary  string          `json:"summary"`
}

// SettingsUpdate carries a partial settings change; nil fields are left
// untouched. AllQuestions set to true clears the question limit.
type SettingsUpdate struct {
	QuestionCount *int  `json:"question_count,omitempty"`
	AllQuestions  *bool `json:"all_questions,omitempty"`
	RandomOrder   *bool `json:"random_order,omitempty"`
	TimerDuration *int  `json:"timer_duration,omitempty"`
}
