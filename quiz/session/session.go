package session

import (
	"errors"
	"time"

	"github.com/quizwire/quizwire/quiz/config"
	"github.com/quizwire/quizwire/quiz/data"
	"github.com/quizwire/quizwire/quiz/engine"
)

var (
	// ErrSessionConflict is returned when a channel already has an active quiz.
	ErrSessionConflict = errors.New("quiz already running in channel")

	// ErrSessionNotFound is returned when a channel has no active quiz.
	ErrSessionNotFound = errors.New("no active quiz in channel")

	// ErrEmptyQuizSet is returned when question selection produced nothing to ask.
	ErrEmptyQuizSet = errors.New("quiz selection is empty")
)

// session is the mutable per-channel state, guarded by the controller mutex.
type session struct {
	channelKey string
	quizName   string
	questions  []data.Question
	cursor     int
	active     bool
	paused     bool
	settings   config.Settings
	startedAt  time.Time

	// closed exactly once when the session stops, interrupting fallback
	// delays and settle waits in the run loop
	stop chan struct{}
}

// Snapshot is a read-only view of a session. Current is the 1-based number
// of the question being asked; it equals Total once the quiz has finished.
type Snapshot struct {
	ChannelKey string               `json:"channel_key"`
	QuizName   string               `json:"quiz_name"`
	Current    int                  `json:"current"`
	Total      int                  `json:"total"`
	Active     bool                 `json:"active"`
	Paused     bool                 `json:"paused"`
	Settings   config.Settings      `json:"settings"`
	StartedAt  time.Time            `json:"started_at"`
	Timer      *engine.TimerStatus  `json:"timer,omitempty"`
}

// PauseResult reports the outcome of a pause request.
type PauseResult struct {
	AlreadyPaused bool `json:"already_paused"`
	TimerPaused   bool `json:"timer_paused"`
}

// ResumeResult reports the outcome of a resume request.
type ResumeResult struct {
	NotPaused    bool `json:"not_paused"`
	TimerResumed bool `json:"timer_resumed"`
}

// ErrorEntry is one recorded session error for a channel.
type ErrorEntry struct {
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

// maxErrorLog bounds the per-channel error history.
const maxErrorLog = 10
