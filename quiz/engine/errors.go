package engine

import "errors"

var (
	// ErrNoQuestions is returned by SelectQuestions when the source set is empty.
	ErrNoQuestions = errors.New("no questions available")

	// ErrTimerConflict is returned when a channel already has a live timer and
	// retries could not obtain readiness.
	ErrTimerConflict = errors.New("timer already active for channel")

	// ErrTimerStart is returned when timer creation itself kept failing.
	ErrTimerStart = errors.New("timer could not be started")
)
