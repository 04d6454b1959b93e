package engine

import (
	"math/rand/v2"

	"github.com/quizwire/quizwire/quiz/config"
	"github.com/quizwire/quizwire/quiz/data"
)

// SelectQuestions builds the ordered question list for a session run. The
// source slice is never mutated: shuffling and truncation operate on a copy.
// A configured question count below 1 yields an empty selection, which the
// caller treats as a failed start.
func SelectQuestions(questions []data.Question, settings config.Settings) ([]data.Question, error) {
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}

	selected := make([]data.Question, len(questions))
	copy(selected, questions)

	if settings.RandomOrder {
		rand.Shuffle(len(selected), func(i, j int) {
			selected[i], selected[j] = selected[j], selected[i]
		})
	}

	if settings.QuestionCount != nil {
		n := *settings.QuestionCount
		if n < 1 {
			return []data.Question{}, nil
		}
		if n < len(selected) {
			selected = selected[:n]
		}
	}

	return selected, nil
}
