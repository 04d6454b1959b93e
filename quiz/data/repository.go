// Package data loads and serves quiz question sets from JSON files.
//
// A quiz file is named <quiz>.json and shaped:
//
//	{
//	  "quiz": [
//	    {"question": "...", "answer": "...", "options": ["...", "..."]}
//	  ]
//	}
//
// Files that fail validation are skipped and their errors kept for reporting;
// a broken file never takes the whole repository down. An empty directory is
// seeded with a sample quiz, and an unusable directory falls back to a small
// built-in set so the server always has something to serve.
package data

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ErrQuizNotFound is returned when a named quiz does not exist.
var ErrQuizNotFound = errors.New("quiz not found")

// Question is a single trivia question. Options are optional; when present
// they are shown as multiple-choice candidates.
type Question struct {
	Text    string   `json:"question"`
	Answer  string   `json:"answer"`
	Options []string `json:"options,omitempty"`
}

type quizFile struct {
	Quiz []Question `json:"quiz"`
}

const sampleQuizName = "sample"

// FallbackQuizName is the name of the built-in set installed when the quiz
// directory cannot be used at all.
const FallbackQuizName = "general"

// Repository serves question sets loaded from a directory of quiz files.
type Repository struct {
	dir    string
	logger *slog.Logger

	mu         sync.RWMutex
	sets       map[string][]Question
	loadErrors map[string]string
}

// NewRepository creates a repository over dir and performs the initial load.
func NewRepository(dir string, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Repository{
		dir:    dir,
		logger: logger,
	}
	r.Reload()
	return r
}

// Reload rescans the quiz directory, replacing the cached sets. Invalid files
// are recorded in the load summary and skipped.
func (r *Repository) Reload() {
	sets := make(map[string][]Question)
	loadErrors := make(map[string]string)

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		r.logger.Error("quiz directory unusable, using built-in fallback", "dir", r.dir, "error", err)
		sets[FallbackQuizName] = fallbackQuestions()
		r.install(sets, loadErrors)
		return
	}

	files, err := filepath.Glob(filepath.Join(r.dir, "*.json"))
	if err != nil {
		r.logger.Error("quiz directory scan failed, using built-in fallback", "dir", r.dir, "error", err)
		sets[FallbackQuizName] = fallbackQuestions()
		r.install(sets, loadErrors)
		return
	}

	if len(files) == 0 {
		if err := r.writeSampleQuiz(); err != nil {
			r.logger.Warn("could not seed sample quiz", "dir", r.dir, "error", err)
			sets[FallbackQuizName] = fallbackQuestions()
			r.install(sets, loadErrors)
			return
		}
		files = []string{filepath.Join(r.dir, sampleQuizName+".json")}
	}

	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), ".json")
		questions, err := loadQuizFile(file)
		if err != nil {
			loadErrors[name] = err.Error()
			r.logger.Warn("skipping invalid quiz file", "file", filepath.Base(file), "error", err)
			continue
		}
		sets[name] = questions
	}

	if len(sets) == 0 {
		r.logger.Warn("no loadable quiz files, using built-in fallback", "dir", r.dir)
		sets[FallbackQuizName] = fallbackQuestions()
	}

	r.install(sets, loadErrors)
	r.logger.Info("quiz sets loaded", "dir", r.dir, "sets", len(sets), "errors", len(loadErrors))
}

func (r *Repository) install(sets map[string][]Question, loadErrors map[string]string) {
	r.mu.Lock()
	r.sets = sets
	r.loadErrors = loadErrors
	r.mu.Unlock()
}

// Names returns the available quiz names, sorted.
func (r *Repository) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.sets))
	for name := range r.sets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Exists reports whether a quiz with the given name is loaded.
func (r *Repository) Exists(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.sets[name]
	return ok
}

// Questions returns a copy of the named quiz's questions.
func (r *Repository) Questions(name string) ([]Question, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	questions, ok := r.sets[name]
	if !ok {
		available := make([]string, 0, len(r.sets))
		for n := range r.sets {
			available = append(available, n)
		}
		sort.Strings(available)
		return nil, fmt.Errorf("%w: %s (available: %s)", ErrQuizNotFound, name, strings.Join(available, ", "))
	}

	out := make([]Question, len(questions))
	copy(out, questions)
	return out, nil
}

// QuestionCount returns the number of questions in the named quiz.
func (r *Repository) QuestionCount(name string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	questions, ok := r.sets[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrQuizNotFound, name)
	}
	return len(questions), nil
}

// LoadSummary returns the per-quiz load errors from the most recent reload.
func (r *Repository) LoadSummary() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]string, len(r.loadErrors))
	for k, v := range r.loadErrors {
		out[k] = v
	}
	return out
}

func loadQuizFile(path string) ([]Question, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	var qf quizFile
	if err := json.Unmarshal(raw, &qf); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	if len(qf.Quiz) == 0 {
		return nil, errors.New(`"quiz" array is missing or empty`)
	}

	for i, q := range qf.Quiz {
		if strings.TrimSpace(q.Text) == "" {
			return nil, fmt.Errorf("question %d: empty question text", i+1)
		}
		if strings.TrimSpace(q.Answer) == "" {
			return nil, fmt.Errorf("question %d: empty answer", i+1)
		}
		for j, opt := range q.Options {
			if strings.TrimSpace(opt) == "" {
				return nil, fmt.Errorf("question %d: option %d is empty", i+1, j+1)
			}
		}
	}

	return qf.Quiz, nil
}

func (r *Repository) writeSampleQuiz() error {
	raw, err := json.MarshalIndent(quizFile{Quiz: fallbackQuestions()}, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(r.dir, sampleQuizName+".json")
	r.logger.Info("seeding sample quiz", "file", path)
	return os.WriteFile(path, raw, 0o644)
}

func fallbackQuestions() []Question {
	return []Question{
		{
			Text:    "What is the largest planet in our solar system?",
			Answer:  "Jupiter",
			Options: []string{"Earth", "Jupiter", "Saturn", "Neptune"},
		},
		{
			Text:   "In what year did the first human land on the Moon?",
			Answer: "1969",
		},
		{
			Text:    "Which element has the chemical symbol O?",
			Answer:  "Oxygen",
			Options: []string{"Gold", "Osmium", "Oxygen", "Oganesson"},
		},
		{
			Text:   "What is the capital of Japan?",
			Answer: "Tokyo",
		},
		{
			Text:    "How many continents are there?",
			Answer:  "7",
			Options: []string{"5", "6", "7", "8"},
		},
	}
}
