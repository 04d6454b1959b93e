package data

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeQuiz(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name+".json"), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write quiz file: %v", err)
	}
}

const validQuiz = `{
  "quiz": [
    {"question": "Capital of France?", "answer": "Paris", "options": ["Paris", "Lyon"]},
    {"question": "2+2?", "answer": "4"}
  ]
}`

func TestRepositoryLoad(t *testing.T) {
	t.Run("loads valid files", func(t *testing.T) {
		dir := t.TempDir()
		writeQuiz(t, dir, "geo", validQuiz)
		writeQuiz(t, dir, "math", `{"quiz": [{"question": "1+1?", "answer": "2"}]}`)

		r := NewRepository(dir, nil)

		names := r.Names()
		if len(names) != 2 || names[0] != "geo" || names[1] != "math" {
			t.Errorf("unexpected names: %v", names)
		}
		if !r.Exists("geo") {
			t.Error("geo should exist")
		}
		if r.Exists("history") {
			t.Error("history should not exist")
		}

		count, err := r.QuestionCount("geo")
		if err != nil || count != 2 {
			t.Errorf("expected 2 questions, got %d (err: %v)", count, err)
		}
	})

	t.Run("skips invalid files and records errors", func(t *testing.T) {
		dir := t.TempDir()
		writeQuiz(t, dir, "good", validQuiz)
		writeQuiz(t, dir, "broken", `{not json`)
		writeQuiz(t, dir, "empty", `{"quiz": []}`)
		writeQuiz(t, dir, "noanswer", `{"quiz": [{"question": "Q?", "answer": ""}]}`)

		r := NewRepository(dir, nil)

		if got := r.Names(); len(got) != 1 || got[0] != "good" {
			t.Errorf("expected only good quiz, got %v", got)
		}

		summary := r.LoadSummary()
		for _, name := range []string{"broken", "empty", "noanswer"} {
			if _, ok := summary[name]; !ok {
				t.Errorf("expected load error recorded for %s", name)
			}
		}
	})

	t.Run("seeds sample quiz into empty directory", func(t *testing.T) {
		dir := t.TempDir()
		r := NewRepository(dir, nil)

		if !r.Exists("sample") {
			t.Fatalf("expected sample quiz, got %v", r.Names())
		}
		if _, err := os.Stat(filepath.Join(dir, "sample.json")); err != nil {
			t.Errorf("sample quiz file not written: %v", err)
		}
	})

	t.Run("falls back to built-in set when directory unusable", func(t *testing.T) {
		dir := t.TempDir()
		blocker := filepath.Join(dir, "blocked")
		if err := os.WriteFile(blocker, []byte("file"), 0o644); err != nil {
			t.Fatal(err)
		}

		// The quiz dir path points at a regular file so MkdirAll fails.
		r := NewRepository(blocker, nil)

		if !r.Exists(FallbackQuizName) {
			t.Fatalf("expected fallback quiz, got %v", r.Names())
		}
		qs, err := r.Questions(FallbackQuizName)
		if err != nil || len(qs) == 0 {
			t.Errorf("fallback quiz should have questions (err: %v)", err)
		}
	})
}

func TestRepositoryQuestions(t *testing.T) {
	dir := t.TempDir()
	writeQuiz(t, dir, "geo", validQuiz)
	r := NewRepository(dir, nil)

	t.Run("returns copy", func(t *testing.T) {
		qs, err := r.Questions("geo")
		if err != nil {
			t.Fatalf("Questions failed: %v", err)
		}
		qs[0].Answer = "mutated"

		again, _ := r.Questions("geo")
		if again[0].Answer != "Paris" {
			t.Error("mutating returned slice affected cached questions")
		}
	})

	t.Run("unknown quiz lists available", func(t *testing.T) {
		_, err := r.Questions("nope")
		if !errors.Is(err, ErrQuizNotFound) {
			t.Fatalf("expected ErrQuizNotFound, got %v", err)
		}
		if !strings.Contains(err.Error(), "geo") {
			t.Errorf("error should list available quizzes: %v", err)
		}
	})
}

func TestRepositoryReload(t *testing.T) {
	dir := t.TempDir()
	writeQuiz(t, dir, "first", validQuiz)
	r := NewRepository(dir, nil)

	writeQuiz(t, dir, "second", `{"quiz": [{"question": "Q?", "answer": "A"}]}`)
	r.Reload()

	if !r.Exists("second") {
		t.Errorf("expected second quiz after reload, got %v", r.Names())
	}
}
