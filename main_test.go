package main

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMain(m *testing.M) {
	bindFlags(envConfig{Port: 8080, Host: "localhost", QuizDir: "quizzes"})
	os.Exit(m.Run())
}

func TestConstants(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
	if AppName == "" {
		t.Error("AppName should not be empty")
	}
}

func TestFlagDefaults(t *testing.T) {
	if *port <= 0 || *port > 65535 {
		t.Errorf("Invalid default port: %d", *port)
	}

	if *host == "" {
		t.Error("Host should have a default value")
	}

	if *quizDir == "" {
		t.Error("Quiz directory should have a default value")
	}
}

func TestBuildStack(t *testing.T) {
	originalQuizDir := *quizDir
	*quizDir = t.TempDir()
	defer func() { *quizDir = originalQuizDir }()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	quizService, hub := buildStack(logger)
	if quizService == nil {
		t.Fatal("Expected quiz service to be initialized")
	}
	if hub == nil {
		t.Fatal("Expected WebSocket hub to be initialized")
	}

	// An empty quiz directory is seeded with a sample set, so listing
	// must return at least one quiz.
	quizzes, err := quizService.ListQuizzes(t.Context())
	if err != nil {
		t.Fatalf("ListQuizzes failed: %v", err)
	}
	if len(quizzes) == 0 {
		t.Error("Expected at least one quiz after startup load")
	}
}

func TestBuildStackStartupLoad(t *testing.T) {
	dir := t.TempDir()
	good := `{"quiz": [{"question": "Capital of France?", "answer": "Paris"}]}`
	if err := os.WriteFile(filepath.Join(dir, "capitals.json"), []byte(good), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "broken.json"), []byte(`{"quiz": []}`), 0644); err != nil {
		t.Fatal(err)
	}

	originalQuizDir := *quizDir
	*quizDir = dir
	defer func() { *quizDir = originalQuizDir }()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	quizService, _ := buildStack(logger)

	quizzes, err := quizService.ListQuizzes(t.Context())
	if err != nil {
		t.Fatalf("ListQuizzes failed: %v", err)
	}
	if len(quizzes) != 1 || quizzes[0].Name != "capitals" {
		t.Errorf("expected only the valid quiz, got %+v", quizzes)
	}

	out := buf.String()

	// The constructor already loads the directory; startup must not scan
	// it a second time.
	if got := strings.Count(out, "quiz sets loaded"); got != 1 {
		t.Errorf("expected 1 directory load at startup, log shows %d", got)
	}

	// Per-file load failures surface as warnings, not as loaded quizzes.
	if !strings.Contains(out, "quiz file failed to load") || !strings.Contains(out, "quiz=broken") {
		t.Errorf("load failure for broken.json not reported as a warning:\n%s", out)
	}
}

func TestBuildStack_UnusableQuizDir(t *testing.T) {
	originalQuizDir := *quizDir
	*quizDir = "/proc/self/definitely-not-writable/quizzes"
	defer func() { *quizDir = originalQuizDir }()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	// The repository falls back to the built-in set, so the stack still
	// comes up and serves the fallback quiz.
	quizService, _ := buildStack(logger)
	quizzes, err := quizService.ListQuizzes(t.Context())
	if err != nil {
		t.Fatalf("ListQuizzes failed: %v", err)
	}
	if len(quizzes) == 0 {
		t.Error("Expected the fallback quiz to be available")
	}
}
