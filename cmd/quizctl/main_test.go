package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/quizwire/quizwire/quiz/config"
	"github.com/quizwire/quizwire/quiz/service"
	"github.com/quizwire/quizwire/quiz/session"
)

// run executes quizctl against the given server URL and reports the error.
func run(t *testing.T, serverURL string, args ...string) error {
	t.Helper()
	argv := append([]string{"quizctl", "--api", serverURL}, args...)
	return newRootCommand().Run(context.Background(), argv)
}

func TestQuizzesCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "GET" || r.URL.Path != "/api/quizzes" {
			t.Errorf("Expected GET /api/quizzes, got %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"count":   1,
			"quizzes": []service.QuizInfo{{Name: "capitals", Questions: 5}},
		})
	}))
	defer server.Close()

	if err := run(t, server.URL, "quizzes"); err != nil {
		t.Fatalf("quizzes command failed: %v", err)
	}
}

func TestStartCommand(t *testing.T) {
	t.Run("sends quiz name", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != "POST" || r.URL.Path != "/api/channels/room-1/start" {
				t.Errorf("Expected POST /api/channels/room-1/start, got %s %s", r.Method, r.URL.Path)
			}
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			if body["quiz"] != "capitals" {
				t.Errorf("Expected quiz 'capitals', got %q", body["quiz"])
			}
			json.NewEncoder(w).Encode(service.StartResult{Message: "started"})
		}))
		defer server.Close()

		if err := run(t, server.URL, "start", "room-1", "capitals"); err != nil {
			t.Fatalf("start command failed: %v", err)
		}
	})

	t.Run("requires arguments", func(t *testing.T) {
		if err := run(t, "http://localhost:1", "start"); err == nil {
			t.Error("Expected error for missing channel argument")
		}
		if err := run(t, "http://localhost:1", "start", "room-1"); err == nil {
			t.Error("Expected error for missing quiz argument")
		}
	})
}

func TestControlCommands(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(map[string]string{"message": "ok"})
	}))
	defer server.Close()

	for _, op := range []string{"stop", "pause", "resume"} {
		if err := run(t, server.URL, op, "room-1"); err != nil {
			t.Fatalf("%s command failed: %v", op, err)
		}
		if want := "/api/channels/room-1/" + op; gotPath != want {
			t.Errorf("Expected path %s, got %s", want, gotPath)
		}
	}
}

func TestStatusCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(service.StatusResult{
			Session: session.Snapshot{ChannelKey: "room-1", QuizName: "capitals", Current: 2, Total: 5, Active: true},
			Message: "Quiz 'capitals' running: question 2 of 5.",
		})
	}))
	defer server.Close()

	if err := run(t, server.URL, "status", "room-1"); err != nil {
		t.Fatalf("status command failed: %v", err)
	}
}

func TestSettingsSetCommand(t *testing.T) {
	t.Run("sends only provided fields", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != "PUT" || r.URL.Path != "/api/settings" {
				t.Errorf("Expected PUT /api/settings, got %s %s", r.Method, r.URL.Path)
			}
			var body map[string]interface{}
			json.NewDecoder(r.Body).Decode(&body)
			if body["timer_duration"] != float64(60) {
				t.Errorf("Expected timer_duration 60, got %v", body["timer_duration"])
			}
			if _, present := body["question_count"]; present {
				t.Error("question_count should not be sent when flag is absent")
			}

			settings := config.DefaultSettings()
			settings.TimerDuration = 60
			json.NewEncoder(w).Encode(service.SettingsView{Settings: settings, Summary: settings.Summary()})
		}))
		defer server.Close()

		if err := run(t, server.URL, "settings", "set", "--timer", "60"); err != nil {
			t.Fatalf("settings set failed: %v", err)
		}
	})

	t.Run("rejects empty update", func(t *testing.T) {
		err := run(t, "http://localhost:1", "settings", "set")
		if err == nil || !strings.Contains(err.Error(), "no settings provided") {
			t.Errorf("Expected 'no settings provided' error, got: %v", err)
		}
	})
}

func TestServerErrorSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "no quiz session in channel: room-9"})
	}))
	defer server.Close()

	err := run(t, server.URL, "stop", "room-9")
	if err == nil || !strings.Contains(err.Error(), "no quiz session") {
		t.Errorf("Expected server error message, got: %v", err)
	}
}
