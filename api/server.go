package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/quizwire/quizwire/quiz/config"
	"github.com/quizwire/quizwire/quiz/data"
	"github.com/quizwire/quizwire/quiz/service"
	"github.com/quizwire/quizwire/quiz/session"
	"github.com/quizwire/quizwire/transport/websocket"
)

// Server is the REST API over the quiz service.
type Server struct {
	service service.QuizService
	hub     *websocket.Hub
	logger  *slog.Logger
	router  *mux.Router
}

// NewServer creates the API server. hub may be nil when the WebSocket feed is
// disabled.
func NewServer(quizService service.QuizService, hub *websocket.Hub, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		service: quizService,
		hub:     hub,
		logger:  logger,
		router:  mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Question sets
	api.HandleFunc("/quizzes", s.handleListQuizzes).Methods("GET")
	api.HandleFunc("/quizzes/reload", s.handleReloadQuizzes).Methods("POST")

	// Global settings
	api.HandleFunc("/settings", s.handleGetSettings).Methods("GET")
	api.HandleFunc("/settings", s.handleUpdateSettings).Methods("PUT")

	// Sessions across channels
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")

	// Per-channel quiz operations
	api.HandleFunc("/channels/{key}/start", s.handleStart).Methods("POST")
	api.HandleFunc("/channels/{key}/stop", s.handleStop).Methods("POST")
	api.HandleFunc("/channels/{key}/pause", s.handlePause).Methods("POST")
	api.HandleFunc("/channels/{key}/resume", s.handleResume).Methods("POST")
	api.HandleFunc("/channels/{key}/status", s.handleStatus).Methods("GET")
	api.HandleFunc("/channels/{key}/messages", s.handleMessages).Methods("GET")

	// WebSocket live feed
	s.router.HandleFunc("/ws", s.handleWebSocket)

	// Health check
	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrSessionConflict):
		return http.StatusConflict
	case errors.Is(err, session.ErrSessionNotFound), errors.Is(err, data.ErrQuizNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrEmptyQuizSet), errors.Is(err, config.ErrInvalidSetting):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Question set handlers

func (s *Server) handleListQuizzes(w http.ResponseWriter, r *http.Request) {
	quizzes, err := s.service.ListQuizzes(r.Context())
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(quizzes),
		"quizzes": quizzes,
	})
}

func (s *Server) handleReloadQuizzes(w http.ResponseWriter, r *http.Request) {
	quizzes, err := s.service.ReloadQuizzes(r.Context())
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(quizzes),
		"quizzes": quizzes,
	})
}

// Settings handlers

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.GetSettings(r.Context())
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var update service.SettingsUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	view, err := s.service.UpdateSettings(r.Context(), update)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// Session handlers

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(sessions),
		"sessions": sessions,
	})
}

// Per-channel quiz handlers

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	var req struct {
		Quiz string `json:"quiz"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Quiz == "" {
		respondError(w, http.StatusBadRequest, "quiz name is required")
		return
	}

	result, err := s.service.StartQuiz(r.Context(), key, req.Quiz)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}

	s.logger.Info("quiz start requested", "channel", key, "quiz", req.Quiz)
	respondJSON(w, http.StatusCreated, result)
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	result, err := s.service.StopQuiz(r.Context(), key)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	result, err := s.service.PauseQuiz(r.Context(), key)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	result, err := s.service.ResumeQuiz(r.Context(), key)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	result, err := s.service.QuizStatus(r.Context(), key)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	messages, err := s.service.Transcript(r.Context(), key)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(messages),
		"messages": messages,
	})
}

// WebSocket handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		http.Error(w, "live feed disabled", http.StatusNotImplemented)
		return
	}

	key := r.URL.Query().Get("channel")
	if key == "" {
		http.Error(w, "channel parameter required", http.StatusBadRequest)
		return
	}

	s.hub.ServeWS(w, r, key)
}

// Health check

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
