package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/terra-clan/event-portal/internal/models"
	"github.com/terra-clan/event-portal/internal/state"
)

// Response helpers

type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: false,
		Error: &apiError{
			Code:    code,
			Message: message,
		},
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	components := make(map[string]string)
	healthy := true
	for name, err := range s.health.CheckAll(r.Context()) {
		if err != nil {
			components[name] = err.Error()
			healthy = false
		} else {
			components[name] = "ok"
		}
	}

	status := http.StatusOK
	overall := "healthy"
	if !healthy {
		status = http.StatusServiceUnavailable
		overall = "degraded"
	}

	respondJSON(w, status, map[string]interface{}{
		"status":     overall,
		"components": components,
		"time":       time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if !s.validator.Ready().Initialized {
		respondError(w, http.StatusServiceUnavailable, "not_ready", "session validation has not settled")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}

// State handlers

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	ready := s.validator.Ready()

	data := map[string]interface{}{
		"initialized":              ready.Initialized,
		"participantAuthenticated": s.credentials.Authenticated(models.DomainParticipant),
		"adminAuthenticated":       s.credentials.Authenticated(models.DomainAdmin),
		"pushConnected":            s.channel.Connected(),
	}
	if profile := s.credentials.Profile(); profile != nil {
		data["participant"] = profile
	}

	respondJSON(w, http.StatusOK, data)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"leaderboard": s.leaderboard.Rows(),
		"pagination":  s.leaderboard.Pagination(),
	})
}

func (s *Server) handleColleges(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"colleges": s.colleges.Rows(),
	})
}

func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := state.TaskFilter{
		Search: query.Get("search"),
		Status: models.TaskStatus(query.Get("status")),
		Type:   models.TaskType(query.Get("type")),
	}
	if filter.Type != "" && !filter.Type.Valid() {
		respondError(w, http.StatusBadRequest, "invalid_type", "unknown task type")
		return
	}

	totalPoints, taskCount := s.board.Stats()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"tasks":       s.board.Tasks(filter),
		"totalPoints": totalPoints,
		"taskCount":   taskCount,
	})
}

func (s *Server) handleSubmissions(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"submissions": s.board.Submissions(),
	})
}
