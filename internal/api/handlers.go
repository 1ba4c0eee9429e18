// Package api provides HTTP handlers for CocoroChat endpoints.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/cocoro-lab/cocorochat/internal/models"
)

// chatTurnHandler handles POST /chat/turns: one conversation turn for today.
func (s *Server) chatTurnHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.chatTurnHandler: processing turn request", "method", r.Method, "path", r.URL.Path)
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		slog.Warn("Server.chatTurnHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req models.TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.chatTurnHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if err := req.Validate(); err != nil {
		slog.Warn("Server.chatTurnHandler: validation failed", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	chatDate := s.today()
	result, err := s.session.HandleTurn(r.Context(), req.UserID, chatDate, req.Message)
	if err != nil {
		// Completion engine failure: nothing was persisted, the user may retry.
		slog.Error("Server.chatTurnHandler: turn failed", "error", err, "userID", req.UserID)
		writeJSONResponse(w, http.StatusBadGateway, models.Error("Failed to generate a response"))
		return
	}

	if result.StoreErr != nil {
		slog.Warn("Server.chatTurnHandler: turn completed without durability", "error", result.StoreErr, "userID", req.UserID)
		writeJSONResponse(w, http.StatusOK, models.Degraded("Reply generated but could not be saved to the chat log", result.Turn))
		return
	}

	slog.Info("Server.chatTurnHandler: turn completed", "userID", req.UserID, "chatDate", chatDate, "phase", result.Turn.Phase)
	writeJSONResponse(w, http.StatusOK, models.Success(result.Turn))
}

// historyHandler handles GET /chat/history: the turns of one conversation day.
func (s *Server) historyHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.historyHandler: processing history request", "method", r.Method, "path", r.URL.Path)
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		slog.Warn("Server.historyHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error(models.ErrEmptyUserID.Error()))
		return
	}
	chatDate := r.URL.Query().Get("date")
	if chatDate == "" {
		chatDate = s.today()
	} else {
		normalized, err := models.ParseChatDate(chatDate)
		if err != nil {
			slog.Warn("Server.historyHandler: invalid date", "date", chatDate, "error", err)
			writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
			return
		}
		chatDate = normalized
	}

	turns, err := s.st.ListTurns(userID, chatDate)
	if err != nil {
		slog.Error("Server.historyHandler: failed to list turns", "error", err, "userID", userID, "chatDate", chatDate)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to fetch chat history"))
		return
	}
	slog.Debug("Server.historyHandler: history fetched", "userID", userID, "chatDate", chatDate, "count", len(turns))
	writeJSONResponse(w, http.StatusOK, models.Success(turns))
}

// datesHandler handles GET /chat/dates: the user's conversation dates, descending.
func (s *Server) datesHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.datesHandler: processing dates request", "method", r.Method, "path", r.URL.Path)
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		slog.Warn("Server.datesHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error(models.ErrEmptyUserID.Error()))
		return
	}

	dates, err := s.st.ListChatDates(userID)
	if err != nil {
		slog.Error("Server.datesHandler: failed to list dates", "error", err, "userID", userID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to fetch chat dates"))
		return
	}
	slog.Debug("Server.datesHandler: dates fetched", "userID", userID, "count", len(dates))
	writeJSONResponse(w, http.StatusOK, models.Success(dates))
}

// phasesHandler handles GET /phases: the knowledge-base phases in fixed order.
func (s *Server) phasesHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.phasesHandler: processing phases request", "method", r.Method, "path", r.URL.Path)
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		slog.Warn("Server.phasesHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(s.kb.AllPhases()))
}

// scorePhasesHandler handles POST /phases/score: keyword scoring preview of
// free text against the knowledge base. Informational only; it never affects
// the phase fixed by the conversation flow.
func (s *Server) scorePhasesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.scorePhasesHandler: processing score request", "method", r.Method, "path", r.URL.Path)
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		slog.Warn("Server.scorePhasesHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req models.ScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.scorePhasesHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if err := req.Validate(); err != nil {
		slog.Warn("Server.scorePhasesHandler: validation failed", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	scores := s.kb.ScorePhases(req.Text)
	slog.Debug("Server.scorePhasesHandler: scored text", "textLength", len(req.Text))
	writeJSONResponse(w, http.StatusOK, models.Success(scores))
}

// healthHandler provides a health check endpoint for monitoring.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	healthData := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	// Store reachability is the health indicator; a probe for a user with no
	// rows exercises the backend without touching real data.
	if _, err := s.st.ListChatDates("healthcheck"); err != nil {
		slog.Warn("Health check: store probe failed", "error", err)
		healthData["status"] = "degraded"
		healthData["error"] = "Conversation store unreachable"
	}

	statusCode := http.StatusOK
	if healthData["status"] == "degraded" {
		statusCode = http.StatusServiceUnavailable
	}
	writeJSONResponse(w, statusCode, healthData)
}
