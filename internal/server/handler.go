package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/spigell/interview-conductor/internal/interview"
	"github.com/spigell/interview-conductor/internal/logger"
	"github.com/spigell/interview-conductor/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// handleAsk runs one interview turn: validate, resolve the session, advance
// it against the model, and return the parsed structured reply.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	// Decoded into a map first: required-field validation has to tell a
	// missing key apart from a present-but-empty value.
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if missing := missingFields(body); len(missing) > 0 {
		Error(w, http.StatusBadRequest, "missing required fields: "+strings.Join(missing, ", "))
		return
	}

	var req interview.TurnRequest
	cfg := &mapstructure.DecoderConfig{
		Result:  &req,
		TagName: "json",
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		Error(w, http.StatusInternalServerError, "failed to decode request")
		return
	}
	if err := decoder.Decode(body); err != nil {
		Error(w, http.StatusBadRequest, "malformed turn request")
		return
	}

	session, err := s.registry.GetOrCreate(req.SessionID, req.JobTitle, req.JobDescription)
	if err != nil {
		if errors.Is(err, interview.ErrRegistryClosed) {
			Error(w, http.StatusServiceUnavailable, "service is shutting down")
			return
		}
		Error(w, http.StatusBadRequest, err.Error())
		return
	}

	raw, err := session.Advance(r.Context(), req.UserAnswer, req.IsFirstQuestion)
	if err != nil {
		if errors.Is(err, interview.ErrSessionBusy) {
			Error(w, http.StatusConflict, "a turn for this session is already in progress")
			return
		}

		s.logger.Error("interview turn failed", logger.SessionField(req.SessionID), zap.Error(err))
		Error(w, http.StatusInternalServerError, "something went wrong with the interview service")
		return
	}

	s.logger.Debug("model reply",
		logger.SessionField(req.SessionID),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, s.maxLogLen)),
	)

	parsed := interview.Parse(raw).Normalized()

	JSON(w, http.StatusOK, interview.TurnResponse{
		Feedback:        parsed.Feedback,
		ImprovedAnswer:  parsed.ImprovedAnswer,
		NextQuestion:    parsed.NextQuestion,
		IsFirstQuestion: parsed.IsFirstQuestion,
		RawResponse:     raw,
		SessionID:       req.SessionID,
	})
}

func (s *Server) handleSessionStatus(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	JSON(w, http.StatusOK, map[string]any{
		"sessionExists": s.registry.Exists(sessionID),
		"sessionId":     sessionID,
	})
}

func (s *Server) handleSessionDelete(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if !s.registry.Delete(sessionID) {
		JSON(w, http.StatusNotFound, map[string]string{
			"error":     "session not found",
			"sessionId": sessionID,
		})
		return
	}

	JSON(w, http.StatusOK, map[string]string{
		"message":   "session deleted successfully",
		"sessionId": sessionID,
	})
}

// missingFields validates required turn fields before any session state is
// touched. userAnswer is required unless the turn opens the interview.
func missingFields(body map[string]any) []string {
	var missing []string

	for _, field := range []string{"sessionId", "jobTitle", "jobDescription"} {
		if !hasText(body, field) {
			missing = append(missing, field)
		}
	}

	first, _ := body["isFirstQuestion"].(bool)
	if !first && !hasText(body, "userAnswer") {
		missing = append(missing, "userAnswer")
	}

	return missing
}

func hasText(body map[string]any, key string) bool {
	value, ok := body[key].(string)
	return ok && strings.TrimSpace(value) != ""
}
