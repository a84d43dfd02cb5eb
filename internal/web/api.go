// ABOUTME: JSON API handlers authenticated with JWT bearer tokens
// ABOUTME: Login issues tokens; analyze accepts anonymous or token-bearing callers

package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mindlens/mindlens/internal/analyze"
	"github.com/mindlens/mindlens/internal/auth"
	"github.com/mindlens/mindlens/internal/store"
)

type apiError struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// bearerToken extracts the bearer token from the Authorization header,
// returning the empty string when absent.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// sessionFromToken resolves an optional bearer token into a session context.
// An absent token is anonymous; an invalid one is an error.
func (s *Server) sessionFromToken(r *http.Request) (*auth.SessionContext, error) {
	token := bearerToken(r)
	if token == "" {
		return auth.Anonymous(), nil
	}

	username, role, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	return auth.FromAccount(&store.Account{Username: username, Role: role}), nil
}

// requireAPIAdmin wraps a handler to require a valid admin bearer token
func (s *Server) requireAPIAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sc, err := s.sessionFromToken(r)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, apiError{Error: "invalid token"})
			return
		}
		if !sc.Admin() {
			writeJSON(w, http.StatusForbidden, apiError{Error: "admin token required"})
			return
		}
		next(w, r)
	}
}

type apiLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type apiLoginResponse struct {
	Token     string `json:"token"`
	Role      string `json:"role"`
	ExpiresIn int64  `json:"expires_in"`
}

// handleAPILogin verifies credentials and issues a bearer token
func (s *Server) handleAPILogin(w http.ResponseWriter, r *http.Request) {
	var req apiLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid request body"})
		return
	}

	account, err := s.authn.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeJSON(w, http.StatusUnauthorized, apiError{Error: "invalid username or password"})
			return
		}
		s.logger.Error("api login failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, apiError{Error: "internal error"})
		return
	}

	token, err := s.tokens.Issue(account, s.config.TokenDuration)
	if err != nil {
		s.logger.Error("issuing token failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, apiError{Error: "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, apiLoginResponse{
		Token:     token,
		Role:      string(account.Role),
		ExpiresIn: int64(s.config.TokenDuration.Seconds()),
	})
}

type apiAnalyzeRequest struct {
	Text string `json:"text"`
}

type apiAnalyzeResponse struct {
	EventID    int64    `json:"event_id,omitempty"`
	Label      string   `json:"label"`
	Confidence *float64 `json:"confidence,omitempty"`
	Translated bool     `json:"translated"`
	Warnings   []string `json:"warnings,omitempty"`
}

// handleAPIAnalyze runs one analysis for a token-bearing or anonymous caller
func (s *Server) handleAPIAnalyze(w http.ResponseWriter, r *http.Request) {
	sc, err := s.sessionFromToken(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, apiError{Error: "invalid token"})
		return
	}

	var req apiAnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid request body"})
		return
	}

	result, err := s.analyzer.Analyze(r.Context(), sc, req.Text)
	if err != nil {
		if errors.Is(err, analyze.ErrEmptyInput) {
			writeJSON(w, http.StatusBadRequest, apiError{Error: "text is required"})
			return
		}
		s.logger.Error("api analysis failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, apiError{Error: "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, apiAnalyzeResponse{
		EventID:    result.EventID,
		Label:      result.Label,
		Confidence: result.Confidence,
		Translated: result.Translated,
		Warnings:   result.Warnings,
	})
}

type apiEvent struct {
	ID         int64    `json:"id"`
	Actor      *string  `json:"actor"`
	Label      string   `json:"label"`
	Confidence *float64 `json:"confidence,omitempty"`
	Timestamp  string   `json:"timestamp"`
}

// handleAPIEvents returns the most recent analysis events for admins
func (s *Server) handleAPIEvents(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, apiError{Error: "limit must be a positive integer"})
			return
		}
		limit = n
	}

	events, err := s.store.RecentResults(r.Context(), limit)
	if err != nil {
		s.logger.Error("api events query failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, apiError{Error: "internal error"})
		return
	}

	out := make([]apiEvent, 0, len(events))
	for _, e := range events {
		out = append(out, apiEvent{
			ID:         e.ID,
			Actor:      e.Actor,
			Label:      e.Label,
			Confidence: e.Confidence,
			Timestamp:  e.Timestamp.UTC().Format(time.RFC3339),
		})
	}

	writeJSON(w, http.StatusOK, out)
}
