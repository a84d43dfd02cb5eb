// ABOUTME: HTTP UI and JSON API for mindlens
// ABOUTME: Routes, DB-backed cookie sessions, CSRF protection, role gating

package web

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/mindlens/mindlens/internal/analyze"
	"github.com/mindlens/mindlens/internal/auth"
	"github.com/mindlens/mindlens/internal/report"
	"github.com/mindlens/mindlens/internal/resources"
	"github.com/mindlens/mindlens/internal/store"
)

const (
	// SessionCookieName is the name of the session cookie
	SessionCookieName = "mindlens_session"

	// CSRFCookieName is the name of the CSRF token cookie
	CSRFCookieName = "mindlens_csrf"
)

// Settings keys owned by the admin settings page.
const (
	SettingSiteName      = "site_name"
	SettingRetentionDays = "retention_days"

	DefaultSiteName = "Mind Lens"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const sessionContextKey contextKey = "session"
const csrfContextKey contextKey = "csrf_token"

// Config holds web server configuration
type Config struct {
	SessionDuration      time.Duration
	TokenDuration        time.Duration
	DefaultRetentionDays int
}

// Server handles UI routes, the JSON API, and authentication
type Server struct {
	store     store.Store
	authn     *auth.Authenticator
	tokens    *auth.TokenIssuer
	analyzer  *analyze.Service
	reporter  *report.Reporter
	resources *resources.Table
	config    Config
	logger    *slog.Logger
}

// New creates a new web server
func New(st store.Store, authn *auth.Authenticator, tokens *auth.TokenIssuer, analyzer *analyze.Service, reporter *report.Reporter, table *resources.Table, cfg Config) *Server {
	if cfg.SessionDuration == 0 {
		cfg.SessionDuration = 7 * 24 * time.Hour
	}
	if cfg.TokenDuration == 0 {
		cfg.TokenDuration = 24 * time.Hour
	}
	if cfg.DefaultRetentionDays == 0 {
		cfg.DefaultRetentionDays = 90
	}
	return &Server{
		store:     st,
		authn:     authn,
		tokens:    tokens,
		analyzer:  analyzer,
		reporter:  reporter,
		resources: table,
		config:    cfg,
		logger:    slog.Default().With("component", "web"),
	}
}

// RegisterRoutes registers all routes on the given mux
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	// Public pages
	mux.HandleFunc("GET /{$}", s.withSession(s.handleHome))
	mux.HandleFunc("POST /analyze", s.withSession(s.handleAnalyze))
	mux.HandleFunc("GET /about", s.withSession(s.handleAbout))
	mux.HandleFunc("GET /signup", s.withSession(s.handleSignupPage))
	mux.HandleFunc("POST /signup", s.withSession(s.handleSignup))
	mux.HandleFunc("GET /login", s.withSession(s.handleLoginPage))
	mux.HandleFunc("POST /login", s.withSession(s.handleLogin))
	mux.HandleFunc("GET /admin/login", s.withSession(s.handleAdminLoginPage))
	mux.HandleFunc("POST /admin/login", s.withSession(s.handleAdminLogin))
	mux.HandleFunc("POST /logout", s.withSession(s.handleLogout))

	// Admin pages
	mux.HandleFunc("GET /admin", s.requireAdmin(s.handleDashboard))
	mux.HandleFunc("GET /admin/{$}", s.requireAdmin(s.handleDashboard))
	mux.HandleFunc("POST /admin/retention", s.requireAdmin(s.handleRetention))
	mux.HandleFunc("GET /admin/settings", s.requireAdmin(s.handleSettingsPage))
	mux.HandleFunc("POST /admin/settings", s.requireAdmin(s.handleSettings))

	// JSON API
	mux.HandleFunc("POST /api/login", s.handleAPILogin)
	mux.HandleFunc("POST /api/analyze", s.handleAPIAnalyze)
	mux.HandleFunc("GET /api/events", s.requireAPIAdmin(s.handleAPIEvents))

	s.logger.Info("web routes registered")
}

// withSession resolves the session cookie into a fresh per-request
// SessionContext. Missing or expired sessions resolve to Anonymous.
func (s *Server) withSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sc := auth.Anonymous()

		if cookie, err := r.Cookie(SessionCookieName); err == nil {
			if session, err := s.store.GetSession(r.Context(), cookie.Value); err == nil {
				sc = auth.FromSession(session)
			}
		}

		ctx := context.WithValue(r.Context(), sessionContextKey, sc)
		next(w, r.WithContext(ctx))
	}
}

// requireAdmin wraps a handler to require an admin session
func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return s.withSession(func(w http.ResponseWriter, r *http.Request) {
		sc := sessionFromContext(r)
		if !sc.Admin() {
			http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
			return
		}
		next(w, r)
	})
}

// sessionFromContext retrieves the session context from the request context.
// Handlers registered through withSession always find one.
func sessionFromContext(r *http.Request) *auth.SessionContext {
	sc, _ := r.Context().Value(sessionContextKey).(*auth.SessionContext)
	if sc == nil {
		sc = auth.Anonymous()
	}
	return sc
}

// getCSRFToken retrieves the CSRF token from the request context
func getCSRFToken(r *http.Request) string {
	token, _ := r.Context().Value(csrfContextKey).(string)
	return token
}

// ensureCSRFToken generates a CSRF token if not present and adds it to context
func (s *Server) ensureCSRFToken(w http.ResponseWriter, r *http.Request) (*http.Request, string) {
	cookie, err := r.Cookie(CSRFCookieName)
	if err == nil && cookie.Value != "" {
		ctx := context.WithValue(r.Context(), csrfContextKey, cookie.Value)
		return r.WithContext(ctx), cookie.Value
	}

	token, err := generateSecureToken(32)
	if err != nil {
		s.logger.Error("failed to generate CSRF token", "error", err)
		token = "" // Will fail validation, but won't crash
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})

	ctx := context.WithValue(r.Context(), csrfContextKey, token)
	return r.WithContext(ctx), token
}

// validateCSRF checks the CSRF token from form against cookie
func (s *Server) validateCSRF(r *http.Request) bool {
	cookie, err := r.Cookie(CSRFCookieName)
	if err != nil || cookie.Value == "" {
		return false
	}

	formToken := r.FormValue("csrf_token")
	if formToken == "" {
		formToken = r.Header.Get("X-CSRF-Token")
	}

	return formToken != "" && formToken == cookie.Value
}

// createSession creates a DB-backed session for an account and sets the cookie
func (s *Server) createSession(w http.ResponseWriter, r *http.Request, account *store.Account) error {
	session := &store.Session{
		ID:        uuid.NewString(),
		Username:  account.Username,
		Role:      account.Role,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(s.config.SessionDuration),
	}

	if err := s.store.CreateSession(r.Context(), session); err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    session.ID,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	return nil
}

// generateSecureToken creates a URL-safe random token of n bytes entropy
func generateSecureToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
