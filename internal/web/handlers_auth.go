// ABOUTME: Signup, login, and logout handlers for the HTML UI
// ABOUTME: Admin login is a separate gate that never downgrades to a user session

package web

import (
	"errors"
	"net/http"

	"github.com/mindlens/mindlens/internal/auth"
	"github.com/mindlens/mindlens/internal/store"
)

// handleSignupPage renders the signup form
func (s *Server) handleSignupPage(w http.ResponseWriter, r *http.Request) {
	if sessionFromContext(r).Authenticated() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	r, csrfToken := s.ensureCSRFToken(w, r)
	s.renderSignupPage(w, r, "", "", csrfToken)
}

// handleSignup processes the signup form
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		_, csrfToken := s.ensureCSRFToken(w, r)
		s.renderSignupPage(w, r, "", "Invalid form data", csrfToken)
		return
	}

	if !s.validateCSRF(r) {
		_, csrfToken := s.ensureCSRFToken(w, r)
		s.renderSignupPage(w, r, "", "Invalid request, please try again", csrfToken)
		return
	}

	username := r.FormValue("username")
	password := r.FormValue("password")

	if username == "" || password == "" {
		_, csrfToken := s.ensureCSRFToken(w, r)
		s.renderSignupPage(w, r, username, "Username and password required", csrfToken)
		return
	}

	err := s.authn.Register(r.Context(), username, password)
	if err != nil {
		_, csrfToken := s.ensureCSRFToken(w, r)
		switch {
		case errors.Is(err, auth.ErrUsernameTaken),
			errors.Is(err, auth.ErrInvalidUsername),
			errors.Is(err, auth.ErrPasswordTooShort):
			s.renderSignupPage(w, r, username, err.Error(), csrfToken)
		default:
			s.logger.Error("signup failed", "error", err)
			s.renderSignupPage(w, r, username, "An error occurred", csrfToken)
		}
		return
	}

	s.logger.Info("signup complete", "username", username)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// handleLoginPage renders the user login page
func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if sessionFromContext(r).Authenticated() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	r, csrfToken := s.ensureCSRFToken(w, r)
	s.renderLoginPage(w, r, false, "", csrfToken)
}

// handleLogin processes the user login form
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	s.login(w, r, false)
}

// handleAdminLoginPage renders the admin login page
func (s *Server) handleAdminLoginPage(w http.ResponseWriter, r *http.Request) {
	if sessionFromContext(r).Admin() {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}

	r, csrfToken := s.ensureCSRFToken(w, r)
	s.renderLoginPage(w, r, true, "", csrfToken)
}

// handleAdminLogin processes the admin login form
func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	s.login(w, r, true)
}

// login is the shared login flow. With adminGate set, only admin accounts
// may pass; a correct non-admin login is refused and the visitor stays
// anonymous.
func (s *Server) login(w http.ResponseWriter, r *http.Request, adminGate bool) {
	if err := r.ParseForm(); err != nil {
		_, csrfToken := s.ensureCSRFToken(w, r)
		s.renderLoginPage(w, r, adminGate, "Invalid form data", csrfToken)
		return
	}

	if !s.validateCSRF(r) {
		_, csrfToken := s.ensureCSRFToken(w, r)
		s.renderLoginPage(w, r, adminGate, "Invalid request, please try again", csrfToken)
		return
	}

	username := r.FormValue("username")
	password := r.FormValue("password")

	if username == "" || password == "" {
		_, csrfToken := s.ensureCSRFToken(w, r)
		s.renderLoginPage(w, r, adminGate, "Username and password required", csrfToken)
		return
	}

	var (
		account *store.Account
		err     error
	)
	if adminGate {
		account, err = s.authn.AuthenticateAdmin(r.Context(), username, password)
	} else {
		account, err = s.authn.Authenticate(r.Context(), username, password)
	}
	if err != nil {
		_, csrfToken := s.ensureCSRFToken(w, r)
		switch {
		case errors.Is(err, auth.ErrAdminRequired):
			s.renderLoginPage(w, r, adminGate, "This login is for administrators only", csrfToken)
		case errors.Is(err, auth.ErrInvalidCredentials):
			s.renderLoginPage(w, r, adminGate, "Invalid username or password", csrfToken)
		default:
			s.logger.Error("login failed", "error", err)
			s.renderLoginPage(w, r, adminGate, "An error occurred", csrfToken)
		}
		return
	}

	if err := s.createSession(w, r, account); err != nil {
		s.logger.Error("failed to create session", "error", err)
		_, csrfToken := s.ensureCSRFToken(w, r)
		s.renderLoginPage(w, r, adminGate, "An error occurred", csrfToken)
		return
	}

	s.logger.Info("login successful", "username", username, "role", account.Role)
	if adminGate {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleLogout ends the current session
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err == nil {
		if !s.validateCSRF(r) {
			s.logger.Warn("logout request with invalid CSRF token")
		}
	}

	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		_ = s.store.DeleteSession(r.Context(), cookie.Value)
	}

	sessionFromContext(r).Logout()

	// Clear session cookie
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	http.Redirect(w, r, "/", http.StatusSeeOther)
}
