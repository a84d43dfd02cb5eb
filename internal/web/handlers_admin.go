// ABOUTME: Admin dashboard, retention actions, and settings handlers
// ABOUTME: All routes here are gated behind an admin session

package web

import (
	"fmt"
	"net/http"
	"strconv"
)

// handleDashboard renders the admin dashboard
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	r, csrfToken := s.ensureCSRFToken(w, r)
	s.renderDashboard(w, r, "", "", csrfToken)
}

// handleRetention runs a retention cleanup.
// Form fields: days (integer), scope ("all" or "anonymous").
func (s *Server) handleRetention(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		_, csrfToken := s.ensureCSRFToken(w, r)
		s.renderDashboard(w, r, "", "Invalid form data", csrfToken)
		return
	}

	if !s.validateCSRF(r) {
		_, csrfToken := s.ensureCSRFToken(w, r)
		s.renderDashboard(w, r, "", "Invalid request, please try again", csrfToken)
		return
	}

	days, err := strconv.Atoi(r.FormValue("days"))
	if err != nil || days < 0 {
		_, csrfToken := s.ensureCSRFToken(w, r)
		s.renderDashboard(w, r, "", "Retention days must be a non-negative number", csrfToken)
		return
	}

	anonymousOnly := r.FormValue("scope") == "anonymous"

	deleted, err := s.reporter.EnforceRetention(r.Context(), days, anonymousOnly)
	if err != nil {
		s.logger.Error("retention cleanup failed", "error", err)
		_, csrfToken := s.ensureCSRFToken(w, r)
		s.renderDashboard(w, r, "", "Retention cleanup failed", csrfToken)
		return
	}

	scope := "all"
	if anonymousOnly {
		scope = "anonymous"
	}
	notice := fmt.Sprintf("Deleted %d events older than %d days (scope: %s)", deleted, days, scope)

	r, csrfToken := s.ensureCSRFToken(w, r)
	s.renderDashboard(w, r, notice, "", csrfToken)
}

// handleSettingsPage renders the settings form
func (s *Server) handleSettingsPage(w http.ResponseWriter, r *http.Request) {
	r, csrfToken := s.ensureCSRFToken(w, r)
	s.renderSettings(w, r, "", "", csrfToken)
}

// handleSettings saves site settings. Value parsing happens here, not in
// the store: a bad retention number is a user error.
func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		_, csrfToken := s.ensureCSRFToken(w, r)
		s.renderSettings(w, r, "", "Invalid form data", csrfToken)
		return
	}

	if !s.validateCSRF(r) {
		_, csrfToken := s.ensureCSRFToken(w, r)
		s.renderSettings(w, r, "", "Invalid request, please try again", csrfToken)
		return
	}

	siteName := r.FormValue("site_name")
	retention := r.FormValue("retention_days")

	if siteName == "" {
		_, csrfToken := s.ensureCSRFToken(w, r)
		s.renderSettings(w, r, "", "Site name must not be empty", csrfToken)
		return
	}

	if days, err := strconv.Atoi(retention); err != nil || days < 0 {
		_, csrfToken := s.ensureCSRFToken(w, r)
		s.renderSettings(w, r, "", "Retention days must be a non-negative number", csrfToken)
		return
	}

	if err := s.store.SetSetting(r.Context(), SettingSiteName, siteName); err != nil {
		s.logger.Error("saving site name failed", "error", err)
		_, csrfToken := s.ensureCSRFToken(w, r)
		s.renderSettings(w, r, "", "Saving settings failed", csrfToken)
		return
	}
	if err := s.store.SetSetting(r.Context(), SettingRetentionDays, retention); err != nil {
		s.logger.Error("saving retention days failed", "error", err)
		_, csrfToken := s.ensureCSRFToken(w, r)
		s.renderSettings(w, r, "", "Saving settings failed", csrfToken)
		return
	}

	r, csrfToken := s.ensureCSRFToken(w, r)
	s.renderSettings(w, r, "Settings saved", "", csrfToken)
}

// siteName reads the configured site display name. Store failures fall
// back to the default and are logged as a persistence warning.
func (s *Server) siteName(r *http.Request) string {
	name, err := s.store.GetSetting(r.Context(), SettingSiteName, DefaultSiteName)
	if err != nil {
		s.logger.Warn("reading site name failed", "error", err)
		return DefaultSiteName
	}
	return name
}

// retentionDays reads the configured retention window, falling back to the
// server default when unset or unparsable.
func (s *Server) retentionDays(r *http.Request) int {
	fallback := strconv.Itoa(s.config.DefaultRetentionDays)
	value, err := s.store.GetSetting(r.Context(), SettingRetentionDays, fallback)
	if err != nil {
		s.logger.Warn("reading retention days failed", "error", err)
		return s.config.DefaultRetentionDays
	}

	days, err := strconv.Atoi(value)
	if err != nil || days < 0 {
		return s.config.DefaultRetentionDays
	}
	return days
}
