// ABOUTME: Home/analyze and about page handlers
// ABOUTME: Anonymous analysis is allowed and recorded without an actor

package web

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"

	"github.com/yuin/goldmark"

	"github.com/mindlens/mindlens/internal/analyze"
)

// handleHome renders the analyze form
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	r, csrfToken := s.ensureCSRFToken(w, r)
	s.renderHome(w, r, nil, "", "", csrfToken)
}

// handleAnalyze runs one analysis and renders the result on the home page
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		_, csrfToken := s.ensureCSRFToken(w, r)
		s.renderHome(w, r, nil, "", "Invalid form data", csrfToken)
		return
	}

	if !s.validateCSRF(r) {
		_, csrfToken := s.ensureCSRFToken(w, r)
		s.renderHome(w, r, nil, "", "Invalid request, please try again", csrfToken)
		return
	}

	text := r.FormValue("text")
	sc := sessionFromContext(r)

	result, err := s.analyzer.Analyze(r.Context(), sc, text)
	if err != nil {
		_, csrfToken := s.ensureCSRFToken(w, r)
		if errors.Is(err, analyze.ErrEmptyInput) {
			s.renderHome(w, r, nil, text, "Enter some text to analyze", csrfToken)
			return
		}
		s.logger.Error("analysis failed", "error", err)
		s.renderHome(w, r, nil, text, "An error occurred", csrfToken)
		return
	}

	r, csrfToken := s.ensureCSRFToken(w, r)
	s.renderHome(w, r, result, text, "", csrfToken)
}

// handleAbout renders the about page
func (s *Server) handleAbout(w http.ResponseWriter, r *http.Request) {
	r, csrfToken := s.ensureCSRFToken(w, r)
	s.renderAbout(w, r, csrfToken)
}

// renderMarkdown converts markdown tips to sanitized-enough HTML fragments.
// Tips come from the embedded resource table, not from users.
func renderMarkdown(tips []string) []template.HTML {
	out := make([]template.HTML, 0, len(tips))
	for _, tip := range tips {
		var buf bytes.Buffer
		if err := goldmark.Convert([]byte(tip), &buf); err != nil {
			out = append(out, template.HTML(template.HTMLEscapeString(tip)))
			continue
		}
		out = append(out, template.HTML(buf.String()))
	}
	return out
}
