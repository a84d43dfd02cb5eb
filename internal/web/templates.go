// ABOUTME: Template rendering functions for the HTML UI
// ABOUTME: Loads templates from embedded filesystem and renders them

package web

import (
	"fmt"
	"html/template"
	"net/http"
	"sort"

	"github.com/mindlens/mindlens/internal/analyze"
	"github.com/mindlens/mindlens/internal/auth"
	"github.com/mindlens/mindlens/internal/report"
	"github.com/mindlens/mindlens/internal/store"
)

// Template data types
type pageData struct {
	Title    string
	SiteName string
	Session  *auth.SessionContext
}

type homeData struct {
	pageData
	Input     string
	Result    *analyze.Result
	Resources resourceView
	Error     string
	CSRFToken string
}

type resourceView struct {
	Title string
	Tips  []template.HTML
}

type loginData struct {
	pageData
	AdminGate bool
	Error     string
	CSRFToken string
}

type signupData struct {
	pageData
	Username  string
	Error     string
	CSRFToken string
}

type dashboardData struct {
	pageData
	Summary       *report.Summary
	Recent        []*store.AnalysisEvent
	Labels        []labelCount
	TopActors     []store.ActorCount
	LogFailures   int64
	RetentionDays int
	Notice        string
	Error         string
	CSRFToken     string
}

type labelCount struct {
	Label string
	Count int64
}

type settingsData struct {
	pageData
	SiteNameValue string
	RetentionDays int
	Notice        string
	Error         string
	CSRFToken     string
}

func (s *Server) page(r *http.Request, title string) pageData {
	return pageData{
		Title:    title,
		SiteName: s.siteName(r),
		Session:  sessionFromContext(r),
	}
}

// templateFuncs are helpers available to all page templates.
var templateFuncs = template.FuncMap{
	"pct": func(p *float64) string {
		if p == nil {
			return ""
		}
		return fmt.Sprintf("%.0f%%", *p*100)
	},
}

func (s *Server) render(w http.ResponseWriter, data any, files ...string) {
	paths := make([]string, 0, len(files)+1)
	paths = append(paths, "templates/base.html")
	for _, f := range files {
		paths = append(paths, "templates/"+f)
	}
	tmpl := template.Must(template.New("base.html").Funcs(templateFuncs).ParseFS(templateFS, paths...))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		s.logger.Error("failed to render page", "error", err)
	}
}

// renderHome renders the analyze page, optionally with a result
func (s *Server) renderHome(w http.ResponseWriter, r *http.Request, result *analyze.Result, input, errorMsg, csrfToken string) {
	data := homeData{
		pageData:  s.page(r, "Analyze"),
		Input:     input,
		Result:    result,
		Error:     errorMsg,
		CSRFToken: csrfToken,
	}

	if result != nil {
		entry := s.resources.Lookup(result.Label)
		data.Resources = resourceView{
			Title: entry.Title,
			Tips:  renderMarkdown(entry.Tips),
		}
	}

	s.render(w, data, "home.html")
}

// renderLoginPage renders the user or admin login page
func (s *Server) renderLoginPage(w http.ResponseWriter, r *http.Request, adminGate bool, errorMsg, csrfToken string) {
	title := "Login"
	if adminGate {
		title = "Admin Login"
	}
	data := loginData{
		pageData:  s.page(r, title),
		AdminGate: adminGate,
		Error:     errorMsg,
		CSRFToken: csrfToken,
	}
	s.render(w, data, "login.html")
}

// renderSignupPage renders the signup page
func (s *Server) renderSignupPage(w http.ResponseWriter, r *http.Request, username, errorMsg, csrfToken string) {
	data := signupData{
		pageData:  s.page(r, "Create Account"),
		Username:  username,
		Error:     errorMsg,
		CSRFToken: csrfToken,
	}
	s.render(w, data, "signup.html")
}

// renderDashboard renders the admin dashboard, gathering all aggregates.
// Individual aggregate failures degrade to an error banner, not a blank page.
func (s *Server) renderDashboard(w http.ResponseWriter, r *http.Request, notice, errorMsg, csrfToken string) {
	data := dashboardData{
		pageData:      s.page(r, "Dashboard"),
		Notice:        notice,
		Error:         errorMsg,
		LogFailures:   s.analyzer.LogFailures(),
		RetentionDays: s.retentionDays(r),
		CSRFToken:     csrfToken,
	}

	summary, err := s.reporter.Summary(r.Context())
	if err != nil {
		s.logger.Error("dashboard summary failed", "error", err)
		data.Error = "Some dashboard data is unavailable"
	} else {
		data.Summary = summary
	}

	recent, err := s.store.RecentResults(r.Context(), 20)
	if err != nil {
		s.logger.Error("dashboard recent results failed", "error", err)
		data.Error = "Some dashboard data is unavailable"
	} else {
		data.Recent = recent
	}

	labels, err := s.reporter.LabelDistribution(r.Context())
	if err != nil {
		s.logger.Error("dashboard label distribution failed", "error", err)
		data.Error = "Some dashboard data is unavailable"
	} else {
		data.Labels = sortLabelCounts(labels)
	}

	actors, err := s.reporter.TopActors(r.Context(), 10)
	if err != nil {
		s.logger.Error("dashboard top actors failed", "error", err)
		data.Error = "Some dashboard data is unavailable"
	} else {
		data.TopActors = actors
	}

	s.render(w, data, "dashboard.html")
}

// sortLabelCounts orders the label distribution by count descending,
// ties broken alphabetically, for stable display.
func sortLabelCounts(counts map[string]int64) []labelCount {
	out := make([]labelCount, 0, len(counts))
	for label, count := range counts {
		out = append(out, labelCount{Label: label, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// renderSettings renders the settings page with current values
func (s *Server) renderSettings(w http.ResponseWriter, r *http.Request, notice, errorMsg, csrfToken string) {
	data := settingsData{
		pageData:      s.page(r, "Settings"),
		SiteNameValue: s.siteName(r),
		RetentionDays: s.retentionDays(r),
		Notice:        notice,
		Error:         errorMsg,
		CSRFToken:     csrfToken,
	}
	s.render(w, data, "settings.html")
}

// renderAbout renders the about page
func (s *Server) renderAbout(w http.ResponseWriter, r *http.Request, csrfToken string) {
	data := struct {
		pageData
		CSRFToken string
	}{
		pageData:  s.page(r, "About"),
		CSRFToken: csrfToken,
	}
	s.render(w, data, "about.html")
}
