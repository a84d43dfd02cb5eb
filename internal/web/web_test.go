// ABOUTME: Shared test harness for the web package
// ABOUTME: Spins up a full server over a temporary SQLite store with stub collaborators

package web

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mindlens/mindlens/internal/analyze"
	"github.com/mindlens/mindlens/internal/auth"
	"github.com/mindlens/mindlens/internal/classify"
	"github.com/mindlens/mindlens/internal/report"
	"github.com/mindlens/mindlens/internal/resources"
	"github.com/mindlens/mindlens/internal/store"
	"github.com/mindlens/mindlens/internal/translate"
)

type stubClassifier struct {
	pred *classify.Prediction
	err  error
}

func (s stubClassifier) Classify(_ context.Context, _ string) (*classify.Prediction, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.pred, nil
}

type testEnv struct {
	server *httptest.Server
	client *http.Client
	store  store.Store
	authn  *auth.Authenticator
}

// setupTestServer builds the full web server with a stub classifier and the
// passthrough translator. The returned client carries a cookie jar.
func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		st.Close()
	})

	authn := auth.New(st)
	tokens := auth.NewTokenIssuer([]byte("test-secret"))
	analyzer := analyze.New(st, translate.Disabled{},
		stubClassifier{pred: &classify.Prediction{Label: "normal", Confidence: 0.9}})
	reporter := report.New(st)

	table, err := resources.Load()
	require.NoError(t, err)

	srv := New(st, authn, tokens, analyzer, reporter, table, Config{
		SessionDuration: time.Hour,
		TokenDuration:   time.Hour,
	})

	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)

	httpServer := httptest.NewServer(mux)
	t.Cleanup(httpServer.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testEnv{
		server: httpServer,
		client: &http.Client{Jar: jar},
		store:  st,
		authn:  authn,
	}
}

// postForm submits a form with a matching CSRF cookie and field.
func (e *testEnv) postForm(t *testing.T, path string, form url.Values) *http.Response {
	t.Helper()

	const token = "test-csrf-token"
	form.Set("csrf_token", token)

	req, err := http.NewRequest(http.MethodPost, e.server.URL+path, strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	u, err := url.Parse(e.server.URL)
	require.NoError(t, err)
	e.client.Jar.SetCookies(u, []*http.Cookie{{Name: CSRFCookieName, Value: token}})

	resp, err := e.client.Do(req)
	require.NoError(t, err)
	return resp
}

func (e *testEnv) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := e.client.Get(e.server.URL + path)
	require.NoError(t, err)
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

// signup registers an account through the UI.
func (e *testEnv) signup(t *testing.T, username, password string) {
	t.Helper()
	resp := e.postForm(t, "/signup", url.Values{
		"username": {username},
		"password": {password},
	})
	resp.Body.Close()
}

// login authenticates through the UI; the session cookie lands in the jar.
func (e *testEnv) login(t *testing.T, username, password string) {
	t.Helper()
	resp := e.postForm(t, "/login", url.Values{
		"username": {username},
		"password": {password},
	})
	resp.Body.Close()
}

// bootstrapAdmin provisions the default admin and logs it in.
func (e *testEnv) loginAsAdmin(t *testing.T) {
	t.Helper()
	_, err := e.authn.BootstrapAdmin(context.Background(), "admin", "mindlens-admin")
	require.NoError(t, err)

	resp := e.postForm(t, "/admin/login", url.Values{
		"username": {"admin"},
		"password": {"mindlens-admin"},
	})
	resp.Body.Close()
}
