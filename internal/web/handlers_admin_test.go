// ABOUTME: Tests for the admin dashboard, retention action, and settings page
// ABOUTME: All routes require an admin session from the shared harness

package web

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindlens/mindlens/internal/store"
)

func seedEvent(t *testing.T, st store.Store, actor string, label string, at time.Time) {
	t.Helper()
	event := &store.AnalysisEvent{
		InputText: "seeded",
		Label:     label,
		Timestamp: at,
	}
	if actor != "" {
		event.Actor = &actor
	}
	_, err := st.AppendResult(context.Background(), event)
	require.NoError(t, err)
}

func TestDashboard_RequiresAdmin(t *testing.T) {
	env := setupTestServer(t)
	env.client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}

	for _, path := range []string{"/admin", "/admin/settings"} {
		resp := env.get(t, path)
		resp.Body.Close()
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode, path)
		assert.Equal(t, "/admin/login", resp.Header.Get("Location"), path)
	}
}

func TestDashboard_RequiresAdmin_UserSessionInsufficient(t *testing.T) {
	env := setupTestServer(t)
	env.signup(t, "alice", "wonderland")
	env.login(t, "alice", "wonderland")

	env.client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}
	resp := env.get(t, "/admin")
	resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
}

func TestDashboard_ShowsAggregates(t *testing.T) {
	env := setupTestServer(t)
	env.loginAsAdmin(t)

	now := time.Now().UTC()
	seedEvent(t, env.store, "admin", "stress", now)
	seedEvent(t, env.store, "", "stress", now)
	seedEvent(t, env.store, "", "normal", now)

	resp := env.get(t, "/admin")
	body := readBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Contains(t, body, "Label distribution")
	assert.Contains(t, body, "stress")
	assert.Contains(t, body, "Recent analyses")
	assert.Contains(t, body, "anonymous")
	assert.Contains(t, body, "Top users")
	assert.Contains(t, body, "admin")
}

func TestRetention_DeletesOldEvents(t *testing.T) {
	env := setupTestServer(t)
	env.loginAsAdmin(t)

	old := time.Now().UTC().AddDate(0, 0, -100)
	seedEvent(t, env.store, "", "stress", old)
	seedEvent(t, env.store, "", "normal", time.Now().UTC())

	resp := env.postForm(t, "/admin/retention", url.Values{
		"days":  {"90"},
		"scope": {"all"},
	})
	body := readBody(t, resp)
	assert.Contains(t, body, "Deleted 1 events older than 90 days (scope: all)")

	count, err := env.store.CountResults(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRetention_AnonymousScope(t *testing.T) {
	env := setupTestServer(t)
	env.loginAsAdmin(t)

	old := time.Now().UTC().AddDate(0, 0, -100)
	seedEvent(t, env.store, "admin", "stress", old)
	seedEvent(t, env.store, "", "stress", old)

	resp := env.postForm(t, "/admin/retention", url.Values{
		"days":  {"90"},
		"scope": {"anonymous"},
	})
	body := readBody(t, resp)
	assert.Contains(t, body, "scope: anonymous")

	events, err := env.store.RecentResults(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.NotNil(t, events[0].Actor)
}

func TestRetention_RejectsNegativeDays(t *testing.T) {
	env := setupTestServer(t)
	env.loginAsAdmin(t)

	seedEvent(t, env.store, "", "stress", time.Now().UTC().AddDate(0, 0, -100))

	resp := env.postForm(t, "/admin/retention", url.Values{
		"days":  {"-1"},
		"scope": {"all"},
	})
	body := readBody(t, resp)
	assert.Contains(t, body, "non-negative")

	count, err := env.store.CountResults(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestSettings_SaveAndApply(t *testing.T) {
	env := setupTestServer(t)
	env.loginAsAdmin(t)

	resp := env.postForm(t, "/admin/settings", url.Values{
		"site_name":      {"Inner Weather"},
		"retention_days": {"30"},
	})
	body := readBody(t, resp)
	assert.Contains(t, body, "Settings saved")

	// The new site name shows up on public pages too
	home := env.get(t, "/")
	homeBody := readBody(t, home)
	assert.Contains(t, homeBody, "Inner Weather")

	value, err := env.store.GetSetting(context.Background(), SettingRetentionDays, "")
	require.NoError(t, err)
	assert.Equal(t, "30", value)
}

func TestSettings_RejectsEmptySiteName(t *testing.T) {
	env := setupTestServer(t)
	env.loginAsAdmin(t)

	resp := env.postForm(t, "/admin/settings", url.Values{
		"site_name":      {""},
		"retention_days": {"30"},
	})
	body := readBody(t, resp)
	assert.Contains(t, body, "Site name must not be empty")
}

func TestSettings_RejectsBadRetention(t *testing.T) {
	env := setupTestServer(t)
	env.loginAsAdmin(t)

	resp := env.postForm(t, "/admin/settings", url.Values{
		"site_name":      {"Mind Lens"},
		"retention_days": {"soon"},
	})
	body := readBody(t, resp)
	assert.Contains(t, body, "non-negative")
}
