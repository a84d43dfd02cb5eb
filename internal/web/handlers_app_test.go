// ABOUTME: Tests for the analyze form and the about page
// ABOUTME: Covers anonymous and attributed analyses and input validation

package web

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHome(t *testing.T) {
	env := setupTestServer(t)

	resp := env.get(t, "/")
	body := readBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Analyze")
	assert.Contains(t, body, "recorded anonymously")
}

func TestAnalyze_Anonymous(t *testing.T) {
	env := setupTestServer(t)

	resp := env.postForm(t, "/analyze", url.Values{
		"text": {"I feel fine today"},
	})
	body := readBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "normal")

	// The event is recorded without attribution
	events, err := env.store.RecentResults(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Nil(t, events[0].Actor)
	assert.Equal(t, "normal", events[0].Label)
}

func TestAnalyze_AttributedToLoggedInUser(t *testing.T) {
	env := setupTestServer(t)
	env.signup(t, "alice", "wonderland")
	env.login(t, "alice", "wonderland")

	resp := env.postForm(t, "/analyze", url.Values{
		"text": {"I feel fine today"},
	})
	resp.Body.Close()

	events, err := env.store.RecentResults(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.NotNil(t, events[0].Actor)
	assert.Equal(t, "alice", *events[0].Actor)
}

func TestAnalyze_EmptyText(t *testing.T) {
	env := setupTestServer(t)

	resp := env.postForm(t, "/analyze", url.Values{
		"text": {"   "},
	})
	body := readBody(t, resp)
	assert.Contains(t, body, "Enter some text to analyze")

	events, err := env.store.RecentResults(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestAnalyze_MissingCSRF(t *testing.T) {
	env := setupTestServer(t)

	resp, err := env.client.PostForm(env.server.URL+"/analyze", url.Values{
		"text": {"I feel fine today"},
	})
	require.NoError(t, err)
	body := readBody(t, resp)
	assert.Contains(t, body, "Invalid request")

	events, err := env.store.RecentResults(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestAnalyze_ShowsResources(t *testing.T) {
	env := setupTestServer(t)

	resp := env.postForm(t, "/analyze", url.Values{
		"text": {"I feel fine today"},
	})
	body := readBody(t, resp)

	// The "normal" label has a matching resources card
	assert.Contains(t, body, "card")
	assert.Contains(t, body, "<li>")
}

func TestAbout(t *testing.T) {
	env := setupTestServer(t)

	resp := env.get(t, "/about")
	body := readBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "not a diagnosis")
}
