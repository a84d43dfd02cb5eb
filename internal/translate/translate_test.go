// ABOUTME: Tests for the translation client
// ABOUTME: Uses httptest servers to cover success, failure, and passthrough

package translate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Translate(t *testing.T) {
	var gotBody translateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/translate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		_ = json.NewEncoder(w).Encode(translateResponse{TranslatedText: "hello world"})
	}))
	defer server.Close()

	client := NewClient(server.URL, "en", 5*time.Second)

	out, err := client.Translate(context.Background(), "hola mundo")
	require.NoError(t, err)
	assert.Equal(t, "hello world", out)

	assert.Equal(t, "hola mundo", gotBody.Q)
	assert.Equal(t, "auto", gotBody.Source)
	assert.Equal(t, "en", gotBody.Target)
}

func TestClient_Translate_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, "en", 5*time.Second)

	_, err := client.Translate(context.Background(), "hola")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestClient_Translate_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	client := NewClient(server.URL, "en", time.Second)

	_, err := client.Translate(context.Background(), "hola")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestClient_Translate_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "en", 5*time.Second)

	_, err := client.Translate(context.Background(), "hola")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestClient_Translate_EmptyTranslation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(translateResponse{TranslatedText: ""})
	}))
	defer server.Close()

	client := NewClient(server.URL, "en", 5*time.Second)

	_, err := client.Translate(context.Background(), "hola")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestDisabled_Passthrough(t *testing.T) {
	out, err := Disabled{}.Translate(context.Background(), "hola mundo")
	require.NoError(t, err)
	assert.Equal(t, "hola mundo", out)
}
