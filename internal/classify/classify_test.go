// ABOUTME: Tests for the classification client
// ABOUTME: Covers argmax, response shapes, label normalization, and failures

package classify

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

func TestClient_Classify_ArgmaxOverNestedScores(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/test/model", r.URL.Path)

		var req inferenceRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "I can't sleep at night", req.Inputs)

		_ = json.NewEncoder(w).Encode([][]labelScore{{
			{Label: "anxiety", Score: 0.72},
			{Label: "normal", Score: 0.18},
			{Label: "stress", Score: 0.10},
		}})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test/model", "", 5*time.Second)

	pred, err := client.Classify(context.Background(), "I can't sleep at night")
	require.NoError(t, err)
	assert.Equal(t, "anxiety", pred.Label)
	assert.InDelta(t, 0.72, pred.Confidence, 0.0001)
}

func TestClient_Classify_FlatScores(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]labelScore{
			{Label: "depression", Score: 0.61},
			{Label: "normal", Score: 0.39},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test/model", "", 5*time.Second)

	pred, err := client.Classify(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, "depression", pred.Label)
}

func TestClient_Classify_NormalizesLabelCase(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([][]labelScore{{
			{Label: "Personality Disorder", Score: 0.9},
		}})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test/model", "", 5*time.Second)

	pred, err := client.Classify(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, "personality disorder", pred.Label)
}

func TestClient_Classify_UnexpectedLabelMapsToUnknown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([][]labelScore{{
			{Label: "euphoria", Score: 0.95},
		}})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test/model", "", 5*time.Second)

	pred, err := client.Classify(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, LabelUnknown, pred.Label)
}

func TestClient_Classify_SendsAuthHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer hf-token", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode([][]labelScore{{{Label: "normal", Score: 1}}})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test/model", "hf-token", 5*time.Second)

	_, err := client.Classify(context.Background(), "text")
	require.NoError(t, err)
}

func TestClient_Classify_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test/model", "", 5*time.Second)

	_, err := client.Classify(context.Background(), "text")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestClient_Classify_EmptyScores(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]labelScore{})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test/model", "", 5*time.Second)

	_, err := client.Classify(context.Background(), "text")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestKnown(t *testing.T) {
	for _, label := range Labels {
		assert.True(t, Known(label), label)
	}
	assert.False(t, Known("Unknown"))
	assert.False(t, Known("Anxiety")) // case-sensitive; normalization happens before lookup
}
