// ABOUTME: HTTP client for the hosted text-classification model
// ABOUTME: Argmax over returned label scores; failures degrade to LabelUnknown

package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// ErrUnavailable is returned when the classifier cannot be reached or
// returns an unusable response. Callers degrade to LabelUnknown.
var ErrUnavailable = errors.New("classification service unavailable")

// LabelUnknown is the label reported when classification is unavailable or
// the model returns something outside the known label set.
const LabelUnknown = "Unknown"

// Labels is the fixed set of labels the model is expected to produce.
var Labels = []string{
	"anxiety",
	"bipolar",
	"depression",
	"normal",
	"personality disorder",
	"stress",
	"suicidal",
}

// Known reports whether label is in the fixed label set.
func Known(label string) bool {
	for _, l := range Labels {
		if l == label {
			return true
		}
	}
	return false
}

// Prediction is the classifier's output for one input.
type Prediction struct {
	Label      string
	Confidence float64
}

// Classifier assigns one of the fixed labels to a piece of text.
type Classifier interface {
	Classify(ctx context.Context, text string) (*Prediction, error)
}

// Client is an HTTP Classifier against a model-hub inference endpoint.
type Client struct {
	baseURL string
	model   string
	token   string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a classification client for the given hosted model.
// token may be empty for endpoints that allow unauthenticated inference.
func NewClient(baseURL, model, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		token:   token,
		http:    &http.Client{Timeout: timeout},
		logger:  slog.Default().With("component", "classify"),
	}
}

type inferenceRequest struct {
	Inputs string `json:"inputs"`
}

type labelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Classify sends text to the inference endpoint and picks the label with
// the highest score. Labels are matched case-insensitively against the
// known set; anything else maps to LabelUnknown.
func (c *Client) Classify(ctx context.Context, text string) (*Prediction, error) {
	body, err := json.Marshal(inferenceRequest{Inputs: text})
	if err != nil {
		return nil, fmt.Errorf("encoding inference request: %w", err)
	}

	url := c.baseURL + "/models/" + c.model
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building inference request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("inference request failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("inference request rejected", "status", resp.StatusCode)
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrUnavailable, err)
	}

	scores, err := decodeScores(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	best := argmax(scores)
	if best == nil {
		return nil, fmt.Errorf("%w: no scores returned", ErrUnavailable)
	}

	label := strings.ToLower(best.Label)
	if !Known(label) {
		c.logger.Warn("model returned unexpected label", "label", best.Label)
		return &Prediction{Label: LabelUnknown, Confidence: best.Score}, nil
	}

	return &Prediction{Label: label, Confidence: best.Score}, nil
}

// decodeScores handles both the nested ([[{label,score}]]) and flat
// ([{label,score}]) response shapes the inference endpoint produces.
func decodeScores(data []byte) ([]labelScore, error) {
	var nested [][]labelScore
	if err := json.Unmarshal(data, &nested); err == nil && len(nested) > 0 {
		return nested[0], nil
	}

	var flat []labelScore
	if err := json.Unmarshal(data, &flat); err != nil {
		return nil, fmt.Errorf("decoding scores: %v", err)
	}
	return flat, nil
}

func argmax(scores []labelScore) *labelScore {
	var best *labelScore
	for i := range scores {
		if best == nil || scores[i].Score > best.Score {
			best = &scores[i]
		}
	}
	return best
}
