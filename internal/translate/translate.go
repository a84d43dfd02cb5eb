// ABOUTME: HTTP client for the external translation service
// ABOUTME: Failures surface as ErrUnavailable; callers fall back to the original text

package translate

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

// ErrUnavailable is returned when the translation service cannot be reached
// or returns an unusable response. Callers must treat this as non-fatal and
// continue with the untranslated text.
var ErrUnavailable = errors.New("translation service unavailable")

// Translator converts free text to the configured target language.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// Client is an HTTP Translator against a LibreTranslate-compatible endpoint.
type Client struct {
	baseURL string
	target  string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a translation client. The source language is always
// auto-detected; target is the language code translations are produced in.
func NewClient(baseURL, target string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		target:  target,
		http:    &http.Client{Timeout: timeout},
		logger:  slog.Default().With("component", "translate"),
	}
}

type translateRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
}

type translateResponse struct {
	TranslatedText string `json:"translatedText"`
}

// Translate returns text rendered in the target language.
func (c *Client) Translate(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(translateRequest{
		Q:      text,
		Source: "auto",
		Target: c.target,
		Format: "text",
	})
	if err != nil {
		return "", fmt.Errorf("encoding translate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/translate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building translate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("translation request failed", "error", err)
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("translation request rejected", "status", resp.StatusCode)
		return "", fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("%w: reading response: %v", ErrUnavailable, err)
	}

	var out translateResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("%w: decoding response: %v", ErrUnavailable, err)
	}
	if out.TranslatedText == "" {
		return "", fmt.Errorf("%w: empty translation", ErrUnavailable)
	}

	return out.TranslatedText, nil
}

// Disabled is a Translator that passes text through unchanged, used when
// translation is turned off in the config.
type Disabled struct{}

// Translate returns the input text unmodified.
func (Disabled) Translate(_ context.Context, text string) (string, error) {
	return text, nil
}
