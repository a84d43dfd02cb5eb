// ABOUTME: The analysis flow: translate, classify, record, degrade gracefully
// ABOUTME: Collaborator failures become warnings on the result, never aborts

package analyze

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/mindlens/mindlens/internal/auth"
	"github.com/mindlens/mindlens/internal/classify"
	"github.com/mindlens/mindlens/internal/store"
	"github.com/mindlens/mindlens/internal/translate"
)

// ErrEmptyInput is returned when the submitted text is empty or whitespace.
var ErrEmptyInput = errors.New("no text to analyze")

// Degradation notices attached to a Result when a collaborator failed.
const (
	WarnTranslationUnavailable    = "Translation was unavailable; the original text was analyzed as-is."
	WarnClassificationUnavailable = "Classification was unavailable; the result could not be labeled."
	WarnLoggingUnavailable        = "The result could not be recorded."
)

// Result is the outcome of one analysis request.
type Result struct {
	EventID      int64 // 0 when logging failed
	InputText    string
	AnalyzedText string // translation when available, otherwise the input
	Translated   bool
	Label        string
	Confidence   *float64
	Logged       bool
	Warnings     []string
}

// Service runs the analysis flow against the two external collaborators and
// the event log.
type Service struct {
	store       store.Store
	translator  translate.Translator
	classifier  classify.Classifier
	logger      *slog.Logger
	logFailures atomic.Int64
}

// New creates the analysis service.
func New(st store.Store, tr translate.Translator, cl classify.Classifier) *Service {
	return &Service{
		store:      st,
		translator: tr,
		classifier: cl,
		logger:     slog.Default().With("component", "analyze"),
	}
}

// Analyze translates and classifies text, appends one event to the result
// log, and returns the outcome. Translator and classifier failures degrade
// the result; a log failure is reported on the result and counted for the
// admin view, but the user still gets their analysis.
func (s *Service) Analyze(ctx context.Context, sc *auth.SessionContext, text string) (*Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyInput
	}

	result := &Result{
		InputText:    text,
		AnalyzedText: text,
	}

	translated, err := s.translator.Translate(ctx, text)
	if err != nil {
		s.logger.Warn("translation degraded", "error", err)
		result.Warnings = append(result.Warnings, WarnTranslationUnavailable)
	} else {
		result.AnalyzedText = translated
		result.Translated = translated != text
	}

	prediction, err := s.classifier.Classify(ctx, result.AnalyzedText)
	if err != nil {
		s.logger.Error("classification degraded", "error", err)
		result.Label = classify.LabelUnknown
		result.Warnings = append(result.Warnings, WarnClassificationUnavailable)
	} else {
		result.Label = prediction.Label
		confidence := prediction.Confidence
		result.Confidence = &confidence
	}

	event := &store.AnalysisEvent{
		Actor:      sc.Actor(),
		InputText:  text,
		Label:      result.Label,
		Confidence: result.Confidence,
		Timestamp:  time.Now(),
	}
	if result.Translated {
		translatedText := result.AnalyzedText
		event.TranslatedText = &translatedText
	}

	id, err := s.store.AppendResult(ctx, event)
	if err != nil {
		// Non-fatal for the user, but never swallowed: logged and counted
		// so admins can see the store is degraded.
		s.logFailures.Add(1)
		s.logger.Error("recording analysis result failed", "error", err)
		result.Warnings = append(result.Warnings, WarnLoggingUnavailable)
		return result, nil
	}

	result.EventID = id
	result.Logged = true
	return result, nil
}

// LogFailures returns how many append attempts have failed since startup.
// Shown on the admin dashboard as a persistence health signal.
func (s *Service) LogFailures() int64 {
	return s.logFailures.Load()
}
