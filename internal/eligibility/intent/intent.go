// Package intent labels a citizen's free-text message with what they are
// asking for. Like the risk scorer it never fails: a missing or broken
// artifact yields an unavailable outcome.
package intent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"saral/internal/eligibility/ports"
	"saral/pkg/requestcontext"
)

// Failure stages reported to the recorder.
const (
	StageIntentLoad     = "intent_load"
	StageIntentClassify = "intent_classify"
)

// LabelUnknown is the label of every unavailable outcome.
const LabelUnknown = "unknown"

// Outcome is the result of classifying one message.
type Outcome struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Available  bool    `json:"available"`
	Cause      string  `json:"cause,omitempty"`
	FailureID  string  `json:"failure_id,omitempty"`
}

// Intent lazily loads its classifier once and shares it across callers.
type Intent struct {
	loader   Loader
	recorder ports.FailureRecorder
	logger   *slog.Logger

	once    sync.Once
	clf     Classifier
	loadErr error
}

// Option configures an Intent.
type Option func(*Intent)

// WithFailureRecorder sets the recorder notified on load and classify failures.
func WithFailureRecorder(r ports.FailureRecorder) Option {
	return func(i *Intent) { i.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(i *Intent) { i.logger = l }
}

// New creates an intent classifier. Nothing is loaded until first use.
func New(loader Loader, opts ...Option) *Intent {
	i := &Intent{loader: loader, logger: slog.Default()}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func (i *Intent) load() {
	i.once.Do(func() {
		defer func() {
			if r := recover(); r != nil {
				i.clf = nil
				i.loadErr = fmt.Errorf("intent load panicked: %v", r)
			}
		}()
		if i.loader == nil {
			i.loadErr = ErrModelMissing
			return
		}
		clf, err := i.loader.Load()
		if err == nil && clf == nil {
			err = ErrModelMissing
		}
		i.clf, i.loadErr = clf, err
	})
}

// Available reports whether the classifier loaded successfully.
func (i *Intent) Available() bool {
	i.load()
	return i.loadErr == nil
}

// Classify never returns an error and never panics.
func (i *Intent) Classify(ctx context.Context, text string) (out Outcome) {
	if strings.TrimSpace(text) == "" {
		return Outcome{Label: LabelUnknown, Cause: "empty_text"}
	}
	i.load()
	if i.loadErr != nil {
		return i.unavailable(ctx, StageIntentLoad, i.loadErr)
	}

	defer func() {
		if r := recover(); r != nil {
			out = i.unavailable(ctx, StageIntentClassify, fmt.Errorf("intent classifier panicked: %v", r))
		}
	}()

	label, confidence, err := i.clf.Classify(text)
	if err != nil {
		return i.unavailable(ctx, StageIntentClassify, err)
	}
	if label == "" || confidence < 0 || confidence > 1 {
		return i.unavailable(ctx, StageIntentClassify, fmt.Errorf("label %q with confidence %v", label, confidence))
	}
	return Outcome{Label: label, Confidence: confidence, Available: true}
}

func (i *Intent) unavailable(ctx context.Context, stage string, err error) Outcome {
	cause := "model_error"
	if errors.Is(err, ErrModelMissing) {
		cause = "model_missing"
	}

	i.logger.WarnContext(ctx, "intent classifier unavailable",
		"stage", stage,
		"cause", cause,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)

	failureID := ""
	if i.recorder != nil {
		failureID = i.recorder.Record(ctx, stage, err, map[string]string{"cause": cause})
	}
	return Outcome{Label: LabelUnknown, Cause: cause, FailureID: failureID}
}
