// Package risk wraps the probabilistic classifier behind a non-failing
// contract: every prediction is either Scored or Unavailable.
package risk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"saral/internal/eligibility/models"
	"saral/internal/eligibility/ports"
	"saral/pkg/requestcontext"
)

// Failure stages reported to the recorder.
const (
	StageModelLoad    = "ml_load"
	StageModelPredict = "ml_predict"
)

// Scorer lazily loads its classifier exactly once and shares the handle
// across all callers.
type Scorer struct {
	loader   Loader
	recorder ports.FailureRecorder
	logger   *slog.Logger

	once    sync.Once
	clf     Classifier
	loadErr error
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithFailureRecorder sets the recorder notified on load and predict failures.
func WithFailureRecorder(r ports.FailureRecorder) Option {
	return func(s *Scorer) { s.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scorer) { s.logger = l }
}

// NewScorer creates a scorer. Nothing is loaded until first use.
func NewScorer(loader Loader, opts ...Option) *Scorer {
	s := &Scorer{loader: loader, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewStaticScorer wraps an already constructed classifier.
func NewStaticScorer(clf Classifier, opts ...Option) *Scorer {
	return NewScorer(LoaderFunc(func() (Classifier, error) { return clf, nil }), opts...)
}

func (s *Scorer) load() {
	s.once.Do(func() {
		defer func() {
			if r := recover(); r != nil {
				s.clf = nil
				s.loadErr = fmt.Errorf("classifier load panicked: %v", r)
			}
		}()
		if s.loader == nil {
			s.loadErr = ErrModelMissing
			return
		}
		clf, err := s.loader.Load()
		if err == nil && clf == nil {
			err = ErrModelMissing
		}
		s.clf, s.loadErr = clf, err
	})
}

// Available reports whether the classifier loaded successfully.
func (s *Scorer) Available() bool {
	s.load()
	return s.loadErr == nil
}

// Predict never returns an error and never panics. Failures produce the
// Unavailable outcome and are reported to the failure recorder.
func (s *Scorer) Predict(ctx context.Context, p models.Profile) (out models.RiskOutcome) {
	s.load()
	if s.loadErr != nil {
		return s.unavailable(ctx, StageModelLoad, s.loadErr)
	}

	defer func() {
		if r := recover(); r != nil {
			out = s.unavailable(ctx, StageModelPredict, fmt.Errorf("classifier panicked: %v", r))
		}
	}()

	prob, reasons, err := s.clf.Predict(FeaturesOf(p))
	if err != nil {
		return s.unavailable(ctx, StageModelPredict, err)
	}
	if math.IsNaN(prob) || prob < 0 || prob > 1 {
		return s.unavailable(ctx, StageModelPredict, fmt.Errorf("probability %v out of range", prob))
	}
	return Scored(prob, reasons, p.Marginalized)
}

func (s *Scorer) unavailable(ctx context.Context, stage string, err error) models.RiskOutcome {
	cause := "model_error"
	if errors.Is(err, ErrModelMissing) {
		cause = "model_missing"
	}

	s.logger.WarnContext(ctx, "risk scorer unavailable",
		"stage", stage,
		"cause", cause,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)

	failureID := ""
	if s.recorder != nil {
		failureID = s.recorder.Record(ctx, stage, err, map[string]string{"cause": cause})
	}
	return Unavailable(cause, failureID)
}
