// Package compliance provides a fail-closed audit publisher for events that
// the experiment's reproducibility depends on.
//
// Emit is synchronous: the caller blocks until the store accepts the event,
// and a persistence failure is returned so the calling operation fails too.
// A case whose arm assignment was not recorded must not be returned.
//
// Use for: arm_assigned, case_created, op_disposition, pii_pruned
package compliance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	audit "saral/pkg/platform/audit"
)

// Emitter is the downstream used for persistence; *publisher.Publisher in
// sync mode satisfies it and adds sink fan-out.
type Emitter interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Publisher emits compliance events with fail-closed semantics.
type Publisher struct {
	emitter Emitter
	logger  *slog.Logger
	metrics *Metrics
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithLogger sets a logger for error reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// New creates a compliance publisher.
func New(emitter Emitter, opts ...Option) *Publisher {
	p := &Publisher{emitter: emitter}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit synchronously writes a compliance event.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	start := time.Now()

	if event.Action == "" {
		return errors.New("compliance event requires Action")
	}
	if event.CaseID == "" && event.Action != string(audit.EventProfilesPruned) {
		return errors.New("compliance event requires CaseID")
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	event.Category = audit.CategoryCompliance

	if err := p.emitter.Emit(ctx, event); err != nil {
		p.metrics.IncPersistFailures()
		if p.logger != nil {
			p.logger.ErrorContext(ctx, "CRITICAL: compliance audit failed",
				"action", event.Action,
				"case_id", event.CaseID,
				"error", err,
			)
		}
		return fmt.Errorf("compliance audit persistence failed: %w", err)
	}

	p.metrics.ObservePersistDuration(time.Since(start).Seconds())
	p.metrics.IncEventsEmitted()
	return nil
}
