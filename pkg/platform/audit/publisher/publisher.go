// Package publisher fans audit events out to a primary store and optional sinks.
//
// In sync mode Emit returns once the primary store has the event. With
// WithAsyncBuffer, events are queued to a bounded channel and written by a
// single background goroutine; Close drains the queue.
package publisher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	audit "saral/pkg/platform/audit"
)

// ErrBufferFull is returned by Emit in async mode when the queue is saturated.
var ErrBufferFull = errors.New("audit buffer full")

// Publisher writes audit events to a store and mirrors them to sinks.
type Publisher struct {
	store  audit.Store
	sinks  []audit.Sink
	logger *slog.Logger

	queue chan audit.Event
	wg    sync.WaitGroup
	once  sync.Once
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithAsyncBuffer switches the publisher to async mode with a queue of size n.
func WithAsyncBuffer(n int) Option {
	return func(p *Publisher) {
		if n > 0 {
			p.queue = make(chan audit.Event, n)
		}
	}
}

// WithSinks mirrors every persisted event to the given sinks. Sink failures
// are logged and never fail the emit.
func WithSinks(sinks ...audit.Sink) Option {
	return func(p *Publisher) {
		p.sinks = append(p.sinks, sinks...)
	}
}

// WithLogger sets a logger for sink and async write failures.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// NewPublisher creates a publisher over store.
func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	if p.queue != nil {
		p.wg.Add(1)
		go p.run()
	}
	return p
}

// Emit records an event. Missing ID, timestamp and category are filled in.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}

	if p.queue == nil {
		return p.write(ctx, event)
	}

	select {
	case p.queue <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrBufferFull
	}
}

// ListRecent returns the most recent events from the primary store.
func (p *Publisher) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	return p.store.ListRecent(ctx, limit)
}

// Close stops the async worker after draining queued events.
func (p *Publisher) Close() {
	p.once.Do(func() {
		if p.queue != nil {
			close(p.queue)
			p.wg.Wait()
		}
	})
}

func (p *Publisher) run() {
	defer p.wg.Done()
	for event := range p.queue {
		if err := p.write(context.Background(), event); err != nil && p.logger != nil {
			p.logger.Error("async audit write failed",
				"action", event.Action,
				"event_id", event.ID,
				"error", err,
			)
		}
	}
}

func (p *Publisher) write(ctx context.Context, event audit.Event) error {
	if err := p.store.Append(ctx, event); err != nil {
		return err
	}
	for _, sink := range p.sinks {
		if err := sink.Append(ctx, event); err != nil && p.logger != nil {
			p.logger.WarnContext(ctx, "audit sink append failed",
				"action", event.Action,
				"event_id", event.ID,
				"error", err,
			)
		}
	}
	return nil
}
