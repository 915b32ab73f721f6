// Package kafka mirrors audit events onto a Kafka topic as JSON records keyed
// by case ID, so downstream analysis sees per-case ordering.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	audit "saral/pkg/platform/audit"
	"saral/pkg/platform/circuit"
)

// ErrCircuitOpen is returned while the breaker short-circuits produce calls.
var ErrCircuitOpen = errors.New("audit topic circuit open")

// Producer is the subset of *kgo.Client used by the sink.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Sink implements audit.Sink over a Kafka producer.
type Sink struct {
	producer Producer
	topic    string
	breaker  *circuit.Breaker
	logger   *slog.Logger
	cooldown time.Duration
	now      func() time.Time

	mu       sync.Mutex
	openedAt time.Time
}

// Option configures a Sink.
type Option func(*Sink)

// WithBreaker overrides the default circuit breaker.
func WithBreaker(b *circuit.Breaker) Option {
	return func(s *Sink) {
		s.breaker = b
	}
}

// WithCooldown sets how long an open circuit fails fast before probing.
func WithCooldown(d time.Duration) Option {
	return func(s *Sink) {
		s.cooldown = d
	}
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Sink) {
		s.now = now
	}
}

// WithLogger logs breaker transitions.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sink) {
		s.logger = logger
	}
}

// New creates a sink producing to topic.
func New(producer Producer, topic string, opts ...Option) *Sink {
	s := &Sink{
		producer: producer,
		topic:    topic,
		breaker:  circuit.New("audit-topic", circuit.WithFailureThreshold(5), circuit.WithSuccessThreshold(1)),
		cooldown: 30 * time.Second,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// record is the JSON shape published on the topic.
type record struct {
	ID          string            `json:"id"`
	Category    string            `json:"category"`
	Timestamp   string            `json:"timestamp"`
	CaseID      string            `json:"case_id,omitempty"`
	SubjectHash string            `json:"subject_hash,omitempty"`
	Action      string            `json:"action"`
	Decision    string            `json:"decision,omitempty"`
	Reason      string            `json:"reason,omitempty"`
	RequestID   string            `json:"request_id,omitempty"`
	ActorID     string            `json:"actor_id,omitempty"`
	Payload     map[string]string `json:"payload,omitempty"`
}

// Append produces the event synchronously. While the breaker is open, calls
// fail fast with ErrCircuitOpen until the cooldown elapses and one trial send
// is let through.
func (s *Sink) Append(ctx context.Context, event audit.Event) error {
	if !s.allow() {
		return ErrCircuitOpen
	}

	value, err := json.Marshal(record{
		ID:          event.ID,
		Category:    string(event.Category),
		Timestamp:   event.Timestamp.UTC().Format(time.RFC3339Nano),
		CaseID:      event.CaseID,
		SubjectHash: event.SubjectHash,
		Action:      event.Action,
		Decision:    event.Decision,
		Reason:      event.Reason,
		RequestID:   event.RequestID,
		ActorID:     event.ActorID,
		Payload:     event.Payload,
	})
	if err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}

	key := event.CaseID
	if key == "" {
		key = event.ID
	}
	rec := &kgo.Record{
		Topic:     s.topic,
		Key:       []byte(key),
		Value:     value,
		Timestamp: event.Timestamp,
		Headers: []kgo.RecordHeader{
			{Key: "action", Value: []byte(event.Action)},
			{Key: "category", Value: []byte(event.Category)},
		},
	}

	if err := s.producer.ProduceSync(ctx, rec).FirstErr(); err != nil {
		s.mu.Lock()
		s.openedAt = s.now()
		s.mu.Unlock()
		if _, change := s.breaker.RecordFailure(); change.Opened && s.logger != nil {
			s.logger.WarnContext(ctx, "audit topic circuit opened", "topic", s.topic, "error", err)
		}
		return fmt.Errorf("produce audit record: %w", err)
	}
	if _, change := s.breaker.RecordSuccess(); change.Closed && s.logger != nil {
		s.logger.InfoContext(ctx, "audit topic circuit closed", "topic", s.topic)
	}
	return nil
}

func (s *Sink) allow() bool {
	if !s.breaker.IsOpen() {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.now().Sub(s.openedAt) < s.cooldown {
		return false
	}
	s.openedAt = s.now()
	return true
}
