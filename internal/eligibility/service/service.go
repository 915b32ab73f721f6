package service

import (
	"context"
	"encoding/hex"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"golang.org/x/crypto/blake2b"

	"saral/internal/eligibility/intent"
	"saral/internal/eligibility/metrics"
	"saral/internal/eligibility/models"
	"saral/internal/eligibility/store/attempts"
	"saral/internal/eligibility/store/cases"
	id "saral/pkg/domain"
	"saral/pkg/platform/audit"
	"saral/pkg/requestcontext"
)

var tracer = otel.Tracer("saral/internal/eligibility/service")

type CaseStore interface {
	Create(ctx context.Context, c *models.Case) error
	FindByID(ctx context.Context, caseID id.CaseID) (*models.Case, error)
	List(ctx context.Context, f cases.Filter) ([]*models.Case, error)
	Update(ctx context.Context, caseID id.CaseID, fn func(*models.Case) error) (*models.Case, error)
	RedactProfilesBefore(ctx context.Context, cutoff, now time.Time) (int, error)
	CountByStatus(ctx context.Context) ([]cases.StatusCount, error)
	Ping(ctx context.Context) error
}

type AttemptLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (attempts.Result, error)
}

type SchemeRegistry interface {
	Has(code string) bool
	Version() string
}

type RuleEvaluator interface {
	Evaluate(code string, p models.Profile) models.RuleOutcome
}

type NearMissChecker interface {
	Check(p models.Profile, code string) models.NearMissOutcome
}

type RiskPredictor interface {
	Predict(ctx context.Context, p models.Profile) models.RiskOutcome
	Available() bool
}

type IntentClassifier interface {
	Classify(ctx context.Context, text string) intent.Outcome
	Available() bool
}

type ArmAssigner interface {
	Assign(citizenID, schemeCode string) models.ArmAssignment
}

type ChecklistGenerator interface {
	Checklist(code string, p models.Profile) []string
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type EventFeed interface {
	ListRecent(ctx context.Context, limit int) ([]audit.Event, error)
}

// HealthChecker is satisfied by the redis and kafka clients.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Transactor runs fn so that the case write and its compliance event commit
// together. Without one, fn runs directly.
type Transactor interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Engine groups the pure decision components an adjudication runs through.
// Intent is optional.
type Engine struct {
	Schemes   SchemeRegistry
	Rules     RuleEvaluator
	NearMiss  NearMissChecker
	Risk      RiskPredictor
	Intent    IntentClassifier
	Assigner  ArmAssigner
	Checklist ChecklistGenerator
}

// Config carries the limits and provenance stamped on every case.
type Config struct {
	MaxAttempts   int
	AttemptWindow time.Duration
	PIIRetention  time.Duration
	Provenance    models.Provenance
	ModelPath     string
}

const (
	defaultMaxAttempts   = 3
	defaultAttemptWindow = 15 * time.Minute
	defaultPIIRetention  = 24 * time.Hour
)

// Service orchestrates adjudication, case review and ops workflows.
type Service struct {
	cases      CaseStore
	limiter    AttemptLimiter
	engine     Engine
	cfg        Config
	logger     *slog.Logger
	compliance AuditPublisher
	events     AuditPublisher
	feed       EventFeed
	tx         Transactor
	metrics    *metrics.Metrics
	checks     map[string]HealthChecker
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithComplianceAudit sets the fail-closed publisher for arm assignment,
// case creation, disposition and pruning events.
func WithComplianceAudit(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.compliance = publisher
	}
}

// WithAuditPublisher sets the best-effort publisher for security and
// operations events.
func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.events = publisher
	}
}

func WithEventFeed(feed EventFeed) Option {
	return func(s *Service) {
		s.feed = feed
	}
}

func WithTransactor(t Transactor) Option {
	return func(s *Service) {
		s.tx = t
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithHealthCheck adds a named dependency to the health report.
func WithHealthCheck(name string, checker HealthChecker) Option {
	return func(s *Service) {
		if checker != nil {
			s.checks[name] = checker
		}
	}
}

// New constructs a Service.
func New(store CaseStore, limiter AttemptLimiter, engine Engine, cfg Config, opts ...Option) *Service {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.AttemptWindow <= 0 {
		cfg.AttemptWindow = defaultAttemptWindow
	}
	if cfg.PIIRetention <= 0 {
		cfg.PIIRetention = defaultPIIRetention
	}
	if cfg.Provenance.RulesetVersion == "" && engine.Schemes != nil {
		cfg.Provenance.RulesetVersion = engine.Schemes.Version()
	}
	s := &Service{
		cases:   store,
		limiter: limiter,
		engine:  engine,
		cfg:     cfg,
		checks:  make(map[string]HealthChecker),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

func (s *Service) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.tx == nil {
		return fn(ctx)
	}
	return s.tx.RunInTx(ctx, fn)
}

// emitCompliance returns the publisher error so the surrounding transaction
// rolls back.
func (s *Service) emitCompliance(ctx context.Context, event audit.Event) error {
	if s.compliance == nil {
		return nil
	}
	event.RequestID = requestcontext.RequestID(ctx)
	return s.compliance.Emit(ctx, event)
}

func (s *Service) logAudit(ctx context.Context, event audit.Event) {
	if s.events == nil {
		return
	}
	event.RequestID = requestcontext.RequestID(ctx)
	if err := s.events.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"action", event.Action,
			"error", err,
			"request_id", event.RequestID,
		)
	}
}

// subjectHash keeps raw citizen identifiers out of the audit trail.
func subjectHash(citizen id.CitizenID) string {
	sum := blake2b.Sum256([]byte(citizen))
	return hex.EncodeToString(sum[:8])
}
