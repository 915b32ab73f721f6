package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/twmb/franz-go/pkg/kgo"

	"saral/internal/eligibility/adapters"
	"saral/internal/eligibility/documents"
	"saral/internal/eligibility/experiment"
	"saral/internal/eligibility/intent"
	eligibilityhandler "saral/internal/eligibility/handler"
	eligibilitymetrics "saral/internal/eligibility/metrics"
	"saral/internal/eligibility/models"
	"saral/internal/eligibility/nearmiss"
	"saral/internal/eligibility/risk"
	"saral/internal/eligibility/rules"
	"saral/internal/eligibility/scheme"
	"saral/internal/eligibility/service"
	"saral/internal/eligibility/store/attempts"
	"saral/internal/eligibility/store/cases"
	"saral/internal/platform/config"
	"saral/internal/platform/httpserver"
	kafkaplatform "saral/internal/platform/kafka"
	"saral/internal/platform/logger"
	"saral/internal/platform/metrics"
	"saral/internal/platform/postgres"
	redisplatform "saral/internal/platform/redis"
	"saral/pkg/platform/audit"
	"saral/pkg/platform/audit/publisher"
	"saral/pkg/platform/audit/publishers/compliance"
	kafkasink "saral/pkg/platform/audit/store/kafka"
	auditmemory "saral/pkg/platform/audit/store/memory"
	auditpostgres "saral/pkg/platform/audit/store/postgres"
	"saral/pkg/platform/middleware/metadata"
	"saral/pkg/platform/middleware/request"
	"saral/pkg/platform/middleware/requesttime"
)

const (
	auditTopicPartitions  = 3
	auditTopicReplication = 1
	auditAsyncBuffer      = 256
	shutdownTimeout       = 10 * time.Second
)

// infra holds the optional backing services. Nil fields fall back to
// in-memory implementations.
type infra struct {
	caseStore  service.CaseStore
	auditStore audit.Store
	limiter    service.AttemptLimiter
	tx         service.Transactor
	sinks      []audit.Sink
	checks     map[string]service.HealthChecker
	closers    []func()
}

func (i *infra) close() {
	for n := len(i.closers) - 1; n >= 0; n-- {
		i.closers[n]()
	}
}

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal service packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Server.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	registry, err := scheme.LoadFile(cfg.Scheme.ConfigPath)
	if err != nil {
		return err
	}

	deps, err := buildInfra(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer deps.close()

	compliancePublisher := publisher.NewPublisher(deps.auditStore,
		publisher.WithSinks(deps.sinks...),
		publisher.WithLogger(log),
	)
	eventsPublisher := publisher.NewPublisher(deps.auditStore,
		publisher.WithAsyncBuffer(auditAsyncBuffer),
		publisher.WithSinks(deps.sinks...),
		publisher.WithLogger(log),
	)
	defer eventsPublisher.Close()

	recorder := adapters.NewAuditFailureRecorder(eventsPublisher, log)
	scorer := risk.NewScorer(risk.FileLoader{Path: cfg.Model.Path},
		risk.WithFailureRecorder(recorder),
		risk.WithLogger(log),
	)
	if !scorer.Available() {
		log.Warn("classifier unavailable; cases will be routed to review",
			"path", cfg.Model.Path,
		)
	}

	intents := intent.New(intent.FileLoader{Path: cfg.Model.IntentPath},
		intent.WithFailureRecorder(recorder),
		intent.WithLogger(log),
	)
	if !intents.Available() {
		log.Warn("intent classifier unavailable; message text will not be labelled",
			"path", cfg.Model.IntentPath,
		)
	}

	opts := []service.Option{
		service.WithLogger(log),
		service.WithComplianceAudit(compliance.New(compliancePublisher,
			compliance.WithLogger(log),
			compliance.WithMetrics(compliance.NewMetrics()),
		)),
		service.WithAuditPublisher(eventsPublisher),
		service.WithEventFeed(compliancePublisher),
		service.WithMetrics(eligibilitymetrics.New()),
	}
	if deps.tx != nil {
		opts = append(opts, service.WithTransactor(deps.tx))
	}
	for name, check := range deps.checks {
		opts = append(opts, service.WithHealthCheck(name, check))
	}

	svc := service.New(deps.caseStore, deps.limiter, service.Engine{
		Schemes:   registry,
		Rules:     rules.New(registry),
		NearMiss:  nearmiss.New(registry),
		Risk:      scorer,
		Intent:    intents,
		Assigner:  experiment.NewAssigner(cfg.Experiment.Salt),
		Checklist: documents.New(registry),
	}, service.Config{
		MaxAttempts:   cfg.Limits.MaxAttempts,
		AttemptWindow: cfg.Limits.AttemptWindow,
		PIIRetention:  cfg.Limits.PIIRetention,
		ModelPath:     cfg.Model.Path,
		Provenance: models.Provenance{
			AppVersion:     cfg.Provenance.AppVersion,
			RulesetVersion: cfg.Provenance.RulesetVersion,
			ModelVersion:   cfg.Model.Version,
			SchemaVersion:  cfg.Provenance.SchemaVersion,
		},
	}, opts...)

	httpMetrics := metrics.New()
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(request.Recovery(log))
	r.Use(request.Logger(log))
	r.Use(httpMetrics.Middleware)
	r.Handle("/metrics", metrics.Handler())

	eligibilityhandler.New(svc, log, eligibilityhandler.Config{
		AppVersion: cfg.Provenance.AppVersion,
		AdminToken: cfg.Server.AdminToken,
	}).Register(r)

	srv := httpserver.New(cfg.Server.Addr, r)
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting saral",
			"addr", cfg.Server.Addr,
			"env", cfg.Server.Environment,
			"schemes", registry.Codes(),
			"ruleset_version", registry.Version(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	log.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

func buildInfra(ctx context.Context, cfg config.Config, log *slog.Logger) (*infra, error) {
	deps := &infra{checks: make(map[string]service.HealthChecker)}

	db, err := postgres.New(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if db != nil {
		deps.closers = append(deps.closers, func() { _ = db.Close() })
		if err := postgres.Migrate(ctx, db); err != nil {
			deps.close()
			return nil, err
		}
		deps.caseStore = cases.NewPostgres(db)
		deps.auditStore = auditpostgres.New(db)
		deps.tx = newCasePostgresTx(db)
		log.Info("using postgres stores")
	} else {
		deps.caseStore = cases.NewInMemory()
		deps.auditStore = auditmemory.NewInMemoryStore()
		log.Warn("DATABASE_URL not set; cases are kept in memory")
	}

	rc, err := redisplatform.New(ctx, cfg.Redis)
	if err != nil {
		deps.close()
		return nil, err
	}
	if rc != nil {
		deps.closers = append(deps.closers, func() { _ = rc.Close() })
		deps.limiter = attempts.NewRedis(rc.Client)
		deps.checks["redis"] = rc
	} else {
		deps.limiter = attempts.NewInMemory()
	}

	kc, err := kafkaplatform.New(cfg.Kafka)
	if err != nil {
		deps.close()
		return nil, err
	}
	if kc != nil {
		deps.closers = append(deps.closers, kc.Close)
		if err := kafkaplatform.EnsureTopic(ctx, kc, cfg.Kafka.Topic, auditTopicPartitions, auditTopicReplication); err != nil {
			log.Warn("audit topic not ensured", "topic", cfg.Kafka.Topic, "error", err)
		}
		deps.sinks = append(deps.sinks, kafkasink.New(kc, cfg.Kafka.Topic, kafkasink.WithLogger(log)))
		deps.checks["kafka"] = kafkaHealth(kc)
	}
	return deps, nil
}

func kafkaHealth(client *kgo.Client) healthFunc {
	return func(ctx context.Context) error {
		return kafkaplatform.Health(ctx, client)
	}
}
