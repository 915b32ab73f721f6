package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	"saral/internal/eligibility/assist"
	"saral/internal/eligibility/documents"
	"saral/internal/eligibility/intent"
	"saral/internal/eligibility/metrics"
	"saral/internal/eligibility/models"
	"saral/internal/eligibility/nearmiss"
	"saral/internal/eligibility/risk"
	"saral/internal/eligibility/rules"
	"saral/internal/eligibility/scheme"
	"saral/internal/eligibility/store/attempts"
	"saral/internal/eligibility/store/cases"
	id "saral/pkg/domain"
	dErrors "saral/pkg/domain-errors"
	"saral/pkg/platform/audit"
	"saral/pkg/requestcontext"
)

type recordingPublisher struct {
	mu        sync.Mutex
	events    []audit.Event
	err       error
	lastLimit int
}

func (p *recordingPublisher) Emit(_ context.Context, event audit.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) ListRecent(_ context.Context, limit int) ([]audit.Event, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastLimit = limit
	out := append([]audit.Event{}, p.events...)
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (p *recordingPublisher) actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Action)
	}
	return out
}

func (p *recordingPublisher) last() audit.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.events[len(p.events)-1]
}

type stubRisk struct {
	probability float64
	available   bool
}

func (r *stubRisk) Predict(_ context.Context, p models.Profile) models.RiskOutcome {
	if !r.available {
		return risk.Unavailable("model_missing", "failure-1")
	}
	return risk.Scored(r.probability, []string{risk.FeatureIncomeLakh, risk.FeatureAge}, p.Marginalized)
}

func (r *stubRisk) Available() bool { return r.available }

// fixedArms assigns TREATMENT unless the citizen is listed as CONTROL.
type fixedArms map[string]models.Arm

func (a fixedArms) Assign(citizenID, _ string) models.ArmAssignment {
	arm := models.ArmTreatment
	if got, ok := a[citizenID]; ok {
		arm = got
	}
	return models.ArmAssignment{Arm: arm, Reason: "sha256_parity:000000000000"}
}

type stubIntent struct {
	out   intent.Outcome
	calls []string
}

func (i *stubIntent) Classify(_ context.Context, text string) intent.Outcome {
	i.calls = append(i.calls, text)
	return i.out
}

func (i *stubIntent) Available() bool { return i.out.Available }

type failingCheck struct{ err error }

func (c failingCheck) Health(context.Context) error { return c.err }

type ServiceSuite struct {
	suite.Suite
	ctx        context.Context
	now        time.Time
	store      *cases.InMemoryStore
	compliance *recordingPublisher
	events     *recordingPublisher
	risk       *stubRisk
	arms       fixedArms
	service    *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.now = time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(requestcontext.WithRequestID(context.Background(), "req-1"), s.now)
	s.store = cases.NewInMemory()
	s.compliance = &recordingPublisher{}
	s.events = &recordingPublisher{}
	s.risk = &stubRisk{probability: 0.8, available: true}
	s.arms = fixedArms{"citizen_control": models.ArmControl}

	reg, err := scheme.Default()
	s.Require().NoError(err)
	limiter := attempts.NewInMemory(attempts.WithClock(func() time.Time { return s.now }))

	s.service = New(s.store, limiter, Engine{
		Schemes:   reg,
		Rules:     rules.New(reg),
		NearMiss:  nearmiss.New(reg),
		Risk:      s.risk,
		Assigner:  s.arms,
		Checklist: documents.New(reg),
	}, Config{
		MaxAttempts:   3,
		AttemptWindow: 15 * time.Minute,
		PIIRetention:  24 * time.Hour,
		Provenance:    models.Provenance{AppVersion: "test", ModelVersion: "logit-v1", SchemaVersion: "1"},
		ModelPath:     "../../../models/risk_model.json",
	},
		WithComplianceAudit(s.compliance),
		WithAuditPublisher(s.events),
		WithEventFeed(s.events),
		WithMetrics(metrics.NewWith(prometheus.NewRegistry())),
	)
}

func (s *ServiceSuite) command(citizen string, income int64) AdjudicateCommand {
	return AdjudicateCommand{
		CitizenID:  id.CitizenID(citizen),
		SchemeCode: "PMAY",
		Source:     id.SourceWeb,
		Profile: models.Profile{
			Age:          30,
			Gender:       models.GenderFemale,
			Income:       models.Int64(income),
			IncomePeriod: models.IncomeAnnual,
		},
	}
}

func (s *ServiceSuite) seed(arm models.Arm, rule models.RuleResult, riskScore float64, created time.Time) *models.Case {
	c := &models.Case{
		ID:         id.NewCaseID(),
		CitizenID:  "seeded",
		SchemeCode: "PMAY",
		Source:     id.SourceWeb,
		Locale:     "en",
		Profile:    &models.Profile{Age: 40, Gender: models.GenderMale},
		Assignment: models.ArmAssignment{Arm: arm, Reason: "sha256_parity:abc"},
		Decision: models.DecisionRecord{
			RuleResult: rule,
			Risk:       models.RiskOutcome{Available: true, Probability: 1 - riskScore, RiskScore: riskScore, Band: risk.BandFor(riskScore)},
			AuditFlag:  true,
			Status:     models.StatusInReview,
		},
		Status:    models.StatusInReview,
		CreatedAt: created,
		UpdatedAt: created,
	}
	s.Require().NoError(s.store.Create(s.ctx, c))
	return c
}

func (s *ServiceSuite) TestAdjudicate() {
	s.Run("eligible treatment case is persisted with provenance and events", func() {
		res, err := s.service.Adjudicate(s.ctx, s.command("citizen_1", 250000))
		s.Require().NoError(err)

		s.Equal(models.RuleEligible, res.Case.Decision.RuleResult)
		s.Equal(models.StatusNew, res.Case.Status)
		s.Equal("en", res.Case.Locale)
		s.Equal("pilot-2025.1", res.Case.Provenance.RulesetVersion)
		s.Equal("logit-v1", res.Case.Provenance.ModelVersion)
		s.Equal(s.now, res.Case.CreatedAt)
		s.Contains(res.Case.Documents, "Income Certificate (EWS/LIG)")

		s.True(res.View.DecisionSupportShown)
		s.Require().NotNil(res.View.RiskScore)
		s.InDelta(0.2, *res.View.RiskScore, 1e-9)

		stored, err := s.store.FindByID(s.ctx, res.Case.ID)
		s.Require().NoError(err)
		s.Equal(res.Case.Decision.FlagReasons, stored.Decision.FlagReasons)

		s.Equal([]string{string(audit.EventArmAssigned), string(audit.EventCaseCreated)}, s.compliance.actions())
		created := s.compliance.last()
		s.Equal(res.Case.ID.String(), created.CaseID)
		s.Equal("req-1", created.RequestID)
		s.NotEqual("citizen_1", created.SubjectHash)
		s.Equal("ELIGIBLE_BY_RULE", created.Decision)
	})

	s.Run("control case is blinded but stored in full", func() {
		s.risk.probability = 0.1
		res, err := s.service.Adjudicate(s.ctx, s.command("citizen_control", 250000))
		s.Require().NoError(err)

		s.Equal(models.ArmControl, res.View.Arm)
		s.False(res.View.DecisionSupportShown)
		s.Nil(res.View.RiskScore)
		s.Nil(res.View.AuditFlag)
		s.Empty(res.View.TopReasons)
		s.NotContains(res.View.FlagReason, "ml_risk")

		s.True(res.Case.Decision.AuditFlag)
		s.Equal(models.StatusInReview, res.Case.Status)
		s.InDelta(0.9, res.Case.Decision.Risk.RiskScore, 1e-9)
	})

	s.Run("unknown scheme is a bad request", func() {
		cmd := s.command("citizen_2", 250000)
		cmd.SchemeCode = "NOPE"
		_, err := s.service.Adjudicate(s.ctx, cmd)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("unavailable model routes the case to review", func() {
		s.risk.available = false
		defer func() { s.risk.available = true }()

		res, err := s.service.Adjudicate(s.ctx, s.command("citizen_3", 250000))
		s.Require().NoError(err)
		s.True(res.Case.Decision.AuditFlag)
		s.Equal(models.StatusInReview, res.Case.Status)
		s.Contains(res.View.FlagReason, "ml_risk=unavailable")
		s.Equal("failure-1", s.compliance.last().Payload["ml_failure_id"])
	})

	s.Run("near miss income is flagged", func() {
		res, err := s.service.Adjudicate(s.ctx, s.command("citizen_4", 320000))
		s.Require().NoError(err)
		s.True(res.View.IsNearMiss)
		s.Contains(res.View.FlagReason, "Near Miss")
		s.Contains(res.View.FlagReason, "over")
	})

	s.Run("ineligible income offers scheme alternatives", func() {
		res, err := s.service.Adjudicate(s.ctx, s.command("citizen_5", 2500000))
		s.Require().NoError(err)
		s.Equal(models.RuleIneligible, res.View.RuleResult)
		s.Equal(models.StatusInReview, res.View.Status)
		s.Contains(res.View.Alternatives, "STATE_HOUSING")
	})
}

func (s *ServiceSuite) TestAdjudicateVelocity() {
	for i := 0; i < 3; i++ {
		_, err := s.service.Adjudicate(s.ctx, s.command("citizen_fast", 250000))
		s.Require().NoError(err)
	}

	_, err := s.service.Adjudicate(s.ctx, s.command("citizen_fast", 250000))
	s.True(dErrors.HasCode(err, dErrors.CodeTooManyRequests))
	s.Equal([]string{string(audit.EventVelocityExceeded)}, s.events.actions())

	_, err = s.service.Adjudicate(s.ctx, s.command("citizen_other", 250000))
	s.NoError(err)
}

func (s *ServiceSuite) TestAdjudicateComplianceFailure() {
	s.compliance.err = errors.New("audit store down")
	_, err := s.service.Adjudicate(s.ctx, s.command("citizen_1", 250000))
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *ServiceSuite) TestGetCase() {
	s.Run("returns blinded control view", func() {
		c := s.seed(models.ArmControl, models.RuleEligible, 0.9, s.now)
		view, err := s.service.GetCase(s.ctx, c.ID)
		s.Require().NoError(err)
		s.Equal(c.ID.String(), view.ID)
		s.Nil(view.RiskScore)
	})

	s.Run("missing case is not found", func() {
		_, err := s.service.GetCase(s.ctx, id.NewCaseID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestListCases() {
	base := s.now.Add(-time.Hour)
	ctrlOld := s.seed(models.ArmControl, models.RuleEligible, 0.99, base)
	ctrlUnknown := s.seed(models.ArmControl, models.RuleUnknown, 0.10, base.Add(time.Minute))
	treatLow := s.seed(models.ArmTreatment, models.RuleEligible, 0.30, base)
	treatHigh := s.seed(models.ArmTreatment, models.RuleEligible, 0.90, base.Add(2*time.Minute))
	treatTieUnknown := s.seed(models.ArmTreatment, models.RuleUnknown, 0.30, base.Add(3*time.Minute))

	dash, err := s.service.ListCases(s.ctx, CaseQuery{})
	s.Require().NoError(err)

	got := make([]string, 0, len(dash.Cases))
	for _, v := range dash.Cases {
		got = append(got, v.ID)
	}
	s.Equal([]string{
		treatHigh.ID.String(),
		treatTieUnknown.ID.String(),
		treatLow.ID.String(),
		ctrlUnknown.ID.String(),
		ctrlOld.ID.String(),
	}, got)

	s.Equal(5, dash.Counts.Total)
	s.Equal(5, dash.Counts.InReview)
	s.Equal(2, dash.Counts.Control)
	s.Equal(3, dash.Counts.Treatment)
	s.Nil(dash.Counts.AvgTriageSeconds)
	for _, v := range dash.Cases {
		if v.Arm == models.ArmControl {
			s.Nil(v.RiskScore)
		}
	}

	s.Run("filters by arm", func() {
		dash, err := s.service.ListCases(s.ctx, CaseQuery{Arm: models.ArmControl})
		s.Require().NoError(err)
		s.Len(dash.Cases, 2)
	})
}

func (s *ServiceSuite) TestListCasesLimit() {
	for i := 0; i < DashboardLimit+5; i++ {
		s.seed(models.ArmTreatment, models.RuleEligible, 0.5, s.now.Add(time.Duration(i)*time.Second))
	}
	dash, err := s.service.ListCases(s.ctx, CaseQuery{})
	s.Require().NoError(err)
	s.Len(dash.Cases, DashboardLimit)
	s.Equal(DashboardLimit+5, dash.Counts.Total)
}

func (s *ServiceSuite) TestExportCases() {
	s.seed(models.ArmTreatment, models.RuleEligible, 0.9, s.now)
	s.seed(models.ArmTreatment, models.RuleEligible, 0.2, s.now.Add(time.Second))
	s.seed(models.ArmControl, models.RuleEligible, 0.95, s.now.Add(2*time.Second))

	s.Run("control rows are blinded by default", func() {
		rows, err := s.service.ExportCases(s.ctx, ExportQuery{})
		s.Require().NoError(err)
		s.Require().Len(rows, 3)
		s.Nil(rows[2].View.RiskScore)
		s.Equal(string(audit.EventCasesExported), s.events.last().Action)
		s.Equal("3", s.events.last().Payload["rows"])
	})

	s.Run("min risk keeps only visible scores above the floor", func() {
		floor := 0.5
		rows, err := s.service.ExportCases(s.ctx, ExportQuery{MinRisk: &floor})
		s.Require().NoError(err)
		s.Len(rows, 1)
	})

	s.Run("research flag unblinds control rows", func() {
		floor := 0.5
		rows, err := s.service.ExportCases(s.ctx, ExportQuery{IncludeControlModelFields: true, MinRisk: &floor})
		s.Require().NoError(err)
		s.Require().Len(rows, 2)
		s.Require().NotNil(rows[1].View.RiskScore)
		s.InDelta(0.95, *rows[1].View.RiskScore, 1e-9)
	})
}

func (s *ServiceSuite) TestDispose() {
	operator := id.OperatorID("op_1")
	opened := s.now.Add(-5 * time.Minute)

	s.Run("approving a high risk treatment case is an override", func() {
		c := s.seed(models.ArmTreatment, models.RuleEligible, 0.85, s.now.Add(-time.Hour))
		view, err := s.service.Dispose(s.ctx, DisposeCommand{CaseID: c.ID, DispositionCommand: models.DispositionCommand{
			FinalAction: models.ActionApprove,
			ReasonCode:  models.ReasonOther,
			OperatorID:  operator,
			OpenedAt:    &opened,
		}})
		s.Require().NoError(err)
		s.Equal(models.StatusApproved, view.Status)
		s.Require().NotNil(view.OverrideFlag)
		s.True(*view.OverrideFlag)

		event := s.compliance.last()
		s.Equal(string(audit.EventCaseDisposed), event.Action)
		s.Equal("op_1", event.ActorID)
		s.Equal("300.000", event.Payload["latency_seconds"])
		s.Equal("true", event.Payload["override_flag"])

		stored, err := s.store.FindByID(s.ctx, c.ID)
		s.Require().NoError(err)
		s.True(stored.Decision.AuditFlag)
	})

	s.Run("control case has no override flag", func() {
		c := s.seed(models.ArmControl, models.RuleEligible, 0.85, s.now)
		view, err := s.service.Dispose(s.ctx, DisposeCommand{CaseID: c.ID, DispositionCommand: models.DispositionCommand{
			FinalAction: models.ActionApprove,
			ReasonCode:  models.ReasonOther,
			OperatorID:  operator,
		}})
		s.Require().NoError(err)
		s.Nil(view.OverrideFlag)
		_, ok := s.compliance.last().Payload["override_flag"]
		s.False(ok)
	})

	s.Run("ineligible case cannot be approved", func() {
		c := s.seed(models.ArmTreatment, models.RuleIneligible, 0.1, s.now)
		_, err := s.service.Dispose(s.ctx, DisposeCommand{CaseID: c.ID, DispositionCommand: models.DispositionCommand{
			FinalAction: models.ActionApprove,
			ReasonCode:  models.ReasonOther,
			OperatorID:  operator,
		}})
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))

		stored, err := s.store.FindByID(s.ctx, c.ID)
		s.Require().NoError(err)
		s.Nil(stored.Disposition)
	})

	s.Run("reason must fit the action", func() {
		c := s.seed(models.ArmTreatment, models.RuleEligible, 0.1, s.now)
		_, err := s.service.Dispose(s.ctx, DisposeCommand{CaseID: c.ID, DispositionCommand: models.DispositionCommand{
			FinalAction: models.ActionEscalate,
			ReasonCode:  models.ReasonFraudSuspected,
			OperatorID:  operator,
		}})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("missing case is not found", func() {
		_, err := s.service.Dispose(s.ctx, DisposeCommand{CaseID: id.NewCaseID(), DispositionCommand: models.DispositionCommand{
			FinalAction: models.ActionReject,
			ReasonCode:  models.ReasonOther,
			OperatorID:  operator,
		}})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestPruneProfiles() {
	old := s.seed(models.ArmTreatment, models.RuleEligible, 0.2, s.now.Add(-48*time.Hour))
	fresh := s.seed(models.ArmTreatment, models.RuleEligible, 0.2, s.now.Add(-time.Hour))

	n, err := s.service.PruneProfiles(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, n)
	s.Equal(string(audit.EventProfilesPruned), s.compliance.last().Action)
	s.Equal("1", s.compliance.last().Payload["count"])

	stored, err := s.store.FindByID(s.ctx, old.ID)
	s.Require().NoError(err)
	s.Nil(stored.Profile)
	s.Equal(models.RuleEligible, stored.Decision.RuleResult)

	stored, err = s.store.FindByID(s.ctx, fresh.ID)
	s.Require().NoError(err)
	s.NotNil(stored.Profile)

	emitted := len(s.compliance.actions())
	n, err = s.service.PruneProfiles(s.ctx)
	s.Require().NoError(err)
	s.Zero(n)
	s.Len(s.compliance.actions(), emitted)
}

func (s *ServiceSuite) TestRecentEvents() {
	limits := map[int]int{
		0:   defaultEventLimit,
		-3:  1,
		10:  10,
		500: maxEventLimit,
	}
	for in, want := range limits {
		_, err := s.service.RecentEvents(s.ctx, in)
		s.Require().NoError(err)
		s.Equal(want, s.events.lastLimit, in)
	}
}

func (s *ServiceSuite) TestSummary() {
	s.seed(models.ArmTreatment, models.RuleEligible, 0.2, s.now)
	s.seed(models.ArmControl, models.RuleEligible, 0.2, s.now)

	counts, err := s.service.Summary(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(counts, 1)
	s.Equal(cases.StatusCount{SchemeCode: "PMAY", Status: models.StatusInReview, Count: 2}, counts[0])
}

func (s *ServiceSuite) TestHealth() {
	s.Run("healthy", func() {
		report := s.service.Health(s.ctx)
		s.True(report.Healthy)
		s.Equal(HealthOK, report.Status)
		s.Equal("test", report.Version)
	})

	s.Run("missing model degrades", func() {
		s.risk.available = false
		defer func() { s.risk.available = true }()
		report := s.service.Health(s.ctx)
		s.True(report.Healthy)
		s.Equal(HealthDegraded, report.Status)
		s.Equal(HealthMissing, report.Model)
	})

	s.Run("failing dependency degrades", func() {
		WithHealthCheck("redis", failingCheck{err: errors.New("dial tcp: refused")})(s.service)
		report := s.service.Health(s.ctx)
		s.True(report.Healthy)
		s.Equal(HealthDegraded, report.Status)
		s.Equal(HealthError, report.Dependencies["redis"])
	})
}

func (s *ServiceSuite) TestModelMeta() {
	info := s.service.ModelMeta(s.ctx)
	s.Equal("logit-v1", info.Version)
	s.Equal("pilot-2025.1", info.Ruleset)
	s.True(info.Available)
	s.False(info.Intent, "no intent classifier configured")
	s.Len(info.Fingerprint, 64)
	s.Empty(info.Error)

	s.service.cfg.ModelPath = "does-not-exist.json"
	info = s.service.ModelMeta(s.ctx)
	s.Empty(info.Fingerprint)
	s.NotEmpty(info.Error)
}

func (s *ServiceSuite) TestAssist() {
	got := s.service.Assist(s.ctx, assist.Input{SchemeCode: "PMAY"})
	s.True(got.AuditFlag)
	s.Equal(assist.FlagLowConfidence, got.FlagReason)
	stored, err := s.store.List(s.ctx, cases.Filter{})
	s.Require().NoError(err)
	s.Empty(stored, "assist never persists")
}

func (s *ServiceSuite) TestClassifyIntent() {
	s.Run("without a classifier the outcome is unavailable", func() {
		got := s.service.ClassifyIntent(s.ctx, "status please")
		s.Equal(intent.LabelUnknown, got.Label)
		s.False(got.Available)
	})

	s.Run("delegates to the classifier", func() {
		stub := &stubIntent{out: intent.Outcome{Label: "status", Confidence: 0.8, Available: true}}
		s.service.engine.Intent = stub
		got := s.service.ClassifyIntent(s.ctx, "status please")
		s.Equal("status", got.Label)
		s.Equal([]string{"status please"}, stub.calls)
	})
}

func (s *ServiceSuite) TestAdjudicateIntentLabel() {
	s.Run("classified message is stored on the case", func() {
		stub := &stubIntent{out: intent.Outcome{Label: "apply", Confidence: 0.9, Available: true}}
		s.service.engine.Intent = stub
		cmd := s.command("citizen_intent_1", 250000)
		cmd.MessageText = "I want to apply"

		res, err := s.service.Adjudicate(s.ctx, cmd)
		s.Require().NoError(err)
		s.Equal("apply", res.Case.IntentLabel)
		s.Equal("apply", res.View.IntentLabel)

		stored, err := s.store.FindByID(s.ctx, res.Case.ID)
		s.Require().NoError(err)
		s.Equal("apply", stored.IntentLabel)
	})

	s.Run("no message skips the classifier", func() {
		stub := &stubIntent{out: intent.Outcome{Label: "apply", Available: true}}
		s.service.engine.Intent = stub

		res, err := s.service.Adjudicate(s.ctx, s.command("citizen_intent_2", 250000))
		s.Require().NoError(err)
		s.Empty(res.Case.IntentLabel)
		s.Empty(stub.calls)
	})

	s.Run("unavailable classifier leaves the label empty", func() {
		s.service.engine.Intent = &stubIntent{out: intent.Outcome{Label: intent.LabelUnknown, Cause: "model_missing"}}
		cmd := s.command("citizen_intent_3", 250000)
		cmd.MessageText = "status?"

		res, err := s.service.Adjudicate(s.ctx, cmd)
		s.Require().NoError(err)
		s.Empty(res.Case.IntentLabel)
	})
}
