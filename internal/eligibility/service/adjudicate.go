package service

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"saral/internal/eligibility/blinding"
	"saral/internal/eligibility/gate"
	"saral/internal/eligibility/models"
	id "saral/pkg/domain"
	dErrors "saral/pkg/domain-errors"
	"saral/pkg/platform/audit"
	"saral/pkg/requestcontext"
)

const defaultLocale = "en"

// Stage names used for latency metrics and spans.
const (
	StageRules    = "rules"
	StageNearMiss = "near_miss"
	StageRisk     = "risk"
)

// AdjudicateCommand is one citizen submission for one scheme.
type AdjudicateCommand struct {
	CitizenID           id.CitizenID
	SchemeCode          string
	Source              id.Source
	Locale              string
	SessionID           string
	Channel             string
	MetaDurationSeconds int64
	MessageText         string
	Profile             models.Profile
}

// AdjudicationResult holds the stored case and its arm-filtered view. Only
// View may leave the process.
type AdjudicationResult struct {
	Case *models.Case
	View models.ExternalView
}

// Adjudicate runs a submission through the velocity guard, arm assignment,
// the rule, near-miss and risk stages and the audit gate, then persists the
// case with its compliance events.
func (s *Service) Adjudicate(ctx context.Context, cmd AdjudicateCommand) (*AdjudicationResult, error) {
	start := time.Now()
	requestID := requestcontext.RequestID(ctx)

	ctx, span := tracer.Start(ctx, "eligibility.Adjudicate", trace.WithAttributes(
		attribute.String("scheme_code", cmd.SchemeCode),
		attribute.String("source", cmd.Source.String()),
	))
	defer span.End()

	if !s.engine.Schemes.Has(cmd.SchemeCode) {
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid scheme")
	}
	if err := s.checkVelocity(ctx, cmd); err != nil {
		span.SetStatus(codes.Error, "velocity exceeded")
		return nil, err
	}

	assignment := s.engine.Assigner.Assign(cmd.CitizenID.String(), cmd.SchemeCode)
	span.SetAttributes(attribute.String("arm", string(assignment.Arm)))

	profile := cmd.Profile
	if cmd.Profile.Income != nil {
		profile.Income = models.Int64(*cmd.Profile.Income)
	}

	rule, nm, risk := s.evaluate(ctx, cmd.SchemeCode, profile)
	decision := gate.Combine(rule, risk, nm)
	documents := s.engine.Checklist.Checklist(cmd.SchemeCode, profile)

	locale := cmd.Locale
	if locale == "" {
		locale = defaultLocale
	}
	now := requestcontext.Now(ctx)
	c := &models.Case{
		ID:                  id.NewCaseID(),
		CitizenID:           cmd.CitizenID,
		SchemeCode:          cmd.SchemeCode,
		Source:              cmd.Source,
		Locale:              locale,
		SessionID:           cmd.SessionID,
		Channel:             cmd.Channel,
		MetaDurationSeconds: cmd.MetaDurationSeconds,
		Profile:             &profile,
		Assignment:          assignment,
		Decision:            decision,
		Documents:           documents,
		Status:              decision.Status,
		Provenance:          s.cfg.Provenance,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	c.IntentLabel = s.intentLabel(ctx, cmd.MessageText)

	err := s.inTx(ctx, func(ctx context.Context) error {
		if err := s.cases.Create(ctx, c); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist case")
		}
		if err := s.emitCompliance(ctx, armAssignedEvent(c)); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record arm assignment")
		}
		if err := s.emitCompliance(ctx, caseCreatedEvent(c)); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record case creation")
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		s.logger.ErrorContext(ctx, "adjudication failed",
			"scheme_code", cmd.SchemeCode,
			"error", err,
			"request_id", requestID,
		)
		return nil, err
	}

	s.metrics.IncrementRuleOutcome(c.SchemeCode, string(decision.RuleResult))
	s.metrics.IncrementArm(c.SchemeCode, string(assignment.Arm))
	s.metrics.IncrementRisk(decision.Risk.Available)
	if decision.AuditFlag {
		s.metrics.IncrementAuditFlag(c.SchemeCode, string(assignment.Arm))
	}
	s.metrics.ObserveAdjudicateLatency(time.Since(start))

	s.logger.InfoContext(ctx, "case adjudicated",
		"case_id", c.ID.String(),
		"scheme_code", c.SchemeCode,
		"arm", string(assignment.Arm),
		"rule_result", string(decision.RuleResult),
		"status", string(c.Status),
		"channel", c.Channel,
		"request_id", requestID,
	)

	return &AdjudicationResult{Case: c, View: blinding.View(c)}, nil
}

func (s *Service) checkVelocity(ctx context.Context, cmd AdjudicateCommand) error {
	if s.limiter == nil {
		return nil
	}
	res, err := s.limiter.Allow(ctx, cmd.CitizenID.String(), s.cfg.MaxAttempts, s.cfg.AttemptWindow)
	if err != nil {
		// Fail open.
		s.logger.WarnContext(ctx, "attempt limiter unavailable",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil
	}
	if res.Allowed {
		return nil
	}

	s.metrics.IncrementVelocityRejected()
	s.logAudit(ctx, audit.Event{
		Action:      string(audit.EventVelocityExceeded),
		SubjectHash: subjectHash(cmd.CitizenID),
		Payload: map[string]string{
			"scheme_code": cmd.SchemeCode,
			"limit":       strconv.Itoa(res.Limit),
			"reset_at":    res.ResetAt.UTC().Format(time.RFC3339),
		},
	})
	return dErrors.New(dErrors.CodeTooManyRequests, "too many submissions; retry later")
}

// evaluate runs the three independent stages concurrently. None of them fail;
// the risk stage degrades to an unavailable outcome on its own.
func (s *Service) evaluate(ctx context.Context, code string, p models.Profile) (models.RuleOutcome, models.NearMissOutcome, models.RiskOutcome) {
	var (
		rule models.RuleOutcome
		nm   models.NearMissOutcome
		risk models.RiskOutcome
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer s.stage(gctx, StageRules)()
		rule = s.engine.Rules.Evaluate(code, p)
		return nil
	})
	g.Go(func() error {
		defer s.stage(gctx, StageNearMiss)()
		nm = s.engine.NearMiss.Check(p, code)
		return nil
	})
	g.Go(func() error {
		defer s.stage(gctx, StageRisk)()
		risk = s.engine.Risk.Predict(gctx, p)
		return nil
	})
	_ = g.Wait()
	return rule, nm, risk
}

func (s *Service) stage(ctx context.Context, name string) func() {
	start := time.Now()
	_, span := tracer.Start(ctx, "eligibility.stage."+name)
	return func() {
		span.End()
		s.metrics.ObserveStageLatency(name, time.Since(start))
	}
}

func armAssignedEvent(c *models.Case) audit.Event {
	return audit.Event{
		Action:      string(audit.EventArmAssigned),
		CaseID:      c.ID.String(),
		SubjectHash: subjectHash(c.CitizenID),
		Decision:    string(c.Assignment.Arm),
		Payload: map[string]string{
			"scheme_code":       c.SchemeCode,
			"arm":               string(c.Assignment.Arm),
			"assignment_reason": c.Assignment.Reason,
		},
	}
}

func caseCreatedEvent(c *models.Case) audit.Event {
	d := c.Decision
	payload := map[string]string{
		"scheme_code":            c.SchemeCode,
		"source":                 c.Source.String(),
		"arm":                    string(c.Assignment.Arm),
		"decision_support_shown": strconv.FormatBool(c.Assignment.DecisionSupportShown()),
		"rule_result":            string(d.RuleResult),
		"status":                 string(d.Status),
		"audit_flag":             strconv.FormatBool(d.AuditFlag),
		"near_miss":              strconv.FormatBool(d.NearMiss.IsNearMiss),
		"ml_available":           strconv.FormatBool(d.Risk.Available),
		"risk_score":             strconv.FormatFloat(d.Risk.RiskScore, 'f', 3, 64),
		"risk_band":              string(d.Risk.Band),
		"fairness_review":        strconv.FormatBool(d.FairnessReview),
		"ruleset_version":        c.Provenance.RulesetVersion,
		"model_version":          c.Provenance.ModelVersion,
	}
	if d.Risk.FailureID != "" {
		payload["ml_failure_id"] = d.Risk.FailureID
	}
	return audit.Event{
		Action:      string(audit.EventCaseCreated),
		CaseID:      c.ID.String(),
		SubjectHash: subjectHash(c.CitizenID),
		Decision:    string(d.RuleResult),
		Reason:      d.FlagReasonText(),
		Payload:     payload,
	}
}
