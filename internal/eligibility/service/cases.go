package service

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"time"

	"saral/internal/eligibility/blinding"
	"saral/internal/eligibility/models"
	"saral/internal/eligibility/store/cases"
	id "saral/pkg/domain"
	dErrors "saral/pkg/domain-errors"
	"saral/pkg/platform/audit"
	"saral/pkg/platform/sentinel"
	"saral/pkg/requestcontext"
)

// DashboardLimit caps the cases returned to the review dashboard.
const DashboardLimit = 160

// CaseQuery narrows case listings. Zero values match everything.
type CaseQuery struct {
	SchemeCode string
	Status     models.DecisionStatus
	Arm        models.Arm
	Since      *time.Time
}

func (q CaseQuery) filter() cases.Filter {
	return cases.Filter{SchemeCode: q.SchemeCode, Status: q.Status, Arm: q.Arm, Since: q.Since}
}

// DashboardCounts summarizes the filtered cases before the dashboard limit.
type DashboardCounts struct {
	Total                int      `json:"total"`
	InReview             int      `json:"in_review"`
	Approved             int      `json:"approved"`
	Rejected             int      `json:"rejected"`
	Control              int      `json:"n_control"`
	Treatment            int      `json:"n_treatment"`
	AvgTriageSeconds     *float64 `json:"avg_triage_seconds"`
	DecidedWithLatencies int      `json:"decided_with_latency"`
}

// Dashboard is the review queue: blinded views plus counts.
type Dashboard struct {
	Cases  []models.ExternalView `json:"cases"`
	Counts DashboardCounts       `json:"counts"`
}

// ExportQuery selects rows for the CSV export.
type ExportQuery struct {
	CaseQuery
	IncludeControlModelFields bool
	MinRisk                   *float64
}

// ExportRow is one exported case with its review latencies in seconds.
type ExportRow struct {
	View            models.ExternalView
	WaitSeconds     *float64
	TriageSeconds   *float64
	EndToEndSeconds *float64
	ProfileRedacted bool
}

// DisposeCommand is an operator decision on one case.
type DisposeCommand struct {
	CaseID id.CaseID
	models.DispositionCommand
}

// GetCase returns the arm-filtered view of one case.
func (s *Service) GetCase(ctx context.Context, caseID id.CaseID) (models.ExternalView, error) {
	c, err := s.cases.FindByID(ctx, caseID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.ExternalView{}, dErrors.New(dErrors.CodeNotFound, "case not found")
		}
		return models.ExternalView{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load case")
	}
	return blinding.View(c), nil
}

// ListCases builds the review dashboard. TREATMENT cases come first, ordered
// by risk score descending; UNKNOWN_NEEDS_DOCS cases lead within equal risk
// and CONTROL cases, and creation time breaks remaining ties. CONTROL cases
// are never ordered by risk.
func (s *Service) ListCases(ctx context.Context, q CaseQuery) (*Dashboard, error) {
	all, err := s.cases.List(ctx, q.filter())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list cases")
	}

	counts := countCases(all)
	sortForReview(all)
	if len(all) > DashboardLimit {
		all = all[:DashboardLimit]
	}

	views := make([]models.ExternalView, 0, len(all))
	for _, c := range all {
		views = append(views, blinding.View(c))
	}
	return &Dashboard{Cases: views, Counts: counts}, nil
}

func countCases(all []*models.Case) DashboardCounts {
	var (
		counts DashboardCounts
		triage time.Duration
	)
	counts.Total = len(all)
	for _, c := range all {
		switch c.Status {
		case models.StatusApproved:
			counts.Approved++
		case models.StatusRejected:
			counts.Rejected++
		case models.StatusInReview:
			counts.InReview++
		}
		switch c.Assignment.Arm {
		case models.ArmControl:
			counts.Control++
		case models.ArmTreatment:
			counts.Treatment++
		}
		if d := c.TriageLatency(); d != nil {
			triage += *d
			counts.DecidedWithLatencies++
		}
	}
	if counts.DecidedWithLatencies > 0 {
		avg := triage.Seconds() / float64(counts.DecidedWithLatencies)
		counts.AvgTriageSeconds = &avg
	}
	return counts
}

func sortForReview(all []*models.Case) {
	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i], all[j]
		aT := a.Assignment.DecisionSupportShown()
		bT := b.Assignment.DecisionSupportShown()
		if aT != bT {
			return aT
		}
		if aT && a.Decision.Risk.RiskScore != b.Decision.Risk.RiskScore {
			return a.Decision.Risk.RiskScore > b.Decision.Risk.RiskScore
		}
		aU := a.Decision.RuleResult == models.RuleUnknown
		bU := b.Decision.RuleResult == models.RuleUnknown
		if aU != bU {
			return aU
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	})
}

// ExportCases returns rows for the CSV export in creation order. CONTROL rows
// are blinded unless IncludeControlModelFields is set. MinRisk filters on the
// visible risk score, so blinded rows are left out of a MinRisk export.
func (s *Service) ExportCases(ctx context.Context, q ExportQuery) ([]ExportRow, error) {
	all, err := s.cases.List(ctx, q.filter())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list cases")
	}

	rows := make([]ExportRow, 0, len(all))
	for _, c := range all {
		view := blinding.View(c)
		if q.IncludeControlModelFields {
			view = blinding.ResearchView(c)
		}
		if q.MinRisk != nil && (view.RiskScore == nil || *view.RiskScore < *q.MinRisk) {
			continue
		}
		rows = append(rows, ExportRow{
			View:            view,
			WaitSeconds:     seconds(c.WaitLatency()),
			TriageSeconds:   seconds(c.TriageLatency()),
			EndToEndSeconds: seconds(c.EndToEndLatency()),
			ProfileRedacted: c.ProfileRedactedAt != nil,
		})
	}

	payload := map[string]string{
		"rows":            strconv.Itoa(len(rows)),
		"include_control": strconv.FormatBool(q.IncludeControlModelFields),
	}
	if q.SchemeCode != "" {
		payload["scheme_code"] = q.SchemeCode
	}
	if q.Since != nil {
		payload["since"] = q.Since.UTC().Format(time.RFC3339)
	}
	if q.MinRisk != nil {
		payload["min_risk"] = strconv.FormatFloat(*q.MinRisk, 'f', 3, 64)
	}
	s.logAudit(ctx, audit.Event{
		Action:  string(audit.EventCasesExported),
		Payload: payload,
	})
	s.logger.InfoContext(ctx, "cases exported",
		"rows", len(rows),
		"include_control_model_fields", q.IncludeControlModelFields,
		"request_id", requestcontext.RequestID(ctx),
	)
	return rows, nil
}

func seconds(d *time.Duration) *float64 {
	if d == nil {
		return nil
	}
	v := d.Seconds()
	return &v
}

// Dispose records an operator decision. The DecisionRecord is left untouched;
// only status, disposition, timing and the override flag change.
func (s *Service) Dispose(ctx context.Context, cmd DisposeCommand) (models.ExternalView, error) {
	requestID := requestcontext.RequestID(ctx)
	now := requestcontext.Now(ctx)

	var updated *models.Case
	err := s.inTx(ctx, func(ctx context.Context) error {
		c, err := s.cases.Update(ctx, cmd.CaseID, func(c *models.Case) error {
			if err := c.CanDispose(cmd.FinalAction, cmd.ReasonCode); err != nil {
				return err
			}
			c.ApplyDisposition(cmd.DispositionCommand, now)
			return nil
		})
		if err != nil {
			return err
		}
		if err := s.emitCompliance(ctx, disposedEvent(c)); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record disposition")
		}
		updated = c
		return nil
	})
	if err != nil {
		var coded *dErrors.Error
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return models.ExternalView{}, dErrors.New(dErrors.CodeNotFound, "case not found")
		case errors.As(err, &coded):
			return models.ExternalView{}, err
		default:
			return models.ExternalView{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to dispose case")
		}
	}

	s.metrics.IncrementDisposition(string(cmd.FinalAction), string(updated.Assignment.Arm))
	s.logger.InfoContext(ctx, "case disposed",
		"case_id", updated.ID.String(),
		"final_action", string(cmd.FinalAction),
		"reason_code", string(cmd.ReasonCode),
		"operator_id", cmd.OperatorID.String(),
		"status", string(updated.Status),
		"request_id", requestID,
	)
	return blinding.View(updated), nil
}

func disposedEvent(c *models.Case) audit.Event {
	payload := map[string]string{
		"scheme_code": c.SchemeCode,
		"arm":         string(c.Assignment.Arm),
		"rule_result": string(c.Decision.RuleResult),
		"status":      string(c.Status),
		"reason_code": string(c.Disposition.ReasonCode),
		"sop_version": c.Disposition.SOPVersion,
		"flagged":     strconv.FormatBool(c.Disposition.Flagged),
	}
	if d := c.TriageLatency(); d != nil {
		payload["latency_seconds"] = strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
	}
	if c.OverrideFlag != nil {
		payload["override_flag"] = strconv.FormatBool(*c.OverrideFlag)
	}
	return audit.Event{
		Action:      string(audit.EventCaseDisposed),
		CaseID:      c.ID.String(),
		SubjectHash: subjectHash(c.CitizenID),
		ActorID:     c.Disposition.OperatorID.String(),
		Decision:    string(c.Disposition.FinalAction),
		Reason:      c.Disposition.Comment,
		Payload:     payload,
	}
}
