package models

import (
	"time"

	id "saral/pkg/domain"
	dErrors "saral/pkg/domain-errors"
)

// SOPVersion is the standard operating procedure reviewers follow.
const SOPVersion = "SOP_v1"

// OverrideRiskThreshold is the risk score at which an APPROVE counts as an
// override of the decision support.
const OverrideRiskThreshold = 0.7

// FinalAction is an operator's disposition of a case.
type FinalAction string

const (
	ActionApprove     FinalAction = "APPROVE"
	ActionRequestDocs FinalAction = "REQUEST_DOCS"
	ActionEscalate    FinalAction = "ESCALATE"
	ActionReject      FinalAction = "REJECT"
)

// ReasonCode justifies a FinalAction.
type ReasonCode string

const (
	ReasonRuleFail       ReasonCode = "RULE_FAIL"
	ReasonDocsMissing    ReasonCode = "DOCS_MISSING"
	ReasonMismatch       ReasonCode = "MISMATCH"
	ReasonFraudSuspected ReasonCode = "FRAUD_SUSPECTED"
	ReasonOther          ReasonCode = "OTHER"
)

// AllowedActionsByRule constrains which actions a reviewer may take for each
// rule result. An ineligible case can never be approved by a reviewer.
var AllowedActionsByRule = map[RuleResult][]FinalAction{
	RuleEligible:   {ActionApprove, ActionRequestDocs, ActionEscalate, ActionReject},
	RuleUnknown:    {ActionRequestDocs, ActionEscalate, ActionReject},
	RuleIneligible: {ActionReject, ActionEscalate},
}

// AllowedReasonsByAction constrains which reason codes justify each action.
var AllowedReasonsByAction = map[FinalAction][]ReasonCode{
	ActionApprove:     {ReasonOther},
	ActionRequestDocs: {ReasonDocsMissing, ReasonMismatch, ReasonOther},
	ActionEscalate:    {ReasonMismatch, ReasonOther},
	ActionReject:      {ReasonRuleFail, ReasonMismatch, ReasonFraudSuspected, ReasonDocsMissing, ReasonOther},
}

// ParseFinalAction validates an action from external input.
func ParseFinalAction(s string) (FinalAction, error) {
	a := FinalAction(s)
	if _, ok := AllowedReasonsByAction[a]; !ok {
		return "", dErrors.New(dErrors.CodeValidation, "invalid final_action")
	}
	return a, nil
}

// ParseReasonCode validates a reason code from external input.
func ParseReasonCode(s string) (ReasonCode, error) {
	switch r := ReasonCode(s); r {
	case ReasonRuleFail, ReasonDocsMissing, ReasonMismatch, ReasonFraudSuspected, ReasonOther:
		return r, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "invalid reason_code")
}

// Provenance pins the versions that produced a case so results can be
// reproduced later.
type Provenance struct {
	AppVersion     string `json:"app_version"`
	RulesetVersion string `json:"ruleset_version"`
	ModelVersion   string `json:"model_version"`
	SchemaVersion  string `json:"schema_version"`
}

// Disposition is the operator's recorded decision.
type Disposition struct {
	FinalAction FinalAction   `json:"final_action"`
	ReasonCode  ReasonCode    `json:"reason_code"`
	OperatorID  id.OperatorID `json:"operator_id"`
	Comment     string        `json:"operator_comment,omitempty"`
	Flagged     bool          `json:"flagged"`
	SOPVersion  string        `json:"sop_version"`
}

// DispositionCommand is the input to ApplyDisposition.
type DispositionCommand struct {
	FinalAction FinalAction
	ReasonCode  ReasonCode
	OperatorID  id.OperatorID
	OpenedAt    *time.Time
	Comment     string
	Flagged     bool
}

// Case is the aggregate persisted per adjudication.
//
// Invariants:
//   - Decision is set at creation and never modified (audit_flag included)
//   - Assignment is fixed at creation
//   - Status starts as Decision.Status and only changes through ApplyDisposition
//   - OverrideFlag is nil for CONTROL cases
//   - Profile is nil and IntentLabel empty once redacted by the retention job
type Case struct {
	ID                  id.CaseID      `json:"id"`
	CitizenID           id.CitizenID   `json:"citizen_hash"`
	SchemeCode          string         `json:"scheme_code"`
	Source              id.Source      `json:"source"`
	Locale              string         `json:"locale"`
	SessionID           string         `json:"session_id,omitempty"`
	Channel             string         `json:"channel,omitempty"`
	MetaDurationSeconds int64          `json:"meta_duration_seconds"`
	IntentLabel         string         `json:"intent_label,omitempty"`
	Profile             *Profile       `json:"profile,omitempty"`
	ProfileRedactedAt   *time.Time     `json:"profile_redacted_at,omitempty"`
	Assignment          ArmAssignment  `json:"assignment"`
	Decision            DecisionRecord `json:"decision"`
	Documents           []string       `json:"documents"`
	Status              DecisionStatus `json:"status"`
	Disposition         *Disposition   `json:"disposition,omitempty"`
	OverrideFlag        *bool          `json:"override_flag,omitempty"`
	OpenedAt            *time.Time     `json:"opened_at,omitempty"`
	DecidedAt           *time.Time     `json:"decided_at,omitempty"`
	Provenance          Provenance     `json:"provenance"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

// IsDecided reports whether the case reached a terminal status.
func (c *Case) IsDecided() bool {
	return c.Status == StatusApproved || c.Status == StatusRejected
}

// CanDispose checks the case is still open, the action against the rule
// result and the reason against the action.
func (c *Case) CanDispose(action FinalAction, reason ReasonCode) error {
	if c.IsDecided() {
		return dErrors.New(dErrors.CodeConflict, "case already decided")
	}
	if !containsAction(AllowedActionsByRule[c.Decision.RuleResult], action) {
		return dErrors.New(dErrors.CodeInvariantViolation,
			"final_action "+string(action)+" is not allowed for "+string(c.Decision.RuleResult))
	}
	if !containsReason(AllowedReasonsByAction[action], reason) {
		return dErrors.New(dErrors.CodeValidation,
			"reason_code "+string(reason)+" is not allowed for "+string(action))
	}
	return nil
}

// ApplyDisposition records the operator decision. Call CanDispose first.
func (c *Case) ApplyDisposition(cmd DispositionCommand, now time.Time) {
	switch {
	case cmd.OpenedAt != nil:
		opened := *cmd.OpenedAt
		c.OpenedAt = &opened
	case c.OpenedAt == nil:
		c.OpenedAt = &now
	}
	decided := now
	c.DecidedAt = &decided

	sop := SOPVersion
	if c.Disposition != nil && c.Disposition.SOPVersion != "" {
		sop = c.Disposition.SOPVersion
	}
	c.Disposition = &Disposition{
		FinalAction: cmd.FinalAction,
		ReasonCode:  cmd.ReasonCode,
		OperatorID:  cmd.OperatorID,
		Comment:     cmd.Comment,
		Flagged:     cmd.Flagged,
		SOPVersion:  sop,
	}

	switch cmd.FinalAction {
	case ActionApprove:
		c.Status = StatusApproved
	case ActionReject:
		c.Status = StatusRejected
	default:
		c.Status = StatusInReview
	}

	if c.Assignment.DecisionSupportShown() {
		override := c.Decision.Risk.RiskScore >= OverrideRiskThreshold && cmd.FinalAction == ActionApprove
		c.OverrideFlag = &override
	} else {
		c.OverrideFlag = nil
	}
	c.UpdatedAt = now
}

// RedactProfile drops the citizen profile and the intent derived from their
// message once the retention window passes. Decision fields are kept for
// analysis. Returns false if already redacted.
func (c *Case) RedactProfile(now time.Time) bool {
	if c.ProfileRedactedAt != nil {
		return false
	}
	c.Profile = nil
	c.IntentLabel = ""
	c.ProfileRedactedAt = &now
	c.UpdatedAt = now
	return true
}

// WaitLatency is opened_at minus created_at.
func (c *Case) WaitLatency() *time.Duration {
	return between(&c.CreatedAt, c.OpenedAt)
}

// TriageLatency is decided_at minus opened_at.
func (c *Case) TriageLatency() *time.Duration {
	return between(c.OpenedAt, c.DecidedAt)
}

// EndToEndLatency is decided_at minus created_at.
func (c *Case) EndToEndLatency() *time.Duration {
	return between(&c.CreatedAt, c.DecidedAt)
}

func between(from, to *time.Time) *time.Duration {
	if from == nil || to == nil || from.IsZero() || to.IsZero() {
		return nil
	}
	d := to.Sub(*from)
	return &d
}

func containsAction(xs []FinalAction, a FinalAction) bool {
	for _, x := range xs {
		if x == a {
			return true
		}
	}
	return false
}

func containsReason(xs []ReasonCode, r ReasonCode) bool {
	for _, x := range xs {
		if x == r {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so stores never share mutable state with callers.
func (c *Case) Clone() *Case {
	if c == nil {
		return nil
	}
	out := *c
	if c.Profile != nil {
		p := *c.Profile
		if c.Profile.Income != nil {
			p.Income = Int64(*c.Profile.Income)
		}
		out.Profile = &p
	}
	out.ProfileRedactedAt = cloneTime(c.ProfileRedactedAt)
	out.OpenedAt = cloneTime(c.OpenedAt)
	out.DecidedAt = cloneTime(c.DecidedAt)
	if c.OverrideFlag != nil {
		v := *c.OverrideFlag
		out.OverrideFlag = &v
	}
	if c.Disposition != nil {
		d := *c.Disposition
		out.Disposition = &d
	}
	out.Documents = cloneStrings(c.Documents)
	out.Decision = c.Decision.clone()
	return &out
}

func (d DecisionRecord) clone() DecisionRecord {
	out := d
	out.Reasons = cloneStrings(d.Reasons)
	out.Tags = cloneStrings(d.Tags)
	out.Alternatives = cloneStrings(d.Alternatives)
	out.NearMiss.Alternatives = cloneStrings(d.NearMiss.Alternatives)
	out.Risk.TopReasons = cloneStrings(d.Risk.TopReasons)
	out.FlagReasons = append([]FlagReason{}, d.FlagReasons...)
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
