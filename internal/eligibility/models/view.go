package models

import "time"

// ExternalView is the outward representation of a case. Risk-derived fields
// are pointers so a blinded view can mark them absent rather than zero.
// Produce it through the blinding package, never directly for output.
type ExternalView struct {
	ID                   string         `json:"id"`
	SchemeCode           string         `json:"scheme_code"`
	Status               DecisionStatus `json:"status"`
	Source               string         `json:"source"`
	Locale               string         `json:"locale"`
	Arm                  Arm            `json:"arm"`
	AssignmentReason     string         `json:"assignment_reason"`
	DecisionSupportShown bool           `json:"decision_support_shown"`

	RuleResult   RuleResult `json:"rule_result"`
	RuleReasons  []string   `json:"rule_reasons"`
	Tags         []string   `json:"tags"`
	Documents    []string   `json:"documents"`
	Alternatives []string   `json:"alternatives"`
	IsNearMiss   bool       `json:"is_near_miss"`
	IntentLabel  string     `json:"intent_label,omitempty"`

	ReviewConfidence *float64     `json:"review_confidence"`
	RiskScore        *float64     `json:"risk_score"`
	RiskBand         *RiskBand    `json:"risk_band"`
	TopReasons       []string     `json:"top_reasons"`
	MLAvailable      *bool        `json:"ml_available"`
	FairnessReview   *bool        `json:"fairness_review"`
	AuditFlag        *bool        `json:"audit_flag"`
	OverrideFlag     *bool        `json:"override_flag"`
	FlagReasons      []FlagReason `json:"-"`
	FlagReason       string       `json:"flag_reason"`

	FinalAction  FinalAction `json:"final_action,omitempty"`
	ReasonCode   ReasonCode  `json:"reason_code,omitempty"`
	OperatorID   string      `json:"operator_id,omitempty"`
	SOPVersion   string      `json:"sop_version,omitempty"`
	OpenedAt     *time.Time  `json:"opened_at,omitempty"`
	DecidedAt    *time.Time  `json:"decided_at,omitempty"`
	SessionID    string      `json:"session_id,omitempty"`
	MetaDuration int64       `json:"meta_duration_seconds"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`

	Provenance
}

// ViewOf builds the unfiltered view of a case. Slices are copied so callers
// can redact the view without touching the stored case.
func ViewOf(c *Case) ExternalView {
	d := c.Decision
	probability := d.Risk.Probability
	riskScore := d.Risk.RiskScore
	band := d.Risk.Band
	available := d.Risk.Available
	fairness := d.FairnessReview
	auditFlag := d.AuditFlag

	v := ExternalView{
		ID:                   c.ID.String(),
		SchemeCode:           c.SchemeCode,
		Status:               c.Status,
		Source:               c.Source.String(),
		Locale:               c.Locale,
		Arm:                  c.Assignment.Arm,
		AssignmentReason:     c.Assignment.Reason,
		DecisionSupportShown: c.Assignment.DecisionSupportShown(),

		RuleResult:   d.RuleResult,
		RuleReasons:  cloneStrings(d.Reasons),
		Tags:         cloneStrings(d.Tags),
		Documents:    cloneStrings(c.Documents),
		Alternatives: cloneStrings(d.Alternatives),
		IsNearMiss:   d.NearMiss.IsNearMiss,
		IntentLabel:  c.IntentLabel,

		ReviewConfidence: &probability,
		RiskScore:        &riskScore,
		RiskBand:         &band,
		TopReasons:       cloneStrings(d.Risk.TopReasons),
		MLAvailable:      &available,
		FairnessReview:   &fairness,
		AuditFlag:        &auditFlag,
		FlagReasons:      append([]FlagReason(nil), d.FlagReasons...),

		OpenedAt:     c.OpenedAt,
		DecidedAt:    c.DecidedAt,
		SessionID:    c.SessionID,
		MetaDuration: c.MetaDurationSeconds,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
		Provenance:   c.Provenance,
	}
	if c.OverrideFlag != nil {
		o := *c.OverrideFlag
		v.OverrideFlag = &o
	}
	if c.Disposition != nil {
		v.FinalAction = c.Disposition.FinalAction
		v.ReasonCode = c.Disposition.ReasonCode
		v.OperatorID = c.Disposition.OperatorID.String()
		v.SOPVersion = c.Disposition.SOPVersion
	}
	v.FlagReason = JoinFlagReasons(v.FlagReasons)
	return v
}

func cloneStrings(xs []string) []string {
	out := make([]string, len(xs))
	copy(out, xs)
	return out
}
