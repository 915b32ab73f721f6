package models

import "strings"

// DecisionStatus is the status assigned at adjudication time.
type DecisionStatus string

const (
	StatusNew      DecisionStatus = "NEW"
	StatusInReview DecisionStatus = "IN_REVIEW"
	StatusApproved DecisionStatus = "APPROVED"
	StatusRejected DecisionStatus = "REJECTED"
)

// FlagSource identifies which stage contributed a flag reason.
type FlagSource string

const (
	FlagSourceRule     FlagSource = "rule"
	FlagSourceNearMiss FlagSource = "near_miss"
	FlagSourceRisk     FlagSource = "risk"
)

// FlagReason is one entry in the ordered reason trail.
type FlagReason struct {
	Source FlagSource `json:"source"`
	Text   string     `json:"text"`
}

// DecisionRecord is the combined, unblinded adjudication result. It is
// created once and never modified afterwards; operator disposition lives on
// the Case.
type DecisionRecord struct {
	RuleResult     RuleResult      `json:"rule_result"`
	Reasons        []string        `json:"reasons"`
	Tags           []string        `json:"tags"`
	Alternatives   []string        `json:"alternatives"`
	NearMiss       NearMissOutcome `json:"near_miss"`
	Risk           RiskOutcome     `json:"risk"`
	AuditFlag      bool            `json:"audit_flag"`
	FairnessReview bool            `json:"fairness_review"`
	FlagReasons    []FlagReason    `json:"flag_reasons"`
	Status         DecisionStatus  `json:"status"`
}

// FlagReasonText flattens the reason trail for display, " | " separated.
func (d DecisionRecord) FlagReasonText() string {
	return JoinFlagReasons(d.FlagReasons)
}

// JoinFlagReasons flattens reasons in order.
func JoinFlagReasons(reasons []FlagReason) string {
	parts := make([]string, 0, len(reasons))
	for _, r := range reasons {
		if r.Text != "" {
			parts = append(parts, r.Text)
		}
	}
	return strings.Join(parts, " | ")
}
