// Package gate combines the rule, near-miss and risk outcomes into a single
// decision record.
package gate

import (
	"fmt"

	"saral/internal/eligibility/models"
	"saral/internal/eligibility/risk"
	pstrings "saral/pkg/platform/strings"
)

// Risk markers appended to the flag reason trail.
const (
	FairnessMarker    = "fairness_review"
	UnavailableMarker = "ml_risk=unavailable"
)

// AuditFlag is true when the model is unavailable, risk is high, the rules
// did not pass, or the fairness guard fired.
func AuditFlag(rule models.RuleOutcome, r models.RiskOutcome) bool {
	return !r.Available ||
		r.RiskScore >= risk.HighRiskThreshold ||
		rule.Result != models.RuleEligible ||
		r.ReviewRequired
}

// Combine is pure; the returned record shares no slices with its inputs.
//
// Flag reason order: rule reasons, then the near-miss message, then the
// risk marker, then the fairness marker.
func Combine(rule models.RuleOutcome, r models.RiskOutcome, nm models.NearMissOutcome) models.DecisionRecord {
	flag := AuditFlag(rule, r)

	status := models.StatusNew
	if rule.Result != models.RuleEligible || flag {
		status = models.StatusInReview
	}

	reasons := make([]models.FlagReason, 0, len(rule.Reasons)+3)
	for _, text := range rule.Reasons {
		reasons = append(reasons, models.FlagReason{Source: models.FlagSourceRule, Text: text})
	}
	if nm.IsNearMiss {
		reasons = append(reasons, models.FlagReason{Source: models.FlagSourceNearMiss, Text: nm.FlagText()})
	}
	reasons = append(reasons, models.FlagReason{Source: models.FlagSourceRisk, Text: RiskMarker(r)})
	if r.Available && r.ReviewRequired {
		reasons = append(reasons, models.FlagReason{Source: models.FlagSourceRisk, Text: FairnessMarker})
	}

	nmCopy := nm
	nmCopy.Alternatives = append([]string{}, nm.Alternatives...)
	riskCopy := r
	riskCopy.TopReasons = append([]string{}, r.TopReasons...)

	return models.DecisionRecord{
		RuleResult:     rule.Result,
		Reasons:        append([]string{}, rule.Reasons...),
		Tags:           append([]string{}, rule.Tags...),
		Alternatives:   pstrings.Merge(rule.Alternatives, nm.Alternatives),
		NearMiss:       nmCopy,
		Risk:           riskCopy,
		AuditFlag:      flag,
		FairnessReview: r.Available && r.ReviewRequired,
		FlagReasons:    reasons,
		Status:         status,
	}
}

// RiskMarker is the machine-readable risk entry, e.g. "ml_risk=0.420".
func RiskMarker(r models.RiskOutcome) string {
	if !r.Available {
		return UnavailableMarker
	}
	return fmt.Sprintf("ml_risk=%.3f", r.RiskScore)
}
