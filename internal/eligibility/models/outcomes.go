package models

// RuleResult is the categorical outcome of rule evaluation.
type RuleResult string

const (
	RuleEligible   RuleResult = "ELIGIBLE_BY_RULE"
	RuleIneligible RuleResult = "INELIGIBLE_BY_RULE"
	RuleUnknown    RuleResult = "UNKNOWN_NEEDS_DOCS"
)

// IsValid reports whether r is one of the three outcomes.
func (r RuleResult) IsValid() bool {
	switch r {
	case RuleEligible, RuleIneligible, RuleUnknown:
		return true
	}
	return false
}

// RuleOutcome is produced by the rule engine. Reasons holds every failing
// guard in evaluation order; Tags carries non-decision metadata such as the
// matched income band.
type RuleOutcome struct {
	Result       RuleResult `json:"rule_result"`
	Reasons      []string   `json:"reasons"`
	Tags         []string   `json:"tags"`
	Alternatives []string   `json:"alternatives"`
}

// NearMissOutcome describes an income that misses a scheme limit by a small,
// explainable margin, plus any cross-scheme suggestions.
type NearMissOutcome struct {
	IsNearMiss     bool     `json:"is_near_miss"`
	Label          string   `json:"label,omitempty"`
	Distance       string   `json:"distance,omitempty"`
	Counterfactual string   `json:"counterfactual,omitempty"`
	Alternatives   []string `json:"alternatives"`
}

// FlagText renders the near-miss contribution to the flag reason trail.
func (n NearMissOutcome) FlagText() string {
	if !n.IsNearMiss {
		return ""
	}
	return "Near Miss: " + n.Label + " | " + n.Distance + " | " + n.Counterfactual
}

// RiskBand buckets the risk score.
type RiskBand string

const (
	RiskLow  RiskBand = "LOW"
	RiskMed  RiskBand = "MED"
	RiskHigh RiskBand = "HIGH"
)

// RiskOutcome is either scored (Available) or unavailable with safe fallback
// values: probability 0, risk score 1, band HIGH, top reasons ["unavailable"].
// Build it with the risk package constructors.
type RiskOutcome struct {
	Available      bool     `json:"available"`
	Probability    float64  `json:"probability"`
	RiskScore      float64  `json:"risk_score"`
	Band           RiskBand `json:"risk_band"`
	TopReasons     []string `json:"top_reasons"`
	Label          string   `json:"label,omitempty"`
	ReviewRequired bool     `json:"fairness_review"`
	Cause          string   `json:"cause,omitempty"`
	FailureID      string   `json:"failure_id,omitempty"`
}
