package risk

import (
	"math"

	"saral/internal/eligibility/models"
)

// Thresholds on risk score and probability.
const (
	HighRiskThreshold = 0.7
	MedRiskThreshold  = 0.4

	LikelyThreshold = 0.6

	FairnessMarginalizedFloor = 0.3
	FairnessGlobalFloor       = 0.15
)

// Labels attached to a scored outcome.
const (
	LabelLikely    = "likely"
	LabelUncertain = "uncertain"
)

// UnavailableReason is the only top reason of an unavailable outcome.
const UnavailableReason = "unavailable"

// BandFor buckets a risk score.
func BandFor(riskScore float64) models.RiskBand {
	switch {
	case riskScore >= HighRiskThreshold:
		return models.RiskHigh
	case riskScore >= MedRiskThreshold:
		return models.RiskMed
	default:
		return models.RiskLow
	}
}

// FairnessReview reports whether a low probability must route the case to
// mandatory human review. It never rejects on its own.
func FairnessReview(probability float64, marginalized bool) bool {
	return (marginalized && probability < FairnessMarginalizedFloor) || probability < FairnessGlobalFloor
}

// Scored builds an available outcome. Values are rounded to three decimals.
func Scored(probability float64, topReasons []string, marginalized bool) models.RiskOutcome {
	p := round3(probability)
	score := round3(1 - p)
	label := LabelUncertain
	if p >= LikelyThreshold {
		label = LabelLikely
	}
	reasons := make([]string, 0, MaxTopReasons)
	for _, r := range topReasons {
		if len(reasons) == MaxTopReasons {
			break
		}
		reasons = append(reasons, r)
	}
	return models.RiskOutcome{
		Available:      true,
		Probability:    p,
		RiskScore:      score,
		Band:           BandFor(score),
		TopReasons:     reasons,
		Label:          label,
		ReviewRequired: FairnessReview(p, marginalized),
	}
}

// Unavailable builds the safe fallback outcome.
func Unavailable(cause, failureID string) models.RiskOutcome {
	return models.RiskOutcome{
		Available:   false,
		Probability: 0,
		RiskScore:   1,
		Band:        models.RiskHigh,
		TopReasons:  []string{UnavailableReason},
		Cause:       cause,
		FailureID:   failureID,
	}
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
