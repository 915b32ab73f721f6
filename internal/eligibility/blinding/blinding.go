// Package blinding is the single filter applied at every boundary that
// exposes a case: API reads, dashboard listing and export.
package blinding

import "saral/internal/eligibility/models"

// Apply passes TREATMENT views through untouched and hides every
// risk-derived field for any other arm, including an empty or unknown one.
// It is idempotent and never touches the stored case.
func Apply(v models.ExternalView, arm models.Arm) models.ExternalView {
	if arm == models.ArmTreatment {
		return v
	}

	v.DecisionSupportShown = false
	v.ReviewConfidence = nil
	v.RiskScore = nil
	v.RiskBand = nil
	v.TopReasons = []string{}
	v.MLAvailable = nil
	v.FairnessReview = nil
	v.AuditFlag = nil
	v.OverrideFlag = nil

	kept := make([]models.FlagReason, 0, len(v.FlagReasons))
	for _, r := range v.FlagReasons {
		if r.Source != models.FlagSourceRisk {
			kept = append(kept, r)
		}
	}
	v.FlagReasons = kept
	v.FlagReason = models.JoinFlagReasons(kept)
	return v
}

// View builds the outward view of a stored case for its own arm.
func View(c *models.Case) models.ExternalView {
	return Apply(models.ViewOf(c), c.Assignment.Arm)
}

// ResearchView is the unblinded view used only by the explicit research
// export flag.
func ResearchView(c *models.Case) models.ExternalView {
	return models.ViewOf(c)
}
