package cases_test

import (
	"time"

	"saral/internal/eligibility/gate"
	"saral/internal/eligibility/models"
	"saral/internal/eligibility/risk"
	id "saral/pkg/domain"
)

func newCase(scheme string, arm models.Arm, created time.Time) *models.Case {
	rule := models.RuleOutcome{Result: models.RuleIneligible, Reasons: []string{"Must be Rural"}, Tags: []string{}, Alternatives: []string{"PMAY"}}
	decision := gate.Combine(rule, risk.Scored(0.4, []string{"income_lakh"}, false), models.NearMissOutcome{Alternatives: []string{}})
	return &models.Case{
		ID:         id.NewCaseID(),
		CitizenID:  "citizen-1",
		SchemeCode: scheme,
		Source:     id.SourceWeb,
		Locale:     "en",
		Profile: &models.Profile{
			Age: 30, Gender: models.GenderFemale, Income: models.Int64(200000), IncomePeriod: models.IncomeAnnual,
		},
		Assignment: models.ArmAssignment{Arm: arm, Reason: "sha256_parity:000000000000"},
		Decision:   decision,
		Documents:  []string{"Aadhaar Card (Identity Proof)"},
		Status:     decision.Status,
		Provenance: models.Provenance{AppVersion: "1.1.0", RulesetVersion: "v1", ModelVersion: "v1", SchemaVersion: "v1"},
		CreatedAt:  created,
		UpdatedAt:  created,
	}
}
