// Package documents builds the deterministic document checklist for a
// scheme and profile.
package documents

import (
	"saral/internal/eligibility/models"
	"saral/internal/eligibility/scheme"
	pstrings "saral/pkg/platform/strings"
)

// IdentityProof is required for every scheme, and for unknown ones.
const IdentityProof = "Aadhaar Card (Identity Proof)"

// SchemeSource resolves scheme configs.
type SchemeSource interface {
	Get(code string) (scheme.Config, bool)
}

// Generator is stateless and safe for concurrent use.
type Generator struct {
	schemes SchemeSource
}

// New creates a generator over the given registry.
func New(schemes SchemeSource) *Generator {
	return &Generator{schemes: schemes}
}

// Checklist returns the ordered, de-duplicated document list. An unknown or
// unparseable income is treated as zero so the applicant is asked for
// income proof rather than a tax return.
func (g *Generator) Checklist(code string, p models.Profile) []string {
	cfg, ok := g.schemes.Get(code)
	if !ok {
		return []string{IdentityProof}
	}

	annual, status := p.AnnualIncome()
	if status != models.IncomeKnown {
		annual = 0
	}

	docs := [][]string{{IdentityProof}, cfg.Documents.Base}
	for _, rule := range cfg.Documents.Conditional {
		if holds(rule, p, annual) {
			docs = append(docs, rule.Add)
		}
	}
	return pstrings.Merge(docs...)
}

func holds(rule scheme.DocumentRule, p models.Profile, annual int64) bool {
	switch rule.When {
	case scheme.PredicateMarginalized:
		return p.Marginalized
	case scheme.PredicateRural:
		return p.Rural
	case scheme.PredicateIncomeBelow:
		return annual < rule.Amount
	case scheme.PredicateIncomeAtLeast:
		return annual >= rule.Amount
	case scheme.PredicateHasIncome:
		return annual > 0
	}
	return false
}
