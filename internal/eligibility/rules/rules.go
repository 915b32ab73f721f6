// Package rules is the deterministic rule engine. Evaluation is pure domain
// logic: no I/O, no randomness, identical inputs give identical outcomes.
package rules

import (
	"fmt"
	"slices"

	"saral/internal/eligibility/models"
	"saral/internal/eligibility/scheme"
)

// Reason strings are part of the observable contract.
const (
	ReasonInvalidScheme       = "Invalid scheme code"
	ReasonIncomeMissing       = "Income or income period missing"
	ReasonInvalidIncome       = "Invalid income format"
	ReasonCategoryNotEligible = "Applicant category not eligible"
	ReasonMustBeRural         = "Must be Rural"
	ReasonIncomeExceedsBands  = "Income exceeds all eligible bands"
	ReasonMustBeMarginalized  = "Must belong to eligible social category"
)

// SchemeSource resolves scheme configs.
type SchemeSource interface {
	Get(code string) (scheme.Config, bool)
}

// Engine evaluates profiles against scheme criteria.
type Engine struct {
	schemes SchemeSource
}

// New creates a rule engine over the given registry.
func New(schemes SchemeSource) *Engine {
	return &Engine{schemes: schemes}
}

// Evaluate returns exactly one of the three rule results for any input.
//
// Guard order:
//  1. Scheme lookup (unknown code stops evaluation)
//  2. Income annualization (missing or invalid income stops evaluation)
//  3. Age, gender, rural, income band and social category guards, all
//     evaluated so every failing guard is reported
func (e *Engine) Evaluate(code string, p models.Profile) models.RuleOutcome {
	cfg, ok := e.schemes.Get(code)
	if !ok {
		return models.RuleOutcome{
			Result:       models.RuleUnknown,
			Reasons:      []string{ReasonInvalidScheme},
			Tags:         []string{},
			Alternatives: []string{},
		}
	}

	annual, status := p.AnnualIncome()
	switch status {
	case models.IncomeMissing:
		return unknown(cfg, ReasonIncomeMissing)
	case models.IncomeInvalid:
		return unknown(cfg, ReasonInvalidIncome)
	}

	c := cfg.Criteria
	reasons := []string{}
	tags := []string{}

	if c.MinAge > 0 && p.Age < c.MinAge {
		reasons = append(reasons, fmt.Sprintf("Age must be %d+", c.MinAge))
	}
	if c.MaxAge != nil && p.Age > *c.MaxAge {
		reasons = append(reasons, fmt.Sprintf("Age must be at most %d", *c.MaxAge))
	}
	if len(c.AllowedGenders) > 0 && !slices.Contains(c.AllowedGenders, p.Gender) {
		reasons = append(reasons, ReasonCategoryNotEligible)
	}
	if c.MustBeRural && !p.Rural {
		reasons = append(reasons, ReasonMustBeRural)
	}
	if len(c.IncomeBands) > 0 {
		if band, found := MatchBand(c.IncomeBands, annual); found {
			tags = append(tags, BandTag(cfg.Code, band.Name))
		} else {
			reasons = append(reasons, ReasonIncomeExceedsBands)
		}
	}
	if c.RequiresMarginalized && !p.Marginalized {
		reasons = append(reasons, ReasonMustBeMarginalized)
	}

	if len(reasons) == 0 {
		return models.RuleOutcome{
			Result:       models.RuleEligible,
			Reasons:      reasons,
			Tags:         tags,
			Alternatives: []string{},
		}
	}
	return models.RuleOutcome{
		Result:       models.RuleIneligible,
		Reasons:      reasons,
		Tags:         tags,
		Alternatives: slices.Clone(nonNil(cfg.Alternatives)),
	}
}

// MatchBand returns the first band, in ascending order, whose max covers
// the annual income.
func MatchBand(bands []scheme.Band, annual int64) (scheme.Band, bool) {
	for _, b := range bands {
		if annual <= b.Max {
			return b, true
		}
	}
	return scheme.Band{}, false
}

// BandTag formats the matched band tag, e.g. "PMAY_BAND:EWS".
func BandTag(code, band string) string {
	return code + "_BAND:" + band
}

// Income problems leave the case undecided, so alternatives stay visible
// for triage.
func unknown(cfg scheme.Config, reason string) models.RuleOutcome {
	return models.RuleOutcome{
		Result:       models.RuleUnknown,
		Reasons:      []string{reason},
		Tags:         []string{},
		Alternatives: slices.Clone(nonNil(cfg.Alternatives)),
	}
}

func nonNil(xs []string) []string {
	if xs == nil {
		return []string{}
	}
	return xs
}
