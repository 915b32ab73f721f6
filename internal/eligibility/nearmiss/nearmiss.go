// Package nearmiss detects incomes that miss a scheme limit by a small,
// explainable margin and suggests neighbouring schemes.
package nearmiss

import (
	"strconv"
	"strings"

	"saral/internal/eligibility/models"
	"saral/internal/eligibility/scheme"
	pstrings "saral/pkg/platform/strings"
)

// SchemeSource resolves scheme configs.
type SchemeSource interface {
	Get(code string) (scheme.Config, bool)
}

// Analyzer is stateless and safe for concurrent use.
type Analyzer struct {
	schemes SchemeSource
}

// New creates an analyzer over the given registry.
func New(schemes SchemeSource) *Analyzer {
	return &Analyzer{schemes: schemes}
}

// Check runs independently of the rule engine. Callers decide whether to
// surface the result.
func (a *Analyzer) Check(p models.Profile, code string) models.NearMissOutcome {
	out := models.NearMissOutcome{Alternatives: []string{}}
	cfg, ok := a.schemes.Get(code)
	if !ok {
		return out
	}

	annual, status := p.AnnualIncome()
	known := status == models.IncomeKnown

	if nm := cfg.NearMiss; nm != nil && known {
		diff := annual - nm.Limit
		if diff > 0 && diff <= nm.Tolerance.Amount(nm.Limit) {
			limit := FormatINR(nm.Limit)
			out.IsNearMiss = true
			out.Label = nm.Label
			out.Distance = FormatINR(diff) + " over " + limit
			out.Counterfactual = strings.ReplaceAll(nm.Counterfactual, "{limit}", limit)
		}
	}

	suggestions := make([]string, 0, len(cfg.Hints))
	for _, h := range cfg.Hints {
		if hintApplies(h, p, annual, known) {
			suggestions = append(suggestions, h.Suggest)
		}
	}
	out.Alternatives = pstrings.Merge(suggestions)
	return out
}

// An income predicate never matches an unknown income.
func hintApplies(h scheme.Hint, p models.Profile, annual int64, incomeKnown bool) bool {
	if h.Gender != "" && h.Gender != p.Gender {
		return false
	}
	if h.Rural != nil && *h.Rural != p.Rural {
		return false
	}
	if h.IncomeBelow != nil && (!incomeKnown || annual >= *h.IncomeBelow) {
		return false
	}
	return true
}

// FormatINR renders whole rupees with Indian digit grouping, e.g.
// 250000 -> "₹2,50,000".
func FormatINR(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	digits := strconv.FormatInt(amount, 10)
	if len(digits) <= 3 {
		return sign + "₹" + digits
	}

	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	groups = append([]string{head}, groups...)
	return sign + "₹" + strings.Join(groups, ",") + "," + tail
}
