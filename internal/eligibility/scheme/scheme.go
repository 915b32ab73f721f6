// Package scheme holds the scheme registry: the canonical, validated scheme
// configuration loaded once at startup and read-only afterwards.
package scheme

import (
	"saral/internal/eligibility/models"
)

// CapBandName names the single band a bare max_income is normalized into.
const CapBandName = "CAP"

// Band is a named income bracket with an inclusive upper bound.
type Band struct {
	Name string `yaml:"name"`
	Max  int64  `yaml:"max"`
}

// Criteria are the eligibility guards evaluated by the rule engine.
type Criteria struct {
	MinAge               int             `yaml:"min_age"`
	MaxAge               *int            `yaml:"max_age"`
	AllowedGenders       []models.Gender `yaml:"allowed_genders"`
	MustBeRural          bool            `yaml:"must_be_rural"`
	RequiresMarginalized bool            `yaml:"requires_marginalized"`
	IncomeBands          []Band          `yaml:"income_bands"`
	MaxIncome            *int64          `yaml:"max_income"`
}

// ToleranceKind selects how a near-miss tolerance is interpreted.
type ToleranceKind string

const (
	ToleranceFixed   ToleranceKind = "fixed"
	TolerancePercent ToleranceKind = "percent"
)

// Tolerance is either a fixed rupee amount or a percentage of the limit.
type Tolerance struct {
	Kind  ToleranceKind `yaml:"kind"`
	Value float64       `yaml:"value"`
}

// Amount resolves the tolerance against a limit, in whole rupees.
func (t Tolerance) Amount(limit int64) int64 {
	if t.Kind == TolerancePercent {
		return int64(float64(limit) * t.Value / 100)
	}
	return int64(t.Value)
}

// NearMissPolicy describes the income boundary watched for near misses.
// Counterfactual may contain {limit}, replaced by the formatted limit.
type NearMissPolicy struct {
	Label          string    `yaml:"label"`
	Limit          int64     `yaml:"limit"`
	Tolerance      Tolerance `yaml:"tolerance"`
	Counterfactual string    `yaml:"counterfactual"`
}

// Hint suggests another scheme when every set predicate holds.
type Hint struct {
	Suggest     string        `yaml:"suggest"`
	Gender      models.Gender `yaml:"gender"`
	Rural       *bool         `yaml:"rural"`
	IncomeBelow *int64        `yaml:"income_below"`
}

// Predicate names a condition that adds documents to a checklist.
type Predicate string

const (
	PredicateMarginalized  Predicate = "marginalized"
	PredicateRural         Predicate = "rural"
	PredicateIncomeBelow   Predicate = "income_below"
	PredicateIncomeAtLeast Predicate = "income_at_least"
	PredicateHasIncome     Predicate = "has_income"
)

func (p Predicate) valid() bool {
	switch p {
	case PredicateMarginalized, PredicateRural, PredicateIncomeBelow, PredicateIncomeAtLeast, PredicateHasIncome:
		return true
	}
	return false
}

func (p Predicate) needsAmount() bool {
	return p == PredicateIncomeBelow || p == PredicateIncomeAtLeast
}

// DocumentRule adds documents when its predicate holds.
type DocumentRule struct {
	When   Predicate `yaml:"when"`
	Amount int64     `yaml:"amount"`
	Add    []string  `yaml:"add"`
}

// Documents is a base checklist plus conditional additions.
type Documents struct {
	Base        []string       `yaml:"base"`
	Conditional []DocumentRule `yaml:"conditional"`
}

// Config is the canonical configuration for one scheme.
type Config struct {
	Code         string          `yaml:"code"`
	Name         string          `yaml:"name"`
	Criteria     Criteria        `yaml:"criteria"`
	Alternatives []string        `yaml:"alternatives"`
	NearMiss     *NearMissPolicy `yaml:"near_miss"`
	Hints        []Hint          `yaml:"hints"`
	Documents    Documents       `yaml:"documents"`
}
