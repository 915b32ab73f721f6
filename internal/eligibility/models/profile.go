package models

import "math"

// Gender values accepted on a profile. Schemes may restrict further.
type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
	GenderOther  Gender = "O"
)

// IsValid reports whether g is one of the closed set.
func (g Gender) IsValid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// IncomePeriod is the period the declared income covers.
type IncomePeriod string

const (
	IncomeMonthly IncomePeriod = "monthly"
	IncomeAnnual  IncomePeriod = "annual"
)

// IncomeStatus reports whether a profile's income could be annualized.
type IncomeStatus int

const (
	IncomeKnown IncomeStatus = iota
	IncomeMissing
	IncomeInvalid
)

// Profile is the citizen data an adjudication runs on. It is a value: copy it
// freely, never mutate a shared one.
//
// Income is a pointer so "not declared" is distinct from zero income, and
// IncomePeriod is kept as free text so an unsupported period can be reported
// rather than rejected at the boundary.
type Profile struct {
	Age            int          `json:"age"`
	Gender         Gender       `json:"gender"`
	Income         *int64       `json:"income,omitempty"`
	IncomePeriod   IncomePeriod `json:"income_period,omitempty"`
	EducationYears int          `json:"education_years"`
	Rural          bool         `json:"rural"`
	Marginalized   bool         `json:"marginalized"`
}

// AnnualIncome converts the declared income to a yearly figure.
func (p Profile) AnnualIncome() (int64, IncomeStatus) {
	if p.Income == nil || p.IncomePeriod == "" {
		return 0, IncomeMissing
	}
	if *p.Income < 0 {
		return 0, IncomeInvalid
	}
	switch p.IncomePeriod {
	case IncomeAnnual:
		return *p.Income, IncomeKnown
	case IncomeMonthly:
		if *p.Income > math.MaxInt64/12 {
			return 0, IncomeInvalid
		}
		return *p.Income * 12, IncomeKnown
	default:
		return 0, IncomeInvalid
	}
}

// Int64 is a convenience for building profiles with a declared income.
func Int64(v int64) *int64 {
	return &v
}
