package rules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saral/internal/eligibility/models"
	"saral/internal/eligibility/rules"
	"saral/internal/eligibility/scheme"
)

func defaultEngine(t *testing.T) *rules.Engine {
	t.Helper()
	reg, err := scheme.Default()
	require.NoError(t, err)
	return rules.New(reg)
}

func ruralWoman(income int64) models.Profile {
	return models.Profile{
		Age:          30,
		Gender:       models.GenderFemale,
		Income:       models.Int64(income),
		IncomePeriod: models.IncomeAnnual,
		Rural:        true,
		Marginalized: true,
	}
}

func TestEvaluate(t *testing.T) {
	engine := defaultEngine(t)

	tests := []struct {
		name        string
		code        string
		profile     func() models.Profile
		wantResult  models.RuleResult
		wantReasons []string
		wantTags    []string
		wantAlts    []string
	}{
		{
			name:        "unknown scheme stops evaluation",
			code:        "XYZ",
			profile:     func() models.Profile { return models.Profile{} },
			wantResult:  models.RuleUnknown,
			wantReasons: []string{rules.ReasonInvalidScheme},
			wantTags:    []string{},
			wantAlts:    []string{},
		},
		{
			name: "missing income",
			code: "PMAY",
			profile: func() models.Profile {
				p := ruralWoman(0)
				p.Income = nil
				p.IncomePeriod = ""
				return p
			},
			wantResult:  models.RuleUnknown,
			wantReasons: []string{rules.ReasonIncomeMissing},
			wantTags:    []string{},
			wantAlts:    []string{"STATE_HOUSING", "RENTAL_SUPPORT"},
		},
		{
			name: "unsupported income period",
			code: "PMAY",
			profile: func() models.Profile {
				p := ruralWoman(1000)
				p.IncomePeriod = "weekly"
				return p
			},
			wantResult:  models.RuleUnknown,
			wantReasons: []string{rules.ReasonInvalidIncome},
			wantTags:    []string{},
			wantAlts:    []string{"STATE_HOUSING", "RENTAL_SUPPORT"},
		},
		{
			name: "income without a period is missing",
			code: "PMAY",
			profile: func() models.Profile {
				p := ruralWoman(90000)
				p.IncomePeriod = ""
				return p
			},
			wantResult:  models.RuleUnknown,
			wantReasons: []string{rules.ReasonIncomeMissing},
			wantTags:    []string{},
			wantAlts:    []string{"STATE_HOUSING", "RENTAL_SUPPORT"},
		},
		{
			name: "monthly income that overflows when annualized",
			code: "PMAY",
			profile: func() models.Profile {
				p := ruralWoman(1 << 60)
				p.IncomePeriod = models.IncomeMonthly
				return p
			},
			wantResult:  models.RuleUnknown,
			wantReasons: []string{rules.ReasonInvalidIncome},
			wantTags:    []string{},
			wantAlts:    []string{"STATE_HOUSING", "RENTAL_SUPPORT"},
		},
		{
			name:        "very large annual income exceeds every band",
			code:        "PMAY",
			profile:     func() models.Profile { return ruralWoman(1 << 60) },
			wantResult:  models.RuleIneligible,
			wantReasons: []string{rules.ReasonIncomeExceedsBands},
			wantTags:    []string{},
			wantAlts:    []string{"STATE_HOUSING", "RENTAL_SUPPORT"},
		},
		{
			name:        "eligible rural applicant under UJJ cap",
			code:        "UJJ",
			profile:     func() models.Profile { return ruralWoman(90000) },
			wantResult:  models.RuleEligible,
			wantReasons: []string{},
			wantTags:    []string{"UJJ_BAND:CAP"},
			wantAlts:    []string{},
		},
		{
			name: "monthly income is annualized before band matching",
			code: "PMAY",
			profile: func() models.Profile {
				p := ruralWoman(30000)
				p.IncomePeriod = models.IncomeMonthly
				return p
			},
			wantResult:  models.RuleEligible,
			wantReasons: []string{},
			wantTags:    []string{"PMAY_BAND:LIG"},
			wantAlts:    []string{},
		},
		{
			name: "every failing guard is reported",
			code: "UJJ",
			profile: func() models.Profile {
				p := ruralWoman(400000)
				p.Age = 16
				p.Rural = false
				return p
			},
			wantResult:  models.RuleIneligible,
			wantReasons: []string{"Age must be 18+", rules.ReasonMustBeRural, rules.ReasonIncomeExceedsBands},
			wantTags:    []string{},
			wantAlts:    []string{},
		},
		{
			name:        "PMAY over all bands carries alternatives",
			code:        "PMAY",
			profile:     func() models.Profile { return ruralWoman(2000000) },
			wantResult:  models.RuleIneligible,
			wantReasons: []string{rules.ReasonIncomeExceedsBands},
			wantTags:    []string{},
			wantAlts:    []string{"STATE_HOUSING", "RENTAL_SUPPORT"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.Evaluate(tt.code, tt.profile())
			assert.Equal(t, tt.wantResult, got.Result)
			assert.Equal(t, tt.wantReasons, got.Reasons)
			assert.Equal(t, tt.wantTags, got.Tags)
			assert.Equal(t, tt.wantAlts, got.Alternatives)
		})
	}
}

func TestEvaluate_BandsAreFirstMatchAscending(t *testing.T) {
	reg, err := scheme.New("test", scheme.Config{
		Code: "HOUSING",
		Criteria: scheme.Criteria{
			IncomeBands: []scheme.Band{{Name: "A", Max: 300000}, {Name: "B", Max: 600000}},
		},
	})
	require.NoError(t, err)

	got := rules.New(reg).Evaluate("HOUSING", ruralWoman(250000))
	assert.Equal(t, []string{"HOUSING_BAND:A"}, got.Tags)

	got = rules.New(reg).Evaluate("HOUSING", ruralWoman(300000))
	assert.Equal(t, []string{"HOUSING_BAND:A"}, got.Tags, "band max is inclusive")
}

func TestEvaluate_GenderAndAgeLimits(t *testing.T) {
	maxAge := 60
	reg, err := scheme.New("test", scheme.Config{
		Code: "WIDOW",
		Criteria: scheme.Criteria{
			MinAge:               18,
			MaxAge:               &maxAge,
			AllowedGenders:       []models.Gender{models.GenderFemale},
			RequiresMarginalized: true,
		},
		Alternatives: []string{"OLD_AGE_PENSION"},
	})
	require.NoError(t, err)

	p := ruralWoman(10000)
	p.Gender = models.GenderMale
	p.Age = 70
	p.Marginalized = false

	got := rules.New(reg).Evaluate("WIDOW", p)
	assert.Equal(t, models.RuleIneligible, got.Result)
	assert.Equal(t, []string{
		"Age must be at most 60",
		rules.ReasonCategoryNotEligible,
		rules.ReasonMustBeMarginalized,
	}, got.Reasons)
	assert.Equal(t, []string{"OLD_AGE_PENSION"}, got.Alternatives)
}

func TestEvaluate_DeterministicAndTotal(t *testing.T) {
	engine := defaultEngine(t)
	periods := []models.IncomePeriod{models.IncomeAnnual, models.IncomeMonthly, "", "fortnightly"}
	genders := []models.Gender{models.GenderMale, models.GenderFemale, models.GenderOther}

	for i := 0; i < 500; i++ {
		p := models.Profile{
			Age:          i % 90,
			Gender:       genders[i%len(genders)],
			Income:       models.Int64(int64(i) * 7919),
			IncomePeriod: periods[i%len(periods)],
			Rural:        i%2 == 0,
			Marginalized: i%3 == 0,
		}
		for _, code := range []string{"PMAY", "UJJ", "NOPE"} {
			first := engine.Evaluate(code, p)
			assert.True(t, first.Result.IsValid())
			assert.Equal(t, first, engine.Evaluate(code, p))
			if first.Result == models.RuleEligible {
				assert.Empty(t, first.Reasons)
			} else {
				assert.NotEmpty(t, first.Reasons)
			}
		}
	}
}
