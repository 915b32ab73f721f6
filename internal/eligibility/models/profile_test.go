package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnnualIncome(t *testing.T) {
	tests := []struct {
		name       string
		profile    Profile
		wantAmount int64
		wantStatus IncomeStatus
	}{
		{"annual passes through", Profile{Income: Int64(240000), IncomePeriod: IncomeAnnual}, 240000, IncomeKnown},
		{"monthly is annualized", Profile{Income: Int64(20000), IncomePeriod: IncomeMonthly}, 240000, IncomeKnown},
		{"missing income", Profile{IncomePeriod: IncomeAnnual}, 0, IncomeMissing},
		{"missing period", Profile{Income: Int64(1000)}, 0, IncomeMissing},
		{"negative income", Profile{Income: Int64(-5), IncomePeriod: IncomeAnnual}, 0, IncomeInvalid},
		{"unknown period", Profile{Income: Int64(5), IncomePeriod: "weekly"}, 0, IncomeInvalid},
		{"monthly overflow", Profile{Income: Int64(1 << 60), IncomePeriod: IncomeMonthly}, 0, IncomeInvalid},
		{"largest monthly that fits", Profile{Income: Int64(math.MaxInt64 / 12), IncomePeriod: IncomeMonthly}, (math.MaxInt64 / 12) * 12, IncomeKnown},
		{"huge annual passes through", Profile{Income: Int64(1 << 60), IncomePeriod: IncomeAnnual}, 1 << 60, IncomeKnown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount, status := tt.profile.AnnualIncome()
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantAmount, amount)
		})
	}
}

func TestJoinFlagReasons(t *testing.T) {
	got := JoinFlagReasons([]FlagReason{
		{Source: FlagSourceRule, Text: "Must be Rural"},
		{Source: FlagSourceNearMiss, Text: ""},
		{Source: FlagSourceRisk, Text: "ml_risk=0.420"},
	})
	assert.Equal(t, "Must be Rural | ml_risk=0.420", got)
}
