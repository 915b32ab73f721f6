package documents_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saral/internal/eligibility/documents"
	"saral/internal/eligibility/models"
	"saral/internal/eligibility/scheme"
)

func generator(t *testing.T) *documents.Generator {
	t.Helper()
	reg, err := scheme.Default()
	require.NoError(t, err)
	return documents.New(reg)
}

func TestChecklist(t *testing.T) {
	g := generator(t)

	tests := []struct {
		name    string
		code    string
		profile models.Profile
		want    []string
	}{
		{
			name: "UJJ rural marginalized applicant",
			code: "UJJ",
			profile: models.Profile{
				Age: 30, Gender: models.GenderFemale, Income: models.Int64(90000),
				IncomePeriod: models.IncomeAnnual, Rural: true, Marginalized: true,
			},
			want: []string{
				"Aadhaar Card (Identity Proof)",
				"Bank Account Passbook (Front Page)",
				"Ration Card",
				"Passport Size Photo",
				"Caste Certificate (SC/ST)",
				"Gram Panchayat Certificate",
			},
		},
		{
			name:    "UJJ urban applicant",
			code:    "UJJ",
			profile: models.Profile{Age: 30, Income: models.Int64(90000), IncomePeriod: models.IncomeAnnual},
			want: []string{
				"Aadhaar Card (Identity Proof)",
				"Bank Account Passbook (Front Page)",
				"Ration Card",
				"Passport Size Photo",
			},
		},
		{
			name:    "PMAY low income asks for income certificate",
			code:    "PMAY",
			profile: models.Profile{Income: models.Int64(20000), IncomePeriod: models.IncomeMonthly},
			want: []string{
				"Aadhaar Card (Identity Proof)",
				"Proof of Land Ownership (Patta/Registry)",
				"Bank Account Details",
				"Income Certificate (EWS/LIG)",
			},
		},
		{
			name:    "PMAY at the EWS limit asks for ITR",
			code:    "PMAY",
			profile: models.Profile{Income: models.Int64(300000), IncomePeriod: models.IncomeAnnual},
			want: []string{
				"Aadhaar Card (Identity Proof)",
				"Proof of Land Ownership (Patta/Registry)",
				"Bank Account Details",
				"Income Tax Return (ITR)",
			},
		},
		{
			name:    "PMAY unknown income asks for income certificate",
			code:    "PMAY",
			profile: models.Profile{},
			want: []string{
				"Aadhaar Card (Identity Proof)",
				"Proof of Land Ownership (Patta/Registry)",
				"Bank Account Details",
				"Income Certificate (EWS/LIG)",
			},
		},
		{
			name:    "unknown scheme gets identity proof only",
			code:    "NOPE",
			profile: models.Profile{Rural: true},
			want:    []string{"Aadhaar Card (Identity Proof)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := g.Checklist(tt.code, tt.profile)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, g.Checklist(tt.code, tt.profile))
		})
	}
}
