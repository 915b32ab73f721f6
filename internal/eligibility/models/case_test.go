package models_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"saral/internal/eligibility/models"
	id "saral/pkg/domain"
	dErrors "saral/pkg/domain-errors"
)

type CaseSuite struct {
	suite.Suite
	now time.Time
}

func TestCaseSuite(t *testing.T) {
	suite.Run(t, new(CaseSuite))
}

func (s *CaseSuite) SetupTest() {
	s.now = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
}

func (s *CaseSuite) newCase(arm models.Arm, rule models.RuleResult, risk float64) *models.Case {
	return &models.Case{
		ID:         id.NewCaseID(),
		CitizenID:  "c-1",
		SchemeCode: "UJJ",
		Source:     id.SourceWeb,
		Assignment: models.ArmAssignment{Arm: arm, Reason: "sha256_parity:0123456789ab"},
		Decision: models.DecisionRecord{
			RuleResult: rule,
			Risk:       models.RiskOutcome{Available: true, Probability: 1 - risk, RiskScore: risk, Band: models.RiskHigh},
			AuditFlag:  true,
			Status:     models.StatusInReview,
		},
		Status:    models.StatusInReview,
		CreatedAt: s.now.Add(-time.Hour),
		UpdatedAt: s.now.Add(-time.Hour),
	}
}

func (s *CaseSuite) TestCanDispose() {
	s.Run("ineligible case cannot be approved", func() {
		c := s.newCase(models.ArmTreatment, models.RuleIneligible, 0.2)
		err := c.CanDispose(models.ActionApprove, models.ReasonOther)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("unknown case cannot be approved", func() {
		c := s.newCase(models.ArmControl, models.RuleUnknown, 0.2)
		err := c.CanDispose(models.ActionApprove, models.ReasonOther)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("reason must fit action", func() {
		c := s.newCase(models.ArmTreatment, models.RuleEligible, 0.2)
		err := c.CanDispose(models.ActionApprove, models.ReasonFraudSuspected)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("decided case cannot be disposed again", func() {
		c := s.newCase(models.ArmTreatment, models.RuleEligible, 0.2)
		c.Status = models.StatusApproved
		err := c.CanDispose(models.ActionReject, models.ReasonOther)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("reject is allowed for every rule result", func() {
		for _, rule := range []models.RuleResult{models.RuleEligible, models.RuleIneligible, models.RuleUnknown} {
			c := s.newCase(models.ArmTreatment, rule, 0.2)
			s.NoError(c.CanDispose(models.ActionReject, models.ReasonRuleFail), rule)
		}
	})
}

func (s *CaseSuite) TestApplyDisposition() {
	operator, err := id.ParseOperatorID("OP-7")
	s.Require().NoError(err)

	s.Run("status follows action", func() {
		cases := map[models.FinalAction]models.DecisionStatus{
			models.ActionApprove:     models.StatusApproved,
			models.ActionReject:      models.StatusRejected,
			models.ActionRequestDocs: models.StatusInReview,
			models.ActionEscalate:    models.StatusInReview,
		}
		for action, want := range cases {
			c := s.newCase(models.ArmTreatment, models.RuleEligible, 0.2)
			c.ApplyDisposition(models.DispositionCommand{FinalAction: action, ReasonCode: models.ReasonOther, OperatorID: operator}, s.now)
			s.Equal(want, c.Status, action)
		}
	})

	s.Run("opened_at defaults to now and latencies derive from timestamps", func() {
		c := s.newCase(models.ArmTreatment, models.RuleEligible, 0.2)
		c.ApplyDisposition(models.DispositionCommand{FinalAction: models.ActionApprove, ReasonCode: models.ReasonOther, OperatorID: operator}, s.now)
		s.Require().NotNil(c.OpenedAt)
		s.Equal(s.now, *c.OpenedAt)
		s.Equal(time.Hour, *c.WaitLatency())
		s.Equal(time.Duration(0), *c.TriageLatency())
		s.Equal(time.Hour, *c.EndToEndLatency())
		s.Equal(models.SOPVersion, c.Disposition.SOPVersion)
		s.Equal("op-7", c.Disposition.OperatorID.String())
	})

	s.Run("explicit opened_at is kept", func() {
		c := s.newCase(models.ArmTreatment, models.RuleEligible, 0.2)
		opened := s.now.Add(-10 * time.Minute)
		c.ApplyDisposition(models.DispositionCommand{FinalAction: models.ActionReject, ReasonCode: models.ReasonOther, OperatorID: operator, OpenedAt: &opened}, s.now)
		s.Equal(10*time.Minute, *c.TriageLatency())
	})

	s.Run("treatment approve over high risk is an override", func() {
		c := s.newCase(models.ArmTreatment, models.RuleEligible, 0.85)
		c.ApplyDisposition(models.DispositionCommand{FinalAction: models.ActionApprove, ReasonCode: models.ReasonOther, OperatorID: operator}, s.now)
		s.Require().NotNil(c.OverrideFlag)
		s.True(*c.OverrideFlag)
	})

	s.Run("treatment reject is not an override", func() {
		c := s.newCase(models.ArmTreatment, models.RuleEligible, 0.85)
		c.ApplyDisposition(models.DispositionCommand{FinalAction: models.ActionReject, ReasonCode: models.ReasonOther, OperatorID: operator}, s.now)
		s.Require().NotNil(c.OverrideFlag)
		s.False(*c.OverrideFlag)
	})

	s.Run("control override flag stays absent", func() {
		c := s.newCase(models.ArmControl, models.RuleEligible, 0.95)
		c.ApplyDisposition(models.DispositionCommand{FinalAction: models.ActionApprove, ReasonCode: models.ReasonOther, OperatorID: operator}, s.now)
		s.Nil(c.OverrideFlag)
	})

	s.Run("decision record is untouched", func() {
		c := s.newCase(models.ArmTreatment, models.RuleEligible, 0.2)
		before := c.Decision.AuditFlag
		c.ApplyDisposition(models.DispositionCommand{FinalAction: models.ActionApprove, ReasonCode: models.ReasonOther, OperatorID: operator}, s.now)
		s.Equal(before, c.Decision.AuditFlag)
		s.Equal(models.StatusInReview, c.Decision.Status)
	})
}

func (s *CaseSuite) TestRedactProfile() {
	c := s.newCase(models.ArmTreatment, models.RuleEligible, 0.2)
	c.Profile = &models.Profile{Age: 30, Gender: models.GenderFemale}
	c.IntentLabel = "status"

	s.True(c.RedactProfile(s.now))
	s.Nil(c.Profile)
	s.Empty(c.IntentLabel)
	s.Require().NotNil(c.ProfileRedactedAt)
	s.False(c.RedactProfile(s.now.Add(time.Hour)), "second redaction is a no-op")
	s.Equal(s.now, *c.ProfileRedactedAt)
}

func (s *CaseSuite) TestParseEnums() {
	a, err := models.ParseFinalAction("ESCALATE")
	s.NoError(err)
	s.Equal(models.ActionEscalate, a)

	_, err = models.ParseFinalAction("approve")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = models.ParseReasonCode("LOST")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *CaseSuite) TestClone() {
	c := s.newCase(models.ArmTreatment, models.RuleEligible, 0.2)
	c.Profile = &models.Profile{Income: models.Int64(1000), IncomePeriod: models.IncomeAnnual}
	c.Documents = []string{"Aadhaar Card (Identity Proof)"}
	c.Decision.Reasons = []string{"r"}

	cp := c.Clone()
	*cp.Profile.Income = 5
	cp.Documents[0] = "changed"
	cp.Decision.Reasons[0] = "changed"

	s.Equal(int64(1000), *c.Profile.Income)
	s.Equal("Aadhaar Card (Identity Proof)", c.Documents[0])
	s.Equal("r", c.Decision.Reasons[0])
}
