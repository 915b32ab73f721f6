package cases_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"saral/internal/eligibility/models"
	"saral/internal/eligibility/store/cases"
	id "saral/pkg/domain"
	"saral/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *cases.InMemoryStore
	ctx   context.Context
	t0    time.Time
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = cases.NewInMemory()
	s.ctx = context.Background()
	s.t0 = time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
}

func (s *InMemoryStoreSuite) TestCreateAndFind() {
	c := newCase("UJJ", models.ArmTreatment, s.t0)
	s.Require().NoError(s.store.Create(s.ctx, c))

	got, err := s.store.FindByID(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(c, got)

	got.Documents[0] = "mutated"
	again, _ := s.store.FindByID(s.ctx, c.ID)
	s.Equal("Aadhaar Card (Identity Proof)", again.Documents[0], "store hands out copies")

	s.ErrorIs(s.store.Create(s.ctx, c), sentinel.ErrConflict)
}

func (s *InMemoryStoreSuite) TestFindMissing() {
	_, err := s.store.FindByID(s.ctx, id.NewCaseID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestListFiltersAndOrder() {
	a := newCase("UJJ", models.ArmTreatment, s.t0.Add(2*time.Hour))
	b := newCase("UJJ", models.ArmControl, s.t0)
	c := newCase("PMAY", models.ArmControl, s.t0.Add(time.Hour))
	for _, x := range []*models.Case{a, b, c} {
		s.Require().NoError(s.store.Create(s.ctx, x))
	}

	all, err := s.store.List(s.ctx, cases.Filter{})
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal([]id.CaseID{b.ID, c.ID, a.ID}, []id.CaseID{all[0].ID, all[1].ID, all[2].ID})

	ujj, _ := s.store.List(s.ctx, cases.Filter{SchemeCode: "UJJ", Arm: models.ArmControl})
	s.Require().Len(ujj, 1)
	s.Equal(b.ID, ujj[0].ID)

	since := s.t0.Add(30 * time.Minute)
	recent, _ := s.store.List(s.ctx, cases.Filter{Since: &since, Limit: 1})
	s.Require().Len(recent, 1)
	s.Equal(c.ID, recent[0].ID)
}

func (s *InMemoryStoreSuite) TestUpdate() {
	c := newCase("UJJ", models.ArmTreatment, s.t0)
	s.Require().NoError(s.store.Create(s.ctx, c))

	s.Run("failed callback leaves the case untouched", func() {
		boom := errors.New("boom")
		_, err := s.store.Update(s.ctx, c.ID, func(x *models.Case) error {
			x.Status = models.StatusApproved
			return boom
		})
		s.ErrorIs(err, boom)
		got, _ := s.store.FindByID(s.ctx, c.ID)
		s.Equal(models.StatusInReview, got.Status)
	})

	s.Run("successful callback is persisted", func() {
		updated, err := s.store.Update(s.ctx, c.ID, func(x *models.Case) error {
			x.ApplyDisposition(models.DispositionCommand{
				FinalAction: models.ActionReject, ReasonCode: models.ReasonRuleFail, OperatorID: "op-1",
			}, s.t0.Add(time.Hour))
			return nil
		})
		s.Require().NoError(err)
		s.Equal(models.StatusRejected, updated.Status)

		got, _ := s.store.FindByID(s.ctx, c.ID)
		s.Equal(models.StatusRejected, got.Status)
		s.Require().NotNil(got.Disposition)
		s.Equal(models.ReasonRuleFail, got.Disposition.ReasonCode)
	})

	s.Run("missing case", func() {
		_, err := s.store.Update(s.ctx, id.NewCaseID(), func(*models.Case) error { return nil })
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *InMemoryStoreSuite) TestRedactProfilesBefore() {
	old := newCase("UJJ", models.ArmTreatment, s.t0)
	old.IntentLabel = "grievance"
	fresh := newCase("UJJ", models.ArmTreatment, s.t0.Add(48*time.Hour))
	s.Require().NoError(s.store.Create(s.ctx, old))
	s.Require().NoError(s.store.Create(s.ctx, fresh))

	now := s.t0.Add(50 * time.Hour)
	n, err := s.store.RedactProfilesBefore(s.ctx, now.Add(-24*time.Hour), now)
	s.Require().NoError(err)
	s.Equal(1, n)

	got, _ := s.store.FindByID(s.ctx, old.ID)
	s.Nil(got.Profile)
	s.Empty(got.IntentLabel)
	s.Equal(models.RuleIneligible, got.Decision.RuleResult, "decision fields survive redaction")

	n, _ = s.store.RedactProfilesBefore(s.ctx, now.Add(-24*time.Hour), now)
	s.Equal(0, n)
}

func (s *InMemoryStoreSuite) TestCountByStatus() {
	s.Require().NoError(s.store.Create(s.ctx, newCase("UJJ", models.ArmTreatment, s.t0)))
	s.Require().NoError(s.store.Create(s.ctx, newCase("UJJ", models.ArmControl, s.t0)))
	s.Require().NoError(s.store.Create(s.ctx, newCase("PMAY", models.ArmControl, s.t0)))

	counts, err := s.store.CountByStatus(s.ctx)
	s.Require().NoError(err)
	s.Equal([]cases.StatusCount{
		{SchemeCode: "PMAY", Status: models.StatusInReview, Count: 1},
		{SchemeCode: "UJJ", Status: models.StatusInReview, Count: 2},
	}, counts)
}
