package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"dana/internal/donation/models"
	id "dana/pkg/domain"
	dErrors "dana/pkg/domain-errors"
	"dana/pkg/platform/sentinel"
)

type DonationStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *DonationStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestDonationStoreSuite(t *testing.T) {
	suite.Run(t, new(DonationStoreSuite))
}

func (s *DonationStoreSuite) newDonation(title string) *models.Donation {
	donation, err := models.New(id.NewDonationID(), id.NewActorID(), title, time.Now().Add(time.Hour), time.Now())
	s.Require().NoError(err)
	return donation
}

func (s *DonationStoreSuite) TestCreateAndFind() {
	s.Run("round-trips a donation with items", func() {
		donation := s.newDonation("Bread")
		donation.Items = []models.FoodItem{
			{ID: id.NewFoodItemID(), DonationID: donation.ID, Name: "Loaf", Quantity: "12"},
		}
		s.Require().NoError(s.store.Create(s.ctx, donation))

		found, err := s.store.FindByID(s.ctx, donation.ID)
		s.Require().NoError(err)
		s.Equal("Bread", found.Title)
		s.Require().Len(found.Items, 1)
		s.Equal("Loaf", found.Items[0].Name)
	})

	s.Run("returns ErrNotFound for unknown id", func() {
		_, err := s.store.FindByID(s.ctx, id.NewDonationID())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("rejects duplicate id", func() {
		donation := s.newDonation("Dup")
		s.Require().NoError(s.store.Create(s.ctx, donation))
		s.Require().ErrorIs(s.store.Create(s.ctx, donation), sentinel.ErrAlreadyUsed)
	})
}

func (s *DonationStoreSuite) TestExecute() {
	s.Run("persists the mutation when validation passes", func() {
		donation := s.newDonation("Claimable")
		s.Require().NoError(s.store.Create(s.ctx, donation))
		ngoID := id.NewActorID()

		updated, err := s.store.Execute(s.ctx, donation.ID,
			func(d *models.Donation) error { return d.CanClaim() },
			func(d *models.Donation) { d.ApplyClaim(ngoID, time.Now()) },
		)
		s.Require().NoError(err)
		s.Equal(models.StatusClaimed, updated.Status)

		found, err := s.store.FindByID(s.ctx, donation.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusClaimed, found.Status)
	})

	s.Run("leaves state untouched when validation fails", func() {
		donation := s.newDonation("Locked")
		donation.Status = models.StatusCompleted
		s.Require().NoError(s.store.Create(s.ctx, donation))

		_, err := s.store.Execute(s.ctx, donation.ID,
			func(d *models.Donation) error { return d.CanClaim() },
			func(d *models.Donation) { d.ApplyClaim(id.NewActorID(), time.Now()) },
		)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		found, err := s.store.FindByID(s.ctx, donation.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusCompleted, found.Status)
		s.Nil(found.NgoID)
	})

	s.Run("returns ErrNotFound for unknown donation", func() {
		_, err := s.store.Execute(s.ctx, id.NewDonationID(),
			func(*models.Donation) error { return nil },
			func(*models.Donation) {},
		)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *DonationStoreSuite) TestDelete() {
	donation := s.newDonation("Gone")
	s.Require().NoError(s.store.Create(s.ctx, donation))

	s.Require().NoError(s.store.Delete(s.ctx, donation.ID))
	_, err := s.store.FindByID(s.ctx, donation.ID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	s.Require().ErrorIs(s.store.Delete(s.ctx, donation.ID), sentinel.ErrNotFound)
}

func (s *DonationStoreSuite) TestList() {
	donorID := id.NewActorID()

	first := s.newDonation("Fresh vegetables")
	first.DonorID = donorID
	s.Require().NoError(s.store.Create(s.ctx, first))

	second := s.newDonation("Canned soup")
	second.Status = models.StatusClaimed
	ngoID := id.NewActorID()
	second.NgoID = &ngoID
	s.Require().NoError(s.store.Create(s.ctx, second))

	s.Run("filters by status", func() {
		out, err := s.store.List(s.ctx, models.ListFilter{Status: models.StatusClaimed})
		s.Require().NoError(err)
		s.Require().Len(out, 1)
		s.Equal(second.ID, out[0].ID)
	})

	s.Run("filters by donor", func() {
		out, err := s.store.List(s.ctx, models.ListFilter{DonorID: donorID.String()})
		s.Require().NoError(err)
		s.Require().Len(out, 1)
		s.Equal(first.ID, out[0].ID)
	})

	s.Run("filters by ngo", func() {
		out, err := s.store.List(s.ctx, models.ListFilter{NgoID: ngoID.String()})
		s.Require().NoError(err)
		s.Require().Len(out, 1)
		s.Equal(second.ID, out[0].ID)
	})

	s.Run("searches title case-insensitively", func() {
		out, err := s.store.List(s.ctx, models.ListFilter{Search: "VEGETABLES"})
		s.Require().NoError(err)
		s.Require().Len(out, 1)
		s.Equal(first.ID, out[0].ID)
	})
}

func (s *DonationStoreSuite) TestListExpirable() {
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	overdue := s.newDonation("Overdue")
	overdue.ExpiryDate = &past
	s.Require().NoError(s.store.Create(s.ctx, overdue))

	fresh := s.newDonation("Fresh")
	fresh.ExpiryDate = &future
	s.Require().NoError(s.store.Create(s.ctx, fresh))

	done := s.newDonation("Done")
	done.Status = models.StatusCompleted
	done.ExpiryDate = &past
	s.Require().NoError(s.store.Create(s.ctx, done))

	out, err := s.store.ListExpirable(s.ctx, time.Now())
	s.Require().NoError(err)
	s.Require().Len(out, 1)
	s.Equal(overdue.ID, out[0].ID)

	// The expiry bound on List is inclusive and skips donations without a
	// date, regardless of status.
	now := time.Now()
	listed, err := s.store.List(s.ctx, models.ListFilter{ExpiresBefore: &now})
	s.Require().NoError(err)
	s.Require().Len(listed, 2)
}

func (s *DonationStoreSuite) TestLocations() {
	s.Run("deduplicates by address case-insensitively", func() {
		first, err := s.store.FindOrCreateLocation(s.ctx, models.LocationInput{Address: "12 Market St"})
		s.Require().NoError(err)
		second, err := s.store.FindOrCreateLocation(s.ctx, models.LocationInput{Address: "12 market st"})
		s.Require().NoError(err)
		s.Equal(first.ID, second.ID)
	})

	s.Run("finds by id", func() {
		created, err := s.store.FindOrCreateLocation(s.ctx, models.LocationInput{Address: "9 Dock Rd"})
		s.Require().NoError(err)
		found, err := s.store.FindLocation(s.ctx, created.ID)
		s.Require().NoError(err)
		s.Equal("9 Dock Rd", found.Address)
	})

	s.Run("unknown location is ErrNotFound", func() {
		_, err := s.store.FindLocation(s.ctx, id.NewLocationID())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}
