package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dana/internal/donation/models"
	"dana/internal/donation/service"
	"dana/internal/donation/store"
	"dana/internal/events"
	id "dana/pkg/domain"
)

func TestSweep(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T, donations *store.InMemory, status models.Status, expiry time.Time) *models.Donation {
		t.Helper()
		donation, err := models.New(id.NewDonationID(), id.NewActorID(), "Perishables", time.Now().Add(time.Hour), time.Now())
		require.NoError(t, err)
		donation.Status = status
		donation.ExpiryDate = &expiry
		require.NoError(t, donations.Create(ctx, donation))
		return donation
	}

	t.Run("expires past-expiry donations", func(t *testing.T) {
		donations := store.NewInMemory()
		publisher := &recordingPublisher{}
		sweeper := service.NewSweeper(donations, time.Minute,
			service.SweeperWithPublisher(publisher))

		overdue := seed(t, donations, models.StatusAvailable, time.Now().Add(-time.Hour))
		fresh := seed(t, donations, models.StatusAvailable, time.Now().Add(time.Hour))

		require.NoError(t, sweeper.Sweep(ctx))

		got, err := donations.FindByID(ctx, overdue.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusExpired, got.Status)

		got, err = donations.FindByID(ctx, fresh.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusAvailable, got.Status)

		assert.Equal(t, []events.Type{events.DonationExpired}, publisher.types())
	})

	t.Run("expires claimed donations too", func(t *testing.T) {
		donations := store.NewInMemory()
		sweeper := service.NewSweeper(donations, time.Minute)

		claimed := seed(t, donations, models.StatusClaimed, time.Now().Add(-time.Minute))
		require.NoError(t, sweeper.Sweep(ctx))

		got, err := donations.FindByID(ctx, claimed.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusExpired, got.Status)
	})

	t.Run("never touches terminal donations", func(t *testing.T) {
		donations := store.NewInMemory()
		sweeper := service.NewSweeper(donations, time.Minute)

		completed := seed(t, donations, models.StatusCompleted, time.Now().Add(-time.Hour))
		cancelled := seed(t, donations, models.StatusCancelled, time.Now().Add(-time.Hour))

		require.NoError(t, sweeper.Sweep(ctx))

		got, err := donations.FindByID(ctx, completed.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCompleted, got.Status)

		got, err = donations.FindByID(ctx, cancelled.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCancelled, got.Status)
	})

	t.Run("donations without expiry never expire", func(t *testing.T) {
		donations := store.NewInMemory()
		sweeper := service.NewSweeper(donations, time.Minute)

		donation, err := models.New(id.NewDonationID(), id.NewActorID(), "Canned goods", time.Now().Add(time.Hour), time.Now())
		require.NoError(t, err)
		require.NoError(t, donations.Create(ctx, donation))

		require.NoError(t, sweeper.Sweep(ctx))

		got, err := donations.FindByID(ctx, donation.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusAvailable, got.Status)
	})
}
