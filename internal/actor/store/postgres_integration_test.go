//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"dana/internal/actor/models"
	"dana/internal/actor/store"
	id "dana/pkg/domain"
	"dana/pkg/platform/sentinel"
	"dana/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "actors"))
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	actor, err := models.New(id.NewActorID(), "uid-1", "donor@example.com", models.RoleDonor, time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(ctx, actor))

	found, err := s.store.FindByID(ctx, actor.ID)
	s.Require().NoError(err)
	s.Equal(actor.ExternalID, found.ExternalID)
	s.Equal(actor.Email, found.Email)
}

func (s *PostgresStoreSuite) TestCreateConflictOnExternalID() {
	ctx := context.Background()
	winner, err := models.New(id.NewActorID(), "uid-1", "first@example.com", models.RoleDonor, time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(ctx, winner))

	// The loser of a first-auth race must learn its row was not inserted,
	// so the service re-resolves by external id instead of handing back an
	// actor the database never saw.
	loser, err := models.New(id.NewActorID(), "uid-1", "second@example.com", models.RoleDonor, time.Now())
	s.Require().NoError(err)
	s.Require().ErrorIs(s.store.Create(ctx, loser), sentinel.ErrAlreadyUsed)

	found, err := s.store.FindByExternalID(ctx, "uid-1")
	s.Require().NoError(err)
	s.Equal(winner.ID, found.ID)
}

func (s *PostgresStoreSuite) TestUnknownExternalIDIsNotFound() {
	_, err := s.store.FindByExternalID(context.Background(), "uid-missing")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}
