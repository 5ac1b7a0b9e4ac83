// Package service implements the actor directory: it resolves an
// authenticated external identity to a local actor record with a role and
// verification status.
package service

import (
	"context"
	"errors"
	"log/slog"

	"dana/internal/actor/models"
	"dana/internal/identity"
	id "dana/pkg/domain"
	dErrors "dana/pkg/domain-errors"
	"dana/pkg/platform/sentinel"
	"dana/pkg/requestcontext"
)

// Store is the persistence the directory needs.
type Store interface {
	Create(ctx context.Context, actor *models.Actor) error
	Update(ctx context.Context, actor *models.Actor) error
	FindByID(ctx context.Context, actorID id.ActorID) (*models.Actor, error)
	FindByExternalID(ctx context.Context, externalID string) (*models.Actor, error)
	List(ctx context.Context, filter models.ListFilter) ([]*models.Actor, error)
}

// Service orchestrates actor resolution and profile sync.
type Service struct {
	actors Store
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func New(actors Store, opts ...Option) *Service {
	s := &Service{actors: actors, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureForIdentity resolves a verified identity to the local actor,
// creating the record on first authentication with the default donor role.
func (s *Service) EnsureForIdentity(ctx context.Context, ident identity.Identity) (*models.Actor, error) {
	actor, err := s.actors.FindByExternalID(ctx, ident.ExternalID)
	if err == nil {
		return actor, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve actor")
	}

	created, err := models.New(id.NewActorID(), ident.ExternalID, ident.Email, models.RoleDonor, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.actors.Create(ctx, created); err != nil {
		// A concurrent first request may have created it already.
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return s.findAfterRace(ctx, ident.ExternalID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create actor")
	}
	s.logger.InfoContext(ctx, "actor created",
		"actor_id", created.ID.String(),
		"role", string(created.Role),
	)
	return created, nil
}

func (s *Service) findAfterRace(ctx context.Context, externalID string) (*models.Actor, error) {
	actor, err := s.actors.FindByExternalID(ctx, externalID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve actor after create race")
	}
	return actor, nil
}

// Sync applies the client-asserted role and profile fields to the actor.
// The role claim overwrites whatever is stored. Elevations to ngo or admin
// are logged because the claim is not proven server-side.
func (s *Service) Sync(ctx context.Context, ident identity.Identity, req models.SyncRequest) (*models.Actor, error) {
	if req.Role != "" && !req.Role.Valid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown role %q", req.Role)
	}

	actor, err := s.EnsureForIdentity(ctx, ident)
	if err != nil {
		return nil, err
	}

	if req.Role != "" && req.Role != actor.Role {
		if req.Role == models.RoleNGO || req.Role == models.RoleAdmin {
			s.logger.WarnContext(ctx, "client-asserted role elevation",
				"actor_id", actor.ID.String(),
				"from", string(actor.Role),
				"to", string(req.Role),
			)
		}
		actor.Role = req.Role
	}
	if req.PhoneNumber != "" {
		actor.PhoneNumber = req.PhoneNumber
	}
	if req.Address != "" {
		actor.Address = req.Address
	}
	actor.Email = ident.Email
	actor.UpdatedAt = requestcontext.Now(ctx)

	if err := s.actors.Update(ctx, actor); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sync actor")
	}
	return actor, nil
}

// Get returns one actor by id.
func (s *Service) Get(ctx context.Context, actorID id.ActorID) (*models.Actor, error) {
	actor, err := s.actors.FindByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "actor not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load actor")
	}
	return actor, nil
}

// List returns actors matching the filter, newest first.
func (s *Service) List(ctx context.Context, filter models.ListFilter) ([]*models.Actor, error) {
	if filter.Role != "" && !filter.Role.Valid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown role %q", filter.Role)
	}
	actors, err := s.actors.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list actors")
	}
	return actors, nil
}
