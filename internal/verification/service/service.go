// Package service implements the NGO verification ledger: document
// submission, admin review, and the verified flag donation claims depend on.
package service

import (
	"context"
	"errors"
	"log/slog"

	actormodels "dana/internal/actor/models"
	"dana/internal/events"
	"dana/internal/verification/models"
	id "dana/pkg/domain"
	dErrors "dana/pkg/domain-errors"
	"dana/pkg/platform/sentinel"
	"dana/pkg/requestcontext"
)

// Store is the persistence the ledger needs.
type Store interface {
	Save(ctx context.Context, verification *models.NGOVerification) error
	FindByID(ctx context.Context, verificationID id.VerificationID) (*models.NGOVerification, error)
	FindByActor(ctx context.Context, actorID id.ActorID) (*models.NGOVerification, error)
	List(ctx context.Context, filter models.ListFilter) ([]*models.NGOVerification, error)
}

// ActorFlags is the slice of the actor store the ledger writes: the
// verified flag is owned here, nowhere else.
type ActorFlags interface {
	SetVerified(ctx context.Context, actorID id.ActorID, verified bool) error
}

// Service orchestrates submissions and reviews.
type Service struct {
	verifications Store
	actors        ActorFlags
	cache         Cache
	publisher     events.Publisher
	logger        *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithPublisher(publisher events.Publisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

func WithCache(cache Cache) Option {
	return func(s *Service) { s.cache = cache }
}

func New(verifications Store, actors ActorFlags, opts ...Option) *Service {
	s := &Service{
		verifications: verifications,
		actors:        actors,
		cache:         NopCache{},
		publisher:     events.NopPublisher{},
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit records an NGO's verification document. A repeat submission resets
// the existing record to pending and clears the actor's verified flag, so a
// previously approved NGO re-enters review with the new document.
func (s *Service) Submit(ctx context.Context, actor *actormodels.Actor, documentRef string) (*models.NGOVerification, error) {
	if actor.Role != actormodels.RoleNGO {
		return nil, dErrors.New(dErrors.CodeValidation, "only NGOs can submit verification documents")
	}

	now := requestcontext.Now(ctx)
	verification, err := s.verifications.FindByActor(ctx, actor.ID)
	switch {
	case err == nil:
		if err := verification.Resubmit(documentRef, now); err != nil {
			return nil, err
		}
	case errors.Is(err, sentinel.ErrNotFound):
		verification, err = models.New(id.NewVerificationID(), actor.ID, documentRef, now)
		if err != nil {
			return nil, err
		}
	default:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verification")
	}

	if err := s.verifications.Save(ctx, verification); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save verification")
	}
	if actor.Verified {
		if err := s.actors.SetVerified(ctx, actor.ID, false); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to reset verified flag")
		}
	}
	s.cache.Invalidate(ctx, actor.ID)

	s.emit(ctx, events.VerificationSubmitted, verification)
	s.logger.InfoContext(ctx, "verification submitted",
		"verification_id", verification.ID.String(),
		"actor_id", actor.ID.String(),
	)
	return verification, nil
}

// Review applies an admin decision and propagates it to the actor's
// verified flag.
func (s *Service) Review(ctx context.Context, admin *actormodels.Actor, verificationID id.VerificationID, req models.ReviewRequest) (*models.NGOVerification, error) {
	if admin.Role != actormodels.RoleAdmin {
		return nil, dErrors.New(dErrors.CodeForbidden, "only admins can review verifications")
	}

	verification, err := s.verifications.FindByID(ctx, verificationID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "verification not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verification")
	}

	now := requestcontext.Now(ctx)
	if err := verification.Review(req.Approve, now); err != nil {
		return nil, err
	}
	if err := s.verifications.Save(ctx, verification); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save review")
	}
	if err := s.actors.SetVerified(ctx, verification.ActorID, req.Approve); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update verified flag")
	}
	s.cache.Invalidate(ctx, verification.ActorID)

	eventType := events.NGORejected
	if req.Approve {
		eventType = events.NGOVerified
	}
	s.emit(ctx, eventType, verification)
	s.logger.InfoContext(ctx, "verification reviewed",
		"verification_id", verification.ID.String(),
		"actor_id", verification.ActorID.String(),
		"approved", req.Approve,
	)
	return verification, nil
}

// GetForActor returns an actor's own submission.
func (s *Service) GetForActor(ctx context.Context, actorID id.ActorID) (*models.NGOVerification, error) {
	verification, err := s.verifications.FindByActor(ctx, actorID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no verification submitted")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verification")
	}
	return verification, nil
}

// List returns submissions for admin review, newest first.
func (s *Service) List(ctx context.Context, admin *actormodels.Actor, filter models.ListFilter) ([]*models.NGOVerification, error) {
	if admin.Role != actormodels.RoleAdmin {
		return nil, dErrors.New(dErrors.CodeForbidden, "only admins can list verifications")
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown status %q", filter.Status)
	}
	verifications, err := s.verifications.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list verifications")
	}
	return verifications, nil
}

// IsVerified reports whether the actor currently holds a verified
// submission. The answer is cached; submits and reviews invalidate it.
func (s *Service) IsVerified(ctx context.Context, actorID id.ActorID) (bool, error) {
	if verified, ok := s.cache.Get(ctx, actorID); ok {
		return verified, nil
	}
	verification, err := s.verifications.FindByActor(ctx, actorID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.cache.Set(ctx, actorID, false)
			return false, nil
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check verification")
	}
	verified := verification.Status == models.StatusVerified
	s.cache.Set(ctx, actorID, verified)
	return verified, nil
}

func (s *Service) emit(ctx context.Context, eventType events.Type, verification *models.NGOVerification) {
	event := events.New(eventType, requestcontext.Now(ctx))
	event.ActorID = verification.ActorID.String()
	event.VerificationID = verification.ID.String()
	event.RequestID = requestcontext.RequestID(ctx)
	if err := s.publisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit event",
			"event_type", string(eventType),
			"error", err,
		)
	}
}
