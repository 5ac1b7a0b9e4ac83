// Package service implements the donation lifecycle: creation, the
// transition machine, listing, and expiry.
//
// All lifecycle writes flow through the store's Execute callback, which
// loads the donation under a per-row lock, revalidates the transition
// against current state, and persists the mutation atomically. Two NGOs
// racing to claim the same donation therefore serialize at the store; the
// loser revalidates against the winner's claimed state and receives a
// conflict.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	actormodels "dana/internal/actor/models"
	"dana/internal/donation/metrics"
	"dana/internal/donation/models"
	"dana/internal/events"
	id "dana/pkg/domain"
	dErrors "dana/pkg/domain-errors"
	"dana/pkg/platform/sentinel"
	"dana/pkg/requestcontext"
)

// Store is the persistence the lifecycle needs.
type Store interface {
	Create(ctx context.Context, donation *models.Donation) error
	FindByID(ctx context.Context, donationID id.DonationID) (*models.Donation, error)
	Execute(ctx context.Context, donationID id.DonationID, validate func(*models.Donation) error, mutate func(*models.Donation)) (*models.Donation, error)
	Delete(ctx context.Context, donationID id.DonationID) error
	List(ctx context.Context, filter models.ListFilter) ([]*models.Donation, error)
	ListExpirable(ctx context.Context, now time.Time) ([]*models.Donation, error)
	FindOrCreateLocation(ctx context.Context, input models.LocationInput) (*models.PickupLocation, error)
	FindLocation(ctx context.Context, locationID id.LocationID) (*models.PickupLocation, error)
}

// ActorDirectory resolves actor ids, used to validate recipients on
// completion.
type ActorDirectory interface {
	Get(ctx context.Context, actorID id.ActorID) (*actormodels.Actor, error)
}

// VerificationChecker reports whether an NGO has passed document review.
type VerificationChecker interface {
	IsVerified(ctx context.Context, actorID id.ActorID) (bool, error)
}

// Service orchestrates the donation lifecycle.
type Service struct {
	donations     Store
	actors        ActorDirectory
	verifications VerificationChecker
	publisher     events.Publisher
	metrics       *metrics.Metrics
	logger        *slog.Logger
	tracer        trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithPublisher(publisher events.Publisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(donations Store, actors ActorDirectory, verifications VerificationChecker, opts ...Option) *Service {
	s := &Service{
		donations:     donations,
		actors:        actors,
		verifications: verifications,
		publisher:     events.NopPublisher{},
		metrics:       metrics.NewNop(),
		logger:        slog.Default(),
		tracer:        otel.Tracer("dana/donation"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create registers a new donation owned by the acting actor. A pickup
// location, when supplied, is deduplicated by address.
func (s *Service) Create(ctx context.Context, actor *actormodels.Actor, req models.CreateDonationRequest) (*models.Donation, error) {
	ctx, span := s.tracer.Start(ctx, "donation.create")
	defer span.End()

	now := requestcontext.Now(ctx)
	donation, err := models.New(id.NewDonationID(), actor.ID, req.Title, req.PickupTime, now)
	if err != nil {
		return nil, err
	}
	donation.Description = req.Description
	donation.FoodType = req.FoodType
	donation.ExpiryDate = req.ExpiryDate
	if req.ImageURLs != nil {
		donation.ImageURLs = req.ImageURLs
	}

	location, err := s.resolveLocation(ctx, &req)
	if err != nil {
		return nil, err
	}
	if location != nil {
		donation.LocationID = &location.ID
		donation.Location = location
	}

	for _, item := range req.Items {
		if item.Name == "" {
			return nil, dErrors.New(dErrors.CodeValidation, "food item name cannot be empty")
		}
		donation.Items = append(donation.Items, models.FoodItem{
			ID:                   id.NewFoodItemID(),
			DonationID:           donation.ID,
			Name:                 item.Name,
			Quantity:             item.Quantity,
			EstimatedExpiryHours: item.EstimatedExpiryHours,
		})
	}

	if err := s.donations.Create(ctx, donation); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create donation")
	}

	span.SetAttributes(attribute.String("donation.id", donation.ID.String()))
	s.metrics.Created.Inc()
	s.emit(ctx, events.DonationCreated, donation, actor.ID, "")
	s.logger.InfoContext(ctx, "donation created",
		"donation_id", donation.ID.String(),
		"donor_id", actor.ID.String(),
	)
	return donation, nil
}

func (s *Service) resolveLocation(ctx context.Context, req *models.CreateDonationRequest) (*models.PickupLocation, error) {
	input, err := req.ResolveLocation()
	if err != nil {
		return nil, err
	}
	if input == nil {
		return nil, nil
	}
	location, err := s.donations.FindOrCreateLocation(ctx, *input)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve pickup location")
	}
	return location, nil
}

// Get returns one donation with its pickup location attached.
func (s *Service) Get(ctx context.Context, donationID id.DonationID) (*models.Donation, error) {
	donation, err := s.donations.FindByID(ctx, donationID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "donation not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load donation")
	}
	s.attachLocation(ctx, donation)
	return donation, nil
}

// List returns donations matching the filter.
func (s *Service) List(ctx context.Context, filter models.ListFilter) ([]*models.Donation, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown status %q", filter.Status)
	}
	donations, err := s.donations.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list donations")
	}
	for _, donation := range donations {
		s.attachLocation(ctx, donation)
	}
	return donations, nil
}

// Update dispatches a PATCH payload: a status field requests a lifecycle
// transition, anything else is a donor field edit. The two are mutually
// exclusive in one request, except recipient_id which rides along with the
// completed transition.
func (s *Service) Update(ctx context.Context, actor *actormodels.Actor, donationID id.DonationID, req models.UpdateRequest) (*models.Donation, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.Status == nil {
		return s.edit(ctx, actor, donationID, req)
	}
	if req.HasFieldEdits() {
		return nil, dErrors.New(dErrors.CodeValidation, "cannot combine a status change with field edits")
	}

	switch *req.Status {
	case models.StatusClaimed:
		return s.claim(ctx, actor, donationID)
	case models.StatusPickedUp:
		return s.markPickedUp(ctx, actor, donationID)
	case models.StatusCompleted:
		return s.complete(ctx, actor, donationID, req.RecipientID)
	case models.StatusCancelled:
		return s.cancel(ctx, actor, donationID)
	default:
		return nil, dErrors.Newf(dErrors.CodeValidation, "status %s cannot be requested", *req.Status)
	}
}

func (s *Service) claim(ctx context.Context, actor *actormodels.Actor, donationID id.DonationID) (*models.Donation, error) {
	ctx, span := s.tracer.Start(ctx, "donation.claim")
	defer span.End()

	if actor.Role != actormodels.RoleNGO {
		return nil, s.reject(models.StatusClaimed,
			dErrors.New(dErrors.CodeValidation, "only NGOs can claim donations"))
	}
	verified, err := s.verifications.IsVerified(ctx, actor.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check NGO verification")
	}
	if !verified {
		return nil, s.reject(models.StatusClaimed,
			dErrors.New(dErrors.CodeValidation, "NGO must be verified before claiming donations"))
	}

	now := requestcontext.Now(ctx)
	donation, err := s.transition(ctx, donationID, models.StatusClaimed,
		func(d *models.Donation) error { return d.CanClaim() },
		func(d *models.Donation) { d.ApplyClaim(actor.ID, now) },
	)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, events.DonationClaimed, donation, actor.ID, "")
	return donation, nil
}

func (s *Service) markPickedUp(ctx context.Context, actor *actormodels.Actor, donationID id.DonationID) (*models.Donation, error) {
	ctx, span := s.tracer.Start(ctx, "donation.pickup")
	defer span.End()

	now := requestcontext.Now(ctx)
	donation, err := s.transition(ctx, donationID, models.StatusPickedUp,
		func(d *models.Donation) error { return d.CanMarkPickedUp(actor.ID) },
		func(d *models.Donation) { d.ApplyPickedUp(now) },
	)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, events.DonationPickedUp, donation, actor.ID, "")
	return donation, nil
}

func (s *Service) complete(ctx context.Context, actor *actormodels.Actor, donationID id.DonationID, rawRecipientID *string) (*models.Donation, error) {
	ctx, span := s.tracer.Start(ctx, "donation.complete")
	defer span.End()

	if rawRecipientID == nil {
		return nil, s.reject(models.StatusCompleted,
			dErrors.New(dErrors.CodeValidation, "recipient_id is required to complete a donation"))
	}
	recipientID, err := id.ParseActorID(*rawRecipientID)
	if err != nil {
		return nil, s.reject(models.StatusCompleted, err)
	}
	recipient, err := s.actors.Get(ctx, recipientID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, s.reject(models.StatusCompleted,
				dErrors.New(dErrors.CodeValidation, "recipient does not exist"))
		}
		return nil, err
	}
	if recipient.Role != actormodels.RoleRecipient {
		return nil, s.reject(models.StatusCompleted,
			dErrors.Newf(dErrors.CodeValidation, "recipient_id must reference a recipient, got role %s", recipient.Role))
	}

	now := requestcontext.Now(ctx)
	donation, err := s.transition(ctx, donationID, models.StatusCompleted,
		func(d *models.Donation) error { return d.CanComplete(actor.ID) },
		func(d *models.Donation) { d.ApplyComplete(recipientID, now) },
	)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, events.DonationCompleted, donation, actor.ID, "")
	return donation, nil
}

func (s *Service) cancel(ctx context.Context, actor *actormodels.Actor, donationID id.DonationID) (*models.Donation, error) {
	ctx, span := s.tracer.Start(ctx, "donation.cancel")
	defer span.End()

	now := requestcontext.Now(ctx)
	donation, err := s.transition(ctx, donationID, models.StatusCancelled,
		func(d *models.Donation) error { return d.CanCancel(actor.ID) },
		func(d *models.Donation) { d.ApplyCancel(now) },
	)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, events.DonationCancelled, donation, actor.ID, "")
	return donation, nil
}

func (s *Service) edit(ctx context.Context, actor *actormodels.Actor, donationID id.DonationID, req models.UpdateRequest) (*models.Donation, error) {
	if req.RecipientID != nil {
		return nil, dErrors.New(dErrors.CodeValidation, "recipient_id can only be set when completing a donation")
	}
	now := requestcontext.Now(ctx)
	donation, err := s.donations.Execute(ctx, donationID,
		func(d *models.Donation) error { return d.CanEdit(actor.ID) },
		func(d *models.Donation) {
			if req.Title != nil {
				d.Title = *req.Title
			}
			if req.Description != nil {
				d.Description = *req.Description
			}
			if req.FoodType != nil {
				d.FoodType = *req.FoodType
			}
			if req.PickupTime != nil {
				d.PickupTime = *req.PickupTime
			}
			if req.ExpiryDate != nil {
				d.ExpiryDate = req.ExpiryDate
			}
			if req.ImageURLs != nil {
				d.ImageURLs = req.ImageURLs
			}
			d.UpdatedAt = now
		},
	)
	if err != nil {
		return nil, s.translateStoreErr(err)
	}
	s.attachLocation(ctx, donation)
	return donation, nil
}

// Delete removes a donation. Only the owning donor may delete, and only
// while the donation is still available.
func (s *Service) Delete(ctx context.Context, actor *actormodels.Actor, donationID id.DonationID) error {
	donation, err := s.donations.FindByID(ctx, donationID)
	if err != nil {
		return s.translateStoreErr(err)
	}
	if donation.DonorID != actor.ID {
		return dErrors.New(dErrors.CodeValidation, "only the donor can delete the donation")
	}
	if donation.Status != models.StatusAvailable {
		return dErrors.Newf(dErrors.CodeValidation, "cannot delete a %s donation", donation.Status)
	}
	if err := s.donations.Delete(ctx, donationID); err != nil {
		return s.translateStoreErr(err)
	}
	s.logger.InfoContext(ctx, "donation deleted",
		"donation_id", donationID.String(),
		"donor_id", actor.ID.String(),
	)
	return nil
}

// transition runs one lifecycle write through Execute and records the
// outcome in metrics.
func (s *Service) transition(ctx context.Context, donationID id.DonationID, to models.Status, validate func(*models.Donation) error, mutate func(*models.Donation)) (*models.Donation, error) {
	donation, err := s.donations.Execute(ctx, donationID, validate, mutate)
	if err != nil {
		translated := s.translateStoreErr(err)
		s.metrics.Rejections.WithLabelValues(string(to), string(dErrors.CodeOf(translated))).Inc()
		return nil, translated
	}
	s.metrics.Transitions.WithLabelValues(string(to)).Inc()
	s.logger.InfoContext(ctx, "donation transitioned",
		"donation_id", donation.ID.String(),
		"to", string(to),
	)
	s.attachLocation(ctx, donation)
	return donation, nil
}

func (s *Service) reject(to models.Status, err error) error {
	s.metrics.Rejections.WithLabelValues(string(to), string(dErrors.CodeOf(err))).Inc()
	return err
}

func (s *Service) translateStoreErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "donation not found")
	}
	var coded *dErrors.Error
	if errors.As(err, &coded) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "donation store failure")
}

func (s *Service) attachLocation(ctx context.Context, donation *models.Donation) {
	if donation.LocationID == nil {
		return
	}
	location, err := s.donations.FindLocation(ctx, *donation.LocationID)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to load pickup location",
			"donation_id", donation.ID.String(),
			"error", err,
		)
		return
	}
	donation.Location = location
}

func (s *Service) emit(ctx context.Context, eventType events.Type, donation *models.Donation, actorID id.ActorID, detail string) {
	event := events.New(eventType, requestcontext.Now(ctx))
	event.ActorID = actorID.String()
	event.DonationID = donation.ID.String()
	event.RequestID = requestcontext.RequestID(ctx)
	event.Detail = detail
	if err := s.publisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit event",
			"event_type", string(eventType),
			"error", err,
		)
	}
}
