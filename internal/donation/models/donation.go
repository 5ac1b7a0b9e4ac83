package models

import (
	"strings"
	"time"

	id "dana/pkg/domain"
	dErrors "dana/pkg/domain-errors"
)

// FoodItem is owned exclusively by one donation and is deleted with it.
type FoodItem struct {
	ID                   id.FoodItemID `json:"id"`
	DonationID           id.DonationID `json:"donation_id"`
	Name                 string        `json:"name"`
	Quantity             string        `json:"quantity"` // free-text magnitude plus unit, "5 kg", "2 boxes"
	EstimatedExpiryHours *int          `json:"estimated_expiry_hours,omitempty"`
}

// Donation is a single surplus-food offer and its lifecycle record.
//
// Invariants:
//   - DonorID is always set, references a donor, and is immutable
//   - NgoID is nil until claimed; once set it never changes
//   - RecipientID is nil until completed; once set it never changes
//   - Status moves only along the machine in status.go
//   - completed ⇒ NgoID != nil ∧ RecipientID != nil
//   - claimed ⇒ NgoID != nil
type Donation struct {
	ID          id.DonationID  `json:"id"`
	DonorID     id.ActorID     `json:"donor_id"`
	NgoID       *id.ActorID    `json:"ngo_id,omitempty"`
	RecipientID *id.ActorID    `json:"recipient_id,omitempty"`
	FoodType    string         `json:"food_type,omitempty"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	ExpiryDate  *time.Time     `json:"expiry_date,omitempty"`
	LocationID  *id.LocationID `json:"location_id,omitempty"`
	PickupTime  time.Time      `json:"pickup_time"`
	Status      Status         `json:"status"`
	// Location is denormalized onto responses; it is never persisted on
	// the donation row itself.
	Location *PickupLocation `json:"location,omitempty"`
	ImageURLs   []string       `json:"images"`
	Items       []FoodItem     `json:"items"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// New constructs an available donation, validating invariants.
func New(donationID id.DonationID, donorID id.ActorID, title string, pickupTime time.Time, now time.Time) (*Donation, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "title cannot be empty")
	}
	if len(title) > 255 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "title must be 255 characters or less")
	}
	if pickupTime.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "pickup time is required")
	}
	if donorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "donor id is required")
	}
	return &Donation{
		ID:         donationID,
		DonorID:    donorID,
		Title:      title,
		PickupTime: pickupTime,
		Status:     StatusAvailable,
		ImageURLs:  []string{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// CanClaim checks whether the donation can move to claimed. A donation that
// is already claimed yields a conflict so the caller can tell "lost the
// race" apart from a malformed request; every other state is a plain
// validation failure.
func (d *Donation) CanClaim() error {
	switch d.Status {
	case StatusAvailable:
		return nil
	case StatusClaimed:
		return dErrors.New(dErrors.CodeConflict, "donation has already been claimed")
	default:
		return dErrors.Newf(dErrors.CodeValidation, "cannot claim a %s donation", d.Status)
	}
}

// ApplyClaim transitions to claimed and binds the NGO. Call CanClaim first.
func (d *Donation) ApplyClaim(ngoID id.ActorID, now time.Time) {
	d.Status = StatusClaimed
	d.NgoID = &ngoID
	d.UpdatedAt = now
}

// CanMarkPickedUp checks the optional physical-handoff step. Only the NGO
// that claimed the donation may record it.
func (d *Donation) CanMarkPickedUp(actorID id.ActorID) error {
	if d.Status != StatusClaimed {
		return dErrors.Newf(dErrors.CodeValidation, "cannot mark a %s donation picked up", d.Status)
	}
	if d.NgoID == nil || *d.NgoID != actorID {
		return dErrors.New(dErrors.CodeValidation, "only the claiming NGO can mark pickup")
	}
	return nil
}

// ApplyPickedUp transitions to picked_up. Call CanMarkPickedUp first.
func (d *Donation) ApplyPickedUp(now time.Time) {
	d.Status = StatusPickedUp
	d.UpdatedAt = now
}

// CanComplete checks the delivery handoff. Legal from claimed or picked_up,
// only by the claiming NGO.
func (d *Donation) CanComplete(actorID id.ActorID) error {
	if d.Status != StatusClaimed && d.Status != StatusPickedUp {
		return dErrors.Newf(dErrors.CodeValidation, "cannot complete a %s donation", d.Status)
	}
	if d.NgoID == nil || *d.NgoID != actorID {
		return dErrors.New(dErrors.CodeValidation, "only the claiming NGO can complete the donation")
	}
	return nil
}

// ApplyComplete transitions to completed and binds the recipient. Call
// CanComplete first.
func (d *Donation) ApplyComplete(recipientID id.ActorID, now time.Time) {
	d.Status = StatusCompleted
	d.RecipientID = &recipientID
	d.UpdatedAt = now
}

// CanCancel checks a donor withdrawal. Only the owning donor, only while
// available.
func (d *Donation) CanCancel(actorID id.ActorID) error {
	if d.DonorID != actorID {
		return dErrors.New(dErrors.CodeValidation, "only the donor can cancel the donation")
	}
	if d.Status != StatusAvailable {
		return dErrors.Newf(dErrors.CodeValidation, "cannot cancel a %s donation", d.Status)
	}
	return nil
}

// ApplyCancel transitions to cancelled. Call CanCancel first.
func (d *Donation) ApplyCancel(now time.Time) {
	d.Status = StatusCancelled
	d.UpdatedAt = now
}

// CanExpire checks the system sweep transition. Legal from any non-terminal
// state.
func (d *Donation) CanExpire() error {
	if d.Status.Terminal() {
		return dErrors.Newf(dErrors.CodeValidation, "cannot expire a %s donation", d.Status)
	}
	return nil
}

// ApplyExpire transitions to expired. Call CanExpire first.
func (d *Donation) ApplyExpire(now time.Time) {
	d.Status = StatusExpired
	d.UpdatedAt = now
}

// CanEdit checks a plain field edit: owning donor only, only while the
// donation is still available.
func (d *Donation) CanEdit(actorID id.ActorID) error {
	if d.DonorID != actorID {
		return dErrors.New(dErrors.CodeValidation, "only the donor can edit the donation")
	}
	if d.Status != StatusAvailable {
		return dErrors.Newf(dErrors.CodeValidation, "cannot edit a %s donation", d.Status)
	}
	return nil
}
