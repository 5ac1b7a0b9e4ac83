// Package domain defines typed identifiers shared across modules.
//
// Each entity gets its own UUID-backed type so an ActorID can never be
// passed where a DonationID is expected. Parsing enforces the trust
// boundary rule that IDs must be valid, non-nil UUIDs.
package domain

import (
	"github.com/google/uuid"

	dErrors "dana/pkg/domain-errors"
)

type (
	ActorID        uuid.UUID
	DonationID     uuid.UUID
	LocationID     uuid.UUID
	FoodItemID     uuid.UUID
	VerificationID uuid.UUID
)

func (id ActorID) String() string        { return uuid.UUID(id).String() }
func (id DonationID) String() string     { return uuid.UUID(id).String() }
func (id LocationID) String() string     { return uuid.UUID(id).String() }
func (id FoodItemID) String() string     { return uuid.UUID(id).String() }
func (id VerificationID) String() string { return uuid.UUID(id).String() }

func (id ActorID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id DonationID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id LocationID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id FoodItemID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id VerificationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// NewActorID allocates a fresh actor id.
func NewActorID() ActorID { return ActorID(uuid.New()) }

// NewDonationID allocates a fresh donation id.
func NewDonationID() DonationID { return DonationID(uuid.New()) }

// NewLocationID allocates a fresh pickup location id.
func NewLocationID() LocationID { return LocationID(uuid.New()) }

// NewFoodItemID allocates a fresh food item id.
func NewFoodItemID() FoodItemID { return FoodItemID(uuid.New()) }

// NewVerificationID allocates a fresh verification id.
func NewVerificationID() VerificationID { return VerificationID(uuid.New()) }

func parse(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, "id is required")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, "id must be a valid UUID")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, "id must not be the nil UUID")
	}
	return parsed, nil
}

// ParseActorID parses and validates an actor id from its string form.
func ParseActorID(raw string) (ActorID, error) {
	parsed, err := parse(raw)
	if err != nil {
		return ActorID{}, err
	}
	return ActorID(parsed), nil
}

// ParseDonationID parses and validates a donation id from its string form.
func ParseDonationID(raw string) (DonationID, error) {
	parsed, err := parse(raw)
	if err != nil {
		return DonationID{}, err
	}
	return DonationID(parsed), nil
}

// ParseVerificationID parses and validates a verification id from its string form.
func ParseVerificationID(raw string) (VerificationID, error) {
	parsed, err := parse(raw)
	if err != nil {
		return VerificationID{}, err
	}
	return VerificationID(parsed), nil
}
