package models

import (
	"strings"
	"time"

	id "dana/pkg/domain"
	dErrors "dana/pkg/domain-errors"
)

// Role classifies what an actor may do in the donation lifecycle.
type Role string

const (
	RoleDonor     Role = "donor"
	RoleNGO       Role = "ngo"
	RoleRecipient Role = "recipient"
	RoleAdmin     Role = "admin"
)

// Valid reports whether the role is one of the four known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleDonor, RoleNGO, RoleRecipient, RoleAdmin:
		return true
	}
	return false
}

// Actor is any authenticated party. It is created on first successful
// authentication and mutated only via explicit sync or verification review,
// never implicitly.
//
// Invariants:
//   - ExternalID is non-empty and immutable after creation
//   - Role is one of donor/ngo/recipient/admin
//   - Verified is set only by the verification ledger's admin review
//
// Role is overwritten from the client-supplied claim on every sync. That is
// a trust gap carried from the upstream system on purpose: a client can
// self-assign ngo or admin. Syncs that elevate the role are logged so the
// gap stays visible in operations.
type Actor struct {
	ID          id.ActorID `json:"id"`
	ExternalID  string     `json:"external_id"`
	Email       string     `json:"email"`
	Role        Role       `json:"role"`
	Verified    bool       `json:"verified"`
	PhoneNumber string     `json:"phone_number,omitempty"`
	Address     string     `json:"address,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// New constructs an Actor, validating invariants.
func New(actorID id.ActorID, externalID, email string, role Role, now time.Time) (*Actor, error) {
	externalID = strings.TrimSpace(externalID)
	email = strings.TrimSpace(email)
	if externalID == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "external id cannot be empty")
	}
	if email == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "email cannot be empty")
	}
	if !role.Valid() {
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "unknown role %q", role)
	}
	return &Actor{
		ID:         actorID,
		ExternalID: externalID,
		Email:      email,
		Role:       role,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// SyncRequest carries the client-asserted role and profile fields applied at
// sync time.
type SyncRequest struct {
	Role        Role   `json:"role"`
	PhoneNumber string `json:"phone_number"`
	Address     string `json:"address"`
}

// ListFilter narrows actor listings.
type ListFilter struct {
	Role     Role
	Verified *bool
	// Search matches email, phone number, or address (case-insensitive
	// substring).
	Search string
	// Ordering accepts "email", "created_at", or their "-" prefixed
	// descending forms. Anything else falls back to newest first.
	Ordering string
}
