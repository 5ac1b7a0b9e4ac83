package models

import (
	"time"

	dErrors "dana/pkg/domain-errors"
)

// FoodItemInput is one line item on a create request.
type FoodItemInput struct {
	Name                 string `json:"name"`
	Quantity             string `json:"quantity"`
	EstimatedExpiryHours *int   `json:"estimated_expiry_hours,omitempty"`
}

// NestedLocation is the object form of the pickup location on a create
// request.
type NestedLocation struct {
	Address   string   `json:"address"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// CreateDonationRequest is the POST /api/donations payload. The pickup
// location may arrive nested under "location" or flattened as dotted keys;
// ResolveLocation collapses both forms, preferring the nested object when
// both are present.
type CreateDonationRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	FoodType    string          `json:"food_type,omitempty"`
	PickupTime  time.Time       `json:"pickup_time"`
	ExpiryDate  *time.Time      `json:"expiry_date,omitempty"`
	ImageURLs   []string        `json:"images,omitempty"`
	Items       []FoodItemInput `json:"items,omitempty"`

	Location *NestedLocation `json:"location,omitempty"`

	FlatAddress   string   `json:"location.address,omitempty"`
	FlatLatitude  *float64 `json:"location.latitude,omitempty"`
	FlatLongitude *float64 `json:"location.longitude,omitempty"`
}

// ResolveLocation normalizes the two accepted location shapes into one
// LocationInput. Returns nil when the request carries no location at all.
func (r *CreateDonationRequest) ResolveLocation() (*LocationInput, error) {
	if r.Location != nil {
		return FromNested(r.Location.Address, r.Location.Latitude, r.Location.Longitude)
	}
	return FromFlattened(r.FlatAddress, r.FlatLatitude, r.FlatLongitude)
}

// UpdateRequest is the PATCH /api/donations/{id} payload. Pointer fields
// distinguish "absent" from "set to zero value". A non-nil Status requests a
// lifecycle transition; other fields are plain edits and only the owning
// donor may send them while the donation is available.
type UpdateRequest struct {
	Status      *Status    `json:"status,omitempty"`
	RecipientID *string    `json:"recipient_id,omitempty"`
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	FoodType    *string    `json:"food_type,omitempty"`
	PickupTime  *time.Time `json:"pickup_time,omitempty"`
	ExpiryDate  *time.Time `json:"expiry_date,omitempty"`
	ImageURLs   []string   `json:"images,omitempty"`
}

// HasFieldEdits reports whether the request touches anything besides the
// status transition.
func (r *UpdateRequest) HasFieldEdits() bool {
	return r.Title != nil || r.Description != nil || r.FoodType != nil ||
		r.PickupTime != nil || r.ExpiryDate != nil || r.ImageURLs != nil
}

// Validate rejects payloads no handler should forward.
func (r *UpdateRequest) Validate() error {
	if r.Status != nil && !r.Status.Valid() {
		return dErrors.Newf(dErrors.CodeValidation, "unknown status %q", *r.Status)
	}
	if r.Title != nil && *r.Title == "" {
		return dErrors.New(dErrors.CodeValidation, "title cannot be empty")
	}
	return nil
}

// ListFilter narrows GET /api/donations. ExpiresBefore is an inclusive
// upper bound on expiry_date; donations without one never match it.
type ListFilter struct {
	Status        Status
	DonorID       string
	NgoID         string
	RecipientID   string
	ExpiresBefore *time.Time
	Search        string
	Ordering      string
}
