// Package models defines the NGO verification ledger entry.
package models

import (
	"strings"
	"time"

	id "dana/pkg/domain"
	dErrors "dana/pkg/domain-errors"
)

// Status is the review state of a verification submission.
type Status string

const (
	StatusPending  Status = "pending"
	StatusVerified Status = "verified"
	StatusRejected Status = "rejected"
)

// Valid reports whether s is one of the three review states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusVerified, StatusRejected:
		return true
	}
	return false
}

// NGOVerification is an NGO's document submission awaiting or past admin
// review. Each actor holds at most one; a re-upload resets the existing
// record to pending rather than creating a second row.
type NGOVerification struct {
	ID          id.VerificationID `json:"id"`
	ActorID     id.ActorID        `json:"actor_id"`
	DocumentRef string            `json:"document_ref"`
	Status      Status            `json:"status"`
	SubmittedAt time.Time         `json:"submitted_at"`
	ReviewedAt  *time.Time        `json:"reviewed_at,omitempty"`
}

// New constructs a pending verification, validating invariants.
func New(verificationID id.VerificationID, actorID id.ActorID, documentRef string, now time.Time) (*NGOVerification, error) {
	documentRef = strings.TrimSpace(documentRef)
	if documentRef == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "document reference cannot be empty")
	}
	if actorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "actor id is required")
	}
	return &NGOVerification{
		ID:          verificationID,
		ActorID:     actorID,
		DocumentRef: documentRef,
		Status:      StatusPending,
		SubmittedAt: now,
	}, nil
}

// Resubmit resets the record to pending with the new document. The review
// timestamp is cleared because the previous decision no longer applies.
func (v *NGOVerification) Resubmit(documentRef string, now time.Time) error {
	documentRef = strings.TrimSpace(documentRef)
	if documentRef == "" {
		return dErrors.New(dErrors.CodeValidation, "document reference cannot be empty")
	}
	v.DocumentRef = documentRef
	v.Status = StatusPending
	v.SubmittedAt = now
	v.ReviewedAt = nil
	return nil
}

// Review records an admin decision. Only pending submissions can be
// reviewed.
func (v *NGOVerification) Review(approved bool, now time.Time) error {
	if v.Status != StatusPending {
		return dErrors.Newf(dErrors.CodeValidation, "verification is already %s", v.Status)
	}
	if approved {
		v.Status = StatusVerified
	} else {
		v.Status = StatusRejected
	}
	v.ReviewedAt = &now
	return nil
}

// ReviewRequest is the admin decision payload.
type ReviewRequest struct {
	Approve bool `json:"approve"`
}

// ListFilter narrows verification listings. ActorID is a validated actor id
// in string form.
type ListFilter struct {
	Status  Status
	ActorID string
}
