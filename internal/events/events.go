// Package events carries typed domain events out of the lifecycle core.
//
// Services emit events instead of relying on persistence hooks, so logging,
// telemetry, and notification consumers subscribe to typed facts rather
// than reacting to database writes.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Type names a domain fact.
type Type string

const (
	DonationCreated       Type = "donation.created"
	DonationClaimed       Type = "donation.claimed"
	DonationPickedUp      Type = "donation.picked_up"
	DonationCompleted     Type = "donation.completed"
	DonationCancelled     Type = "donation.cancelled"
	DonationExpired       Type = "donation.expired"
	VerificationSubmitted Type = "verification.submitted"
	NGOVerified           Type = "verification.verified"
	NGORejected           Type = "verification.rejected"
)

// Event is a single domain fact. Entity ids travel as strings to keep the
// payload transport-agnostic.
type Event struct {
	ID             string    `json:"id"`
	Type           Type      `json:"type"`
	OccurredAt     time.Time `json:"occurred_at"`
	ActorID        string    `json:"actor_id,omitempty"`
	DonationID     string    `json:"donation_id,omitempty"`
	VerificationID string    `json:"verification_id,omitempty"`
	RequestID      string    `json:"request_id,omitempty"`
	Detail         string    `json:"detail,omitempty"`
}

// New stamps a fresh event of the given type.
func New(eventType Type, occurredAt time.Time) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: occurredAt,
	}
}

// Publisher accepts domain events from services.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// Sink consumes delivered events.
type Sink interface {
	Handle(ctx context.Context, event Event) error
}

// NopPublisher drops events. Used when a service is wired without an event
// pipeline, e.g. in narrow unit tests.
type NopPublisher struct{}

func (NopPublisher) Emit(context.Context, Event) error { return nil }
