package models

// Status is the donation lifecycle state.
//
// The machine is total: available → claimed → [picked_up] → completed,
// available → cancelled, and any non-terminal state → expired. picked_up is
// an optional handoff step between claimed and completed; complete is legal
// from either.
type Status string

const (
	StatusAvailable Status = "available"
	StatusClaimed   Status = "claimed"
	StatusPickedUp  Status = "picked_up"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

// Valid reports whether s is one of the six lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusClaimed, StatusPickedUp, StatusCompleted, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

// Terminal reports whether no further transition can leave s.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusExpired:
		return true
	}
	return false
}
