package domain

import (
	"errors"
	"time"
)

// Gate failures. An *AssignmentError matches exactly one of these with errors.Is.
var (
	ErrAlreadyRegistered = errors.New("volunteer already registered for event")
	ErrEventFull         = errors.New("event is full")
	ErrEventNotOpen      = errors.New("event is not open for registration")
	ErrTimeConflict      = errors.New("event conflicts with another commitment")
)

// GateReason is the closed set of reasons an assignment is refused.
type GateReason string

const (
	ReasonAlreadyRegistered GateReason = "AlreadyRegistered"
	ReasonEventFull         GateReason = "EventFull"
	ReasonEventNotOpen      GateReason = "EventNotOpen"
	ReasonTimeConflict      GateReason = "TimeConflict"
	// ReasonBelowMinScore is only reported by auto-assign, never by the gate.
	ReasonBelowMinScore GateReason = "BelowMinScore"
)

var reasonErrors = map[GateReason]error{
	ReasonAlreadyRegistered: ErrAlreadyRegistered,
	ReasonEventFull:         ErrEventFull,
	ReasonEventNotOpen:      ErrEventNotOpen,
	ReasonTimeConflict:      ErrTimeConflict,
}

// Conflict identifies a committed event that overlaps the requested one.
// swagger:model Conflict
type Conflict struct {
	EventID string    `json:"event_id"`
	Name    string    `json:"name"`
	StartAt time.Time `json:"start_at"`
	EndAt   time.Time `json:"end_at"`
}

// AssignmentError explains why a volunteer cannot be assigned to an event.
// swagger:model AssignmentError
type AssignmentError struct {
	Reason    GateReason `json:"reason"`
	Conflicts []Conflict `json:"conflicts,omitempty"`
}

// NewAssignmentError returns an AssignmentError for reason.
func NewAssignmentError(reason GateReason, conflicts ...Conflict) *AssignmentError {
	return &AssignmentError{Reason: reason, Conflicts: conflicts}
}

func (e *AssignmentError) Error() string {
	if err, ok := reasonErrors[e.Reason]; ok {
		return err.Error()
	}
	return string(e.Reason)
}

func (e *AssignmentError) Unwrap() error {
	return reasonErrors[e.Reason]
}

// SkippedCandidate is a volunteer auto-assign passed over.
type SkippedCandidate struct {
	VolunteerID string     `json:"volunteer_id"`
	Score       int        `json:"score"`
	Reason      GateReason `json:"reason"`
	Conflicts   []Conflict `json:"conflicts,omitempty"`
}

// AutoAssignResult reports the outcome of an auto-assign run.
// swagger:model AutoAssignResult
type AutoAssignResult struct {
	Assigned []string           `json:"assigned"`
	Skipped  []SkippedCandidate `json:"skipped"`
	Matches  []*Match           `json:"matches,omitempty"`
}
