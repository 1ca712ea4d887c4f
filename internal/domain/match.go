package domain

import (
	"context"
	"time"
)

// MatchStatus is the lifecycle state of a volunteer/event match.
type MatchStatus string

const (
	MatchStatusPending   MatchStatus = "pending"
	MatchStatusConfirmed MatchStatus = "confirmed"
	MatchStatusDeclined  MatchStatus = "declined"
	MatchStatusCompleted MatchStatus = "completed"
)

// Valid reports whether s is a known match status.
func (s MatchStatus) Valid() bool {
	switch s {
	case MatchStatusPending, MatchStatusConfirmed, MatchStatusDeclined, MatchStatusCompleted:
		return true
	}
	return false
}

// matchTransitions lists the status changes a match may go through.
var matchTransitions = map[MatchStatus][]MatchStatus{
	MatchStatusPending:   {MatchStatusConfirmed, MatchStatusDeclined},
	MatchStatusConfirmed: {MatchStatusDeclined, MatchStatusCompleted},
}

// CanTransition reports whether a match may move from s to next.
func (s MatchStatus) CanTransition(next MatchStatus) bool {
	for _, allowed := range matchTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Match links one volunteer to one event.
// At most one non-declined match exists per (VolunteerID, EventID).
// Score is nil when the match was not created through scoring.
// swagger:model Match
type Match struct {
	ID          string      `json:"id"`
	VolunteerID string      `json:"volunteer_id"`
	EventID     string      `json:"event_id"`
	Status      MatchStatus `json:"status"`
	Score       *int        `json:"score"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// NewMatch creates a new Match. ID is typically set by the repository on create.
func NewMatch(volunteerID, eventID string, status MatchStatus, score *int, createdAt, updatedAt time.Time) *Match {
	return &Match{
		VolunteerID: volunteerID,
		EventID:     eventID,
		Status:      status,
		Score:       score,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}
}

// Active reports whether the match still holds the volunteer's place.
func (m *Match) Active() bool {
	return m.Status != MatchStatusDeclined
}

// MatchRepository defines storage operations for matches.
type MatchRepository interface {
	// CreateConfirmed inserts a confirmed match and increments the event's registrant count
	// in one transaction, re-checking status, capacity and uniqueness under a row lock.
	CreateConfirmed(ctx context.Context, m *Match) error
	GetByID(ctx context.Context, id string) (*Match, error)
	ListByVolunteerID(ctx context.Context, volunteerID string) ([]*Match, error)
	ListByEventID(ctx context.Context, eventID string) ([]*Match, error)
	ListByVolunteerIDs(ctx context.Context, volunteerIDs []string) ([]*Match, error)
	// UpdateStatus changes a match's status, adjusting the event's registrant count when a
	// match enters or leaves the confirmed state.
	UpdateStatus(ctx context.Context, id string, from, to MatchStatus) (*Match, error)
}

// AutoMatchOptions bounds an auto-assign run.
type AutoMatchOptions struct {
	MinScore   int
	MaxMatches int
	DryRun     bool
}

// Eligibility is the result of previewing an assignment without persisting it.
// swagger:model Eligibility
type Eligibility struct {
	VolunteerID string           `json:"volunteer_id"`
	EventID     string           `json:"event_id"`
	Score       MatchScore       `json:"score"`
	Allowed     bool             `json:"allowed"`
	Failure     *AssignmentError `json:"failure,omitempty"`
}

// Commitment is an active match together with its event.
type Commitment struct {
	Match *Match `json:"match"`
	Event *Event `json:"event"`
}

// MatchService defines ranking, gating and registration operations.
type MatchService interface {
	RankVolunteersForEvent(ctx context.Context, eventID string, params PaginationParams) ([]RankedVolunteer, int, error)
	RankEventsForVolunteer(ctx context.Context, volunteerID string, params PaginationParams) ([]RankedEvent, int, error)
	ListEventMatches(ctx context.Context, eventID string) ([]*Match, error)
	PreviewAssignment(ctx context.Context, volunteerID, eventID string) (*Eligibility, error)
	RequestMatch(ctx context.Context, caller Principal, volunteerID, eventID string) (*Match, error)
	UpdateMatchStatus(ctx context.Context, caller Principal, matchID string, status MatchStatus) (*Match, error)
	AutoMatch(ctx context.Context, eventID string, opts AutoMatchOptions) (*AutoAssignResult, error)
	// ListCommitments returns the volunteer's active matches with their events, ordered by start time.
	ListCommitments(ctx context.Context, caller Principal, volunteerID string) ([]Commitment, error)
}
