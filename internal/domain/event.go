package domain

import (
	"context"
	"sync"
	"time"
)

// Urgency ranks how badly an event needs volunteers, ordered by severity.
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// Valid reports whether u is a known urgency.
func (u Urgency) Valid() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyCritical:
		return true
	}
	return false
}

// EventStatus is the publication state of an event. Only published events are matchable.
type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusPublished EventStatus = "published"
	EventStatusCancelled EventStatus = "cancelled"
)

// Valid reports whether s is a known event status.
func (s EventStatus) Valid() bool {
	switch s {
	case EventStatusDraft, EventStatusPublished, EventStatusCancelled:
		return true
	}
	return false
}

// Event is something volunteers can be matched to.
// Capacity nil means unlimited. Timezone is the IANA zone the event takes place in.
// StartAt and EndAt are instants; the zone decides which local weekday they fall on.
// swagger:model Event
type Event struct {
	ID                 string      `json:"id"`
	Name               string      `json:"name"`
	RequiredSkills     []string    `json:"required_skills"`
	Urgency            Urgency     `json:"urgency"`
	Capacity           *int        `json:"capacity"`
	CurrentRegistrants int         `json:"current_registrants"`
	StartAt            time.Time   `json:"start_at"`
	EndAt              time.Time   `json:"end_at"`
	Timezone           string      `json:"timezone"`
	Location           Location    `json:"location"`
	Status             EventStatus `json:"status"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

// NewEvent returns a new draft Event. ID is typically set by the repository on create.
func NewEvent(name string, requiredSkills []string, urgency Urgency, capacity *int, startAt, endAt time.Time, location Location, createdAt, updatedAt time.Time) *Event {
	return &Event{
		Name:           name,
		RequiredSkills: requiredSkills,
		Urgency:        urgency,
		Capacity:       capacity,
		StartAt:        startAt,
		EndAt:          endAt,
		Timezone:       "UTC",
		Location:       location,
		Status:         EventStatusDraft,
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
	}
}

// IsFull reports whether the event has no remaining capacity.
func (e *Event) IsFull() bool {
	return e.Capacity != nil && e.CurrentRegistrants >= *e.Capacity
}

// zones caches loaded locations by IANA name.
var zones sync.Map

// LocalStart returns StartAt in the event's time zone. Unknown zones read as UTC.
func (e *Event) LocalStart() time.Time {
	if loc, ok := zones.Load(e.Timezone); ok {
		return e.StartAt.In(loc.(*time.Location))
	}
	loc, err := time.LoadLocation(e.Timezone)
	if err != nil {
		loc = time.UTC
	}
	zones.Store(e.Timezone, loc)
	return e.StartAt.In(loc)
}

// Overlaps reports whether the half-open windows [e.StartAt, e.EndAt) and
// [o.StartAt, o.EndAt) intersect. Touching boundaries do not overlap.
func (e *Event) Overlaps(o *Event) bool {
	return e.StartAt.Before(o.EndAt) && e.EndAt.After(o.StartAt)
}

// EventFilter narrows event list queries.
type EventFilter struct {
	Status EventStatus
}

// EventRepository defines the interface for event storage.
type EventRepository interface {
	Create(ctx context.Context, e *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	ListByIDs(ctx context.Context, ids []string) ([]*Event, error)
	List(ctx context.Context, filter EventFilter, params PaginationParams) ([]*Event, int, error)
	ListPublished(ctx context.Context) ([]*Event, error)
	Update(ctx context.Context, e *Event) error
	SetStatus(ctx context.Context, id string, status EventStatus) (*Event, error)
}

// EventService defines event administration operations.
type EventService interface {
	Create(ctx context.Context, e *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	List(ctx context.Context, filter EventFilter, params PaginationParams) ([]*Event, int, error)
	Update(ctx context.Context, e *Event) (*Event, error)
	SetStatus(ctx context.Context, id string, status EventStatus) (*Event, error)
}
