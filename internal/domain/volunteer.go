package domain

import (
	"context"
	"time"
)

// Weekday is a three-letter day name used in availability slots (Mon..Sun).
type Weekday string

const (
	Monday    Weekday = "Mon"
	Tuesday   Weekday = "Tue"
	Wednesday Weekday = "Wed"
	Thursday  Weekday = "Thu"
	Friday    Weekday = "Fri"
	Saturday  Weekday = "Sat"
	Sunday    Weekday = "Sun"
)

var weekdays = map[time.Weekday]Weekday{
	time.Monday:    Monday,
	time.Tuesday:   Tuesday,
	time.Wednesday: Wednesday,
	time.Thursday:  Thursday,
	time.Friday:    Friday,
	time.Saturday:  Saturday,
	time.Sunday:    Sunday,
}

// WeekdayOf maps a time.Weekday to its availability day name.
func WeekdayOf(d time.Weekday) Weekday {
	return weekdays[d]
}

// Valid reports whether d is one of Mon..Sun.
func (d Weekday) Valid() bool {
	for _, w := range weekdays {
		if w == d {
			return true
		}
	}
	return false
}

// AvailabilitySlot is a weekly recurring window in which a volunteer can help.
// Start and End are "HH:MM" clock times; Start < End is enforced at ingestion.
// swagger:model AvailabilitySlot
type AvailabilitySlot struct {
	Day   Weekday `json:"day" yaml:"day"`
	Start string  `json:"start" yaml:"start"`
	End   string  `json:"end" yaml:"end"`
}

// Location is compared by simple equality; there is no geocoding.
// swagger:model Location
type Location struct {
	City  string `json:"city" yaml:"city"`
	State string `json:"state" yaml:"state"`
}

// Volunteer is a person who can be matched to events.
// swagger:model Volunteer
type Volunteer struct {
	ID           string             `json:"id"`
	UserID       string             `json:"user_id"`
	Name         string             `json:"name"`
	Skills       []string           `json:"skills"`
	Availability []AvailabilitySlot `json:"availability"`
	Location     Location           `json:"location"`
	Preferences  []string           `json:"preferences"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// NewVolunteer returns a new Volunteer. ID is typically set by the repository on create.
func NewVolunteer(userID, name string, skills []string, availability []AvailabilitySlot, location Location, preferences []string, createdAt, updatedAt time.Time) *Volunteer {
	return &Volunteer{
		UserID:       userID,
		Name:         name,
		Skills:       skills,
		Availability: availability,
		Location:     location,
		Preferences:  preferences,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}
}

// VolunteerRepository defines the interface for volunteer storage.
type VolunteerRepository interface {
	Create(ctx context.Context, v *Volunteer) error
	GetByID(ctx context.Context, id string) (*Volunteer, error)
	List(ctx context.Context, params PaginationParams) ([]*Volunteer, int, error)
	ListAll(ctx context.Context) ([]*Volunteer, error)
	Update(ctx context.Context, v *Volunteer) error
}

// VolunteerService defines volunteer profile operations.
type VolunteerService interface {
	Create(ctx context.Context, caller Principal, v *Volunteer) error
	GetByID(ctx context.Context, id string) (*Volunteer, error)
	List(ctx context.Context, params PaginationParams) ([]*Volunteer, int, error)
	Update(ctx context.Context, caller Principal, v *Volunteer) (*Volunteer, error)
}
