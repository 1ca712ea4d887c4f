package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"volunteermatch/internal/domain"
	"volunteermatch/internal/matching"
)

type volunteerService struct {
	volunteerRepo  domain.VolunteerRepository
	contextTimeout time.Duration
}

// NewVolunteerService creates a VolunteerService backed by the given repository.
func NewVolunteerService(volunteerRepo domain.VolunteerRepository, timeout time.Duration) domain.VolunteerService {
	return &volunteerService{
		volunteerRepo:  volunteerRepo,
		contextTimeout: timeout,
	}
}

func (s *volunteerService) Create(ctx context.Context, caller domain.Principal, v *domain.Volunteer) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	// Admins may create profiles on behalf of another user.
	if v.UserID == "" || !caller.IsAdmin() {
		v.UserID = caller.UserID
	}
	if err := prepareVolunteer(v); err != nil {
		return err
	}

	now := time.Now()
	v.CreatedAt = now
	v.UpdatedAt = now
	if err := s.volunteerRepo.Create(ctx, v); err != nil {
		return fmt.Errorf("create volunteer: %w", err)
	}
	return nil
}

func (s *volunteerService) GetByID(ctx context.Context, id string) (*domain.Volunteer, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	return s.volunteerRepo.GetByID(ctx, id)
}

func (s *volunteerService) List(ctx context.Context, params domain.PaginationParams) ([]*domain.Volunteer, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	return s.volunteerRepo.List(ctx, params)
}

func (s *volunteerService) Update(ctx context.Context, caller domain.Principal, v *domain.Volunteer) (*domain.Volunteer, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	existing, err := s.volunteerRepo.GetByID(ctx, v.ID)
	if err != nil {
		return nil, err
	}
	if existing.UserID != caller.UserID && !caller.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if err := prepareVolunteer(v); err != nil {
		return nil, err
	}

	v.UserID = existing.UserID
	v.CreatedAt = existing.CreatedAt
	v.UpdatedAt = time.Now()
	if err := s.volunteerRepo.Update(ctx, v); err != nil {
		return nil, fmt.Errorf("update volunteer: %w", err)
	}
	return v, nil
}

// prepareVolunteer normalises free-text fields and validates availability.
func prepareVolunteer(v *domain.Volunteer) error {
	v.Name = strings.TrimSpace(v.Name)
	if v.Name == "" {
		return fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	if v.UserID == "" {
		return fmt.Errorf("%w: user is required", domain.ErrInvalidInput)
	}
	v.Skills = matching.NormalizeSkills(v.Skills)
	v.Location.City = strings.TrimSpace(v.Location.City)
	v.Location.State = strings.TrimSpace(v.Location.State)
	if v.Preferences == nil {
		v.Preferences = []string{}
	}
	if v.Availability == nil {
		v.Availability = []domain.AvailabilitySlot{}
	}
	for i, slot := range v.Availability {
		if err := validateSlot(slot); err != nil {
			return fmt.Errorf("%w: availability[%d]: %v", domain.ErrInvalidInput, i, err)
		}
	}
	return nil
}

func validateSlot(slot domain.AvailabilitySlot) error {
	if !slot.Day.Valid() {
		return fmt.Errorf("unknown day %q", slot.Day)
	}
	start, err := time.Parse("15:04", slot.Start)
	if err != nil {
		return fmt.Errorf("start must be HH:MM")
	}
	end, err := time.Parse("15:04", slot.End)
	if err != nil {
		return fmt.Errorf("end must be HH:MM")
	}
	if !start.Before(end) {
		return fmt.Errorf("start must be before end")
	}
	return nil
}
