package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"volunteermatch/internal/domain"
	"volunteermatch/internal/matching"
)

type eventService struct {
	eventRepo      domain.EventRepository
	contextTimeout time.Duration
}

// NewEventService creates an EventService backed by the given repository.
func NewEventService(eventRepo domain.EventRepository, timeout time.Duration) domain.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		contextTimeout: timeout,
	}
}

func (s *eventService) Create(ctx context.Context, e *domain.Event) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := prepareEvent(e); err != nil {
		return err
	}
	now := time.Now()
	e.Status = domain.EventStatusDraft
	e.CurrentRegistrants = 0
	e.CreatedAt = now
	e.UpdatedAt = now
	if err := s.eventRepo.Create(ctx, e); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

func (s *eventService) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	return s.eventRepo.GetByID(ctx, id)
}

func (s *eventService) List(ctx context.Context, filter domain.EventFilter, params domain.PaginationParams) ([]*domain.Event, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, filter.Status)
	}
	return s.eventRepo.List(ctx, filter, params)
}

func (s *eventService) Update(ctx context.Context, e *domain.Event) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	existing, err := s.eventRepo.GetByID(ctx, e.ID)
	if err != nil {
		return nil, err
	}
	if err := prepareEvent(e); err != nil {
		return nil, err
	}
	if e.Capacity != nil && *e.Capacity < existing.CurrentRegistrants {
		return nil, fmt.Errorf("%w: capacity %d is below the %d confirmed registrants",
			domain.ErrInvalidInput, *e.Capacity, existing.CurrentRegistrants)
	}

	e.UpdatedAt = time.Now()
	if err := s.eventRepo.Update(ctx, e); err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	return e, nil
}

func (s *eventService) SetStatus(ctx context.Context, id string, status domain.EventStatus) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, status)
	}
	existing, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status == domain.EventStatusCancelled && status != domain.EventStatusCancelled {
		return nil, fmt.Errorf("%w: cancelled events cannot be reopened", domain.ErrInvalidInput)
	}
	return s.eventRepo.SetStatus(ctx, id, status)
}

func prepareEvent(e *domain.Event) error {
	e.Name = strings.TrimSpace(e.Name)
	if e.Name == "" {
		return fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	if !e.Urgency.Valid() {
		return fmt.Errorf("%w: unknown urgency %q", domain.ErrInvalidInput, e.Urgency)
	}
	if !e.StartAt.Before(e.EndAt) {
		return fmt.Errorf("%w: start must be before end", domain.ErrInvalidInput)
	}
	if e.Capacity != nil && *e.Capacity <= 0 {
		return fmt.Errorf("%w: capacity must be positive", domain.ErrInvalidInput)
	}
	e.Timezone = strings.TrimSpace(e.Timezone)
	if e.Timezone == "" {
		e.Timezone = "UTC"
	}
	if _, err := time.LoadLocation(e.Timezone); err != nil {
		return fmt.Errorf("%w: unknown time zone %q", domain.ErrInvalidInput, e.Timezone)
	}
	e.RequiredSkills = matching.NormalizeSkills(e.RequiredSkills)
	e.Location.City = strings.TrimSpace(e.Location.City)
	e.Location.State = strings.TrimSpace(e.Location.State)
	return nil
}
