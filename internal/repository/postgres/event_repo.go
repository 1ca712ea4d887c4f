package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"volunteermatch/internal/domain"
)

const eventColumns = `id, name, required_skills, urgency, capacity, current_registrants, start_at, end_at, city, state, status, created_at, updated_at, timezone`

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	e := &domain.Event{}
	var capacity sql.NullInt64
	err := row.Scan(
		&e.ID, &e.Name, pq.Array(&e.RequiredSkills), &e.Urgency, &capacity, &e.CurrentRegistrants,
		&e.StartAt, &e.EndAt, &e.Location.City, &e.Location.State, &e.Status, &e.CreatedAt, &e.UpdatedAt, &e.Timezone,
	)
	if err != nil {
		return nil, err
	}
	if capacity.Valid {
		c := int(capacity.Int64)
		e.Capacity = &c
	}
	if e.RequiredSkills == nil {
		e.RequiredSkills = []string{}
	}
	return e, nil
}

func nullCapacity(c *int) sql.NullInt64 {
	if c == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*c), Valid: true}
}

// mapConstraintError turns check violations (e.g. capacity below registrants) into ErrInvalidInput.
func mapConstraintError(err error) error {
	var perr *pq.Error
	if errors.As(err, &perr) && perr.Code == "23514" {
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, perr.Message)
	}
	return err
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (name, required_skills, urgency, capacity, current_registrants, start_at, end_at, city, state, status, created_at, updated_at, timezone)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query,
		e.Name, pq.Array(e.RequiredSkills), e.Urgency, nullCapacity(e.Capacity), e.CurrentRegistrants,
		e.StartAt, e.EndAt, e.Location.City, e.Location.State, e.Status, e.CreatedAt, e.UpdatedAt, e.Timezone,
	).Scan(&e.ID)
	return mapConstraintError(err)
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) ListByIDs(ctx context.Context, ids []string) ([]*domain.Event, error) {
	if len(ids) == 0 {
		return []*domain.Event{}, nil
	}
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = ANY($1) ORDER BY start_at, id`
	return r.query(ctx, query, pq.Array(ids))
}

func (r *eventRepository) List(ctx context.Context, filter domain.EventFilter, params domain.PaginationParams) ([]*domain.Event, int, error) {
	var total int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM events WHERE ($1 = '' OR status = $1)`, string(filter.Status)).
		Scan(&total)
	if err != nil {
		return nil, 0, err
	}
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE ($1 = '' OR status = $1)
		ORDER BY start_at, id
		LIMIT $2 OFFSET $3
	`
	events, err := r.query(ctx, query, string(filter.Status), params.PageSize, params.Offset())
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

func (r *eventRepository) ListPublished(ctx context.Context) ([]*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE status = 'published' AND end_at > NOW()
		ORDER BY start_at, id
	`
	return r.query(ctx, query)
}

func (r *eventRepository) query(ctx context.Context, query string, args ...any) ([]*domain.Event, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// Update writes the editable fields. Status and current_registrants are managed elsewhere.
func (r *eventRepository) Update(ctx context.Context, e *domain.Event) error {
	query := `
		UPDATE events
		SET name = $2, required_skills = $3, urgency = $4, capacity = $5, start_at = $6, end_at = $7,
		    city = $8, state = $9, updated_at = $10, timezone = $11
		WHERE id = $1
		RETURNING current_registrants, status, created_at
	`
	err := r.DB.QueryRowContext(ctx, query,
		e.ID, e.Name, pq.Array(e.RequiredSkills), e.Urgency, nullCapacity(e.Capacity), e.StartAt, e.EndAt,
		e.Location.City, e.Location.State, e.UpdatedAt, e.Timezone,
	).Scan(&e.CurrentRegistrants, &e.Status, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return mapConstraintError(err)
	}
	return nil
}

func (r *eventRepository) SetStatus(ctx context.Context, id string, status domain.EventStatus) (*domain.Event, error) {
	query := `
		UPDATE events SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + eventColumns
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id, status))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}
