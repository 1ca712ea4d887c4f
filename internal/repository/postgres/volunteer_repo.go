package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"volunteermatch/internal/domain"
)

const volunteerColumns = `id, user_id, name, skills, availability, city, state, preferences, created_at, updated_at`

type volunteerRepository struct {
	DB *sql.DB
}

func NewVolunteerRepository(db *sql.DB) domain.VolunteerRepository {
	return &volunteerRepository{
		DB: db,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVolunteer(row rowScanner) (*domain.Volunteer, error) {
	v := &domain.Volunteer{}
	var availability []byte
	err := row.Scan(
		&v.ID, &v.UserID, &v.Name, pq.Array(&v.Skills), &availability,
		&v.Location.City, &v.Location.State, pq.Array(&v.Preferences), &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(availability) > 0 {
		if err := json.Unmarshal(availability, &v.Availability); err != nil {
			return nil, fmt.Errorf("decode availability: %w", err)
		}
	}
	if v.Skills == nil {
		v.Skills = []string{}
	}
	if v.Availability == nil {
		v.Availability = []domain.AvailabilitySlot{}
	}
	if v.Preferences == nil {
		v.Preferences = []string{}
	}
	return v, nil
}

func encodeAvailability(slots []domain.AvailabilitySlot) ([]byte, error) {
	if slots == nil {
		slots = []domain.AvailabilitySlot{}
	}
	return json.Marshal(slots)
}

func (r *volunteerRepository) Create(ctx context.Context, v *domain.Volunteer) error {
	availability, err := encodeAvailability(v.Availability)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO volunteers (user_id, name, skills, availability, city, state, preferences, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	err = r.DB.QueryRowContext(ctx, query,
		v.UserID, v.Name, pq.Array(v.Skills), availability, v.Location.City, v.Location.State,
		pq.Array(v.Preferences), v.CreatedAt, v.UpdatedAt,
	).Scan(&v.ID)
	if err != nil {
		var perr *pq.Error
		if errors.As(err, &perr) && perr.Code == "23505" {
			return fmt.Errorf("%w: user already has a volunteer profile", domain.ErrInvalidInput)
		}
		return err
	}
	return nil
}

func (r *volunteerRepository) GetByID(ctx context.Context, id string) (*domain.Volunteer, error) {
	query := `SELECT ` + volunteerColumns + ` FROM volunteers WHERE id = $1`
	v, err := scanVolunteer(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return v, nil
}

func (r *volunteerRepository) List(ctx context.Context, params domain.PaginationParams) ([]*domain.Volunteer, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM volunteers`).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := `SELECT ` + volunteerColumns + ` FROM volunteers ORDER BY name, id LIMIT $1 OFFSET $2`
	vs, err := r.query(ctx, query, params.PageSize, params.Offset())
	if err != nil {
		return nil, 0, err
	}
	return vs, total, nil
}

func (r *volunteerRepository) ListAll(ctx context.Context) ([]*domain.Volunteer, error) {
	return r.query(ctx, `SELECT `+volunteerColumns+` FROM volunteers ORDER BY id`)
}

func (r *volunteerRepository) query(ctx context.Context, query string, args ...any) ([]*domain.Volunteer, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	vs := make([]*domain.Volunteer, 0)
	for rows.Next() {
		v, err := scanVolunteer(rows)
		if err != nil {
			return nil, err
		}
		vs = append(vs, v)
	}
	return vs, rows.Err()
}

func (r *volunteerRepository) Update(ctx context.Context, v *domain.Volunteer) error {
	availability, err := encodeAvailability(v.Availability)
	if err != nil {
		return err
	}
	query := `
		UPDATE volunteers
		SET name = $2, skills = $3, availability = $4, city = $5, state = $6, preferences = $7, updated_at = $8
		WHERE id = $1
		RETURNING user_id, created_at
	`
	err = r.DB.QueryRowContext(ctx, query,
		v.ID, v.Name, pq.Array(v.Skills), availability, v.Location.City, v.Location.State,
		pq.Array(v.Preferences), v.UpdatedAt,
	).Scan(&v.UserID, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}
	return nil
}
