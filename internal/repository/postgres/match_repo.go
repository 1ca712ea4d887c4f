package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"volunteermatch/internal/domain"
)

const matchColumns = `id, volunteer_id, event_id, status, score, created_at, updated_at`

type matchRepository struct {
	DB *sql.DB
}

func NewMatchRepository(db *sql.DB) domain.MatchRepository {
	return &matchRepository{
		DB: db,
	}
}

func scanMatch(row rowScanner) (*domain.Match, error) {
	m := &domain.Match{}
	var score sql.NullInt64
	if err := row.Scan(&m.ID, &m.VolunteerID, &m.EventID, &m.Status, &score, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	if score.Valid {
		s := int(score.Int64)
		m.Score = &s
	}
	return m, nil
}

func nullScore(s *int) sql.NullInt64 {
	if s == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*s), Valid: true}
}

// lockEventForRegistration locks the event row and re-checks that it can take one more
// confirmed volunteer.
func lockEventForRegistration(ctx context.Context, tx *sql.Tx, eventID string) error {
	var status domain.EventStatus
	var capacity sql.NullInt64
	var current int
	err := tx.QueryRowContext(ctx,
		`SELECT status, capacity, current_registrants FROM events WHERE id = $1 FOR UPDATE`, eventID,
	).Scan(&status, &capacity, &current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("lock event: %w", err)
	}
	if capacity.Valid && int64(current) >= capacity.Int64 {
		return domain.NewAssignmentError(domain.ReasonEventFull)
	}
	if status != domain.EventStatusPublished {
		return domain.NewAssignmentError(domain.ReasonEventNotOpen)
	}
	return nil
}

func adjustRegistrants(ctx context.Context, tx *sql.Tx, eventID string, delta int) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE events SET current_registrants = GREATEST(current_registrants + $2, 0) WHERE id = $1`,
		eventID, delta,
	)
	if err != nil {
		return fmt.Errorf("adjust registrants: %w", mapConstraintError(err))
	}
	return nil
}

func (r *matchRepository) CreateConfirmed(ctx context.Context, m *domain.Match) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM matches WHERE volunteer_id = $1 AND event_id = $2 AND status <> 'declined')`,
		m.VolunteerID, m.EventID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check existing match: %w", err)
	}
	if exists {
		return domain.NewAssignmentError(domain.ReasonAlreadyRegistered)
	}

	if err := lockEventForRegistration(ctx, tx, m.EventID); err != nil {
		return err
	}

	m.Status = domain.MatchStatusConfirmed
	err = tx.QueryRowContext(ctx, `
		INSERT INTO matches (volunteer_id, event_id, status, score, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, m.VolunteerID, m.EventID, m.Status, nullScore(m.Score), m.CreatedAt, m.UpdatedAt).Scan(&m.ID)
	if err != nil {
		var perr *pq.Error
		if errors.As(err, &perr) && perr.Code == "23505" {
			return domain.NewAssignmentError(domain.ReasonAlreadyRegistered)
		}
		return fmt.Errorf("insert match: %w", err)
	}

	if err := adjustRegistrants(ctx, tx, m.EventID, 1); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *matchRepository) GetByID(ctx context.Context, id string) (*domain.Match, error) {
	m, err := scanMatch(r.DB.QueryRowContext(ctx, `SELECT `+matchColumns+` FROM matches WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return m, nil
}

func (r *matchRepository) ListByVolunteerID(ctx context.Context, volunteerID string) ([]*domain.Match, error) {
	return r.query(ctx, `SELECT `+matchColumns+` FROM matches WHERE volunteer_id = $1 ORDER BY created_at, id`, volunteerID)
}

func (r *matchRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.Match, error) {
	return r.query(ctx, `SELECT `+matchColumns+` FROM matches WHERE event_id = $1 ORDER BY created_at, id`, eventID)
}

func (r *matchRepository) ListByVolunteerIDs(ctx context.Context, volunteerIDs []string) ([]*domain.Match, error) {
	if len(volunteerIDs) == 0 {
		return []*domain.Match{}, nil
	}
	return r.query(ctx, `SELECT `+matchColumns+` FROM matches WHERE volunteer_id = ANY($1) ORDER BY created_at, id`, pq.Array(volunteerIDs))
}

func (r *matchRepository) query(ctx context.Context, query string, args ...any) ([]*domain.Match, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]*domain.Match, 0)
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// registrantDelta is the change to an event's registrant count for a status transition.
func registrantDelta(from, to domain.MatchStatus) int {
	switch {
	case to == domain.MatchStatusConfirmed && from != domain.MatchStatusConfirmed:
		return 1
	case from == domain.MatchStatusConfirmed && to == domain.MatchStatusDeclined:
		return -1
	}
	return 0
}

func (r *matchRepository) UpdateStatus(ctx context.Context, id string, from, to domain.MatchStatus) (*domain.Match, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var eventID string
	if err := tx.QueryRowContext(ctx, `SELECT event_id FROM matches WHERE id = $1`, id).Scan(&eventID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get match: %w", err)
	}

	delta := registrantDelta(from, to)
	if delta > 0 {
		if err := lockEventForRegistration(ctx, tx, eventID); err != nil {
			return nil, err
		}
	}

	m, err := scanMatch(tx.QueryRowContext(ctx, `
		UPDATE matches SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING `+matchColumns, id, from, to))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: match is no longer %s", domain.ErrInvalidInput, from)
		}
		var perr *pq.Error
		if errors.As(err, &perr) && perr.Code == "23505" {
			return nil, domain.NewAssignmentError(domain.ReasonAlreadyRegistered)
		}
		return nil, fmt.Errorf("update match: %w", err)
	}

	if delta != 0 {
		if err := adjustRegistrants(ctx, tx, eventID, delta); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return m, nil
}
