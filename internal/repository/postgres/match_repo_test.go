package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"volunteermatch/internal/domain"
)

var matchCols = []string{"id", "volunteer_id", "event_id", "status", "score", "created_at", "updated_at"}

func TestMatchRepository_CreateConfirmed(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)
	score := 80

	newMatch := func() *domain.Match {
		return &domain.Match{VolunteerID: "vol-1", EventID: "evt-1", Score: &score, CreatedAt: now, UpdatedAt: now}
	}

	tests := []struct {
		name       string
		mock       func(mock sqlmock.Sqlmock)
		wantErr    bool
		errIs      error
		wantReason domain.GateReason
		wantID     string
	}{
		{
			name: "success",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`SELECT EXISTS`).
					WithArgs("vol-1", "evt-1").
					WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
				mock.ExpectQuery(`SELECT status, capacity, current_registrants FROM events`).
					WithArgs("evt-1").
					WillReturnRows(sqlmock.NewRows([]string{"status", "capacity", "current_registrants"}).AddRow("published", int64(5), 4))
				mock.ExpectQuery(`INSERT INTO matches`).
					WithArgs("vol-1", "evt-1", "confirmed", int64(80), now, now).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("match-1"))
				mock.ExpectExec(`UPDATE events SET current_registrants`).
					WithArgs("evt-1", 1).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
			wantID: "match-1",
		},
		{
			name: "already registered",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`SELECT EXISTS`).
					WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
				mock.ExpectRollback()
			},
			wantErr:    true,
			errIs:      domain.ErrAlreadyRegistered,
			wantReason: domain.ReasonAlreadyRegistered,
		},
		{
			name: "event full",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`SELECT EXISTS`).
					WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
				mock.ExpectQuery(`SELECT status, capacity, current_registrants FROM events`).
					WillReturnRows(sqlmock.NewRows([]string{"status", "capacity", "current_registrants"}).AddRow("published", int64(5), 5))
				mock.ExpectRollback()
			},
			wantErr:    true,
			errIs:      domain.ErrEventFull,
			wantReason: domain.ReasonEventFull,
		},
		{
			name: "event not open",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`SELECT EXISTS`).
					WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
				mock.ExpectQuery(`SELECT status, capacity, current_registrants FROM events`).
					WillReturnRows(sqlmock.NewRows([]string{"status", "capacity", "current_registrants"}).AddRow("draft", nil, 0))
				mock.ExpectRollback()
			},
			wantErr:    true,
			errIs:      domain.ErrEventNotOpen,
			wantReason: domain.ReasonEventNotOpen,
		},
		{
			name: "event missing",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`SELECT EXISTS`).
					WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
				mock.ExpectQuery(`SELECT status, capacity, current_registrants FROM events`).
					WillReturnError(sql.ErrNoRows)
				mock.ExpectRollback()
			},
			wantErr: true,
			errIs:   domain.ErrNotFound,
		},
		{
			name: "unique violation on insert maps to already registered",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`SELECT EXISTS`).
					WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
				mock.ExpectQuery(`SELECT status, capacity, current_registrants FROM events`).
					WillReturnRows(sqlmock.NewRows([]string{"status", "capacity", "current_registrants"}).AddRow("published", nil, 3))
				mock.ExpectQuery(`INSERT INTO matches`).
					WillReturnError(&pq.Error{Code: "23505"})
				mock.ExpectRollback()
			},
			wantErr:    true,
			errIs:      domain.ErrAlreadyRegistered,
			wantReason: domain.ReasonAlreadyRegistered,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			repo := NewMatchRepository(db)
			m := newMatch()
			err = repo.CreateConfirmed(ctx, m)
			if tt.wantErr {
				require.Error(t, err)
				if tt.errIs != nil {
					require.ErrorIs(t, err, tt.errIs)
				}
				if tt.wantReason != "" {
					var aerr *domain.AssignmentError
					require.ErrorAs(t, err, &aerr)
					require.Equal(t, tt.wantReason, aerr.Reason)
				}
			} else {
				require.NoError(t, err)
				require.Equal(t, tt.wantID, m.ID)
				require.Equal(t, domain.MatchStatusConfirmed, m.Status)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestMatchRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		from, to domain.MatchStatus
		mock     func(mock sqlmock.Sqlmock)
		wantErr  bool
		errIs    error
	}{
		{
			name: "confirm pending re-checks capacity and increments",
			from: domain.MatchStatusPending,
			to:   domain.MatchStatusConfirmed,
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`SELECT event_id FROM matches`).
					WithArgs("match-1").
					WillReturnRows(sqlmock.NewRows([]string{"event_id"}).AddRow("evt-1"))
				mock.ExpectQuery(`SELECT status, capacity, current_registrants FROM events`).
					WithArgs("evt-1").
					WillReturnRows(sqlmock.NewRows([]string{"status", "capacity", "current_registrants"}).AddRow("published", int64(2), 1))
				mock.ExpectQuery(`UPDATE matches SET status`).
					WithArgs("match-1", "pending", "confirmed").
					WillReturnRows(sqlmock.NewRows(matchCols).AddRow("match-1", "vol-1", "evt-1", "confirmed", nil, now, now))
				mock.ExpectExec(`UPDATE events SET current_registrants`).
					WithArgs("evt-1", 1).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
		},
		{
			name: "decline confirmed decrements",
			from: domain.MatchStatusConfirmed,
			to:   domain.MatchStatusDeclined,
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`SELECT event_id FROM matches`).
					WillReturnRows(sqlmock.NewRows([]string{"event_id"}).AddRow("evt-1"))
				mock.ExpectQuery(`UPDATE matches SET status`).
					WithArgs("match-1", "confirmed", "declined").
					WillReturnRows(sqlmock.NewRows(matchCols).AddRow("match-1", "vol-1", "evt-1", "declined", int64(70), now, now))
				mock.ExpectExec(`UPDATE events SET current_registrants`).
					WithArgs("evt-1", -1).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
		},
		{
			name: "complete leaves registrants alone",
			from: domain.MatchStatusConfirmed,
			to:   domain.MatchStatusCompleted,
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`SELECT event_id FROM matches`).
					WillReturnRows(sqlmock.NewRows([]string{"event_id"}).AddRow("evt-1"))
				mock.ExpectQuery(`UPDATE matches SET status`).
					WillReturnRows(sqlmock.NewRows(matchCols).AddRow("match-1", "vol-1", "evt-1", "completed", nil, now, now))
				mock.ExpectCommit()
			},
		},
		{
			name: "confirm into full event",
			from: domain.MatchStatusPending,
			to:   domain.MatchStatusConfirmed,
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`SELECT event_id FROM matches`).
					WillReturnRows(sqlmock.NewRows([]string{"event_id"}).AddRow("evt-1"))
				mock.ExpectQuery(`SELECT status, capacity, current_registrants FROM events`).
					WillReturnRows(sqlmock.NewRows([]string{"status", "capacity", "current_registrants"}).AddRow("published", int64(2), 2))
				mock.ExpectRollback()
			},
			wantErr: true,
			errIs:   domain.ErrEventFull,
		},
		{
			name: "match not found",
			from: domain.MatchStatusPending,
			to:   domain.MatchStatusDeclined,
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`SELECT event_id FROM matches`).
					WillReturnError(sql.ErrNoRows)
				mock.ExpectRollback()
			},
			wantErr: true,
			errIs:   domain.ErrNotFound,
		},
		{
			name: "status changed concurrently",
			from: domain.MatchStatusPending,
			to:   domain.MatchStatusDeclined,
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`SELECT event_id FROM matches`).
					WillReturnRows(sqlmock.NewRows([]string{"event_id"}).AddRow("evt-1"))
				mock.ExpectQuery(`UPDATE matches SET status`).
					WillReturnError(sql.ErrNoRows)
				mock.ExpectRollback()
			},
			wantErr: true,
			errIs:   domain.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			repo := NewMatchRepository(db)
			m, err := repo.UpdateStatus(ctx, "match-1", tt.from, tt.to)
			if tt.wantErr {
				require.Error(t, err)
				if tt.errIs != nil {
					require.ErrorIs(t, err, tt.errIs)
				}
			} else {
				require.NoError(t, err)
				require.Equal(t, tt.to, m.Status)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestMatchRepository_ListByVolunteerIDs(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)

	t.Run("empty input skips query", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		got, err := NewMatchRepository(db).ListByVolunteerIDs(ctx, nil)
		require.NoError(t, err)
		require.Empty(t, got)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("scans score", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`FROM matches WHERE volunteer_id = ANY`).
			WillReturnRows(sqlmock.NewRows(matchCols).
				AddRow("m-1", "vol-1", "evt-1", "confirmed", int64(75), now, now).
				AddRow("m-2", "vol-2", "evt-1", "pending", nil, now, now))

		got, err := NewMatchRepository(db).ListByVolunteerIDs(ctx, []string{"vol-1", "vol-2"})
		require.NoError(t, err)
		require.Len(t, got, 2)
		require.NotNil(t, got[0].Score)
		require.Equal(t, 75, *got[0].Score)
		require.Nil(t, got[1].Score)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMatchRepository_GetByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM matches WHERE id`).WithArgs("missing").WillReturnError(sql.ErrNoRows)

	_, err = NewMatchRepository(db).GetByID(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
