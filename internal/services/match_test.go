package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"volunteermatch/internal/domain"
)

type matchFixture struct {
	volunteers *fakeVolunteerRepo
	events     *fakeEventRepo
	matches    *fakeMatchRepo
	cache      *fakeScoreCache
	svc        domain.MatchService
}

func volunteerWith(id, userID string, skills ...string) *domain.Volunteer {
	return &domain.Volunteer{
		ID:           id,
		UserID:       userID,
		Name:         id,
		Skills:       skills,
		Availability: []domain.AvailabilitySlot{{Day: domain.Monday, Start: "09:00", End: "17:00"}},
		Location:     domain.Location{City: "Springfield", State: "IL"},
	}
}

// tutoringEvent needs Teaching, Communication and Technology on Monday 10:00-11:00.
func tutoringEvent(id string, capacity *int) *domain.Event {
	return &domain.Event{
		ID:             id,
		Name:           "Tutoring " + id,
		RequiredSkills: []string{"Communication", "Teaching", "Technology"},
		Urgency:        domain.UrgencyHigh,
		Capacity:       capacity,
		StartAt:        monday(10, 0),
		EndAt:          monday(11, 0),
		Location:       domain.Location{City: "Springfield", State: "IL"},
		Status:         domain.EventStatusPublished,
	}
}

// newMatchFixture seeds three volunteers scoring 95 (vol-a), 55 (vol-b) and 35 (vol-c)
// against evt-1.
func newMatchFixture(capacity *int, extraEvents ...*domain.Event) *matchFixture {
	f := &matchFixture{
		volunteers: newFakeVolunteerRepo(
			volunteerWith("vol-a", "user-a", "Communication", "Teaching", "Technology"),
			volunteerWith("vol-b", "user-b", "Teaching"),
			volunteerWith("vol-c", "user-c"),
		),
		events: newFakeEventRepo(append([]*domain.Event{tutoringEvent("evt-1", capacity)}, extraEvents...)...),
		cache:  newFakeScoreCache(),
	}
	f.matches = newFakeMatchRepo(f.events)
	f.svc = NewMatchService(f.volunteers, f.events, f.matches, f.cache, domain.DefaultScoringWeights(), time.Minute, testLogger, time.Second)
	return f
}

func TestMatchService_RankVolunteersForEvent(t *testing.T) {
	ctx := context.Background()
	f := newMatchFixture(nil)

	ranked, total, err := f.svc.RankVolunteersForEvent(ctx, "evt-1", domain.PaginationParams{Page: 1, PageSize: 2})
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Len(t, ranked, 2)
	assert.Equal(t, "vol-a", ranked[0].Volunteer.ID)
	assert.Equal(t, 95, ranked[0].Score.Score)
	assert.Equal(t, domain.TierExcellent, ranked[0].Score.Tier)
	assert.Equal(t, "vol-b", ranked[1].Volunteer.ID)
	assert.Equal(t, 55, ranked[1].Score.Score)

	page2, _, err := f.svc.RankVolunteersForEvent(ctx, "evt-1", domain.PaginationParams{Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, page2, 1)
	assert.Equal(t, "vol-c", page2[0].Volunteer.ID)
	assert.Equal(t, 3, f.cache.hits, "second call should be served from the cache")

	_, _, err = f.svc.RankVolunteersForEvent(ctx, "missing", domain.PaginationParams{Page: 1, PageSize: 10})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMatchService_ScoreCacheInvalidatedByEdit(t *testing.T) {
	ctx := context.Background()
	f := newMatchFixture(nil)
	params := domain.PaginationParams{Page: 1, PageSize: 10}

	_, _, err := f.svc.RankVolunteersForEvent(ctx, "evt-1", params)
	require.NoError(t, err)

	f.events.byID["evt-1"].RequiredSkills = []string{"Teaching"}
	f.events.byID["evt-1"].UpdatedAt = time.Now()

	ranked, _, err := f.svc.RankVolunteersForEvent(ctx, "evt-1", params)
	require.NoError(t, err)
	assert.Zero(t, f.cache.hits)
	assert.Equal(t, 95, ranked[0].Score.Score)
	assert.Equal(t, "vol-a", ranked[0].Volunteer.ID)
	assert.Equal(t, 95, ranked[1].Score.Score)
	assert.Equal(t, "vol-b", ranked[1].Volunteer.ID)
}

func TestMatchService_CacheErrorsFallBackToComputing(t *testing.T) {
	f := newMatchFixture(nil)
	f.cache.getErr = errors.New("redis unavailable")

	ranked, total, err := f.svc.RankVolunteersForEvent(context.Background(), "evt-1", domain.PaginationParams{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, 95, ranked[0].Score.Score)
}

func TestMatchService_RankEventsForVolunteer(t *testing.T) {
	draft := tutoringEvent("evt-draft", nil)
	draft.Status = domain.EventStatusDraft
	lowFit := tutoringEvent("evt-0", nil)
	lowFit.RequiredSkills = []string{"Cooking"}
	f := newMatchFixture(nil, draft, lowFit)

	ranked, total, err := f.svc.RankEventsForVolunteer(context.Background(), "vol-a", domain.PaginationParams{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, 2, total)
	assert.Equal(t, "evt-1", ranked[0].Event.ID)
	assert.Equal(t, "evt-0", ranked[1].Event.ID)
	assert.Greater(t, ranked[0].Score.Score, ranked[1].Score.Score)
}

func TestMatchService_PreviewAssignment_TimeConflict(t *testing.T) {
	ctx := context.Background()
	overlapping := tutoringEvent("evt-2", nil)
	overlapping.StartAt = monday(10, 30)
	overlapping.EndAt = monday(11, 30)
	f := newMatchFixture(nil, overlapping)

	_, err := f.svc.RequestMatch(ctx, domain.Principal{UserID: "user-a"}, "vol-a", "evt-1")
	require.NoError(t, err)

	el, err := f.svc.PreviewAssignment(ctx, "vol-a", "evt-2")
	require.NoError(t, err)
	assert.False(t, el.Allowed)
	require.NotNil(t, el.Failure)
	assert.Equal(t, domain.ReasonTimeConflict, el.Failure.Reason)
	require.Len(t, el.Failure.Conflicts, 1)
	assert.Equal(t, "evt-1", el.Failure.Conflicts[0].EventID)
	assert.Equal(t, 95, el.Score.Score)

	el, err = f.svc.PreviewAssignment(ctx, "vol-b", "evt-2")
	require.NoError(t, err)
	assert.True(t, el.Allowed)
	assert.Nil(t, el.Failure)
}

func TestMatchService_RequestMatch(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		capacity  *int
		caller    domain.Principal
		setup     func(f *matchFixture)
		wantErr   error
		wantCount int
	}{
		{name: "volunteer registers", capacity: intPtr(5), caller: domain.Principal{UserID: "user-a"}, wantCount: 1},
		{name: "admin registers someone", caller: domain.Principal{UserID: "root", Roles: []string{domain.RoleAdmin}}, wantCount: 1},
		{name: "other user", caller: domain.Principal{UserID: "user-b"}, wantErr: domain.ErrForbidden},
		{
			name:     "event full",
			capacity: intPtr(5),
			caller:   domain.Principal{UserID: "user-a"},
			setup:    func(f *matchFixture) { f.events.byID["evt-1"].CurrentRegistrants = 5 },
			wantErr:  domain.ErrEventFull,
		},
		{
			name:    "event not open",
			caller:  domain.Principal{UserID: "user-a"},
			setup:   func(f *matchFixture) { f.events.byID["evt-1"].Status = domain.EventStatusDraft },
			wantErr: domain.ErrEventNotOpen,
		},
		{
			name:   "already registered",
			caller: domain.Principal{UserID: "user-a"},
			setup: func(f *matchFixture) {
				require.NoError(t, f.matches.CreateConfirmed(ctx, &domain.Match{VolunteerID: "vol-a", EventID: "evt-1"}))
			},
			wantErr:   domain.ErrAlreadyRegistered,
			wantCount: 1,
		},
		{
			name:   "lost a race at write time",
			caller: domain.Principal{UserID: "user-a"},
			setup: func(f *matchFixture) {
				f.matches.failFor["vol-a"] = domain.NewAssignmentError(domain.ReasonEventFull)
			},
			wantErr: domain.ErrEventFull,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newMatchFixture(tt.capacity)
			if tt.setup != nil {
				tt.setup(f)
			}
			before := f.events.byID["evt-1"].CurrentRegistrants

			m, err := f.svc.RequestMatch(ctx, tt.caller, "vol-a", "evt-1")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, before, f.events.byID["evt-1"].CurrentRegistrants)
			} else {
				require.NoError(t, err)
				assert.Equal(t, domain.MatchStatusConfirmed, m.Status)
				require.NotNil(t, m.Score)
				assert.Equal(t, 95, *m.Score)
				assert.Equal(t, before+1, f.events.byID["evt-1"].CurrentRegistrants)
			}
			matches, _ := f.matches.ListByEventID(ctx, "evt-1")
			assert.Len(t, matches, tt.wantCount)
		})
	}
}

func TestMatchService_UpdateMatchStatus(t *testing.T) {
	ctx := context.Background()
	owner := domain.Principal{UserID: "user-a"}

	tests := []struct {
		name     string
		from     domain.MatchStatus
		to       domain.MatchStatus
		caller   domain.Principal
		setup    func(f *matchFixture)
		wantErr  error
		wantRegs int
	}{
		{name: "confirm pending", from: domain.MatchStatusPending, to: domain.MatchStatusConfirmed, caller: owner, wantRegs: 1},
		{name: "decline pending", from: domain.MatchStatusPending, to: domain.MatchStatusDeclined, caller: owner, wantRegs: 0},
		{
			name: "decline confirmed frees the seat", from: domain.MatchStatusConfirmed, to: domain.MatchStatusDeclined, caller: owner,
			setup:    func(f *matchFixture) { f.events.byID["evt-1"].CurrentRegistrants = 1 },
			wantRegs: 0,
		},
		{name: "reopen declined", from: domain.MatchStatusDeclined, to: domain.MatchStatusPending, caller: owner, wantErr: domain.ErrInvalidInput},
		{name: "unknown status", from: domain.MatchStatusPending, to: "maybe", caller: owner, wantErr: domain.ErrInvalidInput},
		{name: "other user", from: domain.MatchStatusPending, to: domain.MatchStatusDeclined, caller: domain.Principal{UserID: "user-b"}, wantErr: domain.ErrForbidden},
		{
			name: "confirm into full event", from: domain.MatchStatusPending, to: domain.MatchStatusConfirmed, caller: owner,
			setup:    func(f *matchFixture) { f.events.byID["evt-1"].Capacity = intPtr(1); f.events.byID["evt-1"].CurrentRegistrants = 1 },
			wantErr:  domain.ErrEventFull,
			wantRegs: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newMatchFixture(nil)
			f.matches = newFakeMatchRepo(f.events, &domain.Match{ID: "m-1", VolunteerID: "vol-a", EventID: "evt-1", Status: tt.from})
			f.svc = NewMatchService(f.volunteers, f.events, f.matches, f.cache, domain.DefaultScoringWeights(), time.Minute, testLogger, time.Second)
			if tt.setup != nil {
				tt.setup(f)
			}

			m, err := f.svc.UpdateMatchStatus(ctx, tt.caller, "m-1", tt.to)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.to, m.Status)
			}
			assert.Equal(t, tt.wantRegs, f.events.byID["evt-1"].CurrentRegistrants)
		})
	}
}

func TestMatchService_AutoMatch(t *testing.T) {
	ctx := context.Background()

	t.Run("fills capacity in rank order", func(t *testing.T) {
		f := newMatchFixture(intPtr(2))
		res, err := f.svc.AutoMatch(ctx, "evt-1", domain.AutoMatchOptions{})
		require.NoError(t, err)
		assert.Equal(t, []string{"vol-a", "vol-b"}, res.Assigned)
		require.Len(t, res.Skipped, 1)
		assert.Equal(t, "vol-c", res.Skipped[0].VolunteerID)
		assert.Equal(t, domain.ReasonEventFull, res.Skipped[0].Reason)
		require.Len(t, res.Matches, 2)
		assert.Equal(t, 2, f.events.byID["evt-1"].CurrentRegistrants)
	})

	t.Run("dry run persists nothing", func(t *testing.T) {
		f := newMatchFixture(nil)
		res, err := f.svc.AutoMatch(ctx, "evt-1", domain.AutoMatchOptions{MinScore: 50, DryRun: true})
		require.NoError(t, err)
		assert.Equal(t, []string{"vol-a", "vol-b"}, res.Assigned)
		require.Len(t, res.Skipped, 1)
		assert.Equal(t, domain.ReasonBelowMinScore, res.Skipped[0].Reason)
		assert.Empty(t, res.Matches)
		assert.Zero(t, f.events.byID["evt-1"].CurrentRegistrants)
		matches, _ := f.matches.ListByEventID(ctx, "evt-1")
		assert.Empty(t, matches)
	})

	t.Run("max matches", func(t *testing.T) {
		f := newMatchFixture(nil)
		res, err := f.svc.AutoMatch(ctx, "evt-1", domain.AutoMatchOptions{MaxMatches: 1})
		require.NoError(t, err)
		assert.Equal(t, []string{"vol-a"}, res.Assigned)
	})

	t.Run("write-time rejection moves candidate to skipped", func(t *testing.T) {
		f := newMatchFixture(nil)
		f.matches.failFor["vol-b"] = domain.NewAssignmentError(domain.ReasonAlreadyRegistered)
		res, err := f.svc.AutoMatch(ctx, "evt-1", domain.AutoMatchOptions{})
		require.NoError(t, err)
		assert.Equal(t, []string{"vol-a", "vol-c"}, res.Assigned)
		require.Len(t, res.Skipped, 1)
		assert.Equal(t, "vol-b", res.Skipped[0].VolunteerID)
		assert.Equal(t, domain.ReasonAlreadyRegistered, res.Skipped[0].Reason)
		assert.Equal(t, 55, res.Skipped[0].Score)
	})

	t.Run("storage failure aborts", func(t *testing.T) {
		f := newMatchFixture(nil)
		f.matches.failFor["vol-a"] = errors.New("connection reset")
		_, err := f.svc.AutoMatch(ctx, "evt-1", domain.AutoMatchOptions{})
		require.Error(t, err)
	})

	t.Run("conflicting commitment is skipped", func(t *testing.T) {
		other := tutoringEvent("evt-2", nil)
		f := newMatchFixture(nil, other)
		_, err := f.svc.RequestMatch(ctx, domain.Principal{UserID: "user-a"}, "vol-a", "evt-2")
		require.NoError(t, err)

		res, err := f.svc.AutoMatch(ctx, "evt-1", domain.AutoMatchOptions{})
		require.NoError(t, err)
		assert.Equal(t, []string{"vol-b", "vol-c"}, res.Assigned)
		require.Len(t, res.Skipped, 1)
		assert.Equal(t, domain.ReasonTimeConflict, res.Skipped[0].Reason)
		require.Len(t, res.Skipped[0].Conflicts, 1)
		assert.Equal(t, "evt-2", res.Skipped[0].Conflicts[0].EventID)
	})
}

func TestMatchService_ListCommitments(t *testing.T) {
	ctx := context.Background()
	early := tutoringEvent("evt-0", nil)
	early.StartAt = monday(8, 0)
	early.EndAt = monday(9, 0)
	f := newMatchFixture(nil, early)
	owner := domain.Principal{UserID: "user-a"}

	_, err := f.svc.RequestMatch(ctx, owner, "vol-a", "evt-1")
	require.NoError(t, err)
	m, err := f.svc.RequestMatch(ctx, owner, "vol-a", "evt-0")
	require.NoError(t, err)

	got, err := f.svc.ListCommitments(ctx, owner, "vol-a")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "evt-0", got[0].Event.ID)
	assert.Equal(t, "evt-1", got[1].Event.ID)

	_, err = f.svc.UpdateMatchStatus(ctx, owner, m.ID, domain.MatchStatusDeclined)
	require.NoError(t, err)
	got, err = f.svc.ListCommitments(ctx, owner, "vol-a")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "evt-1", got[0].Event.ID)

	_, err = f.svc.ListCommitments(ctx, domain.Principal{UserID: "user-b"}, "vol-a")
	require.ErrorIs(t, err, domain.ErrForbidden)
}
