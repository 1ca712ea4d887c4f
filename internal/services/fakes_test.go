package services

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"volunteermatch/internal/domain"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

// fakeVolunteerRepo is an in-memory VolunteerRepository for tests.
type fakeVolunteerRepo struct {
	byID   map[string]*domain.Volunteer
	nextID int
	err    error // if set, Create and Update return this error
}

func newFakeVolunteerRepo(vs ...*domain.Volunteer) *fakeVolunteerRepo {
	f := &fakeVolunteerRepo{byID: make(map[string]*domain.Volunteer), nextID: 1}
	for _, v := range vs {
		f.byID[v.ID] = v
	}
	return f
}

func (f *fakeVolunteerRepo) Create(ctx context.Context, v *domain.Volunteer) error {
	if f.err != nil {
		return f.err
	}
	v.ID = fmt.Sprintf("vol-%d", f.nextID)
	f.nextID++
	f.byID[v.ID] = v
	return nil
}

func (f *fakeVolunteerRepo) GetByID(ctx context.Context, id string) (*domain.Volunteer, error) {
	if v, ok := f.byID[id]; ok {
		return v, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeVolunteerRepo) List(ctx context.Context, params domain.PaginationParams) ([]*domain.Volunteer, int, error) {
	all, _ := f.ListAll(ctx)
	start, end := params.Window(len(all))
	return all[start:end], len(all), nil
}

func (f *fakeVolunteerRepo) ListAll(ctx context.Context) ([]*domain.Volunteer, error) {
	out := make([]*domain.Volunteer, 0, len(f.byID))
	for _, v := range f.byID {
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b *domain.Volunteer) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (f *fakeVolunteerRepo) Update(ctx context.Context, v *domain.Volunteer) error {
	if f.err != nil {
		return f.err
	}
	if _, ok := f.byID[v.ID]; !ok {
		return domain.ErrNotFound
	}
	f.byID[v.ID] = v
	return nil
}

// fakeEventRepo is an in-memory EventRepository for tests.
type fakeEventRepo struct {
	byID   map[string]*domain.Event
	nextID int
}

func newFakeEventRepo(es ...*domain.Event) *fakeEventRepo {
	f := &fakeEventRepo{byID: make(map[string]*domain.Event), nextID: 1}
	for _, e := range es {
		f.byID[e.ID] = e
	}
	return f
}

func (f *fakeEventRepo) Create(ctx context.Context, e *domain.Event) error {
	e.ID = fmt.Sprintf("evt-%d", f.nextID)
	f.nextID++
	f.byID[e.ID] = e
	return nil
}

func (f *fakeEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	if e, ok := f.byID[id]; ok {
		return e, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeEventRepo) ListByIDs(ctx context.Context, ids []string) ([]*domain.Event, error) {
	out := []*domain.Event{}
	for _, id := range ids {
		if e, ok := f.byID[id]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEventRepo) List(ctx context.Context, filter domain.EventFilter, params domain.PaginationParams) ([]*domain.Event, int, error) {
	out := []*domain.Event{}
	for _, e := range f.sorted() {
		if filter.Status == "" || e.Status == filter.Status {
			out = append(out, e)
		}
	}
	start, end := params.Window(len(out))
	return out[start:end], len(out), nil
}

func (f *fakeEventRepo) ListPublished(ctx context.Context) ([]*domain.Event, error) {
	out := []*domain.Event{}
	for _, e := range f.sorted() {
		if e.Status == domain.EventStatusPublished {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEventRepo) sorted() []*domain.Event {
	out := make([]*domain.Event, 0, len(f.byID))
	for _, e := range f.byID {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b *domain.Event) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func (f *fakeEventRepo) Update(ctx context.Context, e *domain.Event) error {
	existing, ok := f.byID[e.ID]
	if !ok {
		return domain.ErrNotFound
	}
	e.CurrentRegistrants = existing.CurrentRegistrants
	e.Status = existing.Status
	e.CreatedAt = existing.CreatedAt
	f.byID[e.ID] = e
	return nil
}

func (f *fakeEventRepo) SetStatus(ctx context.Context, id string, status domain.EventStatus) (*domain.Event, error) {
	e, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	e.Status = status
	e.UpdatedAt = time.Now()
	return e, nil
}

// fakeMatchRepo mirrors the transactional re-checks of the postgres repository.
type fakeMatchRepo struct {
	events  *fakeEventRepo
	byID    map[string]*domain.Match
	order   []string
	nextID  int
	failFor map[string]error // volunteer ID -> error returned by CreateConfirmed
}

func newFakeMatchRepo(events *fakeEventRepo, ms ...*domain.Match) *fakeMatchRepo {
	f := &fakeMatchRepo{events: events, byID: make(map[string]*domain.Match), nextID: 1, failFor: map[string]error{}}
	for _, m := range ms {
		f.byID[m.ID] = m
		f.order = append(f.order, m.ID)
	}
	return f
}

func (f *fakeMatchRepo) CreateConfirmed(ctx context.Context, m *domain.Match) error {
	if err, ok := f.failFor[m.VolunteerID]; ok {
		return err
	}
	for _, existing := range f.byID {
		if existing.VolunteerID == m.VolunteerID && existing.EventID == m.EventID && existing.Active() {
			return domain.NewAssignmentError(domain.ReasonAlreadyRegistered)
		}
	}
	e, ok := f.events.byID[m.EventID]
	if !ok {
		return domain.ErrNotFound
	}
	if e.IsFull() {
		return domain.NewAssignmentError(domain.ReasonEventFull)
	}
	if e.Status != domain.EventStatusPublished {
		return domain.NewAssignmentError(domain.ReasonEventNotOpen)
	}
	m.ID = fmt.Sprintf("match-%d", f.nextID)
	f.nextID++
	m.Status = domain.MatchStatusConfirmed
	f.byID[m.ID] = m
	f.order = append(f.order, m.ID)
	e.CurrentRegistrants++
	return nil
}

func (f *fakeMatchRepo) GetByID(ctx context.Context, id string) (*domain.Match, error) {
	if m, ok := f.byID[id]; ok {
		return m, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeMatchRepo) filter(keep func(*domain.Match) bool) []*domain.Match {
	out := []*domain.Match{}
	for _, id := range f.order {
		if m := f.byID[id]; keep(m) {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeMatchRepo) ListByVolunteerID(ctx context.Context, volunteerID string) ([]*domain.Match, error) {
	return f.filter(func(m *domain.Match) bool { return m.VolunteerID == volunteerID }), nil
}

func (f *fakeMatchRepo) ListByEventID(ctx context.Context, eventID string) ([]*domain.Match, error) {
	return f.filter(func(m *domain.Match) bool { return m.EventID == eventID }), nil
}

func (f *fakeMatchRepo) ListByVolunteerIDs(ctx context.Context, volunteerIDs []string) ([]*domain.Match, error) {
	return f.filter(func(m *domain.Match) bool { return slices.Contains(volunteerIDs, m.VolunteerID) }), nil
}

func (f *fakeMatchRepo) UpdateStatus(ctx context.Context, id string, from, to domain.MatchStatus) (*domain.Match, error) {
	m, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if m.Status != from {
		return nil, domain.ErrInvalidInput
	}
	e := f.events.byID[m.EventID]
	switch {
	case to == domain.MatchStatusConfirmed:
		e.CurrentRegistrants++
	case from == domain.MatchStatusConfirmed && to == domain.MatchStatusDeclined:
		e.CurrentRegistrants--
	}
	m.Status = to
	return m, nil
}

// fakeScoreCache records cache traffic.
type fakeScoreCache struct {
	entries map[string]domain.MatchScore
	gets    int
	hits    int
	getErr  error
}

func newFakeScoreCache() *fakeScoreCache {
	return &fakeScoreCache{entries: make(map[string]domain.MatchScore)}
}

func (c *fakeScoreCache) Get(ctx context.Context, key string) (*domain.MatchScore, bool, error) {
	c.gets++
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	ms, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	c.hits++
	return &ms, true, nil
}

func (c *fakeScoreCache) Set(ctx context.Context, key string, score *domain.MatchScore, ttl time.Duration) error {
	c.entries[key] = *score
	return nil
}

func intPtr(n int) *int { return &n }

// monday returns 2025-01-06 (a Monday) at h:m UTC.
func monday(h, m int) time.Time {
	return time.Date(2025, 1, 6, h, m, 0, 0, time.UTC)
}
