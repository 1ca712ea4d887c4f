package services

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"slices"
	"time"

	"volunteermatch/internal/domain"
	"volunteermatch/internal/matching"
)

type matchService struct {
	volunteerRepo  domain.VolunteerRepository
	eventRepo      domain.EventRepository
	matchRepo      domain.MatchRepository
	cache          domain.ScoreCache
	weights        domain.ScoringWeights
	weightsTag     string
	cacheTTL       time.Duration
	logger         *slog.Logger
	contextTimeout time.Duration
}

// NewMatchService creates a MatchService. Scores are memoised in cache for cacheTTL.
func NewMatchService(
	volunteerRepo domain.VolunteerRepository,
	eventRepo domain.EventRepository,
	matchRepo domain.MatchRepository,
	cache domain.ScoreCache,
	weights domain.ScoringWeights,
	cacheTTL time.Duration,
	logger *slog.Logger,
	timeout time.Duration,
) domain.MatchService {
	h := fnv.New32a()
	fmt.Fprintf(h, "%+v", weights)
	return &matchService{
		volunteerRepo:  volunteerRepo,
		eventRepo:      eventRepo,
		matchRepo:      matchRepo,
		cache:          cache,
		weights:        weights,
		weightsTag:     fmt.Sprintf("%08x", h.Sum32()),
		cacheTTL:       cacheTTL,
		logger:         logger,
		contextTimeout: timeout,
	}
}

// scoreKey embeds both records' versions and the weights so stale entries are never read.
func (s *matchService) scoreKey(v *domain.Volunteer, e *domain.Event) string {
	return fmt.Sprintf("score:%s:%s:%s:%d:%d", s.weightsTag, v.ID, e.ID, v.UpdatedAt.UnixNano(), e.UpdatedAt.UnixNano())
}

// score returns the cached score for (v, e) or computes and stores it. Cache failures
// are logged and otherwise ignored.
func (s *matchService) score(ctx context.Context, v *domain.Volunteer, e *domain.Event) domain.MatchScore {
	key := s.scoreKey(v, e)
	cached, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "score cache get failed", "key", key, "err", err)
	} else if ok {
		return *cached
	}

	ms := matching.ComputeMatchScore(v, e, s.weights)
	if err := s.cache.Set(ctx, key, &ms, s.cacheTTL); err != nil {
		s.logger.WarnContext(ctx, "score cache set failed", "key", key, "err", err)
	}
	return ms
}

func (s *matchService) RankVolunteersForEvent(ctx context.Context, eventID string, params domain.PaginationParams) ([]domain.RankedVolunteer, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	e, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, 0, err
	}
	volunteers, err := s.volunteerRepo.ListAll(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("list volunteers: %w", err)
	}

	ranked := matching.RankVolunteersWith(e, volunteers, func(v *domain.Volunteer) domain.MatchScore {
		return s.score(ctx, v, e)
	})
	start, end := params.Window(len(ranked))
	return ranked[start:end], len(ranked), nil
}

func (s *matchService) RankEventsForVolunteer(ctx context.Context, volunteerID string, params domain.PaginationParams) ([]domain.RankedEvent, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	v, err := s.volunteerRepo.GetByID(ctx, volunteerID)
	if err != nil {
		return nil, 0, err
	}
	events, err := s.eventRepo.ListPublished(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("list published events: %w", err)
	}

	ranked := matching.RankEventsWith(v, events, func(e *domain.Event) domain.MatchScore {
		return s.score(ctx, v, e)
	})
	start, end := params.Window(len(ranked))
	return ranked[start:end], len(ranked), nil
}

func (s *matchService) ListEventMatches(ctx context.Context, eventID string) ([]*domain.Match, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		return nil, err
	}
	return s.matchRepo.ListByEventID(ctx, eventID)
}

// commitments loads the volunteer's matches and the events they point at.
func (s *matchService) commitments(ctx context.Context, volunteerID string) ([]*domain.Match, []*domain.Event, error) {
	matches, err := s.matchRepo.ListByVolunteerID(ctx, volunteerID)
	if err != nil {
		return nil, nil, fmt.Errorf("list volunteer matches: %w", err)
	}
	events, err := s.eventRepo.ListByIDs(ctx, activeEventIDs(matches))
	if err != nil {
		return nil, nil, fmt.Errorf("list committed events: %w", err)
	}
	return matches, events, nil
}

func activeEventIDs(matches []*domain.Match) []string {
	seen := make(map[string]struct{}, len(matches))
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		if !m.Active() {
			continue
		}
		if _, ok := seen[m.EventID]; ok {
			continue
		}
		seen[m.EventID] = struct{}{}
		ids = append(ids, m.EventID)
	}
	return ids
}

func (s *matchService) PreviewAssignment(ctx context.Context, volunteerID, eventID string) (*domain.Eligibility, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	v, err := s.volunteerRepo.GetByID(ctx, volunteerID)
	if err != nil {
		return nil, err
	}
	e, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	matches, events, err := s.commitments(ctx, v.ID)
	if err != nil {
		return nil, err
	}

	el := &domain.Eligibility{
		VolunteerID: v.ID,
		EventID:     e.ID,
		Score:       s.score(ctx, v, e),
		Allowed:     true,
	}
	if err := matching.CanAssign(v, e, matches, events); err != nil {
		var ae *domain.AssignmentError
		if !errors.As(err, &ae) {
			return nil, err
		}
		el.Allowed = false
		el.Failure = ae
	}
	return el, nil
}

func (s *matchService) RequestMatch(ctx context.Context, caller domain.Principal, volunteerID, eventID string) (*domain.Match, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	v, err := s.volunteerRepo.GetByID(ctx, volunteerID)
	if err != nil {
		return nil, err
	}
	if v.UserID != caller.UserID && !caller.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	e, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	matches, events, err := s.commitments(ctx, v.ID)
	if err != nil {
		return nil, err
	}
	if err := matching.CanAssign(v, e, matches, events); err != nil {
		return nil, err
	}

	score := s.score(ctx, v, e).Score
	now := time.Now()
	m := domain.NewMatch(v.ID, e.ID, domain.MatchStatusConfirmed, &score, now, now)
	if err := s.matchRepo.CreateConfirmed(ctx, m); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "match created", "match_id", m.ID, "volunteer_id", v.ID, "event_id", e.ID, "score", score)
	return m, nil
}

func (s *matchService) UpdateMatchStatus(ctx context.Context, caller domain.Principal, matchID string, status domain.MatchStatus) (*domain.Match, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, status)
	}
	m, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	v, err := s.volunteerRepo.GetByID(ctx, m.VolunteerID)
	if err != nil {
		return nil, fmt.Errorf("get match volunteer: %w", err)
	}
	if v.UserID != caller.UserID && !caller.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if !m.Status.CanTransition(status) {
		return nil, fmt.Errorf("%w: cannot move match from %s to %s", domain.ErrInvalidInput, m.Status, status)
	}

	if status == domain.MatchStatusConfirmed {
		e, err := s.eventRepo.GetByID(ctx, m.EventID)
		if err != nil {
			return nil, err
		}
		matches, events, err := s.commitments(ctx, v.ID)
		if err != nil {
			return nil, err
		}
		if err := matching.CanAssign(v, e, withoutMatch(matches, m.ID), events); err != nil {
			return nil, err
		}
	}

	updated, err := s.matchRepo.UpdateStatus(ctx, m.ID, m.Status, status)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "match status changed", "match_id", m.ID, "from", m.Status, "to", status)
	return updated, nil
}

func withoutMatch(matches []*domain.Match, id string) []*domain.Match {
	out := make([]*domain.Match, 0, len(matches))
	for _, m := range matches {
		if m.ID != id {
			out = append(out, m)
		}
	}
	return out
}

func (s *matchService) AutoMatch(ctx context.Context, eventID string, opts domain.AutoMatchOptions) (*domain.AutoAssignResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	e, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	volunteers, err := s.volunteerRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list volunteers: %w", err)
	}
	ranked := matching.RankVolunteersWith(e, volunteers, func(v *domain.Volunteer) domain.MatchScore {
		return s.score(ctx, v, e)
	})

	ids := make([]string, 0, len(volunteers))
	for _, v := range volunteers {
		ids = append(ids, v.ID)
	}
	existing, err := s.matchRepo.ListByVolunteerIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list candidate matches: %w", err)
	}
	events, err := s.eventRepo.ListByIDs(ctx, activeEventIDs(existing))
	if err != nil {
		return nil, fmt.Errorf("list committed events: %w", err)
	}
	eventsByVolunteer := groupEventsByVolunteer(existing, events)

	result := matching.AutoAssign(e, ranked, existing, eventsByVolunteer, opts)
	if opts.DryRun {
		s.logger.InfoContext(ctx, "auto-match dry run", "event_id", e.ID,
			"assigned", len(result.Assigned), "skipped", len(result.Skipped))
		return &result, nil
	}

	scores := make(map[string]int, len(ranked))
	for _, r := range ranked {
		scores[r.Volunteer.ID] = r.Score.Score
	}

	persisted := make([]string, 0, len(result.Assigned))
	result.Matches = make([]*domain.Match, 0, len(result.Assigned))
	for _, vid := range result.Assigned {
		score := scores[vid]
		now := time.Now()
		m := domain.NewMatch(vid, e.ID, domain.MatchStatusConfirmed, &score, now, now)
		if err := s.matchRepo.CreateConfirmed(ctx, m); err != nil {
			var ae *domain.AssignmentError
			if !errors.As(err, &ae) {
				return nil, fmt.Errorf("persist match for volunteer %s: %w", vid, err)
			}
			s.logger.WarnContext(ctx, "auto-match assignment rejected at write time",
				"event_id", e.ID, "volunteer_id", vid, "reason", ae.Reason)
			result.Skipped = append(result.Skipped, domain.SkippedCandidate{
				VolunteerID: vid,
				Score:       score,
				Reason:      ae.Reason,
				Conflicts:   ae.Conflicts,
			})
			continue
		}
		persisted = append(persisted, vid)
		result.Matches = append(result.Matches, m)
	}
	result.Assigned = persisted

	s.logger.InfoContext(ctx, "auto-match completed", "event_id", e.ID,
		"assigned", len(result.Assigned), "skipped", len(result.Skipped))
	return &result, nil
}

func (s *matchService) ListCommitments(ctx context.Context, caller domain.Principal, volunteerID string) ([]domain.Commitment, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	v, err := s.volunteerRepo.GetByID(ctx, volunteerID)
	if err != nil {
		return nil, err
	}
	if v.UserID != caller.UserID && !caller.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	matches, events, err := s.commitments(ctx, v.ID)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*domain.Event, len(events))
	for _, e := range events {
		byID[e.ID] = e
	}
	out := make([]domain.Commitment, 0, len(matches))
	for _, m := range matches {
		if e, ok := byID[m.EventID]; ok && m.Active() {
			out = append(out, domain.Commitment{Match: m, Event: e})
		}
	}
	slices.SortStableFunc(out, func(a, b domain.Commitment) int {
		if c := a.Event.StartAt.Compare(b.Event.StartAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Event.ID, b.Event.ID)
	})
	return out, nil
}

// groupEventsByVolunteer maps each volunteer to the events of their active matches.
func groupEventsByVolunteer(matches []*domain.Match, events []*domain.Event) map[string][]*domain.Event {
	byID := make(map[string]*domain.Event, len(events))
	for _, e := range events {
		byID[e.ID] = e
	}
	out := make(map[string][]*domain.Event)
	for _, m := range matches {
		if !m.Active() {
			continue
		}
		if e, ok := byID[m.EventID]; ok {
			out[m.VolunteerID] = append(out[m.VolunteerID], e)
		}
	}
	return out
}
