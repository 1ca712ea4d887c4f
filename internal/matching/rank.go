package matching

import (
	"cmp"
	"slices"

	"volunteermatch/internal/domain"
)

// RankVolunteers scores every volunteer against e and sorts by score descending,
// breaking ties by ascending volunteer ID.
func RankVolunteers(e *domain.Event, volunteers []*domain.Volunteer, w domain.ScoringWeights) []domain.RankedVolunteer {
	return RankVolunteersWith(e, volunteers, func(v *domain.Volunteer) domain.MatchScore {
		return ComputeMatchScore(v, e, w)
	})
}

// RankVolunteersWith is RankVolunteers with a caller-supplied scorer, e.g. one backed by a cache.
func RankVolunteersWith(e *domain.Event, volunteers []*domain.Volunteer, score func(*domain.Volunteer) domain.MatchScore) []domain.RankedVolunteer {
	ranked := make([]domain.RankedVolunteer, 0, len(volunteers))
	for _, v := range volunteers {
		ranked = append(ranked, domain.RankedVolunteer{Volunteer: v, Score: score(v)})
	}
	slices.SortStableFunc(ranked, func(a, b domain.RankedVolunteer) int {
		if c := cmp.Compare(b.Score.Score, a.Score.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Volunteer.ID, b.Volunteer.ID)
	})
	return ranked
}

// RankEvents scores every event against v and sorts by score descending,
// breaking ties by ascending event ID.
func RankEvents(v *domain.Volunteer, events []*domain.Event, w domain.ScoringWeights) []domain.RankedEvent {
	return RankEventsWith(v, events, func(e *domain.Event) domain.MatchScore {
		return ComputeMatchScore(v, e, w)
	})
}

// RankEventsWith is RankEvents with a caller-supplied scorer.
func RankEventsWith(v *domain.Volunteer, events []*domain.Event, score func(*domain.Event) domain.MatchScore) []domain.RankedEvent {
	ranked := make([]domain.RankedEvent, 0, len(events))
	for _, e := range events {
		ranked = append(ranked, domain.RankedEvent{Event: e, Score: score(e)})
	}
	slices.SortStableFunc(ranked, func(a, b domain.RankedEvent) int {
		if c := cmp.Compare(b.Score.Score, a.Score.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Event.ID, b.Event.ID)
	})
	return ranked
}
