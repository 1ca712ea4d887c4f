package matching

import (
	"errors"

	"volunteermatch/internal/domain"
)

// AutoAssign walks ranked candidates for e, gating each one, until opts.MaxMatches
// assignments are collected or the list runs out. MaxMatches <= 0 means no limit.
// Candidates scoring below opts.MinScore are skipped. Accepted candidates count against a
// local copy of the event's capacity; nothing is persisted.
func AutoAssign(
	e *domain.Event,
	ranked []domain.RankedVolunteer,
	existing []*domain.Match,
	eventsByVolunteer map[string][]*domain.Event,
	opts domain.AutoMatchOptions,
) domain.AutoAssignResult {
	event := *e
	matches := append([]*domain.Match(nil), existing...)
	result := domain.AutoAssignResult{Assigned: []string{}, Skipped: []domain.SkippedCandidate{}}

	for _, c := range ranked {
		if opts.MaxMatches > 0 && len(result.Assigned) >= opts.MaxMatches {
			break
		}
		v := c.Volunteer
		if c.Score.Score < opts.MinScore {
			result.Skipped = append(result.Skipped, domain.SkippedCandidate{
				VolunteerID: v.ID,
				Score:       c.Score.Score,
				Reason:      domain.ReasonBelowMinScore,
			})
			continue
		}
		if err := CanAssign(v, &event, matches, eventsByVolunteer[v.ID]); err != nil {
			result.Skipped = append(result.Skipped, skipped(v.ID, c.Score.Score, err))
			continue
		}
		result.Assigned = append(result.Assigned, v.ID)
		event.CurrentRegistrants++
		matches = append(matches, &domain.Match{VolunteerID: v.ID, EventID: event.ID, Status: domain.MatchStatusConfirmed})
	}
	return result
}

func skipped(volunteerID string, score int, err error) domain.SkippedCandidate {
	s := domain.SkippedCandidate{VolunteerID: volunteerID, Score: score}
	var ae *domain.AssignmentError
	if errors.As(err, &ae) {
		s.Reason = ae.Reason
		s.Conflicts = ae.Conflicts
	}
	return s
}
