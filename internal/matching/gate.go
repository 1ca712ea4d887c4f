package matching

import (
	"cmp"
	"slices"

	"volunteermatch/internal/domain"
)

// CanAssign reports whether v may be registered for e. It returns nil or an
// *domain.AssignmentError. Checks run in a fixed order and the first failure wins:
// already registered, event full, event not published, time conflict.
//
// existing may contain matches of other volunteers; only v's are considered.
// volunteerEvents must contain the events v holds matches for. Cancelled events are
// not counted as commitments.
func CanAssign(v *domain.Volunteer, e *domain.Event, existing []*domain.Match, volunteerEvents []*domain.Event) error {
	committed := make(map[string]struct{})
	for _, m := range existing {
		if m.VolunteerID != v.ID || !m.Active() {
			continue
		}
		if m.EventID == e.ID {
			return domain.NewAssignmentError(domain.ReasonAlreadyRegistered)
		}
		committed[m.EventID] = struct{}{}
	}

	if e.IsFull() {
		return domain.NewAssignmentError(domain.ReasonEventFull)
	}

	if e.Status != domain.EventStatusPublished {
		return domain.NewAssignmentError(domain.ReasonEventNotOpen)
	}

	var conflicts []domain.Conflict
	seen := make(map[string]struct{})
	for _, other := range volunteerEvents {
		if _, ok := committed[other.ID]; !ok {
			continue
		}
		if _, dup := seen[other.ID]; dup {
			continue
		}
		seen[other.ID] = struct{}{}
		if other.Status == domain.EventStatusCancelled || !e.Overlaps(other) {
			continue
		}
		conflicts = append(conflicts, domain.Conflict{
			EventID: other.ID,
			Name:    other.Name,
			StartAt: other.StartAt,
			EndAt:   other.EndAt,
		})
	}
	if len(conflicts) > 0 {
		slices.SortFunc(conflicts, func(a, b domain.Conflict) int {
			if c := a.StartAt.Compare(b.StartAt); c != 0 {
				return c
			}
			return cmp.Compare(a.EventID, b.EventID)
		})
		return domain.NewAssignmentError(domain.ReasonTimeConflict, conflicts...)
	}
	return nil
}
