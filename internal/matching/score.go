package matching

import (
	"fmt"
	"math"
	"strings"

	"volunteermatch/internal/domain"
)

// ComputeMatchScore scores volunteer v against event e. The result is deterministic for
// fixed inputs. Factors are always reported in the order skills, urgency, availability,
// location.
func ComputeMatchScore(v *domain.Volunteer, e *domain.Event, w domain.ScoringWeights) domain.MatchScore {
	skills := MatchSkills(v.Skills, e.RequiredSkills)

	factors := []domain.Factor{
		skillFactor(skills, w),
		urgencyFactor(e.Urgency, w),
		availabilityFactor(v, e, w),
		locationFactor(v.Location, e.Location, w),
	}

	total := 0
	for _, f := range factors {
		total += f.Points
	}
	total = min(total, 100)

	return domain.MatchScore{
		Score:   total,
		Tier:    w.TierFor(total),
		Skills:  skills,
		Factors: factors,
	}
}

func skillFactor(s domain.SkillOverlap, w domain.ScoringWeights) domain.Factor {
	points := int(math.Round(s.Percentage * float64(w.SkillPoints) / 100))
	f := domain.Factor{Name: domain.FactorSkills, Points: points, Present: points > 0}
	switch {
	case s.Required == 0:
		f.Kind = domain.FactorMissing
		f.Detail = "event lists no required skills"
	case s.OverlapCount == 0:
		f.Kind = domain.FactorMissing
		f.Detail = fmt.Sprintf("0/%d required skills matched", s.Required)
	default:
		f.Kind = domain.FactorPositive
		f.Detail = fmt.Sprintf("%d/%d required skills matched", s.OverlapCount, s.Required)
	}
	return f
}

func urgencyFactor(u domain.Urgency, w domain.ScoringWeights) domain.Factor {
	points := w.Urgency.For(u)
	f := domain.Factor{Name: domain.FactorUrgency, Points: points, Present: points > 0}
	switch u {
	case domain.UrgencyCritical, domain.UrgencyHigh:
		f.Kind = domain.FactorUrgent
		f.Detail = fmt.Sprintf("%s urgency", u)
	case domain.UrgencyLow, domain.UrgencyMedium:
		f.Kind = domain.FactorPartial
		f.Detail = fmt.Sprintf("%s urgency", u)
	default:
		f.Kind = domain.FactorMissing
		f.Detail = "urgency not set"
	}
	return f
}

// availabilityFactor checks the local weekday of the event start, taken in e.Timezone.
func availabilityFactor(v *domain.Volunteer, e *domain.Event, w domain.ScoringWeights) domain.Factor {
	day := domain.WeekdayOf(e.LocalStart().Weekday())
	for _, slot := range v.Availability {
		if slot.Day == day {
			return domain.Factor{
				Name:    domain.FactorAvailability,
				Kind:    domain.FactorPositive,
				Present: w.AvailabilityPoints > 0,
				Points:  w.AvailabilityPoints,
				Detail:  fmt.Sprintf("available on %s", day),
			}
		}
	}
	return domain.Factor{
		Name:   domain.FactorAvailability,
		Kind:   domain.FactorMissing,
		Detail: fmt.Sprintf("not available on %s", day),
	}
}

func locationFactor(vl, el domain.Location, w domain.ScoringWeights) domain.Factor {
	f := domain.Factor{Name: domain.FactorLocation}
	switch {
	case sameText(vl.City, el.City):
		f.Kind = domain.FactorPositive
		f.Points = w.CityPoints
		f.Detail = fmt.Sprintf("same city (%s)", strings.TrimSpace(el.City))
	case sameText(vl.State, el.State):
		f.Kind = domain.FactorPartial
		f.Points = w.StatePoints
		f.Detail = fmt.Sprintf("same state (%s)", strings.TrimSpace(el.State))
	default:
		f.Kind = domain.FactorMissing
		f.Detail = "different location"
	}
	f.Present = f.Points > 0
	return f
}

// sameText compares trimmed values case-insensitively; blanks never match.
func sameText(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	return a != "" && strings.EqualFold(a, b)
}
