// Package matching scores volunteers against events, ranks candidates and gates
// registrations. Everything here is pure: callers fetch the records and persist results.
package matching

import (
	"math"
	"slices"

	"volunteermatch/internal/domain"
)

// MatchSkills compares volunteer skills with an event's required skills. Both inputs are
// treated as sets and compared case-sensitively; normalisation happens at ingestion.
func MatchSkills(volunteerSkills, requiredSkills []string) domain.SkillOverlap {
	have := make(map[string]struct{}, len(volunteerSkills))
	for _, s := range volunteerSkills {
		have[s] = struct{}{}
	}

	required := make(map[string]struct{}, len(requiredSkills))
	overlap := []string{}
	for _, s := range requiredSkills {
		if _, dup := required[s]; dup {
			continue
		}
		required[s] = struct{}{}
		if _, ok := have[s]; ok {
			overlap = append(overlap, s)
		}
	}
	slices.Sort(overlap)

	return domain.SkillOverlap{
		Overlap:      overlap,
		OverlapCount: len(overlap),
		Required:     len(required),
		Percentage:   percentage(len(overlap), len(required)),
	}
}

// percentage rounds to one decimal. A partial overlap never rounds up to 100.
func percentage(n, of int) float64 {
	if of == 0 {
		return 0
	}
	p := math.Round(float64(n)*1000/float64(of)) / 10
	if n < of && p >= 100 {
		p = 99.9
	}
	return p
}
