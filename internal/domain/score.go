package domain

import (
	"context"
	"time"
)

// Tier is the qualitative bucket of a match score.
type Tier string

const (
	TierExcellent Tier = "excellent"
	TierGood      Tier = "good"
	TierFair      Tier = "fair"
	TierLow       Tier = "low"
)

// FactorName identifies one contribution to a match score.
type FactorName string

const (
	FactorSkills       FactorName = "skills"
	FactorUrgency      FactorName = "urgency"
	FactorAvailability FactorName = "availability"
	FactorLocation     FactorName = "location"
)

// FactorKind classifies how a factor contributed; presentation maps it to a marker.
type FactorKind string

const (
	FactorPositive FactorKind = "positive"
	FactorPartial  FactorKind = "partial"
	FactorUrgent   FactorKind = "urgent"
	FactorMissing  FactorKind = "missing"
)

var factorMarkers = map[FactorKind]string{
	FactorPositive: "✓",
	FactorPartial:  "~",
	FactorUrgent:   "!",
	FactorMissing:  "✗",
}

// Marker returns the one-character symbol shown next to a reason of kind k.
func (k FactorKind) Marker() string {
	return factorMarkers[k]
}

// Factor is one structured reason behind a score.
// swagger:model Factor
type Factor struct {
	Name    FactorName `json:"name"`
	Kind    FactorKind `json:"kind"`
	Present bool       `json:"present"`
	Points  int        `json:"points"`
	Detail  string     `json:"detail"`
}

// SkillOverlap is the output of comparing volunteer skills against required skills.
// swagger:model SkillOverlap
type SkillOverlap struct {
	Overlap      []string `json:"overlap"`
	OverlapCount int      `json:"overlap_count"`
	Required     int      `json:"required"`
	Percentage   float64  `json:"percentage"`
}

// String renders the factor as a marker followed by its detail.
func (f Factor) String() string {
	return f.Kind.Marker() + " " + f.Detail
}

// Reasons renders every factor of s in order.
func (s MatchScore) Reasons() []string {
	out := make([]string, 0, len(s.Factors))
	for _, f := range s.Factors {
		out = append(out, f.String())
	}
	return out
}

// MatchScore is a 0-100 score with its tier and reasons.
// swagger:model MatchScore
type MatchScore struct {
	Score   int          `json:"score"`
	Tier    Tier         `json:"tier"`
	Skills  SkillOverlap `json:"skills"`
	Factors []Factor     `json:"factors"`
}

// RankedVolunteer is a volunteer scored against one event.
type RankedVolunteer struct {
	Volunteer *Volunteer `json:"volunteer"`
	Score     MatchScore `json:"score"`
}

// RankedEvent is an event scored against one volunteer.
type RankedEvent struct {
	Event *Event     `json:"event"`
	Score MatchScore `json:"score"`
}

// UrgencyPoints maps urgency levels to score points.
type UrgencyPoints struct {
	Low      int `yaml:"low" validate:"gte=0,lte=100"`
	Medium   int `yaml:"medium" validate:"gte=0,lte=100"`
	High     int `yaml:"high" validate:"gte=0,lte=100"`
	Critical int `yaml:"critical" validate:"gte=0,lte=100"`
}

// For returns the points for u, 0 for unknown values.
func (p UrgencyPoints) For(u Urgency) int {
	switch u {
	case UrgencyLow:
		return p.Low
	case UrgencyMedium:
		return p.Medium
	case UrgencyHigh:
		return p.High
	case UrgencyCritical:
		return p.Critical
	}
	return 0
}

// TierThresholds are the inclusive lower bounds of each tier above low.
type TierThresholds struct {
	Excellent int `yaml:"excellent" validate:"gtefield=Good,lte=100"`
	Good      int `yaml:"good" validate:"gtefield=Fair"`
	Fair      int `yaml:"fair" validate:"gte=0"`
}

// ScoringWeights configures the score composer.
type ScoringWeights struct {
	SkillPoints        int            `yaml:"skillPoints" validate:"gte=0,lte=100"`
	Urgency            UrgencyPoints  `yaml:"urgency"`
	AvailabilityPoints int            `yaml:"availabilityPoints" validate:"gte=0,lte=100"`
	CityPoints         int            `yaml:"cityPoints" validate:"gte=0,lte=100"`
	StatePoints        int            `yaml:"statePoints" validate:"gte=0,ltefield=CityPoints"`
	Tiers              TierThresholds `yaml:"tiers"`
}

// DefaultScoringWeights returns the 60/20/10/10 split with 75/50/30 tier thresholds.
func DefaultScoringWeights() ScoringWeights {
	return ScoringWeights{
		SkillPoints:        60,
		Urgency:            UrgencyPoints{Low: 5, Medium: 10, High: 15, Critical: 20},
		AvailabilityPoints: 10,
		CityPoints:         10,
		StatePoints:        5,
		Tiers:              TierThresholds{Excellent: 75, Good: 50, Fair: 30},
	}
}

// TierFor buckets a score.
func (w ScoringWeights) TierFor(score int) Tier {
	switch {
	case score >= w.Tiers.Excellent:
		return TierExcellent
	case score >= w.Tiers.Good:
		return TierGood
	case score >= w.Tiers.Fair:
		return TierFair
	default:
		return TierLow
	}
}

// ScoreCache memoizes computed scores. Keys embed record versions so edits invalidate entries.
type ScoreCache interface {
	Get(ctx context.Context, key string) (*MatchScore, bool, error)
	Set(ctx context.Context, key string, score *MatchScore, ttl time.Duration) error
}
