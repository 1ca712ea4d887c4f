package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"volunteermatch/internal/domain"
)

func TestRankVolunteers(t *testing.T) {
	e := tutoringEvent()
	w := domain.DefaultScoringWeights()

	strong := springfieldVolunteer()
	strong.ID = "v-strong"
	strong.Skills = []string{"Teaching", "Communication", "Technology"}

	tieB := springfieldVolunteer()
	tieB.ID = "v-b"
	tieA := springfieldVolunteer()
	tieA.ID = "v-a"

	weak := springfieldVolunteer()
	weak.ID = "v-weak"
	weak.Skills = nil
	weak.Location = domain.Location{City: "Denver", State: "CO"}

	input := []*domain.Volunteer{weak, tieB, strong, tieA}
	ranked := RankVolunteers(e, input, w)
	require.Len(t, ranked, 4)

	ids := make([]string, 0, len(ranked))
	for i, r := range ranked {
		ids = append(ids, r.Volunteer.ID)
		if i > 0 {
			assert.GreaterOrEqual(t, ranked[i-1].Score.Score, r.Score.Score)
		}
	}
	assert.Equal(t, []string{"v-strong", "v-a", "v-b", "v-weak"}, ids)

	// Order is independent of input order.
	again := RankVolunteers(e, []*domain.Volunteer{tieA, strong, weak, tieB}, w)
	for i := range ranked {
		assert.Equal(t, ranked[i].Volunteer.ID, again[i].Volunteer.ID)
	}
}

func TestRankEvents(t *testing.T) {
	v := springfieldVolunteer()
	w := domain.DefaultScoringWeights()

	best := tutoringEvent()
	best.ID = "e-best"
	best.RequiredSkills = []string{"Teaching"}
	best.Urgency = domain.UrgencyCritical

	mid := tutoringEvent()
	mid.ID = "e-mid"

	low := tutoringEvent()
	low.ID = "e-low"
	low.RequiredSkills = []string{"Plumbing"}
	low.Urgency = domain.UrgencyLow

	ranked := RankEvents(v, []*domain.Event{low, mid, best}, w)
	require.Len(t, ranked, 3)
	assert.Equal(t, "e-best", ranked[0].Event.ID)
	assert.Equal(t, "e-mid", ranked[1].Event.ID)
	assert.Equal(t, "e-low", ranked[2].Event.ID)
}

func TestRankVolunteersWith_UsesScorer(t *testing.T) {
	calls := 0
	scorer := func(v *domain.Volunteer) domain.MatchScore {
		calls++
		return domain.MatchScore{Score: len(v.ID)}
	}
	ranked := RankVolunteersWith(tutoringEvent(), []*domain.Volunteer{{ID: "a"}, {ID: "ccc"}, {ID: "bb"}}, scorer)
	assert.Equal(t, 3, calls)
	assert.Equal(t, "ccc", ranked[0].Volunteer.ID)
	assert.Equal(t, "a", ranked[2].Volunteer.ID)
}
