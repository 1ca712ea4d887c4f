package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"volunteermatch/internal/domain"
)

func TestWriteRoster(t *testing.T) {
	start := time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)
	e := &domain.Event{ID: "evt-1", Name: "Tutoring", StartAt: start, EndAt: start.Add(time.Hour)}
	ranked := []domain.RankedVolunteer{
		{
			Volunteer: &domain.Volunteer{ID: "vol-a", Name: "Ada"},
			Score: domain.MatchScore{
				Score: 95, Tier: domain.TierExcellent,
				Skills: domain.SkillOverlap{Overlap: []string{"Teaching", "Technology"}},
				Factors: []domain.Factor{
					{Name: domain.FactorSkills, Kind: domain.FactorPositive, Detail: "2/2 required skills matched"},
					{Name: domain.FactorUrgency, Kind: domain.FactorUrgent, Detail: "high urgency"},
				},
			},
		},
		{
			Volunteer: &domain.Volunteer{ID: "vol-b", Name: "Bo"},
			Score:     domain.MatchScore{Score: 20, Tier: domain.TierLow},
		},
	}
	matches := []*domain.Match{
		{VolunteerID: "vol-a", EventID: "evt-1", Status: domain.MatchStatusConfirmed},
		{VolunteerID: "vol-b", EventID: "evt-other", Status: domain.MatchStatusConfirmed},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteRoster(&buf, e, ranked, matches))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(rosterSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Tutoring (2025-01-06 10:00 to 11:00)", rows[0][0])
	assert.Equal(t, "Rank", rows[1][0])
	assert.Equal(t, []string{"1", "Ada", "95", "excellent", "Teaching, Technology", "confirmed",
		"✓ 2/2 required skills matched; ! high urgency"}, rows[2])
	assert.Equal(t, "Bo", rows[3][1])
	assert.Equal(t, "20", rows[3][2])
}
