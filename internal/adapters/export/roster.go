// Package export writes event rosters as spreadsheets.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"volunteermatch/internal/domain"
)

const rosterSheet = "Roster"

var rosterHeader = []interface{}{"Rank", "Volunteer", "Score", "Tier", "Matched skills", "Match status", "Reasons"}

// WriteRoster writes ranked candidates for e to w as an xlsx workbook. Candidates that
// already hold a match for e show its status.
func WriteRoster(w io.Writer, e *domain.Event, ranked []domain.RankedVolunteer, matches []*domain.Match) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", rosterSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	title := fmt.Sprintf("%s (%s to %s)", e.Name, e.StartAt.Format("2006-01-02 15:04"), e.EndAt.Format("15:04"))
	if err := f.SetCellValue(rosterSheet, "A1", title); err != nil {
		return err
	}
	if err := f.SetSheetRow(rosterSheet, "A2", &rosterHeader); err != nil {
		return err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(rosterHeader))
	if err := f.SetCellStyle(rosterSheet, "A2", lastCol+"2", headerStyle); err != nil {
		return err
	}

	status := make(map[string]domain.MatchStatus, len(matches))
	for _, m := range matches {
		if m.EventID == e.ID {
			status[m.VolunteerID] = m.Status
		}
	}

	for i, r := range ranked {
		cell, _ := excelize.CoordinatesToCellName(1, i+3)
		row := []interface{}{
			i + 1,
			r.Volunteer.Name,
			r.Score.Score,
			string(r.Score.Tier),
			strings.Join(r.Score.Skills.Overlap, ", "),
			string(status[r.Volunteer.ID]),
			strings.Join(r.Score.Reasons(), "; "),
		}
		if err := f.SetSheetRow(rosterSheet, cell, &row); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(rosterSheet, "B", "B", 24); err != nil {
		return err
	}
	if err := f.SetColWidth(rosterSheet, "G", "G", 60); err != nil {
		return err
	}
	_, err = f.WriteTo(w)
	return err
}
