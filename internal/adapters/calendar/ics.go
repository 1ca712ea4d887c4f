// Package calendar renders a volunteer's commitments as an iCalendar feed.
package calendar

import (
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"volunteermatch/internal/domain"
)

const productID = "-//volunteermatch//commitments//EN"

// Render returns an RFC 5545 calendar with one VEVENT per commitment. UIDs derive from
// match IDs so that calendar clients update entries in place.
func Render(v *domain.Volunteer, commitments []domain.Commitment, now time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName(fmt.Sprintf("%s volunteering", v.Name))

	for _, c := range commitments {
		ev := cal.AddEvent(c.Match.ID + "@volunteermatch")
		ev.SetDtStampTime(now)
		ev.SetCreatedTime(c.Match.CreatedAt)
		ev.SetModifiedAt(c.Match.UpdatedAt)
		ev.SetStartAt(c.Event.StartAt)
		ev.SetEndAt(c.Event.EndAt)
		ev.SetSummary(c.Event.Name)
		if loc := location(c.Event.Location); loc != "" {
			ev.SetLocation(loc)
		}
		ev.SetDescription(fmt.Sprintf("Match %s (%s)", c.Match.ID, c.Match.Status))
		ev.SetStatus(eventStatus(c))
	}
	return cal.Serialize()
}

func location(l domain.Location) string {
	parts := make([]string, 0, 2)
	for _, p := range []string{l.City, l.State} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func eventStatus(c domain.Commitment) ics.ObjectStatus {
	switch {
	case c.Event.Status == domain.EventStatusCancelled:
		return ics.ObjectStatusCancelled
	case c.Match.Status == domain.MatchStatusPending:
		return ics.ObjectStatusTentative
	default:
		return ics.ObjectStatusConfirmed
	}
}
