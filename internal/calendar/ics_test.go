package calendar

import (
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportICS(t *testing.T) {
	stamp := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	events := []ICSEvent{
		{
			CalendarID: "work@example.com",
			Event: EventSummary{
				ID:        "e1",
				Summary:   "Standup",
				Location:  "Room 1",
				Start:     EventTime{DateTime: "2026-03-03T09:00:00Z"},
				End:       EventTime{DateTime: "2026-03-03T09:15:00Z"},
				Status:    "confirmed",
				Attendees: []AttendeeInfo{{Email: "bob@example.com"}},
			},
		},
		{
			CalendarID: "family@group.calendar.google.com",
			Event: EventSummary{
				ID:      "e1",
				Summary: "Holiday",
				Start:   EventTime{Date: "2026-03-04"},
				End:     EventTime{Date: "2026-03-05"},
			},
		},
		{
			CalendarID: "work@example.com",
			Event:      EventSummary{ID: "broken", Summary: "No start"},
		},
	}

	out := ExportICS("Merged", events, stamp)

	assert.Contains(t, out, "METHOD:PUBLISH")
	assert.Contains(t, out, "PRODID:"+ICSProductID)
	assert.Contains(t, out, "X-WR-CALNAME:Merged")
	assert.Contains(t, out, "DTSTART:20260303T090000Z")
	assert.Contains(t, out, "DTSTART;VALUE=DATE:20260304")
	assert.NotContains(t, out, "No start")

	cal, err := ics.ParseCalendar(strings.NewReader(out))
	require.NoError(t, err)
	require.Len(t, cal.Events(), 2)

	uids := []string{cal.Events()[0].Id(), cal.Events()[1].Id()}
	assert.ElementsMatch(t, []string{"e1@work@example.com", "e1@family@group.calendar.google.com"}, uids)
	assert.Equal(t, "Standup", cal.Events()[0].GetProperty(ics.ComponentPropertySummary).Value)
}

func TestExportICS_Empty(t *testing.T) {
	out := ExportICS("", nil, time.Now())

	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.NotContains(t, out, "BEGIN:VEVENT")
	assert.NotContains(t, out, "X-WR-CALNAME")
}
