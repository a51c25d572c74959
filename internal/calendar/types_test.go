package calendar

import (
	"testing"
	"time"

	gcal "google.golang.org/api/calendar/v3"
)

func TestEventTime_SortKey(t *testing.T) {
	tests := []struct {
		name     string
		in       EventTime
		expected string
		allDay   bool
	}{
		{name: "timed", in: EventTime{DateTime: "2026-03-03T09:00:00Z"}, expected: "2026-03-03T09:00:00Z"},
		{name: "all day", in: EventTime{Date: "2026-03-03"}, expected: "2026-03-03", allDay: true},
		{name: "both prefers dateTime", in: EventTime{DateTime: "2026-03-03T09:00:00Z", Date: "2026-03-03"}, expected: "2026-03-03T09:00:00Z"},
		{name: "empty", in: EventTime{}, expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.SortKey(); got != tt.expected {
				t.Errorf("SortKey() = %q, expected %q", got, tt.expected)
			}
			if got := tt.in.AllDay(); got != tt.allDay {
				t.Errorf("AllDay() = %v, expected %v", got, tt.allDay)
			}
		})
	}
}

func TestEventTime_Time(t *testing.T) {
	v, ok := EventTime{Date: "2026-03-03"}.Time()
	if !ok || !v.Equal(time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Time() = %v, %v", v, ok)
	}
	if _, ok := (EventTime{DateTime: "not a time"}).Time(); ok {
		t.Error("Time() should fail for malformed dateTime")
	}
	if _, ok := (EventTime{}).Time(); ok {
		t.Error("Time() should fail for empty value")
	}
}

func TestToEventSummary(t *testing.T) {
	if s := toEventSummary(nil); s.ID != "" {
		t.Errorf("expected empty summary for nil event, got %+v", s)
	}

	s := toEventSummary(&gcal.Event{
		Id:        "e1",
		Summary:   "Sync",
		Start:     &gcal.EventDateTime{DateTime: "2026-03-03T09:00:00Z", TimeZone: "Europe/Berlin"},
		End:       &gcal.EventDateTime{DateTime: "2026-03-03T10:00:00Z"},
		Organizer: &gcal.EventOrganizer{Email: "boss@example.com"},
		ConferenceData: &gcal.ConferenceData{EntryPoints: []*gcal.EntryPoint{
			{EntryPointType: "phone", Uri: "tel:+1"},
			{EntryPointType: "video", Uri: "https://meet.google.com/abc"},
		}},
	})

	if s.Start.TimeZone != "Europe/Berlin" {
		t.Errorf("Start.TimeZone = %q, expected Europe/Berlin", s.Start.TimeZone)
	}
	if s.Organizer != "boss@example.com" {
		t.Errorf("Organizer = %q", s.Organizer)
	}
	if s.MeetLink != "https://meet.google.com/abc" {
		t.Errorf("MeetLink = %q", s.MeetLink)
	}
}

func TestToCalendarInfo(t *testing.T) {
	if info := toCalendarInfo(nil); info.ID != "" {
		t.Errorf("expected empty info for nil entry, got %+v", info)
	}

	info := toCalendarInfo(&gcal.CalendarListEntry{Id: "c1", Summary: "Team", SummaryOverride: "Mine", AccessRole: "writer"})
	if info.SummaryOverride != "Mine" || info.AccessRole != "writer" {
		t.Errorf("toCalendarInfo() = %+v", info)
	}
}

func TestToEventDateTime(t *testing.T) {
	ts := time.Date(2026, 3, 3, 9, 30, 0, 0, time.UTC)

	if got := toEventDateTime(ts, true, ""); got.Date != "2026-03-03" || got.DateTime != "" {
		t.Errorf("all-day = %+v", got)
	}
	if got := toEventDateTime(ts, false, ""); got.DateTime != "2026-03-03T09:30:00Z" || got.TimeZone != "UTC" {
		t.Errorf("timed = %+v", got)
	}
	if got := toEventDateTime(ts, false, "Europe/Berlin"); got.TimeZone != "Europe/Berlin" {
		t.Errorf("timed with zone = %+v", got)
	}
}
