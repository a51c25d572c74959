package calendar

import (
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
)

// ICSProductID is the PRODID of exported calendars.
const ICSProductID = "-//teemow//multical//EN"

// ICSEvent is an event together with the calendar it was read from.
// The pair makes the exported UID unique when several calendars are merged.
type ICSEvent struct {
	CalendarID string
	Event      EventSummary
}

// ExportICS renders events as an iCalendar PUBLISH document named name.
// Events without a parsable start are skipped. stamp is used as DTSTAMP.
func ExportICS(name string, events []ICSEvent, stamp time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(ICSProductID)
	if name != "" {
		cal.SetXWRCalName(name)
	}

	for _, e := range events {
		start, ok := e.Event.Start.Time()
		if !ok {
			continue
		}
		end, endOK := e.Event.End.Time()

		vevent := cal.AddEvent(e.Event.ID + "@" + e.CalendarID)
		vevent.SetDtStampTime(stamp)

		if e.Event.Start.AllDay() {
			vevent.SetAllDayStartAt(start)
			if endOK {
				vevent.SetAllDayEndAt(end)
			}
		} else {
			vevent.SetStartAt(start)
			if endOK {
				vevent.SetEndAt(end)
			}
		}

		if e.Event.Summary != "" {
			vevent.SetSummary(e.Event.Summary)
		}
		if e.Event.Location != "" {
			vevent.SetLocation(e.Event.Location)
		}
		if e.Event.Description != "" {
			vevent.SetDescription(e.Event.Description)
		}
		if e.Event.HTMLLink != "" {
			vevent.SetURL(e.Event.HTMLLink)
		}
		if e.Event.Status != "" {
			vevent.SetStatus(ics.ObjectStatus(strings.ToUpper(e.Event.Status)))
		}
		if e.Event.Organizer != "" {
			vevent.SetOrganizer("mailto:" + e.Event.Organizer)
		}
		for _, a := range e.Event.Attendees {
			vevent.AddAttendee(a.Email)
		}
	}

	return cal.Serialize()
}
