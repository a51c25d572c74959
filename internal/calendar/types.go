package calendar

import (
	"time"

	calendar "google.golang.org/api/calendar/v3"
)

const dateLayout = "2006-01-02"

// EventInput represents the input for creating or updating a calendar event
type EventInput struct {
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	AllDay      bool
	TimeZone    string
	Attendees   []string
	Recurrence  []string // RRULE, EXRULE, RDATE, EXDATE

	// Event type: "default", "outOfOffice", "focusTime", "workingLocation"
	EventType string
}

// EventTime is the start or end of an event as the Calendar API reports it.
// Timed events carry DateTime (RFC 3339), all-day events carry Date (YYYY-MM-DD).
type EventTime struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

// SortKey returns DateTime if set, else Date. Both are ISO-8601 so plain
// string comparison orders them chronologically.
func (t EventTime) SortKey() string {
	if t.DateTime != "" {
		return t.DateTime
	}
	return t.Date
}

// AllDay reports whether the time is a date without a time of day.
func (t EventTime) AllDay() bool {
	return t.DateTime == "" && t.Date != ""
}

// Time parses the event time. All-day dates are returned at midnight UTC.
func (t EventTime) Time() (time.Time, bool) {
	if t.DateTime != "" {
		v, err := time.Parse(time.RFC3339, t.DateTime)
		return v, err == nil
	}
	if t.Date != "" {
		v, err := time.Parse(dateLayout, t.Date)
		return v, err == nil
	}
	return time.Time{}, false
}

// EventSummary represents a simplified calendar event for listing
type EventSummary struct {
	ID          string         `json:"id"`
	Summary     string         `json:"summary,omitempty"`
	Description string         `json:"description,omitempty"`
	Location    string         `json:"location,omitempty"`
	Start       EventTime      `json:"start"`
	End         EventTime      `json:"end"`
	Creator     string         `json:"creator,omitempty"`
	Organizer   string         `json:"organizer,omitempty"`
	Status      string         `json:"status,omitempty"`
	HTMLLink    string         `json:"htmlLink,omitempty"`
	Attendees   []AttendeeInfo `json:"attendees,omitempty"`
	MeetLink    string         `json:"meetLink,omitempty"`
	EventType   string         `json:"eventType,omitempty"`
	Recurring   string         `json:"recurringEventId,omitempty"`
}

// AttendeeInfo represents information about an event attendee
type AttendeeInfo struct {
	Email          string `json:"email"`
	DisplayName    string `json:"displayName,omitempty"`
	ResponseStatus string `json:"responseStatus,omitempty"` // "needsAction", "declined", "tentative", "accepted"
	Optional       bool   `json:"optional,omitempty"`
	Organizer      bool   `json:"organizer,omitempty"`
}

// CalendarInfo is one entry of an account's calendar list.
type CalendarInfo struct {
	ID              string
	Summary         string
	SummaryOverride string // the account's local rename of a shared calendar
	Description     string
	TimeZone        string
	Primary         bool
	AccessRole      string // "owner", "writer", "reader", "freeBusyReader"
}

// FreeBusyRequest asks for busy periods of several calendars.
type FreeBusyRequest struct {
	TimeMin     time.Time
	TimeMax     time.Time
	CalendarIDs []string
}

// FreeBusyCalendar is the free/busy answer for one calendar.
type FreeBusyCalendar struct {
	Busy   []TimeRange     `json:"busy"`
	Errors []FreeBusyError `json:"errors,omitempty"`
}

// HasErrors reports whether the server attached errors to this calendar.
func (c FreeBusyCalendar) HasErrors() bool {
	return len(c.Errors) > 0
}

// FreeBusyError is a per-calendar error such as "notFound".
type FreeBusyError struct {
	Domain string `json:"domain,omitempty"`
	Reason string `json:"reason"`
}

// ReasonNotFound is the free/busy error reason for an unknown calendar.
const ReasonNotFound = "notFound"

// TimeRange represents a time range
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// EventQuery selects events of one calendar. An empty Query lists events,
// a non-empty one runs a free-text search.
type EventQuery struct {
	CalendarID string
	TimeMin    time.Time
	TimeMax    time.Time
	Query      string
	MaxResults int64
}

func toEventTime(t *calendar.EventDateTime) EventTime {
	if t == nil {
		return EventTime{}
	}
	return EventTime{DateTime: t.DateTime, Date: t.Date, TimeZone: t.TimeZone}
}

func toEventSummary(event *calendar.Event) EventSummary {
	if event == nil {
		return EventSummary{}
	}

	summary := EventSummary{
		ID:          event.Id,
		Summary:     event.Summary,
		Description: event.Description,
		Location:    event.Location,
		Start:       toEventTime(event.Start),
		End:         toEventTime(event.End),
		Status:      event.Status,
		HTMLLink:    event.HtmlLink,
		EventType:   event.EventType,
		Recurring:   event.RecurringEventId,
	}

	if event.Creator != nil {
		summary.Creator = event.Creator.Email
	}
	if event.Organizer != nil {
		summary.Organizer = event.Organizer.Email
	}

	for _, att := range event.Attendees {
		summary.Attendees = append(summary.Attendees, AttendeeInfo{
			Email:          att.Email,
			DisplayName:    att.DisplayName,
			ResponseStatus: att.ResponseStatus,
			Optional:       att.Optional,
			Organizer:      att.Organizer,
		})
	}

	if event.ConferenceData != nil {
		for _, ep := range event.ConferenceData.EntryPoints {
			if ep.EntryPointType == "video" {
				summary.MeetLink = ep.Uri
				break
			}
		}
	}

	return summary
}

func toCalendarInfo(entry *calendar.CalendarListEntry) CalendarInfo {
	if entry == nil {
		return CalendarInfo{}
	}
	return CalendarInfo{
		ID:              entry.Id,
		Summary:         entry.Summary,
		SummaryOverride: entry.SummaryOverride,
		Description:     entry.Description,
		TimeZone:        entry.TimeZone,
		Primary:         entry.Primary,
		AccessRole:      entry.AccessRole,
	}
}

// toEventDateTime renders t for the API, as a date for all-day events.
func toEventDateTime(t time.Time, allDay bool, timeZone string) *calendar.EventDateTime {
	if allDay {
		return &calendar.EventDateTime{Date: t.Format(dateLayout)}
	}
	if timeZone == "" {
		timeZone = "UTC"
	}
	return &calendar.EventDateTime{DateTime: t.Format(time.RFC3339), TimeZone: timeZone}
}

func toAttendees(emails []string) []*calendar.EventAttendee {
	attendees := make([]*calendar.EventAttendee, 0, len(emails))
	for _, email := range emails {
		attendees = append(attendees, &calendar.EventAttendee{Email: email})
	}
	return attendees
}
