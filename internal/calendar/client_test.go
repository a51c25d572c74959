package calendar_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gcal "google.golang.org/api/calendar/v3"

	"github.com/teemow/multical/internal/calendar"
	"github.com/teemow/multical/internal/calendar/calendartest"
)

const (
	testAccount = "jane@example.com"
	teamCal     = "team@group.calendar.google.com"
)

func newTestClient(t *testing.T) (*calendar.Client, *calendartest.Server) {
	t.Helper()
	server := calendartest.NewServer()
	t.Cleanup(server.Close)

	client, err := calendar.NewClientWithOptions(context.Background(), testAccount, server.Options()...)
	require.NoError(t, err)
	return client, server
}

func timed(ts string) *gcal.EventDateTime { return &gcal.EventDateTime{DateTime: ts} }

func TestNewClientForAccount_NilProvider(t *testing.T) {
	_, err := calendar.NewClientForAccount(context.Background(), testAccount, nil)
	assert.Error(t, err)
}

func TestClient_ListCalendars(t *testing.T) {
	client, server := newTestClient(t)
	server.AddCalendar(&gcal.CalendarListEntry{Id: testAccount, Summary: testAccount, AccessRole: "owner", Primary: true})
	server.AddCalendar(&gcal.CalendarListEntry{Id: teamCal, Summary: "Team", SummaryOverride: "My Team", AccessRole: "reader"})

	cals, err := client.ListCalendars(context.Background())
	require.NoError(t, err)
	require.Len(t, cals, 2)

	assert.Equal(t, testAccount, client.Account())
	assert.True(t, cals[0].Primary)
	assert.Equal(t, "owner", cals[0].AccessRole)
	assert.Equal(t, "My Team", cals[1].SummaryOverride)
	assert.Equal(t, "reader", cals[1].AccessRole)
}

func TestClient_ListCalendars_Error(t *testing.T) {
	client, server := newTestClient(t)
	server.FailWith(calendartest.EndpointCalendarList, 401)

	_, err := client.ListCalendars(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list calendars")
}

func TestClient_QueryFreeBusy(t *testing.T) {
	client, server := newTestClient(t)
	server.AddCalendar(&gcal.CalendarListEntry{Id: teamCal, AccessRole: "reader"})
	server.SetBusy(teamCal, &gcal.TimePeriod{Start: "2026-03-02T09:00:00Z", End: "2026-03-02T10:00:00Z"})

	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	result, err := client.QueryFreeBusy(context.Background(), calendar.FreeBusyRequest{
		TimeMin:     start,
		TimeMax:     start.Add(24 * time.Hour),
		CalendarIDs: []string{teamCal, "ghost@example.com"},
	})
	require.NoError(t, err)

	require.Contains(t, result, teamCal)
	assert.False(t, result[teamCal].HasErrors())
	require.Len(t, result[teamCal].Busy, 1)
	assert.Equal(t, 9, result[teamCal].Busy[0].Start.Hour())

	require.Contains(t, result, "ghost@example.com")
	require.True(t, result["ghost@example.com"].HasErrors())
	assert.Equal(t, calendar.ReasonNotFound, result["ghost@example.com"].Errors[0].Reason)
}

func TestClient_ListEvents(t *testing.T) {
	client, server := newTestClient(t)
	server.AddCalendar(&gcal.CalendarListEntry{Id: teamCal, AccessRole: "owner"})
	server.AddEvent(teamCal, &gcal.Event{Id: "late", Summary: "Retro", Start: timed("2026-03-03T15:00:00Z"), End: timed("2026-03-03T16:00:00Z")})
	server.AddEvent(teamCal, &gcal.Event{Id: "early", Summary: "Standup", Start: timed("2026-03-03T09:00:00Z"), End: timed("2026-03-03T09:15:00Z")})
	server.AddEvent(teamCal, &gcal.Event{Id: "allday", Summary: "Offsite", Start: &gcal.EventDateTime{Date: "2026-03-03"}, End: &gcal.EventDateTime{Date: "2026-03-04"}})
	server.AddEvent(teamCal, &gcal.Event{Id: "outside", Summary: "Next month", Start: timed("2026-04-01T09:00:00Z"), End: timed("2026-04-01T10:00:00Z")})

	start := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)
	query := calendar.EventQuery{CalendarID: teamCal, TimeMin: start, TimeMax: start.Add(48 * time.Hour)}

	tests := []struct {
		name     string
		mutate   func(q *calendar.EventQuery)
		expected []string
	}{
		{
			name:     "all events in range ordered by start",
			mutate:   func(q *calendar.EventQuery) {},
			expected: []string{"allday", "early", "late"},
		},
		{
			name:     "free text search",
			mutate:   func(q *calendar.EventQuery) { q.Query = "standup" },
			expected: []string{"early"},
		},
		{
			name:     "max results follows pages and stops",
			mutate:   func(q *calendar.EventQuery) { q.MaxResults = 2 },
			expected: []string{"allday", "early"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := query
			tt.mutate(&q)

			events, err := client.ListEvents(context.Background(), q)
			require.NoError(t, err)

			ids := make([]string, len(events))
			for i, e := range events {
				ids[i] = e.ID
			}
			assert.Equal(t, tt.expected, ids)
		})
	}
}

func TestClient_ListEvents_Unbounded(t *testing.T) {
	client, server := newTestClient(t)
	server.AddCalendar(&gcal.CalendarListEntry{Id: teamCal, AccessRole: "owner"})
	for _, ts := range []string{"08", "09", "10", "11", "12"} {
		server.AddEvent(teamCal, &gcal.Event{Id: "e" + ts, Start: timed("2026-03-03T" + ts + ":00:00Z")})
	}

	events, err := client.ListEvents(context.Background(), calendar.EventQuery{CalendarID: teamCal})
	require.NoError(t, err)
	assert.Len(t, events, 5)
	assert.Equal(t, "2026-03-03T08:00:00Z", events[0].Start.SortKey())
}

func TestClient_ListEvents_UnknownCalendar(t *testing.T) {
	client, _ := newTestClient(t)

	_, err := client.ListEvents(context.Background(), calendar.EventQuery{CalendarID: "nobody@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list events")
}

func TestClient_EventLifecycle(t *testing.T) {
	client, server := newTestClient(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 5, 14, 0, 0, 0, time.UTC)

	created, err := client.CreateEvent(ctx, teamCal, calendar.EventInput{
		Summary:   "Planning",
		Start:     start,
		End:       start.Add(time.Hour),
		Attendees: []string{"bob@example.com"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "2026-03-05T14:00:00Z", created.Start.DateTime)
	assert.Equal(t, "UTC", created.Start.TimeZone)
	require.Len(t, created.Attendees, 1)

	got, err := client.GetEvent(ctx, teamCal, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Planning", got.Summary)

	updated, err := client.UpdateEvent(ctx, teamCal, created.ID, calendar.EventInput{
		Location: "Room 4",
		Start:    start,
		End:      start.AddDate(0, 0, 1),
		AllDay:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Planning", updated.Summary, "unset fields keep their value")
	assert.Equal(t, "Room 4", updated.Location)
	assert.Equal(t, "2026-03-05", updated.Start.Date)
	assert.True(t, updated.Start.AllDay())

	require.NoError(t, client.DeleteEvent(ctx, teamCal, created.ID))
	assert.Empty(t, server.GetEvents(teamCal))

	err = client.DeleteEvent(ctx, teamCal, created.ID)
	assert.Error(t, err)
}
