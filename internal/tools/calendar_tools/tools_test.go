package calendar_tools

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gcal "google.golang.org/api/calendar/v3"

	"github.com/teemow/multical/internal/accounts"
	"github.com/teemow/multical/internal/calendar"
	"github.com/teemow/multical/internal/calendar/calendartest"
	"github.com/teemow/multical/internal/router"
	"github.com/teemow/multical/internal/server"
	"github.com/teemow/multical/internal/tools/batch"
)

const (
	workAccount = "jane@work.example"
	homeAccount = "jane@home.example"
	teamID      = "team@group.calendar.google.com"
	holidaysID  = "en.usa#holiday@group.v.calendar.google.com"
)

type accountList []accounts.Account

func (l accountList) List(context.Context) ([]accounts.Account, error) { return l, nil }

type fixture struct {
	sc   *server.ServerContext
	work *calendartest.Server
	home *calendartest.Server
}

// newFixture sets up two accounts. Both see the Team calendar, the home
// account with write access. Holidays is read-only on the home account.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{work: calendartest.NewServer(), home: calendartest.NewServer()}
	t.Cleanup(f.work.Close)
	t.Cleanup(f.home.Close)

	f.work.AddCalendar(&gcal.CalendarListEntry{Id: workAccount, Summary: "Work", AccessRole: "owner", Primary: true})
	f.work.AddCalendar(&gcal.CalendarListEntry{Id: teamID, Summary: "Team", AccessRole: "reader"})
	f.home.AddCalendar(&gcal.CalendarListEntry{Id: homeAccount, Summary: "Home", AccessRole: "owner", Primary: true})
	f.home.AddCalendar(&gcal.CalendarListEntry{Id: teamID, Summary: "Team", AccessRole: "writer"})
	f.home.AddCalendar(&gcal.CalendarListEntry{Id: holidaysID, Summary: "Holidays in United States", AccessRole: "reader"})

	servers := map[string]*calendartest.Server{workAccount: f.work, homeAccount: f.home}
	factory := func(ctx context.Context, id string) (server.CalendarClient, error) {
		srv, ok := servers[id]
		if !ok {
			return nil, errors.New("unknown account")
		}
		client, err := calendar.NewClientWithOptions(ctx, id, srv.Options()...)
		if err != nil {
			return nil, err
		}
		return client, nil
	}

	sc, err := server.NewServerContext(context.Background(),
		accountList{{ID: workAccount}, {ID: homeAccount}}, factory, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	f.sc = sc
	return f
}

func request(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	var parts []string
	for _, c := range result.Content {
		if text, ok := c.(mcp.TextContent); ok {
			parts = append(parts, text.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func TestHandleListCalendars(t *testing.T) {
	f := newFixture(t)

	result, err := handleListCalendars(context.Background(), request(nil), f.sc)
	require.NoError(t, err)
	require.False(t, result.IsError, resultText(t, result))

	text := resultText(t, result)
	assert.Contains(t, text, "Found 4 calendar(s) across 2 account(s)")
	assert.Contains(t, text, "ID: "+teamID+"\n   Account: "+homeAccount+" (writer)\n   Also visible to: "+workAccount+" (reader)")
	assert.Equal(t, 1, strings.Count(text, "ID: "+teamID))
}

func TestHandleListCalendars_RestrictedAccounts(t *testing.T) {
	f := newFixture(t)

	result, err := handleListCalendars(context.Background(), request(map[string]interface{}{
		"accounts": workAccount,
	}), f.sc)
	require.NoError(t, err)

	text := resultText(t, result)
	assert.Contains(t, text, "Found 2 calendar(s) across 1 account(s)")
	assert.Contains(t, text, "Account: "+workAccount+" (reader)")
	assert.Equal(t, 0, f.home.Calls(calendartest.EndpointCalendarList))
}

func TestHandleListCalendars_UnknownAccount(t *testing.T) {
	f := newFixture(t)

	result, err := handleListCalendars(context.Background(), request(map[string]interface{}{
		"accounts": "someone@else.example",
	}), f.sc)
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "none of the requested accounts are configured")
}

func TestMalformedAccountsArgument(t *testing.T) {
	values := []struct {
		name     string
		accounts interface{}
	}{
		{"number", 42},
		{"array with number", []interface{}{7}},
	}
	handlers := []struct {
		name string
		call func(sc *server.ServerContext, args map[string]interface{}) (*mcp.CallToolResult, error)
		args map[string]interface{}
	}{
		{
			name: "list calendars",
			call: func(sc *server.ServerContext, args map[string]interface{}) (*mcp.CallToolResult, error) {
				return handleListCalendars(context.Background(), request(args), sc)
			},
			args: map[string]interface{}{},
		},
		{
			name: "list events",
			call: func(sc *server.ServerContext, args map[string]interface{}) (*mcp.CallToolResult, error) {
				return handleEvents(context.Background(), request(args), sc, router.KindList)
			},
			args: map[string]interface{}{"timeMin": "2026-03-02T00:00:00Z", "timeMax": "2026-03-03T00:00:00Z"},
		},
		{
			name: "free busy",
			call: func(sc *server.ServerContext, args map[string]interface{}) (*mcp.CallToolResult, error) {
				return handleQueryFreeBusy(context.Background(), request(args), sc)
			},
			args: map[string]interface{}{"calendars": "Work", "timeMin": "2026-03-02T00:00:00Z", "timeMax": "2026-03-03T00:00:00Z"},
		},
	}

	for _, h := range handlers {
		for _, v := range values {
			t.Run(h.name+"/"+v.name, func(t *testing.T) {
				f := newFixture(t)
				args := map[string]interface{}{"accounts": v.accounts}
				for k, val := range h.args {
					args[k] = val
				}

				result, err := h.call(f.sc, args)
				require.NoError(t, err)
				assert.True(t, result.IsError, resultText(t, result))
				assert.Contains(t, resultText(t, result), "accounts")
				assert.Equal(t, 0, f.work.Calls(calendartest.EndpointCalendarList))
				assert.Equal(t, 0, f.home.Calls(calendartest.EndpointCalendarList))
			})
		}
	}
}

func TestHandleResolve(t *testing.T) {
	tests := []struct {
		name     string
		calendar string
		contains []string
	}{
		{
			name:     "shared calendar resolves to writer",
			calendar: "Team",
			contains: []string{
				"read: " + teamID + " via " + homeAccount + " (writer)",
				"write: " + teamID + " via " + homeAccount + " (writer)",
			},
		},
		{
			name:     "read-only calendar",
			calendar: "holidays in united states",
			contains: []string{
				"read: " + holidaysID + " via " + homeAccount + " (reader)",
				`write: no write access to calendar "holidays in united states", it is visible to: ` + homeAccount + " (reader)",
			},
		},
		{
			name:     "unknown calendar",
			calendar: "Gym",
			contains: []string{"read: calendar not found: Gym"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			result, err := handleResolve(context.Background(), request(map[string]interface{}{
				"calendar": tt.calendar,
			}), f.sc)
			require.NoError(t, err)

			text := resultText(t, result)
			for _, want := range tt.contains {
				assert.Contains(t, text, want)
			}
		})
	}
}

func TestHandleQueryFreeBusy(t *testing.T) {
	f := newFixture(t)
	f.work.SetBusy(workAccount, &gcal.TimePeriod{Start: "2026-03-02T09:00:00Z", End: "2026-03-02T10:00:00Z"})
	f.home.SetBusy(teamID, &gcal.TimePeriod{Start: "2026-03-02T12:00:00Z", End: "2026-03-02T13:00:00Z"})

	result, err := handleQueryFreeBusy(context.Background(), request(map[string]interface{}{
		"timeMin":   "2026-03-02T00:00:00Z",
		"timeMax":   "2026-03-03T00:00:00Z",
		"calendars": []interface{}{"Work", "Team", "Gym"},
	}), f.sc)
	require.NoError(t, err)
	require.False(t, result.IsError, resultText(t, result))

	text := resultText(t, result)
	assert.Contains(t, text, "Calendar: Work\n  Busy periods: 1\n  1. 2026-03-02 09:00 to 2026-03-02 10:00")
	assert.Contains(t, text, "Calendar: Team\n  Busy periods: 1\n  1. 2026-03-02 12:00 to 2026-03-02 13:00")
	assert.Contains(t, text, "Calendar: Gym\n  Errors: notFound")
	assert.Contains(t, text, "Accounts: "+workAccount+", "+homeAccount)
	assert.Contains(t, text, `Calendar "Gym" not found on any account`)

	// The shared calendar is only queried through the home account.
	assert.Equal(t, 1, f.work.Calls(calendartest.EndpointFreeBusy))
	assert.Equal(t, 1, f.home.Calls(calendartest.EndpointFreeBusy))
}

func TestHandleQueryFreeBusy_Validation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		args map[string]interface{}
		want string
	}{
		{"missing timeMin", map[string]interface{}{"timeMax": "2026-03-03T00:00:00Z", "calendars": "Work"}, "timeMin is required"},
		{"bad timeMax", map[string]interface{}{"timeMin": "2026-03-02T00:00:00Z", "timeMax": "tomorrow", "calendars": "Work"}, "invalid timeMax format"},
		{"missing calendars", map[string]interface{}{"timeMin": "2026-03-02T00:00:00Z", "timeMax": "2026-03-03T00:00:00Z"}, "calendars is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := handleQueryFreeBusy(context.Background(), request(tt.args), f.sc)
			require.NoError(t, err)
			assert.True(t, result.IsError)
			assert.Contains(t, resultText(t, result), tt.want)
		})
	}
}

func TestHandleListEvents_MergesAccounts(t *testing.T) {
	f := newFixture(t)
	f.work.AddEvent(workAccount, &gcal.Event{Id: "w1", Summary: "Standup", Start: &gcal.EventDateTime{DateTime: "2026-03-02T09:00:00Z"}, End: &gcal.EventDateTime{DateTime: "2026-03-02T09:15:00Z"}})
	f.home.AddEvent(teamID, &gcal.Event{Id: "t1", Summary: "Offsite", Start: &gcal.EventDateTime{Date: "2026-03-02"}, End: &gcal.EventDateTime{Date: "2026-03-03"}})
	f.home.AddEvent(teamID, &gcal.Event{Id: "t2", Summary: "Retro", Start: &gcal.EventDateTime{DateTime: "2026-03-02T15:00:00Z"}, End: &gcal.EventDateTime{DateTime: "2026-03-02T16:00:00Z"}})

	result, err := handleEvents(context.Background(), request(map[string]interface{}{
		"calendars": []interface{}{"Work", "Team"},
		"timeMin":   "2026-03-02T00:00:00Z",
		"timeMax":   "2026-03-03T00:00:00Z",
	}), f.sc, router.KindList)
	require.NoError(t, err)
	require.False(t, result.IsError, resultText(t, result))

	text := resultText(t, result)
	assert.Contains(t, text, "Found 3 events")
	// A bare date sorts before any timestamp on the same day.
	offsite := strings.Index(text, "Offsite")
	standup := strings.Index(text, "Standup")
	retro := strings.Index(text, "Retro")
	assert.True(t, offsite < standup && standup < retro, "events not ordered by start: %s", text)
	assert.Contains(t, text, "Calendar: "+teamID+" (account "+homeAccount+")")
}

func TestHandleSearchEvents(t *testing.T) {
	f := newFixture(t)
	f.work.AddEvent(workAccount, &gcal.Event{Id: "w1", Summary: "Planning", Start: &gcal.EventDateTime{DateTime: "2026-03-02T09:00:00Z"}})
	f.work.AddEvent(workAccount, &gcal.Event{Id: "w2", Summary: "Lunch", Start: &gcal.EventDateTime{DateTime: "2026-03-02T12:00:00Z"}})
	f.home.AddEvent(homeAccount, &gcal.Event{Id: "h1", Summary: "Trip planning", Start: &gcal.EventDateTime{DateTime: "2026-03-04T18:00:00Z"}})
	f.home.FailWith(calendartest.EndpointEvents, http.StatusForbidden)

	result, err := handleEvents(context.Background(), request(map[string]interface{}{
		"query":     "planning",
		"calendars": []interface{}{workAccount, homeAccount},
	}), f.sc, router.KindSearch)
	require.NoError(t, err)
	require.False(t, result.IsError, resultText(t, result))

	text := resultText(t, result)
	assert.Contains(t, text, "Found 1 events")
	assert.Contains(t, text, "Planning")
	assert.NotContains(t, text, "Lunch")
	assert.Contains(t, text, `Account "`+homeAccount+`" failed for calendar(s) `+homeAccount)
}

func TestHandleSearchEvents_RequiresQuery(t *testing.T) {
	f := newFixture(t)

	result, err := handleEvents(context.Background(), request(map[string]interface{}{
		"calendars": "Work",
	}), f.sc, router.KindSearch)
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "query is required")
}

func TestHandleListEvents_NoCalendarsResolved(t *testing.T) {
	f := newFixture(t)

	result, err := handleEvents(context.Background(), request(map[string]interface{}{
		"calendars": []interface{}{"Gym", "Choir"},
		"timeMin":   "2026-03-02T00:00:00Z",
		"timeMax":   "2026-03-03T00:00:00Z",
	}), f.sc, router.KindList)
	require.NoError(t, err)
	assert.True(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "none of the requested calendars were found: Gym, Choir")
	assert.Contains(t, text, "Team ("+teamID+")")
}

func TestHandleExportICS(t *testing.T) {
	f := newFixture(t)
	f.work.AddEvent(workAccount, &gcal.Event{Id: "w1", Summary: "Standup", Start: &gcal.EventDateTime{DateTime: "2026-03-02T09:00:00Z"}, End: &gcal.EventDateTime{DateTime: "2026-03-02T09:15:00Z"}})
	f.home.AddEvent(teamID, &gcal.Event{Id: "t1", Summary: "Offsite", Start: &gcal.EventDateTime{Date: "2026-03-02"}, End: &gcal.EventDateTime{Date: "2026-03-03"}})

	result, err := handleExportICS(context.Background(), request(map[string]interface{}{
		"calendars": []interface{}{"Work", "Team", "Gym"},
		"timeMin":   "2026-03-02T00:00:00Z",
		"timeMax":   "2026-03-03T00:00:00Z",
		"name":      "Everything",
	}), f.sc)
	require.NoError(t, err)
	require.False(t, result.IsError, resultText(t, result))
	require.Len(t, result.Content, 2)

	doc := result.Content[0].(mcp.TextContent).Text
	assert.Contains(t, doc, "BEGIN:VCALENDAR")
	assert.Contains(t, doc, "X-WR-CALNAME:Everything")
	assert.Contains(t, doc, "UID:w1@"+workAccount)
	assert.Contains(t, doc, "UID:t1@"+teamID)
	assert.Contains(t, result.Content[1].(mcp.TextContent).Text, `Calendar "Gym" not found on any account`)
}

func TestHandleGetEvent(t *testing.T) {
	f := newFixture(t)
	f.home.AddEvent(teamID, &gcal.Event{
		Id:        "t1",
		Summary:   "Retro",
		Start:     &gcal.EventDateTime{DateTime: "2026-03-02T15:00:00Z"},
		End:       &gcal.EventDateTime{DateTime: "2026-03-02T16:00:00Z"},
		Attendees: []*gcal.EventAttendee{{Email: "bob@work.example", ResponseStatus: "accepted"}},
	})

	result, err := handleGetEvent(context.Background(), request(map[string]interface{}{
		"calendar": "Team",
		"eventId":  "t1",
	}), f.sc)
	require.NoError(t, err)
	require.False(t, result.IsError, resultText(t, result))

	text := resultText(t, result)
	assert.Contains(t, text, "Event: Retro")
	assert.Contains(t, text, "Calendar: "+teamID+" (account "+homeAccount+")")
	assert.Contains(t, text, "bob@work.example (accepted)")
}

func TestHandleCreateEvent_RoutesToWriter(t *testing.T) {
	f := newFixture(t)

	result, err := handleCreateEvent(context.Background(), request(map[string]interface{}{
		"calendar":  "Team",
		"summary":   "Planning",
		"start":     "2026-03-05T10:00:00Z",
		"end":       "2026-03-05T11:00:00Z",
		"attendees": "bob@work.example, carol@work.example",
	}), f.sc)
	require.NoError(t, err)
	require.False(t, result.IsError, resultText(t, result))
	assert.Contains(t, resultText(t, result), "(account "+homeAccount+")")

	created := f.home.GetEvents(teamID)
	require.Len(t, created, 1)
	assert.Equal(t, "Planning", created[0].Summary)
	assert.Len(t, created[0].Attendees, 2)
	assert.Empty(t, f.work.GetEvents(teamID))
}

func TestHandleCreateEvent_NoWriteAccess(t *testing.T) {
	f := newFixture(t)

	result, err := handleCreateEvent(context.Background(), request(map[string]interface{}{
		"calendar": "Holidays in United States",
		"summary":  "Day off",
		"start":    "2026-07-03T00:00:00Z",
		"end":      "2026-07-04T00:00:00Z",
	}), f.sc)
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "no write access to calendar")
	assert.Contains(t, resultText(t, result), homeAccount+" (reader)")
	assert.Empty(t, f.home.GetEvents(holidaysID))
}

func TestHandleCreateEvent_SingleAccountReadOnlyCalendarID(t *testing.T) {
	f := newFixture(t)

	result, err := handleCreateEvent(context.Background(), request(map[string]interface{}{
		"accounts": homeAccount,
		"calendar": holidaysID,
		"summary":  "Day off",
		"start":    "2026-07-03T00:00:00Z",
		"end":      "2026-07-04T00:00:00Z",
	}), f.sc)
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "no write access to calendar")
	assert.Contains(t, resultText(t, result), homeAccount+" (reader)")
	assert.Empty(t, f.home.GetEvents(holidaysID))
}

func TestHandleDeleteEvent_SingleAccountReadOnlyCalendarID(t *testing.T) {
	f := newFixture(t)
	f.home.AddEvent(holidaysID, &gcal.Event{Id: "h1", Summary: "Independence Day"})

	result, err := handleDeleteEvent(context.Background(), request(map[string]interface{}{
		"accounts": homeAccount,
		"calendar": holidaysID,
		"eventIds": "h1",
	}), f.sc)
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "no write access to calendar")
	assert.Len(t, f.home.GetEvents(holidaysID), 1)
}

func TestHandleCreateEvent_Validation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		args map[string]interface{}
		want string
	}{
		{"missing summary", map[string]interface{}{"start": "2026-03-05T10:00:00Z", "end": "2026-03-05T11:00:00Z"}, "summary is required"},
		{"missing start", map[string]interface{}{"summary": "x", "end": "2026-03-05T11:00:00Z"}, "start is required"},
		{"end before start", map[string]interface{}{"summary": "x", "start": "2026-03-05T11:00:00Z", "end": "2026-03-05T10:00:00Z"}, "end must not be before start"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := handleCreateEvent(context.Background(), request(tt.args), f.sc)
			require.NoError(t, err)
			assert.True(t, result.IsError)
			assert.Contains(t, resultText(t, result), tt.want)
		})
	}
}

func TestHandleUpdateEvent(t *testing.T) {
	f := newFixture(t)
	f.work.AddEvent(workAccount, &gcal.Event{Id: "w1", Summary: "Standup", Start: &gcal.EventDateTime{DateTime: "2026-03-02T09:00:00Z"}, End: &gcal.EventDateTime{DateTime: "2026-03-02T09:15:00Z"}})

	result, err := handleUpdateEvent(context.Background(), request(map[string]interface{}{
		"calendar": "Work",
		"eventId":  "w1",
		"location": "Room 4",
	}), f.sc)
	require.NoError(t, err)
	require.False(t, result.IsError, resultText(t, result))

	events := f.work.GetEvents(workAccount)
	require.Len(t, events, 1)
	assert.Equal(t, "Standup", events[0].Summary)
	assert.Equal(t, "Room 4", events[0].Location)
}

func TestHandleDeleteEvent_Batch(t *testing.T) {
	f := newFixture(t)
	f.home.AddEvent(teamID, &gcal.Event{Id: "t1", Summary: "Retro"})
	f.home.AddEvent(teamID, &gcal.Event{Id: "t2", Summary: "Planning"})

	result, err := handleDeleteEvent(context.Background(), request(map[string]interface{}{
		"calendar": "Team",
		"eventIds": []interface{}{"t1", "missing", "t2"},
	}), f.sc)
	require.NoError(t, err)
	require.False(t, result.IsError, resultText(t, result))

	var br batch.BatchResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &br))
	assert.Equal(t, 3, br.Total)
	assert.Equal(t, 2, br.Successful)
	assert.Equal(t, 1, br.Failed)
	assert.Equal(t, "missing", br.Results[1].ID)
	assert.Equal(t, homeAccount, br.Results[0].Account)
	assert.Empty(t, f.home.GetEvents(teamID))
}

func TestHandleDeleteEvent_Single(t *testing.T) {
	f := newFixture(t)
	f.work.AddEvent(workAccount, &gcal.Event{Id: "w1", Summary: "Standup"})

	result, err := handleDeleteEvent(context.Background(), request(map[string]interface{}{
		"calendar": workAccount,
		"eventIds": "w1",
	}), f.sc)
	require.NoError(t, err)
	require.False(t, result.IsError, resultText(t, result))
	assert.Contains(t, resultText(t, result), "Successfully deleted event w1")
	assert.Empty(t, f.work.GetEvents(workAccount))
}

func TestRegisterCalendarTools_ReadOnly(t *testing.T) {
	writeTools := []string{"calendar_create_event", "calendar_update_event", "calendar_delete_event"}
	readTools := []string{
		"calendar_list_calendars", "calendar_resolve", "calendar_query_freebusy",
		"calendar_list_events", "calendar_search_events", "calendar_export_ics", "calendar_get_event",
	}

	tests := []struct {
		name     string
		readOnly bool
	}{
		{"read only", true},
		{"yolo", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			s := mcpserver.NewMCPServer("multical-test", "0.0.0", mcpserver.WithToolCapabilities(true))
			require.NoError(t, RegisterCalendarTools(s, f.sc, tt.readOnly))

			names := listToolNames(t, s)
			for _, name := range readTools {
				assert.Contains(t, names, name)
			}
			for _, name := range writeTools {
				if tt.readOnly {
					assert.NotContains(t, names, name)
				} else {
					assert.Contains(t, names, name)
				}
			}
		})
	}
}

func listToolNames(t *testing.T, s *mcpserver.MCPServer) []string {
	t.Helper()

	resp := s.HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))

	names := make([]string, len(decoded.Result.Tools))
	for i, tool := range decoded.Result.Tools {
		names[i] = tool.Name
	}
	return names
}
