package resources

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gcal "google.golang.org/api/calendar/v3"

	"github.com/teemow/multical/internal/accounts"
	"github.com/teemow/multical/internal/calendar"
	"github.com/teemow/multical/internal/calendar/calendartest"
	"github.com/teemow/multical/internal/registry"
	"github.com/teemow/multical/internal/server"
)

type accountList []accounts.Account

func (l accountList) List(context.Context) ([]accounts.Account, error) { return l, nil }

func newServerContext(t *testing.T) *server.ServerContext {
	t.Helper()

	work := calendartest.NewServer()
	t.Cleanup(work.Close)
	work.AddCalendar(&gcal.CalendarListEntry{Id: "jane@work.example", Summary: "Work", AccessRole: "owner", Primary: true})
	work.AddCalendar(&gcal.CalendarListEntry{Id: "team@group.calendar.google.com", Summary: "Team", AccessRole: "reader"})

	home := calendartest.NewServer()
	t.Cleanup(home.Close)
	home.AddCalendar(&gcal.CalendarListEntry{Id: "team@group.calendar.google.com", Summary: "Team", AccessRole: "owner"})

	servers := map[string]*calendartest.Server{"jane@work.example": work, "jane@home.example": home}
	factory := func(ctx context.Context, id string) (server.CalendarClient, error) {
		srv, ok := servers[id]
		if !ok {
			return nil, errors.New("unknown account")
		}
		return calendar.NewClientWithOptions(ctx, id, srv.Options()...)
	}

	sc, err := server.NewServerContext(context.Background(),
		accountList{{ID: "jane@work.example"}, {ID: "jane@home.example"}}, factory, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func readRequest(uri string) mcp.ReadResourceRequest {
	req := mcp.ReadResourceRequest{}
	req.Params.URI = uri
	return req
}

func contentsText(t *testing.T, contents []mcp.ResourceContents) string {
	t.Helper()
	require.Len(t, contents, 1)
	text, ok := contents[0].(*mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, "application/json", text.MIMEType)
	return text.Text
}

func TestHandleAccounts(t *testing.T) {
	sc := newServerContext(t)

	contents, err := handleAccounts(context.Background(), readRequest(AccountsURI), sc)
	require.NoError(t, err)

	var infos []accountInfo
	require.NoError(t, json.Unmarshal([]byte(contentsText(t, contents)), &infos))
	assert.Equal(t, []accountInfo{
		{ID: "jane@work.example", Position: 1},
		{ID: "jane@home.example", Position: 2},
	}, infos)
}

func TestHandleCalendars(t *testing.T) {
	sc := newServerContext(t)

	contents, err := handleCalendars(context.Background(), readRequest(CalendarsURI), sc)
	require.NoError(t, err)

	var calendars []registry.UnifiedCalendar
	require.NoError(t, json.Unmarshal([]byte(contentsText(t, contents)), &calendars))
	require.Len(t, calendars, 2)

	for _, cal := range calendars {
		if cal.CalendarID == "team@group.calendar.google.com" {
			assert.Equal(t, "jane@home.example", cal.PreferredAccount)
			assert.Len(t, cal.Accounts, 2)
		}
	}
}

func TestRegisterCalendarResources(t *testing.T) {
	sc := newServerContext(t)
	s := mcpserver.NewMCPServer("multical-test", "test", mcpserver.WithResourceCapabilities(false, false))
	require.NoError(t, RegisterCalendarResources(s, sc))

	msg := []byte(`{"jsonrpc":"2.0","id":1,"method":"resources/read","params":{"uri":"multical://accounts"}}`)
	resp := s.HandleMessage(context.Background(), msg)

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(data), "jane@home.example")
}
