package calendar_tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/multical/internal/calendar"
	"github.com/teemow/multical/internal/instrumentation"
	"github.com/teemow/multical/internal/registry"
	"github.com/teemow/multical/internal/router"
	"github.com/teemow/multical/internal/server"
	"github.com/teemow/multical/internal/tools/batch"
	"github.com/teemow/multical/internal/tools/common"
)

const defaultMaxResults = 250

// RegisterEventTools registers event-related tools with the MCP server
func RegisterEventTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	listEventsTool := mcp.NewTool("calendar_list_events",
		mcp.WithDescription("List events of one or more calendars across the configured accounts within a time range, merged and ordered by start time"),
		common.WithStringOrArray("calendars",
			mcp.Description("Calendar name or ID (string) or array of calendar names or IDs (default: 'primary')"),
		),
		mcp.WithString("timeMin",
			mcp.Required(),
			mcp.Description("Start time for the range (RFC3339 format, e.g., '2025-01-01T00:00:00Z')"),
		),
		mcp.WithString("timeMax",
			mcp.Required(),
			mcp.Description("End time for the range (RFC3339 format, e.g., '2025-01-31T23:59:59Z')"),
		),
		mcp.WithNumber("maxResults",
			mcp.Description("Maximum number of events to return (default: 250)"),
		),
		withAccounts(),
	)

	s.AddTool(listEventsTool, common.InstrumentedToolHandler("calendar_list_events", instrumentation.OperationList, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleEvents(ctx, request, sc, router.KindList)
		}))

	searchEventsTool := mcp.NewTool("calendar_search_events",
		mcp.WithDescription("Search events by free text in one or more calendars across the configured accounts"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Free text search terms (matches summary, description, location, attendees)"),
		),
		common.WithStringOrArray("calendars",
			mcp.Description("Calendar name or ID (string) or array of calendar names or IDs (default: 'primary')"),
		),
		mcp.WithString("timeMin",
			mcp.Description("Optional start of the range (RFC3339 format)"),
		),
		mcp.WithString("timeMax",
			mcp.Description("Optional end of the range (RFC3339 format)"),
		),
		mcp.WithNumber("maxResults",
			mcp.Description("Maximum number of events to return (default: 250)"),
		),
		withAccounts(),
	)

	s.AddTool(searchEventsTool, common.InstrumentedToolHandler("calendar_search_events", instrumentation.OperationSearch, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleEvents(ctx, request, sc, router.KindSearch)
		}))

	exportTool := mcp.NewTool("calendar_export_ics",
		mcp.WithDescription("Export the events of one or more calendars across the configured accounts as an iCalendar (.ics) document"),
		common.WithStringOrArray("calendars",
			mcp.Description("Calendar name or ID (string) or array of calendar names or IDs (default: 'primary')"),
		),
		mcp.WithString("timeMin",
			mcp.Required(),
			mcp.Description("Start time for the range (RFC3339 format)"),
		),
		mcp.WithString("timeMax",
			mcp.Required(),
			mcp.Description("End time for the range (RFC3339 format)"),
		),
		mcp.WithString("name",
			mcp.Description("Calendar name written to X-WR-CALNAME"),
		),
		withAccounts(),
	)

	s.AddTool(exportTool, common.InstrumentedToolHandler("calendar_export_ics", instrumentation.OperationExport, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleExportICS(ctx, request, sc)
		}))

	getEventTool := mcp.NewTool("calendar_get_event",
		mcp.WithDescription("Get details of a specific calendar event"),
		mcp.WithString("calendar",
			mcp.Description("Calendar name or ID (default: 'primary')"),
		),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("The ID of the event to retrieve"),
		),
		withAccounts(),
	)

	s.AddTool(getEventTool, common.InstrumentedToolHandler("calendar_get_event", instrumentation.OperationGet, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetEvent(ctx, request, sc)
		}))

	// Write tools are only available when not in read-only mode
	if readOnly {
		return nil
	}

	createEventTool := mcp.NewTool("calendar_create_event",
		mcp.WithDescription("Create a new calendar event on the account that has write access to the calendar"),
		mcp.WithString("calendar",
			mcp.Description("Calendar name or ID (default: 'primary')"),
		),
		mcp.WithString("summary",
			mcp.Required(),
			mcp.Description("Event title/summary"),
		),
		mcp.WithString("description",
			mcp.Description("Event description"),
		),
		mcp.WithString("location",
			mcp.Description("Event location"),
		),
		mcp.WithString("start",
			mcp.Required(),
			mcp.Description("Start time (RFC3339 format, e.g., '2025-01-15T14:00:00Z')"),
		),
		mcp.WithString("end",
			mcp.Required(),
			mcp.Description("End time (RFC3339 format, e.g., '2025-01-15T15:00:00Z')"),
		),
		mcp.WithString("timeZone",
			mcp.Description("Time zone (e.g., 'America/New_York'). Defaults to UTC."),
		),
		mcp.WithString("attendees",
			mcp.Description("Comma-separated list of attendee email addresses"),
		),
		mcp.WithString("recurrence",
			mcp.Description("Recurrence rule (e.g., 'RRULE:FREQ=WEEKLY;BYDAY=MO,WE,FR')"),
		),
		mcp.WithString("eventType",
			mcp.Description("Event type: 'default', 'outOfOffice', 'focusTime', 'workingLocation'"),
		),
		mcp.WithBoolean("allDay",
			mcp.Description("Create as all-day event (ignores time portion of start/end)"),
		),
		withAccounts(),
	)

	s.AddTool(createEventTool, common.InstrumentedToolHandler("calendar_create_event", instrumentation.OperationCreate, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCreateEvent(ctx, request, sc)
		}))

	updateEventTool := mcp.NewTool("calendar_update_event",
		mcp.WithDescription("Update an existing calendar event. Only the given fields are changed."),
		mcp.WithString("calendar",
			mcp.Description("Calendar name or ID (default: 'primary')"),
		),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("The ID of the event to update"),
		),
		mcp.WithString("summary",
			mcp.Description("New event title/summary"),
		),
		mcp.WithString("description",
			mcp.Description("New event description"),
		),
		mcp.WithString("location",
			mcp.Description("New event location"),
		),
		mcp.WithString("start",
			mcp.Description("New start time (RFC3339 format)"),
		),
		mcp.WithString("end",
			mcp.Description("New end time (RFC3339 format)"),
		),
		mcp.WithString("timeZone",
			mcp.Description("Time zone (e.g., 'America/New_York')"),
		),
		mcp.WithString("attendees",
			mcp.Description("Comma-separated list of attendee email addresses (replaces existing)"),
		),
		withAccounts(),
	)

	s.AddTool(updateEventTool, common.InstrumentedToolHandler("calendar_update_event", instrumentation.OperationUpdate, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleUpdateEvent(ctx, request, sc)
		}))

	deleteEventTool := mcp.NewTool("calendar_delete_event",
		mcp.WithDescription("Delete one or more calendar events"),
		mcp.WithString("calendar",
			mcp.Description("Calendar name or ID (default: 'primary')"),
		),
		common.WithStringOrArray("eventIds",
			mcp.Required(),
			mcp.Description("Event ID (string) or array of event IDs to delete"),
		),
		withAccounts(),
	)

	s.AddTool(deleteEventTool, common.InstrumentedToolHandler("calendar_delete_event", instrumentation.OperationDelete, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleDeleteEvent(ctx, request, sc)
		}))

	return nil
}

// routeEvents runs a list or search route for the tool arguments.
func routeEvents(ctx context.Context, args map[string]interface{}, sc *server.ServerContext, kind router.Kind, maxResults int64) (*router.EventsResult, error) {
	calendars := []string{registry.PrimaryAlias}
	if _, ok := args["calendars"]; ok {
		parsed, err := common.GetCalendarsFromArgs(args, "calendars")
		if err != nil {
			return nil, err
		}
		calendars = parsed
	}

	required := kind == router.KindList
	timeMin, err := common.GetTimeArg(args, "timeMin", required)
	if err != nil {
		return nil, err
	}
	timeMax, err := common.GetTimeArg(args, "timeMax", required)
	if err != nil {
		return nil, err
	}

	accounts, err := sc.Accounts(ctx)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, errNoAccounts
	}
	restrict, err := common.GetAccountsFromArgs(args)
	if err != nil {
		return nil, err
	}

	return sc.Router().Events(ctx, kind, accounts, router.EventsQuery{
		Calendars:          calendars,
		TimeMin:            timeMin,
		TimeMax:            timeMax,
		Query:              common.GetStringArg(args, "query", ""),
		MaxResults:         maxResults,
		RestrictToAccounts: restrict,
	})
}

func handleEvents(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext, kind router.Kind) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	if kind == router.KindSearch && common.GetStringArg(args, "query", "") == "" {
		return mcp.NewToolResultError("query is required"), nil
	}

	res, err := routeEvents(ctx, args, sc, kind, common.GetIntArg(args, "maxResults", defaultMaxResults))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to %s events: %v", kind, err)), nil
	}
	common.RecordRouting(ctx, res.Accounts, len(res.Warnings))

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d events:\n\n", len(res.Events))
	for i, event := range res.Events {
		b.WriteString(formatEvent(i+1, event.EventSummary, event.CalendarID, event.AccountID))
		b.WriteString("\n")
	}
	b.WriteString(formatRouting(res.Accounts, res.Warnings))

	return mcp.NewToolResultText(b.String()), nil
}

func handleExportICS(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	res, err := routeEvents(ctx, args, sc, router.KindList, 0)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to export events: %v", err)), nil
	}
	common.RecordRouting(ctx, res.Accounts, len(res.Warnings))

	events := make([]calendar.ICSEvent, len(res.Events))
	for i, e := range res.Events {
		events[i] = calendar.ICSEvent{CalendarID: e.CalendarID, Event: e.EventSummary}
	}
	doc := calendar.ExportICS(common.GetStringArg(args, "name", ""), events, time.Now().UTC())

	result := mcp.NewToolResultText(doc)
	if len(res.Warnings) > 0 {
		result.Content = append(result.Content, mcp.NewTextContent(formatRouting(nil, res.Warnings)))
	}
	return result, nil
}

// eventTarget resolves the "calendar" argument of a single-event tool.
func eventTarget(ctx context.Context, args map[string]interface{}, sc *server.ServerContext, op registry.Operation) (*target, error) {
	accounts, err := scopedAccounts(ctx, sc, args)
	if err != nil {
		return nil, err
	}
	t, err := resolveTarget(ctx, sc, accounts, common.GetStringArg(args, "calendar", registry.PrimaryAlias), op)
	if err != nil {
		return nil, err
	}
	common.RecordRouting(ctx, []string{t.AccountID}, 0)
	return t, nil
}

func handleGetEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	eventID := common.GetStringArg(args, "eventId", "")
	if eventID == "" {
		return mcp.NewToolResultError("eventId is required"), nil
	}

	t, err := eventTarget(ctx, args, sc, registry.Read)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	event, err := t.Client.GetEvent(ctx, t.CalendarID, eventID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get event: %v", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Event: %s\n", event.Summary)
	fmt.Fprintf(&b, "ID: %s\n", event.ID)
	fmt.Fprintf(&b, "Calendar: %s (account %s)\n", t.CalendarID, t.AccountID)
	fmt.Fprintf(&b, "Start: %s\n", event.Start.SortKey())
	fmt.Fprintf(&b, "End: %s\n", event.End.SortKey())
	if event.Status != "" {
		fmt.Fprintf(&b, "Status: %s\n", event.Status)
	}
	if event.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", event.Description)
	}
	if event.Location != "" {
		fmt.Fprintf(&b, "Location: %s\n", event.Location)
	}
	if event.Organizer != "" {
		fmt.Fprintf(&b, "Organizer: %s\n", event.Organizer)
	}
	if event.MeetLink != "" {
		fmt.Fprintf(&b, "Google Meet: %s\n", event.MeetLink)
	}
	if event.EventType != "" {
		fmt.Fprintf(&b, "Type: %s\n", event.EventType)
	}

	if len(event.Attendees) > 0 {
		fmt.Fprintf(&b, "\nAttendees (%d):\n", len(event.Attendees))
		for _, att := range event.Attendees {
			fmt.Fprintf(&b, "  - %s (%s)", att.Email, att.ResponseStatus)
			if att.DisplayName != "" {
				fmt.Fprintf(&b, " - %s", att.DisplayName)
			}
			if att.Optional {
				b.WriteString(" [optional]")
			}
			b.WriteString("\n")
		}
	}

	return mcp.NewToolResultText(b.String()), nil
}

func handleCreateEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	input, err := parseEventInput(args, true)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	t, err := eventTarget(ctx, args, sc, registry.Write)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	event, err := t.Client.CreateEvent(ctx, t.CalendarID, input)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create event: %v", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Successfully created event: %s\n", event.Summary)
	fmt.Fprintf(&b, "ID: %s\n", event.ID)
	fmt.Fprintf(&b, "Calendar: %s (account %s)\n", t.CalendarID, t.AccountID)
	fmt.Fprintf(&b, "Start: %s\n", event.Start.SortKey())
	fmt.Fprintf(&b, "End: %s\n", event.End.SortKey())
	if event.MeetLink != "" {
		fmt.Fprintf(&b, "Google Meet: %s\n", event.MeetLink)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func handleUpdateEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	eventID := common.GetStringArg(args, "eventId", "")
	if eventID == "" {
		return mcp.NewToolResultError("eventId is required"), nil
	}

	input, err := parseEventInput(args, false)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	t, err := eventTarget(ctx, args, sc, registry.Write)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	event, err := t.Client.UpdateEvent(ctx, t.CalendarID, eventID, input)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to update event: %v", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Successfully updated event: %s\n", event.Summary)
	fmt.Fprintf(&b, "ID: %s\n", event.ID)
	fmt.Fprintf(&b, "Calendar: %s (account %s)\n", t.CalendarID, t.AccountID)
	fmt.Fprintf(&b, "Start: %s\n", event.Start.SortKey())
	fmt.Fprintf(&b, "End: %s\n", event.End.SortKey())

	return mcp.NewToolResultText(b.String()), nil
}

func handleDeleteEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	eventIDs, err := batch.ParseStringOrArray(args["eventIds"], "eventIds")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	t, err := eventTarget(ctx, args, sc, registry.Write)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	results := batch.ProcessBatch(ctx, eventIDs, func(ctx context.Context, id string) (string, error) {
		if err := t.Client.DeleteEvent(ctx, t.CalendarID, id); err != nil {
			return "", err
		}
		return "deleted", nil
	})
	for i := range results {
		results[i].Account = t.AccountID
	}

	if len(results) == 1 {
		if results[0].Status != batch.StatusSuccess {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to delete event: %s", results[0].Error)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Successfully deleted event %s from %s (account %s)", eventIDs[0], t.CalendarID, t.AccountID)), nil
	}

	summary := batch.Summarize(results, nil)
	if summary.Failed == summary.Total {
		return mcp.NewToolResultError(batch.FormatResults(results)), nil
	}
	return mcp.NewToolResultText(batch.FormatResults(results)), nil
}

