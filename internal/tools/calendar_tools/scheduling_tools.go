package calendar_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/multical/internal/instrumentation"
	"github.com/teemow/multical/internal/router"
	"github.com/teemow/multical/internal/server"
	"github.com/teemow/multical/internal/tools/common"
)

// RegisterSchedulingTools registers scheduling-related tools with the MCP server
func RegisterSchedulingTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	queryFreeBusyTool := mcp.NewTool("calendar_query_freebusy",
		mcp.WithDescription("Query free/busy information for calendars on any of the configured accounts. Each calendar is queried through the account with the best access to it."),
		mcp.WithString("timeMin",
			mcp.Required(),
			mcp.Description("Start time for the query (RFC3339 format)"),
		),
		mcp.WithString("timeMax",
			mcp.Required(),
			mcp.Description("End time for the query (RFC3339 format)"),
		),
		common.WithStringOrArray("calendars",
			mcp.Required(),
			mcp.Description("Calendar name or ID (string) or array of calendar names or IDs"),
		),
		withAccounts(),
	)

	s.AddTool(queryFreeBusyTool, common.InstrumentedToolHandler("calendar_query_freebusy", instrumentation.OperationFreeBusy, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleQueryFreeBusy(ctx, request, sc)
		}))

	return nil
}

func handleQueryFreeBusy(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	timeMin, err := common.GetTimeArg(args, "timeMin", true)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	timeMax, err := common.GetTimeArg(args, "timeMax", true)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	calendars, err := common.GetCalendarsFromArgs(args, "calendars")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	restrict, err := common.GetAccountsFromArgs(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	accounts, err := sc.Accounts(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(accounts) == 0 {
		return mcp.NewToolResultError(errNoAccounts.Error()), nil
	}

	res, err := sc.Router().FreeBusy(ctx, accounts, router.FreeBusyQuery{
		Calendars:          calendars,
		TimeMin:            timeMin,
		TimeMax:            timeMax,
		RestrictToAccounts: restrict,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to query free/busy: %v", err)), nil
	}
	common.RecordRouting(ctx, res.Accounts, len(res.Warnings))

	var b strings.Builder
	fmt.Fprintf(&b, "Free/Busy information for %d calendar(s):\n\n", len(res.Calendars))
	seen := make(map[string]bool, len(calendars))
	for _, ref := range calendars {
		if seen[ref] {
			continue
		}
		seen[ref] = true

		info := res.Calendars[ref]
		fmt.Fprintf(&b, "Calendar: %s\n", ref)

		if info.HasErrors() {
			reasons := make([]string, len(info.Errors))
			for i, e := range info.Errors {
				reasons[i] = e.Reason
			}
			fmt.Fprintf(&b, "  Errors: %s\n", strings.Join(reasons, ", "))
		} else if len(info.Busy) == 0 {
			b.WriteString("  Status: FREE for entire range\n")
		}

		if len(info.Busy) > 0 {
			fmt.Fprintf(&b, "  Busy periods: %d\n", len(info.Busy))
			for i, busy := range info.Busy {
				fmt.Fprintf(&b, "  %d. %s to %s\n",
					i+1,
					busy.Start.Format("2006-01-02 15:04"),
					busy.End.Format("2006-01-02 15:04"))
			}
		}
		b.WriteString("\n")
	}
	b.WriteString(formatRouting(res.Accounts, res.Warnings))

	return mcp.NewToolResultText(b.String()), nil
}
