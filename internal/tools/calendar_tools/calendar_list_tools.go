package calendar_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/multical/internal/instrumentation"
	"github.com/teemow/multical/internal/registry"
	"github.com/teemow/multical/internal/router"
	"github.com/teemow/multical/internal/server"
	"github.com/teemow/multical/internal/tools/common"
)

// RegisterCalendarListTools registers the registry tools with the MCP server
func RegisterCalendarListTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	listCalendarsTool := mcp.NewTool("calendar_list_calendars",
		mcp.WithDescription("List all calendars across the configured Google accounts. Each calendar is listed once with the account that serves it and every account that can see it."),
		withAccounts(),
	)

	s.AddTool(listCalendarsTool, common.InstrumentedToolHandler("calendar_list_calendars", instrumentation.OperationListCalendars, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListCalendars(ctx, request, sc)
		}))

	resolveTool := mcp.NewTool("calendar_resolve",
		mcp.WithDescription("Show which calendar and account a calendar name or ID resolves to, for reading and for writing"),
		mcp.WithString("calendar",
			mcp.Required(),
			mcp.Description("Calendar name, ID, or 'primary'"),
		),
		withAccounts(),
	)

	s.AddTool(resolveTool, common.InstrumentedToolHandler("calendar_resolve", instrumentation.OperationResolve, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleResolve(ctx, request, sc)
		}))

	return nil
}

func handleListCalendars(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	accounts, err := scopedAccounts(ctx, sc, request.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	calendars, err := sc.Registry().UnifiedCalendars(ctx, router.RegistryAccounts(accounts))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list calendars: %v", err)), nil
	}
	common.RecordRouting(ctx, accountIDs(accounts), 0)

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d calendar(s) across %d account(s):\n\n", len(calendars), len(accounts))
	for i, cal := range calendars {
		preferred := cal.Preferred()
		fmt.Fprintf(&b, "%d. %s\n", i+1, cal.DisplayName)
		fmt.Fprintf(&b, "   ID: %s\n", cal.CalendarID)
		fmt.Fprintf(&b, "   Account: %s (%s)\n", preferred.AccountID, preferred.AccessRole)

		var others []string
		for _, a := range cal.Accounts {
			if a.AccountID != preferred.AccountID {
				others = append(others, fmt.Sprintf("%s (%s)", a.AccountID, a.AccessRole))
			}
		}
		if len(others) > 0 {
			fmt.Fprintf(&b, "   Also visible to: %s\n", strings.Join(others, ", "))
		}
		if preferred.Primary {
			b.WriteString("   [PRIMARY]\n")
		}
		b.WriteString("\n")
	}

	return mcp.NewToolResultText(b.String()), nil
}

func handleResolve(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	ref := common.GetStringArg(args, "calendar", "")
	if ref == "" {
		return mcp.NewToolResultError("calendar is required"), nil
	}

	accounts, err := scopedAccounts(ctx, sc, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Calendar: %s\n", ref)
	for _, op := range []registry.Operation{registry.Read, registry.Write} {
		t, err := resolveTarget(ctx, sc, accounts, ref, op)
		if err != nil {
			fmt.Fprintf(&b, "  %s: %v\n", op, err)
			continue
		}
		fmt.Fprintf(&b, "  %s: %s via %s", op, t.CalendarID, t.AccountID)
		if t.AccessRole != "" {
			fmt.Fprintf(&b, " (%s)", t.AccessRole)
		}
		if t.DisplayName != "" && t.DisplayName != t.CalendarID {
			fmt.Fprintf(&b, ", %s", t.DisplayName)
		}
		b.WriteString("\n")
	}

	return mcp.NewToolResultText(b.String()), nil
}

func accountIDs(accounts []router.Account) []string {
	ids := make([]string, len(accounts))
	for i, a := range accounts {
		ids[i] = a.ID
	}
	return ids
}
