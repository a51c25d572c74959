package calendar_tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/multical/internal/calendar"
	"github.com/teemow/multical/internal/registry"
	"github.com/teemow/multical/internal/router"
	"github.com/teemow/multical/internal/server"
	"github.com/teemow/multical/internal/tools/common"
)

// errNoAccounts is returned when no account is configured or none matches
// the requested restriction.
var errNoAccounts = errors.New("no Google accounts configured, add one with 'multical accounts add'")

// withAccounts adds the shared "accounts" argument to a tool.
func withAccounts() mcp.ToolOption {
	return common.WithStringOrArray("accounts",
		mcp.Description("Account ID (string) or array of account IDs to restrict routing to. Defaults to all configured accounts."),
	)
}

// RegisterCalendarTools registers all Calendar tools with the MCP server.
// Tools that modify events are only registered when readOnly is false.
func RegisterCalendarTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	if err := RegisterCalendarListTools(s, sc); err != nil {
		return fmt.Errorf("failed to register calendar list tools: %w", err)
	}

	if err := RegisterSchedulingTools(s, sc); err != nil {
		return fmt.Errorf("failed to register scheduling tools: %w", err)
	}

	if err := RegisterEventTools(s, sc, readOnly); err != nil {
		return fmt.Errorf("failed to register event tools: %w", err)
	}

	return nil
}

// scopedAccounts returns the configured accounts, restricted to the ones named
// in the "accounts" argument.
func scopedAccounts(ctx context.Context, sc *server.ServerContext, args map[string]interface{}) ([]router.Account, error) {
	all, err := sc.Accounts(ctx)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, errNoAccounts
	}

	restrict, err := common.GetAccountsFromArgs(args)
	if err != nil {
		return nil, err
	}
	if len(restrict) == 0 {
		return all, nil
	}

	scoped := registry.FilterByID(all, restrict, func(a router.Account) string { return a.ID })
	if len(scoped) == 0 {
		return nil, fmt.Errorf("none of the requested accounts are configured: %s", strings.Join(restrict, ", "))
	}
	return scoped, nil
}

// target is a single calendar resolved for an event operation.
type target struct {
	registry.Resolution
	Client server.CalendarClient
}

// resolveTarget resolves ref to one calendar and the account that serves op.
// With a single account in scope a calendar ID the account does not list is
// used verbatim. A listed calendar still needs the access op requires.
func resolveTarget(ctx context.Context, sc *server.ServerContext, accounts []router.Account, ref string, op registry.Operation) (*target, error) {
	reg := sc.Registry()
	regAccounts := router.RegistryAccounts(accounts)

	res, ok, err := reg.ResolveCalendar(ctx, ref, regAccounts, op)
	if err != nil {
		return nil, err
	}
	if !ok {
		if len(accounts) != 1 || !strings.Contains(ref, "@") {
			return nil, unresolved(ctx, reg, regAccounts, ref, op)
		}
		known, err := reg.AccountsForCalendar(ctx, ref, regAccounts)
		if err != nil {
			return nil, err
		}
		if len(known) > 0 {
			return nil, unresolved(ctx, reg, regAccounts, ref, op)
		}
		res = registry.Resolution{CalendarID: ref, AccountID: accounts[0].ID}
	}

	client, err := sc.Client(ctx, res.AccountID)
	if err != nil {
		return nil, err
	}
	return &target{Resolution: res, Client: client}, nil
}

// unresolved explains why ref did not resolve for op.
func unresolved(ctx context.Context, reg *registry.Registry, accounts []registry.Account, ref string, op registry.Operation) error {
	if op != registry.Write {
		return fmt.Errorf("%w: %s", router.ErrCalendarNotFound, ref)
	}

	// The name may still resolve for reading, which tells us the calendar ID.
	calendarID := ref
	if res, ok, err := reg.ResolveCalendar(ctx, ref, accounts, registry.Read); err == nil && ok {
		calendarID = res.CalendarID
	}
	access, err := reg.AccountsForCalendar(ctx, calendarID, accounts)
	if err != nil || len(access) == 0 {
		return fmt.Errorf("%w: %s", router.ErrCalendarNotFound, ref)
	}

	visible := make([]string, len(access))
	for i, a := range access {
		visible[i] = fmt.Sprintf("%s (%s)", a.AccountID, a.AccessRole)
	}
	return fmt.Errorf("no write access to calendar %q, it is visible to: %s", ref, strings.Join(visible, ", "))
}

// formatEvent renders one event the way all event tools do.
func formatEvent(i int, e calendar.EventSummary, calendarID, accountID string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d. %s\n", i, e.Summary)
	fmt.Fprintf(&b, "   ID: %s\n", e.ID)
	fmt.Fprintf(&b, "   Start: %s\n", e.Start.SortKey())
	fmt.Fprintf(&b, "   End: %s\n", e.End.SortKey())
	if calendarID != "" {
		fmt.Fprintf(&b, "   Calendar: %s (account %s)\n", calendarID, accountID)
	}
	if e.Location != "" {
		fmt.Fprintf(&b, "   Location: %s\n", e.Location)
	}
	if e.MeetLink != "" {
		fmt.Fprintf(&b, "   Meet: %s\n", e.MeetLink)
	}
	if len(e.Attendees) > 0 {
		fmt.Fprintf(&b, "   Attendees: %d\n", len(e.Attendees))
	}
	return b.String()
}

// formatRouting renders the participating accounts and warnings of a routed
// answer.
func formatRouting(accounts, warnings []string) string {
	var b strings.Builder
	if len(accounts) > 0 {
		fmt.Fprintf(&b, "Accounts: %s\n", strings.Join(accounts, ", "))
	}
	if len(warnings) > 0 {
		b.WriteString("\nWarnings:\n")
		for _, w := range warnings {
			fmt.Fprintf(&b, "  - %s\n", w)
		}
	}
	return b.String()
}

// parseEventInput reads the event fields shared by create and update.
func parseEventInput(args map[string]interface{}, required bool) (calendar.EventInput, error) {
	input := calendar.EventInput{
		Summary:     common.GetStringArg(args, "summary", ""),
		Description: common.GetStringArg(args, "description", ""),
		Location:    common.GetStringArg(args, "location", ""),
		TimeZone:    common.GetStringArg(args, "timeZone", ""),
		EventType:   common.GetStringArg(args, "eventType", ""),
		AllDay:      common.GetBoolArg(args, "allDay"),
	}
	if required && input.Summary == "" {
		return input, fmt.Errorf("summary is required")
	}

	var err error
	if input.Start, err = common.GetTimeArg(args, "start", required); err != nil {
		return input, err
	}
	if input.End, err = common.GetTimeArg(args, "end", required); err != nil {
		return input, err
	}
	if !input.Start.IsZero() && !input.End.IsZero() && input.End.Before(input.Start) {
		return input, fmt.Errorf("end must not be before start")
	}

	if attendees := common.GetStringArg(args, "attendees", ""); attendees != "" {
		for _, a := range strings.Split(attendees, ",") {
			if a = strings.TrimSpace(a); a != "" {
				input.Attendees = append(input.Attendees, a)
			}
		}
	}
	if recurrence := common.GetStringArg(args, "recurrence", ""); recurrence != "" {
		input.Recurrence = []string{recurrence}
	}
	return input, nil
}
