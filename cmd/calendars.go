package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/teemow/multical/internal/registry"
	"github.com/teemow/multical/internal/router"
	"github.com/teemow/multical/internal/server"
)

func newCalendarsCmd() *cobra.Command {
	var (
		accountList string
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "calendars",
		Short: "Show the calendars of all accounts as one list",
		Long: `Show the calendars of all configured accounts as one list. A calendar
visible to several accounts is shown once, with the account that serves it
and the accounts that can also see it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(false)
			a, err := openApp(logger)
			if err != nil {
				return err
			}
			defer a.Close()

			sc, err := a.newServerContext(cmd.Context(), parseCommaSeparatedList(accountList), nil, nil)
			if err != nil {
				return err
			}
			defer func() { _ = sc.Shutdown() }()

			return runCalendars(cmd.Context(), cmd.OutOrStdout(), sc, asJSON)
		},
	}

	cmd.Flags().StringVar(&accountList, "accounts", "", "Comma-separated list of account IDs. Defaults to all accounts.")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the unified calendar list as JSON")
	return cmd
}

func runCalendars(ctx context.Context, out io.Writer, sc *server.ServerContext, asJSON bool) error {
	accts, err := sc.Accounts(ctx)
	if err != nil {
		return err
	}
	if len(accts) == 0 {
		return fmt.Errorf("no Google accounts configured, add one with 'multical accounts add'")
	}

	calendars, err := sc.Registry().UnifiedCalendars(ctx, router.RegistryAccounts(accts))
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(calendars)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tID\tACCOUNT\tALSO VISIBLE TO")
	for _, cal := range calendars {
		preferred := cal.Preferred()
		name := cal.DisplayName
		if preferred.Primary {
			name += " (primary)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s (%s)\t%s\n", name, cal.CalendarID, preferred.AccountID, preferred.AccessRole, otherAccounts(cal, preferred))
	}
	return w.Flush()
}

func otherAccounts(cal registry.UnifiedCalendar, preferred registry.CalendarAccess) string {
	var others []string
	for _, a := range cal.Accounts {
		if a.AccountID != preferred.AccountID {
			others = append(others, a.AccountID)
		}
	}
	if len(others) == 0 {
		return "-"
	}
	return strings.Join(others, ", ")
}
