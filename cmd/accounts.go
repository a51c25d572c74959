package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/teemow/multical/internal/google"
)

func newAccountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage the Google accounts multical queries",
		Long: `Manage the Google accounts multical queries.

Accounts are queried in the order they were added. That order breaks ties when
two accounts have the same access to a shared calendar and decides which
account 'primary' refers to.`,
	}

	cmd.AddCommand(newAccountsAddCmd())
	cmd.AddCommand(newAccountsListCmd())
	cmd.AddCommand(newAccountsRemoveCmd())
	return cmd
}

func newAccountsAddCmd() *cobra.Command {
	var (
		tokenFile string
		label     string
	)

	cmd := &cobra.Command{
		Use:   "add <account-id>",
		Short: "Add an account or replace its token",
		Long: `Add a Google account with an OAuth2 token stored as JSON.
Adding an existing account replaces its token and keeps its position.`,
		Example: `  multical accounts add jane@work.example --token-file token.json --label work`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(nil)
			if err != nil {
				return err
			}
			defer a.Close()

			return runAccountsAdd(cmd.Context(), cmd.OutOrStdout(), a, args[0], label, tokenFile)
		},
	}

	cmd.Flags().StringVar(&tokenFile, "token-file", "", "Path to the OAuth2 token JSON file (required)")
	cmd.Flags().StringVar(&label, "label", "", "Human readable label for the account")
	_ = cmd.MarkFlagRequired("token-file")
	return cmd
}

func runAccountsAdd(ctx context.Context, out io.Writer, a *app, id, label, tokenFile string) error {
	token, err := google.ReadTokenFile(tokenFile)
	if err != nil {
		return err
	}
	if err := a.store.Add(ctx, id, label, token); err != nil {
		return err
	}
	fmt.Fprintf(out, "Account %s saved\n", id)
	if token.RefreshToken == "" {
		fmt.Fprintln(out, "Warning: the token has no refresh token and stops working when it expires")
	}
	return nil
}

func newAccountsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the configured accounts in query order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(nil)
			if err != nil {
				return err
			}
			defer a.Close()

			return runAccountsList(cmd.Context(), cmd.OutOrStdout(), a)
		},
	}
}

func runAccountsList(ctx context.Context, out io.Writer, a *app) error {
	list, err := a.store.List(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(out, "No accounts configured. Add one with 'multical accounts add'.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tACCOUNT\tLABEL\tADDED")
	for i, acct := range list {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i+1, acct.ID, acct.Label, acct.CreatedAt.Format("2006-01-02"))
	}
	return w.Flush()
}

func newAccountsRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <account-id>",
		Short: "Remove an account and its token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(nil)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.store.Remove(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Account %s removed\n", args[0])
			return nil
		},
	}
}
