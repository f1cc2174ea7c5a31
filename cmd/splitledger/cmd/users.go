package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mmynk/splitledger/internal/ledger"
)

func (a *app) newUsersCmd() *cobra.Command {
	usersCmd := &cobra.Command{
		Use:   "users",
		Short: "List and register users",
	}
	usersCmd.AddCommand(a.newUsersListCmd(), a.newUsersAddCmd())
	return usersCmd
}

func (a *app) newUsersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLedger(func(l *ledger.Ledger) error {
				users, err := l.ListUsers(contextOf(cmd))
				if err != nil {
					return err
				}

				views := make([]userView, len(users))
				for i, u := range users {
					views[i] = toUserView(u)
				}
				return a.printer(cmd).print(views, func(tw *tabwriter.Writer) {
					fmt.Fprintln(tw, "ID\tNAME\tEMAIL")
					for _, u := range views {
						fmt.Fprintf(tw, "%d\t%s\t%s\n", u.ID, u.Name, u.Email)
					}
				})
			})
		},
	}
}

func (a *app) newUsersAddCmd() *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a user",
		Long: `Register a user. Emails are unique ignoring case.

Example:
  splitledger users add --name Alice --email alice@example.com --password s3cret`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLedger(func(l *ledger.Ledger) error {
				u, err := l.AddUser(contextOf(cmd), name, email, password)
				if err != nil {
					return err
				}
				v := toUserView(u)
				return a.printer(cmd).print(v, func(tw *tabwriter.Writer) {
					fmt.Fprintf(tw, "Added user %d\t%s <%s>\n", v.ID, v.Name, v.Email)
				})
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name (required)")
	cmd.Flags().StringVar(&email, "email", "", "email address (required)")
	cmd.Flags().StringVar(&password, "password", "", "password, stored hashed")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// contextOf returns the command context, or Background when run without one.
func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
