package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mmynk/splitledger/internal/ledger"
)

func (a *app) newBalancesCmd() *cobra.Command {
	var settle bool

	cmd := &cobra.Command{
		Use:   "balances",
		Short: "Show every user's net balance",
		Long: `Show every user's net balance: total paid minus total owed.
A positive balance means the group owes the user.

Example:
  splitledger balances
  splitledger balances --settle -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLedger(func(l *ledger.Ledger) error {
				sheet, err := l.BalanceSheet(contextOf(cmd))
				if err != nil {
					return err
				}

				names := userNames(sheet.Users)
				v := balancesView{Balances: make([]balanceView, len(sheet.Balances))}
				for i, b := range sheet.Balances {
					v.Balances[i] = toBalanceView(b, names)
				}
				if settle {
					for _, e := range sheet.Settlements {
						v.Settlements = append(v.Settlements, toSettlementView(e, names))
					}
				}

				return a.printer(cmd).print(v, func(tw *tabwriter.Writer) {
					fmt.Fprintln(tw, "ID\tNAME\tPAID\tOWED\tNET")
					for _, b := range v.Balances {
						fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", b.UserID, b.Name, b.Paid, b.Owed, b.Net)
					}
					if !settle {
						return
					}
					fmt.Fprintln(tw)
					if len(v.Settlements) == 0 {
						fmt.Fprintln(tw, "All settled up.")
						return
					}
					fmt.Fprintln(tw, "FROM\tTO\tAMOUNT")
					for _, s := range v.Settlements {
						fmt.Fprintf(tw, "%s\t%s\t%s\n", s.FromName, s.ToName, s.Amount)
					}
				})
			})
		},
	}
	cmd.Flags().BoolVar(&settle, "settle", false, "also suggest payments that settle all balances")
	return cmd
}
