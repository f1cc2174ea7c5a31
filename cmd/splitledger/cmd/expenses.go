package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
)

func (a *app) newExpensesCmd() *cobra.Command {
	expensesCmd := &cobra.Command{
		Use:   "expenses",
		Short: "List, record and preview expenses",
	}
	expensesCmd.AddCommand(
		a.newExpensesListCmd(),
		a.newExpensesAddCmd(),
		a.newExpensesPreviewCmd(),
	)
	return expensesCmd
}

func (a *app) newExpensesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all expenses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLedger(func(l *ledger.Ledger) error {
				ctx := contextOf(cmd)
				users, err := l.ListUsers(ctx)
				if err != nil {
					return err
				}
				expenses, err := l.ListExpenses(ctx)
				if err != nil {
					return err
				}

				names := userNames(users)
				views := make([]expenseView, len(expenses))
				for i, e := range expenses {
					views[i] = toExpenseView(e, names)
				}
				return a.printer(cmd).print(views, func(tw *tabwriter.Writer) {
					fmt.Fprintln(tw, "ID\tDATE\tDESCRIPTION\tAMOUNT\tPAID BY\tSPLIT")
					for _, e := range views {
						fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
							e.ID, e.Date, e.Description, e.Amount, names[e.PaidBy], e.SplitType)
					}
				})
			})
		},
	}
}

// expenseFlags are shared by expenses add and expenses preview.
type expenseFlags struct {
	description string
	amount      string
	paidBy      int64
	policy      string
	shares      []string
}

func (f *expenseFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.description, "description", "", "what the expense was for")
	cmd.Flags().StringVar(&f.amount, "amount", "", "total amount paid (required)")
	cmd.Flags().Int64Var(&f.paidBy, "paid-by", 0, "id of the user who paid (required)")
	cmd.Flags().StringVar(&f.policy, "policy", string(models.SplitEqual), "split policy: "+policyNames())
	cmd.Flags().StringArrayVar(&f.shares, "share", nil, "per-user amount or percentage as id=value (repeatable)")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("paid-by")
}

func (f *expenseFlags) input() (ledger.ExpenseInput, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(f.amount))
	if err != nil {
		return ledger.ExpenseInput{}, fmt.Errorf("invalid --amount %q: %w", f.amount, err)
	}
	inputs, err := parseShares(f.shares)
	if err != nil {
		return ledger.ExpenseInput{}, err
	}
	return ledger.ExpenseInput{
		Description: f.description,
		Amount:      amount,
		PaidBy:      f.paidBy,
		Policy:      f.policy,
		Inputs:      inputs,
	}, nil
}

// parseShares turns ["2=40", "3=12.5"] into per-user values. An empty value counts as zero.
func parseShares(raw []string) (map[int64]decimal.Decimal, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[int64]decimal.Decimal, len(raw))
	for _, s := range raw {
		key, value, ok := strings.Cut(s, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --share %q: want id=value", s)
		}
		id, err := strconv.ParseInt(strings.TrimSpace(key), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid --share %q: bad user id: %w", s, err)
		}
		if _, dup := out[id]; dup {
			return nil, fmt.Errorf("invalid --share %q: user %d given twice", s, id)
		}
		v := decimal.Zero
		if value = strings.TrimSpace(value); value != "" {
			if v, err = decimal.NewFromString(value); err != nil {
				return nil, fmt.Errorf("invalid --share %q: bad value: %w", s, err)
			}
		}
		out[id] = v
	}
	return out, nil
}

func (a *app) newExpensesAddCmd() *cobra.Command {
	var f expenseFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Split an expense among all users and record it",
		Long: `Split an expense among all users and record it.

Example:
  splitledger expenses add --description Dinner --amount 90 --paid-by 1
  splitledger expenses add --amount 100 --paid-by 1 --policy EXACT --share 2=40 --share 3=30
  splitledger expenses add --amount 50 --paid-by 1 --policy PERCENTAGE --share 2=60`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := f.input()
			if err != nil {
				return err
			}
			return a.withLedger(func(l *ledger.Ledger) error {
				ctx := contextOf(cmd)
				e, err := l.RecordExpense(ctx, in)
				if err != nil {
					return err
				}
				users, err := l.ListUsers(ctx)
				if err != nil {
					return err
				}

				v := toExpenseView(e, userNames(users))
				return a.printer(cmd).print(v, func(tw *tabwriter.Writer) {
					fmt.Fprintf(tw, "Recorded expense %d: %s %s (%s)\n", v.ID, v.Description, v.Amount, v.SplitType)
					writeShares(tw, v.Shares)
				})
			})
		},
	}
	f.register(cmd)
	return cmd
}

func (a *app) newExpensesPreviewCmd() *cobra.Command {
	var f expenseFlags

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show how an expense would be split without recording it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := f.input()
			if err != nil {
				return err
			}
			return a.withLedger(func(l *ledger.Ledger) error {
				ctx := contextOf(cmd)
				shares, err := l.PreviewSplit(ctx, in)
				if err != nil {
					return err
				}
				users, err := l.ListUsers(ctx)
				if err != nil {
					return err
				}

				views := toShareViews(shares, userNames(users))
				return a.printer(cmd).print(views, func(tw *tabwriter.Writer) {
					writeShares(tw, views)
				})
			})
		},
	}
	f.register(cmd)
	return cmd
}

func writeShares(tw *tabwriter.Writer, shares []shareView) {
	fmt.Fprintln(tw, "USER\tNAME\tSHARE")
	for _, s := range shares {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", s.UserID, s.Name, s.Amount)
	}
}

func policyNames() string {
	names := make([]string, len(models.Policies))
	for i, p := range models.Policies {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}
