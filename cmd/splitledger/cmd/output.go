package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

// printer renders command results in the format selected with --output.
type printer struct {
	format string
	w      io.Writer
}

func newPrinter(format string, w io.Writer) (*printer, error) {
	switch format {
	case formatTable, formatJSON, formatYAML:
		return &printer{format: format, w: w}, nil
	}
	return nil, fmt.Errorf("invalid output format %q: must be one of table, json, yaml", format)
}

// print writes v as JSON or YAML, or calls table to write the tabular form.
func (p *printer) print(v any, table func(tw *tabwriter.Writer)) error {
	switch p.format {
	case formatJSON:
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}

	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	table(tw)
	return tw.Flush()
}

// Views carry amounts as strings so JSON and YAML render them identically.

type userView struct {
	ID    int64  `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email" yaml:"email"`
}

type shareView struct {
	UserID int64  `json:"user_id" yaml:"user_id"`
	Name   string `json:"name,omitempty" yaml:"name,omitempty"`
	Amount string `json:"amount" yaml:"amount"`
}

type expenseView struct {
	ID          int64       `json:"id" yaml:"id"`
	Description string      `json:"description" yaml:"description"`
	Amount      string      `json:"amount" yaml:"amount"`
	Date        string      `json:"date_iso" yaml:"date_iso"`
	PaidBy      int64       `json:"paid_by" yaml:"paid_by"`
	SplitType   string      `json:"split_type" yaml:"split_type"`
	Shares      []shareView `json:"shares" yaml:"shares"`
}

type balanceView struct {
	UserID int64  `json:"user_id" yaml:"user_id"`
	Name   string `json:"name" yaml:"name"`
	Paid   string `json:"paid" yaml:"paid"`
	Owed   string `json:"owed" yaml:"owed"`
	Net    string `json:"net" yaml:"net"`
}

type settlementView struct {
	From     int64  `json:"from_user_id" yaml:"from_user_id"`
	FromName string `json:"from_name" yaml:"from_name"`
	To       int64  `json:"to_user_id" yaml:"to_user_id"`
	ToName   string `json:"to_name" yaml:"to_name"`
	Amount   string `json:"amount" yaml:"amount"`
}

type balancesView struct {
	Balances    []balanceView    `json:"balances" yaml:"balances"`
	Settlements []settlementView `json:"settlements,omitempty" yaml:"settlements,omitempty"`
}

func toUserView(u models.User) userView {
	return userView{ID: u.ID, Name: u.Name, Email: u.Email}
}

func toShareViews(shares []models.Share, names map[int64]string) []shareView {
	out := make([]shareView, len(shares))
	for i, s := range shares {
		out[i] = shareView{UserID: s.UserID, Name: names[s.UserID], Amount: s.Amount.StringFixed(2)}
	}
	return out
}

func toExpenseView(e models.Expense, names map[int64]string) expenseView {
	return expenseView{
		ID:          e.ID,
		Description: e.Description,
		Amount:      e.Amount.StringFixed(2),
		Date:        e.Date.UTC().Format(time.RFC3339),
		PaidBy:      e.PaidBy,
		SplitType:   string(e.SplitPolicy),
		Shares:      toShareViews(e.Shares, names),
	}
}

func toBalanceView(b calculator.MemberBalance, names map[int64]string) balanceView {
	return balanceView{
		UserID: b.UserID,
		Name:   names[b.UserID],
		Paid:   b.Paid.StringFixed(2),
		Owed:   b.Owed.StringFixed(2),
		Net:    b.Net.StringFixed(2),
	}
}

func toSettlementView(e calculator.DebtEdge, names map[int64]string) settlementView {
	return settlementView{
		From:     e.From,
		FromName: names[e.From],
		To:       e.To,
		ToName:   names[e.To],
		Amount:   e.Amount.StringFixed(2),
	}
}

func userNames(users []models.User) map[int64]string {
	names := make(map[int64]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}
	return names
}
