package calculator

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
)

// settleFloor ignores leftover amounts below one cent when matching debts.
var settleFloor = decimal.New(1, -2)

// MemberBalance represents the balance information for one user.
type MemberBalance struct {
	UserID int64
	Paid   decimal.Decimal // Total amount paid across all expenses
	Owed   decimal.Decimal // Total of this user's shares
	Net    decimal.Decimal // Positive = owed money by the group, Negative = owes the group
}

// DebtEdge represents a suggested payment from one user to another.
type DebtEdge struct {
	From   int64 // Person who owes
	To     int64 // Person who is owed
	Amount decimal.Decimal
}

// ComputeBalances returns paid - owed for every known user.
//
// Users that appear only as a payer or share target but are not in users are
// accumulated and then dropped; see UnknownUserIDs.
func ComputeBalances(users []models.User, expenses []models.Expense) map[int64]decimal.Decimal {
	out := make(map[int64]decimal.Decimal, len(users))
	for _, b := range MemberBalances(users, expenses) {
		out[b.UserID] = b.Net
	}
	return out
}

// MemberBalances aggregates every expense into per-user totals.
// The result has one entry per known user, in the order of users.
//
// Algorithm:
// - For each expense: payer contributed +amount
// - For each share: the share's user owes share.amount
// - net = paid - owed
func MemberBalances(users []models.User, expenses []models.Expense) []MemberBalance {
	paid, owed := accumulate(expenses)

	balances := make([]MemberBalance, 0, len(users))
	for _, u := range users {
		b := MemberBalance{
			UserID: u.ID,
			Paid:   paid[u.ID],
			Owed:   owed[u.ID],
		}
		b.Net = b.Paid.Sub(b.Owed)
		balances = append(balances, b)
	}
	return balances
}

// UnknownUserIDs returns, sorted, the IDs referenced by expenses that are not
// in users. A consistent ledger returns none.
func UnknownUserIDs(users []models.User, expenses []models.Expense) []int64 {
	known := make(map[int64]bool, len(users))
	for _, u := range users {
		known[u.ID] = true
	}
	paid, owed := accumulate(expenses)

	seen := make(map[int64]bool)
	var ghosts []int64
	for _, m := range []map[int64]decimal.Decimal{paid, owed} {
		for id := range m {
			if !known[id] && !seen[id] {
				seen[id] = true
				ghosts = append(ghosts, id)
			}
		}
	}
	sort.Slice(ghosts, func(i, j int) bool { return ghosts[i] < ghosts[j] })
	return ghosts
}

func accumulate(expenses []models.Expense) (paid, owed map[int64]decimal.Decimal) {
	paid = make(map[int64]decimal.Decimal)
	owed = make(map[int64]decimal.Decimal)
	for _, e := range expenses {
		paid[e.PaidBy] = paid[e.PaidBy].Add(e.Amount)
		for _, s := range e.Shares {
			owed[s.UserID] = owed[s.UserID].Add(s.Amount)
		}
	}
	return paid, owed
}

// SimplifyDebts suggests payments that settle every balance.
//
// Greedy algorithm: match the largest debt with the largest credit, settle the
// smaller of the two, and move on once either side drops below one cent.
// Ties are broken by user ID so the output is deterministic.
func SimplifyDebts(balances []MemberBalance) []DebtEdge {
	type party struct {
		id     int64
		amount decimal.Decimal
	}

	var creditors, debtors []party
	for _, b := range balances {
		switch {
		case b.Net.IsPositive():
			creditors = append(creditors, party{id: b.UserID, amount: b.Net})
		case b.Net.IsNegative():
			debtors = append(debtors, party{id: b.UserID, amount: b.Net.Neg()})
		}
	}
	byAmount := func(ps []party) func(i, j int) bool {
		return func(i, j int) bool {
			if c := ps[i].amount.Cmp(ps[j].amount); c != 0 {
				return c > 0
			}
			return ps[i].id < ps[j].id
		}
	}
	sort.Slice(creditors, byAmount(creditors))
	sort.Slice(debtors, byAmount(debtors))

	var edges []DebtEdge
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		d, c := &debtors[i], &creditors[j]

		amount := decimal.Min(d.amount, c.amount)
		if amount.GreaterThanOrEqual(settleFloor) {
			edges = append(edges, DebtEdge{From: d.id, To: c.id, Amount: Round(amount)})
		}

		d.amount = d.amount.Sub(amount)
		c.amount = c.amount.Sub(amount)

		if d.amount.LessThan(settleFloor) {
			i++
		}
		if c.amount.LessThan(settleFloor) {
			j++
		}
	}
	return edges
}
