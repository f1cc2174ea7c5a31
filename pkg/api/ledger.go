// Package api defines the wire messages of splitledger.v1.LedgerService and
// the Connect handler and client constructors for it.
//
// Messages are plain Go structs exchanged with the "json" codec. Money is a
// decimal.Decimal, which is encoded as a JSON string ("12.50") and accepts
// either strings or numbers on input.
package api

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is the public view of a registered user. It never carries credentials.
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Share is one user's portion of an expense.
type Share struct {
	UserID int64           `json:"user_id"`
	Amount decimal.Decimal `json:"amount"`
}

// Expense is a recorded ledger entry.
type Expense struct {
	ID          int64           `json:"id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	DateISO     time.Time       `json:"date_iso"`
	PaidBy      int64           `json:"paid_by"`
	SplitType   string          `json:"split_type"`
	Shares      []Share         `json:"shares"`
}

// Balance is a user's aggregated position. Net is positive when the group owes the user.
type Balance struct {
	UserID int64           `json:"user_id"`
	Name   string          `json:"name"`
	Paid   decimal.Decimal `json:"paid"`
	Owed   decimal.Decimal `json:"owed"`
	Net    decimal.Decimal `json:"net"`
}

// Settlement is a suggested payment that reduces outstanding balances.
type Settlement struct {
	FromUserID int64           `json:"from_user_id"`
	ToUserID   int64           `json:"to_user_id"`
	Amount     decimal.Decimal `json:"amount"`
}

type ListUsersRequest struct{}

type ListUsersResponse struct {
	Users []User `json:"users"`
}

type AddUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
}

type AddUserResponse struct {
	User User `json:"user"`
}

type GetUserRequest struct {
	ID int64 `json:"id"`
}

type GetUserResponse struct {
	User User `json:"user"`
}

type ListExpensesRequest struct{}

type ListExpensesResponse struct {
	Expenses []Expense `json:"expenses"`
}

// AddExpenseRequest splits an expense among all registered users.
// Inputs holds exact amounts (EXACT) or percentages (PERCENTAGE) keyed by user id.
type AddExpenseRequest struct {
	Description string                    `json:"description"`
	Amount      decimal.Decimal           `json:"amount"`
	PaidBy      int64                     `json:"paid_by"`
	SplitType   string                    `json:"split_type"`
	Inputs      map[int64]decimal.Decimal `json:"inputs,omitempty"`
}

type AddExpenseResponse struct {
	Expense Expense `json:"expense"`
}

// PreviewSplitRequest has the same shape as AddExpenseRequest; nothing is stored.
type PreviewSplitRequest = AddExpenseRequest

type PreviewSplitResponse struct {
	Shares []Share `json:"shares"`
}

type GetBalancesRequest struct {
	// Settle asks for suggested settlement payments as well.
	Settle bool `json:"settle,omitempty"`
}

type GetBalancesResponse struct {
	Balances    []Balance    `json:"balances"`
	Settlements []Settlement `json:"settlements,omitempty"`
}
