package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SplitPolicy selects the algorithm used to divide an expense among participants.
type SplitPolicy string

const (
	// SplitEqual divides the amount evenly across every participant.
	SplitEqual SplitPolicy = "EQUAL"
	// SplitExact takes an explicit amount for each non-payer participant.
	SplitExact SplitPolicy = "EXACT"
	// SplitPercentage takes a percentage of the total for each non-payer participant.
	SplitPercentage SplitPolicy = "PERCENTAGE"
)

// Policies lists the supported split policies in display order.
var Policies = []SplitPolicy{SplitEqual, SplitExact, SplitPercentage}

// ParseSplitPolicy normalises s (trimmed, upper-cased) and checks it is supported.
func ParseSplitPolicy(s string) (SplitPolicy, error) {
	p := SplitPolicy(strings.ToUpper(strings.TrimSpace(s)))
	if !p.Valid() {
		return p, &ValidationError{Kind: KindUnsupportedPolicy, Field: s}
	}
	return p, nil
}

// Valid reports whether p is one of the supported policies.
func (p SplitPolicy) Valid() bool {
	switch p {
	case SplitEqual, SplitExact, SplitPercentage:
		return true
	}
	return false
}

// Share is one user's monetary portion of an expense.
type Share struct {
	UserID int64           `json:"user_id"`
	Amount decimal.Decimal `json:"amount"`
}

// Expense is an immutable ledger entry: money paid by PaidBy and divided into Shares.
type Expense struct {
	// ID is the positive integer identifier assigned by the store.
	ID int64 `json:"id"`

	// Description is free text entered by the user (e.g., "Groceries").
	Description string `json:"description"`

	// Amount is the total paid, always positive and rounded to cents.
	Amount decimal.Decimal `json:"amount"`

	// Date is the UTC time the expense was recorded.
	Date time.Time `json:"date_iso"`

	// PaidBy is the ID of the user who paid the full amount.
	PaidBy int64 `json:"paid_by"`

	// SplitPolicy is the policy that produced Shares.
	SplitPolicy SplitPolicy `json:"split_type"`

	// Shares sum to Amount within tolerance; user IDs are unique.
	// The payer's share is always present.
	Shares []Share `json:"shares"`
}
