package calculator

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
)

var (
	// Tolerance is the slack allowed when comparing monetary sums.
	Tolerance = decimal.New(1, -6)

	hundred = decimal.NewFromInt(100)

	// percentLimit tolerates rounding in user-supplied percentages but rejects
	// genuine over-allocation.
	percentLimit = decimal.RequireFromString("100.5")
)

// SplitRequest is the input to CalculateShares.
type SplitRequest struct {
	// Amount is the expense total; rounded to cents before splitting.
	Amount decimal.Decimal

	// PayerID is the user who paid. Must be in Participants.
	PayerID int64

	// Participants is the full roster, payer included.
	Participants []int64

	Policy models.SplitPolicy

	// Inputs holds per-user amounts (EXACT) or percentages (PERCENTAGE) for
	// non-payer participants. Missing users count as zero; the payer's entry
	// is ignored. Unused by EQUAL.
	Inputs map[int64]decimal.Decimal
}

// Round rounds d to cents, half away from zero.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// CalculateShares divides req.Amount among the participants according to req.Policy.
//
// Every non-payer share is rounded to cents independently; the payer's share is
// the residual amount - sum(others), so the result always sums to the rounded
// amount exactly. The payer's share is always present and listed last for
// EXACT and PERCENTAGE; EQUAL lists every participant in roster order.
func CalculateShares(req SplitRequest) ([]models.Share, error) {
	if !req.Policy.Valid() {
		return nil, &models.ValidationError{Kind: models.KindUnsupportedPolicy, Field: string(req.Policy)}
	}

	amount := Round(req.Amount)
	if !amount.IsPositive() {
		return nil, &models.ValidationError{Kind: models.KindInvalidAmount, Value: req.Amount}
	}

	roster := uniqueIDs(req.Participants)
	if len(roster) == 0 {
		return nil, &models.ValidationError{Kind: models.KindNoParticipants}
	}
	if !containsID(roster, req.PayerID) {
		return nil, &models.ValidationError{Kind: models.KindUserNotFound, UserID: req.PayerID}
	}

	switch req.Policy {
	case models.SplitEqual:
		return equalShares(amount, req.PayerID, roster)
	case models.SplitExact:
		if err := checkInputUsers(req.Inputs, roster); err != nil {
			return nil, err
		}
		return exactShares(amount, req.PayerID, roster, req.Inputs)
	default:
		if err := checkInputUsers(req.Inputs, roster); err != nil {
			return nil, err
		}
		return percentageShares(amount, req.PayerID, roster, req.Inputs)
	}
}

// equalShares gives every participant amount/N rounded to cents, with the
// payer absorbing the rounding remainder. When rounding up would leave the
// payer a negative remainder, every share is cut to whole cents instead and
// the leftover cents go one each to the payer and then to the others in
// roster order.
func equalShares(amount decimal.Decimal, payer int64, roster []int64) ([]models.Share, error) {
	n := decimal.NewFromInt(int64(len(roster)))
	per := Round(amount.Div(n))
	payerShare := amount.Sub(per.Mul(n.Sub(decimal.NewFromInt(1))))
	if payerShare.IsNegative() {
		return spreadCents(amount, payer, roster), nil
	}

	shares := make([]models.Share, 0, len(roster))
	for _, id := range roster {
		a := per
		if id == payer {
			a = payerShare
		}
		shares = append(shares, models.Share{UserID: id, Amount: a})
	}
	return shares, nil
}

// spreadCents splits amount into whole-cent shares that differ by at most one cent.
func spreadCents(amount decimal.Decimal, payer int64, roster []int64) []models.Share {
	n := decimal.NewFromInt(int64(len(roster)))
	base := amount.Div(n).Truncate(2)
	left := amount.Sub(base.Mul(n)).Shift(2).IntPart()

	cent := decimal.New(1, -2)
	amounts := make(map[int64]decimal.Decimal, len(roster))
	order := append([]int64{payer}, roster...)
	for _, id := range order {
		if _, ok := amounts[id]; ok {
			continue
		}
		a := base
		if left > 0 {
			a = a.Add(cent)
			left--
		}
		amounts[id] = a
	}

	shares := make([]models.Share, 0, len(roster))
	for _, id := range roster {
		shares = append(shares, models.Share{UserID: id, Amount: amounts[id]})
	}
	return shares
}

func exactShares(amount decimal.Decimal, payer int64, roster []int64, inputs map[int64]decimal.Decimal) ([]models.Share, error) {
	var (
		shares     []models.Share
		rawTotal   decimal.Decimal
		roundTotal decimal.Decimal
	)
	for _, id := range roster {
		if id == payer {
			continue
		}
		v := inputs[id]
		if v.IsNegative() {
			return nil, &models.ValidationError{Kind: models.KindNegativeShare, UserID: id, Value: v}
		}
		rawTotal = rawTotal.Add(v)
		r := Round(v)
		if r.IsPositive() {
			shares = append(shares, models.Share{UserID: id, Amount: r})
			roundTotal = roundTotal.Add(r)
		}
	}

	if rawTotal.Sub(amount).GreaterThan(Tolerance) {
		return nil, &models.ValidationError{Kind: models.KindOverAllocated, Value: rawTotal, Limit: amount}
	}
	return appendResidual(shares, amount, roundTotal, payer)
}

func percentageShares(amount decimal.Decimal, payer int64, roster []int64, inputs map[int64]decimal.Decimal) ([]models.Share, error) {
	var (
		shares       []models.Share
		totalPercent decimal.Decimal
		roundTotal   decimal.Decimal
	)
	for _, id := range roster {
		if id == payer {
			continue
		}
		pct := inputs[id]
		if pct.IsNegative() {
			return nil, &models.ValidationError{Kind: models.KindNegativePercentage, UserID: id, Value: pct}
		}
		totalPercent = totalPercent.Add(pct)
		r := Round(amount.Mul(pct).Div(hundred))
		if r.IsPositive() {
			shares = append(shares, models.Share{UserID: id, Amount: r})
			roundTotal = roundTotal.Add(r)
		}
	}

	if totalPercent.GreaterThan(percentLimit) {
		return nil, &models.ValidationError{Kind: models.KindOverAllocated, Value: totalPercent, Limit: hundred}
	}
	return appendResidual(shares, amount, roundTotal, payer)
}

// appendResidual adds the payer's share: whatever the others did not cover.
func appendResidual(shares []models.Share, amount, othersTotal decimal.Decimal, payer int64) ([]models.Share, error) {
	residual := amount.Sub(othersTotal)
	if residual.LessThan(Tolerance.Neg()) {
		return nil, &models.ValidationError{Kind: models.KindNegativeResidual, UserID: payer, Value: residual}
	}
	return append(shares, models.Share{UserID: payer, Amount: residual}), nil
}

// ValidateShares checks the invariants every persisted expense must hold:
// a positive amount, non-negative shares, unique users and a sum equal to
// amount within Tolerance.
func ValidateShares(amount decimal.Decimal, shares []models.Share) error {
	if !amount.IsPositive() {
		return &models.ValidationError{Kind: models.KindInvalidAmount, Value: amount}
	}
	seen := make(map[int64]bool, len(shares))
	for _, s := range shares {
		if seen[s.UserID] {
			return &models.ValidationError{Kind: models.KindDuplicateShare, UserID: s.UserID}
		}
		seen[s.UserID] = true
		if s.Amount.IsNegative() {
			return &models.ValidationError{Kind: models.KindNegativeShare, UserID: s.UserID, Value: s.Amount}
		}
	}
	total := SumShares(shares)
	if total.Sub(amount).Abs().GreaterThan(Tolerance) {
		return &models.ValidationError{Kind: models.KindShareMismatch, Value: total, Limit: amount}
	}
	return nil
}

// SumShares returns the total of all share amounts.
func SumShares(shares []models.Share) decimal.Decimal {
	total := decimal.Zero
	for _, s := range shares {
		total = total.Add(s.Amount)
	}
	return total
}

// checkInputUsers rejects inputs addressed to users outside the roster.
func checkInputUsers(inputs map[int64]decimal.Decimal, roster []int64) error {
	var unknown []int64
	for id := range inputs {
		if !containsID(roster, id) {
			unknown = append(unknown, id)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Slice(unknown, func(i, j int) bool { return unknown[i] < unknown[j] })
	return &models.ValidationError{Kind: models.KindUserNotFound, UserID: unknown[0]}
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
