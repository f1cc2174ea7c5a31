// Package ledger is the core-facing API over the record store: user
// registration, expense recording and balance queries.
//
// Every write goes through storage.Store.Update, so the read of existing ids
// and the append of the new record happen under the store's serialisation and
// concurrent writers cannot assign the same id.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// Ledger implements the ledger operations on top of a storage.Store.
type Ledger struct {
	store   storage.Store
	now     func() time.Time
	hasher  auth.Hasher
	metrics *metrics.Metrics
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock sets the time source used to stamp recorded expenses.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithHasher sets the password hasher used by AddUser.
func WithHasher(h auth.Hasher) Option {
	return func(l *Ledger) { l.hasher = h }
}

// WithMetrics records ledger activity on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Ledger) { l.metrics = m }
}

// New creates a Ledger backed by store.
func New(store storage.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:  store,
		now:    time.Now,
		hasher: auth.NewBcryptHasher(0),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// ExpenseInput is a request to split and record an expense among all users.
type ExpenseInput struct {
	Description string
	Amount      decimal.Decimal
	PaidBy      int64

	// Policy is the split policy name; parsed case-insensitively.
	Policy string

	// Inputs holds per-user exact amounts or percentages for non-payers.
	Inputs map[int64]decimal.Decimal
}

// ListUsers returns every user in insertion order.
func (l *Ledger) ListUsers(ctx context.Context) ([]models.User, error) {
	doc, err := l.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Users, nil
}

// GetUser returns the user with the given id.
func (l *Ledger) GetUser(ctx context.Context, id int64) (models.User, error) {
	doc, err := l.store.Load(ctx)
	if err != nil {
		return models.User{}, err
	}
	u, ok := doc.FindUser(id)
	if !ok {
		return models.User{}, &models.ValidationError{Kind: models.KindUserNotFound, UserID: id}
	}
	return u, nil
}

// AddUser registers a user. Email must be unique ignoring case.
// The password is stored only as a hash.
func (l *Ledger) AddUser(ctx context.Context, name, email, password string) (models.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" {
		return models.User{}, l.reject(&models.ValidationError{Kind: models.KindMissingField, Field: "name"})
	}
	if email == "" {
		return models.User{}, l.reject(&models.ValidationError{Kind: models.KindMissingField, Field: "email"})
	}

	hash, err := l.hasher.Hash(password)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return models.User{}, l.reject(&models.ValidationError{
			Kind:  models.KindInvalidPassword,
			Field: "password",
			Value: decimal.NewFromInt(int64(len(password))),
			Limit: decimal.NewFromInt(auth.MaxPasswordLength),
		})
	}
	if err != nil {
		return models.User{}, err
	}

	var user models.User
	err = l.store.Update(ctx, func(doc *models.Document) error {
		if _, exists := doc.FindUserByEmail(email); exists {
			return &models.ValidationError{Kind: models.KindDuplicateEmail, Field: email}
		}
		user = models.User{
			ID:           storage.NextID(doc.Users, storage.UserID),
			Name:         name,
			Email:        email,
			PasswordHash: hash,
		}
		doc.Users = append(doc.Users, user)
		return nil
	})
	if err != nil {
		return models.User{}, l.reject(err)
	}

	l.metrics.UserRegistered()
	slog.Info("User added", "user_id", user.ID, "email", user.Email)
	return user, nil
}

// ListExpenses returns every expense in insertion order.
func (l *Ledger) ListExpenses(ctx context.Context) ([]models.Expense, error) {
	doc, err := l.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Expenses, nil
}

// AddExpenseRecord validates and appends an already split expense.
//
// The payer and every share user must exist, shares must be non-negative with
// unique users and sum to amount. Nothing is written when validation fails.
func (l *Ledger) AddExpenseRecord(
	ctx context.Context,
	description string,
	amount decimal.Decimal,
	paidBy int64,
	policy models.SplitPolicy,
	shares []models.Share,
	timestamp time.Time,
) (models.Expense, error) {
	if !policy.Valid() {
		return models.Expense{}, l.reject(&models.ValidationError{Kind: models.KindUnsupportedPolicy, Field: string(policy)})
	}
	amount = calculator.Round(amount)
	if err := calculator.ValidateShares(amount, shares); err != nil {
		return models.Expense{}, l.reject(err)
	}

	var expense models.Expense
	err := l.store.Update(ctx, func(doc *models.Document) error {
		if _, ok := doc.FindUser(paidBy); !ok {
			return &models.ValidationError{Kind: models.KindUserNotFound, UserID: paidBy}
		}
		for _, s := range shares {
			if _, ok := doc.FindUser(s.UserID); !ok {
				return &models.ValidationError{Kind: models.KindUserNotFound, UserID: s.UserID}
			}
		}
		expense = models.Expense{
			ID:          storage.NextID(doc.Expenses, storage.ExpenseID),
			Description: strings.TrimSpace(description),
			Amount:      amount,
			Date:        timestamp.UTC(),
			PaidBy:      paidBy,
			SplitPolicy: policy,
			Shares:      append([]models.Share{}, shares...),
		}
		doc.Expenses = append(doc.Expenses, expense)
		return nil
	})
	if err != nil {
		return models.Expense{}, l.reject(err)
	}

	l.metrics.ExpenseRecorded(string(policy))
	slog.Info("Expense recorded",
		"expense_id", expense.ID,
		"amount", expense.Amount,
		"paid_by", expense.PaidBy,
		"policy", expense.SplitPolicy,
	)
	return expense, nil
}

// RecordExpense splits in among every registered user and records the result
// stamped with the current UTC time.
func (l *Ledger) RecordExpense(ctx context.Context, in ExpenseInput) (models.Expense, error) {
	policy, shares, err := l.split(ctx, in)
	if err != nil {
		return models.Expense{}, err
	}
	return l.AddExpenseRecord(ctx, in.Description, in.Amount, in.PaidBy, policy, shares, l.now().UTC())
}

// PreviewSplit computes the shares RecordExpense would store without writing.
func (l *Ledger) PreviewSplit(ctx context.Context, in ExpenseInput) ([]models.Share, error) {
	_, shares, err := l.split(ctx, in)
	return shares, err
}

func (l *Ledger) split(ctx context.Context, in ExpenseInput) (models.SplitPolicy, []models.Share, error) {
	policy, err := models.ParseSplitPolicy(in.Policy)
	if err != nil {
		return "", nil, l.reject(err)
	}

	doc, err := l.store.Load(ctx)
	if err != nil {
		return "", nil, err
	}
	if len(doc.Users) == 0 {
		return "", nil, l.reject(&models.ValidationError{Kind: models.KindNoParticipants})
	}

	shares, err := calculator.CalculateShares(calculator.SplitRequest{
		Amount:       in.Amount,
		PayerID:      in.PaidBy,
		Participants: doc.UserIDs(),
		Policy:       policy,
		Inputs:       in.Inputs,
	})
	if err != nil {
		slog.Debug("Split rejected", "policy", policy, "paid_by", in.PaidBy, "error", err)
		return "", nil, l.reject(err)
	}
	return policy, shares, nil
}

// ComputeBalances returns paid - owed for every registered user, read fresh
// from the store.
func (l *Ledger) ComputeBalances(ctx context.Context) (map[int64]decimal.Decimal, error) {
	doc, err := l.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	warnUnknownUsers(doc)
	return calculator.ComputeBalances(doc.Users, doc.Expenses), nil
}

// BalanceSheet is a presentation-ready view of the ledger's balances.
type BalanceSheet struct {
	Users       []models.User
	Balances    []calculator.MemberBalance
	Settlements []calculator.DebtEdge
}

// Name returns the display name of id, or "" when unknown.
func (b BalanceSheet) Name(id int64) string {
	for _, u := range b.Users {
		if u.ID == id {
			return u.Name
		}
	}
	return ""
}

// BalanceSheet returns per-user totals plus suggested payments that settle them.
func (l *Ledger) BalanceSheet(ctx context.Context) (BalanceSheet, error) {
	doc, err := l.store.Load(ctx)
	if err != nil {
		return BalanceSheet{}, err
	}
	warnUnknownUsers(doc)

	balances := calculator.MemberBalances(doc.Users, doc.Expenses)
	return BalanceSheet{
		Users:       doc.Users,
		Balances:    balances,
		Settlements: calculator.SimplifyDebts(balances),
	}, nil
}

func warnUnknownUsers(doc *models.Document) {
	if ids := calculator.UnknownUserIDs(doc.Users, doc.Expenses); len(ids) > 0 {
		slog.Warn("Ledger references unknown users; excluded from balances", "user_ids", ids)
	}
}

// reject counts validation failures and returns err unchanged.
func (l *Ledger) reject(err error) error {
	if kind, ok := models.KindOf(err); ok {
		l.metrics.Rejected(string(kind))
	}
	return err
}
