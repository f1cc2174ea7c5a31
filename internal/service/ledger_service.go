package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/pkg/api"
)

// Ensure LedgerService implements api.LedgerServiceHandler
var _ api.LedgerServiceHandler = (*LedgerService)(nil)

// LedgerService implements the Connect LedgerService
type LedgerService struct {
	api.UnimplementedLedgerServiceHandler
	ledger *ledger.Ledger
}

// NewLedgerService creates a new LedgerService over the given ledger.
func NewLedgerService(l *ledger.Ledger) *LedgerService {
	return &LedgerService{ledger: l}
}

// ListUsers returns all registered users.
func (s *LedgerService) ListUsers(ctx context.Context, req *connect.Request[api.ListUsersRequest]) (*connect.Response[api.ListUsersResponse], error) {
	users, err := s.ledger.ListUsers(ctx)
	if err != nil {
		slog.Error("ListUsers failed", "error", err)
		return nil, toConnectError(err)
	}

	out := make([]api.User, len(users))
	for i, u := range users {
		out[i] = userToAPI(u)
	}
	return connect.NewResponse(&api.ListUsersResponse{Users: out}), nil
}

// AddUser registers a new user.
func (s *LedgerService) AddUser(ctx context.Context, req *connect.Request[api.AddUserRequest]) (*connect.Response[api.AddUserResponse], error) {
	slog.Debug("AddUser request received", "email", req.Msg.Email)

	user, err := s.ledger.AddUser(ctx, req.Msg.Name, req.Msg.Email, req.Msg.Password)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.AddUserResponse{User: userToAPI(user)}), nil
}

// GetUser retrieves a user by ID.
func (s *LedgerService) GetUser(ctx context.Context, req *connect.Request[api.GetUserRequest]) (*connect.Response[api.GetUserResponse], error) {
	user, err := s.ledger.GetUser(ctx, req.Msg.ID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.GetUserResponse{User: userToAPI(user)}), nil
}

// ListExpenses returns all recorded expenses.
func (s *LedgerService) ListExpenses(ctx context.Context, req *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	expenses, err := s.ledger.ListExpenses(ctx)
	if err != nil {
		slog.Error("ListExpenses failed", "error", err)
		return nil, toConnectError(err)
	}

	out := make([]api.Expense, len(expenses))
	for i, e := range expenses {
		out[i] = expenseToAPI(e)
	}
	return connect.NewResponse(&api.ListExpensesResponse{Expenses: out}), nil
}

// AddExpense splits an expense among all users and records it.
func (s *LedgerService) AddExpense(ctx context.Context, req *connect.Request[api.AddExpenseRequest]) (*connect.Response[api.AddExpenseResponse], error) {
	slog.Debug("AddExpense request received",
		"description", req.Msg.Description,
		"amount", req.Msg.Amount,
		"paid_by", req.Msg.PaidBy,
		"split_type", req.Msg.SplitType,
	)

	expense, err := s.ledger.RecordExpense(ctx, expenseInput(req.Msg))
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.AddExpenseResponse{Expense: expenseToAPI(expense)}), nil
}

// PreviewSplit returns the shares AddExpense would record, without storing anything.
func (s *LedgerService) PreviewSplit(ctx context.Context, req *connect.Request[api.PreviewSplitRequest]) (*connect.Response[api.PreviewSplitResponse], error) {
	shares, err := s.ledger.PreviewSplit(ctx, expenseInput(req.Msg))
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.PreviewSplitResponse{Shares: sharesToAPI(shares)}), nil
}

// GetBalances returns every user's net balance and, on request, settle-up payments.
func (s *LedgerService) GetBalances(ctx context.Context, req *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error) {
	sheet, err := s.ledger.BalanceSheet(ctx)
	if err != nil {
		slog.Error("GetBalances failed", "error", err)
		return nil, toConnectError(err)
	}

	resp := &api.GetBalancesResponse{Balances: make([]api.Balance, len(sheet.Balances))}
	for i, b := range sheet.Balances {
		resp.Balances[i] = api.Balance{
			UserID: b.UserID,
			Name:   sheet.Name(b.UserID),
			Paid:   b.Paid,
			Owed:   b.Owed,
			Net:    b.Net,
		}
	}
	if req.Msg.Settle {
		resp.Settlements = settlementsToAPI(sheet.Settlements)
	}
	return connect.NewResponse(resp), nil
}

func expenseInput(msg *api.AddExpenseRequest) ledger.ExpenseInput {
	return ledger.ExpenseInput{
		Description: msg.Description,
		Amount:      msg.Amount,
		PaidBy:      msg.PaidBy,
		Policy:      msg.SplitType,
		Inputs:      msg.Inputs,
	}
}

func userToAPI(u models.User) api.User {
	return api.User{ID: u.ID, Name: u.Name, Email: u.Email}
}

func expenseToAPI(e models.Expense) api.Expense {
	return api.Expense{
		ID:          e.ID,
		Description: e.Description,
		Amount:      e.Amount,
		DateISO:     e.Date,
		PaidBy:      e.PaidBy,
		SplitType:   string(e.SplitPolicy),
		Shares:      sharesToAPI(e.Shares),
	}
}

func sharesToAPI(shares []models.Share) []api.Share {
	out := make([]api.Share, len(shares))
	for i, s := range shares {
		out[i] = api.Share{UserID: s.UserID, Amount: s.Amount}
	}
	return out
}

func settlementsToAPI(edges []calculator.DebtEdge) []api.Settlement {
	out := make([]api.Settlement, len(edges))
	for i, e := range edges {
		out[i] = api.Settlement{FromUserID: e.From, ToUserID: e.To, Amount: e.Amount}
	}
	return out
}
