package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

// LedgerServiceName is the fully-qualified name of the LedgerService service.
const LedgerServiceName = "splitledger.v1.LedgerService"

// Fully-qualified procedure names, used as HTTP routes and in Spec().Procedure.
const (
	LedgerServiceListUsersProcedure    = "/splitledger.v1.LedgerService/ListUsers"
	LedgerServiceAddUserProcedure      = "/splitledger.v1.LedgerService/AddUser"
	LedgerServiceGetUserProcedure      = "/splitledger.v1.LedgerService/GetUser"
	LedgerServiceListExpensesProcedure = "/splitledger.v1.LedgerService/ListExpenses"
	LedgerServiceAddExpenseProcedure   = "/splitledger.v1.LedgerService/AddExpense"
	LedgerServicePreviewSplitProcedure = "/splitledger.v1.LedgerService/PreviewSplit"
	LedgerServiceGetBalancesProcedure  = "/splitledger.v1.LedgerService/GetBalances"
)

// ErrorKindHeader carries the ledger validation kind on error responses.
const ErrorKindHeader = "Ledger-Error-Kind"

// ErrorKind returns the ledger validation kind attached to a Connect error, if any.
func ErrorKind(err error) string {
	var connectErr *connect.Error
	if !errors.As(err, &connectErr) {
		return ""
	}
	return connectErr.Meta().Get(ErrorKindHeader)
}

// LedgerServiceHandler is implemented by the server side of LedgerService.
type LedgerServiceHandler interface {
	ListUsers(context.Context, *connect.Request[ListUsersRequest]) (*connect.Response[ListUsersResponse], error)
	AddUser(context.Context, *connect.Request[AddUserRequest]) (*connect.Response[AddUserResponse], error)
	GetUser(context.Context, *connect.Request[GetUserRequest]) (*connect.Response[GetUserResponse], error)
	ListExpenses(context.Context, *connect.Request[ListExpensesRequest]) (*connect.Response[ListExpensesResponse], error)
	AddExpense(context.Context, *connect.Request[AddExpenseRequest]) (*connect.Response[AddExpenseResponse], error)
	PreviewSplit(context.Context, *connect.Request[PreviewSplitRequest]) (*connect.Response[PreviewSplitResponse], error)
	GetBalances(context.Context, *connect.Request[GetBalancesRequest]) (*connect.Response[GetBalancesResponse], error)
}

// NewLedgerServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewLedgerServiceHandler(svc LedgerServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	handlers := map[string]http.Handler{
		LedgerServiceListUsersProcedure:    connect.NewUnaryHandler(LedgerServiceListUsersProcedure, svc.ListUsers, opts...),
		LedgerServiceAddUserProcedure:      connect.NewUnaryHandler(LedgerServiceAddUserProcedure, svc.AddUser, opts...),
		LedgerServiceGetUserProcedure:      connect.NewUnaryHandler(LedgerServiceGetUserProcedure, svc.GetUser, opts...),
		LedgerServiceListExpensesProcedure: connect.NewUnaryHandler(LedgerServiceListExpensesProcedure, svc.ListExpenses, opts...),
		LedgerServiceAddExpenseProcedure:   connect.NewUnaryHandler(LedgerServiceAddExpenseProcedure, svc.AddExpense, opts...),
		LedgerServicePreviewSplitProcedure: connect.NewUnaryHandler(LedgerServicePreviewSplitProcedure, svc.PreviewSplit, opts...),
		LedgerServiceGetBalancesProcedure:  connect.NewUnaryHandler(LedgerServiceGetBalancesProcedure, svc.GetBalances, opts...),
	}

	return "/" + LedgerServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		h.ServeHTTP(w, r)
	})
}

// UnimplementedLedgerServiceHandler returns CodeUnimplemented from all methods.
type UnimplementedLedgerServiceHandler struct{}

func (UnimplementedLedgerServiceHandler) ListUsers(context.Context, *connect.Request[ListUsersRequest]) (*connect.Response[ListUsersResponse], error) {
	return nil, unimplemented(LedgerServiceListUsersProcedure)
}

func (UnimplementedLedgerServiceHandler) AddUser(context.Context, *connect.Request[AddUserRequest]) (*connect.Response[AddUserResponse], error) {
	return nil, unimplemented(LedgerServiceAddUserProcedure)
}

func (UnimplementedLedgerServiceHandler) GetUser(context.Context, *connect.Request[GetUserRequest]) (*connect.Response[GetUserResponse], error) {
	return nil, unimplemented(LedgerServiceGetUserProcedure)
}

func (UnimplementedLedgerServiceHandler) ListExpenses(context.Context, *connect.Request[ListExpensesRequest]) (*connect.Response[ListExpensesResponse], error) {
	return nil, unimplemented(LedgerServiceListExpensesProcedure)
}

func (UnimplementedLedgerServiceHandler) AddExpense(context.Context, *connect.Request[AddExpenseRequest]) (*connect.Response[AddExpenseResponse], error) {
	return nil, unimplemented(LedgerServiceAddExpenseProcedure)
}

func (UnimplementedLedgerServiceHandler) PreviewSplit(context.Context, *connect.Request[PreviewSplitRequest]) (*connect.Response[PreviewSplitResponse], error) {
	return nil, unimplemented(LedgerServicePreviewSplitProcedure)
}

func (UnimplementedLedgerServiceHandler) GetBalances(context.Context, *connect.Request[GetBalancesRequest]) (*connect.Response[GetBalancesResponse], error) {
	return nil, unimplemented(LedgerServiceGetBalancesProcedure)
}

func unimplemented(procedure string) error {
	return connect.NewError(connect.CodeUnimplemented, errors.New(procedure+" is not implemented"))
}

// LedgerServiceClient is a client for LedgerService.
type LedgerServiceClient interface {
	ListUsers(context.Context, *connect.Request[ListUsersRequest]) (*connect.Response[ListUsersResponse], error)
	AddUser(context.Context, *connect.Request[AddUserRequest]) (*connect.Response[AddUserResponse], error)
	GetUser(context.Context, *connect.Request[GetUserRequest]) (*connect.Response[GetUserResponse], error)
	ListExpenses(context.Context, *connect.Request[ListExpensesRequest]) (*connect.Response[ListExpensesResponse], error)
	AddExpense(context.Context, *connect.Request[AddExpenseRequest]) (*connect.Response[AddExpenseResponse], error)
	PreviewSplit(context.Context, *connect.Request[PreviewSplitRequest]) (*connect.Response[PreviewSplitResponse], error)
	GetBalances(context.Context, *connect.Request[GetBalancesRequest]) (*connect.Response[GetBalancesResponse], error)
}

// NewLedgerServiceClient constructs a client for LedgerService at baseURL
// (for example, http://localhost:8080).
func NewLedgerServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) LedgerServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
	return &ledgerServiceClient{
		listUsers:    connect.NewClient[ListUsersRequest, ListUsersResponse](httpClient, baseURL+LedgerServiceListUsersProcedure, opts...),
		addUser:      connect.NewClient[AddUserRequest, AddUserResponse](httpClient, baseURL+LedgerServiceAddUserProcedure, opts...),
		getUser:      connect.NewClient[GetUserRequest, GetUserResponse](httpClient, baseURL+LedgerServiceGetUserProcedure, opts...),
		listExpenses: connect.NewClient[ListExpensesRequest, ListExpensesResponse](httpClient, baseURL+LedgerServiceListExpensesProcedure, opts...),
		addExpense:   connect.NewClient[AddExpenseRequest, AddExpenseResponse](httpClient, baseURL+LedgerServiceAddExpenseProcedure, opts...),
		previewSplit: connect.NewClient[PreviewSplitRequest, PreviewSplitResponse](httpClient, baseURL+LedgerServicePreviewSplitProcedure, opts...),
		getBalances:  connect.NewClient[GetBalancesRequest, GetBalancesResponse](httpClient, baseURL+LedgerServiceGetBalancesProcedure, opts...),
	}
}

type ledgerServiceClient struct {
	listUsers    *connect.Client[ListUsersRequest, ListUsersResponse]
	addUser      *connect.Client[AddUserRequest, AddUserResponse]
	getUser      *connect.Client[GetUserRequest, GetUserResponse]
	listExpenses *connect.Client[ListExpensesRequest, ListExpensesResponse]
	addExpense   *connect.Client[AddExpenseRequest, AddExpenseResponse]
	previewSplit *connect.Client[PreviewSplitRequest, PreviewSplitResponse]
	getBalances  *connect.Client[GetBalancesRequest, GetBalancesResponse]
}

func (c *ledgerServiceClient) ListUsers(ctx context.Context, req *connect.Request[ListUsersRequest]) (*connect.Response[ListUsersResponse], error) {
	return c.listUsers.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) AddUser(ctx context.Context, req *connect.Request[AddUserRequest]) (*connect.Response[AddUserResponse], error) {
	return c.addUser.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) GetUser(ctx context.Context, req *connect.Request[GetUserRequest]) (*connect.Response[GetUserResponse], error) {
	return c.getUser.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) ListExpenses(ctx context.Context, req *connect.Request[ListExpensesRequest]) (*connect.Response[ListExpensesResponse], error) {
	return c.listExpenses.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) AddExpense(ctx context.Context, req *connect.Request[AddExpenseRequest]) (*connect.Response[AddExpenseResponse], error) {
	return c.addExpense.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) PreviewSplit(ctx context.Context, req *connect.Request[PreviewSplitRequest]) (*connect.Response[PreviewSplitResponse], error) {
	return c.previewSplit.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) GetBalances(ctx context.Context, req *connect.Request[GetBalancesRequest]) (*connect.Response[GetBalancesResponse], error) {
	return c.getBalances.CallUnary(ctx, req)
}
