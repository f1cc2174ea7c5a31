package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"connectrpc.com/connect"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/internal/storage/backend"
	"github.com/mmynk/splitledger/pkg/api"
)

func setupServer(t *testing.T) (*httptest.Server, storage.Store) {
	t.Helper()

	reg, m := metrics.NewRegistry()
	store, err := backend.Open(backend.File, filepath.Join(t.TempDir(), "store.json"), m)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}

	l := ledger.New(store,
		ledger.WithHasher(auth.NewBcryptHasher(bcrypt.MinCost)),
		ledger.WithMetrics(m),
	)
	srv := httptest.NewServer(Router(Deps{
		Ledger:         l,
		Store:          store,
		Gatherer:       reg,
		AllowedOrigins: []string{"http://app.test"},
	}))
	t.Cleanup(func() {
		srv.Close()
		store.Close()
	})
	return srv, store
}

func TestRouter_LedgerService(t *testing.T) {
	srv, _ := setupServer(t)
	client := api.NewLedgerServiceClient(srv.Client(), srv.URL)
	ctx := context.Background()

	_, err := client.AddUser(ctx, connect.NewRequest(&api.AddUserRequest{Name: "Alice", Email: "alice@example.com"}))
	if err != nil {
		t.Fatalf("AddUser failed: %v", err)
	}
	resp, err := client.ListUsers(ctx, connect.NewRequest(&api.ListUsersRequest{}))
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if len(resp.Msg.Users) != 1 {
		t.Errorf("expected 1 user, got %+v", resp.Msg.Users)
	}
	if resp.Header().Get(middleware.RequestIDHeader) == "" {
		t.Error("expected request id header on RPC response")
	}
}

func TestRouter_Healthz(t *testing.T) {
	srv, _ := setupServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	broken := httptest.NewServer(Router(Deps{Ledger: ledger.New(failingStore{}), Store: failingStore{}}))
	defer broken.Close()
	resp, err = http.Get(broken.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503 for a failing store, got %d", resp.StatusCode)
	}
}

func TestRouter_Metrics(t *testing.T) {
	srv, _ := setupServer(t)
	client := api.NewLedgerServiceClient(srv.Client(), srv.URL)
	if _, err := client.AddUser(context.Background(), connect.NewRequest(&api.AddUserRequest{Name: "Bob", Email: "bob@example.com"})); err != nil {
		t.Fatalf("AddUser failed: %v", err)
	}

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics failed: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	for _, want := range []string{
		"splitledger_users_registered_total 1",
		`splitledger_store_operation_duration_seconds_count{backend="file",op="update"}`,
		"go_goroutines",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestRouter_CORS(t *testing.T) {
	srv, _ := setupServer(t)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+api.LedgerServiceListUsersProcedure, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Origin", "http://app.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("preflight failed: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://app.test" {
		t.Errorf("expected allowed origin echoed, got %q", got)
	}
}

func TestNew(t *testing.T) {
	s := New(":0", Deps{Ledger: ledger.New(failingStore{}), Store: failingStore{}})
	if s.Addr != ":0" || s.Handler == nil {
		t.Errorf("unexpected server: %+v", s)
	}
}
