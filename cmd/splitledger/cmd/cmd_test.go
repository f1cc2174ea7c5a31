package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mmynk/splitledger/internal/config"
)

// run executes the CLI against a store in dir and returns stdout.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append([]string{"--backend", "file", "--store", filepath.Join(dir, "store.json"), "--log-level", "error"}, args...))
	err := root.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, dir string, args ...string) string {
	t.Helper()
	out, err := run(t, dir, args...)
	if err != nil {
		t.Fatalf("splitledger %s failed: %v", strings.Join(args, " "), err)
	}
	return out
}

func seed(t *testing.T, dir string) {
	t.Helper()
	for _, name := range []string{"alice", "bob", "carol"} {
		mustRun(t, dir, "users", "add", "--name", name, "--email", name+"@example.com")
	}
}

func TestUsersCommands(t *testing.T) {
	dir := t.TempDir()
	seed(t, dir)

	out := mustRun(t, dir, "users", "list", "-o", "json")
	var users []userView
	if err := json.Unmarshal([]byte(out), &users); err != nil {
		t.Fatalf("invalid JSON output %q: %v", out, err)
	}
	if len(users) != 3 || users[2].Name != "carol" || users[2].ID != 3 {
		t.Errorf("unexpected users: %+v", users)
	}

	table := mustRun(t, dir, "users", "list")
	if !strings.Contains(table, "EMAIL") || !strings.Contains(table, "bob@example.com") {
		t.Errorf("unexpected table output:\n%s", table)
	}

	if _, err := run(t, dir, "users", "add", "--name", "Bobby", "--email", "BOB@example.com"); err == nil {
		t.Error("expected duplicate email to fail")
	}
}

func TestExpensesCommands(t *testing.T) {
	dir := t.TempDir()
	seed(t, dir)

	out := mustRun(t, dir, "expenses", "preview", "--amount", "50", "--paid-by", "1", "--policy", "percentage", "--share", "2=60", "-o", "json")
	var preview []shareView
	if err := json.Unmarshal([]byte(out), &preview); err != nil {
		t.Fatalf("invalid JSON output %q: %v", out, err)
	}
	if len(preview) != 2 || preview[0].Amount != "30.00" || preview[1].Amount != "20.00" {
		t.Errorf("unexpected preview: %+v", preview)
	}

	out = mustRun(t, dir, "expenses", "add", "--description", "Tickets", "--amount", "100", "--paid-by", "1",
		"--policy", "EXACT", "--share", "2=40", "--share", "3=30", "-o", "json")
	var e expenseView
	if err := json.Unmarshal([]byte(out), &e); err != nil {
		t.Fatalf("invalid JSON output %q: %v", out, err)
	}
	if e.ID != 1 || e.SplitType != "EXACT" || len(e.Shares) != 3 || e.Shares[2].Name != "alice" || e.Shares[2].Amount != "30.00" {
		t.Errorf("unexpected expense: %+v", e)
	}

	list := mustRun(t, dir, "expenses", "list")
	if !strings.Contains(list, "Tickets") || !strings.Contains(list, "100.00") {
		t.Errorf("unexpected list output:\n%s", list)
	}
}

func TestExpensesAdd_Rejected(t *testing.T) {
	dir := t.TempDir()
	seed(t, dir)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "unknown policy", args: []string{"--policy", "UNKNOWN"}, want: "unsupported split policy"},
		{name: "malformed share", args: []string{"--policy", "EXACT", "--share", "2:40"}, want: "want id=value"},
		{name: "bad amount", args: []string{"--amount", "ten"}, want: "invalid --amount"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"expenses", "add", "--amount", "10", "--paid-by", "1"}, tt.args...)
			_, err := run(t, dir, args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}

	out := mustRun(t, dir, "expenses", "list", "-o", "json")
	if strings.TrimSpace(out) != "[]" {
		t.Errorf("rejected expenses must not be stored, got %s", out)
	}
}

func TestBalancesCommand(t *testing.T) {
	dir := t.TempDir()
	seed(t, dir)
	mustRun(t, dir, "expenses", "add", "--description", "Dinner", "--amount", "90", "--paid-by", "1")

	out := mustRun(t, dir, "balances", "--settle", "-o", "yaml")
	var v balancesView
	if err := yaml.Unmarshal([]byte(out), &v); err != nil {
		t.Fatalf("invalid YAML output %q: %v", out, err)
	}
	want := map[int64]string{1: "60.00", 2: "-30.00", 3: "-30.00"}
	for _, b := range v.Balances {
		if b.Net != want[b.UserID] {
			t.Errorf("net for %d = %s, want %s", b.UserID, b.Net, want[b.UserID])
		}
	}
	if len(v.Settlements) != 2 || v.Settlements[0].ToName != "alice" {
		t.Errorf("unexpected settlements: %+v", v.Settlements)
	}

	table := mustRun(t, dir, "balances", "--settle")
	if !strings.Contains(table, "FROM") || !strings.Contains(table, "-30.00") {
		t.Errorf("unexpected table output:\n%s", table)
	}
}

func TestParseShares(t *testing.T) {
	tests := []struct {
		name    string
		raw     []string
		want    map[int64]string
		wantErr bool
	}{
		{name: "none", raw: nil, want: map[int64]string{}},
		{name: "values", raw: []string{"2=40", " 3 = 12.5 "}, want: map[int64]string{2: "40", 3: "12.5"}},
		{name: "empty value is zero", raw: []string{"2="}, want: map[int64]string{2: "0"}},
		{name: "missing separator", raw: []string{"2"}, wantErr: true},
		{name: "bad id", raw: []string{"bob=2"}, wantErr: true},
		{name: "bad value", raw: []string{"2=lots"}, wantErr: true},
		{name: "repeated user", raw: []string{"2=1", "2=3"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseShares(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseShares error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d entries, got %v", len(tt.want), got)
			}
			for id, v := range tt.want {
				if got[id].String() != v {
					t.Errorf("share[%d] = %s, want %s", id, got[id], v)
				}
			}
		})
	}
}

func TestInvalidOutputFormat(t *testing.T) {
	if _, err := run(t, t.TempDir(), "users", "list", "-o", "xml"); err == nil {
		t.Error("expected error for unknown output format")
	}
}

func TestServe(t *testing.T) {
	a := &app{cfg: &config.Config{
		Port:               "0",
		CORSAllowedOrigins: []string{"*"},
		ShutdownTimeout:    2 * time.Second,
		Backend:            "bolt",
		StorePath:          filepath.Join(t.TempDir(), "ledger.bolt"),
		LogLevel:           "error",
	}}

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.serve(ctx, lis) }()

	url := "http://" + lis.Addr().String() + "/healthz"
	var resp *http.Response
	for i := 0; i < 50; i++ {
		if resp, err = http.Get(url); err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("GET /healthz failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("serve returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
