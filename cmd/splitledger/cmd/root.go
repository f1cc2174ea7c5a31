// Package cmd provides CLI commands for splitledger.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmynk/splitledger/internal/config"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/internal/storage/backend"
	"github.com/mmynk/splitledger/pkg/logging"
)

// app holds the global flags and the configuration they resolve to.
type app struct {
	envFile   string
	backend   string
	storePath string
	logLevel  string
	output    string

	cfg *config.Config
}

// newRootCmd builds the command tree. Each call returns independent state.
func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "splitledger",
		Short: "Track shared expenses and who owes whom",
		Long: `splitledger records expenses paid by one user and split among all users,
and reports every user's net balance.

Split policies:
- EQUAL: everyone pays the same, the payer absorbs rounding
- EXACT: explicit amounts for other users, the payer covers the rest
- PERCENTAGE: percentages for other users, the payer covers the rest

Example:
  splitledger users add --name Alice --email alice@example.com
  splitledger expenses add --description Dinner --amount 90 --paid-by 1 --policy EQUAL
  splitledger balances --settle
  splitledger serve`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.envFile, "env-file", "", "env file to load (default is .env when present)")
	flags.StringVar(&a.backend, "backend", "", "store backend: file, sqlite or bolt (overrides STORE_BACKEND); a bolt store is locked while serve runs")
	flags.StringVar(&a.storePath, "store", "", "store location (overrides STORE_PATH)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides LOG_LEVEL)")
	flags.StringVarP(&a.output, "output", "o", "table", "output format: table, json or yaml")

	rootCmd.AddCommand(
		a.newServeCmd(),
		a.newUsersCmd(),
		a.newExpensesCmd(),
		a.newBalancesCmd(),
	)
	return rootCmd
}

// Execute runs the CLI. This is called by main.main().
func Execute() error {
	return newRootCmd().Execute()
}

// setup loads configuration, applies flag overrides and configures logging.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.envFile)
	if err != nil {
		return err
	}
	if a.backend != "" {
		cfg.Backend = a.backend
	}
	if a.storePath != "" {
		cfg.StorePath = a.storePath
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if _, err := newPrinter(a.output, cmd.OutOrStdout()); err != nil {
		return err
	}

	level, _ := logging.ParseLevel(cfg.LogLevel)
	slog.SetDefault(logging.New(os.Stderr, level))

	a.cfg = cfg
	return nil
}

// openLedger opens the configured store and returns a ledger over it.
// The caller must close the returned store.
func (a *app) openLedger(m *metrics.Metrics) (*ledger.Ledger, storage.Store, error) {
	store, err := backend.Open(backend.Type(a.cfg.Backend), a.cfg.StoreLocation(), m)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store: %w", err)
	}
	return ledger.New(store, ledger.WithMetrics(m)), store, nil
}

// withLedger runs fn against a freshly opened ledger and closes the store afterwards.
func (a *app) withLedger(fn func(l *ledger.Ledger) error) error {
	l, store, err := a.openLedger(nil)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(l)
}

func (a *app) printer(cmd *cobra.Command) *printer {
	p, _ := newPrinter(a.output, cmd.OutOrStdout())
	return p
}
