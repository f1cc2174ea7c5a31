package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/server"
)

func (a *app) newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the LedgerService HTTP server",
		Long: `Run the Connect LedgerService over HTTP/1.1 and h2c, with /healthz and /metrics.
The server shuts down gracefully on SIGINT or SIGTERM.

Example:
  splitledger serve --port 9090 --backend sqlite`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != "" {
				a.cfg.Port = port
				if err := a.cfg.Validate(); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(contextOf(cmd), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			lis, err := net.Listen("tcp", a.cfg.Addr())
			if err != nil {
				return fmt.Errorf("failed to listen on %s: %w", a.cfg.Addr(), err)
			}
			return a.serve(ctx, lis)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "listen port (overrides PORT)")
	return cmd
}

// serve runs the server on lis until ctx is done, then drains in-flight
// requests within the configured shutdown timeout.
func (a *app) serve(ctx context.Context, lis net.Listener) error {
	reg, m := metrics.NewRegistry()
	l, store, err := a.openLedger(m)
	if err != nil {
		lis.Close()
		return err
	}
	defer store.Close()

	srv := server.New(lis.Addr().String(), server.Deps{
		Ledger:         l,
		Store:          store,
		Gatherer:       reg,
		AllowedOrigins: a.cfg.CORSAllowedOrigins,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Server starting",
			"address", lis.Addr().String(),
			"backend", a.cfg.Backend,
			"store", a.cfg.StoreLocation(),
		)
		if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down server", "timeout", a.cfg.ShutdownTimeout)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
		slog.Info("Server stopped")
		return nil
	})
	return g.Wait()
}
