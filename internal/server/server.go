// Package server assembles the HTTP surface: the Connect LedgerService,
// health and metrics endpoints, CORS and request middleware.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/service"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/pkg/api"
)

// Deps are the components the HTTP surface is built from.
type Deps struct {
	Ledger *ledger.Ledger
	Store  storage.Store

	// Gatherer backs /metrics. The endpoint is not mounted when nil.
	Gatherer prometheus.Gatherer

	AllowedOrigins []string
}

// Router builds the chi router with every route and middleware mounted.
func Router(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: deps.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Connect-Protocol-Version", "Connect-Timeout-Ms", middleware.RequestIDHeader},
		ExposedHeaders: []string{"Connect-Protocol-Version", "Connect-Timeout-Ms", api.ErrorKindHeader, middleware.RequestIDHeader},
		MaxAge:         300,
	}))

	path, handler := api.NewLedgerServiceHandler(
		service.NewLedgerService(deps.Ledger),
		connect.WithInterceptors(middleware.LoggingInterceptor()),
	)
	r.Mount(path, handler)

	r.Get("/healthz", healthz(deps.Store))
	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// New returns an http.Server for the router, wrapped with h2c so Connect
// clients can use HTTP/2 without TLS.
func New(addr string, deps Deps) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h2c.NewHandler(Router(deps), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// healthz reports whether the store can be read.
func healthz(store storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if _, err := store.Load(ctx); err != nil {
			slog.Warn("Health check failed", "error", err)
			http.Error(w, "store unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	}
}
