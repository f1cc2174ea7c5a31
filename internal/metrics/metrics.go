// Package metrics defines the Prometheus collectors exported by Splitledger.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "splitledger"

// Metrics holds every collector. A nil *Metrics is valid and records nothing,
// which keeps tests and CLI commands free of registry plumbing.
type Metrics struct {
	StoreOperations   *prometheus.HistogramVec
	StoreErrors       *prometheus.CounterVec
	ExpensesRecorded  *prometheus.CounterVec
	UsersRegistered   prometheus.Counter
	ValidationFailure *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		StoreOperations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "operation_duration_seconds",
			Help:      "Duration of record store operations.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}, []string{"backend", "op"}),
		StoreErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "errors_total",
			Help:      "Record store operations that returned an error.",
		}, []string{"backend", "op"}),
		ExpensesRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expenses_recorded_total",
			Help:      "Expenses appended to the ledger.",
		}, []string{"policy"}),
		UsersRegistered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "users_registered_total",
			Help:      "Users added to the ledger.",
		}),
		ValidationFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_failures_total",
			Help:      "Rejected ledger writes by validation kind.",
		}, []string{"kind"}),
	}
	reg.MustRegister(
		m.StoreOperations,
		m.StoreErrors,
		m.ExpensesRecorded,
		m.UsersRegistered,
		m.ValidationFailure,
	)
	return m
}

// NewRegistry returns a registry with the Go and process collectors plus the
// Splitledger collectors.
func NewRegistry() (*prometheus.Registry, *Metrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg, New(reg)
}

// ObserveStore records one store operation.
func (m *Metrics) ObserveStore(backend, op string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.StoreOperations.WithLabelValues(backend, op).Observe(time.Since(start).Seconds())
	if err != nil {
		m.StoreErrors.WithLabelValues(backend, op).Inc()
	}
}

// ExpenseRecorded counts an appended expense.
func (m *Metrics) ExpenseRecorded(policy string) {
	if m == nil {
		return
	}
	m.ExpensesRecorded.WithLabelValues(policy).Inc()
}

// UserRegistered counts an added user.
func (m *Metrics) UserRegistered() {
	if m == nil {
		return
	}
	m.UsersRegistered.Inc()
}

// Rejected counts a validation failure of the given kind.
func (m *Metrics) Rejected(kind string) {
	if m == nil {
		return
	}
	m.ValidationFailure.WithLabelValues(kind).Inc()
}
