// Package metrics exposes Prometheus collectors for the storefront client.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "imageshop"

// Outcome labels.
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeRejected = "rejected"
)

// Metrics groups the client collectors.
type Metrics struct {
	RequestCount     *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RefreshExchanges *prometheus.CounterVec
	CartMutations    *prometheus.CounterVec
	Checkouts        *prometheus.CounterVec
}

// New builds the collectors and registers them with reg (nil = prometheus.DefaultRegisterer).
// Collectors already registered by an earlier New are reused.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		RequestCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Outbound API requests by method, path and status.",
		}, []string{"method", "path", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Outbound API request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		RefreshExchanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "refresh_exchanges_total",
			Help:      "Refresh-token exchanges actually sent, by outcome.",
		}, []string{"outcome"}),
		CartMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cart",
			Name:      "mutations_total",
			Help:      "Cart mutations by operation and outcome.",
		}, []string{"op", "outcome"}),
		Checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "checkouts_total",
			Help:      "Checkout attempts by ledger and outcome.",
		}, []string{"ledger", "outcome"}),
	}
	m.RequestCount = register(reg, m.RequestCount)
	m.RequestDuration = register(reg, m.RequestDuration)
	m.RefreshExchanges = register(reg, m.RefreshExchanges)
	m.CartMutations = register(reg, m.CartMutations)
	m.Checkouts = register(reg, m.Checkouts)
	return m
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// ObserveRequest records one finished request. status 0 means a transport failure.
func (m *Metrics) ObserveRequest(method, path string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestCount.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

// Refresh records one refresh exchange.
func (m *Metrics) Refresh(outcome string) {
	if m == nil {
		return
	}
	m.RefreshExchanges.WithLabelValues(outcome).Inc()
}

// CartMutation records one cart operation.
func (m *Metrics) CartMutation(op, outcome string) {
	if m == nil {
		return
	}
	m.CartMutations.WithLabelValues(op, outcome).Inc()
}

// Checkout records one checkout attempt.
func (m *Metrics) Checkout(ledger, outcome string) {
	if m == nil {
		return
	}
	m.Checkouts.WithLabelValues(ledger, outcome).Inc()
}
