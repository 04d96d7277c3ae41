// Package telemetry holds the process-wide metrics and tracer.
//
// Metrics are registered with the default Prometheus registry on package
// init and served by the HTTP service at /metrics. Spans go through the
// global OpenTelemetry provider, which is a no-op unless the host installs one.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// TracerName identifies spans emitted by this module.
const TracerName = "gonfa"

// Query kinds used as the "kind" label.
const (
	KindSimulate   = "simulate"
	KindVerify     = "verify"
	KindCrosscheck = "crosscheck"
	KindBatch      = "batch"
)

// Results used as the "result" label. Batches use their status ("success",
// "partial", "error") instead.
const (
	ResultAccepted  = "accepted"
	ResultRejected  = "rejected"
	ResultExhausted = "exhausted"
	ResultError     = "error"
)

var (
	// QueriesTotal counts acceptance queries by kind and result.
	QueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gonfa_queries_total",
		Help: "Total acceptance queries by kind and result",
	}, []string{"kind", "result"})

	// QueryDuration tracks query latency by kind.
	QueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gonfa_query_duration_seconds",
		Help:    "Acceptance query duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 12), // 10µs to ~40s
	}, []string{"kind"})

	// DeadEndsTotal counts simulations that stopped on an unreadable symbol.
	DeadEndsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gonfa_dead_ends_total",
		Help: "Simulations that reached a dead configuration",
	})

	// CrosscheckWordsTotal counts crosscheck verdicts by outcome.
	CrosscheckWordsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gonfa_crosscheck_words_total",
		Help: "Words compared by crosscheck runs, by outcome",
	}, []string{"outcome"})

	// AutomataRegistered tracks automata held by the service registry.
	AutomataRegistered = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gonfa_automata_registered",
		Help: "Automata currently held in the registry",
	})

	// HTTPRequestsTotal counts HTTP requests by route and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gonfa_http_requests_total",
		Help: "HTTP requests by route and status code",
	}, []string{"method", "route", "status"})
)

// Tracer returns the module tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

// ObserveQuery records one query outcome.
func ObserveQuery(kind, result string, started time.Time) {
	QueriesTotal.WithLabelValues(kind, result).Inc()
	QueryDuration.WithLabelValues(kind).Observe(time.Since(started).Seconds())
}

// Verdict maps an acceptance decision to a result label.
func Verdict(accepted bool) string {
	if accepted {
		return ResultAccepted
	}
	return ResultRejected
}
