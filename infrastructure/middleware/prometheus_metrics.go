// Package middleware provides cross-cutting concerns for evaluation runs:
// metrics collection and the logging, tracing, and metrics observers.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ahrav/go-tender/infrastructure/llm"
	"github.com/ahrav/go-tender/internal/ports"
)

// Metric names accepted by PrometheusMetrics in addition to the llm
// package's request metrics.
const (
	MetricSupplierDuration    = "supplier_duration_seconds"
	MetricSupplierEvaluations = "supplier_evaluations_total"
	MetricRequestRetries      = "request_retries_total"
	MetricFallbacks           = "fallbacks_total"
	MetricWeightedScore       = "supplier_weighted_score"
	MetricRunSuppliers        = "run_suppliers"
	MetricRunDuration         = "run_duration_seconds"
)

const namespace = "tender"

// PrometheusMetrics implements the MetricsCollector interface using
// Prometheus. It tracks model request latency, token usage, retries,
// fallbacks and the distribution of supplier scores.
type PrometheusMetrics struct {
	requestLatency   *prometheus.HistogramVec
	requestsTotal    *prometheus.CounterVec
	tokensTotal      *prometheus.CounterVec
	supplierLatency  *prometheus.HistogramVec
	evaluationsTotal *prometheus.CounterVec
	retriesTotal     *prometheus.CounterVec
	fallbacksTotal   *prometheus.CounterVec
	weightedScores   *prometheus.HistogramVec
	operationCounter *prometheus.CounterVec
	operationLatency *prometheus.HistogramVec
	runGauges        *prometheus.GaugeVec
}

// NewPrometheusMetrics creates a PrometheusMetrics instance and registers
// its collectors with reg. A nil reg selects the default registry.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		// Model request metrics.
		requestLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      llm.MetricRequestLatency,
				Help:      "Latency of individual model requests.",
				Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
			},
			[]string{"provider", "model", "status"},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      llm.MetricRequestsTotal,
				Help:      "Model requests by outcome.",
			},
			[]string{"provider", "model", "status"},
		),
		tokensTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      llm.MetricTokensTotal,
				Help:      "Tokens consumed by model requests.",
			},
			[]string{"provider", "model", "token_type"},
		),

		// Evaluation metrics.
		supplierLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      MetricSupplierDuration,
				Help:      "Time to analyse one supplier proposal, retries included.",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
			},
			[]string{"status"},
		),
		evaluationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      MetricSupplierEvaluations,
				Help:      "Supplier analyses by final scorecard status.",
			},
			[]string{"status"},
		),
		retriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      MetricRequestRetries,
				Help:      "Model request retries by classified error type and retryability.",
			},
			[]string{"error_type", "retryable"},
		),
		fallbacksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      MetricFallbacks,
				Help:      "Template and parse fallbacks.",
			},
			[]string{"kind"},
		),
		weightedScores: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      MetricWeightedScore,
				Help:      "Distribution of weighted supplier scores.",
				Buckets:   prometheus.LinearBuckets(10, 10, 10),
			},
			[]string{"status"},
		),

		// Catch-all metrics for names without a dedicated collector.
		operationCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Counters without a dedicated metric.",
			},
			[]string{"operation"},
		),
		operationLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Latencies and histograms without a dedicated metric.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		runGauges: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "run_state",
				Help:      "Current values describing the evaluation run.",
			},
			[]string{"metric"},
		),
	}
}

// RecordLatency implements the MetricsCollector interface by recording
// execution latency in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordLatency(
	operation string,
	duration time.Duration,
	labels map[string]string,
) {
	switch operation {
	case llm.MetricRequestLatency:
		pm.requestLatency.WithLabelValues(
			label(labels, "provider"), label(labels, "model"), label(labels, "status"),
		).Observe(duration.Seconds())
	case MetricSupplierDuration:
		pm.supplierLatency.WithLabelValues(label(labels, "status")).Observe(duration.Seconds())
	default:
		pm.operationLatency.WithLabelValues(operation).Observe(duration.Seconds())
	}
}

// RecordCounter implements the MetricsCollector interface by incrementing
// Prometheus counters.
func (pm *PrometheusMetrics) RecordCounter(
	metric string, value float64, labels map[string]string,
) {
	switch metric {
	case llm.MetricRequestsTotal:
		pm.requestsTotal.WithLabelValues(
			label(labels, "provider"), label(labels, "model"), label(labels, "status"),
		).Add(value)
	case llm.MetricTokensTotal:
		pm.tokensTotal.WithLabelValues(
			label(labels, "provider"), label(labels, "model"), label(labels, "token_type"),
		).Add(value)
	case MetricSupplierEvaluations:
		pm.evaluationsTotal.WithLabelValues(label(labels, "status")).Add(value)
	case MetricRequestRetries:
		pm.retriesTotal.WithLabelValues(label(labels, "error_type"), label(labels, "retryable")).Add(value)
	case MetricFallbacks:
		pm.fallbacksTotal.WithLabelValues(label(labels, "kind")).Add(value)
	default:
		pm.operationCounter.WithLabelValues(metric).Add(value)
	}
}

// RecordGauge implements the MetricsCollector interface by setting
// Prometheus gauge values.
func (pm *PrometheusMetrics) RecordGauge(
	metric string, value float64, _ map[string]string,
) {
	pm.runGauges.WithLabelValues(metric).Set(value)
}

// RecordHistogram implements the MetricsCollector interface by recording
// values in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordHistogram(
	metric string, value float64, labels map[string]string,
) {
	switch metric {
	case MetricWeightedScore:
		pm.weightedScores.WithLabelValues(label(labels, "status")).Observe(value)
	default:
		pm.operationLatency.WithLabelValues(metric).Observe(value)
	}
}

func label(labels map[string]string, key string) string {
	if v, ok := labels[key]; ok && v != "" {
		return v
	}
	return "unknown"
}

// Compile-time verification that PrometheusMetrics implements MetricsCollector.
var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)
