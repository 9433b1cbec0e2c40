package middleware

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/ahrav/go-tender/infrastructure/llm"
	"github.com/ahrav/go-tender/internal/domain"
	"github.com/ahrav/go-tender/internal/ports"
)

var _ ports.EvaluationObserver = (*MetricsObserver)(nil)

// MetricsObserver turns evaluation events into metrics on a
// MetricsCollector.
type MetricsObserver struct {
	metrics ports.MetricsCollector

	mu     sync.Mutex
	starts map[string]time.Time
}

// NewMetricsObserver creates an observer reporting to metrics.
func NewMetricsObserver(metrics ports.MetricsCollector) *MetricsObserver {
	return &MetricsObserver{metrics: metrics, starts: make(map[string]time.Time)}
}

func (o *MetricsObserver) RunStarted(_ context.Context, runID string, suppliers int) {
	o.mu.Lock()
	o.starts[runID] = time.Now()
	o.mu.Unlock()
	o.metrics.RecordGauge(MetricRunSuppliers, float64(suppliers), nil)
}

func (o *MetricsObserver) SupplierStarted(context.Context, string) {}

func (o *MetricsObserver) RequestRetried(_ context.Context, _ string, _ int, _ time.Duration, err error) {
	o.metrics.RecordCounter(MetricRequestRetries, 1, map[string]string{
		"error_type": llm.ClassifyError(err).String(),
		"retryable":  strconv.FormatBool(llm.IsRetryable(err)),
	})
}

func (o *MetricsObserver) TemplateFallback(context.Context, string, error) {
	o.metrics.RecordCounter(MetricFallbacks, 1, map[string]string{"kind": "template"})
}

func (o *MetricsObserver) ParseFallback(context.Context, string, error) {
	o.metrics.RecordCounter(MetricFallbacks, 1, map[string]string{"kind": "parse"})
}

func (o *MetricsObserver) SupplierFinished(_ context.Context, card domain.Scorecard, elapsed time.Duration) {
	labels := map[string]string{"status": string(card.Status)}
	o.metrics.RecordLatency(MetricSupplierDuration, elapsed, labels)
	o.metrics.RecordCounter(MetricSupplierEvaluations, 1, labels)
}

func (o *MetricsObserver) RunFinished(_ context.Context, runID string, ranked []domain.RankedResult, err error) {
	o.mu.Lock()
	start, ok := o.starts[runID]
	delete(o.starts, runID)
	o.mu.Unlock()

	if ok {
		o.metrics.RecordLatency(MetricRunDuration, time.Since(start), nil)
	}
	if err != nil {
		return
	}
	for _, r := range ranked {
		o.metrics.RecordHistogram(MetricWeightedScore, r.WeightedScore, map[string]string{
			"status": string(r.Status),
		})
	}
}
