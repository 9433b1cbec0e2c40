package llm

import (
	"context"
	"time"

	"github.com/ahrav/go-tender/internal/ports"
)

// Metric names emitted by MetricsMiddleware.
const (
	MetricRequestLatency = "llm_request_duration_seconds"
	MetricRequestsTotal  = "llm_requests_total"
	MetricTokensTotal    = "llm_tokens_total"
)

// metricsLLM records latency, outcome, and token usage for every request.
type metricsLLM struct {
	next      CoreLLM
	collector ports.MetricsCollector
	provider  string
}

// MetricsMiddleware creates middleware that reports each request to
// collector, labelled with provider and model.
func MetricsMiddleware(collector ports.MetricsCollector, provider string) Middleware {
	return func(next CoreLLM) CoreLLM {
		return &metricsLLM{
			next:      next,
			collector: collector,
			provider:  provider,
		}
	}
}

// DoRequest executes the request and records its outcome. The status label
// is "success" or the classified error type, such as "rate_limit".
func (m *metricsLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	start := time.Now()
	response, tokensIn, tokensOut, err := m.next.DoRequest(ctx, prompt, opts)

	if m.collector == nil {
		return response, tokensIn, tokensOut, err
	}

	status := "success"
	if err != nil {
		status = ClassifyError(err).String()
	}
	labels := map[string]string{
		"provider": m.provider,
		"model":    m.next.GetModel(),
		"status":   status,
	}

	m.collector.RecordLatency(MetricRequestLatency, time.Since(start), labels)
	m.collector.RecordCounter(MetricRequestsTotal, 1, labels)

	if err == nil {
		m.collector.RecordCounter(MetricTokensTotal, float64(tokensIn), tokenLabels(labels, "input"))
		m.collector.RecordCounter(MetricTokensTotal, float64(tokensOut), tokenLabels(labels, "output"))
	}

	return response, tokensIn, tokensOut, err
}

func tokenLabels(base map[string]string, tokenType string) map[string]string {
	out := make(map[string]string, len(base)+1)
	for k, v := range base {
		out[k] = v
	}
	out["token_type"] = tokenType
	return out
}

// GetModel returns the model name from the wrapped implementation.
func (m *metricsLLM) GetModel() string { return m.next.GetModel() }

// SetModel updates the model name in the wrapped implementation.
func (m *metricsLLM) SetModel(model string) { m.next.SetModel(model) }
