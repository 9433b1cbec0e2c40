package middleware

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/go-tender/infrastructure/llm"
	"github.com/ahrav/go-tender/internal/domain"
	"github.com/ahrav/go-tender/internal/ports"
)

const tracerName = "github.com/ahrav/go-tender/evaluation"

var _ ports.EvaluationObserver = (*OTelObserver)(nil)

// OTelObserver records an evaluation run as an OpenTelemetry trace: one
// span for the run and a child span per supplier. Retries and fallbacks
// become span events.
type OTelObserver struct {
	tracer trace.Tracer

	mu        sync.Mutex
	runs      map[string]trace.Span
	runCtx    context.Context
	suppliers map[string]trace.Span
}

// NewOTelObserver creates an observer using the global tracer provider.
func NewOTelObserver() *OTelObserver {
	return NewOTelObserverWithTracer(otel.Tracer(tracerName))
}

// NewOTelObserverWithTracer creates an observer using tracer.
func NewOTelObserverWithTracer(tracer trace.Tracer) *OTelObserver {
	return &OTelObserver{
		tracer:    tracer,
		runs:      make(map[string]trace.Span),
		suppliers: make(map[string]trace.Span),
	}
}

func (o *OTelObserver) RunStarted(ctx context.Context, runID string, suppliers int) {
	runCtx, span := o.tracer.Start(ctx, "tender.evaluation",
		trace.WithAttributes(
			attribute.String("tender.run_id", runID),
			attribute.Int("tender.suppliers", suppliers),
		))

	o.mu.Lock()
	o.runs[runID] = span
	o.runCtx = runCtx
	o.mu.Unlock()
}

func (o *OTelObserver) SupplierStarted(ctx context.Context, supplier string) {
	o.mu.Lock()
	parent := o.runCtx
	o.mu.Unlock()
	if parent == nil {
		parent = ctx
	}

	_, span := o.tracer.Start(parent, "tender.supplier",
		trace.WithAttributes(attribute.String("tender.supplier", supplier)))

	o.mu.Lock()
	o.suppliers[supplier] = span
	o.mu.Unlock()
}

func (o *OTelObserver) RequestRetried(_ context.Context, supplier string, attempt int, delay time.Duration, err error) {
	span := o.supplierSpan(supplier)
	if span == nil {
		return
	}
	span.AddEvent("request.retry", trace.WithAttributes(
		attribute.Int("attempt", attempt),
		attribute.Int64("backoff_ms", delay.Milliseconds()),
		attribute.String("error.type", llm.ClassifyError(err).String()),
		attribute.String("error.message", err.Error()),
	))
}

func (o *OTelObserver) TemplateFallback(ctx context.Context, path string, err error) {
	trace.SpanFromContext(ctx).AddEvent("prompt.template_fallback", trace.WithAttributes(
		attribute.String("path", path),
		attribute.String("error.message", err.Error()),
	))
}

func (o *OTelObserver) ParseFallback(_ context.Context, supplier string, err error) {
	span := o.supplierSpan(supplier)
	if span == nil {
		return
	}
	span.AddEvent("response.parse_fallback", trace.WithAttributes(
		attribute.String("error.message", err.Error()),
	))
}

func (o *OTelObserver) SupplierFinished(_ context.Context, card domain.Scorecard, elapsed time.Duration) {
	o.mu.Lock()
	span, ok := o.suppliers[card.SupplierName]
	delete(o.suppliers, card.SupplierName)
	o.mu.Unlock()
	if !ok {
		return
	}

	span.SetAttributes(
		attribute.String("tender.status", string(card.Status)),
		attribute.String("tender.model", card.ModelUsed),
		attribute.Int64("tender.elapsed_ms", elapsed.Milliseconds()),
	)
	if card.Status == domain.StatusError {
		span.SetStatus(codes.Error, card.Error)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

func (o *OTelObserver) RunFinished(_ context.Context, runID string, ranked []domain.RankedResult, err error) {
	o.mu.Lock()
	span, ok := o.runs[runID]
	delete(o.runs, runID)
	if len(o.runs) == 0 {
		o.runCtx = nil
	}
	o.mu.Unlock()
	if !ok {
		return
	}
	defer span.End()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}

	span.SetAttributes(attribute.Int("tender.ranked", len(ranked)))
	if len(ranked) > 0 {
		span.SetAttributes(
			attribute.String("tender.top_supplier", ranked[0].SupplierName),
			attribute.Float64("tender.top_score", ranked[0].WeightedScore),
		)
	}
	span.SetStatus(codes.Ok, "")
}

func (o *OTelObserver) supplierSpan(supplier string) trace.Span {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.suppliers[supplier]
}
