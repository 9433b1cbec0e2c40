package middleware

import (
	"context"
	"time"

	"github.com/ahrav/go-tender/internal/domain"
	"github.com/ahrav/go-tender/internal/ports"
)

// MultiObserver forwards every event to each wrapped observer in order.
type MultiObserver []ports.EvaluationObserver

var _ ports.EvaluationObserver = MultiObserver(nil)

// NewMultiObserver drops nil observers. With a single observer left it is
// returned unwrapped; with none, a NopObserver is returned.
func NewMultiObserver(observers ...ports.EvaluationObserver) ports.EvaluationObserver {
	var out MultiObserver
	for _, o := range observers {
		if o != nil {
			out = append(out, o)
		}
	}
	switch len(out) {
	case 0:
		return ports.NopObserver{}
	case 1:
		return out[0]
	}
	return out
}

func (m MultiObserver) RunStarted(ctx context.Context, runID string, suppliers int) {
	for _, o := range m {
		o.RunStarted(ctx, runID, suppliers)
	}
}

func (m MultiObserver) SupplierStarted(ctx context.Context, supplier string) {
	for _, o := range m {
		o.SupplierStarted(ctx, supplier)
	}
}

func (m MultiObserver) RequestRetried(ctx context.Context, supplier string, attempt int, delay time.Duration, err error) {
	for _, o := range m {
		o.RequestRetried(ctx, supplier, attempt, delay, err)
	}
}

func (m MultiObserver) TemplateFallback(ctx context.Context, path string, err error) {
	for _, o := range m {
		o.TemplateFallback(ctx, path, err)
	}
}

func (m MultiObserver) ParseFallback(ctx context.Context, supplier string, err error) {
	for _, o := range m {
		o.ParseFallback(ctx, supplier, err)
	}
}

func (m MultiObserver) SupplierFinished(ctx context.Context, card domain.Scorecard, elapsed time.Duration) {
	for _, o := range m {
		o.SupplierFinished(ctx, card, elapsed)
	}
}

func (m MultiObserver) RunFinished(ctx context.Context, runID string, ranked []domain.RankedResult, err error) {
	for _, o := range m {
		o.RunFinished(ctx, runID, ranked, err)
	}
}
