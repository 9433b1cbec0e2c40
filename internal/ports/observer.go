package ports

import (
	"context"
	"time"

	"github.com/ahrav/go-tender/internal/domain"
)

// EvaluationObserver receives progress events from an evaluation run.
// Implementations must be safe for concurrent use because suppliers may be
// analysed in parallel. Observers must not block; they are called inline.
type EvaluationObserver interface {
	// RunStarted is called once before any supplier is analysed.
	RunStarted(ctx context.Context, runID string, suppliers int)

	// SupplierStarted is called before the model is asked about a supplier.
	SupplierStarted(ctx context.Context, supplier string)

	// RequestRetried is called after a failed attempt, before the backoff
	// sleep. Attempt is 1-based.
	RequestRetried(ctx context.Context, supplier string, attempt int, delay time.Duration, err error)

	// TemplateFallback is called when the configured prompt template could
	// not be used and the built-in template was substituted.
	TemplateFallback(ctx context.Context, path string, err error)

	// ParseFallback is called when a model reply could not be decoded and a
	// neutral fallback scorecard was produced instead.
	ParseFallback(ctx context.Context, supplier string, err error)

	// SupplierFinished is called with the supplier's final scorecard.
	SupplierFinished(ctx context.Context, card domain.Scorecard, elapsed time.Duration)

	// RunFinished is called once with the ranked results, or with the error
	// that aborted the run.
	RunFinished(ctx context.Context, runID string, ranked []domain.RankedResult, err error)
}

// NopObserver is an EvaluationObserver that ignores every event.
type NopObserver struct{}

var _ EvaluationObserver = NopObserver{}

func (NopObserver) RunStarted(context.Context, string, int)                           {}
func (NopObserver) SupplierStarted(context.Context, string)                           {}
func (NopObserver) RequestRetried(context.Context, string, int, time.Duration, error) {}
func (NopObserver) TemplateFallback(context.Context, string, error)                   {}
func (NopObserver) ParseFallback(context.Context, string, error)                      {}
func (NopObserver) SupplierFinished(context.Context, domain.Scorecard, time.Duration) {}
func (NopObserver) RunFinished(context.Context, string, []domain.RankedResult, error) {}
