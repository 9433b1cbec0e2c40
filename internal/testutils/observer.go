package testutils

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ahrav/go-tender/internal/domain"
	"github.com/ahrav/go-tender/internal/ports"
)

// RecordingObserver stores every event it receives as a short string such as
// "retry Supplier A #1". It is safe for concurrent use.
type RecordingObserver struct {
	mu     sync.Mutex
	events []string

	Retries   []RetryRecord
	Finished  []domain.Scorecard
	Ranked    []domain.RankedResult
	RunErr    error
	Fallbacks []error
}

// RetryRecord captures one RequestRetried event.
type RetryRecord struct {
	Supplier string
	Attempt  int
	Delay    time.Duration
	Err      error
}

var _ ports.EvaluationObserver = (*RecordingObserver)(nil)

func (r *RecordingObserver) record(format string, args ...any) {
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

func (r *RecordingObserver) RunStarted(_ context.Context, _ string, suppliers int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("run started %d", suppliers)
}

func (r *RecordingObserver) SupplierStarted(_ context.Context, supplier string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("start %s", supplier)
}

func (r *RecordingObserver) RequestRetried(_ context.Context, supplier string, attempt int, delay time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("retry %s #%d", supplier, attempt)
	r.Retries = append(r.Retries, RetryRecord{supplier, attempt, delay, err})
}

func (r *RecordingObserver) TemplateFallback(_ context.Context, path string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("template fallback %s", path)
	r.Fallbacks = append(r.Fallbacks, err)
}

func (r *RecordingObserver) ParseFallback(_ context.Context, supplier string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("parse fallback %s", supplier)
	r.Fallbacks = append(r.Fallbacks, err)
}

func (r *RecordingObserver) SupplierFinished(_ context.Context, card domain.Scorecard, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("finish %s %s", card.SupplierName, card.Status)
	r.Finished = append(r.Finished, card)
}

func (r *RecordingObserver) RunFinished(_ context.Context, _ string, ranked []domain.RankedResult, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("run finished")
	r.Ranked = ranked
	r.RunErr = err
}

// Events returns a copy of the recorded event strings.
func (r *RecordingObserver) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}
