package middleware

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ahrav/go-tender/infrastructure/llm"
	"github.com/ahrav/go-tender/internal/domain"
	"github.com/ahrav/go-tender/internal/ports"
)

var _ ports.EvaluationObserver = (*ZapObserver)(nil)

// ZapObserver logs evaluation progress as structured zap entries.
type ZapObserver struct {
	logger *zap.Logger
}

// NewZapObserver creates an observer that writes to logger. A nil logger
// discards everything.
func NewZapObserver(logger *zap.Logger) *ZapObserver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapObserver{logger: logger.Named("evaluation")}
}

func (o *ZapObserver) RunStarted(_ context.Context, runID string, suppliers int) {
	o.logger.Info("evaluation started",
		zap.String("run_id", runID),
		zap.Int("suppliers", suppliers))
}

func (o *ZapObserver) SupplierStarted(_ context.Context, supplier string) {
	o.logger.Info("analysing proposal", zap.String("supplier", supplier))
}

func (o *ZapObserver) RequestRetried(_ context.Context, supplier string, attempt int, delay time.Duration, err error) {
	o.logger.Warn("model request failed, retrying",
		zap.String("supplier", supplier),
		zap.Int("attempt", attempt),
		zap.Duration("backoff", delay),
		zap.String("error_type", llm.ClassifyError(err).String()),
		zap.Bool("retryable", llm.IsRetryable(err)),
		zap.Error(err))
}

func (o *ZapObserver) TemplateFallback(_ context.Context, path string, err error) {
	o.logger.Warn("prompt template unusable, using built-in template",
		zap.String("path", path),
		zap.Error(err))
}

func (o *ZapObserver) ParseFallback(_ context.Context, supplier string, err error) {
	o.logger.Warn("model reply could not be parsed, using neutral scores",
		zap.String("supplier", supplier),
		zap.Error(err))
}

func (o *ZapObserver) SupplierFinished(_ context.Context, card domain.Scorecard, elapsed time.Duration) {
	fields := []zap.Field{
		zap.String("supplier", card.SupplierName),
		zap.String("status", string(card.Status)),
		zap.String("model", card.ModelUsed),
		zap.Duration("elapsed", elapsed),
	}
	if card.Status == domain.StatusError {
		o.logger.Error("proposal analysis failed", append(fields, zap.String("error", card.Error))...)
		return
	}
	o.logger.Info("proposal analysed", fields...)
}

func (o *ZapObserver) RunFinished(_ context.Context, runID string, ranked []domain.RankedResult, err error) {
	if err != nil {
		o.logger.Error("evaluation failed", zap.String("run_id", runID), zap.Error(err))
		return
	}

	fields := []zap.Field{zap.String("run_id", runID), zap.Int("ranked", len(ranked))}
	if len(ranked) > 0 {
		fields = append(fields,
			zap.String("top_supplier", ranked[0].SupplierName),
			zap.Float64("top_score", ranked[0].WeightedScore))
	}
	o.logger.Info("evaluation completed", fields...)
	for _, r := range ranked {
		o.logger.Debug("ranking",
			zap.Int("rank", r.Rank),
			zap.String("supplier", r.SupplierName),
			zap.Float64("weighted_score", r.WeightedScore))
	}
}
