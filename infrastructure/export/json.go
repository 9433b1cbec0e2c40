package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/ahrav/go-tender/internal/domain"
)

// Metadata describes the run in a JSON export.
type Metadata struct {
	RunID          string              `json:"run_id"`
	Timestamp      string              `json:"timestamp"`
	WeightsUsed    domain.WeightConfig `json:"weights_used"`
	TotalSuppliers int                 `json:"total_suppliers"`
}

// Document is the top-level JSON export layout.
type Document struct {
	EvaluationMetadata Metadata                    `json:"evaluation_metadata"`
	SummaryStatistics  domain.SummaryStatistics    `json:"summary_statistics"`
	CriteriaBreakdown  []domain.CriterionBreakdown `json:"criteria_breakdown,omitempty"`
	RankedSuppliers    []domain.RankedResult       `json:"ranked_suppliers"`
}

// JSONExporter writes an indented JSON document.
type JSONExporter struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewJSONExporter creates a JSONExporter. A nil logger disables logging.
func NewJSONExporter(logger *zap.Logger) *JSONExporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JSONExporter{logger: logger, now: time.Now}
}

// NewDocument assembles the JSON layout for report.
func NewDocument(report Report) Document {
	ranked := report.Ranked
	if ranked == nil {
		ranked = []domain.RankedResult{}
	}
	generated := report.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}
	return Document{
		EvaluationMetadata: Metadata{
			RunID:          report.RunID,
			Timestamp:      generated.Format(time.RFC3339),
			WeightsUsed:    report.Weights,
			TotalSuppliers: len(ranked),
		},
		SummaryStatistics: report.Summary,
		CriteriaBreakdown: report.breakdown(),
		RankedSuppliers:   ranked,
	}
}

// Export implements Exporter. The file is written to a temporary sibling
// and renamed into place.
func (e *JSONExporter) Export(ctx context.Context, report Report, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path = ResolvePath(path, ".json", e.now())

	data, err := json.MarshalIndent(NewDocument(report), "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}

	unlock := lockPath(path)
	defer unlock()

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("move %s into place: %w", path, err)
	}

	e.logger.Info("json export completed",
		zap.String("path", path),
		zap.Int("suppliers", len(report.Ranked)))
	return path, nil
}
