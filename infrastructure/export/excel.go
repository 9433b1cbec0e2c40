package export

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/ahrav/go-tender/internal/domain"
)

// Sheet names written by ExcelExporter, in workbook order.
const (
	SheetSummary   = "Summary"
	SheetRankings  = "Rankings"
	SheetDetailed  = "Detailed Analysis"
	SheetBreakdown = "Criteria Breakdown"
)

// ExcelExporter writes a four-sheet workbook.
type ExcelExporter struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewExcelExporter creates an ExcelExporter. A nil logger disables logging.
func NewExcelExporter(logger *zap.Logger) *ExcelExporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExcelExporter{logger: logger, now: time.Now}
}

// Export implements Exporter.
func (e *ExcelExporter) Export(ctx context.Context, report Report, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path = ResolvePath(path, ".xlsx", e.now())

	unlock := lockPath(path)
	defer unlock()

	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"D9E1F2"}, Pattern: 1},
	})
	if err != nil {
		return "", fmt.Errorf("create header style: %w", err)
	}

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return "", fmt.Errorf("rename default sheet: %w", err)
	}
	for _, name := range []string{SheetRankings, SheetDetailed, SheetBreakdown} {
		if _, err := f.NewSheet(name); err != nil {
			return "", fmt.Errorf("create sheet %q: %w", name, err)
		}
	}

	sheets := []struct {
		name string
		rows [][]any
	}{
		{SheetSummary, summaryRows(report)},
		{SheetRankings, rankingRows(report.Ranked)},
		{SheetDetailed, detailedRows(report.Ranked)},
		{SheetBreakdown, breakdownRows(report.breakdown())},
	}
	for _, s := range sheets {
		if err := writeSheet(f, s.name, s.rows, header); err != nil {
			return "", err
		}
	}
	f.SetActiveSheet(0)

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save workbook %s: %w", path, err)
	}

	e.logger.Info("spreadsheet export completed",
		zap.String("path", path),
		zap.Int("suppliers", len(report.Ranked)))
	return path, nil
}

func writeSheet(f *excelize.File, sheet string, rows [][]any, headerStyle int) error {
	width := 0
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
		width = max(width, len(row))
	}
	if width == 0 {
		return nil
	}

	last, err := excelize.CoordinatesToCellName(width, 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}
	lastCol, _, err := excelize.SplitCellName(last)
	if err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", lastCol, 22)
}

func summaryRows(r Report) [][]any {
	s := r.Summary
	top := s.TopSupplier
	if top == "" {
		top = "N/A"
	}
	rows := [][]any{
		{"Metric", "Value"},
		{"Total Suppliers Evaluated", s.TotalSuppliers},
		{"Top Supplier", top},
		{"Top Score", s.TopScore},
		{"Average Score", s.AverageScore},
		{"Score Range", s.ScoreRange},
		{"Evaluation Date", s.EvaluationTimestamp},
		{"", ""},
		{"Evaluation Weights:", ""},
	}
	for _, c := range r.Weights.Criteria() {
		rows = append(rows, []any{c.Label(), formatWeight(r.Weights[c])})
	}
	return rows
}

func rankingRows(ranked []domain.RankedResult) [][]any {
	header := []any{"Rank", "Supplier Name", "Final Score"}
	for _, c := range domain.AllCriteria() {
		header = append(header, c.Label())
	}
	header = append(header, "Overall Summary")

	rows := [][]any{header}
	for _, r := range ranked {
		row := []any{r.Rank, r.SupplierName, r.WeightedScore}
		for _, c := range domain.AllCriteria() {
			row = append(row, scoreCell(r.Scorecard, c))
		}
		rows = append(rows, append(row, orNA(r.OverallSummary)))
	}
	return rows
}

func detailedRows(ranked []domain.RankedResult) [][]any {
	rows := [][]any{{
		"Supplier", "Rank", "Criterion", "Score", "Justification",
		"Evidence", "Red Flags", "Recommendations",
	}}
	for _, r := range ranked {
		for _, c := range domain.AllCriteria() {
			cs, ok := r.Criterion(c)
			if !ok {
				continue
			}
			rows = append(rows, []any{
				r.SupplierName,
				r.Rank,
				c.Label(),
				scoreCell(r.Scorecard, c),
				orNA(cs.Justification),
				strings.Join(cs.Evidence, "; "),
				strings.Join(r.RedFlags, "; "),
				orNA(r.Recommendations),
			})
		}
	}
	return rows
}

func breakdownRows(breakdown []domain.CriterionBreakdown) [][]any {
	rows := [][]any{{"Criterion", "Weight", "Average Score", "Highest Score", "Lowest Score", "Score Range"}}
	for _, b := range breakdown {
		if b.Scored == 0 {
			continue
		}
		rows = append(rows, []any{
			b.Criterion.Label(), formatWeight(b.Weight), b.Average, b.Highest, b.Lowest, b.Range,
		})
	}
	return rows
}

// scoreCell renders a criterion score as a number when possible and as its
// raw token otherwise. Missing criteria show 0.
func scoreCell(sc domain.Scorecard, c domain.Criterion) any {
	cs, ok := sc.Criterion(c)
	if !ok {
		return 0
	}
	if v, err := cs.Score.Float64(); err == nil {
		return v
	}
	return cs.Score.String()
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
