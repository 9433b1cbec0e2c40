// Package export writes evaluation results to spreadsheet and JSON files.
package export

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ahrav/go-tender/internal/domain"
)

// Report is everything an exporter needs to describe one evaluation run.
type Report struct {
	RunID       string
	GeneratedAt time.Time
	Weights     domain.WeightConfig
	Ranked      []domain.RankedResult
	Summary     domain.SummaryStatistics
	// Breakdown is computed from Ranked and Weights when empty.
	Breakdown []domain.CriterionBreakdown
}

func (r Report) breakdown() []domain.CriterionBreakdown {
	if len(r.Breakdown) > 0 {
		return r.Breakdown
	}
	return domain.Breakdown(r.Ranked, r.Weights)
}

// Exporter writes a Report to path and returns the path actually written.
type Exporter interface {
	Export(ctx context.Context, report Report, path string) (string, error)
}

const defaultBaseName = "tender_evaluation_results"

// ResolvePath returns the output path for ext. An empty path becomes a
// timestamped file name in the working directory; a missing extension is
// appended.
func ResolvePath(path, ext string, now time.Time) string {
	if path == "" {
		return fmt.Sprintf("%s_%s%s", defaultBaseName, now.Format("20060102_150405"), ext)
	}
	if !strings.EqualFold(filepath.Ext(path), ext) {
		return path + ext
	}
	return path
}

// pathLocks serializes writers of the same output file within the process.
var pathLocks sync.Map

func lockPath(path string) func() {
	key := path
	if abs, err := filepath.Abs(path); err == nil {
		key = abs
	}
	mu, _ := pathLocks.LoadOrStore(key, &sync.Mutex{})
	m := mu.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}

func formatWeight(w float64) string {
	return fmt.Sprintf("%g%%", w)
}
