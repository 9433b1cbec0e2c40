package domain

import (
	"math"
	"time"
)

// Score band thresholds used by ScoreDistribution.
const (
	ExcellentThreshold = 80.0
	GoodThreshold      = 60.0
	FairThreshold      = 40.0
)

// ScoreDistribution counts ranked suppliers per score band.
type ScoreDistribution struct {
	// Excellent counts scores of 80 and above.
	Excellent int `json:"excellent"`
	// Good counts scores from 60 up to 80.
	Good int `json:"good"`
	// Fair counts scores from 40 up to 60.
	Fair int `json:"fair"`
	// Poor counts scores below 40.
	Poor int `json:"poor"`
}

// SummaryStatistics describes a ranked evaluation run as a whole.
type SummaryStatistics struct {
	TotalSuppliers      int               `json:"total_suppliers"`
	AverageScore        float64           `json:"average_score"`
	HighestScore        float64           `json:"highest_score"`
	LowestScore         float64           `json:"lowest_score"`
	ScoreRange          float64           `json:"score_range"`
	TopSupplier         string            `json:"top_supplier,omitempty"`
	TopScore            float64           `json:"top_score"`
	ScoreDistribution   ScoreDistribution `json:"score_distribution"`
	EvaluationTimestamp string            `json:"evaluation_timestamp"`
}

// Summarize computes run statistics over ranked, which is expected to be
// ordered as returned by Rank. The top supplier is the first entry. An
// empty input yields zero values and no top supplier.
func Summarize(ranked []RankedResult, now time.Time) SummaryStatistics {
	stats := SummaryStatistics{
		TotalSuppliers:      len(ranked),
		EvaluationTimestamp: now.Format(TimestampLayout),
	}
	if len(ranked) == 0 {
		return stats
	}

	highest, lowest := math.Inf(-1), math.Inf(1)
	var sum float64
	for _, r := range ranked {
		s := r.WeightedScore
		sum += s
		highest = math.Max(highest, s)
		lowest = math.Min(lowest, s)

		switch {
		case s >= ExcellentThreshold:
			stats.ScoreDistribution.Excellent++
		case s >= GoodThreshold:
			stats.ScoreDistribution.Good++
		case s >= FairThreshold:
			stats.ScoreDistribution.Fair++
		default:
			stats.ScoreDistribution.Poor++
		}
	}

	stats.AverageScore = round2(sum / float64(len(ranked)))
	stats.HighestScore = highest
	stats.LowestScore = lowest
	stats.ScoreRange = round2(highest - lowest)
	stats.TopSupplier = ranked[0].SupplierName
	stats.TopScore = ranked[0].WeightedScore
	return stats
}

// CriterionBreakdown aggregates one criterion's raw scores across suppliers.
type CriterionBreakdown struct {
	Criterion Criterion `json:"criterion"`
	Weight    float64   `json:"weight"`
	// Scored is the number of suppliers with a usable numeric score.
	Scored  int     `json:"scored"`
	Average float64 `json:"average_score"`
	Highest float64 `json:"highest_score"`
	Lowest  float64 `json:"lowest_score"`
	Range   float64 `json:"score_range"`
}

// Breakdown returns per-criterion statistics in the order of w.Criteria().
// Only finite numeric scores contribute; a criterion nobody scored reports
// zeros.
func Breakdown(ranked []RankedResult, w WeightConfig) []CriterionBreakdown {
	out := make([]CriterionBreakdown, 0, len(w))
	for _, c := range w.Criteria() {
		b := CriterionBreakdown{Criterion: c, Weight: w[c]}

		highest, lowest := math.Inf(-1), math.Inf(1)
		var sum float64
		for _, r := range ranked {
			cs, ok := r.CriteriaScores[c]
			if !ok {
				continue
			}
			v, err := cs.Score.Float64()
			if err != nil {
				continue
			}
			b.Scored++
			sum += v
			highest = math.Max(highest, v)
			lowest = math.Min(lowest, v)
		}

		if b.Scored > 0 {
			b.Average = round2(sum / float64(b.Scored))
			b.Highest = highest
			b.Lowest = lowest
			b.Range = round2(highest - lowest)
		}
		out = append(out, b)
	}
	return out
}
