package domain

import (
	"fmt"
	"math"
	"sort"
)

// WeightedScore computes the composite score of sc under w. The weights are
// validated first. Every weighted criterion must be present in the scorecard
// with a finite numeric score; finite scores outside 0-100 are accepted and
// the result is clamped.
func WeightedScore(sc Scorecard, w WeightConfig) (float64, error) {
	if err := w.Validate(); err != nil {
		return 0, err
	}
	return CompositeScore(sc, w)
}

// CompositeScore computes Σ score·weight/100 normalized by the total weight
// actually applied, clamped to [0, 100] and rounded to two decimals. Unlike
// WeightedScore it accepts partial weight maps and does not require the
// weights to total 100. A zero total weight yields 0.
func CompositeScore(sc Scorecard, w WeightConfig) (float64, error) {
	var weightedSum, totalWeight float64
	for _, c := range w.Criteria() {
		weight := w[c]
		cs, ok := sc.CriteriaScores[c]
		if !ok {
			return 0, &MissingCriterionError{Supplier: sc.SupplierName, Criterion: c}
		}
		score, err := cs.Score.Float64()
		if err != nil {
			return 0, &InvalidScoreValueError{
				Supplier:  sc.SupplierName,
				Criterion: c,
				Value:     cs.Score,
				Err:       err,
			}
		}
		weightedSum += score * weight / 100
		totalWeight += weight
	}

	if totalWeight == 0 {
		return 0, nil
	}
	return round2(clamp(weightedSum/(totalWeight/100), 0, 100)), nil
}

// Rank scores every scorecard under w and returns new RankedResult values
// ordered by descending weighted score. Ties keep their input order. The
// first scoring error aborts ranking and is returned wrapped with the
// offending supplier. An empty input yields an empty, non-nil result.
func Rank(cards []Scorecard, w WeightConfig) ([]RankedResult, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}

	ranked := make([]RankedResult, 0, len(cards))
	for i, sc := range cards {
		score, err := CompositeScore(sc, w)
		if err != nil {
			return nil, fmt.Errorf("rank supplier %q (index %d): %w", sc.SupplierName, i, err)
		}
		ranked = append(ranked, RankedResult{Scorecard: sc.Clone(), WeightedScore: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].WeightedScore > ranked[j].WeightedScore
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked, nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
