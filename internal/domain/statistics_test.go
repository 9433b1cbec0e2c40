package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 14, 9, 26, 53, 0, time.UTC)

func TestSummarizeEmpty(t *testing.T) {
	stats := Summarize(nil, fixedNow)

	assert.Equal(t, SummaryStatistics{EvaluationTimestamp: "2024-03-14 09:26:53"}, stats)
	assert.Empty(t, stats.TopSupplier)
}

func TestSummarize(t *testing.T) {
	ranked := []RankedResult{
		{Scorecard: Scorecard{SupplierName: "B"}, WeightedScore: 84.25, Rank: 1},
		{Scorecard: Scorecard{SupplierName: "A"}, WeightedScore: 77.75, Rank: 2},
		{Scorecard: Scorecard{SupplierName: "C"}, WeightedScore: 67.75, Rank: 3},
		{Scorecard: Scorecard{SupplierName: "D"}, WeightedScore: 45, Rank: 4},
		{Scorecard: Scorecard{SupplierName: "E"}, WeightedScore: 12.5, Rank: 5},
	}

	stats := Summarize(ranked, fixedNow)

	assert.Equal(t, 5, stats.TotalSuppliers)
	assert.InDelta(t, 57.45, stats.AverageScore, 1e-9)
	assert.Equal(t, 84.25, stats.HighestScore)
	assert.Equal(t, 12.5, stats.LowestScore)
	assert.InDelta(t, 71.75, stats.ScoreRange, 1e-9)
	assert.Equal(t, "B", stats.TopSupplier)
	assert.Equal(t, 84.25, stats.TopScore)
	assert.Equal(t, ScoreDistribution{Excellent: 1, Good: 2, Fair: 1, Poor: 1}, stats.ScoreDistribution)
	assert.Equal(t, "2024-03-14 09:26:53", stats.EvaluationTimestamp)
}

func TestScoreDistributionBoundaries(t *testing.T) {
	tests := []struct {
		score float64
		want  ScoreDistribution
	}{
		{score: 100, want: ScoreDistribution{Excellent: 1}},
		{score: 80, want: ScoreDistribution{Excellent: 1}},
		{score: 79.99, want: ScoreDistribution{Good: 1}},
		{score: 60, want: ScoreDistribution{Good: 1}},
		{score: 59.99, want: ScoreDistribution{Fair: 1}},
		{score: 40, want: ScoreDistribution{Fair: 1}},
		{score: 39.99, want: ScoreDistribution{Poor: 1}},
		{score: 0, want: ScoreDistribution{Poor: 1}},
	}

	for _, tt := range tests {
		stats := Summarize([]RankedResult{{WeightedScore: tt.score, Rank: 1}}, fixedNow)
		assert.Equal(t, tt.want, stats.ScoreDistribution, "score %v", tt.score)
	}
}

func TestSummarizeFromRank(t *testing.T) {
	cards := []Scorecard{
		cardWith("Supplier A", 70, 80, 75, 85, 90),
		cardWith("Supplier B", 90, 75, 85, 80, 95),
		cardWith("Supplier C", 60, 70, 65, 75, 80),
	}
	ranked, err := Rank(cards, DefaultWeights())
	require.NoError(t, err)

	stats := Summarize(ranked, fixedNow)

	assert.Equal(t, "Supplier B", stats.TopSupplier)
	assert.InDelta(t, 76.58, stats.AverageScore, 1e-9)
	assert.InDelta(t, 16.5, stats.ScoreRange, 1e-9)
	total := stats.ScoreDistribution.Excellent + stats.ScoreDistribution.Good +
		stats.ScoreDistribution.Fair + stats.ScoreDistribution.Poor
	assert.Equal(t, stats.TotalSuppliers, total)
}

func TestBreakdown(t *testing.T) {
	a := cardWith("A", 70, 80, 75, 85, 90)
	b := cardWith("B", 90, 75, 85, 80, 95)
	b.CriteriaScores[RiskAssessment] = CriterionScore{Score: RawScore(`"n/a"`)}
	ranked := []RankedResult{
		{Scorecard: b, WeightedScore: 80, Rank: 1},
		{Scorecard: a, WeightedScore: 70, Rank: 2},
	}

	got := Breakdown(ranked, DefaultWeights())
	require.Len(t, got, 5)

	tech := got[0]
	assert.Equal(t, TechnicalCompliance, tech.Criterion)
	assert.Equal(t, 30.0, tech.Weight)
	assert.Equal(t, 2, tech.Scored)
	assert.Equal(t, 80.0, tech.Average)
	assert.Equal(t, 90.0, tech.Highest)
	assert.Equal(t, 70.0, tech.Lowest)
	assert.Equal(t, 20.0, tech.Range)

	risk := got[4]
	assert.Equal(t, RiskAssessment, risk.Criterion)
	assert.Equal(t, 1, risk.Scored, "non-numeric scores are skipped")
	assert.Equal(t, 90.0, risk.Average)
	assert.Zero(t, risk.Range)
}

func TestBreakdownNoResults(t *testing.T) {
	got := Breakdown(nil, DefaultWeights())
	require.Len(t, got, 5)
	for _, b := range got {
		assert.Zero(t, b.Scored)
		assert.Zero(t, b.Average)
		assert.Zero(t, b.Highest)
		assert.Zero(t, b.Lowest)
	}
}
