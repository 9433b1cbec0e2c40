package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cardWith builds a scorecard scoring the canonical criteria in order.
func cardWith(name string, scores ...float64) Scorecard {
	sc := Scorecard{
		SupplierName:   name,
		CriteriaScores: make(map[Criterion]CriterionScore),
		Status:         StatusSuccess,
	}
	for i, c := range AllCriteria() {
		if i >= len(scores) {
			break
		}
		sc.CriteriaScores[c] = CriterionScore{
			Score:         NewScore(scores[i]),
			Justification: "scored",
		}
	}
	return sc
}

func TestWeightedScore(t *testing.T) {
	tests := []struct {
		name   string
		scores []float64
		want   float64
	}{
		{name: "reference example", scores: []float64{85, 75, 90, 80, 85}, want: 82.75},
		{name: "all zero", scores: []float64{0, 0, 0, 0, 0}, want: 0},
		{name: "all perfect", scores: []float64{100, 100, 100, 100, 100}, want: 100},
		{name: "fallback scorecard", scores: []float64{50, 50, 50, 50, 50}, want: 50},
		{name: "rounds to two decimals", scores: []float64{33.333, 33.333, 33.333, 33.333, 33.333}, want: 33.33},
		{name: "above range clamps", scores: []float64{150, 150, 150, 150, 150}, want: 100},
		{name: "below range clamps", scores: []float64{-20, -20, -20, -20, -20}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := WeightedScore(cardWith("Acme", tt.scores...), DefaultWeights())
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestWeightedScoreErrors(t *testing.T) {
	withScore := func(v ScoreValue) Scorecard {
		sc := cardWith("Acme", 80, 80, 80, 80, 80)
		sc.CriteriaScores[PriceCompetitiveness] = CriterionScore{Score: v}
		return sc
	}

	tests := []struct {
		name     string
		card     Scorecard
		weights  WeightConfig
		sentinel error
	}{
		{
			name:     "invalid weights checked first",
			card:     cardWith("Acme"),
			weights:  WeightConfig{TechnicalCompliance: 100},
			sentinel: ErrInvalidWeights,
		},
		{
			name:     "missing criterion",
			card:     cardWith("Acme", 80, 80, 80, 80),
			weights:  DefaultWeights(),
			sentinel: ErrMissingCriterion,
		},
		{
			name:     "string score",
			card:     withScore(RawScore(`"85"`)),
			weights:  DefaultWeights(),
			sentinel: ErrInvalidScoreValue,
		},
		{
			name:     "null score",
			card:     withScore(RawScore("null")),
			weights:  DefaultWeights(),
			sentinel: ErrInvalidScoreValue,
		},
		{
			name:     "list score",
			card:     withScore(RawScore("[85]")),
			weights:  DefaultWeights(),
			sentinel: ErrInvalidScoreValue,
		},
		{
			name:     "absent score value",
			card:     withScore(ScoreValue{}),
			weights:  DefaultWeights(),
			sentinel: ErrInvalidScoreValue,
		},
		{
			name:     "NaN score",
			card:     withScore(NewScore(math.NaN())),
			weights:  DefaultWeights(),
			sentinel: ErrInvalidScoreValue,
		},
		{
			name:     "infinite score",
			card:     withScore(NewScore(math.Inf(-1))),
			weights:  DefaultWeights(),
			sentinel: ErrInvalidScoreValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := WeightedScore(tt.card, tt.weights)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.sentinel)
			assert.Zero(t, got)
		})
	}
}

func TestWeightedScoreMissingCriterionDetails(t *testing.T) {
	sc := cardWith("Acme", 80, 80, 80, 80)

	_, err := WeightedScore(sc, DefaultWeights())

	var mce *MissingCriterionError
	require.ErrorAs(t, err, &mce)
	assert.Equal(t, "Acme", mce.Supplier)
	assert.Equal(t, RiskAssessment, mce.Criterion)
}

func TestCompositeScorePartialWeights(t *testing.T) {
	sc := cardWith("Acme", 80, 60)

	t.Run("normalizes by applied weight", func(t *testing.T) {
		got, err := CompositeScore(sc, WeightConfig{TechnicalCompliance: 30, PriceCompetitiveness: 10})
		require.NoError(t, err)
		// (80*0.3 + 60*0.1) / 0.4 = 75
		assert.InDelta(t, 75.0, got, 1e-9)
	})

	t.Run("zero total weight", func(t *testing.T) {
		got, err := CompositeScore(sc, WeightConfig{TechnicalCompliance: 0})
		require.NoError(t, err)
		assert.Zero(t, got)
	})

	t.Run("empty weights", func(t *testing.T) {
		got, err := CompositeScore(sc, WeightConfig{})
		require.NoError(t, err)
		assert.Zero(t, got)
	})

	t.Run("unweighted missing criteria are ignored", func(t *testing.T) {
		_, err := CompositeScore(sc, WeightConfig{TechnicalCompliance: 100})
		assert.NoError(t, err)
	})
}

func TestWeightedScoreDoesNotMutateInput(t *testing.T) {
	sc := cardWith("Acme", 85, 75, 90, 80, 85)
	before := sc.Clone()

	_, err := WeightedScore(sc, DefaultWeights())
	require.NoError(t, err)
	assert.Equal(t, before, sc)
}

func TestRank(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		ranked, err := Rank(nil, DefaultWeights())
		require.NoError(t, err)
		assert.NotNil(t, ranked)
		assert.Empty(t, ranked)
	})

	t.Run("three supplier scenario", func(t *testing.T) {
		cards := []Scorecard{
			cardWith("Supplier A", 70, 80, 75, 85, 90),
			cardWith("Supplier B", 90, 75, 85, 80, 95),
			cardWith("Supplier C", 60, 70, 65, 75, 80),
		}

		ranked, err := Rank(cards, DefaultWeights())
		require.NoError(t, err)
		require.Len(t, ranked, 3)

		want := []struct {
			name  string
			score float64
		}{
			{"Supplier B", 84.25},
			{"Supplier A", 77.75},
			{"Supplier C", 67.75},
		}
		for i, w := range want {
			assert.Equal(t, w.name, ranked[i].SupplierName)
			assert.InDelta(t, w.score, ranked[i].WeightedScore, 1e-9)
			assert.Equal(t, i+1, ranked[i].Rank)
		}
	})

	t.Run("ties keep input order", func(t *testing.T) {
		cards := []Scorecard{
			cardWith("first", 70, 70, 70, 70, 70),
			cardWith("top", 90, 90, 90, 90, 90),
			cardWith("second", 70, 70, 70, 70, 70),
			cardWith("third", 70, 70, 70, 70, 70),
		}

		ranked, err := Rank(cards, DefaultWeights())
		require.NoError(t, err)

		names := make([]string, len(ranked))
		for i, r := range ranked {
			names[i] = r.SupplierName
			assert.Equal(t, i+1, r.Rank)
		}
		assert.Equal(t, []string{"top", "first", "second", "third"}, names)
	})

	t.Run("scores are non-increasing", func(t *testing.T) {
		cards := []Scorecard{
			cardWith("a", 10, 20, 30, 40, 50),
			cardWith("b", 90, 10, 50, 20, 70),
			cardWith("c", 55, 65, 75, 85, 95),
			cardWith("d", 100, 0, 100, 0, 100),
			cardWith("e", 42, 42, 42, 42, 42),
		}

		ranked, err := Rank(cards, DefaultWeights())
		require.NoError(t, err)
		require.Len(t, ranked, len(cards))
		for i := 1; i < len(ranked); i++ {
			assert.GreaterOrEqual(t, ranked[i-1].WeightedScore, ranked[i].WeightedScore)
		}
	})

	t.Run("scoring error names supplier", func(t *testing.T) {
		cards := []Scorecard{
			cardWith("ok", 80, 80, 80, 80, 80),
			cardWith("broken", 80, 80),
		}

		ranked, err := Rank(cards, DefaultWeights())
		require.Error(t, err)
		assert.Nil(t, ranked)
		assert.ErrorIs(t, err, ErrMissingCriterion)
		assert.Contains(t, err.Error(), `"broken"`)
	})

	t.Run("invalid weights", func(t *testing.T) {
		_, err := Rank([]Scorecard{cardWith("a", 1, 2, 3, 4, 5)}, WeightConfig{})
		assert.ErrorIs(t, err, ErrInvalidWeights)
	})

	t.Run("results are copies", func(t *testing.T) {
		cards := []Scorecard{cardWith("a", 80, 80, 80, 80, 80)}
		cards[0].RedFlags = []string{"late delivery history"}

		ranked, err := Rank(cards, DefaultWeights())
		require.NoError(t, err)

		ranked[0].RedFlags[0] = "changed"
		ranked[0].CriteriaScores[RiskAssessment] = CriterionScore{Score: NewScore(0)}

		assert.Equal(t, "late delivery history", cards[0].RedFlags[0])
		score, err := cards[0].CriteriaScores[RiskAssessment].Score.Float64()
		require.NoError(t, err)
		assert.Equal(t, 80.0, score)
	})
}
