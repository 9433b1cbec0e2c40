package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultWeightsAreValid(t *testing.T) {
	w := DefaultWeights()

	ok, reason := ValidateWeights(w)
	assert.True(t, ok, reason)
	assert.Empty(t, reason)
	assert.Equal(t, 100.0, w.Total())
	assert.Equal(t, AllCriteria(), w.Criteria())
}

func TestValidateWeights(t *testing.T) {
	with := func(mutate func(WeightConfig)) WeightConfig {
		w := DefaultWeights()
		mutate(w)
		return w
	}

	tests := []struct {
		name       string
		weights    WeightConfig
		wantValid  bool
		wantReason string
	}{
		{
			name:      "defaults",
			weights:   DefaultWeights(),
			wantValid: true,
		},
		{
			name: "sum within tolerance",
			weights: with(func(w WeightConfig) {
				w[RiskAssessment] = 10.005
			}),
			wantValid: true,
		},
		{
			name: "one criterion carries all weight",
			weights: WeightConfig{
				TechnicalCompliance:  100,
				PriceCompetitiveness: 0,
				CompanyExperience:    0,
				TimelineFeasibility:  0,
				RiskAssessment:       0,
			},
			wantValid: true,
		},
		{
			name:       "empty",
			weights:    WeightConfig{},
			wantReason: "no weights provided",
		},
		{
			name:       "nil",
			weights:    nil,
			wantReason: "no weights provided",
		},
		{
			name: "missing criterion",
			weights: with(func(w WeightConfig) {
				delete(w, RiskAssessment)
				w[TechnicalCompliance] = 40
			}),
			wantReason: "missing weight for risk_assessment",
		},
		{
			name: "unknown criterion",
			weights: with(func(w WeightConfig) {
				w["sustainability"] = 0
			}),
			wantReason: `unknown criterion "sustainability"`,
		},
		{
			name: "negative weight",
			weights: with(func(w WeightConfig) {
				w[RiskAssessment] = -10
				w[TechnicalCompliance] = 50
			}),
			wantReason: "weight for risk_assessment cannot be negative: -10",
		},
		{
			name: "NaN weight",
			weights: with(func(w WeightConfig) {
				w[PriceCompetitiveness] = math.NaN()
			}),
			wantReason: "weight for price_competitiveness is not a finite number: NaN",
		},
		{
			name: "infinite weight",
			weights: with(func(w WeightConfig) {
				w[PriceCompetitiveness] = math.Inf(1)
			}),
			wantReason: "weight for price_competitiveness is not a finite number: +Inf",
		},
		{
			name: "sum below 100",
			weights: with(func(w WeightConfig) {
				w[RiskAssessment] = 5
			}),
			wantReason: "weights must sum to 100%, got 95.00%",
		},
		{
			name: "sum above 100",
			weights: with(func(w WeightConfig) {
				w[RiskAssessment] = 15
			}),
			wantReason: "weights must sum to 100%, got 105.00%",
		},
		{
			name: "sum just outside tolerance",
			weights: with(func(w WeightConfig) {
				w[RiskAssessment] = 10.02
			}),
			wantReason: "weights must sum to 100%, got 100.02%",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, reason := ValidateWeights(tt.weights)
			assert.Equal(t, tt.wantValid, ok)
			assert.Equal(t, tt.wantReason, reason)

			err := tt.weights.Validate()
			if tt.wantValid {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidWeights)

			var iwe *InvalidWeightsError
			require.ErrorAs(t, err, &iwe)
			assert.Equal(t, tt.wantReason, iwe.Reason)
		})
	}
}

func TestParseWeights(t *testing.T) {
	t.Run("accepts labels and percent suffixes", func(t *testing.T) {
		w, err := ParseWeights(map[string]string{
			"Technical Compliance":  "30%",
			"price-competitiveness": "25",
			"company_experience":    " 20 ",
			"TIMELINE_FEASIBILITY":  "15",
			"risk_assessment":       "10.0",
		})
		require.NoError(t, err)
		assert.Equal(t, DefaultWeights(), w)
	})

	t.Run("non-numeric value", func(t *testing.T) {
		_, err := ParseWeights(map[string]string{"risk_assessment": "ten"})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidWeights)
		assert.Contains(t, err.Error(), `weight for risk_assessment is not numeric: "ten"`)
	})

	t.Run("unknown criterion suggests closest", func(t *testing.T) {
		_, err := ParseWeights(map[string]string{"risk_asessment": "10"})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidWeights)
		assert.Contains(t, err.Error(), `did you mean "risk_assessment"`)
	})

	t.Run("aliases of the same criterion collide", func(t *testing.T) {
		_, err := ParseWeights(map[string]string{
			"risk_assessment": "10",
			"Risk Assessment": "10",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate weight for risk_assessment")
	})
}

func TestParseWeightList(t *testing.T) {
	tests := []struct {
		name    string
		list    string
		want    WeightConfig
		wantErr string
	}{
		{
			name: "full list",
			list: "technical_compliance=30, price_competitiveness=25,company_experience=20,timeline_feasibility=15,risk_assessment=10",
			want: DefaultWeights(),
		},
		{
			name: "trailing comma",
			list: "technical_compliance=100,",
			want: WeightConfig{TechnicalCompliance: 100},
		},
		{
			name:    "missing separator",
			list:    "technical_compliance:30",
			wantErr: `expected criterion=value, got "technical_compliance:30"`,
		},
		{
			name:    "repeated key",
			list:    "risk_assessment=10,risk_assessment=20",
			wantErr: "duplicate weight for risk_assessment",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseWeightList(tt.list)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWeightConfigClone(t *testing.T) {
	w := DefaultWeights()
	c := w.Clone()
	c[TechnicalCompliance] = 0

	assert.Equal(t, 30.0, w[TechnicalCompliance])
	assert.Nil(t, WeightConfig(nil).Clone())
}
