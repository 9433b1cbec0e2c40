package domain

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreValueUnmarshal(t *testing.T) {
	tests := []struct {
		token       string
		wantKind    string
		wantNumeric bool
		wantValue   float64
	}{
		{token: "85", wantKind: "number", wantNumeric: true, wantValue: 85},
		{token: "72.5", wantKind: "number", wantNumeric: true, wantValue: 72.5},
		{token: "-3", wantKind: "number", wantNumeric: true, wantValue: -3},
		{token: "1e2", wantKind: "number", wantNumeric: true, wantValue: 100},
		{token: `"85"`, wantKind: "string"},
		{token: "null", wantKind: "null"},
		{token: "[85, 90]", wantKind: "array"},
		{token: `{"value": 85}`, wantKind: "object"},
		{token: "true", wantKind: "boolean"},
		{token: "1e999", wantKind: "invalid number"},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			var s ScoreValue
			require.NoError(t, json.Unmarshal([]byte(tt.token), &s))
			assert.Equal(t, tt.wantKind, s.Kind())

			v, err := s.Float64()
			if tt.wantNumeric {
				require.NoError(t, err)
				assert.Equal(t, tt.wantValue, v)
				return
			}
			assert.Error(t, err)
		})
	}
}

func TestScoreValueMarshal(t *testing.T) {
	tests := []struct {
		name  string
		value ScoreValue
		want  string
	}{
		{name: "integer", value: NewScore(85), want: "85"},
		{name: "fraction", value: NewScore(72.5), want: "72.5"},
		{name: "NaN", value: NewScore(math.NaN()), want: "null"},
		{name: "missing", value: ScoreValue{}, want: "null"},
		{name: "raw string", value: RawScore(`"high"`), want: `"high"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))
		})
	}
}

func TestScorecardRoundTripKeepsUnknownKeys(t *testing.T) {
	payload := `{
		"supplier_name": "Acme Ltd",
		"criteria_scores": {
			"technical_compliance": {"score": 85, "justification": "meets spec", "evidence": ["ISO 9001"]},
			"price_competitiveness": {"score": "cheap", "justification": "", "evidence": []}
		},
		"overall_summary": "solid bid",
		"red_flags": [],
		"recommendations": "shortlist",
		"key_strengths": ["experience"],
		"final_score": 81.5,
		"reviewer_notes": {"confidence":"high"}
	}`

	var sc Scorecard
	require.NoError(t, json.Unmarshal([]byte(payload), &sc))

	assert.Equal(t, "Acme Ltd", sc.SupplierName)
	assert.Equal(t, "solid bid", sc.OverallSummary)
	require.Contains(t, sc.Extra, "final_score")
	assert.JSONEq(t, "81.5", string(sc.Extra["final_score"]))
	assert.JSONEq(t, `{"confidence": "high"}`, string(sc.Extra["reviewer_notes"]))

	tech, ok := sc.Criterion(TechnicalCompliance)
	require.True(t, ok)
	assert.Equal(t, []string{"ISO 9001"}, tech.Evidence)

	price, ok := sc.Criterion(PriceCompetitiveness)
	require.True(t, ok)
	assert.Equal(t, "string", price.Score.Kind())

	data, err := json.Marshal(sc)
	require.NoError(t, err)

	var again Scorecard
	require.NoError(t, json.Unmarshal(data, &again))
	assert.Equal(t, sc, again)
}

func TestScorecardExtraDoesNotOverrideFields(t *testing.T) {
	sc := Scorecard{
		SupplierName: "Acme",
		Extra:        map[string]json.RawMessage{"supplier_name": json.RawMessage(`"Impostor"`)},
	}

	data, err := json.Marshal(sc)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Equal(t, "Acme", fields["supplier_name"])
}

func TestRankedResultJSON(t *testing.T) {
	r := RankedResult{
		Scorecard: Scorecard{
			SupplierName: "Acme",
			CriteriaScores: map[Criterion]CriterionScore{
				RiskAssessment: {Score: NewScore(90), Justification: "low risk"},
			},
			Status: StatusSuccess,
			Extra:  map[string]json.RawMessage{"final_score": json.RawMessage("88")},
		},
		WeightedScore: 82.75,
		Rank:          1,
	}

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Equal(t, "Acme", fields["supplier_name"])
	assert.Equal(t, 82.75, fields["weighted_score"])
	assert.Equal(t, 1.0, fields["rank"])
	assert.Equal(t, 88.0, fields["final_score"])
	assert.Equal(t, "success", fields["status"])

	var decoded RankedResult
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, r, decoded)
}

func TestScorecardClone(t *testing.T) {
	sc := Scorecard{
		SupplierName: "Acme",
		CriteriaScores: map[Criterion]CriterionScore{
			TechnicalCompliance: {Score: NewScore(80), Evidence: []string{"a"}},
		},
		RedFlags:     []string{"flag"},
		KeyStrengths: []string{"strength"},
		Extra:        map[string]json.RawMessage{"k": json.RawMessage(`1`)},
	}

	c := sc.Clone()
	c.CriteriaScores[TechnicalCompliance].Evidence[0] = "changed"
	c.RedFlags[0] = "changed"
	c.KeyStrengths[0] = "changed"
	c.Extra["k"][0] = '2'

	assert.Equal(t, "a", sc.CriteriaScores[TechnicalCompliance].Evidence[0])
	assert.Equal(t, "flag", sc.RedFlags[0])
	assert.Equal(t, "strength", sc.KeyStrengths[0])
	assert.Equal(t, "1", string(sc.Extra["k"]))
}

func TestScorecardUnmarshalCoercesLooseShapes(t *testing.T) {
	payload := `{
		"supplier_name": "Acme Ltd",
		"criteria_scores": {
			"technical_compliance": {"score": 85, "justification": ["meets spec", "certified"], "evidence": "ISO 9001"},
			"price_competitiveness": 75,
			"company_experience": {"score": 90, "justification": {"note": "ten sites"}, "evidence": [null, "Annex B", 3]}
		},
		"overall_summary": ["solid bid", "minor gaps"],
		"red_flags": "late delivery history",
		"recommendations": ["shortlist", "request references"],
		"key_strengths": null,
		"model_used": {"name": "gpt"}
	}`

	var sc Scorecard
	require.NoError(t, json.Unmarshal([]byte(payload), &sc))

	assert.Equal(t, "solid bid; minor gaps", sc.OverallSummary)
	assert.Equal(t, []string{"late delivery history"}, sc.RedFlags)
	assert.Equal(t, "shortlist; request references", sc.Recommendations)
	assert.Nil(t, sc.KeyStrengths)

	assert.Empty(t, sc.ModelUsed)
	assert.JSONEq(t, `{"name": "gpt"}`, string(sc.Extra["model_used"]))

	tech := sc.CriteriaScores[TechnicalCompliance]
	assert.Equal(t, "meets spec; certified", tech.Justification)
	assert.Equal(t, []string{"ISO 9001"}, tech.Evidence)

	price := sc.CriteriaScores[PriceCompetitiveness]
	v, err := price.Score.Float64()
	require.NoError(t, err)
	assert.Equal(t, 75.0, v)

	exp := sc.CriteriaScores[CompanyExperience]
	assert.JSONEq(t, `{"note": "ten sites"}`, exp.Justification)
	assert.Equal(t, []string{"Annex B", "3"}, exp.Evidence)
}

func TestScorecardUnmarshalRejectsMalformedCriteria(t *testing.T) {
	for _, payload := range []string{
		`{"criteria_scores": ["technical_compliance"]}`,
		`{"criteria_scores": "all good"}`,
	} {
		var sc Scorecard
		err := json.Unmarshal([]byte(payload), &sc)
		require.Error(t, err, payload)
		assert.Contains(t, err.Error(), "criteria_scores")
	}
}
