package testutils

import (
	"encoding/json"
	"fmt"

	"github.com/ahrav/go-tender/internal/domain"
)

// SampleTender is a short tender used across package tests.
const SampleTender = `Tender T-2024-017: Supply and installation of a 250 kW rooftop solar array
for the municipal water treatment plant. Requirements: IEC 61215 certified modules,
a 25 year performance warranty, completion within 16 weeks of contract award,
and at least three comparable installations delivered in the last five years.`

// ScenarioScores holds the three-supplier scenario in canonical criterion
// order. With the default weights it ranks B (84.25), A (77.75), C (67.75).
var ScenarioScores = map[string][]float64{
	"Supplier A": {70, 80, 75, 85, 90},
	"Supplier B": {90, 75, 85, 80, 95},
	"Supplier C": {60, 70, 65, 75, 80},
}

// ScenarioSuppliers lists the scenario suppliers in input order.
var ScenarioSuppliers = []string{"Supplier A", "Supplier B", "Supplier C"}

// ProposalFor returns a short proposal text that names supplier, so mock
// clients can route replies by pattern.
func ProposalFor(supplier string) string {
	return fmt.Sprintf("Proposal from %s. We will deliver the 250 kW array with certified "+
		"modules, a 25 year warranty, and a 14 week schedule.", supplier)
}

// ScoreReply builds a model reply scoring the five criteria in canonical
// order. Missing trailing scores are omitted from criteria_scores.
func ScoreReply(scores ...float64) string {
	criteria := make(map[string]any, len(scores))
	for i, c := range domain.AllCriteria() {
		if i >= len(scores) {
			break
		}
		criteria[string(c)] = map[string]any{
			"score":         scores[i],
			"justification": fmt.Sprintf("%s assessed", c.Label()),
			"evidence":      []string{"Section 2.1"},
		}
	}

	reply := map[string]any{
		"criteria_scores": criteria,
		"overall_summary": "Competent proposal with minor gaps.",
		"key_strengths":   []string{"Certified modules"},
		"red_flags":       []string{},
		"recommendations": "Clarify the maintenance plan.",
	}
	data, err := json.Marshal(reply)
	if err != nil {
		panic(err)
	}
	return string(data)
}

// Scorecard builds a success scorecard for supplier with scores in
// canonical criterion order.
func Scorecard(supplier string, scores ...float64) domain.Scorecard {
	sc := domain.Scorecard{
		SupplierName:   supplier,
		CriteriaScores: make(map[domain.Criterion]domain.CriterionScore, len(scores)),
		Status:         domain.StatusSuccess,
		RedFlags:       []string{},
		KeyStrengths:   []string{},
	}
	for i, c := range domain.AllCriteria() {
		if i >= len(scores) {
			break
		}
		sc.CriteriaScores[c] = domain.CriterionScore{
			Score:         domain.NewScore(scores[i]),
			Justification: fmt.Sprintf("%s assessed", c.Label()),
			Evidence:      []string{},
		}
	}
	return sc
}

// ScenarioScorecards returns the scenario suppliers as scorecards in input
// order.
func ScenarioScorecards() []domain.Scorecard {
	cards := make([]domain.Scorecard, 0, len(ScenarioSuppliers))
	for _, name := range ScenarioSuppliers {
		cards = append(cards, Scorecard(name, ScenarioScores[name]...))
	}
	return cards
}

// ScenarioClient returns a mock client that answers each scenario supplier
// with its scores, keyed on the supplier name appearing in the prompt.
func ScenarioClient(model string) *MockLLMClient {
	client := NewMockLLMClient(model)
	for _, name := range ScenarioSuppliers {
		client.AddResponse(MockResponse{
			Pattern:  "Proposal from " + name + ".",
			Response: ScoreReply(ScenarioScores[name]...),
		})
	}
	return client
}
