package domain

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Criterion identifies one fixed evaluation dimension that every supplier
// proposal is scored against.
type Criterion string

// The canonical evaluation criteria.
const (
	// TechnicalCompliance measures how well the proposal satisfies the
	// technical requirements of the tender.
	TechnicalCompliance Criterion = "technical_compliance"
	// PriceCompetitiveness measures the value offered by the proposal's pricing.
	PriceCompetitiveness Criterion = "price_competitiveness"
	// CompanyExperience measures the supplier's track record on comparable work.
	CompanyExperience Criterion = "company_experience"
	// TimelineFeasibility measures whether the proposed schedule is realistic.
	TimelineFeasibility Criterion = "timeline_feasibility"
	// RiskAssessment measures the delivery, financial, and compliance risk
	// carried by the proposal (higher is safer).
	RiskAssessment Criterion = "risk_assessment"
)

// maxSuggestionDistance bounds how far a misspelled criterion name may be
// from a canonical one before no suggestion is offered.
const maxSuggestionDistance = 6

// AllCriteria returns the canonical criteria in their fixed presentation order.
// A fresh slice is returned on each call so callers may modify it freely.
func AllCriteria() []Criterion {
	return []Criterion{
		TechnicalCompliance,
		PriceCompetitiveness,
		CompanyExperience,
		TimelineFeasibility,
		RiskAssessment,
	}
}

// IsValid reports whether c is one of the canonical criteria.
func (c Criterion) IsValid() bool {
	for _, known := range AllCriteria() {
		if c == known {
			return true
		}
	}
	return false
}

// Label returns the human-readable title for the criterion, for example
// "Technical Compliance".
func (c Criterion) Label() string {
	caser := cases.Title(language.English)
	return caser.String(strings.ReplaceAll(string(c), "_", " "))
}

// String implements fmt.Stringer.
func (c Criterion) String() string { return string(c) }

// ParseCriterion converts a user-supplied name into a canonical Criterion.
// Names are matched case-insensitively and spaces or hyphens are treated as
// underscores, so "Price Competitiveness" and "price-competitiveness" both
// resolve. Unknown names produce an error that suggests the closest
// canonical criterion when one is reasonably near.
func ParseCriterion(name string) (Criterion, error) {
	normalized := normalizeCriterionName(name)
	if c := Criterion(normalized); c.IsValid() {
		return c, nil
	}

	if suggestion, ok := closestCriterion(normalized); ok {
		return "", fmt.Errorf("unknown criterion %q (did you mean %q?)", name, suggestion)
	}
	return "", fmt.Errorf("unknown criterion %q", name)
}

func normalizeCriterionName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(name)
}

// closestCriterion returns the canonical criterion with the smallest edit
// distance to name, provided the distance is within maxSuggestionDistance.
func closestCriterion(name string) (Criterion, bool) {
	best := Criterion("")
	bestDistance := maxSuggestionDistance + 1
	for _, c := range AllCriteria() {
		d := levenshtein.ComputeDistance(name, string(c))
		if d < bestDistance {
			best, bestDistance = c, d
		}
	}
	return best, best != ""
}
