package domain

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// WeightSumTolerance is the allowed deviation of a weight total from 100.
const WeightSumTolerance = 0.01

// WeightConfig maps each criterion to its weight in percentage points.
// A valid configuration names every canonical criterion exactly once with a
// finite, non-negative weight, and the weights total 100 within
// WeightSumTolerance.
type WeightConfig map[Criterion]float64

// DefaultWeights returns the standard weighting: technical 30, price 25,
// experience 20, timeline 15, risk 10.
func DefaultWeights() WeightConfig {
	return WeightConfig{
		TechnicalCompliance:  30,
		PriceCompetitiveness: 25,
		CompanyExperience:    20,
		TimelineFeasibility:  15,
		RiskAssessment:       10,
	}
}

// Total returns the sum of all weights.
func (w WeightConfig) Total() float64 {
	var total float64
	for _, c := range w.Criteria() {
		total += w[c]
	}
	return total
}

// Criteria returns the configured criteria, canonical ones first in their
// presentation order followed by any unknown keys sorted by name.
func (w WeightConfig) Criteria() []Criterion {
	out := make([]Criterion, 0, len(w))
	for _, c := range AllCriteria() {
		if _, ok := w[c]; ok {
			out = append(out, c)
		}
	}

	var unknown []Criterion
	for c := range w {
		if !c.IsValid() {
			unknown = append(unknown, c)
		}
	}
	sort.Slice(unknown, func(i, j int) bool { return unknown[i] < unknown[j] })
	return append(out, unknown...)
}

// Clone returns a copy of the configuration.
func (w WeightConfig) Clone() WeightConfig {
	if w == nil {
		return nil
	}
	out := make(WeightConfig, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

// Validate returns an *InvalidWeightsError describing the first problem
// found, or nil when the configuration is usable for scoring.
func (w WeightConfig) Validate() error {
	if ok, reason := ValidateWeights(w); !ok {
		return &InvalidWeightsError{Reason: reason}
	}
	return nil
}

// ValidateWeights reports whether w is a usable weight configuration. When it
// is not, the returned reason explains why in a form suitable for showing to
// the operator who supplied the weights.
func ValidateWeights(w WeightConfig) (bool, string) {
	if len(w) == 0 {
		return false, "no weights provided"
	}

	for _, c := range w.Criteria() {
		if !c.IsValid() {
			return false, fmt.Sprintf("unknown criterion %q", string(c))
		}
	}

	var missing []string
	for _, c := range AllCriteria() {
		if _, ok := w[c]; !ok {
			missing = append(missing, string(c))
		}
	}
	if len(missing) > 0 {
		return false, fmt.Sprintf("missing weight for %s", strings.Join(missing, ", "))
	}

	for _, c := range AllCriteria() {
		weight := w[c]
		if math.IsNaN(weight) || math.IsInf(weight, 0) {
			return false, fmt.Sprintf("weight for %s is not a finite number: %v", c, weight)
		}
		if weight < 0 {
			return false, fmt.Sprintf("weight for %s cannot be negative: %g", c, weight)
		}
	}

	total := w.Total()
	if math.Abs(total-100) > WeightSumTolerance {
		return false, fmt.Sprintf("weights must sum to 100%%, got %.2f%%", total)
	}
	return true, ""
}

// ParseWeights builds a WeightConfig from textual criterion/value pairs, as
// supplied on a command line or in a form. Criterion names are resolved with
// ParseCriterion. Non-numeric values yield an *InvalidWeightsError. The
// result is not validated; call Validate before scoring with it.
func ParseWeights(raw map[string]string) (WeightConfig, error) {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	w := make(WeightConfig, len(raw))
	for _, key := range keys {
		c, err := ParseCriterion(key)
		if err != nil {
			return nil, &InvalidWeightsError{Reason: err.Error()}
		}
		value := strings.TrimSuffix(strings.TrimSpace(raw[key]), "%")
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, &InvalidWeightsError{
				Reason: fmt.Sprintf("weight for %s is not numeric: %q", c, raw[key]),
			}
		}
		if _, dup := w[c]; dup {
			return nil, &InvalidWeightsError{Reason: fmt.Sprintf("duplicate weight for %s", c)}
		}
		w[c] = f
	}
	return w, nil
}

// ParseWeightList parses a comma separated "criterion=value" list such as
// "technical_compliance=30,price_competitiveness=25".
func ParseWeightList(list string) (WeightConfig, error) {
	raw := make(map[string]string)
	for _, pair := range strings.Split(list, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, &InvalidWeightsError{Reason: fmt.Sprintf("expected criterion=value, got %q", pair)}
		}
		if _, dup := raw[strings.TrimSpace(name)]; dup {
			return nil, &InvalidWeightsError{Reason: fmt.Sprintf("duplicate weight for %s", name)}
		}
		raw[strings.TrimSpace(name)] = value
	}
	return ParseWeights(raw)
}
