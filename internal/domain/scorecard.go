package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// TimestampLayout is the layout used for Scorecard.AnalysisTimestamp.
const TimestampLayout = "2006-01-02 15:04:05"

// Status reports whether the analysis of a supplier could be run at all.
type Status string

const (
	// StatusSuccess marks a scorecard produced from a completed model call,
	// including the degraded fallback produced when the reply was unparseable.
	StatusSuccess Status = "success"
	// StatusError marks a scorecard for a supplier whose model call failed
	// after every retry was exhausted.
	StatusError Status = "error"
)

// ScoreValue holds a criterion score exactly as the model reported it.
// Numeric values are kept as float64; anything else (strings, null, lists)
// is retained verbatim so that scoring can reject it loudly instead of
// silently coercing it.
type ScoreValue struct {
	num     float64
	numeric bool
	raw     json.RawMessage
}

// NewScore returns a numeric ScoreValue.
func NewScore(v float64) ScoreValue {
	return ScoreValue{num: v, numeric: true}
}

// RawScore returns a ScoreValue backed by an arbitrary JSON token.
// It is mainly useful for constructing malformed scores in tests.
func RawScore(token string) ScoreValue {
	var s ScoreValue
	_ = s.UnmarshalJSON([]byte(token))
	return s
}

// Float64 returns the numeric score. It fails for non-numeric values and for
// NaN or infinite numbers.
func (s ScoreValue) Float64() (float64, error) {
	if !s.numeric {
		return 0, fmt.Errorf("score is %s, not a number", s.Kind())
	}
	if math.IsNaN(s.num) || math.IsInf(s.num, 0) {
		return 0, fmt.Errorf("score %v is not finite", s.num)
	}
	return s.num, nil
}

// Kind describes the JSON type of the score: "number", "string", "null",
// "array", "object", "boolean", "invalid number" or "missing".
func (s ScoreValue) Kind() string {
	if s.numeric {
		return "number"
	}
	if len(s.raw) == 0 {
		return "missing"
	}
	switch s.raw[0] {
	case '"':
		return "string"
	case 'n':
		return "null"
	case '[':
		return "array"
	case '{':
		return "object"
	case 't', 'f':
		return "boolean"
	default:
		return "invalid number"
	}
}

// String renders the score for display and error messages.
func (s ScoreValue) String() string {
	if s.numeric {
		return strconv.FormatFloat(s.num, 'f', -1, 64)
	}
	if len(s.raw) == 0 {
		return "<missing>"
	}
	return string(s.raw)
}

// MarshalJSON implements json.Marshaler. Non-finite numbers, which JSON
// cannot represent, are encoded as null.
func (s ScoreValue) MarshalJSON() ([]byte, error) {
	if s.numeric {
		if math.IsNaN(s.num) || math.IsInf(s.num, 0) {
			return []byte("null"), nil
		}
		return strconv.AppendFloat(nil, s.num, 'f', -1, 64), nil
	}
	if len(s.raw) == 0 {
		return []byte("null"), nil
	}
	return s.raw, nil
}

// UnmarshalJSON implements json.Unmarshaler. It never fails: any token that
// is not a representable number is kept verbatim.
func (s *ScoreValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*s = ScoreValue{}
	if len(data) == 0 {
		return nil
	}

	if c := data[0]; c == '-' || (c >= '0' && c <= '9') {
		var f float64
		if err := json.Unmarshal(data, &f); err == nil {
			s.num, s.numeric = f, true
			return nil
		}
	}
	s.raw = append(json.RawMessage(nil), data...)
	return nil
}

// CriterionScore is the model's assessment of one criterion for one supplier.
type CriterionScore struct {
	// Score is the 0-100 rating; the range is intended but not enforced.
	Score ScoreValue `json:"score"`
	// Justification explains the score.
	Justification string `json:"justification"`
	// Evidence lists snippets from the proposal supporting the score.
	Evidence []string `json:"evidence"`
}

// UnmarshalJSON decodes a criterion assessment. A bare value in place of the
// object is taken as the score. Justification accepts a list, which is
// joined, and Evidence accepts a single string. Values that cannot be
// coerced are kept as their JSON text.
func (cs *CriterionScore) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] == 'n' {
		return nil
	}
	if data[0] != '{' {
		*cs = CriterionScore{}
		return cs.Score.UnmarshalJSON(data)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	var out CriterionScore
	if raw, ok := fields["score"]; ok {
		if err := out.Score.UnmarshalJSON(raw); err != nil {
			return err
		}
	}
	if raw := fields["justification"]; raw != nil {
		text, ok := looseText(raw)
		if !ok {
			text = string(raw)
		}
		out.Justification = text
	}
	if raw := fields["evidence"]; raw != nil {
		items, ok := looseList(raw)
		if !ok {
			items = []string{string(raw)}
		}
		out.Evidence = items
	}
	*cs = out
	return nil
}

// Scorecard is the structured evaluation of one supplier proposal.
// Scorecards are treated as immutable values once built; ranking produces
// RankedResult copies instead of modifying them.
type Scorecard struct {
	SupplierName      string                       `json:"supplier_name"`
	CriteriaScores    map[Criterion]CriterionScore `json:"criteria_scores"`
	OverallSummary    string                       `json:"overall_summary"`
	RedFlags          []string                     `json:"red_flags"`
	Recommendations   string                       `json:"recommendations"`
	KeyStrengths      []string                     `json:"key_strengths"`
	Status            Status                       `json:"status"`
	Error             string                       `json:"error,omitempty"`
	AnalysisTimestamp string                       `json:"analysis_timestamp"`
	ModelUsed         string                       `json:"model_used"`

	// Extra carries any additional top-level keys the model returned, such as
	// its own final_score, so that the payload survives a round trip.
	Extra map[string]json.RawMessage `json:"-"`
}

// scorecardJSON strips the custom (un)marshalers from Scorecard.
type scorecardJSON Scorecard

// UnmarshalJSON decodes the known fields and collects the rest into Extra.
// Text fields accept a list, which is joined with "; ", and list fields
// accept a single string. A known field whose value cannot be coerced, such
// as an object in place of recommendations, is kept in Extra under its own
// key and the field stays empty. Only a malformed criteria_scores fails the
// decode, since no score can be recovered from it.
func (sc *Scorecard) UnmarshalJSON(data []byte) error {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}

	var out Scorecard
	for key, value := range all {
		ok := true
		switch key {
		case "criteria_scores":
			if err := json.Unmarshal(value, &out.CriteriaScores); err != nil {
				return fmt.Errorf("criteria_scores: %w", err)
			}
		case "supplier_name":
			out.SupplierName, ok = looseText(value)
		case "overall_summary":
			out.OverallSummary, ok = looseText(value)
		case "recommendations":
			out.Recommendations, ok = looseText(value)
		case "red_flags":
			out.RedFlags, ok = looseList(value)
		case "key_strengths":
			out.KeyStrengths, ok = looseList(value)
		case "status":
			var status string
			status, ok = looseText(value)
			out.Status = Status(status)
		case "error":
			out.Error, ok = looseText(value)
		case "analysis_timestamp":
			out.AnalysisTimestamp, ok = looseText(value)
		case "model_used":
			out.ModelUsed, ok = looseText(value)
		default:
			ok = false
		}
		if ok {
			continue
		}
		if out.Extra == nil {
			out.Extra = make(map[string]json.RawMessage)
		}
		out.Extra[key] = value
	}

	*sc = out
	return nil
}

// MarshalJSON encodes the known fields merged with Extra. Known fields win
// over Extra entries with the same key.
func (sc Scorecard) MarshalJSON() ([]byte, error) {
	return mergeJSON(scorecardJSON(sc), sc.Extra)
}

// Criterion returns the score for c and whether it is present.
func (sc Scorecard) Criterion(c Criterion) (CriterionScore, bool) {
	cs, ok := sc.CriteriaScores[c]
	return cs, ok
}

// Clone returns a deep copy of the scorecard so the copy can be handed to
// another owner without sharing maps or slices.
func (sc Scorecard) Clone() Scorecard {
	out := sc
	if sc.CriteriaScores != nil {
		out.CriteriaScores = make(map[Criterion]CriterionScore, len(sc.CriteriaScores))
		for k, v := range sc.CriteriaScores {
			v.Evidence = cloneStrings(v.Evidence)
			out.CriteriaScores[k] = v
		}
	}
	out.RedFlags = cloneStrings(sc.RedFlags)
	out.KeyStrengths = cloneStrings(sc.KeyStrengths)
	if sc.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(sc.Extra))
		for k, v := range sc.Extra {
			out.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return out
}

// RankedResult is a scorecard augmented with its weighted composite score
// and its 1-based position in the ranking.
type RankedResult struct {
	Scorecard
	WeightedScore float64 `json:"weighted_score"`
	Rank          int     `json:"rank"`
}

// MarshalJSON flattens the scorecard and ranking fields into one object.
func (r RankedResult) MarshalJSON() ([]byte, error) {
	extra := make(map[string]json.RawMessage, len(r.Extra)+2)
	for k, v := range r.Extra {
		extra[k] = v
	}
	score, err := json.Marshal(r.WeightedScore)
	if err != nil {
		return nil, err
	}
	extra["weighted_score"] = score
	extra["rank"] = json.RawMessage(strconv.Itoa(r.Rank))
	return mergeJSON(scorecardJSON(r.Scorecard), extra)
}

// UnmarshalJSON decodes a flattened ranked result.
func (r *RankedResult) UnmarshalJSON(data []byte) error {
	var sc Scorecard
	if err := json.Unmarshal(data, &sc); err != nil {
		return err
	}
	var ranking struct {
		WeightedScore float64 `json:"weighted_score"`
		Rank          int     `json:"rank"`
	}
	if err := json.Unmarshal(data, &ranking); err != nil {
		return err
	}
	delete(sc.Extra, "weighted_score")
	delete(sc.Extra, "rank")
	if len(sc.Extra) == 0 {
		sc.Extra = nil
	}
	*r = RankedResult{Scorecard: sc, WeightedScore: ranking.WeightedScore, Rank: ranking.Rank}
	return nil
}

// mergeJSON marshals v, which must encode to an object, and adds every
// entry of extra whose key is not already present.
func mergeJSON(v any, extra map[string]json.RawMessage) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if len(extra) == 0 {
		return data, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	for k, raw := range extra {
		if _, exists := fields[k]; !exists {
			fields[k] = raw
		}
	}
	return json.Marshal(fields)
}

// looseText coerces a JSON value into text. Strings decode as usual, null is
// empty, numbers and booleans keep their literal form and lists are joined
// with "; ". Objects are rejected.
func looseText(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", true
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		return s, true
	case 'n':
		return "", true
	case '[':
		items, ok := looseList(raw)
		if !ok {
			return "", false
		}
		return strings.Join(items, "; "), true
	case '{':
		return "", false
	default:
		if !json.Valid(raw) {
			return "", false
		}
		return string(raw), true
	}
}

// looseList coerces a JSON value into a list of strings. A scalar becomes a
// one element list, an empty string an empty list and null a nil list. Null
// items are dropped. Objects, at any level, are rejected.
func looseList(raw json.RawMessage) ([]string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, true
	}
	switch raw[0] {
	case 'n':
		return nil, true
	case '{':
		return nil, false
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, false
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
			if item = bytes.TrimSpace(item); len(item) == 0 || item[0] == 'n' {
				continue
			}
			text, ok := looseText(item)
			if !ok {
				return nil, false
			}
			out = append(out, text)
		}
		return out, true
	default:
		text, ok := looseText(raw)
		if !ok {
			return nil, false
		}
		if text == "" {
			return []string{}, true
		}
		return []string{text}, true
	}
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}
