package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ahrav/go-tender/internal/domain"
	"github.com/ahrav/go-tender/internal/ports"
)

// FallbackScore is the neutral score given to every criterion of a fallback
// scorecard.
const FallbackScore = 50

// Texts written into degraded scorecards.
const (
	fallbackJustification  = "Analysis failed"
	fallbackSummary        = "Analysis failed due to parsing error"
	fallbackRedFlag        = "Unable to parse AI response"
	fallbackRecommendation = "Manual review required"
	failedRedFlag          = "Analysis system error"
	failedRecommendation   = "Manual review required due to system error"
	failedSummaryPrefix    = "Analysis failed: "
)

// ParserOptions configures a Parser.
type ParserOptions struct {
	// Strict makes Parse return a *domain.ParseFailedError instead of a
	// fallback scorecard when the reply cannot be decoded.
	Strict bool

	// Observer receives a ParseFallback event for every degraded reply.
	Observer ports.EvaluationObserver
}

// Parser decodes model replies into scorecards. It is safe for concurrent use.
type Parser struct {
	strict   bool
	observer ports.EvaluationObserver
}

// NewParser returns a Parser with the given options.
func NewParser(opts ParserOptions) *Parser {
	observer := opts.Observer
	if observer == nil {
		observer = ports.NopObserver{}
	}
	return &Parser{strict: opts.Strict, observer: observer}
}

// Parse decodes raw into a scorecard for supplier. The supplier name,
// timestamp, model and a success status are stamped over whatever the model
// returned. In the default mode Parse never fails: an undecodable reply
// yields FallbackScorecard with the decode error recorded in Error.
func (p *Parser) Parse(ctx context.Context, raw, supplier, model string, now time.Time) (domain.Scorecard, error) {
	card, err := decodeScorecard(raw)
	if err != nil {
		if p.strict {
			return domain.Scorecard{}, &domain.ParseFailedError{Supplier: supplier, Err: err}
		}
		p.observer.ParseFallback(ctx, supplier, err)
		return FallbackScorecard(supplier, model, err, now), nil
	}

	card.SupplierName = supplier
	card.AnalysisTimestamp = now.Format(domain.TimestampLayout)
	card.ModelUsed = model
	card.Status = domain.StatusSuccess
	return card, nil
}

// decodeScorecard strips an optional Markdown code fence and decodes the
// remaining text, which must be exactly one JSON object.
func decodeScorecard(raw string) (domain.Scorecard, error) {
	text := StripCodeFence(raw)
	if text == "" {
		return domain.Scorecard{}, errors.New("reply is empty")
	}
	if text[0] != '{' {
		return domain.Scorecard{}, fmt.Errorf("reply is %s, not a JSON object", describeJSONStart(text[0]))
	}

	var card domain.Scorecard
	if err := json.Unmarshal([]byte(text), &card); err != nil {
		return domain.Scorecard{}, fmt.Errorf("decode reply: %w", err)
	}
	return card, nil
}

// StripCodeFence trims whitespace and removes a leading ```json or ``` fence
// and a trailing ``` fence.
func StripCodeFence(raw string) string {
	text := strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(text, "```json"):
		text = text[len("```json"):]
	case strings.HasPrefix(text, "```"):
		text = text[len("```"):]
	}
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

func describeJSONStart(c byte) string {
	switch c {
	case '[':
		return "an array"
	case '"':
		return "a string"
	case 'n':
		return "null"
	default:
		return "plain text"
	}
}

// FallbackScorecard is the neutral scorecard used when a reply cannot be
// parsed. Every criterion scores FallbackScore and the status stays success,
// so the supplier is still ranked.
func FallbackScorecard(supplier, model string, cause error, now time.Time) domain.Scorecard {
	return domain.Scorecard{
		SupplierName:      supplier,
		CriteriaScores:    uniformScores(FallbackScore),
		OverallSummary:    fallbackSummary,
		RedFlags:          []string{fallbackRedFlag},
		Recommendations:   fallbackRecommendation,
		KeyStrengths:      []string{},
		Status:            domain.StatusSuccess,
		Error:             errorText(cause),
		AnalysisTimestamp: now.Format(domain.TimestampLayout),
		ModelUsed:         model,
	}
}

// FailedScorecard is the scorecard recorded for a supplier whose analysis
// could not be run, for example because every model request failed. Every
// criterion scores 0 and the status is error.
func FailedScorecard(supplier, model string, cause error, now time.Time) domain.Scorecard {
	msg := errorText(cause)
	return domain.Scorecard{
		SupplierName:      supplier,
		CriteriaScores:    uniformScores(0),
		OverallSummary:    failedSummaryPrefix + msg,
		RedFlags:          []string{failedRedFlag},
		Recommendations:   failedRecommendation,
		KeyStrengths:      []string{},
		Status:            domain.StatusError,
		Error:             msg,
		AnalysisTimestamp: now.Format(domain.TimestampLayout),
		ModelUsed:         model,
	}
}

func uniformScores(score float64) map[domain.Criterion]domain.CriterionScore {
	scores := make(map[domain.Criterion]domain.CriterionScore, len(domain.AllCriteria()))
	for _, c := range domain.AllCriteria() {
		scores[c] = domain.CriterionScore{
			Score:         domain.NewScore(score),
			Justification: fallbackJustification,
			Evidence:      []string{},
		}
	}
	return scores
}

func errorText(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
