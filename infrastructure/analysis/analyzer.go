package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/ahrav/go-tender/internal/domain"
)

// Analyzer runs the request and parse steps for one supplier and always
// produces a scorecard for it.
type Analyzer struct {
	requester *Requester
	parser    *Parser
	now       func() time.Time
}

// NewAnalyzer combines a requester and a parser. now defaults to time.Now.
func NewAnalyzer(requester *Requester, parser *Parser, now func() time.Time) (*Analyzer, error) {
	if requester == nil {
		return nil, fmt.Errorf("requester cannot be nil")
	}
	if parser == nil {
		return nil, fmt.Errorf("parser cannot be nil")
	}
	if now == nil {
		now = time.Now
	}
	return &Analyzer{requester: requester, parser: parser, now: now}, nil
}

// Analyze scores one proposal. A failed request, or a parse failure in
// strict mode, becomes a FailedScorecard so a single bad supplier never
// aborts the batch. An error is returned only when ctx was cancelled, in
// which case the scorecard is meaningless.
func (a *Analyzer) Analyze(ctx context.Context, tender, proposal, supplier string) (domain.Scorecard, error) {
	model := a.requester.Model()

	raw, err := a.requester.Evaluate(ctx, tender, proposal, supplier)
	if err != nil {
		if ctx.Err() != nil {
			return domain.Scorecard{}, fmt.Errorf("analyze supplier %q: %w", supplier, ctx.Err())
		}
		return FailedScorecard(supplier, model, err, a.now()), nil
	}

	card, err := a.parser.Parse(ctx, raw, supplier, model, a.now())
	if err != nil {
		return FailedScorecard(supplier, model, err, a.now()), nil
	}
	return card, nil
}
