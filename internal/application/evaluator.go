package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ahrav/go-tender/internal/domain"
	"github.com/ahrav/go-tender/internal/ports"
)

// ProposalAnalyzer produces a scorecard for one supplier proposal. It
// reports model and parse failures inside the scorecard and returns an
// error only when ctx is done.
type ProposalAnalyzer interface {
	Analyze(ctx context.Context, tender, proposal, supplier string) (domain.Scorecard, error)
}

// Proposal is one supplier's submission.
type Proposal struct {
	Supplier string `validate:"required,max=200"`
	Text     string `validate:"required"`
}

// RunRequest describes one evaluation run.
type RunRequest struct {
	TenderRequirements string     `validate:"required"`
	Proposals          []Proposal `validate:"dive"`
	// Weights defaults to domain.DefaultWeights when nil.
	Weights domain.WeightConfig
}

// RunResult holds everything produced by a run.
type RunResult struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Weights    domain.WeightConfig
	// Scorecards are in request order.
	Scorecards []domain.Scorecard
	Ranked     []domain.RankedResult
	Summary    domain.SummaryStatistics
	Breakdown  []domain.CriterionBreakdown
}

// EvaluatorConfig configures an Evaluator.
type EvaluatorConfig struct {
	// Concurrency is the number of proposals analysed at once. Values below
	// two analyse proposals sequentially in request order.
	Concurrency int
	Observer    ports.EvaluationObserver
	// Now and NewRunID are injectable for tests.
	Now      func() time.Time
	NewRunID func() string
}

// Evaluator runs the full pipeline: analyse every proposal, rank the
// scorecards, and compute statistics. It holds no per-run state and is safe
// for concurrent use.
type Evaluator struct {
	analyzer    ProposalAnalyzer
	concurrency int
	observer    ports.EvaluationObserver
	now         func() time.Time
	newRunID    func() string
	validate    *validator.Validate
}

// NewEvaluator creates an Evaluator around analyzer.
func NewEvaluator(analyzer ProposalAnalyzer, cfg EvaluatorConfig) (*Evaluator, error) {
	if analyzer == nil {
		return nil, errors.New("proposal analyzer cannot be nil")
	}

	e := &Evaluator{
		analyzer:    analyzer,
		concurrency: max(cfg.Concurrency, 1),
		observer:    cfg.Observer,
		now:         cfg.Now,
		newRunID:    cfg.NewRunID,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
	if e.observer == nil {
		e.observer = ports.NopObserver{}
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.newRunID == nil {
		e.newRunID = uuid.NewString
	}
	return e, nil
}

// Run evaluates every proposal in req. Model and parse failures are
// contained in the affected supplier's scorecard. Run fails when the request
// or weights are invalid, when ctx is cancelled, or when a scorecard cannot
// be scored. In the last case the partial result is returned with the error;
// it carries the scorecards but no ranking.
func (e *Evaluator) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	weights, err := e.checkRequest(req)
	if err != nil {
		return nil, err
	}

	result := &RunResult{
		RunID:     e.newRunID(),
		StartedAt: e.now(),
		Weights:   weights,
	}
	e.observer.RunStarted(ctx, result.RunID, len(req.Proposals))

	cards, err := e.analyzeAll(ctx, req)
	if err != nil {
		err = fmt.Errorf("evaluation cancelled: %w", err)
		e.observer.RunFinished(ctx, result.RunID, nil, err)
		return nil, err
	}
	result.Scorecards = cards

	ranked, err := domain.Rank(cards, weights)
	if err != nil {
		e.observer.RunFinished(ctx, result.RunID, nil, err)
		return result, err
	}

	result.FinishedAt = e.now()
	result.Ranked = ranked
	result.Summary = domain.Summarize(ranked, result.FinishedAt)
	result.Breakdown = domain.Breakdown(ranked, weights)

	e.observer.RunFinished(ctx, result.RunID, ranked, nil)
	return result, nil
}

func (e *Evaluator) checkRequest(req RunRequest) (domain.WeightConfig, error) {
	if err := e.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidConfiguration, describeValidation(err))
	}

	seen := make(map[string]struct{}, len(req.Proposals))
	for _, p := range req.Proposals {
		if _, dup := seen[p.Supplier]; dup {
			return nil, fmt.Errorf("%w: duplicate supplier %q", domain.ErrInvalidConfiguration, p.Supplier)
		}
		seen[p.Supplier] = struct{}{}
	}

	weights := req.Weights
	if weights == nil {
		weights = domain.DefaultWeights()
	}
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	return weights.Clone(), nil
}

// analyzeAll returns one scorecard per proposal in request order.
// Cancellation is checked before each supplier starts.
func (e *Evaluator) analyzeAll(ctx context.Context, req RunRequest) ([]domain.Scorecard, error) {
	cards := make([]domain.Scorecard, len(req.Proposals))

	if e.concurrency < 2 || len(req.Proposals) < 2 {
		for i, p := range req.Proposals {
			card, err := e.analyzeOne(ctx, req.TenderRequirements, p)
			if err != nil {
				return nil, err
			}
			cards[i] = card
		}
		return cards, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, p := range req.Proposals {
		g.Go(func() error {
			card, err := e.analyzeOne(gctx, req.TenderRequirements, p)
			if err != nil {
				return err
			}
			cards[i] = card
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return cards, nil
}

func (e *Evaluator) analyzeOne(ctx context.Context, tender string, p Proposal) (domain.Scorecard, error) {
	if err := ctx.Err(); err != nil {
		return domain.Scorecard{}, err
	}

	e.observer.SupplierStarted(ctx, p.Supplier)
	start := time.Now()

	card, err := e.analyzer.Analyze(ctx, tender, p.Text, p.Supplier)
	if err != nil {
		return domain.Scorecard{}, err
	}

	e.observer.SupplierFinished(ctx, card, time.Since(start))
	return card, nil
}
