package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ahrav/go-tender/infrastructure/analysis"
	"github.com/ahrav/go-tender/infrastructure/document"
	"github.com/ahrav/go-tender/infrastructure/export"
	"github.com/ahrav/go-tender/internal/application"
	"github.com/ahrav/go-tender/internal/domain"
	"github.com/ahrav/go-tender/internal/ports"
)

// autoPath is the value an export flag takes when given without a path.
// It selects a timestamped file name in the working directory.
const autoPath = "auto"

type evaluateOptions struct {
	tender      string
	proposals   []string
	weights     string
	excel       string
	json        string
	concurrency int
	strict      bool
	template    string
	model       string
}

func newEvaluateCommand(a *app) *cobra.Command {
	opts := &evaluateOptions{}

	cmd := &cobra.Command{
		Use:   "evaluate --tender FILE --proposal NAME=FILE [--proposal NAME=FILE ...]",
		Short: "Analyse, rank and export supplier proposals",
		Long: `Evaluate runs the full pipeline: extract the tender and each proposal,
ask the model to score every proposal, rank suppliers by weighted score,
print the ranking, and optionally export it.

Proposals are given as NAME=FILE. When NAME is omitted the file name
without its extension is used as the supplier name. Documents may be PDF,
plain text or Markdown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runEvaluate(cmd.Context(), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.tender, "tender", "", "Tender requirements document")
	flags.StringArrayVarP(&opts.proposals, "proposal", "p", nil, "Supplier proposal as NAME=FILE (repeatable)")
	flags.StringVarP(&opts.weights, "weights", "w", "", "Criterion weights, e.g. technical_compliance=30,price_competitiveness=25,...")
	flags.StringVar(&opts.excel, "excel", "", "Write an Excel workbook to this path")
	flags.StringVar(&opts.json, "json", "", "Write a JSON report to this path")
	flags.IntVar(&opts.concurrency, "concurrency", 0, "Proposals analysed at once (overrides config)")
	flags.BoolVar(&opts.strict, "strict", false, "Treat unparseable model replies as errors instead of neutral scores")
	flags.StringVar(&opts.template, "template", "", "Prompt template file (overrides config)")
	flags.StringVar(&opts.model, "model", "", "Model name (overrides config)")
	flags.Lookup("excel").NoOptDefVal = autoPath
	flags.Lookup("json").NoOptDefVal = autoPath
	_ = cmd.MarkFlagRequired("tender")

	return cmd
}

func (a *app) runEvaluate(ctx context.Context, opts *evaluateOptions) error {
	if len(opts.proposals) == 0 {
		return fmt.Errorf("at least one --proposal is required")
	}
	specs, err := parseProposalSpecs(opts.proposals)
	if err != nil {
		return err
	}

	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	opts.applyTo(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	weights, err := resolveWeights(cfg, opts.weights)
	if err != nil {
		return err
	}

	logger, err := a.logger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	req, err := loadDocuments(ctx, document.NewExtractor(document.Options{Logger: logger}), opts.tender, specs)
	if err != nil {
		return err
	}
	req.Weights = weights

	tel, err := startTelemetry(cfg, logger)
	if err != nil {
		return err
	}
	defer tel.shutdown(logger)

	client, err := a.newClient(cfg, tel.collector)
	if err != nil {
		return fmt.Errorf("failed to create model client: %w", err)
	}

	evaluator, err := buildEvaluator(cfg, client, tel.observer)
	if err != nil {
		return err
	}

	result, err := evaluator.Run(ctx, req)
	if err != nil {
		if result != nil {
			if rerr := renderUnranked(a.stdout, result); rerr != nil {
				logger.Warn("failed to print unranked scorecards", zap.Error(rerr))
			}
		}
		return err
	}

	if err := renderResult(a.stdout, result); err != nil {
		return err
	}
	return a.exportResult(ctx, logger, result, opts)
}

// applyTo copies command line overrides into cfg.
func (o *evaluateOptions) applyTo(cfg *application.AppConfig) {
	if o.concurrency > 0 {
		cfg.Run.Concurrency = o.concurrency
	}
	if o.strict {
		cfg.Run.StrictParse = true
	}
	if o.template != "" {
		cfg.PromptTemplatePath = o.template
	}
	if o.model != "" {
		cfg.Model = o.model
	}
}

func resolveWeights(cfg *application.AppConfig, list string) (domain.WeightConfig, error) {
	if list == "" {
		return cfg.WeightConfig()
	}
	w, err := domain.ParseWeightList(list)
	if err != nil {
		return nil, err
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return w, nil
}

type proposalSpec struct {
	supplier string
	path     string
}

// parseProposalSpecs parses NAME=FILE values. A value without "=" is a bare
// path and the supplier is named after the file.
func parseProposalSpecs(values []string) ([]proposalSpec, error) {
	specs := make([]proposalSpec, 0, len(values))
	for _, v := range values {
		name, path, ok := strings.Cut(v, "=")
		if !ok {
			path = name
			name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		name, path = strings.TrimSpace(name), strings.TrimSpace(path)
		if name == "" || path == "" {
			return nil, fmt.Errorf("invalid proposal %q: expected NAME=FILE", v)
		}
		specs = append(specs, proposalSpec{supplier: name, path: path})
	}
	return specs, nil
}

func loadDocuments(
	ctx context.Context,
	extractor *document.Extractor,
	tenderPath string,
	specs []proposalSpec,
) (application.RunRequest, error) {
	tender, err := extractor.Extract(ctx, tenderPath)
	if err != nil {
		return application.RunRequest{}, fmt.Errorf("tender: %w", err)
	}

	req := application.RunRequest{TenderRequirements: tender.Text}
	for _, s := range specs {
		doc, err := extractor.Extract(ctx, s.path)
		if err != nil {
			return application.RunRequest{}, fmt.Errorf("proposal from %s: %w", s.supplier, err)
		}
		req.Proposals = append(req.Proposals, application.Proposal{Supplier: s.supplier, Text: doc.Text})
	}
	return req, nil
}

func buildEvaluator(cfg *application.AppConfig, client ports.LLMClient, observer ports.EvaluationObserver) (*application.Evaluator, error) {
	temperature := cfg.Request.Temperature
	requester, err := analysis.NewRequester(client, analysis.RequesterConfig{
		TemplatePath:    cfg.PromptTemplatePath,
		Temperature:     &temperature,
		MaxTokens:       cfg.Request.MaxTokens,
		DisableJSONMode: cfg.Request.DisableJSONMode,
		Retry:           cfg.RetryPolicy(),
		Observer:        observer,
	})
	if err != nil {
		return nil, err
	}

	parser := analysis.NewParser(analysis.ParserOptions{Strict: cfg.Run.StrictParse, Observer: observer})
	analyzer, err := analysis.NewAnalyzer(requester, parser, nil)
	if err != nil {
		return nil, err
	}

	return application.NewEvaluator(analyzer, application.EvaluatorConfig{
		Concurrency: cfg.Run.Concurrency,
		Observer:    observer,
	})
}

func (a *app) exportResult(ctx context.Context, logger *zap.Logger, result *application.RunResult, opts *evaluateOptions) error {
	report := export.Report{
		RunID:       result.RunID,
		GeneratedAt: result.FinishedAt,
		Weights:     result.Weights,
		Ranked:      result.Ranked,
		Summary:     result.Summary,
		Breakdown:   result.Breakdown,
	}

	targets := []struct {
		path     string
		exporter export.Exporter
	}{
		{opts.excel, export.NewExcelExporter(logger)},
		{opts.json, export.NewJSONExporter(logger)},
	}
	for _, t := range targets {
		if t.path == "" {
			continue
		}
		path := t.path
		if path == autoPath {
			path = ""
		}
		written, err := t.exporter.Export(ctx, report, path)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "Results exported to %s\n", written)
	}
	return nil
}
