package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ahrav/go-tender/internal/domain"
)

func newWeightsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "weights",
		Short: "Inspect and validate criterion weights",
	}
	cmd.AddCommand(newWeightsValidateCommand(a))
	cmd.AddCommand(newWeightsDefaultsCommand(a))
	return cmd
}

func newWeightsValidateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate criterion=value [criterion=value ...]",
		Short: "Check that a weight set covers every criterion and sums to 100",
		Long: `Validate parses criterion=value pairs and reports whether they form a
usable weight set. Pairs may be separate arguments or comma separated.
Criterion names are matched leniently, so "Technical Compliance" and
technical-compliance both name the same criterion.

Exits with status 1 when the weights are invalid.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			w, err := domain.ParseWeightList(strings.Join(args, ","))
			if err != nil {
				fmt.Fprintf(a.stdout, "invalid: %v\n", err)
				return &RejectedError{Message: err.Error()}
			}
			ok, reason := domain.ValidateWeights(w)
			if !ok {
				fmt.Fprintf(a.stdout, "invalid: %s\n", reason)
				return &RejectedError{Message: "invalid weights: " + reason}
			}
			fmt.Fprintln(a.stdout, "valid")
			printWeights(a, w)
			return nil
		},
	}
}

func newWeightsDefaultsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "defaults",
		Short: "Print the default weights",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			printWeights(a, domain.DefaultWeights())
			return nil
		},
	}
}

func printWeights(a *app, w domain.WeightConfig) {
	for _, c := range domain.AllCriteria() {
		fmt.Fprintf(a.stdout, "  %-24s %g%%\n", c.Label(), w[c])
	}
}
