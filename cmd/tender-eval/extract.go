package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ahrav/go-tender/infrastructure/document"
)

func newExtractCommand(a *app) *cobra.Command {
	var validateOnly bool

	cmd := &cobra.Command{
		Use:   "extract FILE",
		Short: "Print the cleaned text of a tender or proposal document",
		Long: `Extract reads a PDF, text or Markdown document and prints its cleaned
text as the evaluator would see it. With --validate-only the file is
checked without extracting text; an unusable file exits with status 1.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			logger, err := a.logger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			extractor := document.NewExtractor(document.Options{Logger: logger})

			if validateOnly {
				v := extractor.Validate(args[0])
				fmt.Fprintf(a.stdout, "File:  %s\n", v.FileName)
				fmt.Fprintf(a.stdout, "Size:  %.2f MB\n", v.SizeMB())
				if v.PageCount > 0 {
					fmt.Fprintf(a.stdout, "Pages: %d\n", v.PageCount)
				}
				if !v.Valid {
					fmt.Fprintf(a.stdout, "Valid: no (%s)\n", v.Reason)
					return &RejectedError{Message: v.Reason}
				}
				fmt.Fprintln(a.stdout, "Valid: yes")
				return nil
			}

			doc, err := extractor.Extract(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stderr, "%s: %d characters via %s", doc.FileName, doc.TextLength, doc.Method)
			if doc.PageCount > 0 {
				fmt.Fprintf(a.stderr, ", %d pages", doc.PageCount)
			}
			fmt.Fprintln(a.stderr)
			fmt.Fprintln(a.stdout, doc.Text)
			return nil
		},
	}

	cmd.Flags().BoolVar(&validateOnly, "validate-only", false, "Check the file without extracting text")
	return cmd
}
