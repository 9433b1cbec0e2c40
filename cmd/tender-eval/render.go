package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ahrav/go-tender/internal/application"
	"github.com/ahrav/go-tender/internal/domain"
)

type printStyles struct {
	header lipgloss.Style
	high   lipgloss.Style
	mid    lipgloss.Style
	low    lipgloss.Style
	failed lipgloss.Style
	dim    lipgloss.Style
}

func newPrintStyles() printStyles {
	return printStyles{
		header: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		high:   lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		mid:    lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		low:    lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		failed: lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		dim:    lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// scoreStyle colours a weighted score by band.
func (s printStyles) scoreStyle(r domain.RankedResult) lipgloss.Style {
	switch {
	case r.Status == domain.StatusError:
		return s.failed
	case r.WeightedScore >= 80:
		return s.high
	case r.WeightedScore >= 60:
		return s.mid
	default:
		return s.low
	}
}

const supplierWidth = 28

// renderResult prints the ranking, per-criterion scores and run summary.
func renderResult(w io.Writer, result *application.RunResult) error {
	styles := newPrintStyles()
	criteria := domain.AllCriteria()
	var b strings.Builder

	fmt.Fprintln(&b, styles.header.Render("SUPPLIER RANKING"))
	fmt.Fprintln(&b, styles.dim.Render("run "+result.RunID))

	if len(result.Ranked) == 0 {
		fmt.Fprintln(&b, "No proposals evaluated.")
		_, err := io.WriteString(w, b.String())
		return err
	}

	head := fmt.Sprintf("%-4s %-*s %7s", "Rank", supplierWidth, "Supplier", "Score")
	for _, c := range criteria {
		head += fmt.Sprintf(" %6s", abbreviate(c))
	}
	fmt.Fprintln(&b, styles.header.Render(head))

	for _, r := range result.Ranked {
		name := truncate(r.SupplierName, supplierWidth)
		score := styles.scoreStyle(r).Render(fmt.Sprintf("%7.2f", r.WeightedScore))
		line := fmt.Sprintf("%-4d %-*s %s", r.Rank, supplierWidth, name, score)
		for _, c := range criteria {
			line += fmt.Sprintf(" %6s", criterionCell(r.Scorecard, c))
		}
		if r.Status == domain.StatusError {
			line += " " + styles.failed.Render("error")
		}
		fmt.Fprintln(&b, line)
	}

	s := result.Summary
	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "Top supplier: %s (%.2f)\n", s.TopSupplier, s.TopScore)
	fmt.Fprintf(&b, "Average %.2f, range %.2f to %.2f\n", s.AverageScore, s.LowestScore, s.HighestScore)

	for _, r := range result.Ranked {
		if len(r.RedFlags) == 0 {
			continue
		}
		fmt.Fprintf(&b, "%s %s: %s\n", styles.low.Render("!"), r.SupplierName, strings.Join(r.RedFlags, "; "))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// renderUnranked prints the scorecards of a run whose ranking failed, with
// the scoring error of every supplier that could not be scored.
func renderUnranked(w io.Writer, result *application.RunResult) error {
	styles := newPrintStyles()
	var b strings.Builder

	fmt.Fprintln(&b, styles.header.Render("RANKING FAILED"))
	fmt.Fprintln(&b, styles.dim.Render("run "+result.RunID))
	for _, sc := range result.Scorecards {
		name := truncate(sc.SupplierName, supplierWidth)
		if _, err := domain.CompositeScore(sc, result.Weights); err != nil {
			fmt.Fprintf(&b, "%-*s %s %v\n", supplierWidth, name, styles.failed.Render("unscorable"), err)
			continue
		}
		fmt.Fprintf(&b, "%-*s %s\n", supplierWidth, name, string(sc.Status))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// abbreviate shortens a criterion label to its initials, e.g. "TC".
func abbreviate(c domain.Criterion) string {
	var out []byte
	for _, word := range strings.Fields(c.Label()) {
		out = append(out, word[0])
	}
	return string(out)
}

func criterionCell(sc domain.Scorecard, c domain.Criterion) string {
	cs, ok := sc.Criterion(c)
	if !ok {
		return "-"
	}
	if f, err := cs.Score.Float64(); err == nil {
		return fmt.Sprintf("%.0f", f)
	}
	return truncate(cs.Score.String(), 6)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
