package analysis

import (
	"strings"
	"text/template"

	"github.com/ahrav/go-tender/internal/domain"
)

// TemplateFuncs returns the functions available to evaluation prompt
// templates. The map is built fresh on each call.
//
// Usage in a template file:
//
//	{{range $i, $c := .Criteria}}{{add $i 1}}. {{label $c}}{{end}}
//	{{truncate .SupplierProposal 20000}}
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		// add converts 0-based range indexes for numbered lists.
		"add": func(a, b int) int {
			return a + b
		},

		// label renders a criterion as its human-readable title.
		"label": func(c domain.Criterion) string {
			return c.Label()
		},

		// truncate limits s to n runes, marking the cut with "...".
		// Returns empty string if n <= 0.
		"truncate": func(s string, n int) string {
			if n <= 0 {
				return ""
			}
			runes := []rune(s)
			if len(runes) <= n {
				return s
			}
			if n > 3 {
				return string(runes[:n-3]) + "..."
			}
			return string(runes[:n])
		},

		"trim":  strings.TrimSpace,
		"upper": strings.ToUpper,
		"lower": strings.ToLower,
		"join": func(elems []string, sep string) string {
			return strings.Join(elems, sep)
		},
	}
}
