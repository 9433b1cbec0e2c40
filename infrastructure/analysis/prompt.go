package analysis

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"github.com/ahrav/go-tender/internal/domain"
)

//go:embed prompts/evaluation_prompt.tmpl
var defaultPromptText string

// SystemPrompt is sent ahead of every evaluation prompt.
const SystemPrompt = "You are an expert tender evaluation specialist. Always respond with valid JSON format."

// PromptData is the data passed to the evaluation prompt template.
// Templates must reference at least {{.TenderRequirements}} and
// {{.SupplierProposal}}.
type PromptData struct {
	TenderRequirements string
	SupplierProposal   string
	// Criteria lists the canonical criteria in presentation order.
	Criteria []domain.Criterion
}

// DefaultPromptTemplate returns the built-in evaluation prompt.
func DefaultPromptTemplate() *template.Template {
	return template.Must(parsePrompt("default", defaultPromptText))
}

// LoadPromptTemplate reads and compiles the template at path. The template
// is trial-rendered so that references to unknown fields fail here rather
// than on the first supplier.
func LoadPromptTemplate(path string) (*template.Template, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("prompt template path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompt template: %w", err)
	}

	tmpl, err := parsePrompt(path, string(data))
	if err != nil {
		return nil, err
	}

	sample := PromptData{TenderRequirements: "t", SupplierProposal: "p", Criteria: domain.AllCriteria()}
	if err := tmpl.Execute(io.Discard, sample); err != nil {
		return nil, fmt.Errorf("render prompt template %s: %w", path, err)
	}

	return tmpl, nil
}

func parsePrompt(name, text string) (*template.Template, error) {
	tmpl, err := template.New(name).Funcs(TemplateFuncs()).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse prompt template %s: %w", name, err)
	}
	return tmpl, nil
}

// RenderPrompt fills tmpl with the tender and proposal texts.
func RenderPrompt(tmpl *template.Template, tender, proposal string) (string, error) {
	var b strings.Builder
	data := PromptData{
		TenderRequirements: tender,
		SupplierProposal:   proposal,
		Criteria:           domain.AllCriteria(),
	}
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return b.String(), nil
}
