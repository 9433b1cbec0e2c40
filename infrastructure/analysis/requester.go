// Package analysis turns a tender and a supplier proposal into a Scorecard.
// The Requester renders the evaluation prompt and asks the model for a
// reply under a retry policy; the Parser decodes that reply, degrading to a
// neutral fallback scorecard when the reply is not valid JSON.
package analysis

import (
	"context"
	"fmt"
	"text/template"

	"github.com/ahrav/go-tender/infrastructure/llm"
	"github.com/ahrav/go-tender/internal/ports"
)

// RequesterConfig configures a Requester. Zero values select the defaults.
type RequesterConfig struct {
	// TemplatePath points at a prompt template file. When empty, unreadable,
	// or unparseable the built-in template is used.
	TemplatePath string

	// Temperature for the evaluation request. Nil means llm.DefaultTemperature.
	Temperature *float64

	// MaxTokens for the evaluation reply. Zero means llm.DefaultMaxTokens.
	MaxTokens int

	// DisableJSONMode stops the requester from asking providers for a
	// JSON-constrained reply.
	DisableJSONMode bool

	// Retry is the policy applied to each request. The zero value means
	// llm.DefaultRetryPolicy().
	Retry llm.RetryPolicy

	// Observer receives retry and template fallback events.
	Observer ports.EvaluationObserver
}

// Requester sends evaluation prompts to the model. It holds no mutable state
// and is safe for concurrent use.
type Requester struct {
	client   ports.LLMClient
	tmpl     *template.Template
	options  map[string]any
	policy   llm.RetryPolicy
	observer ports.EvaluationObserver
}

// NewRequester compiles the prompt template and returns a Requester.
func NewRequester(client ports.LLMClient, config RequesterConfig) (*Requester, error) {
	if client == nil {
		return nil, fmt.Errorf("LLM client cannot be nil")
	}

	observer := config.Observer
	if observer == nil {
		observer = ports.NopObserver{}
	}

	tmpl := DefaultPromptTemplate()
	if config.TemplatePath != "" {
		loaded, err := LoadPromptTemplate(config.TemplatePath)
		if err != nil {
			observer.TemplateFallback(context.Background(), config.TemplatePath, err)
		} else {
			tmpl = loaded
		}
	}

	temperature := llm.DefaultTemperature
	if config.Temperature != nil {
		temperature = *config.Temperature
	}
	maxTokens := config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = llm.DefaultMaxTokens
	}

	policy := config.Retry
	if policy.MaxAttempts == 0 && policy.BaseDelay == 0 {
		policy = llm.DefaultRetryPolicy()
	}

	return &Requester{
		client: client,
		tmpl:   tmpl,
		options: map[string]any{
			"system":      SystemPrompt,
			"temperature": temperature,
			"max_tokens":  maxTokens,
			"json_mode":   !config.DisableJSONMode,
		},
		policy:   policy,
		observer: observer,
	}, nil
}

// Evaluate asks the model to score proposal against tender and returns the
// raw reply text. When every attempt fails it returns a
// *domain.RequestFailedError wrapping the last cause.
func (r *Requester) Evaluate(ctx context.Context, tender, proposal, supplier string) (string, error) {
	prompt, err := RenderPrompt(r.tmpl, tender, proposal)
	if err != nil {
		return "", fmt.Errorf("supplier %q: %w", supplier, err)
	}

	return llm.CompleteWithRetry(ctx, r.client, r.policy, prompt, r.requestOptions(), func(e llm.RetryEvent) {
		r.observer.RequestRetried(ctx, supplier, e.Attempt, e.Delay, e.Err)
	})
}

// Model returns the model the requester's client is configured with.
func (r *Requester) Model() string { return r.client.GetModel() }

// requestOptions returns a copy so clients cannot mutate shared options.
func (r *Requester) requestOptions() map[string]any {
	out := make(map[string]any, len(r.options))
	for k, v := range r.options {
		out[k] = v
	}
	return out
}
