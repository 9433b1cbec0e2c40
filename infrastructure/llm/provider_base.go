package llm

import "sync"

// Request defaults for evaluation calls. Low temperature keeps scoring
// repeatable; 2000 tokens leaves room for five justifications with evidence.
const (
	DefaultMaxTokens   = 2000
	DefaultTemperature = 0.1
)

// BaseProvider provides common, thread-safe functionality for all LLM providers,
// primarily for managing the model name.
type BaseProvider struct {
	mu    sync.RWMutex
	model string
}

// GetModel returns the name of the model currently configured for the provider.
// It is safe for concurrent use.
func (b *BaseProvider) GetModel() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.model
}

// SetModel updates the model name for the provider.
// It is safe for concurrent use.
func (b *BaseProvider) SetModel(model string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.model = model
}

// RequestOptions represents the standardized parameters of an LLM request.
type RequestOptions struct {
	// MaxTokens specifies the maximum number of tokens to generate.
	MaxTokens int
	// Model is the identifier of the language model to use for the request.
	Model string
	// Temperature controls the randomness of the output.
	// A nil value indicates that the provider's default should be used.
	Temperature *float64
	// TopP is nucleus sampling; nil means provider default.
	TopP *float64
	// System is the system instruction sent ahead of the user prompt.
	System string
	// JSONMode asks the provider to constrain its reply to a JSON object
	// where the API supports it.
	JSONMode bool
	// Extra holds any provider-specific options that are not part of the standardized set.
	Extra map[string]any
}

// ParseRequestOptions extracts and validates LLM request parameters from a map,
// using defaults for any missing or invalid entries.
// Any unrecognized options are collected into the Extra field.
func ParseRequestOptions(opts map[string]any, defaultModel string) RequestOptions {
	options := RequestOptions{
		MaxTokens: ExtractOptionalInt(opts, "max_tokens", DefaultMaxTokens, IsPositiveInt),
		Model:     ExtractOptionalString(opts, "model", defaultModel, IsNonEmptyString),
		System:    ExtractOptionalString(opts, "system", "", nil),
		JSONMode:  ExtractOptionalBool(opts, "json_mode", false),
		Extra:     make(map[string]any),
	}

	if temp := ExtractOptionalFloat64(opts, "temperature", -1, IsValidTemperature); temp != -1 {
		options.Temperature = &temp
	}

	if topP := ExtractOptionalFloat64(opts, "top_p", -1, IsValidTopP); topP != -1 {
		options.TopP = &topP
	}

	for k, v := range opts {
		switch k {
		case "max_tokens", "model", "system", "temperature", "top_p", "json_mode":
		default:
			options.Extra[k] = v
		}
	}

	return options
}

// tokenCount prefers the count reported by the API and falls back to an
// estimate from the text.
func tokenCount(reported int64, text string) int {
	if reported > 0 {
		return int(reported)
	}
	return EstimateTokens(text)
}
