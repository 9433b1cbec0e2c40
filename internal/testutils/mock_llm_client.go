package testutils

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/ahrav/go-tender/internal/ports"
)

// ErrScriptExhausted is returned when a scripted client runs out of steps and
// has no default reply.
var ErrScriptExhausted = errors.New("mock LLM script exhausted")

// MockLLMClient implements ports.LLMClient with deterministic replies for
// tests. Replies come from, in order: the next scripted step, the first
// pattern that the prompt contains, and finally the default reply.
type MockLLMClient struct {
	mu sync.Mutex

	model    string
	script   []MockStep
	patterns []MockResponse
	fallback *MockStep

	calls []MockCall
}

// MockStep is one scripted reply or failure.
type MockStep struct {
	Response string
	Err      error
}

// MockResponse maps a prompt substring to a reply.
type MockResponse struct {
	// Pattern is matched case-sensitively against the prompt.
	Pattern  string
	Response string
	Err      error
}

// MockCall records one Complete invocation.
type MockCall struct {
	Prompt  string
	Options map[string]any
}

// NewMockLLMClient creates a client reporting model and holding no replies.
func NewMockLLMClient(model string) *MockLLMClient {
	return &MockLLMClient{model: model}
}

// Script appends steps consumed one per call, ahead of any pattern.
func (m *MockLLMClient) Script(steps ...MockStep) *MockLLMClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, steps...)
	return m
}

// AddResponse registers a pattern reply. Patterns are tried in the order
// they were added.
func (m *MockLLMClient) AddResponse(r MockResponse) *MockLLMClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patterns = append(m.patterns, r)
	return m
}

// SetDefault sets the reply used when nothing else matches.
func (m *MockLLMClient) SetDefault(response string, err error) *MockLLMClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = &MockStep{Response: response, Err: err}
	return m
}

// Complete implements ports.LLMClient.
func (m *MockLLMClient) Complete(ctx context.Context, prompt string, options map[string]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	opts := make(map[string]any, len(options))
	for k, v := range options {
		opts[k] = v
	}
	m.calls = append(m.calls, MockCall{Prompt: prompt, Options: opts})

	if len(m.script) > 0 {
		step := m.script[0]
		m.script = m.script[1:]
		return step.Response, step.Err
	}

	for _, p := range m.patterns {
		if strings.Contains(prompt, p.Pattern) {
			return p.Response, p.Err
		}
	}

	if m.fallback != nil {
		return m.fallback.Response, m.fallback.Err
	}
	return "", ErrScriptExhausted
}

// EstimateTokens implements ports.LLMClient at four characters per token.
func (m *MockLLMClient) EstimateTokens(text string) (int, error) {
	return (len(text) + 3) / 4, nil
}

// GetModel implements ports.LLMClient.
func (m *MockLLMClient) GetModel() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.model
}

// Calls returns a copy of the recorded calls.
func (m *MockLLMClient) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall(nil), m.calls...)
}

// CallCount returns the number of Complete calls.
func (m *MockLLMClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

var _ ports.LLMClient = (*MockLLMClient)(nil)
