package llm

import (
	"context"
	"fmt"
	"time"
)

// DefaultRequestTimeout is the ceiling for a single evaluation request.
const DefaultRequestTimeout = 60 * time.Second

// timeoutLLM bounds each request with its own deadline.
type timeoutLLM struct {
	next    CoreLLM
	timeout time.Duration
}

// TimeoutMiddleware creates middleware that enforces a per-request timeout.
// Because it sits inside the retry loop, every attempt gets the full budget.
func TimeoutMiddleware(timeout time.Duration) Middleware {
	return func(next CoreLLM) CoreLLM {
		return &timeoutLLM{
			next:    next,
			timeout: timeout,
		}
	}
}

// DoRequest executes the request with a timeout context. When the
// middleware's own deadline fires, rather than the caller's, the error is
// reported as a timeout ProviderError that still matches
// context.DeadlineExceeded.
func (t *timeoutLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	reqCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	response, tokensIn, tokensOut, err := t.next.DoRequest(reqCtx, prompt, opts)
	if err != nil && ctx.Err() == nil && reqCtx.Err() == context.DeadlineExceeded {
		if ClassifyError(err) != ErrorTypeTimeout {
			err = NewProviderError("llm", ErrorTypeTimeout, 0,
				fmt.Sprintf("request exceeded %s", t.timeout), err)
		}
	}
	return response, tokensIn, tokensOut, err
}

// GetModel returns the model name from the wrapped implementation.
func (t *timeoutLLM) GetModel() string { return t.next.GetModel() }

// SetModel updates the model name in the wrapped implementation.
func (t *timeoutLLM) SetModel(m string) { t.next.SetModel(m) }
