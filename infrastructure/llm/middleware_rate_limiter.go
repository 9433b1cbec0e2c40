package llm

import (
	"context"

	"golang.org/x/time/rate"
)

// rateLimitedLLM holds back requests until the shared token bucket allows
// them. One bucket serves every caller of a client, so parallel supplier
// analyses together stay under the configured pace.
type rateLimitedLLM struct {
	next    CoreLLM
	limiter *rate.Limiter
}

// RateLimitMiddleware paces requests to limit per second with bursts of up
// to burst. A burst below one is raised to one so a finite limit can never
// block forever. rate.Inf disables pacing.
func RateLimitMiddleware(limit rate.Limit, burst int) Middleware {
	if limit == rate.Inf {
		return func(next CoreLLM) CoreLLM { return next }
	}
	limiter := rate.NewLimiter(limit, max(burst, 1))
	return func(next CoreLLM) CoreLLM {
		return &rateLimitedLLM{next: next, limiter: limiter}
	}
}

// DoRequest waits for a token and then forwards the request. A wait that
// cannot finish before ctx ends fails as a rate_limit ProviderError which
// still matches the context error.
func (r *rateLimitedLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		cause := ctx.Err()
		if cause == nil {
			cause = err
		}
		return "", 0, 0, NewProviderError("llm", ErrorTypeRateLimit, 0, "rate limit wait: "+err.Error(), cause)
	}
	return r.next.DoRequest(ctx, prompt, opts)
}

func (r *rateLimitedLLM) GetModel() string { return r.next.GetModel() }

func (r *rateLimitedLLM) SetModel(m string) { r.next.SetModel(m) }
