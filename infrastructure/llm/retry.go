package llm

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/ahrav/go-tender/internal/domain"
	"github.com/ahrav/go-tender/internal/ports"
)

// Default retry configuration constants.
const (
	// DefaultMaxAttempts is the total number of attempts, including the first.
	DefaultMaxAttempts = 3
	// DefaultBaseDelay is the wait after the first failed attempt. It doubles
	// after each subsequent failure.
	DefaultBaseDelay = 2 * time.Second
)

// RetryPolicy controls how a request is repeated after failures. After the
// failed attempt with 0-based index i the policy waits BaseDelay * 2^i.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts. Values below 1 mean 1.
	MaxAttempts int

	// BaseDelay is the wait after the first failure.
	BaseDelay time.Duration

	// MaxDelay caps a single wait. Zero means uncapped.
	MaxDelay time.Duration

	// JitterPercent spreads each wait by up to ± this fraction. It should be
	// between 0.0 and 1.0; zero disables jitter.
	JitterPercent float64

	// Retryable decides whether a failure is worth repeating. A nil function
	// retries every failure.
	Retryable func(error) bool
}

// DefaultRetryPolicy returns three attempts with 2s and 4s waits, no jitter,
// retrying every failure.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
	}
}

// RetryEvent describes a failed attempt that is about to be retried.
type RetryEvent struct {
	// Attempt is the 1-based number of the attempt that failed.
	Attempt int
	// Delay is how long the policy will wait before the next attempt.
	Delay time.Duration
	// Err is the failure of that attempt.
	Err error
}

// Do runs op until it succeeds or the policy gives up. When it gives up it
// returns a *domain.RequestFailedError wrapping the last failure. If ctx is
// cancelled while waiting between attempts, Do returns immediately with the
// context error wrapped the same way. notify, when non-nil, is called before
// each wait.
func (p RetryPolicy) Do(ctx context.Context, op func(context.Context) error, notify func(RetryEvent)) error {
	attempts := max(p.MaxAttempts, 1)

	var lastErr error
	for i := 0; i < attempts; i++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if i == attempts-1 || ctx.Err() != nil || !p.shouldRetry(err) {
			return &domain.RequestFailedError{Attempts: i + 1, Err: lastErr}
		}

		delay := p.Delay(i)
		if notify != nil {
			notify(RetryEvent{Attempt: i + 1, Delay: delay, Err: err})
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return &domain.RequestFailedError{Attempts: i + 1, Err: ctx.Err()}
		case <-timer.C:
		}
	}

	return &domain.RequestFailedError{Attempts: attempts, Err: lastErr}
}

// Delay returns the wait after the failed attempt with 0-based index attempt.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	attempt = ClampInt(attempt, 0, 30)
	delay := p.BaseDelay * time.Duration(1<<attempt)
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}

	jitter := int64(float64(delay) * p.JitterPercent)
	if jitter > 0 {
		//nolint:gosec // G404: math/rand is acceptable for retry jitter timing.
		delay += time.Duration(rand.Int64N(2*jitter) - jitter)
	}

	return max(delay, 0)
}

func (p RetryPolicy) shouldRetry(err error) bool {
	if p.Retryable == nil {
		return true
	}
	return p.Retryable(err)
}

// CompleteWithRetry calls client.Complete under policy and returns the first
// successful reply.
func CompleteWithRetry(
	ctx context.Context,
	client ports.LLMClient,
	policy RetryPolicy,
	prompt string,
	options map[string]any,
	notify func(RetryEvent),
) (string, error) {
	var reply string
	err := policy.Do(ctx, func(ctx context.Context) error {
		var err error
		reply, err = client.Complete(ctx, prompt, options)
		return err
	}, notify)
	return reply, err
}
