package analysis

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-tender/infrastructure/llm"
	"github.com/ahrav/go-tender/internal/domain"
	"github.com/ahrav/go-tender/internal/ports"
	"github.com/ahrav/go-tender/internal/testutils"
)

func fastRetry() llm.RetryPolicy {
	return llm.RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond}
}

func TestNewRequester(t *testing.T) {
	_, err := NewRequester(nil, RequesterConfig{})
	assert.ErrorContains(t, err, "LLM client cannot be nil")

	r, err := NewRequester(testutils.NewMockLLMClient("gpt-4-turbo-preview"), RequesterConfig{})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4-turbo-preview", r.Model())
	assert.Equal(t, llm.DefaultRetryPolicy(), r.policy)
}

func TestRequester_EvaluateSendsRequestOptions(t *testing.T) {
	client := testutils.NewMockLLMClient("m").SetDefault(`{"overall_summary":"ok"}`, nil)
	r, err := NewRequester(client, RequesterConfig{Retry: fastRetry()})
	require.NoError(t, err)

	reply, err := r.Evaluate(context.Background(), "TENDER", "PROPOSAL", "Acme")
	require.NoError(t, err)
	assert.Equal(t, `{"overall_summary":"ok"}`, reply)

	calls := client.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Prompt, "TENDER")
	assert.Contains(t, calls[0].Prompt, "PROPOSAL")
	assert.Equal(t, map[string]any{
		"system":      SystemPrompt,
		"temperature": 0.1,
		"max_tokens":  2000,
		"json_mode":   true,
	}, calls[0].Options)
}

func TestRequester_EvaluateCustomOptions(t *testing.T) {
	client := testutils.NewMockLLMClient("m").SetDefault("{}", nil)
	temp := 0.0
	r, err := NewRequester(client, RequesterConfig{
		Temperature:     &temp,
		MaxTokens:       1500,
		DisableJSONMode: true,
	})
	require.NoError(t, err)

	_, err = r.Evaluate(context.Background(), "t", "p", "Acme")
	require.NoError(t, err)

	opts := client.Calls()[0].Options
	assert.Equal(t, 0.0, opts["temperature"])
	assert.Equal(t, 1500, opts["max_tokens"])
	assert.Equal(t, false, opts["json_mode"])
}

func TestRequester_EvaluateRetries(t *testing.T) {
	errUnavailable := errors.New("503 service unavailable")

	t.Run("recovers on third attempt", func(t *testing.T) {
		client := testutils.NewMockLLMClient("m").
			Script(testutils.MockStep{Err: errUnavailable}, testutils.MockStep{Err: errUnavailable}).
			SetDefault("{}", nil)
		observer := &testutils.RecordingObserver{}

		r, err := NewRequester(client, RequesterConfig{Retry: fastRetry(), Observer: observer})
		require.NoError(t, err)

		reply, err := r.Evaluate(context.Background(), "t", "p", "Acme")
		require.NoError(t, err)
		assert.Equal(t, "{}", reply)
		assert.Equal(t, 3, client.CallCount())

		require.Len(t, observer.Retries, 2)
		assert.Equal(t, testutils.RetryRecord{Supplier: "Acme", Attempt: 1, Delay: time.Millisecond, Err: errUnavailable}, observer.Retries[0])
		assert.Equal(t, 2*time.Millisecond, observer.Retries[1].Delay)
	})

	t.Run("gives up after three attempts", func(t *testing.T) {
		client := testutils.NewMockLLMClient("m").SetDefault("", errUnavailable)
		r, err := NewRequester(client, RequesterConfig{Retry: fastRetry()})
		require.NoError(t, err)

		_, err = r.Evaluate(context.Background(), "t", "p", "Acme")
		require.Error(t, err)
		assert.Equal(t, 3, client.CallCount())

		var rf *domain.RequestFailedError
		require.ErrorAs(t, err, &rf)
		assert.Equal(t, 3, rf.Attempts)
		assert.ErrorIs(t, err, errUnavailable)
	})

	t.Run("cancellation during backoff", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		client := testutils.NewMockLLMClient("m").SetDefault("", errUnavailable)
		r, err := NewRequester(client, RequesterConfig{
			Retry:    llm.RetryPolicy{MaxAttempts: 3, BaseDelay: time.Hour},
			Observer: cancelOnRetry{cancel: cancel},
		})
		require.NoError(t, err)

		_, err = r.Evaluate(ctx, "t", "p", "Acme")
		require.ErrorIs(t, err, context.Canceled)
		assert.ErrorIs(t, err, domain.ErrRequestFailed)
		assert.Equal(t, 1, client.CallCount())
	})
}

func TestRequester_TemplateFallback(t *testing.T) {
	t.Run("unreadable path falls back", func(t *testing.T) {
		observer := &testutils.RecordingObserver{}
		path := filepath.Join(t.TempDir(), "missing.tmpl")
		client := testutils.NewMockLLMClient("m").SetDefault("{}", nil)

		r, err := NewRequester(client, RequesterConfig{TemplatePath: path, Observer: observer})
		require.NoError(t, err)

		assert.Equal(t, []string{"template fallback " + path}, observer.Events())
		require.Len(t, observer.Fallbacks, 1)

		_, err = r.Evaluate(context.Background(), "t", "p", "Acme")
		require.NoError(t, err)
		assert.Contains(t, client.Calls()[0].Prompt, "Technical Compliance")
	})

	t.Run("custom template used", func(t *testing.T) {
		observer := &testutils.RecordingObserver{}
		path := writeTemplate(t, "CUSTOM {{.TenderRequirements}} | {{.SupplierProposal}}")
		client := testutils.NewMockLLMClient("m").SetDefault("{}", nil)

		r, err := NewRequester(client, RequesterConfig{TemplatePath: path, Observer: observer})
		require.NoError(t, err)
		assert.Empty(t, observer.Events())

		_, err = r.Evaluate(context.Background(), "t", "p", "Acme")
		require.NoError(t, err)
		assert.Equal(t, "CUSTOM t | p", client.Calls()[0].Prompt)
	})

	t.Run("empty path is not a fallback", func(t *testing.T) {
		observer := &testutils.RecordingObserver{}
		_, err := NewRequester(testutils.NewMockLLMClient("m"), RequesterConfig{Observer: observer})
		require.NoError(t, err)
		assert.Empty(t, observer.Events())
	})
}

// cancelOnRetry cancels the evaluation as soon as the first retry is
// scheduled.
type cancelOnRetry struct {
	ports.NopObserver
	cancel context.CancelFunc
}

func (c cancelOnRetry) RequestRetried(context.Context, string, int, time.Duration, error) {
	c.cancel()
}
