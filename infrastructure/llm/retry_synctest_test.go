//go:build goexperiment.synctest

package llm

import (
	"context"
	"errors"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRetryPolicy_DefaultBackoffWithSynctest runs the default policy on a
// fake clock so the real 2s and 4s waits take no wall time.
func TestRetryPolicy_DefaultBackoffWithSynctest(t *testing.T) {
	synctest.Run(func() {
		var stamps []time.Time
		start := time.Now()

		err := DefaultRetryPolicy().Do(context.Background(), func(context.Context) error {
			stamps = append(stamps, time.Now())
			return errors.New("unavailable")
		}, nil)

		require.Error(t, err)
		require.Len(t, stamps, 3)
		assert.Equal(t, 2*time.Second, stamps[1].Sub(stamps[0]))
		assert.Equal(t, 4*time.Second, stamps[2].Sub(stamps[1]))
		assert.Equal(t, 6*time.Second, time.Since(start))
	})
}

// TestRetryPolicy_CancelMidBackoffWithSynctest cancels while the policy is
// waiting and checks it returns without sleeping the remaining delay.
func TestRetryPolicy_CancelMidBackoffWithSynctest(t *testing.T) {
	synctest.Run(func() {
		ctx, cancel := context.WithCancel(context.Background())
		start := time.Now()

		go func() {
			time.Sleep(500 * time.Millisecond)
			cancel()
		}()

		err := DefaultRetryPolicy().Do(ctx, func(context.Context) error {
			return errors.New("unavailable")
		}, nil)

		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 500*time.Millisecond, time.Since(start))
	})
}
