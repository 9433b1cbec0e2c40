// Command tender-eval scores supplier proposals against a tender with a
// language model, ranks them, and exports the results.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// Exit codes for different failure modes.
const (
	ExitSuccess  = 0 // Command completed
	ExitRejected = 1 // Input was checked and found invalid
	ExitError    = 2 // Configuration or runtime error
)

// RejectedError reports that a check ran to completion and the input failed
// it, as opposed to the command itself failing.
type RejectedError struct {
	Message string
}

func (e *RejectedError) Error() string { return e.Message }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := execute(ctx, newApp())
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)

		var rejected *RejectedError
		if errors.As(err, &rejected) {
			os.Exit(ExitRejected)
		}
		os.Exit(ExitError)
	}
}

func execute(ctx context.Context, a *app) error {
	return newRootCommand(a).ExecuteContext(ctx)
}
