package agent

import (
	"context"
	"errors"
	"time"

	"github.com/hay-kot/ralph/internal/core/cancel"
)

// ErrTimeout is returned when a bounded agent call does not finish in time.
var ErrTimeout = errors.New("agent call timed out")

type outcome struct {
	res Result
	err error
}

// RunBounded runs a single agent call against a timer. Whichever finishes
// first wins; when the timer wins the call's context is cancelled so the
// subprocess is killed, and ErrTimeout is returned.
func RunBounded(ctx context.Context, a Agent, req Request, timeout time.Duration) (Result, error) {
	callCtx, stop := context.WithCancel(ctx)
	defer stop()

	done := make(chan outcome, 1)
	go func() {
		res, err := a.Run(callCtx, req)
		done <- outcome{res: res, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case o := <-done:
		return o.res, o.err
	case <-timer.C:
		stop()
		return Result{}, ErrTimeout
	case <-ctx.Done():
		stop()
		return Result{}, cancel.FromContext(ctx)
	}
}
