// Package cancel provides the process-wide cancellation gate consulted by
// every operation that can block on the operator or on a child process.
package cancel

import (
	"context"
	"errors"
	"os"
	"sync"

	"github.com/charmbracelet/huh"
)

// ErrCancelled is returned when the operator aborts. It is not a failure:
// the top-level handler exits 0 when it sees it.
var ErrCancelled = errors.New("cancelled")

// Gate is a one-shot cancellation flag that also owns the handle of the
// in-flight child process so it can be killed when the gate fires.
type Gate struct {
	mu        sync.Mutex
	cancelled bool
	done      chan struct{}
	proc      *os.Process
	cancels   map[uint64]context.CancelCauseFunc
	nextID    uint64
}

// New returns an open gate.
func New() *Gate {
	return &Gate{done: make(chan struct{})}
}

// Cancel fires the gate and kills the tracked process, if any. Calling it
// more than once has no further effect.
func (g *Gate) Cancel() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cancelled {
		return
	}
	g.cancelled = true
	close(g.done)

	for _, c := range g.cancels {
		c(ErrCancelled)
	}
	g.cancels = nil

	if g.proc != nil {
		_ = g.proc.Kill()
		g.proc = nil
	}
}

// Cancelled reports whether the gate has fired.
func (g *Gate) Cancelled() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cancelled
}

// Done returns a channel closed when the gate fires.
func (g *Gate) Done() <-chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.done
}

// Err returns ErrCancelled once the gate has fired, nil before.
func (g *Gate) Err() error {
	if g.Cancelled() {
		return ErrCancelled
	}
	return nil
}

// Context derives a context from parent that is cancelled with cause
// ErrCancelled when the gate fires. The derived context is already done when
// Cancel returns. A context that ends for another reason is forgotten by the
// gate.
func (g *Gate) Context(parent context.Context) context.Context {
	ctx, cancel := context.WithCancelCause(parent)

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cancelled {
		cancel(ErrCancelled)
		return ctx
	}

	if g.cancels == nil {
		g.cancels = make(map[uint64]context.CancelCauseFunc)
	}
	g.nextID++
	id := g.nextID
	g.cancels[id] = cancel

	context.AfterFunc(ctx, func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		delete(g.cancels, id)
	})
	return ctx
}

// pending returns the number of derived contexts still registered.
func (g *Gate) pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.cancels)
}

// Track records p as the in-flight child process. If the gate already fired
// the process is killed immediately.
func (g *Gate) Track(p *os.Process) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cancelled {
		_ = p.Kill()
		return
	}
	g.proc = p
}

// Untrack clears the tracked handle if it is still p. It must be called as
// soon as p exits so a later Cancel never signals a reaped pid.
func (g *Gate) Untrack(p *os.Process) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.proc == p {
		g.proc = nil
	}
}

// Tracked reports whether a child process is currently tracked.
func (g *Gate) Tracked() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.proc != nil
}

// Reset reopens the gate. Only intended for tests.
func (g *Gate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.cancelled = false
	g.done = make(chan struct{})
	g.proc = nil
	g.cancels = nil
}

// IsCancellation reports whether err means the operator aborted, either via
// the gate, an aborted interactive prompt, or a context cancelled by the gate.
func IsCancellation(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrCancelled) || errors.Is(err, huh.ErrUserAborted)
}

// FromContext converts a context cancelled by the gate into ErrCancelled.
// Other context errors are returned unchanged.
func FromContext(ctx context.Context) error {
	if ctx.Err() == nil {
		return nil
	}
	if errors.Is(context.Cause(ctx), ErrCancelled) {
		return ErrCancelled
	}
	return ctx.Err()
}
