package ctrl

import (
	"context"
	"sync"
)

// An Execution is the pending result of a command call. Calls that coalesce
// through debounce, throttle, or the skip-if-executing policy share one
// Execution, so every caller of a burst observes the same eventual value or
// fault.
type Execution[R any] struct {
	mu      sync.Mutex
	done    chan struct{}
	value   R
	err     error
	settled bool
}

func newExecution[R any]() *Execution[R] {
	return &Execution[R]{
		done: make(chan struct{}),
	}
}

// resolve stores the outcome. The first settle wins; outcomes of overlapping
// invocations that lose the race are dropped.
func (e *Execution[R]) resolve(value R, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.settled {
		return
	}
	e.value = value
	e.err = err
	e.settled = true
	close(e.done)
}

// Done returns a channel closed when the execution settles.
func (e *Execution[R]) Done() <-chan struct{} {
	return e.done
}

// Settled returns true once the execution carries a value or a fault.
func (e *Execution[R]) Settled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settled
}

// Result blocks until the execution settles and returns its value or fault.
func (e *Execution[R]) Result() (R, error) {
	<-e.done

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.value, e.err
}

// Wait blocks until the execution settles or the context is done, whichever
// comes first.
func (e *Execution[R]) Wait(ctx context.Context) (R, error) {
	select {
	case <-e.done:
		return e.Result()
	case <-ctx.Done():
		var zero R
		return zero, ctx.Err()
	}
}
