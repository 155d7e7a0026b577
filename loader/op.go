package loader

import (
	"context"
	"sync"
)

type opState uint8

const (
	opNotStarted opState = iota
	opInProgress
	opDone
)

// op memoizes one lifecycle operation. The first caller starts the work on
// its own goroutine, detached from the caller's cancellation; every caller
// then waits for the shared result or for its own context to end.
// A canceled wait never changes the outcome.
type op[T any] struct {
	done  chan struct{}
	val   T
	err   error
	state opState
	mu    sync.Mutex
}

func (o *op[T]) do(ctx context.Context, work func(context.Context) (T, error)) (T, error) {
	o.mu.Lock()
	switch o.state {
	case opDone:
		val, err := o.val, o.err
		o.mu.Unlock()
		return val, err
	case opNotStarted:
		o.state = opInProgress
		o.done = make(chan struct{})
		go o.run(context.WithoutCancel(ctx), work)
	}
	done := o.done
	o.mu.Unlock()

	select {
	case <-done:
		return o.val, o.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (o *op[T]) run(ctx context.Context, work func(context.Context) (T, error)) {
	val, err := work(ctx)

	o.mu.Lock()
	o.val, o.err = val, err
	o.state = opDone
	o.mu.Unlock()
	close(o.done)
}

