package queue

import (
	"context"
	"sync"
)

// Priority orders pending tasks. Lower values start first; within one
// priority class tasks start in FIFO submission order.
type Priority int

const (
	PriorityHigh Priority = iota
	PriorityNormal
	PriorityLow // prefetch work; runs only when nothing higher is pending

	numPriorities
)

// Operation is a unit of asynchronous work submitted to the queue. It
// receives the context passed to Add and returns a result or an error.
// The queue never inspects or transforms the result.
type Operation func(ctx context.Context) (any, error)

// Handle is the externally observable side of a submitted task. It
// settles exactly once, after all retries are exhausted or the operation
// succeeds.
type Handle struct {
	done   chan struct{}
	once   sync.Once
	result any
	err    error
}

func newHandle() *Handle {
	return &Handle{done: make(chan struct{})}
}

func (h *Handle) settle(result any, err error) {
	h.once.Do(func() {
		h.result = result
		h.err = err
		close(h.done)
	})
}

// Done returns a channel closed when the task settles.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Wait blocks until the task settles or ctx is done. The task keeps
// running even if Wait returns early on ctx cancellation.
func (h *Handle) Wait(ctx context.Context) (any, error) {
	select {
	case <-h.done:
		return h.result, h.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type task struct {
	ctx         context.Context
	op          Operation
	handle      *Handle
	priority    Priority
	key         string
	retriesLeft int
	attempt     int // completed attempts
}
