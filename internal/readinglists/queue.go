package readinglists

import (
	"context"
	"errors"
	"sync"
)

// ErrQueueClosed is reported by handles of operations added after Shutdown.
var ErrQueueClosed = errors.New("operation queue is shut down")

// Operation is a unit of work run by the Queue.
type Operation func(ctx context.Context) error

// Handle tracks one queued operation.
type Handle struct {
	done chan struct{}
	err  error
}

func newHandle() *Handle {
	return &Handle{done: make(chan struct{})}
}

// Done is closed when the operation has finished or was skipped.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Err returns the operation result. It is only valid after Done is closed.
func (h *Handle) Err() error {
	select {
	case <-h.done:
		return h.err
	default:
		return nil
	}
}

// Wait blocks until the operation finishes or ctx is done.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Handle) finish(err error) {
	h.err = err
	close(h.done)
}

type queuedOperation struct {
	op     Operation
	ctx    context.Context
	cancel context.CancelFunc
	handle *Handle

	// barrier units are never cancelled or skipped.
	barrier bool
}

// Queue runs operations one at a time in the order they were added.
type Queue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending []*queuedOperation
	running *queuedOperation
	closed  bool
	stopped chan struct{}
}

// NewQueue creates a queue and starts its worker.
func NewQueue() *Queue {
	q := &Queue{stopped: make(chan struct{})}
	q.cond = sync.NewCond(&q.mu)
	go q.run()
	return q
}

// Add queues op and returns its handle.
func (q *Queue) Add(op Operation) *Handle {
	return q.add(op, false)
}

// AddFunc queues a completion block. It runs after every operation added
// before it, even cancelled ones, and is itself immune to CancelAll.
func (q *Queue) AddFunc(fn func()) *Handle {
	return q.add(func(context.Context) error {
		fn()
		return nil
	}, true)
}

func (q *Queue) add(op Operation, barrier bool) *Handle {
	h := newHandle()
	ctx, cancel := context.WithCancel(context.Background())

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		cancel()
		h.finish(ErrQueueClosed)
		return h
	}
	q.pending = append(q.pending, &queuedOperation{op: op, ctx: ctx, cancel: cancel, handle: h, barrier: barrier})
	q.cond.Signal()
	return h
}

// Len counts queued and running operations.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.pending)
	if q.running != nil {
		n++
	}
	return n
}

// CancelAll cancels the context of every queued and running operation.
// Cancelled operations still leave the queue in order; queued ones are
// skipped and report context.Canceled. Completion blocks are left alone.
func (q *Queue) CancelAll() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.cancelLocked()
}

func (q *Queue) cancelLocked() {
	for _, p := range q.pending {
		if !p.barrier {
			p.cancel()
		}
	}
	if q.running != nil && !q.running.barrier {
		q.running.cancel()
	}
}

// Shutdown cancels all operations and waits for the worker to exit.
func (q *Queue) Shutdown() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		q.cancelLocked()
		q.cond.Broadcast()
	}
	q.mu.Unlock()
	<-q.stopped
}

func (q *Queue) run() {
	defer close(q.stopped)
	for {
		q.mu.Lock()
		for len(q.pending) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.pending) == 0 {
			q.mu.Unlock()
			return
		}
		next := q.pending[0]
		q.pending = q.pending[1:]
		q.running = next
		q.mu.Unlock()

		var err error
		if next.barrier {
			err = next.op(context.Background())
		} else if err = next.ctx.Err(); err == nil {
			err = next.op(next.ctx)
		}
		next.cancel()

		q.mu.Lock()
		q.running = nil
		q.mu.Unlock()
		next.handle.finish(err)
	}
}
