package queue

import (
	"context"
	"errors"
	"sync"
)

// ErrAlreadySettled is returned when a Future is resolved or rejected a
// second time.
var ErrAlreadySettled = errors.New("queue: future already settled")

// Future is a single-resolution result handle. Exactly one of Resolve or
// Reject takes effect; later calls return ErrAlreadySettled.
type Future struct {
	mu        sync.Mutex
	done      chan struct{}
	settled   bool
	value     any
	err       error
	followers []*Future
}

func NewFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func (f *Future) Resolve(v any) error {
	return f.settle(v, nil)
}

func (f *Future) Reject(err error) error {
	return f.settle(nil, err)
}

func (f *Future) settle(v any, err error) error {
	f.mu.Lock()
	if f.settled {
		f.mu.Unlock()
		return ErrAlreadySettled
	}
	f.settled = true
	f.value, f.err = v, err
	followers := f.followers
	f.followers = nil
	close(f.done)
	f.mu.Unlock()

	var errs []error
	for _, fl := range followers {
		if e := fl.settle(v, err); e != nil {
			errs = append(errs, e)
		}
	}
	return errors.Join(errs...)
}

// follow returns a new Future that settles with whatever f settles with.
func (f *Future) follow() *Future {
	fl := NewFuture()
	f.mu.Lock()
	if !f.settled {
		f.followers = append(f.followers, fl)
		f.mu.Unlock()
		return fl
	}
	v, err := f.value, f.err
	f.mu.Unlock()
	fl.settle(v, err)
	return fl
}

// Done is closed once the future has settled.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the future settles or ctx is done. Giving up on the
// wait does not cancel the queued operation.
func (f *Future) Wait(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *Future) Settled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settled
}
