package snapshot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

var (
	// ErrTimeout is returned by Async.Wait when the deadline elapses first.
	ErrTimeout = errors.New("timed out waiting for snapshot")

	// ErrNoSnapshot is returned when the producer resolved without an
	// artifact, or the wait was interrupted.
	ErrNoSnapshot = errors.New("could not produce snapshot")
)

// Async is a single-shot future for an artifact.
//
// It resolves at most once, with an artifact, an error, or nothing
// (Abandon). Later signals are ignored and counted as violations; they are
// never double-counted as results.
//
// Waiting does not cancel the producer. When Wait times out the producer
// keeps running and its eventual resolution is discarded.
type Async[F any] struct {
	once       sync.Once
	done       chan struct{}
	value      F
	err        error
	ok         bool
	violations atomic.Int64
}

func newAsync[F any]() *Async[F] {
	return &Async[F]{done: make(chan struct{})}
}

// NewAsync starts run on its own goroutine and returns the future it
// resolves. A panic inside run rejects the future.
func NewAsync[F any](run func(a *Async[F])) *Async[F] {
	a := newAsync[F]()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				a.Reject(fmt.Errorf("snapshot producer panicked: %v", r))
			}
		}()
		run(a)
	}()
	return a
}

// Resolved returns a future already resolved with f.
func Resolved[F any](f F) *Async[F] {
	a := newAsync[F]()
	a.Resolve(f)
	return a
}

// Rejected returns a future already resolved with err.
func Rejected[F any](err error) *Async[F] {
	a := newAsync[F]()
	a.Reject(err)
	return a
}

// Sync lifts a synchronous renderer into the asynchronous Snapshot shape.
func Sync[V, F any](render func(V) (F, error)) func(V) *Async[F] {
	return func(v V) *Async[F] {
		f, err := render(v)
		if err != nil {
			return Rejected[F](err)
		}
		return Resolved(f)
	}
}

// Resolve fulfils the future with an artifact.
// Returns false if the future was already resolved.
func (a *Async[F]) Resolve(f F) bool {
	return a.settle(func() {
		a.value = f
		a.ok = true
	})
}

// Reject fulfils the future with a production error.
// Returns false if the future was already resolved.
func (a *Async[F]) Reject(err error) bool {
	return a.settle(func() {
		a.err = err
	})
}

// Abandon fulfils the future without an artifact.
// Returns false if the future was already resolved.
func (a *Async[F]) Abandon() bool {
	return a.settle(func() {})
}

// Violations reports how many signals arrived after the first resolution.
func (a *Async[F]) Violations() int64 {
	return a.violations.Load()
}

func (a *Async[F]) settle(set func()) bool {
	first := false
	a.once.Do(func() {
		set()
		first = true
		close(a.done)
	})
	if !first {
		a.violations.Add(1)
	}
	return first
}

// Wait blocks until the future resolves, timeout elapses, or ctx is done.
//
// Errors:
//   - ErrTimeout: the deadline elapsed first
//   - ErrNoSnapshot: resolved without an artifact, or ctx was cancelled
//   - the rejection error, verbatim
func (a *Async[F]) Wait(ctx context.Context, timeout time.Duration) (F, error) {
	var zero F

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-a.done:
	case <-timer.C:
		return zero, ErrTimeout
	case <-ctx.Done():
		return zero, ErrNoSnapshot
	}

	if a.err != nil {
		return zero, a.err
	}
	if !a.ok {
		return zero, ErrNoSnapshot
	}
	return a.value, nil
}
