/**
 * Copyright (c) 2018, The Artemis Authors.
 *
 * Permission to use, copy, modify, and/or distribute this software for any
 * purpose with or without fee is hereby granted, provided that the above
 * copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES
 * WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF
 * MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR
 * ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES
 * WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN
 * ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF
 * OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

// Package promise implements the bridge between a future driven by a
// scheduler and consumers elsewhere — possibly other futures polling it,
// possibly a plain goroutine blocking on its result. Promise[T] is the
// settlement cell; Task[T] pairs one with a cancellable scheduler handle.
package promise

import (
	"errors"
	"sync"

	"github.com/coopkit/coop/atomicwaker"
	"github.com/coopkit/coop/internal/atomics"
	"github.com/coopkit/coop/poll"
)

// ErrCancelled is the error a Task[T]'s Promise settles with when Cancel is
// called before its inner future completes, matching the vocabulary of
// concurrent/executor.go's ErrTaskCancelled.
var ErrCancelled = errors.New("promise: task was cancelled")

const (
	stateIdle      uint32 = 0 // not yet polled by the driver
	statePolling   uint32 = 1 // driver is currently inside the inner future's Poll
	stateResolving uint32 = 2 // inner future just returned Ready; storing the result
	stateResolved  uint32 = 3 // result (or error, or cancellation) is final and visible
)

// Promise is a single-assignment, poll-driven settlement cell: it wraps a
// poll.Future[T], drives it when polled by a scheduler (via PollBoxed), and
// lets other goroutines observe the final value either by polling it as a
// poll.Future[T] (one consumer at a time, see Poll) or by blocking on Wait
// (any number of them).
// Grounded on workerPoolTask's cross-thread result handoff, reimplemented
// as a lock-free 4-state word instead of a sync.Mutex/sync.Cond pair.
type Promise[T any] struct {
	state  atomics.Bitset32
	waker  atomicwaker.AtomicWaker
	doneCh chan struct{}
	once   sync.Once

	inner poll.Future[T]

	value T
	err   error
}

// New wraps inner in a Promise. The returned Promise is itself a
// poll.BoxedFuture, ready to be handed to a scheduler (see Spawn).
func New[T any](inner poll.Future[T]) *Promise[T] {
	return &Promise[T]{inner: inner, doneCh: make(chan struct{})}
}

// settle attempts to move the promise from statePolling to resolved with
// the given outcome. If a concurrent CancelBoxed has already claimed the
// transition, the caller's outcome is silently discarded in favor of the
// cancellation — first settlement wins.
func (p *Promise[T]) settle(value T, err error) {
	if !p.state.CompareAndSwap(statePolling, stateResolving) {
		return
	}
	p.value = value
	p.err = err
	p.state.Store(stateResolved)
	p.once.Do(func() { close(p.doneCh) })
	p.waker.Signal()
}

// PollBoxed implements poll.BoxedFuture so a scheduler can drive this
// promise's inner future directly. Returns done=true once resolved.
func (p *Promise[T]) PollBoxed(ctx *poll.Context) (bool, error) {
	if p.state.Load() == stateResolved {
		return true, p.err
	}
	p.state.Store(statePolling)
	result, err := p.inner.Poll(ctx)
	if p.state.Load() == stateResolved {
		// A concurrent Cancel settled us while Poll was running; the inner
		// future's (possibly late) result is discarded.
		return true, p.err
	}
	if err != nil {
		p.settle(result.Value(), err)
		return true, err
	}
	if !result.IsReady() {
		p.state.Store(stateIdle)
		return false, nil
	}
	p.settle(result.Value(), nil)
	return true, nil
}

// CancelBoxed implements scheduler.Cancellable: it settles the promise
// with ErrCancelled, discarding whatever the inner future would have
// produced.
func (p *Promise[T]) CancelBoxed() {
	for {
		s := p.state.Load()
		if s == stateResolved {
			return
		}
		if p.state.CompareAndSwap(s, stateResolving) {
			break
		}
	}
	var zero T
	p.value = zero
	p.err = ErrCancelled
	p.state.Store(stateResolved)
	p.once.Do(func() { close(p.doneCh) })
	p.waker.Signal()
}

// Poll implements poll.Future[T]: a consumer in any goroutine may poll a
// Promise to observe its settlement. The promise keeps a single consumer
// waker, so only the waker registered by the most recent Poll is woken on
// settlement, and Polls from two goroutines at once make the waker's
// Register panic with "concurrent Register calls". Per the poll
// contract, polling again after a Ready result is undefined; this
// implementation happens to tolerate it (it keeps returning the same
// Ready value) but callers must not rely on that.
func (p *Promise[T]) Poll(ctx *poll.Context) (poll.Poll[T], error) {
	if p.state.Load() == stateResolved {
		return poll.Ready(p.value), p.err
	}
	p.waker.Register(ctx.Waker())
	if p.state.Load() == stateResolved {
		return poll.Ready(p.value), p.err
	}
	return poll.Pending[T](), nil
}

// Wait blocks the calling goroutine until the promise settles, without
// needing any scheduler or waker — the cross-thread escape hatch
// workerPoolTask.AwaitResult played in the teacher, expressed here as a
// close-once channel instead of a sync.Cond.
func (p *Promise[T]) Wait() (T, error) {
	<-p.doneCh
	return p.value, p.err
}

// Done returns a channel that is closed once the promise has settled, for
// use in a select alongside other channels.
func (p *Promise[T]) Done() <-chan struct{} {
	return p.doneCh
}
