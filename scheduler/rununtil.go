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

package scheduler

import "github.com/coopkit/coop/poll"

// oneShot adapts a poll.Future[T] into a poll.BoxedFuture that records its
// outcome locally, for RunUntil's private use. It is deliberately simpler
// than promise.Promise[T]: RunUntil only ever has one consumer (the calling
// goroutine), so it needs no cross-thread waker bookkeeping beyond the
// scheduler's own park channel.
type oneShot[T any] struct {
	inner  poll.Future[T]
	result T
	err    error
	done   bool
}

func (o *oneShot[T]) PollBoxed(ctx *poll.Context) (bool, error) {
	p, err := o.inner.Poll(ctx)
	if err != nil {
		o.err = err
		o.done = true
		return true, err
	}
	if !p.IsReady() {
		return false, nil
	}
	o.result = p.Value()
	o.done = true
	return true, nil
}

// RunUntil spawns f on s and drives s's loop (parking the calling goroutine
// between ready-queue drains, exactly as Run does) until f completes,
// returning its value or error. It is a free function rather than a
// LocalScheduler method since Go methods cannot introduce their own type
// parameters. (executor.RunUntil is a separate function: it spawns a
// promise.Promise and waits on it, for an executor driven elsewhere.)
func RunUntil[T any](s *LocalScheduler, f poll.Future[T]) (T, error) {
	os := &oneShot[T]{inner: f}
	_, err := s.TrySpawnBoxed(os)
	if err != nil {
		var zero T
		return zero, err
	}
	for !os.done {
		if !s.tick() {
			if s.closed.Load() != 0 && !os.done {
				var zero T
				return zero, ErrSchedulerClosed
			}
			s.park()
		}
	}
	return os.result, os.err
}
