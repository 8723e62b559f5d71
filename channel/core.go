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

package channel

import (
	"sync/atomic"

	"github.com/coopkit/coop/atomicwaker"
	"github.com/coopkit/coop/internal/atomics"
	"github.com/coopkit/coop/poll"
)

const (
	openFlag   uint32 = 0
	closedFlag uint32 = 1
)

// core is the shared state every channel flavor (bar the oneshot, which
// needs no buffer) is built from: a buffer policy, independent wakers for
// each side, and a sender reference count so the last Sender.Close call
// closes the channel for multi-sender flavors.
type core[T any] struct {
	buf buffer[T]

	closed   atomics.Bitset32
	senders  atomic.Int64
	recvWake atomicwaker.AtomicWaker
	sendWake atomicwaker.AtomicWaker
}

func newCore[T any](buf buffer[T], senders int64) *core[T] {
	c := &core[T]{buf: buf}
	c.senders.Store(senders)
	return c
}

func (c *core[T]) isClosed() bool { return c.closed.Load() == closedFlag }

func (c *core[T]) closeNow() {
	if c.closed.CompareAndSwap(openFlag, closedFlag) {
		c.recvWake.Signal()
		c.sendWake.Signal()
	}
}

// Sender is the write half of a channel. It implements poll.Sink[T].
type Sender[T any] struct{ c *core[T] }

// TrySend attempts to enqueue v without waiting. Returns ErrClosed if the
// channel is closed, ErrFull if a bounded channel's buffer has no room.
func (s Sender[T]) TrySend(v T) error {
	if s.c.isClosed() {
		return ErrClosed
	}
	if !s.c.buf.tryPush(v) {
		return ErrFull
	}
	s.c.recvWake.Signal()
	return nil
}

// PollReady implements poll.Sink[T]: Ready once there is room to send (or
// the channel is unbounded, which always has room), Pending (after
// registering ctx's waker) if a bounded buffer is currently full.
func (s Sender[T]) PollReady(ctx *poll.Context) (poll.Poll[struct{}], error) {
	if s.c.isClosed() {
		return poll.Ready(struct{}{}), ErrClosed
	}
	cap := s.c.buf.capacity()
	if cap < 0 || s.c.buf.len() < cap {
		return poll.Ready(struct{}{}), nil
	}
	s.c.sendWake.Register(ctx.Waker())
	// Re-check after registering: a receiver may have popped and signalled
	// between our check above and Register taking effect.
	if s.c.buf.len() < cap {
		return poll.Ready(struct{}{}), nil
	}
	return poll.Pending[struct{}](), nil
}

// StartSend enqueues item. Callers must only call it immediately after
// PollReady returned Ready, per the poll.Sink contract.
func (s Sender[T]) StartSend(item T) error {
	return s.TrySend(item)
}

// PollFlush is a no-op: every send in this module is immediately visible
// to the receiver, so there is nothing to flush.
func (s Sender[T]) PollFlush(ctx *poll.Context) (poll.Poll[struct{}], error) {
	return poll.Ready(struct{}{}), nil
}

// PollClose closes the channel for this sender (see Close) and reports
// Ready once done, which is always immediate.
func (s Sender[T]) PollClose(ctx *poll.Context) (poll.Poll[struct{}], error) {
	s.Close()
	return poll.Ready(struct{}{}), nil
}

// Close drops this sender handle. Once every Sender handle sharing this
// channel has been closed, the channel itself closes: pending receives
// drain whatever remains buffered, then see ErrClosed.
func (s Sender[T]) Close() {
	if s.c.senders.Add(-1) <= 0 {
		s.c.closeNow()
	}
}

// Clone returns an additional Sender handle sharing this channel, for the
// multi-sender flavors. Each clone must eventually be closed.
func (s Sender[T]) Clone() Sender[T] {
	s.c.senders.Add(1)
	return s
}

// Receiver is the read half of a channel. It implements poll.Stream[T].
type Receiver[T any] struct{ c *core[T] }

// TryRecv attempts to dequeue a value without waiting. Returns ErrEmpty if
// nothing is currently available, ErrClosed if the channel is closed and
// drained.
func (r Receiver[T]) TryRecv() (T, error) {
	if v, ok := r.c.buf.tryPop(); ok {
		r.c.sendWake.Signal()
		return v, nil
	}
	var zero T
	if r.c.isClosed() {
		return zero, ErrClosed
	}
	return zero, ErrEmpty
}

// PollNext implements poll.Stream[T]: Ready with (value, true) for an
// item, Ready with (zero, false) at end of stream, Pending otherwise.
func (r Receiver[T]) PollNext(ctx *poll.Context) (poll.Poll[poll.StreamItem[T]], error) {
	if v, ok := r.c.buf.tryPop(); ok {
		r.c.sendWake.Signal()
		return poll.Ready(poll.StreamItem[T]{Value: v, More: true}), nil
	}
	if r.c.isClosed() {
		return poll.Ready(poll.StreamItem[T]{}), nil
	}
	r.c.recvWake.Register(ctx.Waker())
	// Re-check after registering: a sender may have pushed and signalled
	// between our tryPop above and Register taking effect.
	if v, ok := r.c.buf.tryPop(); ok {
		r.c.sendWake.Signal()
		return poll.Ready(poll.StreamItem[T]{Value: v, More: true}), nil
	}
	return poll.Pending[poll.StreamItem[T]](), nil
}

// Close marks the channel closed from the receiver side: further TrySend/
// PollReady calls observe ErrClosed immediately, even if senders remain.
func (r Receiver[T]) Close() {
	r.c.closeNow()
}
