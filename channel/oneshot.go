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
	"github.com/coopkit/coop/poll"
	"github.com/coopkit/coop/promise"
)

// OneshotSender is the write half of a one-item handoff: a single Send (or
// Close, if the value is never produced) and no more.
type OneshotSender[T any] struct{ p *promise.Promise[T] }

// Send hands v to the receiver. Returns ErrClosed if called a second time,
// or after Close.
func (s OneshotSender[T]) Send(v T) error {
	if !s.p.Settle(v, nil) {
		return ErrClosed
	}
	return nil
}

// Close drops the sender without ever producing a value; the receiver's
// Poll/Wait observes ErrClosed.
func (s OneshotSender[T]) Close() {
	var zero T
	s.p.Settle(zero, ErrClosed)
}

// OneshotReceiver is the read half of a one-item handoff. It implements
// poll.Future[T].
type OneshotReceiver[T any] struct{ p *promise.Promise[T] }

// Poll implements poll.Future[T].
func (r OneshotReceiver[T]) Poll(ctx *poll.Context) (poll.Poll[T], error) {
	return r.p.Poll(ctx)
}

// Wait blocks the calling goroutine until the sender sends or closes.
func (r OneshotReceiver[T]) Wait() (T, error) {
	return r.p.Wait()
}

// NewOneshot returns a single-item handoff: one value (or a close) may
// cross from the Sender to the Receiver. Built directly on
// promise.Promise[T] rather than a ring buffer, since capacity is exactly
// one and there is no scheduler driving either side.
func NewOneshot[T any]() (OneshotSender[T], OneshotReceiver[T]) {
	p := promise.NewSettlable[T]()
	return OneshotSender[T]{p}, OneshotReceiver[T]{p}
}
