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

// NewUnbounded returns a single-sender, single-receiver channel whose
// buffer grows without bound (internal/rbuf.Unbounded): TrySend/PollReady
// never report full.
func NewUnbounded[T any]() (Sender[T], Receiver[T]) {
	c := newCore[T](newUnboundedBuf[T](), 1)
	return Sender[T]{c}, Receiver[T]{c}
}

// NewUnboundedMulti is NewBoundedMulti's unbounded counterpart: senders
// independent Sender handles over one unbounded buffer.
func NewUnboundedMulti[T any](senders int) ([]Sender[T], Receiver[T]) {
	if senders < 1 {
		senders = 1
	}
	c := newCore[T](newUnboundedBuf[T](), int64(senders))
	out := make([]Sender[T], senders)
	for i := range out {
		out[i] = Sender[T]{c}
	}
	return out, Receiver[T]{c}
}
