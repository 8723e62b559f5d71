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

// Pipe pairs a Sender and Receiver over one bounded channel and lets their
// lifetimes be split apart: Split returns the two halves independently, so
// one can be handed to a producer goroutine and the other to a consumer
// without either needing to reach back into a shared Pipe value.
type Pipe[T any] struct {
	sender   Sender[T]
	receiver Receiver[T]
}

// NewPipe builds a Pipe over a bounded channel of the given capacity.
func NewPipe[T any](capacity int) Pipe[T] {
	s, r := NewBounded[T](capacity)
	return Pipe[T]{sender: s, receiver: r}
}

// Split returns the pipe's two halves, after which the Pipe value itself
// should be discarded.
func (p Pipe[T]) Split() (Sender[T], Receiver[T]) {
	return p.sender, p.receiver
}
