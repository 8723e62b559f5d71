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

package promise

// NewSettlable returns a Promise with no inner future, meant to be settled
// directly by a call to Settle rather than driven by a scheduler. It must
// never be handed to a scheduler's Spawn/Submit (its PollBoxed would deref
// a nil inner future) — it exists for channel's oneshot flavor, where a
// value crosses from one goroutine to another with no future to poll on
// either side.
func NewSettlable[T any]() *Promise[T] {
	return &Promise[T]{doneCh: make(chan struct{})}
}

// Settle resolves the promise with the given outcome, waking any
// registered consumer. Reports false if the promise was already settled
// (by an earlier Settle, or by CancelBoxed), in which case value and err
// are discarded.
func (p *Promise[T]) Settle(value T, err error) bool {
	if !p.state.CompareAndSwap(stateIdle, stateResolving) {
		return false
	}
	p.value = value
	p.err = err
	p.state.Store(stateResolved)
	p.once.Do(func() { close(p.doneCh) })
	p.waker.Signal()
	return true
}
