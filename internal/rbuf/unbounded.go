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

package rbuf

import "sync/atomic"

type unboundedNode[T any] struct {
	next atomic.Pointer[unboundedNode[T]]
	val  T
}

// Unbounded is a growable multi-producer, single-consumer node-linked queue:
// the same permanent-stub-node, CAS-swing-the-tail shape as
// internal/readyqueue.Queue, instantiated here to carry arbitrary values
// instead of intrusive task nodes. It backs channel's unbounded flavors,
// which never report TryPush failure for lack of room.
type Unbounded[T any] struct {
	head atomic.Pointer[unboundedNode[T]] // consumer-owned
	tail atomic.Pointer[unboundedNode[T]] // producer-contested
}

// NewUnbounded allocates an empty unbounded queue.
func NewUnbounded[T any]() *Unbounded[T] {
	stub := &unboundedNode[T]{}
	q := &Unbounded[T]{}
	q.head.Store(stub)
	q.tail.Store(stub)
	return q
}

// Push enqueues val. Always succeeds; safe to call from any number of
// producer goroutines concurrently.
func (q *Unbounded[T]) Push(val T) {
	n := &unboundedNode[T]{val: val}
	prev := q.tail.Swap(n)
	prev.next.Store(n)
}

// TryPop dequeues the oldest value, returning ok=false if the queue is
// currently empty. Must only be called from the single consumer goroutine.
func (q *Unbounded[T]) TryPop() (val T, ok bool) {
	head := q.head.Load()
	next := head.next.Load()
	if next == nil {
		return val, false
	}
	q.head.Store(next)
	val = next.val
	return val, true
}

// Len walks the list to report an instantaneous, possibly-stale length.
// Diagnostic use only.
func (q *Unbounded[T]) Len() int {
	n := 0
	for cur := q.head.Load().next.Load(); cur != nil; cur = cur.next.Load() {
		n++
	}
	return n
}
