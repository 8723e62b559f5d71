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

// Package readyqueue implements the intrusive, lock-free multi-producer
// single-consumer queue the scheduler uses to hold tasks that have been
// woken and are ready to be polled again. It is the Vyukov MPSC queue
// (http://www.1024cores.net/home/lock-free-algorithms/queues/intrusive-mpsc-node-based-queue):
// a permanent stub node removes the empty/non-empty special case, producers
// swing the tail with one atomic swap and then link the previous tail to
// the new node, and the single consumer walks head->next, tolerating a
// brief "inconsistent" window where a producer has claimed the tail but not
// yet linked it in.
//
// Queue is intrusive: the caller embeds a Node in whatever it wants to
// enqueue (the scheduler embeds one in its task struct) so Push never
// allocates. This mirrors workerPoolTaskQueue's intrusive-pointer shape in
// the teacher, translated from a mutex-protected list into this lock-free
// protocol per the algorithm the spec calls for.
package readyqueue

import (
	"sync/atomic"

	"github.com/coopkit/coop/internal/atomics"
)

// Node is embedded by anything that wants to be queued. Zero value is a
// valid, unqueued node.
type Node struct {
	next atomic.Pointer[Node]
}

// Queue is a ready queue of intrusively-linked Nodes.
type Queue struct {
	head Node // consumer-owned; head.next.Load() is first item in the inconsistent sense below
	tail atomic.Pointer[Node]
}

// New returns an empty queue, initialized with its permanent stub node.
func New() *Queue {
	q := &Queue{}
	q.tail.Store(&q.head)
	return q
}

// Push enqueues n. Safe to call from any number of producer goroutines
// concurrently. n must not already be linked into any queue.
func (q *Queue) Push(n *Node) {
	n.next.Store(nil)
	prev := q.tail.Swap(n)
	prev.next.Store(n)
}

// inconsistent is returned internally by pop to distinguish "genuinely
// empty" from "a producer is mid-push"; Pop retries on this case rather
// than reporting the queue empty.
type popState int

const (
	popEmpty popState = iota
	popInconsistent
	popOK
)

func (q *Queue) pop() (*Node, popState) {
	first := q.head.next.Load()
	if first == nil {
		if q.tail.Load() == &q.head {
			return nil, popEmpty
		}
		return nil, popInconsistent
	}
	next := first.next.Load()
	if next == nil {
		// first is the last linked node: detach it and swing the tail back
		// to the stub so the next Push links onto head again.
		q.head.next.Store(nil)
		if q.tail.CompareAndSwap(first, &q.head) {
			return first, popOK
		}
		// A producer has already claimed the tail after first but not yet
		// linked it in; put first back and retry once the link lands.
		q.head.next.Store(first)
		return nil, popInconsistent
	}
	q.head.next.Store(next)
	return first, popOK
}

// Pop removes and returns the oldest node, or nil if the queue is
// genuinely empty. Must only be called from the single consumer goroutine.
// Internally retries (with a bounded back-off, never a hard spin) across
// the queue's brief inconsistent window rather than surfacing it to the
// caller, since that window always resolves within one producer's Push.
func (q *Queue) Pop() *Node {
	var bo atomics.Backoff
	for {
		n, state := q.pop()
		switch state {
		case popOK:
			return n
		case popEmpty:
			return nil
		default:
			bo.Once()
		}
	}
}

// Empty reports whether the queue currently holds no nodes. Racy by nature
// in the presence of concurrent producers; intended for diagnostics and
// the scheduler's idle check, not for correctness decisions.
func (q *Queue) Empty() bool {
	return q.head.next.Load() == nil && q.tail.Load() == &q.head
}
