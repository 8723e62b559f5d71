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

import (
	"github.com/coopkit/coop/internal/atomics"
	"github.com/coopkit/coop/internal/readyqueue"
	"github.com/coopkit/coop/poll"
)

// Task states. The driver loop moves a Task Idle -> Running before each
// poll, back to Idle when the poll returns pending, and Running -> Complete
// -> Released once it finishes. Whether a task sits on the ready queue is
// tracked by the separate enqueued word (see Task.Wake), not by the state
// word: no code in this package stores stateNotified.
const (
	stateIdle      uint32 = 0 // newly created or between polls, not currently queued
	stateNotified  uint32 = 1 // queued on the ready queue, waiting to be polled
	stateRunning   uint32 = 2 // currently being polled by the driver loop
	stateComplete  uint32 = 3 // inner future returned Ready; no further polls
	stateReleased  uint32 = 4 // removed from the active list, node eligible for reuse
)

const (
	flagCancelled uint32 = 1 << 0
	flagDestroyed uint32 = 1 << 1
)

// Cancellable is implemented by boxed futures that need to react to
// cancellation (promise.Promise[T] does: it settles itself with
// ErrCancelled and wakes any consumer waiting on the result).
type Cancellable interface {
	CancelBoxed()
}

// Task is the scheduler's intrusive unit of work: a state word, a
// doubly-linked active-list membership (plain fields guarded by the
// scheduler's activeMu, since Spawn may link a task in from any
// goroutine), a
// ready-queue link, and the type-erased future being driven. Grounded on
// workerPoolExecutorState's packed run-state word, split here into a state
// enum plus an independent flag word rather than one packed int64, since
// the state transitions and the cancel/destroy flags are set from
// different sides (driver loop vs. arbitrary caller goroutine) and keeping
// them in separate CAS domains avoids one thread's state transition
// clobbering another's flag set.
type Task struct {
	readyNode readyqueue.Node
	next      *Task
	prev      *Task

	state atomics.Bitset32
	flags atomics.Bitset32

	enqueued atomics.Bitset32 // 0/1: prevents double-linking into the ready queue

	future poll.BoxedFuture
	sched  *LocalScheduler
	ctx    *poll.Context
	diagID uint64
}

// Wake is the Waker a Task hands to its inner future's Context. Signalling
// it moves the task back onto the ready queue (unless it is already there)
// and pings the scheduler's park waker so a blocked Run/RunUntil notices.
// Must be idempotent and callable from any goroutine, including from
// inside the very Poll call it is being signalled on behalf of.
func (t *Task) Wake() error {
	if t.flags.Load()&flagDestroyed != 0 {
		return nil
	}
	if t.enqueued.CompareAndSwap(0, 1) {
		t.sched.enqueue(t)
	}
	return nil
}

// Cancel marks the task cancelled and, if its inner future supports it,
// tells it to settle with a cancellation outcome. Safe to call from any
// goroutine at any time, including after the task has already completed
// (a no-op in that case).
func (t *Task) Cancel() {
	t.flags.FetchOr(flagCancelled)
	if c, ok := t.future.(Cancellable); ok {
		c.CancelBoxed()
	}
	_ = t.Wake()
}

// Cancelled reports whether this task has been asked to cancel.
func (t *Task) Cancelled() bool {
	return t.flags.Load()&flagCancelled != 0
}
