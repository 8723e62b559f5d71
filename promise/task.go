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

import (
	"github.com/coopkit/coop/poll"
	"github.com/coopkit/coop/scheduler"
)

// Task is a cancellable handle to a future spawned onto a scheduler: the
// "Task handle" of component G. It keeps the owning scheduler alive with
// an ordinary strong Go reference (this module's answer to the "weak with
// respect to the scheduler" note in the design notes — Go has no
// ref-counted weak pointers, so the handle simply holds on to the
// scheduler instead of depending on it still being reachable some other
// way) and exposes the settled value through its embedded Promise.
type Task[T any] struct {
	*Promise[T]
	node *scheduler.Task
}

// Spawn admits f to s and returns a handle to observe or cancel it.
func Spawn[T any](s *scheduler.LocalScheduler, f poll.Future[T]) (*Task[T], error) {
	p := New(f)
	node, err := s.Spawn(p)
	if err != nil {
		return nil, err
	}
	return &Task[T]{Promise: p, node: node}, nil
}

// Cancel asks the scheduler to stop driving this task's future and settle
// its promise with ErrCancelled. Safe to call more than once, and safe to
// call after the task has already completed (a no-op in that case).
func (t *Task[T]) Cancel() {
	t.node.Cancel()
}

// Cancelled reports whether Cancel has been called on this task.
func (t *Task[T]) Cancelled() bool {
	return t.node.Cancelled()
}
