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

// Package executor defines the façade every runner in this module exposes
// (spec component H) and provides ThreadPoolExecutor, a fixed pool of
// independently-scheduled workers for fire-and-forget submission from any
// goroutine.
package executor

import (
	"github.com/coopkit/coop/poll"
	"github.com/coopkit/coop/scheduler"
)

// Executor is the non-blocking façade: admit a type-erased future either
// with a handle (Spawn/TrySpawn) or without one (Submit/TrySubmit).
// scheduler.LocalScheduler and ThreadPoolExecutor both implement it.
// Grounded on concurrent/executor.go's Executor interface
// (Submit(Task) (TaskHandle, error)), split here into the Try/blocking pairs
// the design notes call for.
type Executor interface {
	TrySubmit(f poll.BoxedFuture) error
	Submit(f poll.BoxedFuture) error
	TrySpawn(f poll.BoxedFuture) (*scheduler.Task, error)
	Spawn(f poll.BoxedFuture) (*scheduler.Task, error)
}

// BlockingExecutor additionally lets the calling goroutine park itself
// driving the work, rather than handing it off to a background goroutine.
type BlockingExecutor interface {
	Executor
	Run()
	Close()
}

var (
	_ Executor         = (*scheduler.LocalScheduler)(nil)
	_ BlockingExecutor = (*scheduler.LocalScheduler)(nil)
)

// RunUntil spawns f on e and blocks the calling goroutine until it
// completes, returning its value or error. It works against any Executor —
// not just a BlockingExecutor the caller happens to be driving itself —
// because it waits on the promise's own settlement channel rather than
// assuming the caller is the one ticking the scheduler.
func RunUntil[T any](e Executor, f poll.Future[T]) (T, error) {
	return runUntil(e, f)
}
