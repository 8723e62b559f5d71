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

// Package poll defines the cooperative poll protocol that every other
// package in this module is built on: a typed Ready/Pending result, the
// Waker a pending poll registers to be told when to try again, and the
// Future/Stream/Sink capability interfaces themselves.
//
// A Future never blocks its caller. Poll either completes immediately and
// returns Ready, or returns Pending after arranging for the supplied
// Context's Waker to be signalled once polling again might make progress.
// Once a Future's Poll has returned Ready, polling it again is undefined
// behavior; combinators in this module never do so.
package poll

// Poll is the outcome of polling a Future, Stream, or Sink once. It plays
// the role the teacher's bare PollResult/PollResultPending duo does, kept
// exhaustive and typed via Go generics: a Poll[T] is either ready with a T
// or still pending.
type Poll[T any] struct {
	value T
	ready bool
}

// Ready builds a completed poll result carrying value.
func Ready[T any](value T) Poll[T] {
	return Poll[T]{value: value, ready: true}
}

// Pending builds an incomplete poll result. The zero value of Poll[T] is
// already Pending; Pending[T]() exists for readability at call sites.
func Pending[T any]() Poll[T] {
	return Poll[T]{}
}

// IsReady reports whether this result carries a value.
func (p Poll[T]) IsReady() bool { return p.ready }

// Value returns the completed value. Calling Value on a Pending result
// returns the zero value of T; callers should always check IsReady first.
func (p Poll[T]) Value() T { return p.value }

// Waker is how a pending poll asks to be told that it may be worth polling
// again. Wake must be safe to call concurrently, from any goroutine
// (including the one currently inside Poll), and must be idempotent:
// multiple Wake calls before the next poll collapse to at most one
// re-poll. Carried over unchanged from the teacher's future.Waker.
type Waker interface {
	Wake() error
}

// WakerFunc adapts a plain function to the Waker interface.
type WakerFunc func() error

// Wake calls f.
func (f WakerFunc) Wake() error { return f() }

type nopWaker struct{}

func (nopWaker) Wake() error { return nil }

// NopWaker is a Waker whose Wake is a no-op, for polling a Future outside
// of any scheduler (e.g. in a test) when the caller already knows it will
// poll again regardless of notification.
var NopWaker Waker = nopWaker{}

// Context is threaded explicitly through every Poll call, carrying the
// Waker to register against and a handle back to the runner for Submit,
// Spawn, and Yield. This module has no thread-local "current executor";
// Context is the alternative the design notes call out explicitly.
type Context struct {
	waker   Waker
	spawner Spawner
}

// Spawner is the subset of an executor a Context needs in order to support
// Submit/Spawn/Yield from inside a Poll call. scheduler.LocalScheduler
// implements this.
type Spawner interface {
	// TrySubmitBoxed enqueues a type-erased, already-boxed future for
	// fire-and-forget execution.
	TrySubmitBoxed(f BoxedFuture) error
	// SpawnBoxed enqueues a type-erased, already-boxed future and returns a
	// handle that can cancel it — the primitive behind Context.Spawn.
	SpawnBoxed(f BoxedFuture) (TaskHandle, error)
	// Yield asks the runner to re-poll the calling task on its very next
	// tick without needing an external wakeup.
	Yield(w Waker)
}

// TaskHandle is the type-erased capability Context.Spawn hands back: enough
// for the future that spawned a child to cancel it again later, without
// this package needing to know about scheduler.Task's link-list bookkeeping
// or promise.Task[T]'s generic settlement machinery. *scheduler.Task
// implements this directly; promise.Task[T] implements it too, for the
// cases where a caller already holds one of those concretely and wants to
// use it as a poll.TaskHandle.
type TaskHandle interface {
	Cancel()
}

// BoxedFuture is the type-erased shape a Context's Spawner works with:
// a future whose output the caller does not (or cannot, across a generic
// boundary) name. scheduler wraps Future[T] values into this before
// admitting them to its ready queue.
type BoxedFuture interface {
	PollBoxed(ctx *Context) (done bool, err error)
}

// NewContext builds a Context over the given waker and spawner. Exported
// for use by executors and tests that need to drive a Future directly.
func NewContext(w Waker, s Spawner) *Context {
	return &Context{waker: w, spawner: s}
}

// Waker returns the context's current waker.
func (c *Context) Waker() Waker { return c.waker }

// WithWaker returns a shallow copy of the context bound to a different
// waker, leaving the spawner unchanged, for a combinator that wants to poll
// a child under a waker of its own. JoinAll and Select2 in package coop do
// not use it: they poll every child under the Context they were given.
func (c *Context) WithWaker(w Waker) *Context {
	return &Context{waker: w, spawner: c.spawner}
}

// Submit enqueues a boxed future for fire-and-forget execution on the
// context's runner, per spec's executor façade.
func (c *Context) Submit(f BoxedFuture) error {
	if c.spawner == nil {
		return ErrNoSpawner
	}
	return c.spawner.TrySubmitBoxed(f)
}

// Spawn admits f for execution on the context's runner and returns a
// type-erased, cancellable handle to it — spec.md §6's
// `Context{ ..., spawn(future) -> Task, ... }` capability. Unlike
// scheduler.Spawn/promise.Spawn (which need a concrete
// *scheduler.LocalScheduler and are meant for a top-level caller outside
// any poll), Spawn works from inside another future's own Poll call, since
// Context is exactly what a nested Poll has in hand.
func (c *Context) Spawn(f BoxedFuture) (TaskHandle, error) {
	if c.spawner == nil {
		return nil, ErrNoSpawner
	}
	return c.spawner.SpawnBoxed(f)
}

// Yield asks to be polled again on the runner's very next tick.
func (c *Context) Yield() {
	if c.spawner != nil {
		c.spawner.Yield(c.waker)
	}
}

// Future is anything pollable to a single T. Poll must never be called
// again after it has returned a Ready result.
type Future[T any] interface {
	Poll(ctx *Context) (Poll[T], error)
}

// FutureFunc adapts a plain poll function to Future[T].
type FutureFunc[T any] func(ctx *Context) (Poll[T], error)

// Poll calls f.
func (f FutureFunc[T]) Poll(ctx *Context) (Poll[T], error) { return f(ctx) }

// Stream yields a sequence of items, each retrieved with PollNext. A Ready
// result carrying (value, true) is an item; (zero, false) is end of stream.
type Stream[T any] interface {
	PollNext(ctx *Context) (Poll[StreamItem[T]], error)
}

// StreamItem is the payload of one Stream poll: a value and whether the
// stream has more after it.
type StreamItem[T any] struct {
	Value T
	More  bool
}

// Sink accepts a sequence of items, applying the same poll/ready/pending
// protocol in reverse: PollReady must return Ready before StartSend may be
// called, StartSend hands over one item synchronously, and PollFlush/
// PollClose drain and then shut down the sink.
type Sink[T any] interface {
	PollReady(ctx *Context) (Poll[struct{}], error)
	StartSend(item T) error
	PollFlush(ctx *Context) (Poll[struct{}], error)
	PollClose(ctx *Context) (Poll[struct{}], error)
}
