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

// Package coop is the module's top-level convenience layer: combinators
// built on top of poll.Future that don't belong to any one lower-level
// component. JoinAll generalizes concurrent/future/join.go's join to Go
// generics; Select2 has no direct teacher analogue but follows the same
// "one state-machine struct polls N children under a shared context" shape.
package coop

import "github.com/coopkit/coop/poll"

// joinAll drives a fixed set of same-typed futures to completion,
// skipping any that have already produced a value — the same bookkeeping
// concurrent/future/join.go's join performs, generalized with a type
// parameter instead of []interface{}.
type joinAll[T any] struct {
	futures   []poll.Future[T]
	results   []T
	done      []bool
	remaining int
}

// JoinAll returns a future that completes once every one of futures has,
// yielding their results in the same order. Polling JoinAll polls every
// not-yet-ready child under the same Context each time, so one child's
// wakeup re-checks all of them (matching this module's single-Context,
// no-per-child-task design — JoinAll spawns nothing of its own).
func JoinAll[T any](futures ...poll.Future[T]) poll.Future[[]T] {
	return &joinAll[T]{
		futures:   futures,
		results:   make([]T, len(futures)),
		done:      make([]bool, len(futures)),
		remaining: len(futures),
	}
}

func (j *joinAll[T]) Poll(ctx *poll.Context) (poll.Poll[[]T], error) {
	if j.remaining == 0 {
		return poll.Ready(j.results), nil
	}
	for i, f := range j.futures {
		if j.done[i] {
			continue
		}
		p, err := f.Poll(ctx)
		if err != nil {
			return poll.Pending[[]T](), err
		}
		if p.IsReady() {
			j.results[i] = p.Value()
			j.done[i] = true
			j.remaining--
		}
	}
	if j.remaining == 0 {
		return poll.Ready(j.results), nil
	}
	return poll.Pending[[]T](), nil
}
