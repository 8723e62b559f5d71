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

package coop

import "github.com/coopkit/coop/poll"

// Either is the outcome of Select2: exactly one of A or B was produced,
// indicated by First.
type Either[A, B any] struct {
	First bool
	A     A
	B     B
}

type selectState[A, B any] struct {
	a     poll.Future[A]
	b     poll.Future[B]
	doneA bool
	doneB bool
}

// Select2 returns a future that completes with whichever of fa, fb
// produces a value first. If both become ready in the same poll round,
// fa wins. The loser is never polled again.
func Select2[A, B any](fa poll.Future[A], fb poll.Future[B]) poll.Future[Either[A, B]] {
	return &selectState[A, B]{a: fa, b: fb}
}

func (s *selectState[A, B]) Poll(ctx *poll.Context) (poll.Poll[Either[A, B]], error) {
	if !s.doneA {
		p, err := s.a.Poll(ctx)
		if err != nil {
			return poll.Pending[Either[A, B]](), err
		}
		if p.IsReady() {
			s.doneA = true
			return poll.Ready(Either[A, B]{First: true, A: p.Value()}), nil
		}
	}
	if !s.doneB {
		p, err := s.b.Poll(ctx)
		if err != nil {
			return poll.Pending[Either[A, B]](), err
		}
		if p.IsReady() {
			s.doneB = true
			return poll.Ready(Either[A, B]{First: false, B: p.Value()}), nil
		}
	}
	return poll.Pending[Either[A, B]](), nil
}
