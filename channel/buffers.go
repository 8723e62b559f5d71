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

import "github.com/coopkit/coop/internal/rbuf"

// spscBuf adapts internal/rbuf.SPSC to the buffer[T] policy, for the
// single-sender bounded flavor.
type spscBuf[T any] struct{ r *rbuf.SPSC[T] }

func newSPSCBuf[T any](capacity int) *spscBuf[T] { return &spscBuf[T]{rbuf.NewSPSC[T](capacity)} }
func (b *spscBuf[T]) tryPush(v T) bool           { return b.r.TryPush(v) }
func (b *spscBuf[T]) tryPop() (T, bool)          { return b.r.TryPop() }
func (b *spscBuf[T]) capacity() int              { return b.r.Cap() }
func (b *spscBuf[T]) len() int                   { return b.r.Len() }

// mpscBuf adapts internal/rbuf.MPSC to the buffer[T] policy, for the
// multi-sender bounded flavor.
type mpscBuf[T any] struct{ r *rbuf.MPSC[T] }

func newMPSCBuf[T any](capacity int) *mpscBuf[T] { return &mpscBuf[T]{rbuf.NewMPSC[T](capacity)} }
func (b *mpscBuf[T]) tryPush(v T) bool           { return b.r.TryPush(v) }
func (b *mpscBuf[T]) tryPop() (T, bool)          { return b.r.TryPop() }
func (b *mpscBuf[T]) capacity() int              { return b.r.Cap() }
func (b *mpscBuf[T]) len() int                   { return b.r.Len() }

// unboundedBuf adapts internal/rbuf.Unbounded to the buffer[T] policy,
// shared by both the single- and multi-sender unbounded flavors (Unbounded
// is already safe for any number of concurrent producers).
type unboundedBuf[T any] struct{ q *rbuf.Unbounded[T] }

func newUnboundedBuf[T any]() *unboundedBuf[T] { return &unboundedBuf[T]{rbuf.NewUnbounded[T]()} }
func (b *unboundedBuf[T]) tryPush(v T) bool     { b.q.Push(v); return true }
func (b *unboundedBuf[T]) tryPop() (T, bool)    { return b.q.TryPop() }
func (b *unboundedBuf[T]) capacity() int        { return -1 }
func (b *unboundedBuf[T]) len() int             { return 0 }
