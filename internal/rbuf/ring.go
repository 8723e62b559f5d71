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

// Package rbuf provides the fixed-capacity ring buffers the channel package
// builds its bounded flavors from. Every variant shares one slot-sequence
// protocol (a per-slot sequence counter that tells a would-be producer or
// consumer whether the slot is currently theirs to touch) and differs only
// in whether the producer side, the consumer side, or both must CAS their
// cursor instead of storing it plainly — grounded on the mpmc/spsc/spmc/mpsc
// family in hayabusa-cloud-lfq and cross-checked against the node-stamped
// ring buffer in gsingh-ds-go-lock-free-ring-buffer.
package rbuf

import "github.com/coopkit/coop/internal/atomics"

type slot[T any] struct {
	seq atomics.Bitset64
	val T
}

// core is the shared slot array and capacity mask. It is embedded, never
// used directly, by the four exported variants below.
type core[T any] struct {
	mask uint64
	buf  []slot[T]
	head atomics.Bitset64
	tail atomics.Bitset64
}

func newCore[T any](capacity int) core[T] {
	if capacity <= 0 {
		capacity = 1
	}
	size := 1
	for size < capacity {
		size <<= 1
	}
	c := core[T]{
		mask: uint64(size - 1),
		buf:  make([]slot[T], size),
	}
	for i := range c.buf {
		c.buf[i].seq.Store(uint64(i))
	}
	return c
}

// Cap reports the ring's fixed capacity (rounded up to a power of two).
func (c *core[T]) Cap() int { return len(c.buf) }

// Len returns an instantaneous, possibly-stale occupancy estimate, useful
// only for diagnostics (spec.md's invariants never depend on an exact Len).
func (c *core[T]) Len() int {
	h := c.head.Load()
	t := c.tail.Load()
	if h < t {
		return 0
	}
	return int(h - t)
}

// MPMC is a bounded multi-producer multi-consumer ring buffer: both ends CAS
// their cursor.
type MPMC[T any] struct{ core[T] }

// NewMPMC allocates an MPMC ring of at least the given capacity.
func NewMPMC[T any](capacity int) *MPMC[T] { return &MPMC[T]{newCore[T](capacity)} }

// TryPush attempts to enqueue val without blocking, returning false if the
// ring is full.
func (r *MPMC[T]) TryPush(val T) bool {
	var bo atomics.Backoff
	pos := r.head.Load()
	for {
		s := &r.buf[pos&r.mask]
		seq := s.seq.Load()
		diff := int64(seq) - int64(pos)
		switch {
		case diff == 0:
			if r.head.CompareAndSwap(pos, pos+1) {
				s.val = val
				s.seq.Store(pos + 1)
				return true
			}
			bo.Once()
			pos = r.head.Load()
		case diff < 0:
			return false
		default:
			pos = r.head.Load()
		}
	}
}

// TryPop attempts to dequeue a value without blocking, returning ok=false if
// the ring is empty.
func (r *MPMC[T]) TryPop() (val T, ok bool) {
	var bo atomics.Backoff
	pos := r.tail.Load()
	for {
		s := &r.buf[pos&r.mask]
		seq := s.seq.Load()
		diff := int64(seq) - int64(pos+1)
		switch {
		case diff == 0:
			if r.tail.CompareAndSwap(pos, pos+1) {
				val = s.val
				var zero T
				s.val = zero
				s.seq.Store(pos + r.mask + 1)
				return val, true
			}
			bo.Once()
			pos = r.tail.Load()
		case diff < 0:
			return val, false
		default:
			pos = r.tail.Load()
		}
	}
}

// SPSC is a single-producer single-consumer ring buffer: both cursors are
// plain loads/stores, since there is never contention on either side.
type SPSC[T any] struct{ core[T] }

// NewSPSC allocates an SPSC ring of at least the given capacity.
func NewSPSC[T any](capacity int) *SPSC[T] { return &SPSC[T]{newCore[T](capacity)} }

// TryPush enqueues val, returning false if the ring is full. Must only be
// called from the single producer goroutine.
func (r *SPSC[T]) TryPush(val T) bool {
	pos := r.head.Load()
	s := &r.buf[pos&r.mask]
	if s.seq.Load() != pos {
		return false
	}
	s.val = val
	s.seq.Store(pos + 1)
	r.head.Store(pos + 1)
	return true
}

// TryPop dequeues a value, returning ok=false if the ring is empty. Must
// only be called from the single consumer goroutine.
func (r *SPSC[T]) TryPop() (val T, ok bool) {
	pos := r.tail.Load()
	s := &r.buf[pos&r.mask]
	if s.seq.Load() != pos+1 {
		return val, false
	}
	val = s.val
	var zero T
	s.val = zero
	s.seq.Store(pos + r.mask + 1)
	r.tail.Store(pos + 1)
	return val, true
}

// SPMC is a single-producer multi-consumer ring buffer: the producer cursor
// is a plain store, the consumer cursor CASes.
type SPMC[T any] struct{ core[T] }

// NewSPMC allocates an SPMC ring of at least the given capacity.
func NewSPMC[T any](capacity int) *SPMC[T] { return &SPMC[T]{newCore[T](capacity)} }

// TryPush enqueues val, returning false if the ring is full. Must only be
// called from the single producer goroutine.
func (r *SPMC[T]) TryPush(val T) bool {
	pos := r.head.Load()
	s := &r.buf[pos&r.mask]
	if s.seq.Load() != pos {
		return false
	}
	s.val = val
	s.seq.Store(pos + 1)
	r.head.Store(pos + 1)
	return true
}

// TryPop attempts to dequeue a value without blocking, returning ok=false if
// the ring is empty. Safe to call from any number of consumer goroutines.
func (r *SPMC[T]) TryPop() (val T, ok bool) {
	var bo atomics.Backoff
	pos := r.tail.Load()
	for {
		s := &r.buf[pos&r.mask]
		seq := s.seq.Load()
		diff := int64(seq) - int64(pos+1)
		switch {
		case diff == 0:
			if r.tail.CompareAndSwap(pos, pos+1) {
				val = s.val
				var zero T
				s.val = zero
				s.seq.Store(pos + r.mask + 1)
				return val, true
			}
			bo.Once()
			pos = r.tail.Load()
		case diff < 0:
			return val, false
		default:
			pos = r.tail.Load()
		}
	}
}

// MPSC is a multi-producer single-consumer ring buffer: the producer cursor
// CASes, the consumer cursor is a plain store.
type MPSC[T any] struct{ core[T] }

// NewMPSC allocates an MPSC ring of at least the given capacity.
func NewMPSC[T any](capacity int) *MPSC[T] { return &MPSC[T]{newCore[T](capacity)} }

// TryPush attempts to enqueue val without blocking, returning false if the
// ring is full. Safe to call from any number of producer goroutines.
func (r *MPSC[T]) TryPush(val T) bool {
	var bo atomics.Backoff
	pos := r.head.Load()
	for {
		s := &r.buf[pos&r.mask]
		seq := s.seq.Load()
		diff := int64(seq) - int64(pos)
		switch {
		case diff == 0:
			if r.head.CompareAndSwap(pos, pos+1) {
				s.val = val
				s.seq.Store(pos + 1)
				return true
			}
			bo.Once()
			pos = r.head.Load()
		case diff < 0:
			return false
		default:
			pos = r.head.Load()
		}
	}
}

// TryPop dequeues a value, returning ok=false if the ring is empty. Must
// only be called from the single consumer goroutine.
func (r *MPSC[T]) TryPop() (val T, ok bool) {
	pos := r.tail.Load()
	s := &r.buf[pos&r.mask]
	if s.seq.Load() != pos+1 {
		return val, false
	}
	val = s.val
	var zero T
	s.val = zero
	s.seq.Store(pos + r.mask + 1)
	r.tail.Store(pos + 1)
	return val, true
}
