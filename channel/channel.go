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

// Package channel implements the four buffered channel flavors of
// component F — bounded/unbounded crossed with single/multi sender — plus
// a single-item oneshot handoff. Every flavor composes a buffer policy
// (internal/rbuf's ring buffers or its unbounded node queue) with a parking
// policy (atomicwaker.AtomicWaker on both ends), following
// concurrent/queue.go's Push/Poll/Remove/Empty/Close vocabulary for the
// error taxonomy.
package channel

import "errors"

// ErrClosed is returned by TrySend/TryRecv (and surfaced through the poll
// variants) once the channel has been closed and, for receive, drained.
// Matches concurrent/queue.go's ErrQueueClosed.
var ErrClosed = errors.New("channel: closed")

// ErrFull is returned by TrySend when a bounded channel's buffer has no
// room and the caller asked not to wait.
var ErrFull = errors.New("channel: full")

// ErrEmpty is returned by TryRecv when a channel currently holds nothing
// to receive and has not been closed.
var ErrEmpty = errors.New("channel: empty")

// buffer is the storage policy every non-oneshot flavor is parameterized
// over: a bounded ring (internal/rbuf.SPSC/MPSC/SPMC/MPMC) or the
// unbounded node queue (internal/rbuf.Unbounded).
type buffer[T any] interface {
	tryPush(v T) bool
	tryPop() (T, bool)
	capacity() int // -1 for unbounded
	len() int      // instantaneous occupancy estimate; 0 for unbounded
}
