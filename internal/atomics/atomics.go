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

// Package atomics collects the low-level, memory-ordered building blocks the
// rest of this module's lock-free data structures are assembled from: bitset
// words with CAS-loop mutators, and a bounded spin/yield back-off helper.
package atomics

import (
	"runtime"
	"sync/atomic"
)

// Bitset32 is a CAS-mutable 32-bit word. Scheduler task states and waker
// registration states are both packed into one of these rather than guarded
// by a mutex, mirroring the packed run-state-and-count int64 that
// WorkerPoolExecutor keeps for its own lifecycle bits.
type Bitset32 struct {
	v atomic.Uint32
}

// Load reads the current word.
func (b *Bitset32) Load() uint32 { return b.v.Load() }

// Store unconditionally overwrites the word.
func (b *Bitset32) Store(val uint32) { b.v.Store(val) }

// CompareAndSwap installs new if the word is still old.
func (b *Bitset32) CompareAndSwap(old, new uint32) bool {
	return b.v.CompareAndSwap(old, new)
}

// FetchOr ORs mask into the word and returns the word's value from before
// the operation.
func (b *Bitset32) FetchOr(mask uint32) uint32 {
	for {
		old := b.v.Load()
		if b.v.CompareAndSwap(old, old|mask) {
			return old
		}
	}
}

// FetchAnd ANDs mask into the word and returns the word's value from before
// the operation.
func (b *Bitset32) FetchAnd(mask uint32) uint32 {
	for {
		old := b.v.Load()
		if b.v.CompareAndSwap(old, old&mask) {
			return old
		}
	}
}

// FetchXor XORs mask into the word and returns the word's value from before
// the operation.
func (b *Bitset32) FetchXor(mask uint32) uint32 {
	for {
		old := b.v.Load()
		if b.v.CompareAndSwap(old, old^mask) {
			return old
		}
	}
}

// Bitset64 is the 64-bit counterpart of Bitset32, used where a state machine
// needs more than 32 bits of room (e.g. a generation counter packed
// alongside status bits).
type Bitset64 struct {
	v atomic.Uint64
}

// Load reads the current word.
func (b *Bitset64) Load() uint64 { return b.v.Load() }

// Store unconditionally overwrites the word.
func (b *Bitset64) Store(val uint64) { b.v.Store(val) }

// CompareAndSwap installs new if the word is still old.
func (b *Bitset64) CompareAndSwap(old, new uint64) bool {
	return b.v.CompareAndSwap(old, new)
}

// FetchAdd adds delta to the word and returns the word's value from before
// the operation.
func (b *Bitset64) FetchAdd(delta uint64) uint64 {
	return b.v.Add(delta) - delta
}

// FetchOr ORs mask into the word and returns the word's value from before
// the operation.
func (b *Bitset64) FetchOr(mask uint64) uint64 {
	for {
		old := b.v.Load()
		if b.v.CompareAndSwap(old, old|mask) {
			return old
		}
	}
}

// Backoff implements the bounded spin-then-yield policy every busy-wait loop
// in this module uses instead of spinning forever: a handful of tight CPU
// spins (Pause), doubling each round up to a cap, followed by handing the P
// back to the Go scheduler via runtime.Gosched. Never blocks indefinitely and
// never spins unboundedly, matching the corpus's use of bounded spin helpers
// (e.g. hayabusa-cloud-lfq's spin.Wait) ahead of any park/condvar fallback.
type Backoff struct {
	spins int
}

const maxSpins = 32

// Pause executes one short busy-wait. Go exposes no portable PAUSE
// intrinsic to library code, so this is approximated with a tiny busy loop;
// callers that need to actually release the P should prefer Once, which
// escalates to runtime.Gosched once the spin budget is exhausted.
func Pause() {
	for i := 0; i < 8; i++ {
	}
}

// Once performs a single round of the back-off: a number of Pause spins that
// doubles with each call (capped at maxSpins), and falls back to
// runtime.Gosched once the cap is reached so a busy waiter always eventually
// yields the OS thread rather than starving other goroutines.
func (b *Backoff) Once() {
	if 1<<uint(b.spins) > maxSpins {
		runtime.Gosched()
		return
	}
	n := 1 << uint(b.spins)
	for i := 0; i < n; i++ {
		Pause()
	}
	b.spins++
}

// Reset clears the back-off's escalation state, for reuse across retry loops.
func (b *Backoff) Reset() { b.spins = 0 }
