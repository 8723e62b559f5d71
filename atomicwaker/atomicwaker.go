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

// Package atomicwaker provides a single-slot, lock-free register-and-signal
// cell for a poll.Waker: exactly the primitive a pending Future's Poll
// implementation needs to publish "wake me" and a concurrent completion
// needs to retrieve "who do I wake", without ever losing a wakeup to the
// register/signal race. Every leaf future in this module (channel, promise,
// the scheduler's own park/unpark) is built on one of these.
package atomicwaker

import (
	"sync/atomic"

	"github.com/coopkit/coop/internal/atomics"
	"github.com/coopkit/coop/poll"
)

const (
	stateWaiting     uint32 = 0      // no registration in flight, slot is stable
	stateRegistering uint32 = 1 << 0 // a Register call is between its CAS and its store
	stateSignalling  uint32 = 1 << 1 // a Signal call has claimed (or is claiming) the slot
)

// AtomicWaker is a single-slot mailbox for a poll.Waker. Register stores
// the waker to be woken; Signal takes whatever waker is currently stored
// (if any) and wakes it. The state word resolves the inherent race between
// a producer calling Signal concurrently with a consumer still inside
// Register: Signal never reaches into the slot while a Register is
// mid-flight (it only flips the signalling bit and leaves); the in-flight
// Register itself notices that bit when it tries to close out its own
// registration and, finding it can't CAS back to idle, takes its own
// just-stored waker out of the slot and wakes it directly. Either way the
// waker that was about to be registered is woken exactly once — never
// silently dropped.
//
// This is futures-rs's AtomicWaker algorithm (the same register/notify
// bit-pair idea, REGISTERING/WAKING in the original), expressed over the
// teacher's packed-CAS-word idiom (workerPoolExecutorState) instead of a
// hand-rolled spinlock.
type AtomicWaker struct {
	state atomics.Bitset32
	slot  atomic.Pointer[poll.Waker]
}

// Register stores w as the waker to invoke on the next Signal, replacing
// whatever was previously registered. Must not be called concurrently with
// itself (a Future has exactly one outstanding poll at a time), but may
// race freely against concurrent Signal calls from other goroutines.
func (a *AtomicWaker) Register(w poll.Waker) {
	var bo atomics.Backoff
	for {
		switch a.state.Load() {
		case stateWaiting:
			if !a.state.CompareAndSwap(stateWaiting, stateRegistering) {
				continue
			}
			a.slot.Store(&w)
			if a.state.CompareAndSwap(stateRegistering, stateWaiting) {
				// No Signal observed us mid-flight: registration is visible
				// and stable.
				return
			}
			// The only other reachable state here is
			// stateRegistering|stateSignalling: a Signal arrived while we
			// were storing and, seeing stateRegistering set, left the slot
			// alone for us to resolve. Take our own waker back out and wake
			// it ourselves, then reset to idle.
			taken := a.slot.Swap(nil)
			a.state.Store(stateWaiting)
			if taken != nil {
				_ = (*taken).Wake()
			}
			return
		case stateSignalling:
			// A Signal is currently taking the previously registered waker
			// out of an otherwise-idle slot; wait for it to finish, then
			// retry — nothing of ours is at risk since we haven't stored
			// anything yet.
			bo.Once()
		default:
			// stateRegistering or stateRegistering|stateSignalling: another
			// Register call is already in flight, which is a caller bug —
			// a poll-able value has exactly one outstanding poll at a time.
			panic("atomicwaker: concurrent Register calls")
		}
	}
}

// Signal takes the currently registered waker, if any, and calls its Wake.
// Safe to call from any goroutine, any number of times, including when no
// waker is currently registered (a no-op) or concurrently with another
// Signal (exactly one of them performs the Wake).
func (a *AtomicWaker) Signal() {
	old := a.state.FetchOr(stateSignalling)
	if old&stateSignalling != 0 {
		// Another Signal is already in flight; it (or the Register it is
		// racing) will deliver the wakeup.
		return
	}
	if old&stateRegistering != 0 {
		// A Register is between its CAS and its store. It will observe the
		// signalling bit we just set when it tries to close out its own
		// registration, and will take and wake its own waker itself — we
		// must not touch the slot, since the store may not have happened
		// yet and a premature Swap would either find nothing or race the
		// in-flight store.
		return
	}
	// old == stateWaiting: the slot, if occupied, is stable. Take it.
	if w := a.slot.Swap(nil); w != nil {
		_ = (*w).Wake()
	}
	a.state.FetchAnd(^stateSignalling)
}

// Take removes and returns the currently registered waker without waking
// it, or nil if none is registered. Used by the scheduler to hand a task's
// waker off to whatever it is now waiting on.
func (a *AtomicWaker) Take() poll.Waker {
	if w := a.slot.Swap(nil); w != nil {
		return *w
	}
	return nil
}
