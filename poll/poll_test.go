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

package poll_test

import (
	"errors"

	"github.com/coopkit/coop/poll"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Poll", func() {
	It("is pending by default", func() {
		var p poll.Poll[int]
		Expect(p.IsReady()).Should(BeFalse())
	})

	It("carries its value once ready", func() {
		p := poll.Ready("hello")
		Expect(p.IsReady()).Should(BeTrue())
		Expect(p.Value()).Should(Equal("hello"))
	})

	It("Pending() constructs an explicit pending result", func() {
		p := poll.Pending[int]()
		Expect(p.IsReady()).Should(BeFalse())
	})
})

var _ = Describe("WakerFunc", func() {
	It("forwards Wake to the wrapped function", func() {
		called := false
		w := poll.WakerFunc(func() error {
			called = true
			return nil
		})
		Expect(w.Wake()).Should(Succeed())
		Expect(called).Should(BeTrue())
	})

	It("propagates an error from the wrapped function", func() {
		boom := errors.New("boom")
		w := poll.WakerFunc(func() error { return boom })
		Expect(w.Wake()).Should(MatchError(boom))
	})
})

var _ = Describe("NopWaker", func() {
	It("never errors and does nothing observable", func() {
		Expect(poll.NopWaker.Wake()).Should(Succeed())
	})
})

var _ = Describe("Context", func() {
	It("returns the waker it was built with", func() {
		w := poll.WakerFunc(func() error { return nil })
		ctx := poll.NewContext(w, nil)
		Expect(ctx.Waker()).Should(Equal(poll.Waker(w)))
	})

	It("Submit fails with ErrNoSpawner when built without a spawner", func() {
		ctx := poll.NewContext(poll.NopWaker, nil)
		err := ctx.Submit(nil)
		Expect(err).Should(MatchError(poll.ErrNoSpawner))
	})

	It("WithWaker swaps the waker but keeps the spawner", func() {
		calls := 0
		spawner := fakeSpawner{submit: func(poll.BoxedFuture) error { calls++; return nil }}
		ctx := poll.NewContext(poll.NopWaker, spawner)
		w2 := poll.WakerFunc(func() error { return nil })
		ctx2 := ctx.WithWaker(w2)
		Expect(ctx2.Waker()).Should(Equal(poll.Waker(w2)))
		Expect(ctx2.Submit(nil)).Should(Succeed())
		Expect(calls).Should(Equal(1))
	})

	It("Spawn fails with ErrNoSpawner when built without a spawner", func() {
		ctx := poll.NewContext(poll.NopWaker, nil)
		handle, err := ctx.Spawn(nil)
		Expect(err).Should(MatchError(poll.ErrNoSpawner))
		Expect(handle).Should(BeNil())
	})

	It("Spawn delegates to the spawner and returns its handle", func() {
		handle := fakeTaskHandle{}
		spawner := fakeSpawner{spawn: func(poll.BoxedFuture) (poll.TaskHandle, error) { return &handle, nil }}
		ctx := poll.NewContext(poll.NopWaker, spawner)
		got, err := ctx.Spawn(nil)
		Expect(err).Should(Succeed())
		Expect(got).Should(BeIdenticalTo(poll.TaskHandle(&handle)))
		got.Cancel()
		Expect(handle.cancelled).Should(BeTrue())
	})
})

type fakeSpawner struct {
	submit func(poll.BoxedFuture) error
	spawn  func(poll.BoxedFuture) (poll.TaskHandle, error)
}

func (f fakeSpawner) TrySubmitBoxed(fut poll.BoxedFuture) error { return f.submit(fut) }

func (f fakeSpawner) SpawnBoxed(fut poll.BoxedFuture) (poll.TaskHandle, error) {
	if f.spawn == nil {
		return nil, nil
	}
	return f.spawn(fut)
}

func (f fakeSpawner) Yield(w poll.Waker) {}

type fakeTaskHandle struct {
	cancelled bool
}

func (h *fakeTaskHandle) Cancel() { h.cancelled = true }
