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

package executor_test

import (
	"sync"
	"sync/atomic"

	"github.com/coopkit/coop/executor"
	"github.com/coopkit/coop/poll"
	"github.com/coopkit/coop/scheduler"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("RunUntil", func() {
	It("works against a LocalScheduler driven by another goroutine", func() {
		s, err := scheduler.New(scheduler.Config{})
		Expect(err).ShouldNot(HaveOccurred())
		go s.Run()
		defer s.Close()

		f := poll.FutureFunc[int](func(ctx *poll.Context) (poll.Poll[int], error) {
			return poll.Ready(11), nil
		})
		v, err := executor.RunUntil[int](s, f)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(v).Should(Equal(11))
	})

	It("works against a ThreadPoolExecutor", func() {
		p, err := executor.NewThreadPoolExecutor(executor.ThreadPoolConfig{Schedulers: 2})
		Expect(err).ShouldNot(HaveOccurred())
		defer func() { <-p.Shutdown() }()

		f := poll.FutureFunc[string](func(ctx *poll.Context) (poll.Poll[string], error) {
			return poll.Ready("ok"), nil
		})
		v, err := executor.RunUntil[string](p, f)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(v).Should(Equal("ok"))
	})
})

var _ = Describe("ThreadPoolExecutor", func() {
	It("rejects a negative Schedulers count", func() {
		_, err := executor.NewThreadPoolExecutor(executor.ThreadPoolConfig{Schedulers: -1})
		Expect(err).Should(HaveOccurred())
	})

	It("defaults Schedulers to GOMAXPROCS when zero", func() {
		p, err := executor.NewThreadPoolExecutor(executor.ThreadPoolConfig{})
		Expect(err).ShouldNot(HaveOccurred())
		defer func() { <-p.Shutdown() }()

		// Exercise it: submitting work should succeed regardless of how many
		// workers were created.
		Expect(p.TrySubmit(noop{})).ShouldNot(HaveOccurred())
	})

	It("runs every task spawned on the pool to completion", func() {
		p, err := executor.NewThreadPoolExecutor(executor.ThreadPoolConfig{Schedulers: 4})
		Expect(err).ShouldNot(HaveOccurred())
		defer func() { <-p.Shutdown() }()

		var wg sync.WaitGroup
		var completed int64
		const n = 40
		wg.Add(n)
		for i := 0; i < n; i++ {
			f := poll.FutureFunc[int](func(ctx *poll.Context) (poll.Poll[int], error) {
				atomic.AddInt64(&completed, 1)
				wg.Done()
				return poll.Ready(0), nil
			})
			_, err := p.TrySpawn(boxed[int]{f})
			Expect(err).ShouldNot(HaveOccurred())
		}
		wg.Wait()
		Expect(atomic.LoadInt64(&completed)).Should(Equal(int64(n)))
	})

	It("rejects new work after Shutdown and eventually terminates", func() {
		p, err := executor.NewThreadPoolExecutor(executor.ThreadPoolConfig{Schedulers: 1})
		Expect(err).ShouldNot(HaveOccurred())

		done := p.Shutdown()
		Eventually(done).Should(Receive(BeTrue()))

		err = p.TrySubmit(noop{})
		Expect(err).Should(MatchError(executor.ErrThreadPoolClosed))
	})

	It("Run blocks until Shutdown completes", func() {
		p, err := executor.NewThreadPoolExecutor(executor.ThreadPoolConfig{Schedulers: 1})
		Expect(err).ShouldNot(HaveOccurred())

		runDone := make(chan struct{})
		go func() {
			p.Run()
			close(runDone)
		}()

		select {
		case <-runDone:
			Fail("Run returned before Shutdown was called")
		default:
		}

		p.Close()
		Eventually(runDone).Should(BeClosed())
	})
})

// noop is a boxed future that completes on its first poll.
type noop struct{}

func (noop) PollBoxed(ctx *poll.Context) (bool, error) { return true, nil }

// boxed adapts a poll.Future[T] into a poll.BoxedFuture for TrySpawn, since
// ThreadPoolExecutor's façade (mirroring scheduler.LocalScheduler's) works
// over type-erased futures.
type boxed[T any] struct{ f poll.Future[T] }

func (b boxed[T]) PollBoxed(ctx *poll.Context) (bool, error) {
	result, err := b.f.Poll(ctx)
	if err != nil {
		return true, err
	}
	return result.IsReady(), nil
}
