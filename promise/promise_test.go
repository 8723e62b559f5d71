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

package promise_test

import (
	"errors"
	"time"

	"github.com/coopkit/coop/poll"
	"github.com/coopkit/coop/promise"
	"github.com/coopkit/coop/scheduler"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var errBoom = errors.New("boom")

var _ = Describe("Promise", func() {
	It("resolves immediately for an already-ready inner future", func() {
		f := poll.FutureFunc[int](func(ctx *poll.Context) (poll.Poll[int], error) {
			return poll.Ready(7), nil
		})
		p := promise.New[int](f)
		done, err := p.PollBoxed(poll.NewContext(poll.NopWaker, nil))
		Expect(err).ShouldNot(HaveOccurred())
		Expect(done).Should(BeTrue())

		v, err := p.Wait()
		Expect(err).ShouldNot(HaveOccurred())
		Expect(v).Should(Equal(7))
	})

	It("propagates the inner future's error", func() {
		f := poll.FutureFunc[int](func(ctx *poll.Context) (poll.Poll[int], error) {
			return poll.Pending[int](), errBoom
		})
		p := promise.New[int](f)
		done, err := p.PollBoxed(poll.NewContext(poll.NopWaker, nil))
		Expect(done).Should(BeTrue())
		Expect(err).Should(MatchError(errBoom))

		_, err = p.Wait()
		Expect(err).Should(MatchError(errBoom))
	})

	It("reports Pending via PollBoxed until the inner future is Ready", func() {
		polls := 0
		f := poll.FutureFunc[int](func(ctx *poll.Context) (poll.Poll[int], error) {
			polls++
			if polls < 2 {
				return poll.Pending[int](), nil
			}
			return poll.Ready(99), nil
		})
		p := promise.New[int](f)
		ctx := poll.NewContext(poll.NopWaker, nil)

		done, err := p.PollBoxed(ctx)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(done).Should(BeFalse())

		done, err = p.PollBoxed(ctx)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(done).Should(BeTrue())

		v, _ := p.Wait()
		Expect(v).Should(Equal(99))
	})

	It("is itself pollable as a poll.Future[T] by another consumer", func() {
		f := poll.FutureFunc[int](func(ctx *poll.Context) (poll.Poll[int], error) {
			return poll.Ready(5), nil
		})
		p := promise.New[int](f)
		_, _ = p.PollBoxed(poll.NewContext(poll.NopWaker, nil))

		result, err := p.Poll(poll.NewContext(poll.NopWaker, nil))
		Expect(err).ShouldNot(HaveOccurred())
		Expect(result.IsReady()).Should(BeTrue())
		Expect(result.Value()).Should(Equal(5))
	})

	It("wakes a registered consumer once settled", func() {
		woken := make(chan struct{}, 1)
		f := poll.FutureFunc[int](func(ctx *poll.Context) (poll.Poll[int], error) {
			return poll.Pending[int](), nil
		})
		p := promise.New[int](f)

		consumerCtx := poll.NewContext(poll.WakerFunc(func() error {
			select {
			case woken <- struct{}{}:
			default:
			}
			return nil
		}), nil)
		result, err := p.Poll(consumerCtx)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(result.IsReady()).Should(BeFalse())

		// Settle it directly as CancelBoxed would, to exercise the waker.
		p.CancelBoxed()
		Eventually(woken).Should(Receive())

		_, err = p.Wait()
		Expect(err).Should(MatchError(promise.ErrCancelled))
	})

	It("discards a late Ready result once CancelBoxed has settled it", func() {
		releasePoll := make(chan struct{})
		f := poll.FutureFunc[int](func(ctx *poll.Context) (poll.Poll[int], error) {
			<-releasePoll
			return poll.Ready(123), nil
		})
		p := promise.New[int](f)

		pollDone := make(chan struct{})
		go func() {
			_, _ = p.PollBoxed(poll.NewContext(poll.NopWaker, nil))
			close(pollDone)
		}()

		// Give PollBoxed a moment to move into statePolling before cancelling.
		time.Sleep(5 * time.Millisecond)
		p.CancelBoxed()
		close(releasePoll)
		<-pollDone

		v, err := p.Wait()
		Expect(err).Should(MatchError(promise.ErrCancelled))
		Expect(v).Should(Equal(0))
	})

	It("Done closes exactly once settlement happens", func() {
		f := poll.FutureFunc[int](func(ctx *poll.Context) (poll.Poll[int], error) {
			return poll.Ready(1), nil
		})
		p := promise.New[int](f)
		select {
		case <-p.Done():
			Fail("Done channel closed before settlement")
		default:
		}
		_, _ = p.PollBoxed(poll.NewContext(poll.NopWaker, nil))
		Eventually(p.Done()).Should(BeClosed())
	})
})

var _ = Describe("NewSettlable", func() {
	It("settles with a value handed in directly, without any scheduler", func() {
		p := promise.NewSettlable[string]()
		ok := p.Settle("hello", nil)
		Expect(ok).Should(BeTrue())

		v, err := p.Wait()
		Expect(err).ShouldNot(HaveOccurred())
		Expect(v).Should(Equal("hello"))
	})

	It("reports false and discards a second Settle", func() {
		p := promise.NewSettlable[int]()
		Expect(p.Settle(1, nil)).Should(BeTrue())
		Expect(p.Settle(2, nil)).Should(BeFalse())

		v, _ := p.Wait()
		Expect(v).Should(Equal(1))
	})
})

var _ = Describe("Task", func() {
	var s *scheduler.LocalScheduler

	BeforeEach(func() {
		var err error
		s, err = scheduler.New(scheduler.Config{})
		Expect(err).ShouldNot(HaveOccurred())
		go s.Run()
	})

	AfterEach(func() {
		s.Close()
	})

	It("spawns a future and observes its result through Wait", func() {
		f := poll.FutureFunc[int](func(ctx *poll.Context) (poll.Poll[int], error) {
			return poll.Ready(42), nil
		})
		task, err := promise.Spawn[int](s, f)
		Expect(err).ShouldNot(HaveOccurred())

		v, err := task.Wait()
		Expect(err).ShouldNot(HaveOccurred())
		Expect(v).Should(Equal(42))
	})

	It("cancels a running task and settles it with ErrCancelled", func() {
		block := make(chan struct{})
		f := poll.FutureFunc[int](func(ctx *poll.Context) (poll.Poll[int], error) {
			select {
			case <-block:
				return poll.Ready(1), nil
			default:
				go func(w poll.Waker) {
					time.Sleep(time.Millisecond)
					_ = w.Wake()
				}(ctx.Waker())
				return poll.Pending[int](), nil
			}
		})
		task, err := promise.Spawn[int](s, f)
		Expect(err).ShouldNot(HaveOccurred())

		Expect(task.Cancelled()).Should(BeFalse())
		task.Cancel()
		Expect(task.Cancelled()).Should(BeTrue())

		_, err = task.Wait()
		Expect(err).Should(MatchError(promise.ErrCancelled))
		close(block)
	})

	It("Cancel after completion is a harmless no-op", func() {
		f := poll.FutureFunc[int](func(ctx *poll.Context) (poll.Poll[int], error) {
			return poll.Ready(9), nil
		})
		task, err := promise.Spawn[int](s, f)
		Expect(err).ShouldNot(HaveOccurred())

		v, err := task.Wait()
		Expect(err).ShouldNot(HaveOccurred())
		Expect(v).Should(Equal(9))

		task.Cancel()
		v, err = task.Wait()
		Expect(err).ShouldNot(HaveOccurred())
		Expect(v).Should(Equal(9))
	})
})
