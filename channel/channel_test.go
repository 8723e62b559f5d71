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

package channel_test

import (
	"time"

	"github.com/coopkit/coop/channel"
	"github.com/coopkit/coop/poll"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Bounded", func() {
	It("sends and receives in FIFO order", func() {
		s, r := channel.NewBounded[int](4)
		Expect(s.TrySend(1)).Should(Succeed())
		Expect(s.TrySend(2)).Should(Succeed())

		v, err := r.TryRecv()
		Expect(err).ShouldNot(HaveOccurred())
		Expect(v).Should(Equal(1))

		v, err = r.TryRecv()
		Expect(err).ShouldNot(HaveOccurred())
		Expect(v).Should(Equal(2))
	})

	It("reports ErrEmpty on an empty, open channel", func() {
		_, r := channel.NewBounded[int](2)
		_, err := r.TryRecv()
		Expect(err).Should(MatchError(channel.ErrEmpty))
	})

	It("reports ErrFull once the buffer is at capacity", func() {
		s, _ := channel.NewBounded[int](2)
		Expect(s.TrySend(1)).Should(Succeed())
		Expect(s.TrySend(2)).Should(Succeed())
		Expect(s.TrySend(3)).Should(MatchError(channel.ErrFull))
	})

	It("closes once the sole sender closes, draining remaining items first", func() {
		s, r := channel.NewBounded[int](2)
		Expect(s.TrySend(1)).Should(Succeed())
		s.Close()

		v, err := r.TryRecv()
		Expect(err).ShouldNot(HaveOccurred())
		Expect(v).Should(Equal(1))

		_, err = r.TryRecv()
		Expect(err).Should(MatchError(channel.ErrClosed))
	})

	It("rejects sends once closed, even with unclaimed capacity", func() {
		s, _ := channel.NewBounded[int](4)
		s.Close()
		Expect(s.TrySend(1)).Should(MatchError(channel.ErrClosed))
	})

	It("PollReady reports Ready while there is room and Pending once full", func() {
		s, r := channel.NewBounded[int](1)
		ready, err := s.PollReady(poll.NewContext(poll.NopWaker, nil))
		Expect(err).ShouldNot(HaveOccurred())
		Expect(ready.IsReady()).Should(BeTrue())

		Expect(s.StartSend(1)).Should(Succeed())
		result, err := s.PollReady(poll.NewContext(poll.NopWaker, nil))
		Expect(err).ShouldNot(HaveOccurred())
		Expect(result.IsReady()).Should(BeFalse())

		v, _ := r.TryRecv()
		Expect(v).Should(Equal(1))
	})

	It("PollNext wakes a pending receiver once a value is sent", func() {
		s, r := channel.NewBounded[int](1)
		woken := make(chan struct{}, 1)
		ctx := poll.NewContext(poll.WakerFunc(func() error {
			select {
			case woken <- struct{}{}:
			default:
			}
			return nil
		}), nil)

		result, err := r.PollNext(ctx)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(result.IsReady()).Should(BeFalse())

		Expect(s.TrySend(10)).Should(Succeed())
		Eventually(woken).Should(Receive())

		result, err = r.PollNext(ctx)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(result.IsReady()).Should(BeTrue())
		Expect(result.Value().More).Should(BeTrue())
		Expect(result.Value().Value).Should(Equal(10))
	})

	It("PollNext reports end-of-stream (More=false) once closed and drained", func() {
		s, r := channel.NewBounded[int](1)
		s.Close()
		result, err := r.PollNext(poll.NewContext(poll.NopWaker, nil))
		Expect(err).ShouldNot(HaveOccurred())
		Expect(result.IsReady()).Should(BeTrue())
		Expect(result.Value().More).Should(BeFalse())
	})
})

var _ = Describe("BoundedMulti", func() {
	It("only closes once every sender handle has been closed", func() {
		senders, r := channel.NewBoundedMulti[int](4, 2)
		Expect(senders).Should(HaveLen(2))

		Expect(senders[0].TrySend(1)).Should(Succeed())
		senders[0].Close()

		// One sender remains open; the channel must not be closed yet.
		Expect(senders[1].TrySend(2)).Should(Succeed())
		senders[1].Close()

		v, _ := r.TryRecv()
		Expect(v).Should(Equal(1))
		v, _ = r.TryRecv()
		Expect(v).Should(Equal(2))

		_, err := r.TryRecv()
		Expect(err).Should(MatchError(channel.ErrClosed))
	})

	It("Clone adds another live handle that must also be closed", func() {
		senders, r := channel.NewBoundedMulti[int](4, 1)
		clone := senders[0].Clone()

		senders[0].Close()
		Expect(clone.TrySend(5)).Should(Succeed())
		clone.Close()

		v, _ := r.TryRecv()
		Expect(v).Should(Equal(5))
		_, err := r.TryRecv()
		Expect(err).Should(MatchError(channel.ErrClosed))
	})
})

var _ = Describe("Unbounded", func() {
	It("never reports full", func() {
		s, r := channel.NewUnbounded[int]()
		for i := 0; i < 1000; i++ {
			Expect(s.TrySend(i)).Should(Succeed())
		}
		for i := 0; i < 1000; i++ {
			v, err := r.TryRecv()
			Expect(err).ShouldNot(HaveOccurred())
			Expect(v).Should(Equal(i))
		}
	})

	It("PollReady is always immediately Ready", func() {
		s, _ := channel.NewUnbounded[int]()
		result, err := s.PollReady(poll.NewContext(poll.NopWaker, nil))
		Expect(err).ShouldNot(HaveOccurred())
		Expect(result.IsReady()).Should(BeTrue())
	})
})

var _ = Describe("UnboundedMulti", func() {
	It("supports many independent producers sharing one receiver", func() {
		senders, r := channel.NewUnboundedMulti[int](3)
		for i, s := range senders {
			Expect(s.TrySend(i)).Should(Succeed())
		}
		seen := map[int]bool{}
		for range senders {
			v, err := r.TryRecv()
			Expect(err).ShouldNot(HaveOccurred())
			seen[v] = true
		}
		Expect(seen).Should(HaveLen(3))
		for _, s := range senders {
			s.Close()
		}
		_, err := r.TryRecv()
		Expect(err).Should(MatchError(channel.ErrClosed))
	})
})

var _ = Describe("Oneshot", func() {
	It("delivers exactly one value", func() {
		s, r := channel.NewOneshot[string]()
		Expect(s.Send("hi")).Should(Succeed())

		v, err := r.Wait()
		Expect(err).ShouldNot(HaveOccurred())
		Expect(v).Should(Equal("hi"))
	})

	It("a second Send reports ErrClosed", func() {
		s, _ := channel.NewOneshot[int]()
		Expect(s.Send(1)).Should(Succeed())
		Expect(s.Send(2)).Should(MatchError(channel.ErrClosed))
	})

	It("Close without sending settles the receiver with ErrClosed", func() {
		s, r := channel.NewOneshot[int]()
		s.Close()
		_, err := r.Wait()
		Expect(err).Should(MatchError(channel.ErrClosed))
	})

	It("is pollable as a poll.Future[T]", func() {
		s, r := channel.NewOneshot[int]()
		result, err := r.Poll(poll.NewContext(poll.NopWaker, nil))
		Expect(err).ShouldNot(HaveOccurred())
		Expect(result.IsReady()).Should(BeFalse())

		go func() {
			time.Sleep(time.Millisecond)
			_ = s.Send(77)
		}()
		Eventually(func() bool {
			result, _ = r.Poll(poll.NewContext(poll.NopWaker, nil))
			return result.IsReady()
		}).Should(BeTrue())
		Expect(result.Value()).Should(Equal(77))
	})
})

var _ = Describe("Pipe", func() {
	It("splits into independent sender and receiver halves", func() {
		p := channel.NewPipe[int](2)
		s, r := p.Split()
		Expect(s.TrySend(1)).Should(Succeed())
		v, err := r.TryRecv()
		Expect(err).ShouldNot(HaveOccurred())
		Expect(v).Should(Equal(1))
	})
})
