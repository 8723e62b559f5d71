/**
 * Copyright (c) 2019, The Artemis Authors.
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

package executor

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/coopkit/coop/internal/atomics"
	"github.com/coopkit/coop/poll"
	"github.com/coopkit/coop/scheduler"
)

// Run-state values packed into the high 32 bits of ThreadPoolExecutor's
// state word, mirroring workerPoolExecutorState's run-state-in-high-bits,
// worker-count-in-low-bits packing in the teacher.
const (
	poolRunning    uint64 = 0
	poolShutdown   uint64 = 1
	poolTerminated uint64 = 2
)

const poolStateShift = 32
const poolCountMask = 0x00000000FFFFFFFF

func poolState(word uint64) uint64  { return word >> poolStateShift }
func poolCount(word uint64) uint64  { return word & poolCountMask }
func packPool(state, count uint64) uint64 { return state<<poolStateShift | count }

// ErrThreadPoolClosed is returned by Submit/Spawn once Close has been
// called, matching concurrent/queue.go's ErrQueueClosed in spirit.
var ErrThreadPoolClosed = errors.New("executor: thread pool is closed")

// ThreadPoolConfig configures a ThreadPoolExecutor.
type ThreadPoolConfig struct {
	// Schedulers is the fixed number of independently-driven LocalSchedulers
	// in the pool. Zero selects runtime.GOMAXPROCS(-1) (set by
	// NewThreadPoolExecutor).
	Schedulers int
	// SchedulerConfig is passed through to every pooled LocalScheduler.
	SchedulerConfig scheduler.Config
}

// Validate reports a configuration error, following
// WorkerPoolExecutorConfig.Validate's style in the teacher.
func (c ThreadPoolConfig) Validate() error {
	if c.Schedulers < 0 {
		return errors.New("executor: Schedulers must not be negative")
	}
	return nil
}

// ThreadPoolExecutor is a fixed pool of goroutines, each driving its own
// independent scheduler.LocalScheduler — so, per the "no work stealing
// across executors" non-goal, no worker ever touches another worker's
// active list or ready queue. Submit/Spawn pick a worker round-robin.
// Grounded on, and the most heavily adapted file from, worker_pool_executor.go:
// the same packed (run-state, count) int64 word and Shutdown()/termination-
// channel protocol, but each worker's unit of work is "drive one
// LocalScheduler until Close" instead of "run one synchronous Task.Run()".
type ThreadPoolExecutor struct {
	cfg       ThreadPoolConfig
	workers   []*scheduler.LocalScheduler
	next      atomic.Uint64
	state     atomics.Bitset64
	wg        sync.WaitGroup
	terminate chan bool
}

// NewThreadPoolExecutor builds and starts a ThreadPoolExecutor: every
// pooled scheduler's Run loop is already running in its own goroutine by
// the time this returns.
func NewThreadPoolExecutor(cfg ThreadPoolConfig) (*ThreadPoolExecutor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Schedulers == 0 {
		cfg.Schedulers = defaultParallelism()
	}

	p := &ThreadPoolExecutor{
		cfg:       cfg,
		workers:   make([]*scheduler.LocalScheduler, cfg.Schedulers),
		terminate: make(chan bool, 1),
	}
	p.state.Store(packPool(poolRunning, uint64(cfg.Schedulers)))

	for i := range p.workers {
		s, err := scheduler.New(cfg.SchedulerConfig)
		if err != nil {
			return nil, err
		}
		p.workers[i] = s
	}

	p.wg.Add(len(p.workers))
	for _, s := range p.workers {
		s := s
		go func() {
			defer p.wg.Done()
			defer p.workerExited()
			s.Run()
		}()
	}

	go func() {
		p.wg.Wait()
		p.state.Store(packPool(poolTerminated, 0))
		select {
		case p.terminate <- true:
		default:
		}
		close(p.terminate)
	}()

	return p, nil
}

func defaultParallelism() int {
	n := runtime.GOMAXPROCS(-1)
	if n < 1 {
		return 1
	}
	return n
}

func (p *ThreadPoolExecutor) workerExited() {
	for {
		old := p.state.Load()
		if poolCount(old) == 0 {
			return
		}
		if p.state.CompareAndSwap(old, packPool(poolState(old), poolCount(old)-1)) {
			return
		}
	}
}

func (p *ThreadPoolExecutor) pick() *scheduler.LocalScheduler {
	i := p.next.Add(1) - 1
	return p.workers[i%uint64(len(p.workers))]
}

// TrySubmit picks a worker round-robin and submits f to it without a
// handle.
func (p *ThreadPoolExecutor) TrySubmit(f poll.BoxedFuture) error {
	if poolState(p.state.Load()) != poolRunning {
		return ErrThreadPoolClosed
	}
	return p.pick().TrySubmit(f)
}

// Submit is the blocking variant of TrySubmit; identical to it since
// admission onto a pooled scheduler never blocks.
func (p *ThreadPoolExecutor) Submit(f poll.BoxedFuture) error { return p.TrySubmit(f) }

// TrySpawn picks a worker round-robin and returns a cancellable handle to
// the spawned task.
func (p *ThreadPoolExecutor) TrySpawn(f poll.BoxedFuture) (*scheduler.Task, error) {
	if poolState(p.state.Load()) != poolRunning {
		return nil, ErrThreadPoolClosed
	}
	return p.pick().TrySpawn(f)
}

// Spawn is the blocking variant of TrySpawn; identical to it for the same
// reason Submit is identical to TrySubmit.
func (p *ThreadPoolExecutor) Spawn(f poll.BoxedFuture) (*scheduler.Task, error) {
	return p.TrySpawn(f)
}

// Shutdown stops accepting new work and closes every pooled scheduler,
// letting already-spawned tasks run to completion. It returns a channel
// that receives true once every worker goroutine has exited, mirroring
// concurrent.Executor.Shutdown's <-chan bool result.
func (p *ThreadPoolExecutor) Shutdown() <-chan bool {
	for {
		old := p.state.Load()
		if poolState(old) != poolRunning {
			break
		}
		if p.state.CompareAndSwap(old, packPool(poolShutdown, poolCount(old))) {
			break
		}
	}
	for _, s := range p.workers {
		s.Close()
	}
	return p.terminate
}

// Run implements BlockingExecutor by blocking the calling goroutine until
// every pooled scheduler has terminated (i.e. until Shutdown has been
// called and all workers have drained).
func (p *ThreadPoolExecutor) Run() {
	<-p.terminate
}

// Close is Shutdown without waiting for termination, so ThreadPoolExecutor
// satisfies BlockingExecutor.
func (p *ThreadPoolExecutor) Close() {
	p.Shutdown()
}

var (
	_ Executor         = (*ThreadPoolExecutor)(nil)
	_ BlockingExecutor = (*ThreadPoolExecutor)(nil)
)
