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

// Package scheduler implements the single-threaded, demand-driven task
// driver every executor in this module is built from: a ready queue of
// tasks that have been woken, an active list of all tasks not yet released,
// and a bounded node cache so steady-state spawn/complete cycles do not
// allocate. Exactly one goroutine ever drives a given LocalScheduler's ready
// queue at a time (via Run or RunUntil); Spawn/Submit/Cancel may be called
// from any goroutine.
package scheduler

import (
	"errors"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/coopkit/coop/atomicwaker"
	"github.com/coopkit/coop/internal/atomics"
	"github.com/coopkit/coop/internal/readyqueue"
	"github.com/coopkit/coop/poll"
	"github.com/modern-go/concurrent"
)

// ErrSchedulerClosed is returned by Spawn/Submit once the scheduler has
// been closed, matching the vocabulary of concurrent/queue.go's
// ErrQueueClosed.
var ErrSchedulerClosed = errors.New("scheduler: closed")

// DefaultNodeCacheCap bounds how many released Task nodes LocalScheduler
// keeps around for reuse. The spec leaves this cap unspecified; an
// unbounded cache would let a bursty spawn/complete workload retain
// memory indefinitely, so this implementation picks a fixed bound instead
// (see DESIGN.md).
const DefaultNodeCacheCap = 256

// Config configures a LocalScheduler.
type Config struct {
	// NodeCacheCap bounds the released-task free list. Zero selects
	// DefaultNodeCacheCap.
	NodeCacheCap int
	// Diagnostics enables LocalScheduler.Registry(), a best-effort
	// task-ID-to-*Task view backed by github.com/modern-go/concurrent's
	// Map. Off by default since it costs a map insert/delete per task.
	Diagnostics bool
}

// Validate reports a configuration error, following
// WorkerPoolExecutorConfig.Validate's style in the teacher.
func (c Config) Validate() error {
	if c.NodeCacheCap < 0 {
		return errors.New("scheduler: NodeCacheCap must not be negative")
	}
	return nil
}

// LocalScheduler is a single-threaded task driver: component E of this
// module. It implements poll.Spawner so futures polled under it can Submit
// more work or Yield, and it implements executor.Executor/BlockingExecutor
// (see package executor) so it can be used directly as a façade.
type LocalScheduler struct {
	cfg Config

	ready *readyqueue.Queue

	activeMu   sync.Mutex
	activeHead Task // sentinel; next/prev form a circular doubly-linked list

	cacheMu sync.Mutex
	cache   []*Task

	// idleWaker is the scheduler's own atomicwaker.AtomicWaker (component C),
	// registered with a park waker by the driver goroutine whenever the
	// ready queue runs dry and signalled by enqueue (called from Task.Wake,
	// possibly from any goroutine) — the same register/signal contract
	// every other leaf future in this module is built on, just used here to
	// wake a parked driver thread instead of re-polling a future.
	idleWaker atomicwaker.AtomicWaker
	closed    atomics.Bitset32

	nextID   atomic.Uint64
	registry *concurrent.Map
}

// New builds a LocalScheduler with the given configuration.
func New(cfg Config) (*LocalScheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.NodeCacheCap == 0 {
		cfg.NodeCacheCap = DefaultNodeCacheCap
	}
	s := &LocalScheduler{
		cfg:   cfg,
		ready: readyqueue.New(),
	}
	s.activeHead.next = &s.activeHead
	s.activeHead.prev = &s.activeHead
	if cfg.Diagnostics {
		s.registry = concurrent.NewMap()
	}
	return s, nil
}

// taskFromNode recovers the enclosing Task from its intrusive ready-queue
// node pointer. readyNode is Task's first field, so the two addresses
// coincide; this is the same intrusive-container cast the teacher's own
// workerPoolTaskQueue performs via unsafe.Pointer on its tail pointer.
func taskFromNode(n *readyqueue.Node) *Task {
	return (*Task)(unsafe.Pointer(n))
}

func (s *LocalScheduler) newTask(f poll.BoxedFuture) *Task {
	t := s.popCached()
	if t == nil {
		t = &Task{}
	} else {
		*t = Task{}
	}
	t.future = f
	t.sched = s
	t.ctx = poll.NewContext(t, s)
	t.state.Store(stateIdle)
	return t
}

func (s *LocalScheduler) popCached() *Task {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	n := len(s.cache)
	if n == 0 {
		return nil
	}
	t := s.cache[n-1]
	s.cache = s.cache[:n-1]
	return t
}

func (s *LocalScheduler) pushCached(t *Task) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if len(s.cache) >= s.cfg.NodeCacheCap {
		return
	}
	s.cache = append(s.cache, t)
}

func (s *LocalScheduler) addActive(t *Task) {
	s.activeMu.Lock()
	defer s.activeMu.Unlock()
	head := &s.activeHead
	t.prev = head.prev
	t.next = head
	head.prev.next = t
	head.prev = t
	if s.registry != nil {
		id := s.nextID.Add(1)
		t.diagID = id
		s.registry.Store(id, t)
	}
}

func (s *LocalScheduler) removeActive(t *Task) {
	s.activeMu.Lock()
	defer s.activeMu.Unlock()
	if t.next == nil || t.prev == nil {
		return
	}
	t.prev.next = t.next
	t.next.prev = t.prev
	t.next, t.prev = nil, nil
	if s.registry != nil {
		s.registry.Delete(t.diagID)
	}
}

// enqueue pushes t onto the ready queue and wakes a parked driver, if any,
// via the scheduler's idle AtomicWaker. Called from Task.Wake, possibly
// from any goroutine.
func (s *LocalScheduler) enqueue(t *Task) {
	s.ready.Push(&t.readyNode)
	s.idleWaker.Signal()
}

// TrySpawnBoxed admits a type-erased future to the scheduler, returning a
// handle whose Cancel cancels it. It is the primitive promise.Spawn and
// channel's internals build on.
func (s *LocalScheduler) TrySpawnBoxed(f poll.BoxedFuture) (*Task, error) {
	if s.closed.Load() != 0 {
		return nil, ErrSchedulerClosed
	}
	t := s.newTask(f)
	s.addActive(t)
	t.enqueued.Store(1)
	s.enqueue(t)
	return t, nil
}

// TrySubmitBoxed implements poll.Spawner: fire-and-forget admission with no
// handle returned.
func (s *LocalScheduler) TrySubmitBoxed(f poll.BoxedFuture) error {
	_, err := s.TrySpawnBoxed(f)
	return err
}

// TrySubmit is the executor.Executor façade name for TrySubmitBoxed. The
// ready queue backing LocalScheduler is unbounded, so TrySubmit never fails
// for lack of room — only ErrSchedulerClosed can occur.
func (s *LocalScheduler) TrySubmit(f poll.BoxedFuture) error { return s.TrySubmitBoxed(f) }

// Submit is the blocking variant of TrySubmit. Since admission never
// blocks on this scheduler, it is identical to TrySubmit; the separate
// name exists so LocalScheduler satisfies executor.Executor's full façade.
func (s *LocalScheduler) Submit(f poll.BoxedFuture) error { return s.TrySubmitBoxed(f) }

// TrySpawn is the executor.Executor façade name for TrySpawnBoxed.
func (s *LocalScheduler) TrySpawn(f poll.BoxedFuture) (*Task, error) { return s.TrySpawnBoxed(f) }

// Spawn is the blocking variant of TrySpawn; identical to it here for the
// same reason Submit is identical to TrySubmit.
func (s *LocalScheduler) Spawn(f poll.BoxedFuture) (*Task, error) {
	return s.TrySpawnBoxed(f)
}

// SpawnBoxed implements poll.Spawner: it is TrySpawnBoxed's type-erased
// counterpart, used by Context.Spawn so a future polled inside its own Poll
// call can spawn a cancellable child without needing a concrete
// *LocalScheduler reference — only the Context it was already handed.
func (s *LocalScheduler) SpawnBoxed(f poll.BoxedFuture) (poll.TaskHandle, error) {
	t, err := s.TrySpawnBoxed(f)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Yield implements poll.Spawner: it simply re-signals w, which for a task's
// own waker means "put me back on the ready queue for the next tick."
func (s *LocalScheduler) Yield(w poll.Waker) {
	if w != nil {
		_ = w.Wake()
	}
}

// release finalizes a completed or cancelled task: removes it from the
// active list and returns its node to the cache.
func (s *LocalScheduler) release(t *Task) {
	t.state.Store(stateReleased)
	t.flags.FetchOr(flagDestroyed)
	s.removeActive(t)
	s.pushCached(t)
}

// tick drains the ready queue once, polling each task it pops. A task woken
// during its own poll is pushed back onto the queue and so is polled again
// within the same drain. It reports whether it popped at least one task, so
// Run/RunUntil know whether to park.
func (s *LocalScheduler) tick() bool {
	progressed := false
	for {
		n := s.ready.Pop()
		if n == nil {
			break
		}
		t := taskFromNode(n)
		progressed = true
		if t.flags.Load()&flagDestroyed != 0 {
			continue
		}
		t.enqueued.Store(0)
		t.state.Store(stateRunning)
		done, _ := t.future.PollBoxed(t.ctx)
		if done {
			t.state.Store(stateComplete)
			s.release(t)
		} else {
			t.state.Store(stateIdle)
		}
	}
	return progressed
}

// parkChan is a one-shot poll.Waker backing a single park/unpark cycle: its
// Wake delivers a buffered signal on ch, which the parked driver goroutine
// is blocked receiving from. It is the counting-semaphore-backed waker
// spec.md §4.7 calls for between a blocking executor's ticks, sized down to
// a single slot since at most one wakeup is ever meaningful per park.
type parkChan struct {
	ch chan struct{}
}

func newParkChan() *parkChan { return &parkChan{ch: make(chan struct{}, 1)} }

func (p *parkChan) Wake() error {
	select {
	case p.ch <- struct{}{}:
	default:
	}
	return nil
}

// park registers a fresh parkChan with the scheduler's idle AtomicWaker and
// blocks the calling goroutine until enqueue or Close signals it. The
// ready-queue/closed re-check after registering (and before blocking)
// closes the same register/signal race atomicwaker.AtomicWaker itself
// resolves: a Wake that lands between our last check and Register taking
// effect is still observed, because Register's own contract guarantees a
// racing Signal is delivered to the very waker being installed.
func (s *LocalScheduler) park() {
	pc := newParkChan()
	s.idleWaker.Register(pc)
	if !s.ready.Empty() || s.closed.Load() != 0 {
		return
	}
	<-pc.ch
}

// Run drives the scheduler forever, parking the calling goroutine whenever
// the ready queue is empty, until Close is called.
func (s *LocalScheduler) Run() {
	for s.closed.Load() == 0 {
		if !s.tick() {
			if s.closed.Load() != 0 {
				return
			}
			s.park()
		}
	}
}

// Close stops Run/RunUntil once the ready queue next drains, and causes
// any future Spawn/Submit to fail with ErrSchedulerClosed. Already-spawned
// tasks are left to complete or be cancelled by their owners; Close does
// not cancel them itself.
func (s *LocalScheduler) Close() {
	s.closed.Store(1)
	s.idleWaker.Signal()
}

// Registry returns a diagnostic view of currently active tasks: each entry
// maps an opaque per-scheduler-lifetime ID to the live *Task (not a copy of
// its state). Returns nil if the
// scheduler was built without Config.Diagnostics.
func (s *LocalScheduler) Registry() *concurrent.Map {
	return s.registry
}
