package typewriter

import (
	"sync"
	"time"
)

// Scheduler defers fn by d. The returned function cancels the callback if it
// has not started yet.
type Scheduler interface {
	Schedule(d time.Duration, fn func()) (cancel func())
}

// Runner drives a Machine from a Scheduler. At most one tick is pending at any
// time; each tick runs to completion and arms its successor.
type Runner struct {
	mu      sync.Mutex
	machine *Machine
	sched   Scheduler
	onFrame func(Frame)

	running bool
	gen     uint64
	cancel  func()
}

// NewRunner wires m to sched. onFrame is called after every tick and after
// Reset, with the runner locked, so it must not call back into the Runner.
func NewRunner(m *Machine, sched Scheduler, onFrame func(Frame)) *Runner {
	return &Runner{
		machine: m,
		sched:   sched,
		onFrame: onFrame,
	}
}

// Start arms the first tick. It is a no-op when already running or when the
// machine has nothing to animate.
func (r *Runner) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return
	}
	r.running = true
	r.armLocked(r.machine.Interval())
}

// Stop cancels the pending tick. A tick already in flight is discarded.
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.running = false
	r.disarmLocked()
}

// Reset cancels any pending tick, rewinds the machine to the new
// configuration and, if the runner was started, re-arms it.
func (r *Runner) Reset(texts []string, loop bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.disarmLocked()
	r.machine.Reset(texts, loop)
	r.publishLocked()
	if r.running {
		r.armLocked(r.machine.Interval())
	}
}

// Frame returns the machine's current snapshot.
func (r *Runner) Frame() Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.machine.Snapshot()
}

// Pending reports whether a tick is currently scheduled.
func (r *Runner) Pending() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancel != nil
}

func (r *Runner) tick(gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Reset or Stop happened after this callback was armed.
	if gen != r.gen || !r.running {
		return
	}
	r.cancel = nil

	next, ok := r.machine.Step()
	r.publishLocked()
	r.armLocked(next, ok)
}

func (r *Runner) armLocked(d time.Duration, ok bool) {
	if !ok {
		return
	}
	gen := r.gen
	r.cancel = r.sched.Schedule(d, func() { r.tick(gen) })
}

func (r *Runner) disarmLocked() {
	r.gen++
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}

func (r *Runner) publishLocked() {
	if r.onFrame != nil {
		r.onFrame(r.machine.Snapshot())
	}
}
