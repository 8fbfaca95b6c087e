package frame

import (
	"sync"
	"time"
)

// Loop re-requests a frame after every step until stopped. Hiding the loop
// drops the pending frame; showing it again resumes from the next frame.
type Loop struct {
	sched Scheduler
	step  Callback

	mu      sync.Mutex
	running bool
	hidden  bool
	pending ID
	armed   bool
	frames  uint64
}

func NewLoop(sched Scheduler, step Callback) *Loop {
	return &Loop{sched: sched, step: step}
}

func (l *Loop) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		return
	}
	l.running = true
	l.armLocked()
}

func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.running = false
	l.disarmLocked()
}

// SetHidden mirrors a page visibility change.
func (l *Loop) SetHidden(hidden bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.hidden == hidden {
		return
	}
	l.hidden = hidden
	if hidden {
		l.disarmLocked()
		return
	}
	l.armLocked()
}

// Frames returns how many steps have run.
func (l *Loop) Frames() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frames
}

func (l *Loop) armLocked() {
	if !l.running || l.hidden || l.armed {
		return
	}
	var id ID
	id = l.sched.Request(func(now time.Duration) {
		l.mu.Lock()
		if !l.armed || l.pending != id {
			l.mu.Unlock()
			return
		}
		l.armed = false
		l.frames++
		l.mu.Unlock()

		l.step(now)

		l.mu.Lock()
		l.armLocked()
		l.mu.Unlock()
	})
	l.pending = id
	l.armed = true
}

func (l *Loop) disarmLocked() {
	if l.armed {
		l.sched.Cancel(l.pending)
		l.armed = false
	}
}
