// Package frame abstracts "call me on the next display refresh" so per-frame
// effects can run against a wall-clock ticker in production and a hand-cranked
// scheduler in tests.
package frame

import (
	"sync"
	"time"
)

// DefaultFPS is the refresh rate used when none is configured.
const DefaultFPS = 30

// ID identifies a pending frame request.
type ID uint64

// Callback receives the time elapsed since the scheduler was created.
type Callback func(now time.Duration)

// Scheduler delivers one callback per request on the next frame.
type Scheduler interface {
	Request(cb Callback) ID
	Cancel(id ID)
}

// TickerScheduler fires requests on a fixed-rate wall clock.
type TickerScheduler struct {
	interval time.Duration
	start    time.Time

	mu      sync.Mutex
	nextID  ID
	pending map[ID]*time.Timer
}

// NewTickerScheduler returns a scheduler refreshing fps times per second.
func NewTickerScheduler(fps int) *TickerScheduler {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &TickerScheduler{
		interval: time.Second / time.Duration(fps),
		start:    time.Now(),
		pending:  make(map[ID]*time.Timer),
	}
}

func (s *TickerScheduler) Request(cb Callback) ID {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID

	// align to the next frame boundary so consecutive requests keep a steady cadence
	elapsed := time.Since(s.start)
	wait := s.interval - elapsed%s.interval

	s.pending[id] = time.AfterFunc(wait, func() {
		s.mu.Lock()
		_, live := s.pending[id]
		delete(s.pending, id)
		s.mu.Unlock()
		if live {
			cb(time.Since(s.start))
		}
	})
	return id
}

func (s *TickerScheduler) Cancel(id ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.pending[id]; ok {
		t.Stop()
		delete(s.pending, id)
	}
}

// ManualScheduler queues requests until Fire is called.
type ManualScheduler struct {
	mu      sync.Mutex
	nextID  ID
	pending map[ID]Callback
	order   []ID
}

func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{pending: make(map[ID]Callback)}
}

func (s *ManualScheduler) Request(cb Callback) ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.pending[s.nextID] = cb
	s.order = append(s.order, s.nextID)
	return s.nextID
}

func (s *ManualScheduler) Cancel(id ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, id)
}

// Pending returns the number of outstanding requests.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Fire delivers every request outstanding at call time with the given
// timestamp. Requests made by those callbacks wait for the next Fire.
func (s *ManualScheduler) Fire(now time.Duration) int {
	s.mu.Lock()
	order := s.order
	s.order = nil
	var due []Callback
	for _, id := range order {
		if cb, ok := s.pending[id]; ok {
			due = append(due, cb)
			delete(s.pending, id)
		}
	}
	s.mu.Unlock()

	for _, cb := range due {
		cb(now)
	}
	return len(due)
}
