package typewriter

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type frameLog struct {
	mu     sync.Mutex
	frames []Frame
}

func (l *frameLog) record(f Frame) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.frames = append(l.frames, f)
}

func (l *frameLog) texts() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.frames))
	for i, f := range l.frames {
		out[i] = f.Text
	}
	return out
}

func TestRunner_LoopScenarioOnManualClock(t *testing.T) {
	clock := NewManualClock()
	log := &frameLog{}
	r := NewRunner(New(Config{Texts: []string{"ab", "cd"}, Speed: 10 * time.Millisecond, Loop: true}), clock, log.record)

	r.Start()
	require.Equal(t, 1, clock.Pending())

	for i := 0; i < 11; i++ {
		require.True(t, clock.RunNext())
		assert.Equal(t, 1, clock.Pending(), "each tick arms exactly one successor")
	}

	assert.Equal(t, []string{"a", "ab", "a", "", "c", "cd", "c", "", "a"}, dedupe(log.texts()))
}

func TestRunner_Timing(t *testing.T) {
	clock := NewManualClock()
	log := &frameLog{}
	r := NewRunner(New(Config{Texts: []string{"ab"}, Speed: 10 * time.Millisecond, Delay: 30 * time.Millisecond, Loop: true}), clock, log.record)
	r.Start()

	assert.Equal(t, 0, clock.Advance(9*time.Millisecond))
	assert.Equal(t, 1, clock.Advance(time.Millisecond))
	assert.Equal(t, "a", r.Frame().Text)

	assert.Equal(t, 1, clock.Advance(10*time.Millisecond))
	assert.Equal(t, "ab", r.Frame().Text)

	// held for the full delay
	assert.Equal(t, 0, clock.Advance(29*time.Millisecond))
	assert.Equal(t, 1, clock.Advance(time.Millisecond))
	assert.True(t, r.Frame().Deleting)

	// deleting runs at half speed
	assert.Equal(t, 1, clock.Advance(5*time.Millisecond))
	assert.Equal(t, "a", r.Frame().Text)
}

func TestRunner_RunOnceStopsScheduling(t *testing.T) {
	clock := NewManualClock()
	log := &frameLog{}
	r := NewRunner(New(Config{Texts: []string{"Hi"}, Speed: 10 * time.Millisecond, Loop: false}), clock, log.record)
	r.Start()

	for clock.RunNext() {
	}

	assert.Equal(t, []string{"H", "Hi", "Hi"}, log.texts())
	f := r.Frame()
	assert.True(t, f.Complete)
	assert.Equal(t, "Hi", f.Text)
	assert.False(t, r.Pending())
	assert.Equal(t, 0, clock.Pending())

	clock.Advance(time.Hour)
	assert.Len(t, log.frames, 3)
}

func TestRunner_EmptyTextsNeverSchedules(t *testing.T) {
	clock := NewManualClock()
	log := &frameLog{}
	r := NewRunner(New(DefaultConfig()), clock, log.record)

	r.Start()
	clock.Advance(time.Minute)

	assert.Equal(t, 0, clock.Pending())
	assert.Empty(t, log.frames)
	assert.Equal(t, "", r.Frame().Text)
}

func TestRunner_ResetCancelsPendingTick(t *testing.T) {
	clock := NewManualClock()
	log := &frameLog{}
	r := NewRunner(New(Config{Texts: []string{"hello"}, Speed: 10 * time.Millisecond, Loop: true}), clock, log.record)
	r.Start()
	clock.Advance(30 * time.Millisecond)
	require.Equal(t, "hel", r.Frame().Text)

	r.Reset([]string{"hello"}, true)

	assert.Equal(t, 1, clock.Pending())
	f := r.Frame()
	assert.Equal(t, "", f.Text)
	assert.Equal(t, 0, f.TextIndex)
	assert.Equal(t, 0, f.CharIndex)

	clock.Advance(10 * time.Millisecond)
	assert.Equal(t, "h", r.Frame().Text)
}

func TestRunner_StopCancelsPendingTick(t *testing.T) {
	clock := NewManualClock()
	r := NewRunner(New(Config{Texts: []string{"abc"}, Speed: 10 * time.Millisecond, Loop: true}), clock, nil)
	r.Start()
	clock.Advance(10 * time.Millisecond)

	r.Stop()
	assert.Equal(t, 0, clock.Pending())
	clock.Advance(time.Second)
	assert.Equal(t, "a", r.Frame().Text)
}

// capturingScheduler never cancels, so it can replay a callback that was
// already in flight when the runner was reset.
type capturingScheduler struct {
	fns []func()
}

func (s *capturingScheduler) Schedule(_ time.Duration, fn func()) func() {
	s.fns = append(s.fns, fn)
	return func() {}
}

func TestRunner_StaleTickIsIgnored(t *testing.T) {
	sched := &capturingScheduler{}
	r := NewRunner(New(Config{Texts: []string{"xyz"}, Speed: time.Millisecond, Loop: true}), sched, nil)
	r.Start()
	require.Len(t, sched.fns, 1)
	stale := sched.fns[0]

	r.Reset([]string{"xyz"}, false)
	require.Len(t, sched.fns, 2)

	stale()
	assert.Equal(t, "", r.Frame().Text, "a tick armed before Reset must not mutate state")

	sched.fns[1]()
	assert.Equal(t, "x", r.Frame().Text)

	r.Stop()
	sched.fns[2]()
	assert.Equal(t, "x", r.Frame().Text)
}

func TestRunner_StartTwiceArmsOnce(t *testing.T) {
	clock := NewManualClock()
	r := NewRunner(New(DefaultConfig("a")), clock, nil)
	r.Start()
	r.Start()
	assert.Equal(t, 1, clock.Pending())
}

func TestRunner_TimerScheduler(t *testing.T) {
	done := make(chan Frame, 8)
	r := NewRunner(New(Config{Texts: []string{"ok"}, Speed: time.Millisecond, Loop: false}), TimerScheduler{}, func(f Frame) {
		if f.Complete {
			done <- f
		}
	})
	r.Start()
	defer r.Stop()

	select {
	case f := <-done:
		assert.Equal(t, "ok", f.Text)
	case <-time.After(2 * time.Second):
		t.Fatal("typewriter did not complete on the wall clock")
	}
}
