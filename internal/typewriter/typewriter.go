// Package typewriter implements the typed-text effect used by section headings
// and the intro taglines: a finite-state machine that reveals a phrase one
// character at a time, holds it, and then either deletes it and moves on to
// the next phrase (loop mode) or stops after the last phrase (run-once mode).
//
// The Machine itself never sleeps or schedules anything. Every call to Step
// performs exactly one tick and reports how long the caller should wait before
// the next one, so the same machine can be driven by a wall-clock timer
// (Runner + TimerScheduler), a bubbletea tick, or a test clock.
package typewriter

import (
	"time"
)

const (
	DefaultSpeed = 100 * time.Millisecond
	DefaultDelay = 1500 * time.Millisecond

	// MinInterval is the floor applied to every scheduling interval so a zero
	// or negative speed/delay cannot spin.
	MinInterval = time.Millisecond
)

// Config describes one typewriter instance.
type Config struct {
	Texts []string
	Speed time.Duration // per character while typing; deleting runs at Speed/2
	Delay time.Duration // hold time once a phrase is fully typed
	Loop  bool
}

// DefaultConfig returns a looping configuration with the default timings.
func DefaultConfig(texts ...string) Config {
	return Config{
		Texts: texts,
		Speed: DefaultSpeed,
		Delay: DefaultDelay,
		Loop:  true,
	}
}

// Frame is an observable snapshot of a Machine.
type Frame struct {
	Text      string `json:"text"`
	TextIndex int    `json:"text_index"`
	CharIndex int    `json:"char_index"`
	State     State  `json:"state"`
	Deleting  bool   `json:"deleting"`
	Paused    bool   `json:"paused"`
	Complete  bool   `json:"complete"`
}

// Machine owns the typing state for a sequence of phrases.
type Machine struct {
	texts [][]rune
	speed time.Duration
	delay time.Duration
	loop  bool

	state     State
	textIndex int
	charIndex int
	displayed string
}

// New creates a machine positioned at the start of the first phrase.
func New(cfg Config) *Machine {
	m := &Machine{
		speed: clamp(cfg.Speed),
		delay: clamp(cfg.Delay),
	}
	m.Reset(cfg.Texts, cfg.Loop)
	return m
}

// Reset replaces the phrases and loop mode and rewinds to the initial state.
// Calling it twice with the same arguments yields the same state.
func (m *Machine) Reset(texts []string, loop bool) {
	m.texts = make([][]rune, len(texts))
	for i, t := range texts {
		m.texts[i] = []rune(t)
	}
	m.loop = loop
	m.state = StateTyping
	m.textIndex = 0
	m.charIndex = 0
	m.displayed = ""
}

// Interval returns the wait before the first tick. ok is false when there is
// nothing to animate.
func (m *Machine) Interval() (time.Duration, bool) {
	switch {
	case len(m.texts) == 0, m.state == StateDone:
		return 0, false
	case m.state == StatePausedAtFull:
		return m.delay, true
	case m.state == StateDeleting:
		return m.deleteInterval(), true
	default:
		return m.speed, true
	}
}

// Step performs one tick and returns the wait before the next one. When ok is
// false the machine is idle (no phrases, or finished) and must not be ticked
// again until Reset.
func (m *Machine) Step() (next time.Duration, ok bool) {
	if len(m.texts) == 0 || m.state == StateDone {
		return 0, false
	}

	phrase := m.texts[m.textIndex]
	switch m.state {
	case StateTyping:
		if m.charIndex < len(phrase) {
			m.charIndex++
		}
		m.refresh()
		if m.charIndex == len(phrase) {
			m.state = StatePausedAtFull
			return m.delay, true
		}
		return m.speed, true

	case StatePausedAtFull:
		if m.loop {
			m.state = StateDeleting
			return m.deleteInterval(), true
		}
		if m.textIndex == len(m.texts)-1 {
			m.state = StateDone
			return 0, false
		}
		m.textIndex++
		m.charIndex = 0
		m.refresh()
		m.state = StateTyping
		return m.speed, true

	case StateDeleting:
		if m.charIndex > 0 {
			m.charIndex--
		}
		m.refresh()
		if m.charIndex == 0 {
			m.textIndex = (m.textIndex + 1) % len(m.texts)
			m.state = StateTyping
			return m.speed, true
		}
		return m.deleteInterval(), true
	}

	return 0, false
}

// Text returns the currently displayed prefix.
func (m *Machine) Text() string { return m.displayed }

// State returns the current state.
func (m *Machine) State() State { return m.state }

// Complete reports whether a run-once sequence has finished.
func (m *Machine) Complete() bool { return m.state == StateDone }

// Snapshot returns the current observable state.
func (m *Machine) Snapshot() Frame {
	return Frame{
		Text:      m.displayed,
		TextIndex: m.textIndex,
		CharIndex: m.charIndex,
		State:     m.state,
		Deleting:  m.state == StateDeleting,
		Paused:    m.state == StatePausedAtFull,
		Complete:  m.state == StateDone,
	}
}

func (m *Machine) refresh() {
	if len(m.texts) == 0 {
		m.displayed = ""
		return
	}
	m.displayed = string(m.texts[m.textIndex][:m.charIndex])
}

func (m *Machine) deleteInterval() time.Duration {
	return clamp(m.speed / 2)
}

func clamp(d time.Duration) time.Duration {
	if d < MinInterval {
		return MinInterval
	}
	return d
}
