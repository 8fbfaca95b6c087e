// Package tui renders the portfolio in a terminal: the same sections,
// directory panel and typewriter headings as the web page, driven by
// bubbletea.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/wangQuinn/portfolio/internal/content"
	"github.com/wangQuinn/portfolio/internal/effects/tesseract"
	"github.com/wangQuinn/portfolio/internal/frame"
	"github.com/wangQuinn/portfolio/internal/typewriter"
)

// Config wires runtime options into the TUI program.
type Config struct {
	Portfolio *content.Portfolio
	// FPS of the tesseract animation; frame.DefaultFPS when zero.
	FPS int
}

type slot int

const (
	slotHeading slot = iota
	slotTagline
)

const (
	directoryWidth = 24
	canvasWidth    = 48
	canvasHeight   = 20
	chromeHeight   = 6
)

type typeTickMsg struct {
	slot slot
	gen  uint64
}

type frameMsg time.Time

type caretMsg time.Time

// typer owns one typewriter. Every reset bumps gen so ticks scheduled for the
// previous section are dropped when they arrive.
type typer struct {
	machine *typewriter.Machine
	gen     uint64
}

func (t *typer) reset(s slot, cfg typewriter.Config) tea.Cmd {
	t.gen++
	t.machine = typewriter.New(cfg)
	d, ok := t.machine.Interval()
	if !ok {
		return nil
	}
	return typeTick(s, t.gen, d)
}

func (t *typer) tick(msg typeTickMsg) tea.Cmd {
	if t.machine == nil || msg.gen != t.gen {
		return nil
	}
	next, ok := t.machine.Step()
	if !ok {
		return nil
	}
	return typeTick(msg.slot, t.gen, next)
}

func (t *typer) text() string {
	if t.machine == nil {
		return ""
	}
	return t.machine.Text()
}

func typeTick(s slot, gen uint64, d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return typeTickMsg{slot: s, gen: gen} })
}

type model struct {
	portfolio *content.Portfolio
	nav       *content.Navigator

	heading typer
	tagline typer

	viewport viewport.Model
	width    int
	height   int

	frameInterval time.Duration
	spin          tesseract.Spinner
	canvas        *tesseract.Canvas

	start   time.Time
	caretOn bool
}

// New returns a tea.Model ready to be mounted into a Program.
func New(cfg Config) tea.Model {
	return newModel(cfg)
}

func newModel(cfg Config) *model {
	fps := cfg.FPS
	if fps <= 0 {
		fps = frame.DefaultFPS
	}
	return &model{
		portfolio:     cfg.Portfolio,
		nav:           content.NewNavigator(len(cfg.Portfolio.Sections)),
		viewport:      viewport.New(80, 20),
		width:         80,
		height:        24,
		frameInterval: time.Second / time.Duration(fps),
		canvas:        tesseract.NewCanvas(canvasWidth, canvasHeight),
		start:         time.Now(),
		caretOn:       true,
	}
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(m.enterSection(), m.frameTick(), caretTick())
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case typeTickMsg:
		if msg.slot == slotHeading {
			return m, m.heading.tick(msg)
		}
		return m, m.tagline.tick(msg)

	case frameMsg:
		if m.animating() {
			m.spin.Advance()
			m.refreshContent()
		}
		return m, m.frameTick()

	case caretMsg:
		m.caretOn = typewriter.CaretVisible(time.Time(msg).Sub(m.start))
		return m, caretTick()
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+c", "q":
		return tea.Quit
	case "up", "k":
		if m.nav.Prev() {
			return m.enterSection()
		}
	case "down", "j":
		if m.nav.Next() {
			return m.enterSection()
		}
	case "tab":
		m.nav.ToggleDirectory()
		m.layout()
	case "x":
		m.nav.CloseWindow()
	case "o", "enter":
		if !m.nav.WindowVisible() {
			m.nav.OpenWindow()
			m.layout()
			// the active section may have changed while closed
			return m.enterSection()
		}
	default:
		if r := msg.Runes; len(r) == 1 && r[0] >= '1' && r[0] <= '9' {
			if m.nav.Navigate(int(r[0]-'1')) && m.nav.WindowVisible() {
				return m.enterSection()
			}
			return nil
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd
	}
	return nil
}

// enterSection restarts both typewriters for the active section.
func (m *model) enterSection() tea.Cmd {
	sec := m.section()
	m.viewport.GotoTop()
	m.refreshContent()
	return tea.Batch(
		m.heading.reset(slotHeading, sec.HeadingTypewriter()),
		m.tagline.reset(slotTagline, sec.TaglineTypewriter()),
	)
}

func (m *model) section() content.Section {
	return m.portfolio.Sections[m.nav.Active()]
}

// animating reports whether the tesseract is on screen.
func (m *model) animating() bool {
	return m.nav.WindowVisible() && m.section().ID == content.SectionAbout
}

func (m *model) frameTick() tea.Cmd {
	return tea.Tick(m.frameInterval, func(t time.Time) tea.Msg { return frameMsg(t) })
}

func caretTick() tea.Cmd {
	return tea.Tick(typewriter.BlinkPeriod/2, func(t time.Time) tea.Msg { return caretMsg(t) })
}

func (m *model) contentWidth() int {
	w := m.width - 4
	if m.nav.DirectoryOpen() {
		w -= directoryWidth
	}
	return max(w, 20)
}

func (m *model) layout() {
	m.viewport.Width = m.contentWidth()
	m.viewport.Height = max(m.height-chromeHeight, 3)
	m.refreshContent()
}

func (m *model) refreshContent() {
	m.viewport.SetContent(m.renderSection(m.section(), m.contentWidth()))
}
