package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/wangQuinn/portfolio/internal/content"
	"github.com/wangQuinn/portfolio/internal/effects/tesseract"
	"github.com/wangQuinn/portfolio/internal/typewriter"
)

var (
	inkColor    = lipgloss.Color("236")
	accentColor = lipgloss.Color("97")
	mutedColor  = lipgloss.Color("244")

	windowStyle    = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(inkColor)
	titlebarStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255")).Background(inkColor).Padding(0, 1)
	directoryStyle = lipgloss.NewStyle().Width(directoryWidth).BorderRight(true).BorderStyle(lipgloss.NormalBorder()).BorderForeground(inkColor).PaddingRight(1)
	fileStyle      = lipgloss.NewStyle().PaddingLeft(1)
	activeStyle    = lipgloss.NewStyle().PaddingLeft(1).Bold(true).Reverse(true)
	headingStyle   = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	subtitleStyle  = lipgloss.NewStyle().Italic(true)
	periodStyle    = lipgloss.NewStyle().Foreground(mutedColor)
	entryStyle     = lipgloss.NewStyle().Bold(true)
	helperStyle    = lipgloss.NewStyle().Foreground(mutedColor)
	closedStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(inkColor).Padding(1, 3)
)

func (m *model) View() string {
	if !m.nav.WindowVisible() {
		box := closedStyle.Render(m.portfolio.Owner + "\n\n" + helperStyle.Render("press o to open"))
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
	}

	title := titlebarStyle.Width(max(m.width-2, 10)).Render(m.portfolio.WindowTitle)

	main := lipgloss.JoinVertical(lipgloss.Left,
		m.headingView(),
		m.viewport.View(),
	)
	body := main
	if m.nav.DirectoryOpen() {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.directoryView(), " ", main)
	}

	help := helperStyle.Render("↑/↓ sections · 1-9 jump · tab directory · x close · q quit")
	return lipgloss.JoinVertical(lipgloss.Left, windowStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, body)), help)
}

func (m *model) headingView() string {
	lines := []string{headingStyle.Render(typewriter.Render(m.heading.text(), m.caretOn))}
	if len(m.section().Descriptions) > 0 {
		lines = append(lines, subtitleStyle.Render(typewriter.Render(m.tagline.text(), m.caretOn)))
	}
	return strings.Join(lines, "\n")
}

func (m *model) directoryView() string {
	var rows []string
	for i, sec := range m.portfolio.Sections {
		style := fileStyle
		if i == m.nav.Active() {
			style = activeStyle
		}
		rows = append(rows, style.Render(fmt.Sprintf("%d %s", i+1, sec.FileName())))
	}
	return directoryStyle.Render(strings.Join(rows, "\n"))
}

// renderSection lays out everything below the heading, wrapped to width.
func (m *model) renderSection(sec content.Section, width int) string {
	var b strings.Builder
	para := func(s string) {
		b.WriteString(wordwrap.String(s, width))
		b.WriteString("\n")
	}

	for _, s := range sec.Subtitle {
		para(subtitleStyle.Render(s))
	}

	if sec.Content != "" {
		para(sec.Content)
		b.WriteString("\n")
		m.canvas.Clear()
		tesseract.Rasterise(m.canvas, m.spin.Theta)
		b.WriteString(m.canvas.String())
		b.WriteString("\n")
	}

	for _, e := range sec.Education {
		para(entryStyle.Render(e.Title) + "  " + periodStyle.Render(e.Period))
		para(e.Description)
		for _, a := range e.Awards {
			para("★ " + a)
		}
		for _, d := range e.Details {
			para(d)
		}
		b.WriteString("\n")
	}

	for _, e := range sec.Experience {
		para(entryStyle.Render(e.Title) + "  " + periodStyle.Render(e.Period))
		for _, p := range e.Points {
			para("• " + p)
		}
		b.WriteString("\n")
	}

	for _, c := range sec.Categories {
		para(entryStyle.Render(c.Name))
		para(strings.Join(c.Items, " · "))
		b.WriteString("\n")
	}

	for _, p := range sec.Projects {
		para(entryStyle.Render(p.Title) + "  " + periodStyle.Render(p.Period))
		if p.URL != "" {
			para(helperStyle.Render(p.URL))
		}
		if len(p.Tech) > 0 {
			para(periodStyle.Render(strings.Join(p.Tech, ", ")))
		}
		for _, pt := range p.Points {
			para("• " + pt)
		}
		b.WriteString("\n")
	}

	if sec.Email != "" {
		para("✉ " + sec.Email)
	}
	for _, l := range sec.Links {
		para(l.Name + ": " + helperStyle.Render(l.URL))
	}

	return strings.TrimRight(b.String(), "\n")
}
