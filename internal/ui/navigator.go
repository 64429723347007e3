package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/consolelens/internal/navigation"
	"github.com/five82/consolelens/internal/render"
)

// updateNavViewport re-renders the region list.
func (m *Model) updateNavViewport() {
	if !m.ready {
		return
	}
	if m.navViewport.Width == 0 {
		m.navViewport = viewport.New(m.width-4, m.height-5)
	}
	m.navViewport.Width = max(m.width-4, 1)
	m.navViewport.Height = max(m.height-5, 1)
	m.navViewport.Style = lipgloss.NewStyle().Background(lipgloss.Color(m.theme.FocusBg))

	regions := m.session.Regions()
	if len(regions) > 0 {
		m.navSelected = min(max(m.navSelected, 0), len(regions)-1)
	} else {
		m.navSelected = 0
	}
	m.navViewport.SetContent(m.renderNavContent(regions))
	m.ensureNavVisible()
}

// ensureNavVisible scrolls so the selected region row is on screen.
func (m *Model) ensureNavVisible() {
	top := m.navViewport.YOffset
	switch {
	case m.navSelected < top:
		m.navViewport.SetYOffset(m.navSelected)
	case m.navSelected >= top+m.navViewport.Height:
		m.navViewport.SetYOffset(m.navSelected - m.navViewport.Height + 1)
	}
}

// renderNavigator renders the region navigator view.
func (m Model) renderNavigator() string {
	bg := NewBgStyle(m.theme.FocusBg)
	styles := m.theme.Styles()
	contentHeight := m.height - 3

	regions := m.session.Regions()
	title := fmt.Sprintf("Regions (%d)", len(regions))
	box := m.renderTitledBox(title, m.navViewport.View(), m.width, contentHeight, true)
	return box + "\n" + m.renderNavStatus(regions, styles, bg)
}

// renderNavStatus summarizes outcomes below the region list.
func (m Model) renderNavStatus(regions []navigation.Region, styles Styles, bg BgStyle) string {
	var passed, failed, open int
	for _, r := range regions {
		switch {
		case r.IsOpen():
			open++
		case r.Outcome == navigation.Failed:
			failed++
		case r.Outcome == navigation.Passed:
			passed++
		}
	}
	parts := []string{
		bg.Colored(fmt.Sprintf("%d passed", passed), styles.StatusColor("passed"), styles.Text),
		bg.Colored(fmt.Sprintf("%d failed", failed), styles.StatusColor("failed"), styles.Text),
		bg.Render(fmt.Sprintf("%d open", open), styles.MutedText),
	}
	sep := bg.Space() + bg.Render("•", styles.FaintText) + bg.Space()
	return strings.Join(parts, sep)
}

// renderNavContent renders one row per region.
func (m *Model) renderNavContent(regions []navigation.Region) string {
	bg := NewBgStyle(m.theme.FocusBg)
	styles := m.theme.Styles()
	width := m.navViewport.Width

	if len(regions) == 0 {
		msg := "No tests, stages or steps detected yet"
		return bg.FillLine(bg.Render(msg, styles.MutedText), width)
	}

	lines := make([]string, 0, len(regions))
	for i, r := range regions {
		lines = append(lines, m.renderRegionRow(r, width, i == m.navSelected))
	}
	return strings.Join(lines, "\n")
}

// renderRegionRow renders icon, kind, name, span and outcome for a region.
func (m *Model) renderRegionRow(r navigation.Region, width int, selected bool) string {
	styles := m.theme.Styles()
	bgColor := m.theme.FocusBg
	textStyle := styles.Text
	if selected {
		bgColor = m.theme.SelectionBg
		textStyle = styles.Text.Foreground(lipgloss.Color(m.theme.SelectionText)).Bold(true)
	}
	bg := NewBgStyle(bgColor)

	icon := r.Icon
	if icon == "" {
		icon = "•"
	}
	outcome := r.Outcome.String()
	if r.IsOpen() {
		outcome = "open"
	}
	badge := bg.Colored(padRight(outcome, 7), styles.StatusColor(r.Outcome.String()), styles.Text.Bold(true))

	span := ""
	if width >= LayoutNavigatorWideWidth {
		end := "…"
		if !r.IsOpen() {
			end = strings.TrimSpace(render.LineNumber(r.End))
		}
		span = strings.TrimSpace(render.LineNumber(r.Start)) + "-" + end
		if r.Forced {
			span += "*"
		}
	}

	prefix := bg.Solid(icon+" ", styles.AccentText) +
		bg.Solid(padRight(string(r.Kind), 6), styles.MutedText)
	suffix := bg.Space() + badge
	if span != "" {
		suffix = bg.Space() + bg.Solid(padRight(span, 14), styles.FaintText) + suffix
	}

	nameWidth := width - lipgloss.Width(prefix) - lipgloss.Width(suffix)
	name := bg.Solid(padRight(clip(r.Name, nameWidth), max(nameWidth, 0)), textStyle)

	return bg.FillLine(prefix+name+suffix, width)
}

// handleNavigatorKey processes keyboard input for the navigator.
func (m Model) handleNavigatorKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	regions := m.session.Regions()

	switch {
	case key.Matches(msg, m.keys.Down):
		m.navSelected++
	case key.Matches(msg, m.keys.Up):
		m.navSelected--
	case key.Matches(msg, m.keys.PageDown), key.Matches(msg, m.keys.HalfPageDown):
		m.navSelected += max(m.navViewport.Height/2, 1)
	case key.Matches(msg, m.keys.PageUp), key.Matches(msg, m.keys.HalfPageUp):
		m.navSelected -= max(m.navViewport.Height/2, 1)
	case key.Matches(msg, m.keys.Top):
		m.navSelected = 0
	case key.Matches(msg, m.keys.Bottom):
		m.navSelected = len(regions) - 1

	case key.Matches(msg, m.keys.FirstError):
		for i, r := range regions {
			if r.Outcome == navigation.Failed {
				m.navSelected = i
				break
			}
		}

	case key.Matches(msg, m.keys.Confirm):
		if len(regions) == 0 {
			return m, nil
		}
		r := regions[min(max(m.navSelected, 0), len(regions)-1)]
		m.currentView = ViewLog
		m.jumpTo(r.Start)
		return m, nil

	case key.Matches(msg, m.keys.Escape):
		m.currentView = ViewLog
		return m, nil

	default:
		return m, nil
	}

	m.updateNavViewport()
	return m, nil
}

// selectRegionAtCursor selects the region containing the log cursor, or
// the last region that starts before it.
func (m *Model) selectRegionAtCursor() {
	regions := m.session.Regions()
	m.navSelected = 0
	for i, r := range regions {
		if r.Start > m.logState.cursor {
			break
		}
		m.navSelected = i
	}
}
