package ui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/consolelens/internal/render"
	"github.com/five82/consolelens/internal/search"
	"github.com/five82/consolelens/internal/severity"
)

// gutterWidth is the width of "%5d │ ".
const gutterWidth = 8

// logState holds all log-view state.
type logState struct {
	// cursor is the record index the cursor sits on.
	cursor int

	// offset is the first visible row shown. Only the rows from offset
	// to offset+height are rendered; the viewport never holds the full log.
	offset int

	// selected holds lines picked with v/V for copying with Y.
	selected selection

	// Search
	searchActive bool
	searchInput  textinput.Model
	matchIdx     int

	// Content caching - skip re-render when unchanged
	contentVersion uint64
	lastRendered   uint64

	// lines caches the plain rendering of each record by index; empty
	// entries are rendered on demand.
	lines      []string
	cacheEpoch int
}

// invalidate drops rendered lines, for theme, size and reset changes.
func (s *logState) invalidate() {
	s.lines = nil
	s.contentVersion++
}

// initLogState initializes the log state.
func (m *Model) initLogState() {
	ti := textinput.New()
	ti.Placeholder = "Search (2+ characters)..."
	ti.CharLimit = 200

	m.logState = logState{
		searchInput:    ti,
		contentVersion: 1,
		selected:       newSelection(),
	}
}

// updateLogViewport updates the log viewport with current content.
func (m *Model) updateLogViewport() {
	if !m.ready {
		return
	}
	if m.logViewport.Width == 0 {
		m.logViewport = viewport.New(m.width-4, m.height-5)
	}

	// Box height = m.height - 3 (header, cmdbar, status bar below)
	// Box inner = box height - 2 (top and bottom borders) = m.height - 5
	m.logViewport.Width = max(m.width-4, 1)
	m.logViewport.Height = max(m.height-5, 1)
	m.logViewport.Style = lipgloss.NewStyle().Background(lipgloss.Color(m.theme.FocusBg))

	if m.logState.contentVersion != m.logState.lastRendered {
		m.logViewport.SetContent(m.renderLogContent())
		m.logViewport.GotoTop()
		m.logState.lastRendered = m.logState.contentVersion
	}
}

// logHeight is the number of rows the log window shows.
func (m *Model) logHeight() int {
	if m.logViewport.Height > 0 {
		return m.logViewport.Height
	}
	return max(m.height-5, 1)
}

// maxOffset is the offset that puts the last visible row at the bottom.
func (m *Model) maxOffset() int {
	return max(len(m.session.Visible())-m.logHeight(), 0)
}

// scrollTo sets the first shown row, clamped to the visible rows.
func (m *Model) scrollTo(offset int) {
	offset = min(max(offset, 0), m.maxOffset())
	if offset != m.logState.offset {
		m.logState.offset = offset
		m.logState.contentVersion++
	}
	m.updateLogViewport()
}

// renderLogs renders the log view.
func (m Model) renderLogs() string {
	bg := NewBgStyle(m.theme.FocusBg)
	styles := m.theme.Styles()
	contentHeight := m.height - 3 // Account for header + cmdbar + status bar below

	box := m.renderTitledBox(m.getLogTitle(), m.logViewport.View(), m.width, contentHeight, true)
	return box + "\n" + m.renderLogStatus(styles, bg)
}

// getLogTitle returns the plain text title for the log view.
func (m Model) getLogTitle() string {
	title := "Console"
	if m.provider != nil {
		title = sourceKind(m.provider) + " · " + truncateMiddle(m.provider.Describe(), max(m.width/2, 20))
	}
	if levels := m.session.Levels(); levels != search.AllLevels() {
		title += " (" + levels.String() + ")"
	}
	return title
}

// renderLogStatus renders the log status bar.
func (m *Model) renderLogStatus(styles Styles, bg BgStyle) string {
	if m.logState.searchActive {
		return bg.Render("/", styles.AccentText) + m.logState.searchInput.View()
	}

	query := m.session.Query()
	matches := m.session.Matches()

	if m.session.Searching() && len(matches) > 0 {
		idx := min(m.logState.matchIdx, len(matches)-1)
		return bg.Render("/"+strings.TrimSpace(query), styles.AccentText) +
			bg.Render(" - ", styles.FaintText) +
			bg.Render(fmt.Sprintf("%d/%d", idx+1, len(matches)), styles.WarningText) +
			bg.Render(" - Press ", styles.FaintText) +
			bg.Render("n", styles.AccentText) +
			bg.Render(" for next, ", styles.FaintText) +
			bg.Render("N", styles.AccentText) +
			bg.Render(" for previous, ", styles.FaintText) +
			bg.Render("Esc", styles.AccentText) +
			bg.Render(" to clear", styles.FaintText)
	}
	if m.session.Searching() {
		return bg.Render("Pattern not found: "+strings.TrimSpace(query), styles.DangerText)
	}

	var parts []string

	if m.reloadErr != nil {
		msg := "Reload failed: " + classifyConnectionError(m.reloadErr.Err)
		if m.reloadErr.Fallback != "" {
			msg += " - open " + truncateMiddle(m.reloadErr.Fallback, 60) + " or press R to retry"
		}
		parts = append(parts, bg.Render(msg, styles.DangerText))
	}

	follow := "off"
	if m.session.Follow() {
		follow = "on"
	}
	status := fmt.Sprintf("%d lines  %d shown  follow %s", m.session.Len(), len(m.session.Visible()), follow)
	parts = append(parts, bg.Render(status, styles.FaintText))

	if strings.TrimSpace(query) != "" {
		parts = append(parts, bg.Render(fmt.Sprintf("search needs %d+ characters", search.MinQueryLength), styles.WarningText))
	}
	if n := m.logState.selected.Len(); n > 0 {
		parts = append(parts, bg.Render(fmt.Sprintf("%d selected", n), styles.AccentText))
	}
	if m.notice != "" {
		parts = append(parts, bg.Render(m.notice, styles.AccentText))
	}

	sep := bg.Space() + bg.Render("•", styles.FaintText) + bg.Space()
	return strings.Join(parts, sep)
}

// renderLogContent renders the window of visible records starting at the
// scroll offset.
func (m *Model) renderLogContent() string {
	bg := NewBgStyle(m.theme.FocusBg)
	styles := m.theme.Styles()
	width := m.logViewport.Width

	records := m.session.Records()
	if len(records) == 0 {
		msg := "Waiting for console output"
		switch {
		case m.session.Reloading():
			msg = "Reloading full log..."
		case m.reloadErr != nil:
			msg = "Reload failed; press R to retry"
		case m.session.Pending() > 0:
			msg = fmt.Sprintf("Rendering %d lines...", m.session.Pending())
		}
		return bg.FillLine(bg.Render(msg, styles.MutedText), width)
	}

	visible := m.session.Visible()
	if len(visible) == 0 {
		msg := "No lines at the selected levels (" + m.session.Levels().String() + ")"
		return bg.FillLine(bg.Render(msg, styles.MutedText), width)
	}

	if m.logState.cacheEpoch != m.session.Epoch() {
		m.logState.lines = nil
		m.logState.selected.Clear()
		m.logState.cacheEpoch = m.session.Epoch()
	}
	if grow := len(records) - len(m.logState.lines); grow > 0 {
		m.logState.lines = append(m.logState.lines, make([]string, grow)...)
	}

	m.logState.offset = min(m.logState.offset, m.maxOffset())
	window := visible[m.logState.offset:min(m.logState.offset+m.logHeight(), len(visible))]

	icons := m.regionIcons()
	var matches []int
	if m.session.Searching() {
		matches = m.session.Matches()
	}
	activeMatch := m.activeMatch()

	var b strings.Builder
	for row, idx := range window {
		rec := records[idx]
		_, matched := slices.BinarySearch(matches, idx)
		var line string
		switch {
		case idx == activeMatch:
			line = m.renderRecord(rec, icons[idx], width, lineActiveMatch)
		case matched:
			line = m.renderRecord(rec, icons[idx], width, linePassiveMatch)
		case idx == m.logState.cursor:
			line = m.renderRecord(rec, icons[idx], width, lineCursor)
		case m.logState.selected.Has(idx):
			line = m.renderRecord(rec, icons[idx], width, lineSelected)
		default:
			if m.logState.lines[idx] == "" {
				m.logState.lines[idx] = m.renderRecord(rec, icons[idx], width, lineNormal)
			}
			line = m.logState.lines[idx]
		}
		b.WriteString(line)
		if row < len(window)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

type lineKind int

const (
	lineNormal lineKind = iota
	lineCursor
	linePassiveMatch
	lineActiveMatch
	lineSelected
)

// renderRecord renders one record: gutter, region icon, level-colored text.
func (m *Model) renderRecord(rec render.Record, icon string, width int, kind lineKind) string {
	styles := m.theme.Styles()
	bgColor := m.theme.FocusBg
	switch kind {
	case lineCursor:
		bgColor = m.theme.SelectionBg
	case lineActiveMatch:
		bgColor = m.theme.Match
	}
	bg := NewBgStyle(bgColor)

	gutterStyle := styles.GutterText
	sep := " │ "
	switch {
	case kind == linePassiveMatch:
		gutterStyle = styles.AccentText
	case kind == lineSelected, m.logState.selected.Has(rec.Index):
		gutterStyle = styles.AccentText
		sep = " ┃ "
	}
	gutter := bg.Solid(render.LineNumber(rec.Index)+sep, gutterStyle)

	marker := ""
	if icon != "" {
		marker = bg.Solid(icon+" ", styles.AccentText)
	}

	bodyWidth := width - gutterWidth - lipgloss.Width(marker)
	body := clip(rec.Text, bodyWidth)

	var bodyStyle lipgloss.Style
	switch kind {
	case lineActiveMatch:
		bodyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Background))
	case linePassiveMatch:
		bodyStyle = styles.AccentText
	case lineCursor:
		bodyStyle = styles.LevelStyle(rec.Color).Foreground(lipgloss.Color(m.theme.SelectionText))
	default:
		bodyStyle = styles.LevelStyle(rec.Color)
	}
	if rec.Level == severity.Error || rec.Boundary {
		bodyStyle = bodyStyle.Bold(true)
	}

	return bg.FillLine(gutter+marker+bg.Solid(body, bodyStyle), width)
}

// regionIcons maps region start lines to their pattern icons.
func (m *Model) regionIcons() map[int]string {
	regions := m.session.Regions()
	icons := make(map[int]string, len(regions))
	for _, r := range regions {
		if r.Icon != "" {
			icons[r.Start] = r.Icon
		}
	}
	return icons
}

// activeMatch returns the record index of the current search hit, or -1.
func (m *Model) activeMatch() int {
	matches := m.session.Matches()
	if !m.session.Searching() || len(matches) == 0 {
		return -1
	}
	return matches[min(m.logState.matchIdx, len(matches)-1)]
}

// handleLogsKey processes keyboard input for the log view.
func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ToggleFollow):
		m.session.SetFollow(!m.session.Follow())
		follow := m.session.Follow()
		m.prefs.Follow = &follow
		m.savePrefs()
		if follow {
			m.followToEnd()
		}
		return m, nil

	case key.Matches(msg, m.keys.ToggleLevel):
		lvl := levelForKey(msg.String())
		m.setLevels(m.session.Levels().Toggle(lvl))
		return m, nil

	case key.Matches(msg, m.keys.Collapse):
		m.setLevels(m.session.Levels().Collapse())
		return m, nil

	case key.Matches(msg, m.keys.Expand):
		m.setLevels(m.session.Levels().Expand())
		return m, nil

	case key.Matches(msg, m.keys.Search):
		m.logState.searchActive = true
		m.logState.searchInput.SetValue(m.session.Query())
		m.logState.searchInput.CursorEnd()
		return m, m.logState.searchInput.Focus()

	case key.Matches(msg, m.keys.NextMatch):
		m.nextSearchMatch()
		return m, nil

	case key.Matches(msg, m.keys.PrevMatch):
		m.previousSearchMatch()
		return m, nil

	case key.Matches(msg, m.keys.Escape):
		if m.session.Query() != "" {
			m.clearLogSearch()
		}
		if m.logState.selected.Len() > 0 {
			m.logState.selected.Clear()
			m.logState.contentVersion++
			m.updateLogViewport()
		}
		m.reloadErr = nil
		m.notice = ""
		return m, nil

	case key.Matches(msg, m.keys.FirstError):
		if idx, ok := m.session.FirstError(); ok {
			m.jumpTo(idx)
		} else {
			m.notice = "No errors"
		}
		return m, nil

	case key.Matches(msg, m.keys.NextLandmark):
		if idx, ok := m.session.NextLandmark(m.logState.cursor); ok {
			m.jumpTo(idx)
		}
		return m, nil

	case key.Matches(msg, m.keys.PrevLandmark):
		if idx, ok := m.session.PrevLandmark(m.logState.cursor); ok {
			m.jumpTo(idx)
		}
		return m, nil

	case key.Matches(msg, m.keys.FirstLandmark):
		if idx, ok := m.session.NextLandmark(-1); ok {
			m.jumpTo(idx)
		}
		return m, nil

	case key.Matches(msg, m.keys.LastLandmark):
		if idx, ok := m.session.PrevLandmark(m.session.Len()); ok {
			m.jumpTo(idx)
		}
		return m, nil

	case key.Matches(msg, m.keys.Copy):
		cmd := m.copyCursorLine()
		return m, cmd

	case key.Matches(msg, m.keys.Select):
		if _, ok := m.session.Record(m.logState.cursor); ok {
			m.logState.selected.Toggle(m.logState.cursor)
			m.logState.contentVersion++
			m.updateLogViewport()
		}
		return m, nil

	case key.Matches(msg, m.keys.SelectRange):
		if m.session.Len() == 0 {
			return m, nil
		}
		if m.logState.selected.anchor < 0 {
			m.logState.selected.Toggle(m.logState.cursor)
		}
		switch msg.String() {
		case "shift+down":
			m.moveCursor(1)
		case "shift+up":
			m.moveCursor(-1)
		}
		m.logState.selected.Extend(m.session.Visible(), m.logState.cursor)
		m.logState.contentVersion++
		m.updateLogViewport()
		return m, nil

	case key.Matches(msg, m.keys.CopySelection):
		cmd := m.copySelection()
		return m, cmd

	case key.Matches(msg, m.keys.Save):
		cmd := m.saveLog()
		return m, cmd

	case key.Matches(msg, m.keys.Top):
		m.session.SetFollow(false)
		m.moveCursorTo(0)
		return m, nil

	case key.Matches(msg, m.keys.Bottom):
		m.session.SetFollow(true)
		m.followToEnd()
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
		return m, nil

	case key.Matches(msg, m.keys.HalfPageDown):
		m.moveCursor(m.logHeight() / 2)
		return m, nil

	case key.Matches(msg, m.keys.HalfPageUp):
		m.moveCursor(-m.logHeight() / 2)
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.moveCursor(m.logHeight())
		return m, nil

	case key.Matches(msg, m.keys.PageUp):
		m.moveCursor(-m.logHeight())
		return m, nil
	}

	return m, nil
}

// levelForKey maps the 1-5 keys to levels in severity order.
func levelForKey(k string) severity.Level {
	n := int(k[0] - '1')
	if n < 0 || n >= len(severity.Levels) {
		return severity.Other
	}
	return severity.Levels[n]
}

// setLevels applies a level filter, remembers it, and keeps the cursor on
// the nearest visible line.
func (m *Model) setLevels(levels search.LevelSet) {
	m.session.SetLevels(levels)
	m.prefs.SetLevels(levels)
	m.savePrefs()
	m.logState.matchIdx = 0
	m.logState.contentVersion++
	m.updateLogViewport()
	if m.session.Follow() {
		m.followToEnd()
		return
	}
	m.centerOn(m.logState.cursor)
}

// handleLogSearchInput handles keyboard input during search entry.
func (m Model) handleLogSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		query := m.logState.searchInput.Value()
		m.logState.searchActive = false
		m.logState.searchInput.Blur()
		if strings.TrimSpace(query) == "" {
			m.clearLogSearch()
			return m, nil
		}

		m.session.SetQuery(query)
		m.logState.matchIdx = 0
		m.logState.contentVersion++
		m.updateLogViewport()
		if len(m.session.Matches()) > 0 {
			m.scrollToSearchMatch()
		}
		return m, nil

	case key.Matches(msg, m.keys.Escape), msg.String() == "ctrl+c":
		m.logState.searchActive = false
		m.logState.searchInput.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.logState.searchInput, cmd = m.logState.searchInput.Update(msg)
	return m, cmd
}

// clearLogSearch clears the search state.
func (m *Model) clearLogSearch() {
	m.session.SetQuery("")
	m.logState.searchInput.SetValue("")
	m.logState.matchIdx = 0
	m.logState.contentVersion++ // Search highlighting changed
	m.updateLogViewport()
}

// nextSearchMatch moves to the next search match, wrapping at the end.
func (m *Model) nextSearchMatch() {
	matches := m.session.Matches()
	if len(matches) == 0 {
		return
	}
	m.logState.matchIdx = (m.logState.matchIdx + 1) % len(matches)
	m.logState.contentVersion++ // Active match changed
	m.scrollToSearchMatch()
}

// previousSearchMatch moves to the previous search match, wrapping at the start.
func (m *Model) previousSearchMatch() {
	matches := m.session.Matches()
	if len(matches) == 0 {
		return
	}
	m.logState.matchIdx = (m.logState.matchIdx - 1 + len(matches)) % len(matches)
	m.logState.contentVersion++ // Active match changed
	m.scrollToSearchMatch()
}

// scrollToSearchMatch centers the viewport on the current match.
func (m *Model) scrollToSearchMatch() {
	matches := m.session.Matches()
	if len(matches) == 0 {
		return
	}
	m.logState.matchIdx = min(m.logState.matchIdx, len(matches)-1)
	m.jumpTo(matches[m.logState.matchIdx])
}

// jumpTo moves the cursor to a record, disables follow and centers it.
func (m *Model) jumpTo(index int) {
	m.session.SetFollow(false)
	m.logState.cursor = index
	m.logState.contentVersion++
	m.updateLogViewport()
	m.centerOn(index)
}

// centerOn scrolls so the record sits mid-viewport when possible.
func (m *Model) centerOn(index int) {
	row := m.session.Position(index)
	m.scrollTo(row - m.logHeight()/2)
}

// moveCursor moves the cursor by delta visible rows and keeps it on screen.
func (m *Model) moveCursor(delta int) {
	visible := m.session.Visible()
	if len(visible) == 0 {
		return
	}
	row := m.session.Position(m.logState.cursor)
	m.moveCursorTo(min(max(row+delta, 0), len(visible)-1))
}

// moveCursorTo places the cursor on a visible row. Moving off the last row
// disables follow; landing on it re-enables nothing.
func (m *Model) moveCursorTo(row int) {
	visible := m.session.Visible()
	if len(visible) == 0 {
		return
	}
	row = min(max(row, 0), len(visible)-1)
	if row < len(visible)-1 {
		m.session.SetFollow(false)
	}
	m.logState.cursor = visible[row]
	m.logState.contentVersion++

	top := m.logState.offset
	switch {
	case row < top:
		m.scrollTo(row)
	case row >= top+m.logHeight():
		m.scrollTo(row - m.logHeight() + 1)
	default:
		m.updateLogViewport()
	}
}

// followToEnd moves the cursor to the newest visible line and scrolls
// the viewport to the bottom.
func (m *Model) followToEnd() {
	visible := m.session.Visible()
	if len(visible) > 0 && m.logState.cursor != visible[len(visible)-1] {
		m.logState.cursor = visible[len(visible)-1]
		m.logState.contentVersion++
	}
	m.scrollTo(m.maxOffset())
}

// nearEnd reports whether the user is looking at the newest output.
func (m *Model) nearEnd() bool {
	if !m.ready || m.logViewport.Height == 0 {
		return true
	}
	return m.logState.offset >= m.maxOffset()
}
