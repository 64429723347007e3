package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

// renderHelp renders the help overlay.
func (m Model) renderHelp() string {
	styles := m.theme.Styles()
	k := m.keys

	sections := []helpSection{
		{title: "Movement", items: helpItems(k.Up, k.Down, k.Top, k.Bottom, k.HalfPageDown, k.HalfPageUp)},
		{title: "Landmarks", items: []helpItem{
			{"E", "First error"},
			{"alt+↓/↑", "Next/previous region or error"},
			{"alt+home/end", "First/last landmark"},
			{"tab", "Navigator"},
			{"enter", "Jump to region"},
		}},
		{title: "Filter & Search", items: []helpItem{
			{"F", "Toggle follow mode"},
			{"1-5", "Toggle ERROR/WARN/INFO/DEBUG/OTHER"},
			{"-/+", "Collapse/expand INFO+DEBUG"},
			{"/", "Search"},
			{"n/N", "Next/prev match"},
			{"esc", "Clear search and selection"},
		}},
		{title: "Log", items: helpItems(k.Reload, k.Reset, k.Copy, k.Save)},
		{title: "Selection", items: []helpItem{
			{"v", "Select or unselect line"},
			{"V, shift+↓/↑", "Extend selection from anchor"},
			{"Y", "Copy selected lines"},
		}},
		{title: "General", items: helpItems(k.CycleTheme, k.Help, k.Quit)},
	}

	var b strings.Builder

	title := styles.Text.Bold(true).Render("Keyboard Shortcuts")
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 40)))
	b.WriteString("\n\n")

	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Warning)).
		Width(14)

	for i, section := range sections {
		b.WriteString(styles.AccentText.Bold(true).Render(section.title))
		b.WriteString("\n")

		for _, item := range section.items {
			b.WriteString(keyStyle.Render(item.key))
			b.WriteString(styles.Text.Render(item.desc))
			b.WriteString("\n")
		}

		if i < len(sections)-1 {
			b.WriteString("\n")
		}
	}

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Accent)).
		Padding(1, 2).
		Width(52)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		modal.Render(b.String()),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(m.theme.Background)),
	)
}

type helpSection struct {
	title string
	items []helpItem
}

type helpItem struct {
	key  string
	desc string
}

func helpItems(bindings ...key.Binding) []helpItem {
	items := make([]helpItem, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		items = append(items, helpItem{key: h.Key, desc: h.Desc})
	}
	return items
}
