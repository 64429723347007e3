package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Tab        key.Binding
	Escape     key.Binding

	// Navigation
	Up           key.Binding
	Down         key.Binding
	Top          key.Binding
	Bottom       key.Binding
	PageUp       key.Binding
	PageDown     key.Binding
	HalfPageUp   key.Binding
	HalfPageDown key.Binding

	// Landmarks
	FirstError    key.Binding
	NextLandmark  key.Binding
	PrevLandmark  key.Binding
	FirstLandmark key.Binding
	LastLandmark  key.Binding

	// Filtering and search
	ToggleFollow key.Binding
	ToggleLevel  key.Binding
	Collapse     key.Binding
	Expand       key.Binding
	Search       key.Binding
	NextMatch    key.Binding
	PrevMatch    key.Binding

	// Actions
	Reload key.Binding
	Reset  key.Binding
	Copy   key.Binding
	Save   key.Binding

	// Selection
	Select        key.Binding
	SelectRange   key.Binding
	CopySelection key.Binding

	// Search/input
	Confirm key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		// Global
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Log/navigator"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Clear search and selection"),
		),

		// Navigation
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Go to bottom"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "Page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdown", "Page down"),
		),
		HalfPageUp: key.NewBinding(
			key.WithKeys("ctrl+u"),
			key.WithHelp("ctrl+u", "Half page up"),
		),
		HalfPageDown: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("ctrl+d", "Half page down"),
		),

		// Landmarks
		FirstError: key.NewBinding(
			key.WithKeys("E"),
			key.WithHelp("E", "First error"),
		),
		NextLandmark: key.NewBinding(
			key.WithKeys("alt+down"),
			key.WithHelp("alt+down", "Next landmark"),
		),
		PrevLandmark: key.NewBinding(
			key.WithKeys("alt+up"),
			key.WithHelp("alt+up", "Previous landmark"),
		),
		FirstLandmark: key.NewBinding(
			key.WithKeys("alt+home"),
			key.WithHelp("alt+home", "First landmark"),
		),
		LastLandmark: key.NewBinding(
			key.WithKeys("alt+end"),
			key.WithHelp("alt+end", "Last landmark"),
		),

		// Filtering and search
		ToggleFollow: key.NewBinding(
			key.WithKeys("F"),
			key.WithHelp("F", "Toggle follow mode"),
		),
		ToggleLevel: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5"),
			key.WithHelp("1-5", "Toggle ERROR/WARN/INFO/DEBUG/OTHER"),
		),
		Collapse: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "Hide INFO and DEBUG"),
		),
		Expand: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "Show INFO and DEBUG"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "Search"),
		),
		NextMatch: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "Next match"),
		),
		PrevMatch: key.NewBinding(
			key.WithKeys("N"),
			key.WithHelp("N", "Previous match"),
		),

		// Actions
		Reload: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "Reload full log"),
		),
		Reset: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "Reset view"),
		),
		Copy: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "Copy line"),
		),
		Save: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "Save log"),
		),

		// Selection
		Select: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "Select line"),
		),
		SelectRange: key.NewBinding(
			key.WithKeys("V", "shift+down", "shift+up"),
			key.WithHelp("V", "Select to anchor"),
		),
		CopySelection: key.NewBinding(
			key.WithKeys("Y"),
			key.WithHelp("Y", "Copy selection"),
		),

		// Search/input
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Confirm"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Top, k.Bottom},
		{k.HalfPageDown, k.HalfPageUp, k.PageDown, k.PageUp},
		{k.FirstError, k.NextLandmark, k.PrevLandmark, k.FirstLandmark, k.LastLandmark},
		{k.ToggleFollow, k.ToggleLevel, k.Collapse, k.Expand},
		{k.Search, k.NextMatch, k.PrevMatch, k.Escape},
		{k.Tab, k.Reload, k.Reset, k.Copy, k.Save},
		{k.Select, k.SelectRange, k.CopySelection},
		{k.CycleTheme, k.Help, k.Quit},
	}
}
