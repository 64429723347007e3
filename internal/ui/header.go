package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/consolelens/internal/navigation"
	"github.com/five82/consolelens/internal/severity"
	"github.com/five82/consolelens/internal/source"
)

// renderHeader renders the status bar with all information.
func (m Model) renderHeader() string {
	// Header uses Surface background
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	if !m.snapshot.HasContent {
		return m.renderConnectingHeader(styles, bg)
	}

	content := m.buildStatusContent(styles, bg)

	return lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.Surface)).
		Foreground(lipgloss.Color(m.theme.Text)).
		Width(m.width).
		Render(content)
}

// renderConnectingHeader shows the first-fetch and error states.
func (m Model) renderConnectingHeader(styles Styles, bg BgStyle) string {
	sep := bg.Spaces(2)

	if m.snapshot.LastError != nil {
		last := "soon"
		if !m.snapshot.LastUpdated.IsZero() {
			last = m.snapshot.LastUpdated.Format("15:04:05")
		}
		parts := []string{
			bg.Render("consolelens", styles.Logo),
			bg.Render("SOURCE "+classifyConnectionError(m.snapshot.LastError), styles.DangerText.Bold(true)),
			bg.Render("Retrying...", styles.WarningText.Bold(true)),
			bg.Render(last, styles.MutedText),
		}
		if m.provider != nil {
			parts = append(parts, bg.Render(truncateMiddle(m.provider.Describe(), 50), styles.MutedText))
		}
		return styles.Header.Width(m.width).Render(bg.Join(parts, "  "))
	}

	return styles.Header.Width(m.width).Render(
		bg.Render("consolelens", styles.Logo) + sep +
			bg.Render("Fetching console...", styles.WarningText.Bold(true)),
	)
}

// buildStatusContent builds the status bar content string.
func (m Model) buildStatusContent(styles Styles, bg BgStyle) string {
	compact := m.width < LayoutCompactWidth

	var parts []string

	parts = append(parts, bg.Render("consolelens", styles.Logo))

	if m.provider != nil && !compact {
		parts = append(parts, bg.Render(truncateMiddle(m.provider.Describe(), 40), styles.Text))
	}

	state := m.sourceState()
	parts = append(parts, bg.Colored("● "+strings.ToUpper(state), styles.StatusColor(state), styles.Text.Bold(true)))

	parts = append(parts,
		bg.Render("Lines:", styles.MutedText)+bg.Space()+
			bg.Render(fmt.Sprintf("%d", m.stats.Total), styles.Text),
	)

	parts = append(parts, m.formatLevelCounts(compact, styles, bg))

	if regions := m.session.Regions(); len(regions) > 0 {
		failed := 0
		for _, r := range regions {
			if r.Outcome == navigation.Failed {
				failed++
			}
		}
		failedStyle := styles.MutedText
		if failed > 0 {
			failedStyle = styles.DangerText
		}
		parts = append(parts,
			bg.Render("Regions:", styles.MutedText)+bg.Space()+
				bg.Render(fmt.Sprintf("%d", len(regions)), styles.Text)+bg.Space()+
				bg.Render(fmt.Sprintf("(%d failed)", failed), failedStyle),
		)
	}

	if pending := m.session.Pending(); pending > 0 {
		parts = append(parts, bg.Render(fmt.Sprintf("Rendering %d…", pending), styles.WarningText))
	}
	if m.session.Reloading() {
		parts = append(parts, bg.Render("Reloading…", styles.WarningText.Bold(true)))
	}

	if !compact {
		if timeStr := m.formatTimestamp(); timeStr != "" {
			parts = append(parts, bg.Render(timeStr, styles.MutedText))
		}
	}

	// Poll errors keep the last good content on screen.
	if m.snapshot.LastError != nil {
		maxErr := 80
		if compact {
			maxErr = 40
		}
		parts = append(parts,
			bg.Render("ERROR", styles.DangerText.Bold(true))+bg.Space()+
				bg.Render(truncate(m.snapshot.LastError.Error(), maxErr), styles.DangerText),
		)
	}

	return bg.Join(parts, "  ")
}

// sourceState names the source's state for the header badge.
func (m Model) sourceState() string {
	switch {
	case m.snapshot.IsOffline():
		return "offline"
	case m.snapshot.HasLive && m.snapshot.Live:
		return "live"
	case m.snapshot.Finished():
		return "done"
	default:
		return "tail"
	}
}

// formatLevelCounts renders per-level line counts in severity colors.
func (m Model) formatLevelCounts(compact bool, styles Styles, bg BgStyle) string {
	levels := []severity.Level{severity.Error, severity.Warn, severity.Info, severity.Debug}
	segments := make([]string, 0, len(levels))
	for _, lvl := range levels {
		label := lvl.String()
		if compact {
			label = label[:1]
		}
		count := m.stats.Count(lvl)
		countStyle := styles.MutedText
		if count > 0 {
			countStyle = styles.Text
		}
		segments = append(segments,
			bg.Colored(label+":", m.classifier.Color(lvl), styles.MutedText)+bg.Space()+
				bg.Render(fmt.Sprintf("%d", count), countStyle))
	}
	return strings.Join(segments, bg.Space()+bg.Render("•", styles.FaintText)+bg.Space())
}

// formatTimestamp formats the last update time with relative indicator.
func (m Model) formatTimestamp() string {
	updated := m.snapshot.LastUpdated
	if updated.IsZero() {
		return ""
	}

	timeSince := time.Since(updated)
	timeStr := updated.Format("15:04:05")

	if timeSince < time.Minute {
		timeStr += " (now)"
	} else if timeSince < time.Hour {
		timeStr += fmt.Sprintf(" (%dm ago)", int(timeSince.Minutes()))
	} else if timeSince < 24*time.Hour {
		timeStr += fmt.Sprintf(" (%dh ago)", int(timeSince.Hours()))
	}

	return timeStr
}

// classifyConnectionError returns a short description of the connection error.
func classifyConnectionError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		return "OFFLINE"
	case strings.Contains(msg, "no such host"):
		return "HOST NOT FOUND"
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return "TIMEOUT"
	case strings.Contains(msg, "404"):
		return "NOT FOUND"
	case strings.Contains(msg, "401"), strings.Contains(msg, "403"):
		return "UNAUTHORIZED"
	default:
		return "ERROR"
	}
}

// renderCommandBar renders the command hints bar.
func (m Model) renderCommandBar() string {
	// Command bar uses Surface background
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	var commands []cmd

	switch m.currentView {
	case ViewNavigator:
		commands = []cmd{
			{"j/k", "Navigate"},
			{"Enter", "Jump"},
			{"E", "First error"},
			{"Tab", "Log"},
			{"?", "More"},
		}
	default: // ViewLog
		followLabel := "Follow"
		if m.session.Follow() {
			followLabel = "Pause"
		}
		commands = []cmd{
			{"F", followLabel},
			{"/", "Search"},
			{"n/N", "Next/Prev"},
			{"E", "Error"},
			{"1-5", "Levels"},
			{"-/+", "Collapse"},
			{"R", "Reload"},
			{"Tab", "Regions"},
			{"?", "More"},
		}
	}

	colon := bg.Sep(":")
	sep := bg.Spaces(2)

	segments := make([]string, 0, len(commands)+2)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}

	if m.currentView == ViewLog && m.session.Query() != "" {
		pattern := truncate(m.session.Query(), 18)
		segments = append(segments, bg.Render("/"+pattern, styles.AccentText))
	}

	// Add theme indicator
	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).Render(strings.Join(segments, sep))
}

// sourceKind labels a provider for titles.
func sourceKind(p source.Provider) string {
	switch p.(type) {
	case *source.Jenkins:
		return "Jenkins"
	case *source.File:
		return "File"
	default:
		return "Console"
	}
}
