// Package ui provides the terminal viewer for a single console log.
//
// # Architecture Overview
//
// The UI is a Bubble Tea program. A poller goroutine outside this package
// writes console content into a state.Store; the model pulls snapshots on
// a tick and feeds them to a session.Session, which owns classification,
// region tracking and the filtered view. The session is not safe for
// concurrent use, so every call to it happens inside Update.
//
// # Rendering
//
// New content is never rendered in one go. Ingesting a snapshot queues
// lines in the session's scheduler, and the model then asks for one work
// unit at a time with a renderUnitMsg. Each unit renders a bounded batch,
// so key presses are handled between units even while a large log is
// being caught up. Units carry the session epoch they were scheduled in;
// after a reset or reload, units from the previous epoch are dropped.
//
// # Views
//
//   - Log: the console with line numbers, severity colors, region icons,
//     a cursor, and search highlighting
//   - Navigator: the detected tests, stages and steps with their outcomes
//
// # Key Bindings
//
//   - j/k, g/G, ctrl+d/ctrl+u: Move the cursor
//   - E: Jump to the first error
//   - alt+up/alt+down: Previous/next region start or error
//   - F: Toggle follow mode
//   - 1-5: Toggle ERROR/WARN/INFO/DEBUG/OTHER lines
//   - -/+: Collapse or expand INFO and DEBUG lines
//   - /, n/N: Search and step through matches
//   - R: Reload the complete log from the source
//   - ctrl+r: Reset the view and start over from the next poll
//   - y, s: Copy the cursor line, save the log
//   - v, V, Y: Select a line, extend the selection to the cursor, copy
//     the selected lines in log order
//   - Tab: Switch between log and navigator
//   - T: Cycle themes
//   - ?: Help
//   - q or ctrl+c: Exit
//
// Theme, follow mode and hidden levels are remembered in the prefs file.
package ui
