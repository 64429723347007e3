// Package navigation finds named regions (test cases, pipeline stages and
// steps) in a console stream.
//
// # Pattern Table
//
// A Table is an ordered list of patterns. Each pattern has a start
// expression that detects a region and captures its name, an optional end
// expression, and a kind. All expressions match case-insensitively.
// DefaultRules covers Jenkins pipeline markers, Maven/Gradle test runners,
// JUnit-style output, "Starting TestCase" harness output and shell "+"
// trace lines. Tables are data: Compile turns configuration rules into a
// table, so new region kinds are added without code changes.
//
// Start matching is first-match-wins over the whole table. End matching is
// only ever tried against the pattern of the region currently open. An end
// line resolves the region to failed when it contains a failure token
// ("ERROR", "FAILED" or "failed", case-sensitive) and passed otherwise.
//
// # State Machine
//
// Machine tracks at most one open region:
//
//	IDLE  + start line          -> OPEN (region opened at this line)
//	OPEN  + end of open pattern -> IDLE (closed at this line with outcome)
//	OPEN  + any start line      -> OPEN (previous force-closed at the line
//	                                     before, outcome pending)
//	OPEN  + end of input        -> IDLE (force-closed at last line, pending)
//
// Regions never nest. A stage inside a stage closes the outer one, which
// keeps the navigator flat and never loses a region. Each stream owns its
// own Machine; there is no package-level state.
package navigation
