// Package render turns a backlog of ingested lines into presentation
// records without holding the host for long.
//
// # Work Units
//
// The Scheduler never processes the whole backlog at once. Each call to
// RunUnit pops up to BatchSize lines (500 by default) and stops early when
// the unit's time slice is spent. The slice comes from the host's hint,
// falls back to Budget (50ms) when there is no hint, and is never below
// Floor (4ms). At least one line is processed per unit, so progress is
// guaranteed even with a zero or tiny hint.
//
// # Cooperative Scheduling
//
// The scheduler does not own a goroutine or a timer. The host drives it:
//
//	if sched.Enqueue(delta.Lines, nearEnd) {
//		// schedule a unit on a later turn of the event loop
//	}
//	unit := sched.RunUnit(hint)
//	if unit.More {
//		// schedule the next unit, again on a later turn
//	}
//
// In the terminal UI a "later turn" is a tea.Cmd that returns a message;
// headless callers use Drain, which checks a context between units.
//
// # Stats and Auto-follow
//
// Units mark StatsDue at most once per StatsInterval (200ms), and always on
// the unit that empties the backlog. Enqueue records a follow request when
// the consumer was near the end and auto-follow is on; the request is only
// honored, as ScrollToEnd, by the unit that empties the backlog, and is
// dropped at that point either way.
//
// Lines are processed strictly in index order. The scheduler is not safe
// for concurrent use; all calls must come from one goroutine.
package render
