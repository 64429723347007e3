package render

import (
	"context"
	"time"

	"github.com/five82/consolelens/internal/ingest"
)

// Scheduler defaults.
const (
	DefaultBatchSize     = 500
	DefaultBudget        = 50 * time.Millisecond
	DefaultFloor         = 4 * time.Millisecond
	DefaultStatsInterval = 200 * time.Millisecond
)

// Options tune a Scheduler. Zero fields take the defaults.
type Options struct {
	// BatchSize caps how many lines one work unit processes.
	BatchSize int
	// Budget is the time slice used when the host gives no hint.
	Budget time.Duration
	// Floor is the smallest slice a unit ever gets, whatever the hint.
	Floor time.Duration
	// StatsInterval throttles stats propagation between units.
	StatsInterval time.Duration
	// Now reads the clock. Tests replace it.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.Budget <= 0 {
		o.Budget = DefaultBudget
	}
	if o.Floor <= 0 {
		o.Floor = DefaultFloor
	}
	if o.StatsInterval <= 0 {
		o.StatsInterval = DefaultStatsInterval
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// ProcessFunc classifies and region-matches one line.
type ProcessFunc func(ingest.Line) Record

// Unit is the outcome of one bounded pass over the backlog.
type Unit struct {
	Records []Record
	// StatsDue asks the host to publish aggregate stats now.
	StatsDue bool
	// ScrollToEnd asks the host to follow to the newest line.
	ScrollToEnd bool
	// More is set when lines remain. The host must run another unit on a
	// later turn of its event loop, never from inside this one.
	More    bool
	Elapsed time.Duration
}

// Scheduler drains a backlog of lines in deadline-bounded work units,
// strictly in arrival order. It is driven by a single goroutine.
type Scheduler struct {
	opts    Options
	process ProcessFunc

	backlog       []ingest.Line
	scheduled     bool
	follow        bool
	pendingFollow bool
	lastStats     time.Time
}

// NewScheduler returns a scheduler that runs process over every enqueued
// line. Auto-follow starts enabled.
func NewScheduler(opts Options, process ProcessFunc) *Scheduler {
	return &Scheduler{
		opts:    opts.withDefaults(),
		process: process,
		follow:  true,
	}
}

// Enqueue appends lines to the backlog. nearEnd tells whether the consumer
// was looking at the newest output when the lines arrived. It returns true
// when the host has to schedule a unit; false means one is already pending
// or there is nothing to do.
func (s *Scheduler) Enqueue(lines []ingest.Line, nearEnd bool) bool {
	if len(lines) == 0 {
		return false
	}
	s.backlog = append(s.backlog, lines...)
	if nearEnd && s.follow {
		s.pendingFollow = true
	}
	if s.scheduled {
		return false
	}
	s.scheduled = true
	return true
}

// RunUnit processes at most BatchSize lines. It stops early once the slice
// is spent, where the slice is hint (or Budget when hint is zero) raised to
// Floor. At least one line is processed whenever the backlog is non-empty.
func (s *Scheduler) RunUnit(hint time.Duration) Unit {
	s.scheduled = false
	if len(s.backlog) == 0 {
		s.pendingFollow = false
		return Unit{}
	}

	budget := hint
	if budget <= 0 {
		budget = s.opts.Budget
	}
	if budget < s.opts.Floor {
		budget = s.opts.Floor
	}

	start := s.opts.Now()
	limit := min(s.opts.BatchSize, len(s.backlog))
	unit := Unit{Records: make([]Record, 0, limit)}
	n := 0
	for n < limit {
		unit.Records = append(unit.Records, s.process(s.backlog[n]))
		n++
		if s.opts.Now().Sub(start) >= budget {
			break
		}
	}
	s.backlog = s.backlog[n:]
	if len(s.backlog) == 0 {
		s.backlog = nil
	}

	now := s.opts.Now()
	unit.Elapsed = now.Sub(start)
	drained := len(s.backlog) == 0
	if drained || s.lastStats.IsZero() || now.Sub(s.lastStats) > s.opts.StatsInterval {
		unit.StatsDue = true
		s.lastStats = now
	}
	if drained {
		unit.ScrollToEnd = s.pendingFollow && s.follow
		s.pendingFollow = false
	} else {
		unit.More = true
		s.scheduled = true
	}
	return unit
}

// Drain runs units until the backlog is empty, handing each to yield. It
// checks ctx between units and returns its error when cancelled.
func (s *Scheduler) Drain(ctx context.Context, hint time.Duration, yield func(Unit)) error {
	for len(s.backlog) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		unit := s.RunUnit(hint)
		if yield != nil {
			yield(unit)
		}
	}
	s.scheduled = false
	return nil
}

// SetFollow enables or disables auto-follow. Disabling drops any pending
// follow request.
func (s *Scheduler) SetFollow(on bool) {
	s.follow = on
	if !on {
		s.pendingFollow = false
	}
}

// Follow reports whether auto-follow is enabled.
func (s *Scheduler) Follow() bool {
	return s.follow
}

// Pending returns the number of lines waiting to be processed.
func (s *Scheduler) Pending() int {
	return len(s.backlog)
}

// Scheduled reports whether a unit is owed to the scheduler.
func (s *Scheduler) Scheduled() bool {
	return s.scheduled
}

// Reset drops the backlog and any pending follow. The follow setting is
// kept.
func (s *Scheduler) Reset() {
	s.backlog = nil
	s.scheduled = false
	s.pendingFollow = false
	s.lastStats = time.Time{}
}
