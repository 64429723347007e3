package navigation

import "strconv"

// Region is one detected test case, stage or step.
type Region struct {
	Name    string  `json:"name" yaml:"name"`
	Kind    Kind    `json:"kind" yaml:"kind"`
	Icon    string  `json:"-" yaml:"-"`
	Rule    int     `json:"-" yaml:"-"`
	Start   int     `json:"start" yaml:"start"`
	End     int     `json:"end" yaml:"end"`
	Outcome Outcome `json:"outcome" yaml:"outcome"`
	// Forced is set when the region closed without its end marker, either
	// because another region started or because the stream ended.
	Forced bool `json:"forced,omitempty" yaml:"forced,omitempty"`
}

// IsOpen reports whether the region has not been closed yet.
func (r Region) IsOpen() bool {
	return r.End < 0
}

// Anchor is the element id of the region's start line.
func (r Region) Anchor() string {
	return AnchorID(r.Start)
}

// AnchorID returns the element id used for a region start at index.
func AnchorID(index int) string {
	return "region-" + strconv.Itoa(index)
}

// Step reports what a single line did to the machine.
type Step struct {
	// Opened is set when the line started a region.
	Opened bool
	// Ended is set when the line matched the open region's end marker.
	Ended bool
	// Closed holds regions finalized by this line, in closing order. A
	// force-closed predecessor comes before a region the same line ended.
	Closed []Region
	// Current names the region the line belongs to, or is empty.
	Current string
}

// Boundary reports whether the line opened or ended a region.
func (s Step) Boundary() bool {
	return s.Opened || s.Ended
}

// Machine tracks at most one open region over a stream of lines. Regions
// do not nest: a start while a region is open force-closes it first.
// A Machine is not safe for concurrent use.
type Machine struct {
	table   *Table
	open    *Region
	pattern *Pattern
}

// NewMachine returns an idle machine over table. A nil table uses
// DefaultTable.
func NewMachine(table *Table) *Machine {
	if table == nil {
		table = DefaultTable()
	}
	return &Machine{table: table}
}

// Table returns the pattern table the machine matches against.
func (m *Machine) Table() *Table {
	return m.table
}

// Feed processes the line at index. Start matching runs first; end
// matching then runs against whichever region is open, so a single line
// may both open and close a region.
func (m *Machine) Feed(line string, index int) Step {
	var step Step

	if match, ok := m.table.MatchStart(line); ok {
		if m.open != nil {
			step.Closed = append(step.Closed, m.forceClose(index-1))
		}
		m.open = &Region{
			Name:  match.Name,
			Kind:  match.Pattern.Kind,
			Icon:  match.Pattern.Icon,
			Rule:  match.Rule,
			Start: index,
			End:   -1,
		}
		m.pattern = match.Pattern
		step.Opened = true
	}

	if m.open == nil {
		return step
	}
	step.Current = m.open.Name

	if end := m.table.MatchEnd(line, m.pattern); end.Matched {
		closed := *m.open
		closed.End = index
		closed.Outcome = end.Outcome
		step.Closed = append(step.Closed, closed)
		step.Ended = true
		m.open = nil
		m.pattern = nil
	}
	return step
}

// Flush force-closes the open region at lastIndex, as at end of input.
func (m *Machine) Flush(lastIndex int) (Region, bool) {
	if m.open == nil {
		return Region{}, false
	}
	return m.forceClose(lastIndex), true
}

// Reopen undoes a Flush: r, which the end of input force-closed, becomes
// the open region again. It fails when another region is open or r's rule
// is not in the table.
func (m *Machine) Reopen(r Region) bool {
	if m.open != nil || r.Rule < 0 || r.Rule >= len(m.table.patterns) {
		return false
	}
	r.End = -1
	r.Outcome = Pending
	r.Forced = false
	m.open = &r
	m.pattern = &m.table.patterns[r.Rule]
	return true
}

// Open returns a copy of the open region, if any.
func (m *Machine) Open() (Region, bool) {
	if m.open == nil {
		return Region{}, false
	}
	return *m.open, true
}

// Reset drops any open region.
func (m *Machine) Reset() {
	m.open = nil
	m.pattern = nil
}

func (m *Machine) forceClose(end int) Region {
	closed := *m.open
	if end < closed.Start {
		end = closed.Start
	}
	closed.End = end
	closed.Outcome = Pending
	closed.Forced = true
	m.open = nil
	m.pattern = nil
	return closed
}

// Extract runs a fresh machine over lines and returns every region,
// flushing the one left open at the end.
func Extract(table *Table, lines []string) []Region {
	m := NewMachine(table)
	var regions []Region
	for i, line := range lines {
		regions = append(regions, m.Feed(line, i).Closed...)
	}
	if r, ok := m.Flush(len(lines) - 1); ok {
		regions = append(regions, r)
	}
	return regions
}
