package ui

import (
	"slices"
	"strings"
)

// selection is the set of record indices picked for copying. anchor is the
// last line toggled with v, or -1; range selection extends from it.
type selection struct {
	lines  map[int]bool
	anchor int
}

func newSelection() selection {
	return selection{anchor: -1}
}

// Len returns the number of selected lines.
func (s *selection) Len() int {
	return len(s.lines)
}

// Has reports whether index is selected.
func (s *selection) Has(index int) bool {
	return s.lines[index]
}

// Toggle flips one line and makes it the anchor.
func (s *selection) Toggle(index int) {
	if s.lines == nil {
		s.lines = make(map[int]bool)
	}
	if s.lines[index] {
		delete(s.lines, index)
	} else {
		s.lines[index] = true
	}
	s.anchor = index
}

// Extend selects every visible index between the anchor and index,
// inclusive. Without an anchor it starts one at index.
func (s *selection) Extend(visible []int, index int) {
	if s.anchor < 0 {
		s.Toggle(index)
		return
	}
	if s.lines == nil {
		s.lines = make(map[int]bool)
	}
	lo, hi := min(s.anchor, index), max(s.anchor, index)
	start, _ := slices.BinarySearch(visible, lo)
	for _, idx := range visible[start:] {
		if idx > hi {
			break
		}
		s.lines[idx] = true
	}
}

// Clear drops every selected line and the anchor.
func (s *selection) Clear() {
	s.lines = nil
	s.anchor = -1
}

// Indices returns the selected indices in log order.
func (s *selection) Indices() []int {
	out := make([]int, 0, len(s.lines))
	for idx := range s.lines {
		out = append(out, idx)
	}
	slices.Sort(out)
	return out
}

// selectedText joins the selected records in index order.
func (m *Model) selectedText() (string, int) {
	indices := m.logState.selected.Indices()
	lines := make([]string, 0, len(indices))
	for _, idx := range indices {
		if rec, ok := m.session.Record(idx); ok {
			lines = append(lines, rec.Text)
		}
	}
	return strings.Join(lines, "\n"), len(lines)
}
