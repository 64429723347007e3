package search

import (
	"sort"

	"github.com/five82/consolelens/internal/render"
)

// Index caches the filtered view and search hits over a growing record
// history. Records are only appended to the history, so the index extends
// itself incrementally; changing the level set or query marks it dirty and
// the next Update rebuilds it.
type Index struct {
	levels LevelSet
	query  string
	needle string
	active bool

	visible []int
	matches []int
	seen    int
	dirty   bool
}

// NewIndex returns an index showing every level with no query.
func NewIndex() *Index {
	return &Index{levels: AllLevels()}
}

// Levels returns the active level set.
func (x *Index) Levels() LevelSet {
	return x.levels
}

// SetLevels changes the level filter.
func (x *Index) SetLevels(levels LevelSet) {
	if levels == x.levels {
		return
	}
	x.levels = levels
	x.dirty = true
}

// Query returns the search query as set.
func (x *Index) Query() string {
	return x.query
}

// SetQuery changes the search query. Queries too short to search clear the
// hits.
func (x *Index) SetQuery(query string) {
	if query == x.query {
		return
	}
	x.query = query
	x.needle, x.active = normalizeQuery(query)
	x.dirty = true
}

// Searching reports whether the query is long enough to produce hits.
func (x *Index) Searching() bool {
	return x.active
}

// Update brings the index in line with history. history must be the same
// slice grown by appends since the last call, or a fresh history after
// Reset.
func (x *Index) Update(history []render.Record) {
	if x.dirty || len(history) < x.seen {
		x.visible = nil
		x.matches = nil
		x.seen = 0
		x.dirty = false
	}
	for _, r := range history[x.seen:] {
		if !x.levels.Has(r.Level) {
			continue
		}
		x.visible = append(x.visible, r.Index)
		if x.active && containsFold(r.Text, x.needle) {
			x.matches = append(x.matches, r.Index)
		}
	}
	x.seen = len(history)
}

// Visible returns the indices of records passing the level filter.
func (x *Index) Visible() []int {
	return x.visible
}

// Matches returns the indices of visible records containing the query.
func (x *Index) Matches() []int {
	return x.matches
}

// Position returns where index sits among the visible records, or the
// position of the nearest visible record before it.
func (x *Index) Position(index int) int {
	pos := sort.SearchInts(x.visible, index)
	if pos < len(x.visible) && x.visible[pos] == index {
		return pos
	}
	return max(pos-1, 0)
}

// Reset forgets all cached state, keeping the level set and query.
func (x *Index) Reset() {
	x.visible = nil
	x.matches = nil
	x.seen = 0
	x.dirty = false
}
