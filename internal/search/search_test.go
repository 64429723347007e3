package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/consolelens/internal/render"
	"github.com/five82/consolelens/internal/severity"
)

func records(lines ...string) []render.Record {
	c := severity.DefaultClassifier()
	out := make([]render.Record, len(lines))
	for i, line := range lines {
		lvl, color := c.Classify(line)
		out[i] = render.Record{Index: i, Text: line, Level: lvl, Color: color, ElementID: render.LineID(i)}
	}
	return out
}

func indices(rs []render.Record) []int {
	out := make([]int, len(rs))
	for i, r := range rs {
		out[i] = r.Index
	}
	return out
}

func TestFilter_KeepsOrderAndIndices(t *testing.T) {
	rs := records(
		"[ERROR] Error message",
		"[INFO] Info message",
		"[DEBUG] Debug message",
		"Plain text",
		"[ERROR] again",
	)

	assert.Equal(t, []int{0, 4}, indices(Filter(rs, NewLevelSet(severity.Error))))
	assert.Equal(t, []int{0, 1, 4}, indices(Filter(rs, NewLevelSet(severity.Error, severity.Info))))

	other := Filter(rs, NewLevelSet(severity.Other))
	require.Len(t, other, 1)
	assert.Equal(t, "Plain text", other[0].Text)

	assert.Empty(t, Filter(rs, 0))
	assert.Len(t, Filter(rs, AllLevels()), 5)
}

func TestFilter_DoesNotMutate(t *testing.T) {
	rs := records("[ERROR] x", "[INFO] y")
	before := append([]render.Record(nil), rs...)

	Filter(rs, NewLevelSet(severity.Info))
	Search(rs, "x")

	assert.Equal(t, before, rs)
}

func TestSearch(t *testing.T) {
	rs := records("abc", "xab", "xyz")

	assert.Equal(t, []int{0, 1}, Search(rs, "ab"))
	assert.Equal(t, []int{}, Search(rs, "a"))
	assert.Equal(t, []int{0, 1}, Search(rs, "AB"))
	assert.Equal(t, []int{}, Search(rs, " a "))
	assert.Equal(t, []int{}, Search(rs, "nothing"))
}

func TestSearchLines(t *testing.T) {
	lines := []string{
		"[ERROR] Connection failed",
		"[INFO] Server started",
		"[DEBUG] Loading config",
		"[INFO] Connection established",
	}

	assert.Equal(t, []int{0, 3}, SearchLines(lines, "connection"))
	assert.Equal(t, []int{0, 3}, SearchLines(lines, "CONNECTION"))
	assert.Equal(t, []int{}, SearchLines(lines, "c"))
	assert.Equal(t, []int{}, SearchLines(lines, "xyz123"))
}

func TestFilterLines(t *testing.T) {
	lines := []string{
		"[ERROR] Error message",
		"[INFO] Info message",
		"[DEBUG] Debug message",
		"Plain text",
	}

	got := FilterLines(lines, NewLevelSet(severity.Error), nil)
	require.Len(t, got, 1)
	assert.Equal(t, 0, got[0].Index)
	assert.Equal(t, severity.Error, got[0].Level)

	assert.Len(t, FilterLines(lines, NewLevelSet(severity.Error, severity.Info), nil), 2)
}

func TestLevelSet(t *testing.T) {
	s := AllLevels()
	assert.Equal(t, "ALL", s.String())

	collapsed := s.Collapse()
	assert.False(t, collapsed.Has(severity.Info))
	assert.False(t, collapsed.Has(severity.Debug))
	assert.True(t, collapsed.Has(severity.Error))
	assert.Equal(t, "ERROR,WARN,OTHER", collapsed.String())
	assert.Equal(t, AllLevels(), collapsed.Expand())

	toggled := NewLevelSet(severity.Warn).Toggle(severity.Warn).Toggle(severity.Error)
	assert.Equal(t, []severity.Level{severity.Error}, toggled.Levels())
	assert.Equal(t, "NONE", LevelSet(0).String())

	assert.Equal(t, NewLevelSet(severity.Error, severity.Warn), ParseLevelSet([]string{"error", "warning", "bogus"}))
}

func TestIndex_IncrementalAndDirty(t *testing.T) {
	history := records(
		"[ERROR] disk failure",
		"[INFO] started",
		"[DEBUG] disk check",
	)

	x := NewIndex()
	x.SetQuery("disk")
	assert.True(t, x.Searching())
	x.Update(history)
	assert.Equal(t, []int{0, 1, 2}, x.Visible())
	assert.Equal(t, []int{0, 2}, x.Matches())

	history = records(
		"[ERROR] disk failure",
		"[INFO] started",
		"[DEBUG] disk check",
		"[WARN] disk almost full",
	)
	x.Update(history)
	assert.Equal(t, []int{0, 1, 2, 3}, x.Visible())
	assert.Equal(t, []int{0, 2, 3}, x.Matches())

	x.SetLevels(AllLevels().Collapse())
	x.Update(history)
	assert.Equal(t, []int{0, 3}, x.Visible())
	assert.Equal(t, []int{0, 3}, x.Matches())

	x.SetQuery("d")
	assert.False(t, x.Searching())
	x.Update(history)
	assert.Empty(t, x.Matches())
}

func TestIndex_ShrunkHistoryRebuilds(t *testing.T) {
	x := NewIndex()
	x.Update(records("a", "b", "c"))
	x.Update(records("z"))

	assert.Equal(t, []int{0}, x.Visible())
}

func TestIndex_Position(t *testing.T) {
	x := NewIndex()
	x.SetLevels(NewLevelSet(severity.Error))
	x.Update(records("[ERROR] a", "b", "[ERROR] c", "d"))

	assert.Equal(t, []int{0, 2}, x.Visible())
	assert.Equal(t, 1, x.Position(2))
	assert.Equal(t, 1, x.Position(3))
	assert.Equal(t, 0, x.Position(1))
}
