package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func texts(lines []Line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Text
	}
	return out
}

func TestIngest_EmitsCompleteLines(t *testing.T) {
	var tr Tracker

	d := tr.Ingest("one\ntwo\nthr")
	assert.False(t, d.Reset)
	assert.Equal(t, []string{"one", "two"}, texts(d.Lines))
	assert.Equal(t, 0, d.Lines[0].Index)
	assert.Equal(t, 1, d.Lines[1].Index)
	assert.Equal(t, "thr", tr.Pending())

	d = tr.Ingest("one\ntwo\nthree\nfour\n")
	assert.Equal(t, []string{"three", "four"}, texts(d.Lines))
	assert.Equal(t, 2, d.Lines[0].Index)
	assert.Equal(t, 3, d.Lines[1].Index)
	assert.Empty(t, tr.Pending())
	assert.Equal(t, 4, tr.Lines())
}

func TestIngest_IdempotentOnUnchangedContent(t *testing.T) {
	var tr Tracker
	content := "a\nb\n"

	first := tr.Ingest(content)
	require.Len(t, first.Lines, 2)

	second := tr.Ingest(content)
	assert.True(t, second.Empty())
	assert.Equal(t, 2, tr.Lines())
}

func TestIngest_MonotonicGrowthCountsEachLineOnce(t *testing.T) {
	var tr Tracker
	c1 := "l0\nl1\nl2\n"
	c2 := c1 + "l3\nl4\n"

	var all []Line
	all = append(all, tr.Ingest(c1).Lines...)
	all = append(all, tr.Ingest(c2).Lines...)
	all = append(all, tr.Ingest(c2).Lines...)

	require.Len(t, all, 5)
	for i, l := range all {
		assert.Equal(t, i, l.Index)
	}
	assert.Equal(t, []string{"l0", "l1", "l2", "l3", "l4"}, texts(all))
}

func TestIngest_GrowthSplitInsideLine(t *testing.T) {
	var tr Tracker
	content := "alpha\nbeta\ngamma\n"

	var all []Line
	for i := 1; i <= len(content); i++ {
		all = append(all, tr.Ingest(content[:i]).Lines...)
	}
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, texts(all))
}

func TestIngest_NonPrefixContentResets(t *testing.T) {
	var tr Tracker
	tr.Ingest("old one\nold two\n")

	d := tr.Ingest("new one\n")
	assert.True(t, d.Reset)
	require.Len(t, d.Lines, 1)
	assert.Equal(t, 0, d.Lines[0].Index)
	assert.Equal(t, "new one", d.Lines[0].Text)
	assert.Equal(t, 1, tr.Lines())
}

func TestIngest_TruncatedContentResets(t *testing.T) {
	var tr Tracker
	tr.Ingest("a\nb\n")

	d := tr.Ingest("")
	assert.True(t, d.Reset)
	assert.Empty(t, d.Lines)
	assert.False(t, d.Empty())
	assert.Zero(t, tr.Lines())
}

func TestIngest_TrimsCarriageReturnAndKeepsEmptyLines(t *testing.T) {
	var tr Tracker

	d := tr.Ingest("a\r\n\r\n\nb\n")
	assert.Equal(t, []string{"a", "", "", "b"}, texts(d.Lines))
}

func TestFinish_EmitsHeldBackLine(t *testing.T) {
	var tr Tracker
	tr.Ingest("done\npartial")

	lines := tr.Finish()
	require.Len(t, lines, 1)
	assert.Equal(t, Line{Index: 1, Text: "partial"}, lines[0])
	assert.Nil(t, tr.Finish())
	assert.Equal(t, 2, tr.Lines())
}

func TestFinish_ThenNewlineContinuesNumbering(t *testing.T) {
	for _, ending := range []string{"\n", "\r\n"} {
		var tr Tracker
		tr.Ingest("a\nb")
		tr.Finish()

		d := tr.Ingest("a\nb" + ending + "c\n")
		assert.False(t, d.Reset)
		assert.Equal(t, []Line{{Index: 2, Text: "c"}}, d.Lines)
	}
}

func TestFinish_ThenLineGrowthResets(t *testing.T) {
	var tr Tracker
	tr.Ingest("a\nb")
	tr.Finish()

	d := tr.Ingest("a\nbc\n")
	assert.True(t, d.Reset)
	assert.Equal(t, []string{"a", "bc"}, texts(d.Lines))
	assert.Equal(t, 0, d.Lines[0].Index)
}

func TestFinish_ThenLoneCarriageReturnWaits(t *testing.T) {
	var tr Tracker
	tr.Ingest("a\nb")
	tr.Finish()

	d := tr.Ingest("a\nb\r")
	assert.True(t, d.Empty())
	d = tr.Ingest("a\nb\r\nc\n")
	assert.False(t, d.Reset)
	assert.Equal(t, []string{"c"}, texts(d.Lines))
}

func TestAppend_StreamsChunks(t *testing.T) {
	var tr Tracker
	var all []Line

	for _, chunk := range []string{"fir", "st\nsec", "ond\n", "", "third"} {
		all = append(all, tr.Append(chunk).Lines...)
	}
	all = append(all, tr.Finish()...)

	assert.Equal(t, []string{"first", "second", "third"}, texts(all))
	assert.Equal(t, "first\nsecond\nthird", tr.Content())

	d := tr.Ingest("first\nsecond\nthird")
	assert.True(t, d.Empty())
}

func TestAppend_AfterIngestContinues(t *testing.T) {
	var tr Tracker
	tr.Ingest("a\n")

	d := tr.Append("b\n")
	require.Len(t, d.Lines, 1)
	assert.Equal(t, Line{Index: 1, Text: "b"}, d.Lines[0])

	d = tr.Ingest("a\nb\nc\n")
	assert.Equal(t, []string{"c"}, texts(d.Lines))
}

func TestReset_ClearsState(t *testing.T) {
	var tr Tracker
	tr.Ingest("a\nb\nc")
	tr.Reset()

	assert.Zero(t, tr.Lines())
	assert.Empty(t, tr.Content())
	assert.Empty(t, tr.Pending())

	d := tr.Ingest("a\n")
	assert.False(t, d.Reset)
	assert.Equal(t, 0, d.Lines[0].Index)
}
