// Package ingest turns a growing log text into a stream of numbered lines,
// each emitted exactly once.
package ingest

import (
	"strings"
)

// Line is one complete console line and its zero-based position.
type Line struct {
	Index int
	Text  string
}

// Delta is the result of one ingestion call.
type Delta struct {
	Lines []Line
	// Reset is set when the content no longer extended what was seen
	// before. Lines then restart at index 0 and callers must discard any
	// state derived from earlier lines.
	Reset bool
}

// Empty reports whether the delta carries nothing new.
func (d Delta) Empty() bool {
	return len(d.Lines) == 0 && !d.Reset
}

// Tracker remembers how much of the content has been turned into lines.
// Only newline-terminated lines are emitted; a trailing partial line is held
// back until its newline arrives or Finish is called. A Tracker is not safe
// for concurrent use.
//
// Content may keep growing after Finish. When the next bytes only
// terminate the released line, numbering carries on. When they extend it,
// the released record is wrong, so the next delta is a Reset.
type Tracker struct {
	content  string
	consumed int
	next     int
	// released is set while the last emitted line came from Finish
	// rather than from a newline.
	released bool

	buf      strings.Builder
	bufValid bool
}

// Ingest accepts the full current content. Content equal to the previous
// call yields an empty delta. Content that does not start with the previous
// content resets the tracker and is ingested from scratch.
func (t *Tracker) Ingest(content string) Delta {
	if content == t.content {
		return Delta{}
	}
	var d Delta
	if !strings.HasPrefix(content, t.content) {
		t.Reset()
		d.Reset = true
	}
	t.content = content
	t.bufValid = false
	if t.resume() {
		t.Reset()
		t.content = content
		d.Reset = true
	}
	d.Lines = t.scan()
	return d
}

// Append extends the content with chunk. It is the streaming form of
// Ingest for sources that deliver only the new bytes, such as a bulk
// reload.
func (t *Tracker) Append(chunk string) Delta {
	if chunk == "" {
		return Delta{}
	}
	if !t.bufValid {
		t.buf.Reset()
		t.buf.WriteString(t.content)
		t.bufValid = true
	}
	t.buf.WriteString(chunk)
	t.content = t.buf.String()
	var d Delta
	if t.resume() {
		content := t.content
		t.Reset()
		t.content = content
		d.Reset = true
	}
	d.Lines = t.scan()
	return d
}

// resume handles growth after Finish released a partial line. It skips
// the newline that completes the released line and reports true when the
// line itself grew instead.
func (t *Tracker) resume() (rescan bool) {
	if !t.released || t.consumed >= len(t.content) {
		return false
	}
	t.released = false
	rest := t.content[t.consumed:]
	switch {
	case strings.HasPrefix(rest, "\n"):
		t.consumed++
	case strings.HasPrefix(rest, "\r\n"):
		t.consumed += 2
	case rest == "\r":
		// Could still become a line ending; wait for more.
		t.released = true
		return false
	default:
		return true
	}
	return false
}

// Finish emits the held-back partial line, if any, as at end of stream.
func (t *Tracker) Finish() []Line {
	if t.consumed >= len(t.content) {
		return nil
	}
	text := strings.TrimSuffix(t.content[t.consumed:], "\r")
	t.consumed = len(t.content)
	t.released = true
	line := Line{Index: t.next, Text: text}
	t.next++
	return []Line{line}
}

// Reset forgets all content and restarts numbering at zero.
func (t *Tracker) Reset() {
	t.content = ""
	t.consumed = 0
	t.next = 0
	t.released = false
	t.buf.Reset()
	t.bufValid = false
}

// Lines returns how many lines have been emitted.
func (t *Tracker) Lines() int {
	return t.next
}

// Pending returns the partial line currently held back.
func (t *Tracker) Pending() string {
	return t.content[t.consumed:]
}

// Content returns the last full content seen.
func (t *Tracker) Content() string {
	return t.content
}

func (t *Tracker) scan() []Line {
	tail := t.content[t.consumed:]
	cut := strings.LastIndexByte(tail, '\n')
	if cut < 0 {
		return nil
	}
	complete := tail[:cut]
	t.consumed += cut + 1

	lines := make([]Line, 0, strings.Count(complete, "\n")+1)
	for _, text := range strings.Split(complete, "\n") {
		lines = append(lines, Line{Index: t.next, Text: strings.TrimSuffix(text, "\r")})
		t.next++
	}
	return lines
}
