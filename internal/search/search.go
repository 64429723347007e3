// Package search derives filtered and searched views of classified lines
// without touching the records themselves.
package search

import (
	"strings"

	"github.com/five82/consolelens/internal/render"
	"github.com/five82/consolelens/internal/severity"
)

// MinQueryLength is the shortest query that is searched at all.
const MinQueryLength = 2

// Filter returns the records whose level is in levels, in order.
func Filter(records []render.Record, levels LevelSet) []render.Record {
	var out []render.Record
	for _, r := range records {
		if levels.Has(r.Level) {
			out = append(out, r)
		}
	}
	return out
}

// Search returns the indices of records containing query, ignoring case.
// Queries shorter than MinQueryLength after trimming match nothing.
func Search(records []render.Record, query string) []int {
	needle, ok := normalizeQuery(query)
	if !ok {
		return []int{}
	}
	out := []int{}
	for _, r := range records {
		if containsFold(r.Text, needle) {
			out = append(out, r.Index)
		}
	}
	return out
}

// Match is a raw line selected by FilterLines.
type Match struct {
	Index int
	Text  string
	Level severity.Level
}

// FilterLines classifies raw lines and keeps those whose level is in
// levels, with their original positions.
func FilterLines(lines []string, levels LevelSet, c *severity.Classifier) []Match {
	if c == nil {
		c = severity.DefaultClassifier()
	}
	var out []Match
	for i, line := range lines {
		lvl := c.Level(line)
		if levels.Has(lvl) {
			out = append(out, Match{Index: i, Text: line, Level: lvl})
		}
	}
	return out
}

// SearchLines is Search over raw lines; indices are slice positions.
func SearchLines(lines []string, query string) []int {
	needle, ok := normalizeQuery(query)
	if !ok {
		return []int{}
	}
	out := []int{}
	for i, line := range lines {
		if containsFold(line, needle) {
			out = append(out, i)
		}
	}
	return out
}

func normalizeQuery(query string) (string, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if len([]rune(q)) < MinQueryLength {
		return "", false
	}
	return q, true
}

func containsFold(text, lowerNeedle string) bool {
	return strings.Contains(strings.ToLower(text), lowerNeedle)
}
