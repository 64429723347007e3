package navigation

import (
	"fmt"
	"regexp"
	"strings"
)

// Kind tags the sort of region a pattern recognizes.
type Kind string

const (
	KindTest  Kind = "test"
	KindStage Kind = "stage"
	KindStep  Kind = "step"
)

// Outcome is the resolution of a region.
type Outcome int

const (
	Pending Outcome = iota
	Passed
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Passed:
		return "passed"
	case Failed:
		return "failed"
	default:
		return "pending"
	}
}

// MarshalText renders the outcome name.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Pattern is one rule of the table. End is nil for regions that are only
// ever closed implicitly.
type Pattern struct {
	Kind  Kind
	Start *regexp.Regexp
	End   *regexp.Regexp
	Icon  string
}

// HasEnd reports whether the pattern carries an explicit end matcher.
func (p *Pattern) HasEnd() bool {
	return p != nil && p.End != nil
}

// Rule is the uncompiled, configurable form of a Pattern.
type Rule struct {
	Kind  string `toml:"kind"`
	Start string `toml:"start"`
	End   string `toml:"end"`
	Icon  string `toml:"icon"`
}

// DefaultFailureTokens mark an end line as failed. Matching is case-sensitive.
var DefaultFailureTokens = []string{"ERROR", "FAILED", "failed"}

// DefaultRules is the built-in table, in matching order.
func DefaultRules() []Rule {
	return []Rule{
		{Kind: "test", Start: `Starting TestCase:\s*(.+)$`, End: `SUMMARY of TestCase \[([^\]]+)\]:\s*(\w+)`, Icon: "🧪"},
		{Kind: "stage", Start: `^\[Pipeline\]\s+stage\s*\(?['"]?(.+?)['"]?\)?`, End: `^\[Pipeline\]\s+/\s*stage`, Icon: "📦"},
		{Kind: "stage", Start: `^Stage\s+['"]?(.+?)['"]?\s+started`, End: `^Stage\s+['"]?(.+?)['"]?\s+(completed|failed)`, Icon: "📦"},
		{Kind: "stage", Start: `^\[(.+?)\]\s+Stage`, Icon: "📦"},
		{Kind: "test", Start: `^Running\s+(.+)$`, End: `^Tests run:\s*\d+.*?in\s+(.+)$`, Icon: "🧪"},
		{Kind: "test", Start: `^Test:\s+(.+)$`, End: `^Test\s+(.+?)\s+(PASSED|FAILED)`, Icon: "🧪"},
		{Kind: "step", Start: `^\[Pipeline\]\s+\{\s*\((.+?)\)`, End: `^\[Pipeline\]\s+\}`, Icon: "⚙"},
		{Kind: "step", Start: `^\+\s+(.+)$`, Icon: "⚙"},
	}
}

// Table is an ordered, immutable list of patterns. Start and end matching
// are both first-match-wins in table order.
type Table struct {
	patterns      []Pattern
	failureTokens []string
}

// Compile builds a table from rules. Every expression is matched
// case-insensitively. A nil failureTokens uses DefaultFailureTokens.
func Compile(rules []Rule, failureTokens []string) (*Table, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("navigation table is empty")
	}
	t := &Table{patterns: make([]Pattern, 0, len(rules))}
	for i, rule := range rules {
		p, err := compileRule(rule)
		if err != nil {
			return nil, fmt.Errorf("navigation rule %d: %w", i+1, err)
		}
		t.patterns = append(t.patterns, p)
	}
	if failureTokens == nil {
		failureTokens = DefaultFailureTokens
	}
	for _, token := range failureTokens {
		if token != "" {
			t.failureTokens = append(t.failureTokens, token)
		}
	}
	return t, nil
}

// DefaultTable compiles DefaultRules.
func DefaultTable() *Table {
	t, err := Compile(DefaultRules(), nil)
	if err != nil {
		panic(err)
	}
	return t
}

func compileRule(rule Rule) (Pattern, error) {
	kind := Kind(strings.ToLower(strings.TrimSpace(rule.Kind)))
	if kind == "" {
		return Pattern{}, fmt.Errorf("kind is empty")
	}
	if strings.TrimSpace(rule.Start) == "" {
		return Pattern{}, fmt.Errorf("start pattern is empty")
	}
	start, err := regexp.Compile("(?i)" + rule.Start)
	if err != nil {
		return Pattern{}, fmt.Errorf("compile start: %w", err)
	}
	p := Pattern{Kind: kind, Start: start, Icon: rule.Icon}
	if strings.TrimSpace(rule.End) != "" {
		end, err := regexp.Compile("(?i)" + rule.End)
		if err != nil {
			return Pattern{}, fmt.Errorf("compile end: %w", err)
		}
		p.End = end
	}
	return p, nil
}

// Patterns returns the table's patterns in order.
func (t *Table) Patterns() []Pattern {
	return append([]Pattern(nil), t.patterns...)
}

// FailureTokens returns the tokens that mark an end line as failed.
func (t *Table) FailureTokens() []string {
	return append([]string(nil), t.failureTokens...)
}

// StartMatch describes the first start pattern that matched a line.
type StartMatch struct {
	Pattern *Pattern
	Rule    int
	Name    string
}

// MatchStart returns the first pattern whose start matcher matches line.
// The region name is the first capture group, trimmed, or the trimmed line
// when the group is absent or empty.
func (t *Table) MatchStart(line string) (StartMatch, bool) {
	for i := range t.patterns {
		p := &t.patterns[i]
		groups := p.Start.FindStringSubmatch(line)
		if groups == nil {
			continue
		}
		name := strings.TrimSpace(line)
		if len(groups) > 1 && groups[1] != "" {
			name = strings.TrimSpace(groups[1])
		}
		return StartMatch{Pattern: p, Rule: i, Name: name}, true
	}
	return StartMatch{}, false
}

// EndMatch is the result of testing a line against an open region's end.
type EndMatch struct {
	Matched bool
	Outcome Outcome
	Name    string
}

// MatchEnd tests line against the end matcher of p. A pattern without an
// end matcher never matches and reports Passed, since such regions are
// closed implicitly. On a match the outcome is Failed when the line holds
// any failure token.
func (t *Table) MatchEnd(line string, p *Pattern) EndMatch {
	if !p.HasEnd() {
		return EndMatch{Outcome: Passed}
	}
	groups := p.End.FindStringSubmatch(line)
	if groups == nil {
		return EndMatch{Outcome: Passed}
	}
	m := EndMatch{Matched: true, Outcome: Passed}
	if len(groups) > 1 {
		m.Name = strings.TrimSpace(groups[1])
	}
	for _, token := range t.failureTokens {
		if strings.Contains(line, token) {
			m.Outcome = Failed
			break
		}
	}
	return m
}
