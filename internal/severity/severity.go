package severity

import (
	"strings"
)

// Level is the severity assigned to a single console line.
type Level int

const (
	Error Level = iota
	Warn
	Info
	Debug
	Other
)

// Levels lists every level in classification order, OTHER last.
var Levels = []Level{Error, Warn, Info, Debug, Other}

var levelNames = [...]string{"ERROR", "WARN", "INFO", "DEBUG", "OTHER"}

// Default display colors. OTHER has none.
const (
	ColorError = "#F90636"
	ColorWarn  = "#F97106"
	ColorInfo  = "#061CF9"
	ColorDebug = "#C906F9"
)

func (l Level) String() string {
	if l < Error || l > Other {
		return "OTHER"
	}
	return levelNames[l]
}

// Priority ranks levels by severity; lower is more severe. OTHER ranks last.
func (l Level) Priority() int {
	if l < Error || l > Other {
		return int(Other) + 1
	}
	return int(l) + 1
}

// ParseLevel resolves a level name case-insensitively. WARNING is accepted
// as an alias for WARN.
func ParseLevel(name string) (Level, bool) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "ERROR":
		return Error, true
	case "WARN", "WARNING":
		return Warn, true
	case "INFO":
		return Info, true
	case "DEBUG":
		return Debug, true
	case "OTHER":
		return Other, true
	default:
		return Other, false
	}
}

// MarshalText renders the level name, so levels serialize as strings.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText parses a level name. Unknown names decode as OTHER.
func (l *Level) UnmarshalText(text []byte) error {
	parsed, _ := ParseLevel(string(text))
	*l = parsed
	return nil
}

// Classifier maps raw lines to levels by case-sensitive substring tests.
// Levels are tested ERROR, WARN, INFO, DEBUG in that order and the first
// level with a contained token wins, regardless of where the token sits in
// the line. A Classifier is immutable and safe for concurrent use.
type Classifier struct {
	tokens [Other][]string
	colors [Other]string
}

// DefaultClassifier matches each level by its own name.
func DefaultClassifier() *Classifier {
	return NewClassifier(nil, nil)
}

// NewClassifier builds a classifier from per-level token lists and colors.
// Levels missing from either map keep their defaults. Empty tokens are
// dropped, since the empty string is contained in every line.
func NewClassifier(tokens map[Level][]string, colors map[Level]string) *Classifier {
	c := &Classifier{
		colors: [Other]string{ColorError, ColorWarn, ColorInfo, ColorDebug},
	}
	for _, lvl := range Levels[:Other] {
		c.tokens[lvl] = []string{lvl.String()}
		if custom, ok := tokens[lvl]; ok {
			c.tokens[lvl] = compactTokens(custom)
		}
		if color := strings.TrimSpace(colors[lvl]); color != "" {
			c.colors[lvl] = color
		}
	}
	return c
}

// Classify returns the level and display color for line.
func (c *Classifier) Classify(line string) (Level, string) {
	for lvl := Error; lvl < Other; lvl++ {
		for _, token := range c.tokens[lvl] {
			if strings.Contains(line, token) {
				return lvl, c.colors[lvl]
			}
		}
	}
	return Other, ""
}

// Level is Classify without the color.
func (c *Classifier) Level(line string) Level {
	lvl, _ := c.Classify(line)
	return lvl
}

// Color returns the display color configured for lvl.
func (c *Classifier) Color(lvl Level) string {
	if lvl < Error || lvl >= Other {
		return ""
	}
	return c.colors[lvl]
}

// Tokens returns a copy of the tokens tested for lvl.
func (c *Classifier) Tokens(lvl Level) []string {
	if lvl < Error || lvl >= Other {
		return nil
	}
	return append([]string(nil), c.tokens[lvl]...)
}

func compactTokens(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if token == "" {
			continue
		}
		out = append(out, token)
	}
	return out
}
