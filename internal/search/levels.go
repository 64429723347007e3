package search

import (
	"strings"

	"github.com/five82/consolelens/internal/severity"
)

// LevelSet is a set of severity levels, stored as a bitmask.
type LevelSet uint8

// AllLevels contains every level, OTHER included.
func AllLevels() LevelSet {
	return NewLevelSet(severity.Levels...)
}

// NewLevelSet builds a set holding levels.
func NewLevelSet(levels ...severity.Level) LevelSet {
	var s LevelSet
	for _, lvl := range levels {
		s = s.With(lvl)
	}
	return s
}

// ParseLevelSet builds a set from level names, skipping unknown ones.
func ParseLevelSet(names []string) LevelSet {
	var s LevelSet
	for _, name := range names {
		if lvl, ok := severity.ParseLevel(name); ok {
			s = s.With(lvl)
		}
	}
	return s
}

func bit(lvl severity.Level) LevelSet {
	if lvl < severity.Error || lvl > severity.Other {
		lvl = severity.Other
	}
	return 1 << uint(lvl)
}

// Has reports whether lvl is in the set.
func (s LevelSet) Has(lvl severity.Level) bool {
	return s&bit(lvl) != 0
}

// With returns the set plus lvl.
func (s LevelSet) With(lvl severity.Level) LevelSet {
	return s | bit(lvl)
}

// Without returns the set minus lvl.
func (s LevelSet) Without(lvl severity.Level) LevelSet {
	return s &^ bit(lvl)
}

// Toggle flips membership of lvl.
func (s LevelSet) Toggle(lvl severity.Level) LevelSet {
	return s ^ bit(lvl)
}

// Collapse hides the chatty levels, INFO and DEBUG.
func (s LevelSet) Collapse() LevelSet {
	return s.Without(severity.Info).Without(severity.Debug)
}

// Expand brings INFO and DEBUG back.
func (s LevelSet) Expand() LevelSet {
	return s.With(severity.Info).With(severity.Debug)
}

// Levels lists the members in severity order.
func (s LevelSet) Levels() []severity.Level {
	var out []severity.Level
	for _, lvl := range severity.Levels {
		if s.Has(lvl) {
			out = append(out, lvl)
		}
	}
	return out
}

// Names lists member names in severity order.
func (s LevelSet) Names() []string {
	levels := s.Levels()
	names := make([]string, len(levels))
	for i, lvl := range levels {
		names[i] = lvl.String()
	}
	return names
}

func (s LevelSet) String() string {
	if s == AllLevels() {
		return "ALL"
	}
	if s == 0 {
		return "NONE"
	}
	return strings.Join(s.Names(), ",")
}
