package severity

// Stats is a running count of classified lines per level.
type Stats struct {
	Counts [Other + 1]int
	Total  int
}

// Add counts one line of the given level.
func (s *Stats) Add(lvl Level) {
	if lvl < Error || lvl > Other {
		lvl = Other
	}
	s.Counts[lvl]++
	s.Total++
}

// Count returns the number of lines seen at lvl.
func (s Stats) Count(lvl Level) int {
	if lvl < Error || lvl > Other {
		return 0
	}
	return s.Counts[lvl]
}

// Reset zeroes every counter.
func (s *Stats) Reset() {
	*s = Stats{}
}

// Map renders the counts keyed by level name plus "total".
func (s Stats) Map() map[string]int {
	out := make(map[string]int, len(Levels)+1)
	for _, lvl := range Levels {
		out[lvl.String()] = s.Counts[lvl]
	}
	out["total"] = s.Total
	return out
}
