package render

import (
	"fmt"
	"strconv"

	"github.com/five82/consolelens/internal/navigation"
	"github.com/five82/consolelens/internal/severity"
)

// Record is the presentation form of one classified line. Records are
// never modified after they are produced.
type Record struct {
	Index     int            `json:"index" yaml:"index"`
	Text      string         `json:"text" yaml:"text"`
	Level     severity.Level `json:"level" yaml:"level"`
	Color     string         `json:"color,omitempty" yaml:"color,omitempty"`
	Region    string         `json:"region,omitempty" yaml:"region,omitempty"`
	Boundary  bool           `json:"boundary,omitempty" yaml:"boundary,omitempty"`
	ElementID string         `json:"id" yaml:"id"`
}

// LineID is the element id of an ordinary line.
func LineID(index int) string {
	return "line-" + strconv.Itoa(index)
}

// ElementID picks the id for a line: region starts carry the region anchor
// so navigator entries can point at them.
func ElementID(index int, opensRegion bool) string {
	if opensRegion {
		return navigation.AnchorID(index)
	}
	return LineID(index)
}

// LineNumber formats the one-based line number for index, right-aligned in
// five columns.
func LineNumber(index int) string {
	return fmt.Sprintf("%5d", index+1)
}
