// Package prefs remembers viewer state between runs: the theme, whether
// auto-follow is on, and which severity levels are hidden.
//
// Preferences live in ~/.config/consolelens/prefs.toml. A missing file is
// not an error. An unreadable or malformed file yields defaults together
// with the error so the caller can log it and carry on.
package prefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/consolelens/internal/config"
	"github.com/five82/consolelens/internal/search"
	"github.com/five82/consolelens/internal/severity"
)

// Prefs holds the viewer state remembered between runs.
type Prefs struct {
	Theme string `toml:"theme"`
	// Follow is nil when the user never toggled it; the config default applies.
	Follow       *bool    `toml:"follow,omitempty"`
	HiddenLevels []string `toml:"hidden_levels,omitempty"`
}

const (
	defaultPrefsPath = "~/.config/consolelens/prefs.toml"
	defaultTheme     = "Nightfox"
)

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Default returns the preferences of a first run.
func Default() Prefs {
	return Prefs{Theme: defaultTheme}
}

// Levels converts HiddenLevels into a level set. Unknown names are ignored.
func (p Prefs) Levels() search.LevelSet {
	set := search.AllLevels()
	for _, name := range p.HiddenLevels {
		if lvl, ok := severity.ParseLevel(name); ok {
			set = set.Without(lvl)
		}
	}
	return set
}

// SetLevels records which levels are hidden, in severity order.
func (p *Prefs) SetLevels(set search.LevelSet) {
	p.HiddenLevels = nil
	for _, lvl := range severity.Levels {
		if !set.Has(lvl) {
			p.HiddenLevels = append(p.HiddenLevels, strings.ToLower(lvl.String()))
		}
	}
}

// normalize fills an empty theme and rewrites HiddenLevels into canonical
// form, dropping names that are not levels.
func (p *Prefs) normalize() {
	if strings.TrimSpace(p.Theme) == "" {
		p.Theme = defaultTheme
	}
	if len(p.HiddenLevels) > 0 {
		p.SetLevels(p.Levels())
	}
}

// Load reads preferences from path, or the default path when empty.
func Load(path string) (Prefs, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Default(), err
	}

	data, err := os.ReadFile(resolved)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Default(), fmt.Errorf("read prefs: %w", err)
	}

	p := Default()
	if err := toml.Unmarshal(data, &p); err != nil {
		return Default(), fmt.Errorf("parse prefs %s: %w", resolved, err)
	}
	p.normalize()
	return p, nil
}

// Save writes preferences to path, creating directories as needed. The
// file is replaced atomically so a crash never leaves it half written.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	p.normalize()
	data, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".prefs-*.toml")
	if err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := os.Rename(tmp.Name(), resolved); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

// Equal reports whether two preference sets would be saved identically.
func Equal(a, b Prefs) bool {
	a.normalize()
	b.normalize()
	if a.Theme != b.Theme || !slices.Equal(a.HiddenLevels, b.HiddenLevels) {
		return false
	}
	switch {
	case a.Follow == nil || b.Follow == nil:
		return a.Follow == b.Follow
	default:
		return *a.Follow == *b.Follow
	}
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		path = defaultPrefsPath
	}
	return config.ExpandPath(path)
}
