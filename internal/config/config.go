package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/consolelens/internal/navigation"
	"github.com/five82/consolelens/internal/render"
	"github.com/five82/consolelens/internal/severity"
	"github.com/five82/consolelens/internal/source"
)

// Config is the consolelens configuration.
type Config struct {
	LogFile    string
	Source     SourceConfig
	Levels     map[severity.Level]LevelConfig
	Navigation NavigationConfig
	Render     RenderConfig
}

// SourceConfig controls how content is fetched.
type SourceConfig struct {
	PollInterval time.Duration
	FetchTimeout time.Duration
	Debounce     time.Duration
	User         string
	Token        string
}

// LevelConfig overrides the tokens and color of one severity level. A nil
// Tokens keeps the defaults; an empty list disables the level.
type LevelConfig struct {
	Tokens []string
	Color  string
}

// NavigationConfig replaces the navigation pattern table. Empty fields
// keep the defaults.
type NavigationConfig struct {
	FailureTokens []string
	Patterns      []navigation.Rule
}

// RenderConfig tunes the render scheduler.
type RenderConfig struct {
	BatchSize     int
	Budget        time.Duration
	Floor         time.Duration
	StatsInterval time.Duration
	Follow        bool
}

const (
	defaultConfigPath   = "~/.config/consolelens/config.toml"
	defaultLogFile      = "~/.local/state/consolelens/consolelens.log"
	defaultPollInterval = 2 * time.Second
	defaultFetchTimeout = 10 * time.Second
)

type rawConfig struct {
	LogFile string `toml:"log_file"`
	Source  struct {
		PollInterval string `toml:"poll_interval"`
		FetchTimeout string `toml:"fetch_timeout"`
		Debounce     string `toml:"debounce"`
		User         string `toml:"user"`
		Token        string `toml:"token"`
	} `toml:"source"`
	Levels map[string]struct {
		Tokens *[]string `toml:"tokens"`
		Color  string    `toml:"color"`
	} `toml:"levels"`
	Navigation struct {
		FailureTokens []string          `toml:"failure_tokens"`
		Patterns      []navigation.Rule `toml:"patterns"`
	} `toml:"navigation"`
	Render struct {
		BatchSize     int    `toml:"batch_size"`
		Budget        string `toml:"budget"`
		Floor         string `toml:"floor"`
		StatsInterval string `toml:"stats_interval"`
		Follow        *bool  `toml:"follow"`
	} `toml:"render"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		LogFile: mustExpand(defaultLogFile),
		Source: SourceConfig{
			PollInterval: defaultPollInterval,
			FetchTimeout: defaultFetchTimeout,
			Debounce:     source.DefaultDebounce,
		},
		Render: RenderConfig{
			BatchSize:     render.DefaultBatchSize,
			Budget:        render.DefaultBudget,
			Floor:         render.DefaultFloor,
			StatsInterval: render.DefaultStatsInterval,
			Follow:        true,
		},
	}
}

// Load locates and parses the config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.apply(raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) apply(raw rawConfig) error {
	if logFile := strings.TrimSpace(raw.LogFile); logFile != "" {
		c.LogFile = mustExpand(logFile)
	}

	durations := []struct {
		key  string
		raw  string
		dest *time.Duration
	}{
		{"source.poll_interval", raw.Source.PollInterval, &c.Source.PollInterval},
		{"source.fetch_timeout", raw.Source.FetchTimeout, &c.Source.FetchTimeout},
		{"source.debounce", raw.Source.Debounce, &c.Source.Debounce},
		{"render.budget", raw.Render.Budget, &c.Render.Budget},
		{"render.floor", raw.Render.Floor, &c.Render.Floor},
		{"render.stats_interval", raw.Render.StatsInterval, &c.Render.StatsInterval},
	}
	for _, d := range durations {
		if err := parseDuration(d.key, d.raw, d.dest); err != nil {
			return err
		}
	}

	c.Source.User = strings.TrimSpace(raw.Source.User)
	c.Source.Token = strings.TrimSpace(raw.Source.Token)

	if raw.Render.BatchSize > 0 {
		c.Render.BatchSize = raw.Render.BatchSize
	}
	if raw.Render.Follow != nil {
		c.Render.Follow = *raw.Render.Follow
	}

	for name, lvl := range raw.Levels {
		level, ok := severity.ParseLevel(name)
		if !ok || level == severity.Other {
			return fmt.Errorf("levels: unknown level %q", name)
		}
		if c.Levels == nil {
			c.Levels = make(map[severity.Level]LevelConfig)
		}
		lc := LevelConfig{Color: strings.TrimSpace(lvl.Color)}
		if lvl.Tokens != nil {
			lc.Tokens = append([]string{}, (*lvl.Tokens)...)
		}
		c.Levels[level] = lc
	}

	c.Navigation.FailureTokens = raw.Navigation.FailureTokens
	c.Navigation.Patterns = raw.Navigation.Patterns
	return nil
}

func parseDuration(key, value string, dest *time.Duration) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	d, err := time.ParseDuration(trimmed)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return fmt.Errorf("%s: must be positive, got %s", key, trimmed)
	}
	*dest = d
	return nil
}

// Validate checks that the navigation table compiles.
func (c Config) Validate() error {
	if _, err := c.Table(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Classifier builds the severity classifier.
func (c Config) Classifier() *severity.Classifier {
	if len(c.Levels) == 0 {
		return severity.DefaultClassifier()
	}
	tokens := make(map[severity.Level][]string)
	colors := make(map[severity.Level]string)
	for lvl, lc := range c.Levels {
		if lc.Tokens != nil {
			tokens[lvl] = lc.Tokens
		}
		if lc.Color != "" {
			colors[lvl] = lc.Color
		}
	}
	return severity.NewClassifier(tokens, colors)
}

// Table compiles the navigation pattern table.
func (c Config) Table() (*navigation.Table, error) {
	if len(c.Navigation.Patterns) == 0 && c.Navigation.FailureTokens == nil {
		return navigation.DefaultTable(), nil
	}
	rules := c.Navigation.Patterns
	if len(rules) == 0 {
		rules = navigation.DefaultRules()
	}
	return navigation.Compile(rules, c.Navigation.FailureTokens)
}

// RenderOptions converts the render section for the scheduler.
func (c Config) RenderOptions() render.Options {
	return render.Options{
		BatchSize:     c.Render.BatchSize,
		Budget:        c.Render.Budget,
		Floor:         c.Render.Floor,
		StatsInterval: c.Render.StatsInterval,
	}
}

// SourceOptions converts the source section for source.Open.
func (c Config) SourceOptions() source.Options {
	return source.Options{
		User:    c.Source.User,
		Token:   c.Source.Token,
		Timeout: c.Source.FetchTimeout,
	}
}

// DefaultPath returns the expanded default config location.
func DefaultPath() string {
	return mustExpand(defaultConfigPath)
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

// ExpandPath expands a leading ~ and returns an absolute path.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
