// Package config loads the consolelens TOML configuration.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/consolelens/config.toml (default)
//  3. If the config file doesn't exist, fall back to defaults
//  4. If the file exists but fields are missing or empty, use defaults
//
// # TOML Format
//
//	log_file = "~/.local/state/consolelens/consolelens.log"
//
//	[source]
//	poll_interval = "2s"
//	fetch_timeout = "10s"
//	debounce = "100ms"
//	user = "ci-bot"
//	token = "..."
//
//	[levels.error]
//	tokens = ["ERROR", "FATAL"]
//	color = "#F90636"
//
//	[navigation]
//	failure_tokens = ["ERROR", "FAILED", "failed"]
//
//	[[navigation.patterns]]
//	kind = "test"
//	start = 'Starting TestCase:\s*(.+)$'
//	end = 'SUMMARY of TestCase \[([^\]]+)\]:\s*(\w+)'
//	icon = "🧪"
//
//	[render]
//	batch_size = 500
//	budget = "50ms"
//	floor = "4ms"
//	stats_interval = "200ms"
//	follow = true
//
// Durations use Go duration syntax. A [[navigation.patterns]] list
// replaces the built-in table entirely; patterns are matched
// case-insensitively in file order.
//
// # Error Handling
//
// Load returns errors for path expansion failures, read errors other than
// a missing file, TOML syntax errors, bad durations, unknown level names
// and navigation patterns that do not compile. Missing config files are
// not an error.
package config
