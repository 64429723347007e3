// Package source supplies console content from local files and Jenkins
// builds.
package source

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"
)

// Provider defines how console content is fetched.
// This interface is implemented by *File and *Jenkins.
type Provider interface {
	// Content returns the full current console text.
	Content(ctx context.Context) (string, error)
	// Stream opens the complete log for a bulk reload.
	Stream(ctx context.Context) (io.ReadCloser, error)
	// Describe names the source for display and logs.
	Describe() string
	// Fallback is what the user can open when a bulk reload fails.
	Fallback() string
}

// LiveChecker is implemented by sources that know whether their log is
// still growing.
type LiveChecker interface {
	Live(ctx context.Context) (bool, error)
}

// Ensure providers implement Provider at compile time.
var (
	_ Provider    = (*File)(nil)
	_ Provider    = (*Jenkins)(nil)
	_ LiveChecker = (*Jenkins)(nil)
	_ LiveChecker = (*File)(nil)
)

// Options configure Open.
type Options struct {
	User      string
	Token     string
	Timeout   time.Duration
	UserAgent string
}

// Open picks a provider for target: http(s) URLs are Jenkins builds,
// anything else is a file path.
func Open(target string, opts Options) (Provider, error) {
	trimmed := strings.TrimSpace(target)
	if trimmed == "" {
		return nil, fmt.Errorf("source is empty")
	}
	if u, err := url.Parse(trimmed); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return NewJenkins(trimmed, opts)
	}
	return NewFile(trimmed)
}
