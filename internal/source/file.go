package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/exp/mmap"
)

// SettleChecks is how many consecutive Live calls must see the file
// unchanged before it counts as finished.
const SettleChecks = 2

// File reads console content from a local log file.
type File struct {
	path string

	mu      sync.Mutex
	size    int64
	modTime time.Time
	stable  int
}

// NewFile returns a provider for path. The file does not need to exist
// yet.
func NewFile(path string) (*File, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", path, err)
	}
	return &File{path: abs}, nil
}

// Path returns the absolute file path.
func (f *File) Path() string {
	return f.path
}

// Content maps the file and returns its text. A missing file reads as
// empty so a log that has not been created yet is not an error.
func (f *File) Content(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	r, err := mmap.Open(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("map %s: %w", f.path, err)
	}
	defer func() { _ = r.Close() }()

	buf := make([]byte, r.Len())
	if _, err := r.ReadAt(buf, 0); err != nil && err != io.EOF {
		return "", fmt.Errorf("read %s: %w", f.path, err)
	}
	return string(buf), nil
}

// Stream opens the file for a bulk reload.
func (f *File) Stream(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fh, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.path, err)
	}
	return fh, nil
}

// Live reports whether the file is still being written. A file counts as
// finished once its size and modification time stayed the same for
// SettleChecks calls in a row; any later change makes it live again. A
// missing file is live, since it may be created later.
func (f *File) Live(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	info, err := os.Stat(f.path)
	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.stable = 0
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, fmt.Errorf("stat %s: %w", f.path, err)
	}
	if info.Size() == f.size && info.ModTime().Equal(f.modTime) {
		f.stable++
	} else {
		f.size = info.Size()
		f.modTime = info.ModTime()
		f.stable = 0
	}
	return f.stable < SettleChecks, nil
}

// Describe returns the file path.
func (f *File) Describe() string {
	return f.path
}

// Fallback returns the file path, which can be opened directly.
func (f *File) Fallback() string {
	return f.path
}
