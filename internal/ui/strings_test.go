package ui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		limit int
		want  string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 10, "this is..."},
		{"abcdef", 3, "abc"},
		{"  padded  ", 0, "padded"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.limit); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
		}
	}
}

func TestTruncateMiddle(t *testing.T) {
	got := truncateMiddle("https://ci.example.com/job/app/job/main/42/", 20)
	if len([]rune(got)) != 20 {
		t.Fatalf("truncateMiddle length = %d, want 20 (%q)", len([]rune(got)), got)
	}
	if got[:9] != "https://c" {
		t.Fatalf("truncateMiddle lost prefix: %q", got)
	}
	if got := truncateMiddle("short", 20); got != "short" {
		t.Fatalf("truncateMiddle(short) = %q", got)
	}
}

func TestClip(t *testing.T) {
	if got := clip("\x1b[31mred\x1b[0m text", 20); got != "red text" {
		t.Fatalf("clip stripped = %q, want %q", got, "red text")
	}
	if got := clip("a\tb", 20); got != "a    b" {
		t.Fatalf("clip tabs = %q", got)
	}
	got := clip("0123456789abcdef", 8)
	if w := lipgloss.Width(got); w != 8 {
		t.Fatalf("clip width = %d, want 8 (%q)", w, got)
	}
	if got := clip("anything", 0); got != "" {
		t.Fatalf("clip zero width = %q", got)
	}
}

func TestPadRight(t *testing.T) {
	if got := padRight("ab", 4); got != "ab  " {
		t.Fatalf("padRight = %q", got)
	}
	if got := padRight("abcdef", 4); got != "abcdef" {
		t.Fatalf("padRight long = %q", got)
	}
}
