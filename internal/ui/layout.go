package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which compact mode is used.
	LayoutCompactWidth = 100

	// LayoutNavigatorWideWidth is the minimum width to show region spans
	// in the navigator.
	LayoutNavigatorWideWidth = 80
)

// Timing constants.
const (
	// DefaultUIInterval is how often the model pulls a fresh snapshot.
	DefaultUIInterval = 250 * time.Millisecond

	// ReloadChunkSize is the read size for streamed reloads.
	ReloadChunkSize = 32 * 1024
)
