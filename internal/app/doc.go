// Package app provides the orchestration layer for consolelens.
//
// # Overview
//
// This package wires together configuration, the content source, polling,
// state management, the console session and the UI. It is the composition
// root where all dependencies are initialized and connected.
//
// # Components
//
//   - app.go: Run, the interactive viewer
//   - scan.go: Scan, the headless pass used by the scan command
//   - poller.go: Background goroutine that fetches console content
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │ Initialize everything
//	└──────┬───────┘
//	       │
//	       ├─────> config.Load()       Read config.toml
//	       ├─────> source.Open()       File or Jenkins build
//	       ├─────> session.New()       Classifier, regions, scheduler
//	       ├─────> source.NewWatcher() File sources only
//	       ├─────> StartPoller()       Launch background updates
//	       └─────> ui.Run()            Start TUI (blocks)
//
//	Background Poller Loop:
//	┌─────────────────────────────────────────┐
//	│ StartPoller() goroutine                 │
//	│  ├─> provider.Content()                 │
//	│  ├─> LiveChecker.Live() (Jenkins)       │
//	│  └─> store.Update()                     │
//	│      └─> UI reads store.Snapshot()      │
//	└─────────────────────────────────────────┘
//
// # Polling Behavior
//
// The poller refreshes at a fixed interval (default 2 seconds), or right
// away when the file watcher reports a change. Failures double the wait up
// to 30 seconds; the last good content stays in the store meanwhile. Once
// a Jenkins build reports it is no longer building, three more polls pick
// up the tail of the log and polling stops.
//
// The UI reads snapshots at its own rate and never blocks on the network.
//
// # Error Handling
//
// Fatal errors (returned from Run and Scan):
//   - Invalid configuration or navigation patterns
//   - A target that is neither a file path nor an http(s) URL
//
// Recoverable errors (logged, recorded in the store):
//   - Content fetch failures while polling
//   - Live status failures, which only hide the live indicator
//
// Scan records per-source failures in the result instead of aborting.
package app
