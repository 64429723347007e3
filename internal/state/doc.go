// Package state shares the latest polled console content between the
// background poller and the UI.
//
// # Architecture
//
//	Producer (Poller):             Consumer (UI):
//	┌─────────────────┐            ┌──────────────────┐
//	│ Content()       │            │                  │
//	│ Live()          │            │                  │
//	│      ↓          │            │                  │
//	│ store.Update()  │───────────→│ store.Snapshot() │
//	│      ↓          │  (mutex)   │      ↓           │
//	│  repeat...      │            │ session.Ingest() │
//	└─────────────────┘            └──────────────────┘
//
// The poller is the single writer; the UI reads snapshots on its own tick
// and feeds Content into its session. Content is the full text as of the
// last successful poll. Version changes only when Content does, so the UI
// can skip ingesting an unchanged snapshot without comparing strings.
//
// # Update Semantics
//
//	// Success: replace content, bump Version if it changed
//	store.Update(content, &live, nil)
//
//	// Error: keep the old content, record the error
//	store.Update("", nil, err)
//
// ConsecutiveFailures counts failed polls since the last success and
// IsOffline reports two or more in a row.
//
// The zero Store is ready to use.
package state
