// Package syncer is the incremental synchronization engine.
//
// For a requested date range it decides which daily archives are already
// present locally (from the manifest, or from a filesystem scan when the
// manifest is missing or a rescan is forced), downloads the rest from the
// recent-data endpoint, and falls back to the month archive on the
// historical endpoint when the recent endpoint answers 404. Every credited
// archive is appended to the manifest as soon as it lands on disk.
//
// Files are processed strictly one after another in chronological order. A
// file that exhausts its retry budget is reported as failed and the run moves
// on; only filesystem errors and cancellation end a run early.
//
// Each file walks a small state machine:
//
//	pending ──begin──▶ trying_primary ──succeed──▶ succeeded
//	   │                  │     ▲
//	   │              not_found │ fallback_failed
//	   │                  ▼     │
//	   │              trying_fallback ──succeed──▶ succeeded
//	   │
//	   └──cover──▶ covered        trying_* ──give_up──▶ failed
//
// Transient errors keep the file in trying_primary and consume one attempt.
package syncer
