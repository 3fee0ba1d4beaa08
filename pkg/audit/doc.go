// Package audit records admission decisions for after-the-fact review.
//
// # Overview
//
// Every decision the gateway takes (allowed or rejected, which rule fired,
// the retry hint handed to the client) can be captured as an immutable
// Record. Records answer the operational questions limiter state cannot:
// which clients were rejected last night, by which rule, and how often.
//
// Records describe decisions already taken. They are never read back to
// influence a future decision; limiter state itself stays in memory.
//
// # Architecture
//
// The Recorder decouples the admission path from storage: middleware hands
// it a Record, the Recorder enqueues onto a bounded channel, and a single
// background worker writes to the configured Store. When the buffer is full
// the record is dropped and counted rather than stalling a request.
//
// Two Store implementations ship with the gateway: MemoryStore, a bounded
// in-memory ring for tests and ephemeral deployments, and SQLiteStore,
// a WAL-mode SQLite database for single-instance durability. The Pruner
// enforces a retention window on a cron schedule.
package audit
