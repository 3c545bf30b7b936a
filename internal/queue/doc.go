// Package queue implements the durable, path-keyed job queue.
//
// The queue is a single JSON document persisted with write-temp-then-rename
// replacement so a crash never leaves a partially written file behind. Every
// mutation takes a sibling advisory file lock first, which makes enqueue
// deduplication atomic across processes: the daemon and the CLI can share the
// same document safely.
//
// Terminal entries are retained for a cooldown window so a completed or
// failed source is not immediately re-admitted by the next scan. ReclaimStale
// expires those, and converts entries whose process died mid-flight back into
// failures so their source files become retryable.
package queue
