// Package history records finished pipeline work in a local SQLite database.
//
// Unlike the live queue, history is append-only and unbounded: completed,
// failed, and skipped outcomes stay queryable long after the queue's cooldown
// has expired their entries. The daemon writes records as jobs finish; the
// CLI reads them for the history listing and the savings summary.
package history
