// Package services holds cross-cutting plumbing shared by pipeline components:
// context annotation helpers (job path, stage, correlation id) and the
// sentinel error taxonomy used to classify per-file failures at the
// coordinator boundary.
package services
