// Package config loads, normalizes, and validates hound configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and derives the filesystem locations of the
// durable state documents (queue, progress snapshot, skip audit log, history
// database, instance lock). The Config type centralizes every knob the daemon
// and CLI need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical extension sets, and clear validation errors.
package config
