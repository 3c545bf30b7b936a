// Package classify performs codec/bitrate triage: it probes a candidate file
// once and decides whether re-encoding is worthwhile.
//
// Files already carried by an efficient codec are skipped outright; files in
// the baseline legacy codec are skipped when their bitrate is at or below the
// configured target times the skip multiplier. Every skip is appended to the
// audit log. Probe failures are soft: the caller skips the file for the
// current cycle and no record is kept.
package classify
