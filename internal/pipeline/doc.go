// Package pipeline contains the coordinator that drives files from discovery
// to delivery.
//
// One loop polls at the configured interval. Downloads run as tracked
// goroutines and transcodes as child processes; both are joined
// non-blockingly at the start of every cycle, so discovery never stalls
// behind a slow job. Capacity is bounded in two places: the download buffer
// caps (in-flight downloads + downloaded-but-unencoded jobs), and the
// transcode slots cap concurrent child processes. Upload runs synchronously
// in the cycle that observes a finished transcode.
package pipeline
