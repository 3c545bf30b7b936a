// Package transcoder wraps the external transcode tool as a child process.
//
// A transcode runs detached from the coordinator cycle: Start launches the
// process with its output streams drained asynchronously, and the caller
// polls Done between cycles. Collect interprets the exit, including the
// optional rescue heuristic for tools that exit nonzero after producing a
// complete output file.
package transcoder
