// Package logging provides the shared slog construction used by the daemon
// and CLI: a console handler that renders component-prefixed single lines
// with key=value attributes, a JSON handler for machine consumption, and
// helpers that derive standard fields (job path, stage, correlation id)
// from context.
//
// The "auto" format picks console when stdout is a terminal and JSON
// otherwise, so systemd journals capture structured output without extra
// configuration.
package logging
