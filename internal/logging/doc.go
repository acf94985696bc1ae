// Package logging assembles structured slog loggers used across otrack.
//
// It owns the console and JSON handlers, level parsing, and output plumbing,
// and exposes context helpers so service and HTTP code tag log lines with the
// work order, stage, actor, and correlation id of the request in flight. A
// no-op logger is provided for tests and wiring code that cannot fail.
package logging
