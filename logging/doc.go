// Package logging provides a tiny abstraction over slog so downstream code
// can depend on a minimal interface (Logger) while allowing users to plug any
// structured logger. It also offers a richer MeetingLogger with contextual
// helpers (meeting, step, component) and domain specific logging helpers for
// model calls and step execution.
package logging
