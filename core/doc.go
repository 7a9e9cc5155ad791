// Package core provides the foundational domain types and interfaces used by
// kaigi. It defines the core abstractions for:
//
//   - Agents (configured persona + model bindings) and output styles
//   - Workflows (ordered, reusable step templates) with a closed Step union
//   - Meetings (running workflow instances with cursor, status and transcript)
//   - Messages (immutable, append-only utterance records)
//   - ExecutionContext / StepOutcome / ExecutionResult (transient engine I/O)
//   - Pluggable stores for agents, styles, workflows, meetings and messages
//
// The package intentionally keeps implementation concerns (persistence, step
// execution, model transports) out of scope, exposing small interfaces to
// enable custom backends and extensions.
package core
