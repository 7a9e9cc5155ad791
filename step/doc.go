// Package step implements one handler per workflow step kind: speak,
// parallel_speak, summary and user_intervention. Handlers consume the
// execution context, call the prompt builder and the model port, and convert
// every failure into a structured StepOutcome — they never propagate errors
// past their own boundary and never touch persistent state.
package step
