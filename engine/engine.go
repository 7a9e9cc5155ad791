// Package engine provides the workflow orchestrator: it looks up the step
// under the meeting's cursor, dispatches it to the matching handler and
// returns the outcome unchanged. The engine holds no mutable state and
// performs no I/O beyond delegating to handlers, so it is safe to invoke
// concurrently for different meetings. A single meeting must not be advanced
// concurrently; serializing advances per meeting is the caller's duty.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/kaigi-ai/kaigi/core"
	"github.com/kaigi-ai/kaigi/logging"
	"github.com/kaigi-ai/kaigi/step"
)

// Options configures the engine.
type Options struct {
	Logger logging.Logger
}

// Engine routes advance requests to step handlers.
type Engine struct {
	handlers map[core.StepType]step.Handler
	logger   logging.Logger
}

// New creates an engine over the given handler set, usually step.Handlers(...).
func New(handlers map[core.StepType]step.Handler, optFns ...func(o *Options)) *Engine {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Engine{handlers: handlers, logger: opts.Logger}
}

// Handlers exposes the registered handler set for exhaustiveness checks.
func (e *Engine) Handlers() map[core.StepType]step.Handler {
	m := make(map[core.StepType]step.Handler, len(e.handlers))
	for k, v := range e.handlers {
		m[k] = v
	}
	return m
}

// Advance executes the step under the meeting's cursor and returns the
// normalized result. A cursor at or past the end of the workflow returns an
// already-completed result with no messages, making repeated calls on a
// finished meeting idempotent. An unrecognized step kind is surfaced as a
// failure outcome, never silently skipped.
func (e *Engine) Advance(ctx context.Context, ec *core.ExecutionContext) core.ExecutionResult {
	idx := ec.Meeting.CurrentStep

	s, ok := ec.CurrentStep()
	if !ok {
		return core.ExecutionResult{
			StepOutcome: core.StepOutcome{Success: true, NextStatus: core.StatusCompleted},
			StepIndex:   idx,
		}
	}

	handler, ok := e.handlers[s.Type()]
	if !ok {
		return core.ExecutionResult{
			StepOutcome: core.StepFailure(fmt.Errorf("no handler registered for step type: %s", s.Type())),
			StepIndex:   idx,
			StepType:    s.Type(),
		}
	}

	start := time.Now()
	outcome := handler.Handle(ctx, ec, s)
	if outcome.Success {
		e.logger.Info("step executed",
			"meeting_id", ec.Meeting.ID, "step_type", string(s.Type()), "step_index", idx,
			"message_count", len(outcome.Messages), "duration", time.Since(start))
	} else {
		// Third-party handlers may fail without populating Err.
		errMsg := "unspecified step failure"
		if outcome.Err != nil {
			errMsg = outcome.Err.Error()
		}
		e.logger.Error("step failed",
			"meeting_id", ec.Meeting.ID, "step_type", string(s.Type()), "step_index", idx,
			"duration", time.Since(start), "error", errMsg)
	}

	return core.ExecutionResult{StepOutcome: outcome, StepIndex: idx, StepType: s.Type()}
}
