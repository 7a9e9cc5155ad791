package core

// ExecutionContext is the transient snapshot assembled by the caller for one
// advance request. It is rebuilt on every engine invocation and never
// persisted. The message history and whiteboard are read-only within one
// advance; whiteboard edits happen strictly between advances.
type ExecutionContext struct {
	Meeting  *Meeting
	Workflow *Workflow
	// Agents maps agent id to agent, restricted to the meeting's participants.
	Agents   map[string]*Agent
	Messages []Message
	// Whiteboard is the shared free-text context block, passed to backends as
	// a separately cacheable prompt section.
	Whiteboard string
}

// CurrentStep returns the step under the meeting's cursor, or false when the
// cursor is at or past the end of the workflow.
func (ec *ExecutionContext) CurrentStep() (Step, bool) {
	idx := ec.Meeting.CurrentStep
	if idx < 0 || idx >= len(ec.Workflow.Steps) {
		return nil, false
	}
	return ec.Workflow.Steps[idx], true
}

// StepOutcome is a step handler's structured return value. Handlers never
// propagate errors past their boundary; every failure is converted into an
// outcome with Success=false and the meeting cursor untouched.
type StepOutcome struct {
	Success bool
	// Messages are the generated utterances in deterministic order (agent-id
	// list order for parallel steps, never completion order).
	Messages []GeneratedMessage
	// NextStatus is the meeting status to adopt if the caller persists this
	// outcome. On failure it reflects the unchanged current phase.
	NextStatus MeetingStatus
	// Usage aggregates token counts across successful invocations only.
	Usage TokenUsage
	// Err describes the failure when Success is false.
	Err error
}

// StepFailure builds a failed outcome that keeps the meeting in progress so
// the step can be retried.
func StepFailure(err error) StepOutcome {
	return StepOutcome{Success: false, NextStatus: StatusInProgress, Err: err}
}

// ExecutionResult is the orchestrator's return value: the dispatched step
// outcome plus the executed step's position and kind.
type ExecutionResult struct {
	StepOutcome
	StepIndex int
	StepType  StepType
}
