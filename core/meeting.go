package core

import "time"

// MeetingStatus tracks a meeting through its lifecycle state machine:
//
//	pending → in_progress → {waiting ⇄ in_progress} → {completed | error}
type MeetingStatus string

const (
	// StatusPending marks a created meeting that has not started yet.
	StatusPending MeetingStatus = "pending"
	// StatusInProgress marks a meeting advancing through its steps.
	StatusInProgress MeetingStatus = "in_progress"
	// StatusWaiting marks a meeting paused for user intervention.
	StatusWaiting MeetingStatus = "waiting"
	// StatusCompleted marks a meeting terminated by a successful summary step.
	StatusCompleted MeetingStatus = "completed"
	// StatusError marks a meeting abandoned by an operator decision.
	StatusError MeetingStatus = "error"
)

// Terminal reports whether the status permits no further transitions.
func (s MeetingStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Meeting is one execution instance of a workflow. CurrentStep only ever
// increases, and only when a step handler succeeds.
type Meeting struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Topic      string `json:"topic"`
	Whiteboard string `json:"whiteboard"`

	WorkflowID  string `json:"workflow_id"`
	CurrentStep int    `json:"current_step"`

	// Per-meeting overrides taking precedence over the workflow's own values.
	StartPromptOverride string `json:"start_prompt_override,omitempty"`
	EndPromptOverride   string `json:"end_prompt_override,omitempty"`
	SummaryAgentID      string `json:"summary_agent_id,omitempty"`

	Status          MeetingStatus `json:"status"`
	FinalConclusion string        `json:"final_conclusion,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// EffectiveStartPrompt returns the meeting override when present, otherwise
// the workflow's start instructions.
func (m *Meeting) EffectiveStartPrompt(w *Workflow) string {
	if m.StartPromptOverride != "" {
		return m.StartPromptOverride
	}
	return w.StartPrompt
}

// EffectiveEndPrompt returns the meeting override when present, otherwise the
// workflow's end instructions.
func (m *Meeting) EffectiveEndPrompt(w *Workflow) string {
	if m.EndPromptOverride != "" {
		return m.EndPromptOverride
	}
	return w.EndPrompt
}

// MeetingUpdate carries a partial mutation of a meeting. Nil fields are left
// untouched by the store.
type MeetingUpdate struct {
	CurrentStep     *int
	Status          *MeetingStatus
	Whiteboard      *string
	FinalConclusion *string
	CompletedAt     *time.Time
}
