package step

import (
	"context"
	"fmt"

	"github.com/kaigi-ai/kaigi/core"
)

// DefaultInterventionPrompt is emitted when an intervention step carries no label.
const DefaultInterventionPrompt = "Waiting for user input. Review the discussion and update the whiteboard before resuming the meeting."

// UserInterventionHandler pauses automatic progression. It performs no model
// invocation, always succeeds immediately, and emits one system-authored
// message carrying the step's label. Resuming is an external action.
type UserInterventionHandler struct{}

// NewUserInterventionHandler creates a handler for user_intervention steps.
func NewUserInterventionHandler(Deps) *UserInterventionHandler {
	return &UserInterventionHandler{}
}

// Handle implements Handler.
func (h *UserInterventionHandler) Handle(_ context.Context, _ *core.ExecutionContext, s core.Step) core.StepOutcome {
	st, ok := s.(core.UserInterventionStep)
	if !ok {
		return core.StepFailure(fmt.Errorf("user_intervention handler received step of type %T", s))
	}

	content := st.Label
	if content == "" {
		content = DefaultInterventionPrompt
	}

	return core.StepOutcome{
		Success: true,
		Messages: []core.GeneratedMessage{{
			AgentID:   core.SystemAgentID,
			AgentName: core.SystemAgentName,
			Content:   content,
		}},
		NextStatus: core.StatusWaiting,
	}
}
