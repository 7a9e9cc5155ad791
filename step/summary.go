package step

import (
	"context"
	"errors"
	"fmt"

	"github.com/kaigi-ai/kaigi/core"
	"github.com/kaigi-ai/kaigi/model"
	"github.com/kaigi-ai/kaigi/prompt"
)

// SummaryHandler produces the final synthesis and is the only handler that
// terminates a meeting. The meeting-level SummaryAgentID override takes
// priority over the step's configured agent; the effective end instructions
// (meeting override over workflow default) frame the summarizer. On failure
// the meeting stays in progress so the step can be retried.
type SummaryHandler struct {
	deps Deps
}

// NewSummaryHandler creates a handler for summary steps.
func NewSummaryHandler(deps Deps) *SummaryHandler {
	return &SummaryHandler{deps: deps.withDefaults()}
}

// Handle implements Handler.
func (h *SummaryHandler) Handle(ctx context.Context, ec *core.ExecutionContext, s core.Step) core.StepOutcome {
	st, ok := s.(core.SummaryStep)
	if !ok {
		return core.StepFailure(fmt.Errorf("summary handler received step of type %T", s))
	}

	agentID := st.AgentID
	if ec.Meeting.SummaryAgentID != "" {
		agentID = ec.Meeting.SummaryAgentID
	}
	if agentID == "" {
		return core.StepFailure(errors.New("no summary agent configured for this meeting"))
	}

	agent, ok := ec.Agents[agentID]
	if !ok {
		return core.StepFailure(fmt.Errorf("agent not found in execution context: %s", agentID))
	}
	style, err := h.deps.Styles.GetOutputStyle(ctx, agent.StyleID)
	if err != nil {
		return core.StepFailure(fmt.Errorf("output style not found for agent %s: %s", agent.Name, agent.StyleID))
	}

	system := prompt.SummarySystemPrompt(agent, style, ec.Meeting.EffectiveEndPrompt(ec.Workflow))
	user := prompt.SummaryUserMessage(ec.Meeting.Topic, ec.Messages)

	resp, err := h.deps.Port.Invoke(ctx,
		model.Prompt{System: system, User: user, CacheableContext: ec.Whiteboard},
		model.Options{Provider: agent.Provider, Model: agent.Model, Temperature: agent.Temperature, MaxTokens: h.deps.SummaryMaxTokens},
	)
	if err != nil {
		return core.StepFailure(fmt.Errorf("summary generation failed for agent %s: %w", agent.Name, err))
	}

	return core.StepOutcome{
		Success: true,
		Messages: []core.GeneratedMessage{{
			AgentID:        agent.ID,
			AgentName:      agent.Name,
			AgentRole:      agent.Role,
			AgentAvatarURL: agent.AvatarURL,
			Content:        resp.Text,
			Usage:          resp.Usage,
		}},
		NextStatus: core.StatusCompleted,
		Usage:      resp.Usage,
	}
}
