package step

import (
	"context"
	"fmt"

	"github.com/kaigi-ai/kaigi/core"
)

// SpeakHandler produces a single turn from one named agent. A missing agent
// or style is a configuration error returned without any model call; an
// invocation failure yields a retryable failure outcome with no partial
// message.
type SpeakHandler struct {
	deps Deps
}

// NewSpeakHandler creates a handler for speak steps.
func NewSpeakHandler(deps Deps) *SpeakHandler {
	return &SpeakHandler{deps: deps.withDefaults()}
}

// Handle implements Handler.
func (h *SpeakHandler) Handle(ctx context.Context, ec *core.ExecutionContext, s core.Step) core.StepOutcome {
	st, ok := s.(core.SpeakStep)
	if !ok {
		return core.StepFailure(fmt.Errorf("speak handler received step of type %T", s))
	}

	msg, err := speakOnce(ctx, h.deps, ec, st.AgentID, h.deps.SpeakMaxTokens)
	if err != nil {
		return core.StepFailure(err)
	}

	return core.StepOutcome{
		Success:    true,
		Messages:   []core.GeneratedMessage{*msg},
		NextStatus: core.StatusInProgress,
		Usage:      msg.Usage,
	}
}
