package step

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kaigi-ai/kaigi/core"
)

// ParallelSpeakHandler produces turns from every listed agent concurrently
// with an all-settled join: failing participants (missing agent, missing
// style, model error) are logged and dropped, and the step succeeds as long
// as at least one agent produced output. Result ordering follows the
// agent-id list, never completion order, so transcripts stay deterministic.
type ParallelSpeakHandler struct {
	deps Deps
}

// NewParallelSpeakHandler creates a handler for parallel_speak steps.
func NewParallelSpeakHandler(deps Deps) *ParallelSpeakHandler {
	return &ParallelSpeakHandler{deps: deps.withDefaults()}
}

// Handle implements Handler.
func (h *ParallelSpeakHandler) Handle(ctx context.Context, ec *core.ExecutionContext, s core.Step) core.StepOutcome {
	st, ok := s.(core.ParallelSpeakStep)
	if !ok {
		return core.StepFailure(fmt.Errorf("parallel_speak handler received step of type %T", s))
	}
	if len(st.AgentIDs) == 0 {
		return core.StepFailure(errors.New("parallel_speak step lists no agents"))
	}

	type slot struct {
		msg *core.GeneratedMessage
		err error
	}
	slots := make([]slot, len(st.AgentIDs))

	var wg sync.WaitGroup
	for i, agentID := range st.AgentIDs {
		wg.Add(1)
		go func(i int, agentID string) {
			defer wg.Done()
			msg, err := speakOnce(ctx, h.deps, ec, agentID, h.deps.SpeakMaxTokens)
			slots[i] = slot{msg: msg, err: err}
		}(i, agentID)
	}
	wg.Wait()

	var (
		messages []core.GeneratedMessage
		usage    core.TokenUsage
		failures []error
	)
	for i, sl := range slots {
		if sl.err != nil {
			h.deps.Logger.Warn("dropping failed parallel participant", "agent_id", st.AgentIDs[i], "error", sl.err.Error())
			failures = append(failures, sl.err)
			continue
		}
		messages = append(messages, *sl.msg)
		usage.Add(sl.msg.Usage)
	}

	if len(messages) == 0 {
		return core.StepFailure(fmt.Errorf("all parallel participants failed: %w", errors.Join(failures...)))
	}

	return core.StepOutcome{
		Success:    true,
		Messages:   messages,
		NextStatus: core.StatusInProgress,
		Usage:      usage,
	}
}
