package step

import (
	"context"
	"fmt"

	"github.com/kaigi-ai/kaigi/core"
	"github.com/kaigi-ai/kaigi/logging"
	"github.com/kaigi-ai/kaigi/model"
	"github.com/kaigi-ai/kaigi/prompt"
)

const (
	// DefaultSpeakMaxTokens bounds ordinary speaking turns.
	DefaultSpeakMaxTokens int64 = 4096
	// DefaultSummaryMaxTokens is materially larger than speaking turns since
	// summaries are expected to be comprehensive.
	DefaultSummaryMaxTokens int64 = 8192
)

// Handler executes one step kind against an execution context.
type Handler interface {
	Handle(ctx context.Context, ec *core.ExecutionContext, s core.Step) core.StepOutcome
}

// Deps bundles the collaborators shared by all handlers.
type Deps struct {
	Styles core.StyleStore
	Port   model.Port
	Logger logging.Logger

	SpeakMaxTokens   int64
	SummaryMaxTokens int64
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = logging.NoOpLogger{}
	}
	if d.SpeakMaxTokens == 0 {
		d.SpeakMaxTokens = DefaultSpeakMaxTokens
	}
	if d.SummaryMaxTokens == 0 {
		d.SummaryMaxTokens = DefaultSummaryMaxTokens
	}
	return d
}

// Handlers builds the full step-kind to handler mapping consumed by the
// engine. Every member of core.StepTypes has an entry; the engine's
// exhaustiveness test keeps it that way.
func Handlers(deps Deps) map[core.StepType]Handler {
	deps = deps.withDefaults()
	return map[core.StepType]Handler{
		core.StepTypeSpeak:            NewSpeakHandler(deps),
		core.StepTypeParallelSpeak:    NewParallelSpeakHandler(deps),
		core.StepTypeSummary:          NewSummaryHandler(deps),
		core.StepTypeUserIntervention: NewUserInterventionHandler(deps),
	}
}

// speakOnce resolves one agent and its style, renders the speaking prompts
// and performs a single model invocation. Shared by the speak and
// parallel_speak handlers. No partial message is ever produced on failure.
func speakOnce(ctx context.Context, deps Deps, ec *core.ExecutionContext, agentID string, maxTokens int64) (*core.GeneratedMessage, error) {
	agent, ok := ec.Agents[agentID]
	if !ok {
		return nil, fmt.Errorf("agent not found in execution context: %s", agentID)
	}
	style, err := deps.Styles.GetOutputStyle(ctx, agent.StyleID)
	if err != nil {
		return nil, fmt.Errorf("output style not found for agent %s: %s", agent.Name, agent.StyleID)
	}

	system := prompt.SpeakerSystemPrompt(agent, style, ec.Meeting.EffectiveStartPrompt(ec.Workflow))
	user := prompt.SpeakerUserMessage(ec.Meeting.Topic, ec.Messages, agent.Role)

	resp, err := deps.Port.Invoke(ctx,
		model.Prompt{System: system, User: user, CacheableContext: ec.Whiteboard},
		model.Options{Provider: agent.Provider, Model: agent.Model, Temperature: agent.Temperature, MaxTokens: maxTokens},
	)
	if err != nil {
		return nil, fmt.Errorf("model call failed for agent %s: %w", agent.Name, err)
	}

	return &core.GeneratedMessage{
		AgentID:        agent.ID,
		AgentName:      agent.Name,
		AgentRole:      agent.Role,
		AgentAvatarURL: agent.AvatarURL,
		Content:        resp.Text,
		Usage:          resp.Usage,
	}, nil
}
