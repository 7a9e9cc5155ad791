// Package definition loads meeting definition files: a single JSON document
// declaring the output styles, agents, workflow and meeting for one run.
// Definitions are validated structurally with struct tags and then
// cross-checked so every step and override references a declared agent.
package definition

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/kaigi-ai/kaigi/core"
)

// StyleDef declares one output style.
type StyleDef struct {
	ID            string `json:"id" validate:"required"`
	Name          string `json:"name" validate:"required"`
	PromptSegment string `json:"prompt_segment" validate:"required"`
	Description   string `json:"description"`
}

// AgentDef declares one meeting participant.
type AgentDef struct {
	ID          string  `json:"id" validate:"required"`
	Name        string  `json:"name" validate:"required"`
	Role        string  `json:"role" validate:"required"`
	AvatarURL   string  `json:"avatar_url"`
	Persona     string  `json:"persona" validate:"required"`
	Prompt      string  `json:"prompt"`
	StyleID     string  `json:"style_id" validate:"required"`
	Provider    string  `json:"provider" validate:"required,oneof=openai anthropic google"`
	Model       string  `json:"model" validate:"required"`
	Temperature float64 `json:"temperature" validate:"gte=0,lte=1"`
}

// StepDef declares one workflow step in wire form.
type StepDef struct {
	Type     string   `json:"type" validate:"required,oneof=speak parallel_speak summary user_intervention"`
	AgentID  string   `json:"agent_id"`
	AgentIDs []string `json:"agent_ids"`
	Label    string   `json:"label"`
}

// WorkflowDef declares the step sequence and shared instructions.
type WorkflowDef struct {
	Name        string    `json:"name" validate:"required"`
	Description string    `json:"description"`
	StartPrompt string    `json:"start_prompt"`
	EndPrompt   string    `json:"end_prompt"`
	Steps       []StepDef `json:"steps" validate:"required,min=1,dive"`
}

// MeetingDef declares the meeting instance and its optional overrides.
type MeetingDef struct {
	Title               string `json:"title"`
	Topic               string `json:"topic" validate:"required"`
	Whiteboard          string `json:"whiteboard"`
	StartPromptOverride string `json:"start_prompt_override"`
	EndPromptOverride   string `json:"end_prompt_override"`
	SummaryAgentID      string `json:"summary_agent_id"`
}

// Definition is one complete meeting definition document.
type Definition struct {
	Styles   []StyleDef  `json:"styles" validate:"required,min=1,dive"`
	Agents   []AgentDef  `json:"agents" validate:"required,min=1,dive"`
	Workflow WorkflowDef `json:"workflow" validate:"required"`
	Meeting  MeetingDef  `json:"meeting" validate:"required"`
}

// Load reads and validates a definition file.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read definition: %w", err)
	}
	var def Definition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parse definition: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// Validate runs structural validation followed by referential cross-checks.
func (d *Definition) Validate() error {
	if err := validator.New().Struct(d); err != nil {
		return fmt.Errorf("invalid definition: %w", err)
	}

	styles := map[string]bool{}
	for _, style := range d.Styles {
		if styles[style.ID] {
			return fmt.Errorf("duplicate style id: %s", style.ID)
		}
		styles[style.ID] = true
	}

	agents := map[string]bool{}
	for _, agent := range d.Agents {
		if agents[agent.ID] {
			return fmt.Errorf("duplicate agent id: %s", agent.ID)
		}
		agents[agent.ID] = true
		if !styles[agent.StyleID] {
			return fmt.Errorf("agent %s references undeclared style: %s", agent.ID, agent.StyleID)
		}
	}

	summaries := 0
	for i, step := range d.Workflow.Steps {
		switch core.StepType(step.Type) {
		case core.StepTypeSpeak:
			if step.AgentID == "" {
				return fmt.Errorf("step %d: speak requires agent_id", i)
			}
			if !agents[step.AgentID] {
				return fmt.Errorf("step %d references undeclared agent: %s", i, step.AgentID)
			}
		case core.StepTypeParallelSpeak:
			if len(step.AgentIDs) == 0 {
				return fmt.Errorf("step %d: parallel_speak requires at least one agent", i)
			}
			for _, id := range step.AgentIDs {
				if !agents[id] {
					return fmt.Errorf("step %d references undeclared agent: %s", i, id)
				}
			}
		case core.StepTypeSummary:
			summaries++
			if summaries > 1 {
				return fmt.Errorf("step %d: at most one summary step is allowed", i)
			}
			if step.AgentID == "" && d.Meeting.SummaryAgentID == "" {
				return fmt.Errorf("step %d: summary requires agent_id or a meeting summary_agent_id", i)
			}
			if step.AgentID != "" && !agents[step.AgentID] {
				return fmt.Errorf("step %d references undeclared agent: %s", i, step.AgentID)
			}
		}
	}

	if d.Meeting.SummaryAgentID != "" && !agents[d.Meeting.SummaryAgentID] {
		return fmt.Errorf("meeting summary_agent_id references undeclared agent: %s", d.Meeting.SummaryAgentID)
	}
	return nil
}

// steps converts the declared step list to the core union.
func (d *Definition) steps() []core.Step {
	steps := make([]core.Step, len(d.Workflow.Steps))
	for i, s := range d.Workflow.Steps {
		switch core.StepType(s.Type) {
		case core.StepTypeSpeak:
			steps[i] = core.SpeakStep{AgentID: s.AgentID}
		case core.StepTypeParallelSpeak:
			steps[i] = core.ParallelSpeakStep{AgentIDs: s.AgentIDs}
		case core.StepTypeSummary:
			steps[i] = core.SummaryStep{AgentID: s.AgentID}
		case core.StepTypeUserIntervention:
			steps[i] = core.UserInterventionStep{Label: s.Label}
		}
	}
	return steps
}

// rosterIDs returns the deduplicated agent ids referenced by the steps.
func (d *Definition) rosterIDs() []string {
	seen := map[string]bool{}
	var ids []string
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, s := range d.Workflow.Steps {
		add(s.AgentID)
		for _, id := range s.AgentIDs {
			add(id)
		}
	}
	return ids
}
