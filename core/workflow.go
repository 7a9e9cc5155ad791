package core

import (
	"encoding/json"
	"fmt"
	"time"
)

// StepType enumerates the closed set of workflow step kinds.
type StepType string

const (
	// StepTypeSpeak lets a single named agent produce one turn.
	StepTypeSpeak StepType = "speak"
	// StepTypeParallelSpeak lets several agents produce turns concurrently.
	StepTypeParallelSpeak StepType = "parallel_speak"
	// StepTypeSummary produces the final synthesis and completes the meeting.
	StepTypeSummary StepType = "summary"
	// StepTypeUserIntervention pauses the meeting for user input.
	StepTypeUserIntervention StepType = "user_intervention"
)

// StepTypes returns every known step kind. Used by dispatch-exhaustiveness
// checks so a new kind cannot silently fall through to a default case.
func StepTypes() []StepType {
	return []StepType{StepTypeSpeak, StepTypeParallelSpeak, StepTypeSummary, StepTypeUserIntervention}
}

// Step is one unit of workflow progress. Concrete step types implement the
// unexported isStep marker enabling a closed union.
type Step interface {
	Type() StepType
	isStep()
}

// SpeakStep requests a single turn from one agent.
type SpeakStep struct {
	AgentID string
}

// Type implements Step.
func (SpeakStep) Type() StepType { return StepTypeSpeak }

func (SpeakStep) isStep() {}

// ParallelSpeakStep requests concurrent turns from every listed agent.
type ParallelSpeakStep struct {
	AgentIDs []string
}

// Type implements Step.
func (ParallelSpeakStep) Type() StepType { return StepTypeParallelSpeak }

func (ParallelSpeakStep) isStep() {}

// SummaryStep requests the final synthesis. AgentID designates the default
// summarizer; a meeting-level SummaryAgentID override takes priority.
type SummaryStep struct {
	AgentID string
}

// Type implements Step.
func (SummaryStep) Type() StepType { return StepTypeSummary }

func (SummaryStep) isStep() {}

// UserInterventionStep pauses automatic progression until the user resumes
// the meeting, optionally after editing the whiteboard.
type UserInterventionStep struct {
	// Label is shown to the user as the pause reason. Empty selects a default
	// prompt asking for a whiteboard update.
	Label string
}

// Type implements Step.
func (UserInterventionStep) Type() StepType { return StepTypeUserIntervention }

func (UserInterventionStep) isStep() {}

// Workflow is a named, ordered, reusable template of steps plus the shared
// start/end instructions injected into speaker and summarizer prompts. Step
// order is fixed at definition time; the same workflow can back many meetings.
type Workflow struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	StartPrompt string    `json:"start_prompt"`
	EndPrompt   string    `json:"end_prompt"`
	AgentIDs    []string  `json:"agent_ids"`
	Steps       []Step    `json:"-"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// stepEnvelope is the flat wire form of the Step union.
type stepEnvelope struct {
	Type     StepType `json:"type"`
	AgentID  string   `json:"agent_id,omitempty"`
	AgentIDs []string `json:"agent_ids,omitempty"`
	Label    string   `json:"label,omitempty"`
}

// MarshalSteps encodes a step list into its tagged JSON wire form.
func MarshalSteps(steps []Step) ([]byte, error) {
	envelopes := make([]stepEnvelope, len(steps))
	for i, s := range steps {
		switch st := s.(type) {
		case SpeakStep:
			envelopes[i] = stepEnvelope{Type: StepTypeSpeak, AgentID: st.AgentID}
		case ParallelSpeakStep:
			envelopes[i] = stepEnvelope{Type: StepTypeParallelSpeak, AgentIDs: st.AgentIDs}
		case SummaryStep:
			envelopes[i] = stepEnvelope{Type: StepTypeSummary, AgentID: st.AgentID}
		case UserInterventionStep:
			envelopes[i] = stepEnvelope{Type: StepTypeUserIntervention, Label: st.Label}
		default:
			return nil, fmt.Errorf("unknown step type %T at index %d", s, i)
		}
	}
	return json.Marshal(envelopes)
}

// UnmarshalSteps decodes the tagged JSON wire form back into the Step union.
// Unrecognized type tags are an error, never silently skipped.
func UnmarshalSteps(data []byte) ([]Step, error) {
	var envelopes []stepEnvelope
	if err := json.Unmarshal(data, &envelopes); err != nil {
		return nil, err
	}
	steps := make([]Step, len(envelopes))
	for i, env := range envelopes {
		switch env.Type {
		case StepTypeSpeak:
			steps[i] = SpeakStep{AgentID: env.AgentID}
		case StepTypeParallelSpeak:
			steps[i] = ParallelSpeakStep{AgentIDs: env.AgentIDs}
		case StepTypeSummary:
			steps[i] = SummaryStep{AgentID: env.AgentID}
		case StepTypeUserIntervention:
			steps[i] = UserInterventionStep{Label: env.Label}
		default:
			return nil, fmt.Errorf("unknown step type %q at index %d", env.Type, i)
		}
	}
	return steps, nil
}
