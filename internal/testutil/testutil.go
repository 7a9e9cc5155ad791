// Package testutil provides fixture builders shared by package tests.
package testutil

import (
	"context"
	"time"

	"github.com/kaigi-ai/kaigi/core"
	"github.com/kaigi-ai/kaigi/store/memory"
)

// StyleID is the output style every fixture agent references.
const StyleID = "plain"

// NewAgent builds a minimal agent routed to the openai provider.
func NewAgent(id, name, role string) *core.Agent {
	now := time.Now()
	return &core.Agent{
		ID:          id,
		Name:        name,
		Role:        role,
		Persona:     "A test participant.",
		StyleID:     StyleID,
		Provider:    core.ProviderOpenAI,
		Model:       "gpt-4o",
		Temperature: 0.5,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// NewStyleStore returns an in-memory style store pre-seeded with the fixture
// style every NewAgent references.
func NewStyleStore() core.StyleStore {
	store := memory.New()
	_ = store.PutOutputStyle(context.Background(), &core.OutputStyle{
		ID:            StyleID,
		Name:          "Plain",
		PromptSegment: "Answer plainly.",
		IsActive:      true,
		CreatedAt:     time.Now(),
	})
	return store
}

// NewContext assembles an execution context over the given steps and agents.
// The meeting starts in progress with its cursor at zero.
func NewContext(steps []core.Step, agents ...*core.Agent) *core.ExecutionContext {
	roster := make(map[string]*core.Agent, len(agents))
	ids := make([]string, 0, len(agents))
	for _, a := range agents {
		roster[a.ID] = a
		ids = append(ids, a.ID)
	}

	workflow := &core.Workflow{
		ID:          "wf-test",
		Name:        "Test workflow",
		StartPrompt: "Discuss constructively.",
		EndPrompt:   "Summarize the discussion.",
		AgentIDs:    ids,
		Steps:       steps,
		IsActive:    true,
		CreatedAt:   time.Now(),
	}
	meeting := &core.Meeting{
		ID:         "mtg-test",
		Topic:      "Test topic",
		WorkflowID: workflow.ID,
		Status:     core.StatusInProgress,
		CreatedAt:  time.Now(),
	}

	return &core.ExecutionContext{
		Meeting:  meeting,
		Workflow: workflow,
		Agents:   roster,
	}
}
