package definition

import (
	"context"
	"time"

	"github.com/kaigi-ai/kaigi/core"
)

// Seed writes the definition's styles, agents, workflow and meeting into the
// stores and returns the new meeting's id. The meeting starts pending with its
// cursor at zero. Seed assumes Validate has passed.
func (d *Definition) Seed(ctx context.Context, stores core.Stores) (string, error) {
	now := time.Now()

	for _, s := range d.Styles {
		if err := stores.Styles.PutOutputStyle(ctx, &core.OutputStyle{
			ID:            s.ID,
			Name:          s.Name,
			PromptSegment: s.PromptSegment,
			Description:   s.Description,
			IsActive:      true,
			CreatedAt:     now,
		}); err != nil {
			return "", err
		}
	}

	for _, a := range d.Agents {
		if err := stores.Agents.PutAgent(ctx, &core.Agent{
			ID:          a.ID,
			Name:        a.Name,
			Role:        a.Role,
			AvatarURL:   a.AvatarURL,
			Persona:     a.Persona,
			Prompt:      a.Prompt,
			StyleID:     a.StyleID,
			Provider:    core.Provider(a.Provider),
			Model:       a.Model,
			Temperature: a.Temperature,
			CreatedAt:   now,
			UpdatedAt:   now,
		}); err != nil {
			return "", err
		}
	}

	workflow := &core.Workflow{
		ID:          core.NewID(),
		Name:        d.Workflow.Name,
		Description: d.Workflow.Description,
		StartPrompt: d.Workflow.StartPrompt,
		EndPrompt:   d.Workflow.EndPrompt,
		AgentIDs:    d.rosterIDs(),
		Steps:       d.steps(),
		IsActive:    true,
		CreatedAt:   now,
	}
	if err := stores.Workflows.PutWorkflow(ctx, workflow); err != nil {
		return "", err
	}

	meeting := &core.Meeting{
		ID:                  core.NewID(),
		Title:               d.Meeting.Title,
		Topic:               d.Meeting.Topic,
		Whiteboard:          d.Meeting.Whiteboard,
		WorkflowID:          workflow.ID,
		StartPromptOverride: d.Meeting.StartPromptOverride,
		EndPromptOverride:   d.Meeting.EndPromptOverride,
		SummaryAgentID:      d.Meeting.SummaryAgentID,
		Status:              core.StatusPending,
		CreatedAt:           now,
	}
	if err := stores.Meetings.CreateMeeting(ctx, meeting); err != nil {
		return "", err
	}
	return meeting.ID, nil
}
