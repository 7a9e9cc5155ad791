package kaigi

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaigi-ai/kaigi/core"
	"github.com/kaigi-ai/kaigi/model"
)

func seedMeeting(t *testing.T, k *Kaigi, steps []core.Step) string {
	t.Helper()
	ctx := context.Background()
	stores := k.Stores()
	now := time.Now()

	require.NoError(t, stores.Styles.PutOutputStyle(ctx, &core.OutputStyle{
		ID: "plain", Name: "Plain", PromptSegment: "Answer plainly.", IsActive: true, CreatedAt: now,
	}))
	for _, id := range []string{"a1", "a2"} {
		require.NoError(t, stores.Agents.PutAgent(ctx, &core.Agent{
			ID: id, Name: id, Role: "Participant", Persona: "A test participant.",
			StyleID: "plain", Provider: core.ProviderOpenAI, Model: "gpt-4o", Temperature: 0.5,
			CreatedAt: now, UpdatedAt: now,
		}))
	}

	workflow := &core.Workflow{
		ID: "wf1", Name: "Test", StartPrompt: "Discuss.", EndPrompt: "Conclude.",
		AgentIDs: []string{"a1", "a2"}, Steps: steps, IsActive: true, CreatedAt: now,
	}
	require.NoError(t, stores.Workflows.PutWorkflow(ctx, workflow))

	meeting := &core.Meeting{
		ID: "mtg1", Topic: "Test topic", WorkflowID: workflow.ID,
		Status: core.StatusPending, CreatedAt: now,
	}
	require.NoError(t, stores.Meetings.CreateMeeting(ctx, meeting))
	return meeting.ID
}

func TestKaigi_RunsMeetingEndToEnd(t *testing.T) {
	mock := model.NewMockPort()
	k := New(func(o *Options) {
		o.Ports = map[core.Provider]model.Port{core.ProviderOpenAI: mock}
	})
	id := seedMeeting(t, k, []core.Step{
		core.SpeakStep{AgentID: "a1"},
		core.SpeakStep{AgentID: "a2"},
		core.SummaryStep{AgentID: "a1"},
	})
	ctx := context.Background()

	meeting, err := k.Run(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, meeting.Status)
	assert.NotEmpty(t, meeting.FinalConclusion)
	assert.Equal(t, 3, mock.CallCount())
}

func TestKaigi_InterventionRoundTrip(t *testing.T) {
	k := New(func(o *Options) {
		o.Ports = map[core.Provider]model.Port{core.ProviderOpenAI: model.NewMockPort()}
	})
	id := seedMeeting(t, k, []core.Step{
		core.UserInterventionStep{Label: "fill in the whiteboard"},
		core.SummaryStep{AgentID: "a1"},
	})
	ctx := context.Background()

	meeting, err := k.Run(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusWaiting, meeting.Status)

	whiteboard := "Decision: ship it."
	_, err = k.Resume(ctx, id, &whiteboard)
	require.NoError(t, err)

	meeting, err = k.Stores().Meetings.GetMeeting(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, meeting.Status)
	assert.Equal(t, whiteboard, meeting.Whiteboard)
}

func TestKaigi_RegisterPortAfterConstruction(t *testing.T) {
	k := New()
	k.RegisterPort(core.ProviderOpenAI, model.NewMockPort())
	id := seedMeeting(t, k, []core.Step{core.SummaryStep{AgentID: "a1"}})

	meeting, err := k.Run(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, meeting.Status)
}

func TestKaigi_MissingPortFailsStep(t *testing.T) {
	k := New()
	id := seedMeeting(t, k, []core.Step{core.SpeakStep{AgentID: "a1"}})

	_, err := k.Run(context.Background(), id)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported provider")

	// Nothing was persisted; the meeting is still retryable.
	meeting, err := k.Stores().Meetings.GetMeeting(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusInProgress, meeting.Status)
	assert.Equal(t, 0, meeting.CurrentStep)
}
