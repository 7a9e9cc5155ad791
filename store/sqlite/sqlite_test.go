package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaigi-ai/kaigi/core"
)

// Interface compliance (compile-time assertion)
var (
	_ core.AgentStore    = (*Store)(nil)
	_ core.StyleStore    = (*Store)(nil)
	_ core.WorkflowStore = (*Store)(nil)
	_ core.MeetingStore  = (*Store)(nil)
	_ core.MessageStore  = (*Store)(nil)
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "kaigi.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_AgentRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	agent := &core.Agent{
		ID: "a1", Name: "Aya", Role: "Strategist",
		Persona: "Optimistic.", StyleID: "plain",
		Provider: core.ProviderAnthropic, Model: "claude-sonnet-4-20250514", Temperature: 0.7,
		CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, s.PutAgent(ctx, agent))

	got, err := s.GetAgent(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, agent.Name, got.Name)
	assert.Equal(t, core.ProviderAnthropic, got.Provider)
	assert.Equal(t, 0.7, got.Temperature)

	// Upsert replaces the record.
	agent.Role = "Lead Strategist"
	require.NoError(t, s.PutAgent(ctx, agent))
	got, err = s.GetAgent(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "Lead Strategist", got.Role)

	_, err = s.GetAgent(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestStore_WorkflowStepsSurviveEncoding(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	workflow := &core.Workflow{
		ID: "wf1", Name: "Debate",
		StartPrompt: "start", EndPrompt: "end",
		AgentIDs: []string{"a1", "a2"},
		Steps: []core.Step{
			core.SpeakStep{AgentID: "a1"},
			core.ParallelSpeakStep{AgentIDs: []string{"a1", "a2"}},
			core.UserInterventionStep{Label: "pause"},
			core.SummaryStep{AgentID: "a2"},
		},
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.PutWorkflow(ctx, workflow))

	got, err := s.GetWorkflow(ctx, "wf1")
	require.NoError(t, err)
	assert.Equal(t, workflow.Steps, got.Steps)
	assert.Equal(t, workflow.AgentIDs, got.AgentIDs)
}

func TestStore_MeetingLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	meeting := &core.Meeting{
		ID: "m1", Topic: "topic", WorkflowID: "wf1",
		Status: core.StatusPending, CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.CreateMeeting(ctx, meeting))

	got, err := s.GetMeeting(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, core.StatusPending, got.Status)
	assert.Nil(t, got.CompletedAt)

	stepIdx := 1
	status := core.StatusCompleted
	conclusion := "agreed"
	completedAt := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, s.UpdateMeeting(ctx, "m1", core.MeetingUpdate{
		CurrentStep: &stepIdx, Status: &status, FinalConclusion: &conclusion, CompletedAt: &completedAt,
	}))

	got, err = s.GetMeeting(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.CurrentStep)
	assert.Equal(t, core.StatusCompleted, got.Status)
	assert.Equal(t, "agreed", got.FinalConclusion)
	require.NotNil(t, got.CompletedAt)

	assert.ErrorIs(t, s.UpdateMeeting(ctx, "missing", core.MeetingUpdate{Status: &status}), core.ErrNotFound)
	assert.NoError(t, s.UpdateMeeting(ctx, "m1", core.MeetingUpdate{})) // no-op
}

func TestStore_MessagesOrdered(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Now().UTC()

	for i, content := range []string{"first", "second", "third"} {
		require.NoError(t, s.AppendMessage(ctx, &core.Message{
			ID: core.NewID(), MeetingID: "m1", AgentID: "a1", AgentName: "Aya",
			StepNumber: i + 1, Content: content, CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	messages, err := s.ListMessages(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, "first", messages[0].Content)
	assert.Equal(t, "third", messages[2].Content)
	assert.Equal(t, 2, messages[1].StepNumber)
}
