package memory

import (
	"context"
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

func TestStore_NotFound(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.GetAgent(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = s.GetMeeting(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
	err = s.UpdateMeeting(ctx, "missing", core.MeetingUpdate{})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestStore_WorkflowRoundTripIsDefensive(t *testing.T) {
	s := New()
	ctx := context.Background()

	workflow := &core.Workflow{
		ID:       "wf1",
		Name:     "Debate",
		AgentIDs: []string{"a1", "a2"},
		Steps:    []core.Step{core.SpeakStep{AgentID: "a1"}, core.SummaryStep{AgentID: "a2"}},
	}
	require.NoError(t, s.PutWorkflow(ctx, workflow))

	got, err := s.GetWorkflow(ctx, "wf1")
	require.NoError(t, err)
	assert.Equal(t, workflow.Steps, got.Steps)

	// Mutating the returned copy must not affect a later read.
	got.AgentIDs[0] = "mutated"
	again, err := s.GetWorkflow(ctx, "wf1")
	require.NoError(t, err)
	assert.Equal(t, "a1", again.AgentIDs[0])
}

func TestStore_UpdateMeetingPartial(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.CreateMeeting(ctx, &core.Meeting{
		ID: "m1", Topic: "t", Whiteboard: "initial", Status: core.StatusPending,
	}))

	stepIdx := 2
	status := core.StatusInProgress
	require.NoError(t, s.UpdateMeeting(ctx, "m1", core.MeetingUpdate{CurrentStep: &stepIdx, Status: &status}))

	got, err := s.GetMeeting(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.CurrentStep)
	assert.Equal(t, core.StatusInProgress, got.Status)
	assert.Equal(t, "initial", got.Whiteboard) // untouched

	conclusion := "done"
	completedAt := time.Now()
	done := core.StatusCompleted
	require.NoError(t, s.UpdateMeeting(ctx, "m1", core.MeetingUpdate{
		Status: &done, FinalConclusion: &conclusion, CompletedAt: &completedAt,
	}))

	got, err = s.GetMeeting(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "done", got.FinalConclusion)
	require.NotNil(t, got.CompletedAt)
	assert.Equal(t, 2, got.CurrentStep) // untouched
}

func TestStore_MessagesOrderedByCreation(t *testing.T) {
	s := New()
	ctx := context.Background()
	base := time.Now()

	for i, content := range []string{"second", "first"} {
		offset := time.Duration(1-i) * time.Second
		require.NoError(t, s.AppendMessage(ctx, &core.Message{
			ID: core.NewID(), MeetingID: "m1", AgentID: "a1", AgentName: "Aya",
			Content: content, CreatedAt: base.Add(offset),
		}))
	}

	messages, err := s.ListMessages(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "first", messages[0].Content)
	assert.Equal(t, "second", messages[1].Content)

	empty, err := s.ListMessages(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
