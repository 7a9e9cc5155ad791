package step

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaigi-ai/kaigi/core"
	"github.com/kaigi-ai/kaigi/internal/testutil"
	"github.com/kaigi-ai/kaigi/model"
)

func newDeps(port model.Port) Deps {
	return Deps{Styles: testutil.NewStyleStore(), Port: port}
}

// selectivePort fails invocations whose user prompt contains a marker,
// letting parallel tests fail one participant while others succeed.
type selectivePort struct {
	model.Port
	failMarker string
}

func (p *selectivePort) Invoke(ctx context.Context, prompt model.Prompt, opts model.Options) (*model.Response, error) {
	if p.failMarker != "" && strings.Contains(prompt.User, p.failMarker) {
		return nil, errors.New("model overloaded")
	}
	return p.Port.Invoke(ctx, prompt, opts)
}

func TestSpeakHandler_Success(t *testing.T) {
	mock := model.NewMockPort()
	h := NewSpeakHandler(newDeps(mock))
	ec := testutil.NewContext(
		[]core.Step{core.SpeakStep{AgentID: "a1"}},
		testutil.NewAgent("a1", "Aya", "Strategist"),
	)

	outcome := h.Handle(context.Background(), ec, ec.Workflow.Steps[0])

	require.True(t, outcome.Success)
	require.Len(t, outcome.Messages, 1)
	assert.Equal(t, "a1", outcome.Messages[0].AgentID)
	assert.Equal(t, "Aya", outcome.Messages[0].AgentName)
	assert.Equal(t, core.StatusInProgress, outcome.NextStatus)
	assert.Equal(t, 1, mock.CallCount())

	opts := mock.Calls()[0]
	assert.Equal(t, core.ProviderOpenAI, opts.Provider)
	assert.Equal(t, DefaultSpeakMaxTokens, opts.MaxTokens)
}

func TestSpeakHandler_MissingAgentMakesNoModelCall(t *testing.T) {
	mock := model.NewMockPort()
	h := NewSpeakHandler(newDeps(mock))
	ec := testutil.NewContext([]core.Step{core.SpeakStep{AgentID: "ghost"}})

	outcome := h.Handle(context.Background(), ec, ec.Workflow.Steps[0])

	require.False(t, outcome.Success)
	assert.Contains(t, outcome.Err.Error(), "ghost")
	assert.Equal(t, core.StatusInProgress, outcome.NextStatus)
	assert.Equal(t, 0, mock.CallCount())
}

func TestSpeakHandler_ModelFailureIsRetryable(t *testing.T) {
	mock := model.NewMockPort()
	mock.FailWith(errors.New("503 unavailable"))
	h := NewSpeakHandler(newDeps(mock))
	ec := testutil.NewContext(
		[]core.Step{core.SpeakStep{AgentID: "a1"}},
		testutil.NewAgent("a1", "Aya", "Strategist"),
	)

	outcome := h.Handle(context.Background(), ec, ec.Workflow.Steps[0])

	require.False(t, outcome.Success)
	assert.Empty(t, outcome.Messages)
	assert.Equal(t, core.StatusInProgress, outcome.NextStatus)
}

func TestParallelSpeakHandler_DropsFailedParticipantsKeepsOrder(t *testing.T) {
	port := &selectivePort{Port: model.NewMockPort(), failMarker: `As the "Critic"`}
	h := NewParallelSpeakHandler(newDeps(port))
	ec := testutil.NewContext(
		[]core.Step{core.ParallelSpeakStep{AgentIDs: []string{"a1", "a2", "a3"}}},
		testutil.NewAgent("a1", "Aya", "Strategist"),
		testutil.NewAgent("a2", "Ben", "Critic"),
		testutil.NewAgent("a3", "Cho", "Researcher"),
	)

	outcome := h.Handle(context.Background(), ec, ec.Workflow.Steps[0])

	require.True(t, outcome.Success)
	require.Len(t, outcome.Messages, 2)
	assert.Equal(t, "a1", outcome.Messages[0].AgentID)
	assert.Equal(t, "a3", outcome.Messages[1].AgentID)
	assert.Equal(t, core.StatusInProgress, outcome.NextStatus)
}

func TestParallelSpeakHandler_AllFailedFailsStep(t *testing.T) {
	mock := model.NewMockPort()
	mock.FailWith(errors.New("model overloaded"))
	h := NewParallelSpeakHandler(newDeps(mock))
	ec := testutil.NewContext(
		[]core.Step{core.ParallelSpeakStep{AgentIDs: []string{"a1", "a2"}}},
		testutil.NewAgent("a1", "Aya", "Strategist"),
		testutil.NewAgent("a2", "Ben", "Critic"),
	)

	outcome := h.Handle(context.Background(), ec, ec.Workflow.Steps[0])

	require.False(t, outcome.Success)
	assert.Contains(t, outcome.Err.Error(), "all parallel participants failed")
}

func TestParallelSpeakHandler_EmptyRosterFails(t *testing.T) {
	h := NewParallelSpeakHandler(newDeps(model.NewMockPort()))
	ec := testutil.NewContext([]core.Step{core.ParallelSpeakStep{}})

	outcome := h.Handle(context.Background(), ec, ec.Workflow.Steps[0])
	require.False(t, outcome.Success)
}

func TestSummaryHandler_CompletesMeeting(t *testing.T) {
	mock := model.NewMockPort()
	h := NewSummaryHandler(newDeps(mock))
	ec := testutil.NewContext(
		[]core.Step{core.SummaryStep{AgentID: "a1"}},
		testutil.NewAgent("a1", "Aya", "Strategist"),
	)

	outcome := h.Handle(context.Background(), ec, ec.Workflow.Steps[0])

	require.True(t, outcome.Success)
	require.Len(t, outcome.Messages, 1)
	assert.Equal(t, core.StatusCompleted, outcome.NextStatus)
	assert.Equal(t, DefaultSummaryMaxTokens, mock.Calls()[0].MaxTokens)
}

func TestSummaryHandler_MeetingOverrideWins(t *testing.T) {
	mock := model.NewMockPort()
	h := NewSummaryHandler(newDeps(mock))
	ec := testutil.NewContext(
		[]core.Step{core.SummaryStep{AgentID: "a1"}},
		testutil.NewAgent("a1", "Aya", "Strategist"),
		testutil.NewAgent("a2", "Ben", "Critic"),
	)
	ec.Meeting.SummaryAgentID = "a2"

	outcome := h.Handle(context.Background(), ec, ec.Workflow.Steps[0])

	require.True(t, outcome.Success)
	assert.Equal(t, "a2", outcome.Messages[0].AgentID)
}

func TestSummaryHandler_NoAgentConfigured(t *testing.T) {
	mock := model.NewMockPort()
	h := NewSummaryHandler(newDeps(mock))
	ec := testutil.NewContext([]core.Step{core.SummaryStep{}})

	outcome := h.Handle(context.Background(), ec, ec.Workflow.Steps[0])

	require.False(t, outcome.Success)
	assert.Contains(t, outcome.Err.Error(), "no summary agent configured")
	assert.Equal(t, 0, mock.CallCount())
}

func TestSummaryHandler_FailureKeepsMeetingInProgress(t *testing.T) {
	mock := model.NewMockPort()
	mock.FailWith(errors.New("timeout"))
	h := NewSummaryHandler(newDeps(mock))
	ec := testutil.NewContext(
		[]core.Step{core.SummaryStep{AgentID: "a1"}},
		testutil.NewAgent("a1", "Aya", "Strategist"),
	)

	outcome := h.Handle(context.Background(), ec, ec.Workflow.Steps[0])

	require.False(t, outcome.Success)
	assert.Equal(t, core.StatusInProgress, outcome.NextStatus)
}

func TestUserInterventionHandler_PausesWithoutModelCall(t *testing.T) {
	mock := model.NewMockPort()
	h := NewUserInterventionHandler(newDeps(mock))
	ec := testutil.NewContext([]core.Step{core.UserInterventionStep{Label: "update the whiteboard"}})

	outcome := h.Handle(context.Background(), ec, ec.Workflow.Steps[0])

	require.True(t, outcome.Success)
	require.Len(t, outcome.Messages, 1)
	assert.Equal(t, core.SystemAgentID, outcome.Messages[0].AgentID)
	assert.Equal(t, "update the whiteboard", outcome.Messages[0].Content)
	assert.Equal(t, core.StatusWaiting, outcome.NextStatus)
	assert.Equal(t, 0, mock.CallCount())
}

func TestUserInterventionHandler_DefaultLabel(t *testing.T) {
	h := NewUserInterventionHandler(Deps{})
	ec := testutil.NewContext([]core.Step{core.UserInterventionStep{}})

	outcome := h.Handle(context.Background(), ec, ec.Workflow.Steps[0])

	require.True(t, outcome.Success)
	assert.Equal(t, DefaultInterventionPrompt, outcome.Messages[0].Content)
}
