// Package runner drives meetings over the stores: it assembles the execution
// context for each advance, invokes the engine, and persists generated
// messages and meeting updates. The engine itself never persists; every
// mutation of durable state happens here, after a successful outcome. The
// runner serializes advances per meeting id, honoring the invariant that a
// single meeting is never advanced concurrently.
package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kaigi-ai/kaigi/core"
	"github.com/kaigi-ai/kaigi/engine"
	"github.com/kaigi-ai/kaigi/logging"
)

// MeetingStartedContent is the system message emitted by the start action.
const MeetingStartedContent = "Meeting started."

// Options configures the runner.
type Options struct {
	Logger logging.Logger
}

// Runner executes meeting lifecycle actions against an engine and stores.
type Runner struct {
	stores core.Stores
	engine *engine.Engine
	logger logging.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a runner over the given stores and engine.
func New(stores core.Stores, eng *engine.Engine, optFns ...func(o *Options)) *Runner {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Runner{stores: stores, engine: eng, logger: opts.Logger, locks: map[string]*sync.Mutex{}}
}

// lockMeeting returns the mutex serializing advances for one meeting id.
func (r *Runner) lockMeeting(id string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.locks[id]; ok {
		return l
	}
	l := &sync.Mutex{}
	r.locks[id] = l
	return l
}

// releaseMeeting drops the meeting's mutex entry once the meeting is
// terminal, so the map does not grow with every finished meeting. Terminal
// meetings reject all further mutations, making the lock redundant.
func (r *Runner) releaseMeeting(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.locks, id)
}

// Start transitions a pending meeting to in_progress and emits the system
// "meeting started" message.
func (r *Runner) Start(ctx context.Context, meetingID string) (*core.Meeting, error) {
	lock := r.lockMeeting(meetingID)
	lock.Lock()
	defer lock.Unlock()

	meeting, err := r.stores.Meetings.GetMeeting(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	if meeting.Status != core.StatusPending {
		return nil, fmt.Errorf("meeting %s is not pending: %s", meetingID, meeting.Status)
	}

	if err := r.stores.Messages.AppendMessage(ctx, &core.Message{
		ID:        core.NewID(),
		MeetingID: meetingID,
		AgentID:   core.SystemAgentID,
		AgentName: core.SystemAgentName,
		AgentRole: "system",
		Content:   MeetingStartedContent,
		CreatedAt: time.Now(),
	}); err != nil {
		return nil, err
	}

	status := core.StatusInProgress
	if err := r.stores.Meetings.UpdateMeeting(ctx, meetingID, core.MeetingUpdate{Status: &status}); err != nil {
		return nil, err
	}
	meeting.Status = status

	r.logger.Info("meeting started", "meeting_id", meetingID, "topic", meeting.Topic)
	return meeting, nil
}

// Advance executes the step under the meeting's cursor and persists the
// outcome. On a failure outcome nothing is persisted: the cursor and status
// are unchanged and the step is safely retryable. A returned error indicates
// an infrastructure problem (store access), not a step failure.
func (r *Runner) Advance(ctx context.Context, meetingID string) (*core.ExecutionResult, error) {
	lock := r.lockMeeting(meetingID)
	lock.Lock()
	defer lock.Unlock()
	return r.advanceLocked(ctx, meetingID)
}

func (r *Runner) advanceLocked(ctx context.Context, meetingID string) (*core.ExecutionResult, error) {
	meeting, err := r.stores.Meetings.GetMeeting(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	switch meeting.Status {
	case core.StatusPending:
		return nil, fmt.Errorf("meeting %s has not been started", meetingID)
	case core.StatusWaiting:
		return nil, fmt.Errorf("meeting %s is waiting for user intervention", meetingID)
	case core.StatusCompleted, core.StatusError:
		return nil, fmt.Errorf("meeting %s is already %s", meetingID, meeting.Status)
	}

	ec, err := r.buildContext(ctx, meeting)
	if err != nil {
		return nil, err
	}

	result := r.engine.Advance(ctx, ec)
	if !result.Success {
		return &result, nil
	}

	// End-of-workflow guard: nothing executed, only reconcile the status.
	if result.StepIndex >= len(ec.Workflow.Steps) {
		status := core.StatusCompleted
		if err := r.stores.Meetings.UpdateMeeting(ctx, meetingID, core.MeetingUpdate{Status: &status}); err != nil {
			return nil, err
		}
		r.releaseMeeting(meetingID)
		return &result, nil
	}

	nextStep := meeting.CurrentStep + 1
	now := time.Now()
	for _, gm := range result.Messages {
		if err := r.stores.Messages.AppendMessage(ctx, &core.Message{
			ID:             core.NewID(),
			MeetingID:      meetingID,
			AgentID:        gm.AgentID,
			AgentName:      gm.AgentName,
			AgentRole:      gm.AgentRole,
			AgentAvatarURL: gm.AgentAvatarURL,
			StepNumber:     nextStep,
			Content:        gm.Content,
			CreatedAt:      now,
		}); err != nil {
			return nil, err
		}
	}

	update := core.MeetingUpdate{CurrentStep: &nextStep, Status: &result.NextStatus}
	if result.NextStatus == core.StatusCompleted && len(result.Messages) > 0 {
		conclusion := result.Messages[0].Content
		completedAt := now
		update.FinalConclusion = &conclusion
		update.CompletedAt = &completedAt
	}
	if err := r.stores.Meetings.UpdateMeeting(ctx, meetingID, update); err != nil {
		return nil, err
	}
	if result.NextStatus.Terminal() {
		r.releaseMeeting(meetingID)
	}

	r.logger.Info("meeting advanced",
		"meeting_id", meetingID, "step_index", result.StepIndex, "step_type", string(result.StepType),
		"next_status", string(result.NextStatus), "message_count", len(result.Messages),
		"input_tokens", result.Usage.InputTokens, "output_tokens", result.Usage.OutputTokens)
	return &result, nil
}

// Resume transitions a waiting meeting back to in_progress, optionally
// replacing the whiteboard first, then advances one step.
func (r *Runner) Resume(ctx context.Context, meetingID string, whiteboard *string) (*core.ExecutionResult, error) {
	lock := r.lockMeeting(meetingID)
	lock.Lock()
	defer lock.Unlock()

	meeting, err := r.stores.Meetings.GetMeeting(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	if meeting.Status != core.StatusWaiting {
		return nil, fmt.Errorf("meeting %s is not waiting for user intervention", meetingID)
	}

	status := core.StatusInProgress
	update := core.MeetingUpdate{Status: &status, Whiteboard: whiteboard}
	if err := r.stores.Meetings.UpdateMeeting(ctx, meetingID, update); err != nil {
		return nil, err
	}

	return r.advanceLocked(ctx, meetingID)
}

// Run starts a pending meeting if needed, then advances until the meeting
// pauses for intervention, completes, or a step fails. A failed step is
// returned as an error without mutating the meeting, so Run can be called
// again to retry from the same step.
func (r *Runner) Run(ctx context.Context, meetingID string) (*core.Meeting, error) {
	meeting, err := r.stores.Meetings.GetMeeting(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	if meeting.Status == core.StatusPending {
		if meeting, err = r.Start(ctx, meetingID); err != nil {
			return nil, err
		}
	}

	for meeting.Status == core.StatusInProgress {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result, err := r.Advance(ctx, meetingID)
		if err != nil {
			return nil, err
		}
		if !result.Success {
			return nil, fmt.Errorf("step %d (%s) failed: %w", result.StepIndex, result.StepType, result.Err)
		}
		if meeting, err = r.stores.Meetings.GetMeeting(ctx, meetingID); err != nil {
			return nil, err
		}
	}
	return meeting, nil
}

// Fail marks a non-terminal meeting as error. This is an operator decision;
// the engine never sets the error status on its own.
func (r *Runner) Fail(ctx context.Context, meetingID string) error {
	lock := r.lockMeeting(meetingID)
	lock.Lock()
	defer lock.Unlock()

	meeting, err := r.stores.Meetings.GetMeeting(ctx, meetingID)
	if err != nil {
		return err
	}
	if meeting.Status.Terminal() {
		return fmt.Errorf("meeting %s is already %s", meetingID, meeting.Status)
	}
	status := core.StatusError
	if err := r.stores.Meetings.UpdateMeeting(ctx, meetingID, core.MeetingUpdate{Status: &status}); err != nil {
		return err
	}
	r.releaseMeeting(meetingID)
	return nil
}

// buildContext assembles the transient execution snapshot: meeting, workflow,
// participant map (workflow roster plus the summary override agent), ordered
// history and whiteboard. Dangling agent references are tolerated here; the
// handler for the current step reports them as configuration errors.
func (r *Runner) buildContext(ctx context.Context, meeting *core.Meeting) (*core.ExecutionContext, error) {
	workflow, err := r.stores.Workflows.GetWorkflow(ctx, meeting.WorkflowID)
	if err != nil {
		return nil, fmt.Errorf("workflow %s: %w", meeting.WorkflowID, err)
	}

	ids := make([]string, 0, len(workflow.AgentIDs)+1)
	seen := map[string]bool{}
	for _, id := range workflow.AgentIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if meeting.SummaryAgentID != "" && !seen[meeting.SummaryAgentID] {
		ids = append(ids, meeting.SummaryAgentID)
	}

	agents := make(map[string]*core.Agent, len(ids))
	for _, id := range ids {
		agent, err := r.stores.Agents.GetAgent(ctx, id)
		if errors.Is(err, core.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		agents[id] = agent
	}

	messages, err := r.stores.Messages.ListMessages(ctx, meeting.ID)
	if err != nil {
		return nil, err
	}

	return &core.ExecutionContext{
		Meeting:    meeting,
		Workflow:   workflow,
		Agents:     agents,
		Messages:   messages,
		Whiteboard: meeting.Whiteboard,
	}, nil
}
