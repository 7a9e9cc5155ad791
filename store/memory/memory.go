// Package memory provides volatile store implementations backed by process
// local maps. They are safe for concurrent access and best suited for tests,
// examples and single-shot CLI runs. Returned entities are defensive copies
// to prevent external mutation of internal state.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/kaigi-ai/kaigi/core"
)

// Store implements every core store interface in memory.
type Store struct {
	mu        sync.RWMutex
	agents    map[string]core.Agent
	styles    map[string]core.OutputStyle
	workflows map[string]core.Workflow
	meetings  map[string]core.Meeting
	messages  map[string][]core.Message
}

// New constructs an empty in-memory store.
func New() *Store {
	return &Store{
		agents:    map[string]core.Agent{},
		styles:    map[string]core.OutputStyle{},
		workflows: map[string]core.Workflow{},
		meetings:  map[string]core.Meeting{},
		messages:  map[string][]core.Message{},
	}
}

// Stores bundles the store into the interface set consumed by the runner.
func (s *Store) Stores() core.Stores {
	return core.Stores{Agents: s, Styles: s, Workflows: s, Meetings: s, Messages: s}
}

// GetAgent implements core.AgentStore.
func (s *Store) GetAgent(_ context.Context, id string) (*core.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	agent, ok := s.agents[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &agent, nil
}

// PutAgent implements core.AgentStore.
func (s *Store) PutAgent(_ context.Context, agent *core.Agent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agents[agent.ID] = *agent
	return nil
}

// GetOutputStyle implements core.StyleStore.
func (s *Store) GetOutputStyle(_ context.Context, id string) (*core.OutputStyle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	style, ok := s.styles[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &style, nil
}

// PutOutputStyle implements core.StyleStore.
func (s *Store) PutOutputStyle(_ context.Context, style *core.OutputStyle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.styles[style.ID] = *style
	return nil
}

// GetWorkflow implements core.WorkflowStore.
func (s *Store) GetWorkflow(_ context.Context, id string) (*core.Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	workflow, ok := s.workflows[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	clone := workflow
	clone.AgentIDs = append([]string(nil), workflow.AgentIDs...)
	clone.Steps = append([]core.Step(nil), workflow.Steps...)
	return &clone, nil
}

// PutWorkflow implements core.WorkflowStore.
func (s *Store) PutWorkflow(_ context.Context, workflow *core.Workflow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *workflow
	clone.AgentIDs = append([]string(nil), workflow.AgentIDs...)
	clone.Steps = append([]core.Step(nil), workflow.Steps...)
	s.workflows[workflow.ID] = clone
	return nil
}

// GetMeeting implements core.MeetingStore.
func (s *Store) GetMeeting(_ context.Context, id string) (*core.Meeting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	meeting, ok := s.meetings[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &meeting, nil
}

// CreateMeeting implements core.MeetingStore.
func (s *Store) CreateMeeting(_ context.Context, meeting *core.Meeting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meetings[meeting.ID] = *meeting
	return nil
}

// UpdateMeeting implements core.MeetingStore applying only non-nil fields.
func (s *Store) UpdateMeeting(_ context.Context, id string, update core.MeetingUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	meeting, ok := s.meetings[id]
	if !ok {
		return core.ErrNotFound
	}
	if update.CurrentStep != nil {
		meeting.CurrentStep = *update.CurrentStep
	}
	if update.Status != nil {
		meeting.Status = *update.Status
	}
	if update.Whiteboard != nil {
		meeting.Whiteboard = *update.Whiteboard
	}
	if update.FinalConclusion != nil {
		meeting.FinalConclusion = *update.FinalConclusion
	}
	if update.CompletedAt != nil {
		completedAt := *update.CompletedAt
		meeting.CompletedAt = &completedAt
	}
	s.meetings[id] = meeting
	return nil
}

// AppendMessage implements core.MessageStore.
func (s *Store) AppendMessage(_ context.Context, message *core.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[message.MeetingID] = append(s.messages[message.MeetingID], *message)
	return nil
}

// ListMessages implements core.MessageStore returning a copy of the full
// history ordered by creation time.
func (s *Store) ListMessages(_ context.Context, meetingID string) ([]core.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := append([]core.Message(nil), s.messages[meetingID]...)
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].CreatedAt.Before(history[j].CreatedAt)
	})
	return history, nil
}
