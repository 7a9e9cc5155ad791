package core

import (
	"context"
	"errors"
)

// ErrNotFound is returned by stores when an entity does not exist.
var ErrNotFound = errors.New("not found")

// AgentStore persists agent configurations.
type AgentStore interface {
	GetAgent(ctx context.Context, id string) (*Agent, error)
	PutAgent(ctx context.Context, agent *Agent) error
}

// StyleStore resolves output styles by id. This is the single dependency
// lookup the prompt path performs; resolution failures surface as
// configuration errors on the current step only.
type StyleStore interface {
	GetOutputStyle(ctx context.Context, id string) (*OutputStyle, error)
	PutOutputStyle(ctx context.Context, style *OutputStyle) error
}

// WorkflowStore persists workflow definitions.
type WorkflowStore interface {
	GetWorkflow(ctx context.Context, id string) (*Workflow, error)
	PutWorkflow(ctx context.Context, workflow *Workflow) error
}

// MeetingStore persists meetings. UpdateMeeting applies only the non-nil
// fields of the update.
type MeetingStore interface {
	GetMeeting(ctx context.Context, id string) (*Meeting, error)
	CreateMeeting(ctx context.Context, meeting *Meeting) error
	UpdateMeeting(ctx context.Context, id string, update MeetingUpdate) error
}

// MessageStore persists the append-only transcript. ListMessages returns the
// full history ordered by creation time.
type MessageStore interface {
	AppendMessage(ctx context.Context, message *Message) error
	ListMessages(ctx context.Context, meetingID string) ([]Message, error)
}

// Stores bundles every store interface the runner consumes.
type Stores struct {
	Agents    AgentStore
	Styles    StyleStore
	Workflows WorkflowStore
	Meetings  MeetingStore
	Messages  MessageStore
}
