package core

import (
	"time"

	"github.com/google/uuid"
)

// SystemAgentID identifies messages authored by the engine itself rather than
// a configured agent (meeting-start notices, intervention prompts).
const SystemAgentID = "system"

// SystemAgentName is the display name for engine-authored messages.
const SystemAgentName = "System"

// Message is an immutable, append-only record of one utterance. Agent name,
// role and avatar are denormalized for display so transcripts survive later
// agent edits. Ordering is by creation time; StepNumber groups concurrent
// parallel-speak outputs.
type Message struct {
	ID        string `json:"id"`
	MeetingID string `json:"meeting_id"`

	AgentID   string `json:"agent_id"`
	AgentName string `json:"agent_name"`
	// AgentRole may be empty on records predating the field; formatters fall
	// back to "unknown".
	AgentRole      string `json:"agent_role,omitempty"`
	AgentAvatarURL string `json:"agent_avatar_url,omitempty"`

	// StepNumber is the meeting cursor value after the producing advance.
	// Zero means the record predates step tracking; formatters fall back to "?".
	StepNumber int `json:"step_number,omitempty"`

	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// TokenUsage captures token accounting for one or more model invocations.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Add accumulates another usage record into u.
func (u *TokenUsage) Add(other TokenUsage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
}

// GeneratedMessage is a step handler's not-yet-persisted utterance. The caller
// assigns meeting id, step number and creation time when persisting.
type GeneratedMessage struct {
	AgentID        string     `json:"agent_id"`
	AgentName      string     `json:"agent_name"`
	AgentRole      string     `json:"agent_role,omitempty"`
	AgentAvatarURL string     `json:"agent_avatar_url,omitempty"`
	Content        string     `json:"content"`
	Usage          TokenUsage `json:"usage"`
}

// NewID generates a unique identifier for meetings and messages.
func NewID() string { return uuid.NewString() }
