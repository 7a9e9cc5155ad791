package core

import "time"

// Provider identifies a language-model backend family.
type Provider string

const (
	// ProviderOpenAI routes invocations to the OpenAI Chat Completions API.
	ProviderOpenAI Provider = "openai"
	// ProviderAnthropic routes invocations to the Anthropic Messages API.
	ProviderAnthropic Provider = "anthropic"
	// ProviderGoogle routes invocations to the Google Gemini API.
	ProviderGoogle Provider = "google"
)

// Agent is a configured meeting participant: identity plus generation
// configuration. Agents are immutable during a single meeting execution and
// referenced by id from workflow steps and meeting overrides.
type Agent struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	AvatarURL string `json:"avatar_url,omitempty"`

	// Persona is free-text character background injected into the system prompt.
	Persona string `json:"persona"`
	// Prompt is an optional agent-specific instruction override appended after
	// the persona block. Empty means no extra instructions.
	Prompt string `json:"prompt,omitempty"`

	// StyleID references an OutputStyle resolved at call time, so style edits
	// retroactively affect future turns of any agent using it.
	StyleID string `json:"style_id"`

	Provider    Provider `json:"provider"`
	Model       string   `json:"model"`
	Temperature float64  `json:"temperature"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OutputStyle is a reusable prompt fragment describing desired response
// formatting. Looked up by id when a prompt is built, never cached inside the
// agent record.
type OutputStyle struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	PromptSegment string    `json:"prompt_segment"`
	Description   string    `json:"description,omitempty"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
}
