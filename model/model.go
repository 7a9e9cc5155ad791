package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/kaigi-ai/kaigi/core"
)

// Prompt carries the rendered prompt sections for one invocation. The
// cacheable context (whiteboard) is kept distinct from the system prompt so
// backends that support prompt caching can skip re-billing it.
type Prompt struct {
	System string `json:"system,omitempty"`
	User   string `json:"user"`
	// CacheableContext is placed by each adapter wherever its backend caches:
	// leading system block (anthropic, with cache_control), leading system
	// message (openai, prefix caching) or primed chat history (google).
	CacheableContext string `json:"cacheable_context,omitempty"`
}

// Options selects the backend and generation parameters for one invocation.
type Options struct {
	Provider    core.Provider `json:"provider"`
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int64         `json:"max_tokens"`
}

// Response is the final generation result of a single invocation.
type Response struct {
	Text  string          `json:"text"`
	Usage core.TokenUsage `json:"usage"`
}

// Port is the minimal interface step handlers use to drive generation.
// Implementations may retry internally before reporting failure; callers
// treat any returned error as a transient, retryable step failure.
type Port interface {
	Invoke(ctx context.Context, prompt Prompt, opts Options) (*Response, error)
}

// Registry routes invocations to provider-specific ports. Clients are
// explicitly constructed and injected; there is no process-wide default.
type Registry struct {
	ports map[core.Provider]Port
}

// NewRegistry creates a registry over the given provider ports.
func NewRegistry(ports map[core.Provider]Port) *Registry {
	m := make(map[core.Provider]Port, len(ports))
	for p, port := range ports {
		m[p] = port
	}
	return &Registry{ports: m}
}

// RegisterPort adds or replaces the port for a provider.
func (r *Registry) RegisterPort(provider core.Provider, port Port) {
	if r.ports == nil {
		r.ports = map[core.Provider]Port{}
	}
	r.ports[provider] = port
}

// Invoke implements Port by dispatching on the requested provider.
func (r *Registry) Invoke(ctx context.Context, prompt Prompt, opts Options) (*Response, error) {
	port, ok := r.ports[opts.Provider]
	if !ok {
		return nil, fmt.Errorf("unsupported provider: %s", opts.Provider)
	}
	return port.Invoke(ctx, prompt, opts)
}

// MockPort is a lightweight in-memory Port useful for tests & examples.
type MockPort struct {
	mu        sync.Mutex
	responses map[string]string
	err       error
	calls     []Options
}

// NewMockPort constructs a MockPort with no canned responses; unknown prompts
// yield a deterministic echo response.
func NewMockPort() *MockPort {
	return &MockPort{responses: make(map[string]string)}
}

// AddResponse registers a deterministic canned completion for a user prompt.
func (m *MockPort) AddResponse(userPrompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[userPrompt] = response
}

// FailWith makes every subsequent invocation return err.
func (m *MockPort) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// CallCount reports how many invocations were attempted.
func (m *MockPort) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Calls returns a copy of the options of every attempted invocation.
func (m *MockPort) Calls() []Options {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]Options, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// Invoke implements Port.
func (m *MockPort) Invoke(_ context.Context, prompt Prompt, opts Options) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, opts)
	if m.err != nil {
		return nil, m.err
	}
	text, ok := m.responses[prompt.User]
	if !ok {
		text = fmt.Sprintf("Mock response to: %s", prompt.User)
	}
	return &Response{
		Text:  text,
		Usage: core.TokenUsage{InputTokens: len(prompt.User), OutputTokens: len(text)},
	}, nil
}
