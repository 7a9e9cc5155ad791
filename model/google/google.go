// Package google provides a model.Port implementation backed by the Google
// Gemini API. Gemini caches implicitly on repeated leading content, so the
// cacheable context block is primed as a user turn plus a short model
// acknowledgement at the head of the chat history.
package google

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/kaigi-ai/kaigi/core"
	"github.com/kaigi-ai/kaigi/model"
)

// Options configures the Google port.
type Options struct {
	APIKey string
}

// Port adapts the Gemini API to the generic model.Port interface.
type Port struct {
	client *genai.Client
}

// NewPort creates a new Google port constructing its own client.
func NewPort(ctx context.Context, optFns ...func(o *Options)) (*Port, error) {
	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.ClientOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client, err := genai.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("google client: %w", err)
	}

	return &Port{client: client}, nil
}

// NewPortFromClient creates a new Google port from an existing client.
func NewPortFromClient(client *genai.Client) *Port {
	return &Port{client: client}
}

// Close releases the underlying client connection.
func (p *Port) Close() error { return p.client.Close() }

// Invoke implements model.Port.
func (p *Port) Invoke(ctx context.Context, prompt model.Prompt, opts model.Options) (*model.Response, error) {
	gm := p.client.GenerativeModel(opts.Model)
	gm.SetTemperature(float32(opts.Temperature))
	gm.SetMaxOutputTokens(int32(opts.MaxTokens))
	if prompt.System != "" {
		gm.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(prompt.System)}}
	}

	chat := gm.StartChat()
	if prompt.CacheableContext != "" {
		chat.History = []*genai.Content{
			{
				Role:  "user",
				Parts: []genai.Part{genai.Text("## Reference document\n\nConsult the following document while contributing to the discussion:\n\n" + prompt.CacheableContext)},
			},
			{
				Role:  "model",
				Parts: []genai.Part{genai.Text("Understood. I have reviewed the document and will answer with it in mind.")},
			},
		}
	}

	resp, err := chat.SendMessage(ctx, genai.Text(prompt.User))
	if err != nil {
		return nil, fmt.Errorf("google api error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("google api returned no candidates")
	}

	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text += string(t)
		}
	}

	var usage core.TokenUsage
	if resp.UsageMetadata != nil {
		usage = core.TokenUsage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		}
	}

	return &model.Response{Text: text, Usage: usage}, nil
}
