// Package openai provides a model.Port implementation backed by the OpenAI
// Chat Completions API. The cacheable context block is placed as the leading
// system message so OpenAI's automatic prefix caching can reuse it across
// turns of the same meeting.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/kaigi-ai/kaigi/core"
	"github.com/kaigi-ai/kaigi/model"
)

// Options configures the OpenAI port.
type Options struct {
	APIKey string
}

// Port adapts the OpenAI Chat Completions API to the generic model.Port
// interface.
type Port struct {
	client *openai.Client
}

// NewPort creates a new OpenAI port constructing its own client.
func NewPort(optFns ...func(o *Options)) *Port {
	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := openai.NewClient(clientOpts...)

	return &Port{client: &client}
}

// NewPortFromClient creates a new OpenAI port from an existing client.
func NewPortFromClient(client *openai.Client) *Port {
	return &Port{client: client}
}

// Invoke implements model.Port.
func (p *Port) Invoke(ctx context.Context, prompt model.Prompt, opts model.Options) (*model.Response, error) {
	var messages []openai.ChatCompletionMessageParamUnion
	if prompt.CacheableContext != "" {
		messages = append(messages, openai.SystemMessage(referenceDocument(prompt.CacheableContext)))
	}
	if prompt.System != "" {
		messages = append(messages, openai.SystemMessage(prompt.System))
	}
	messages = append(messages, openai.UserMessage(prompt.User))

	params := openai.ChatCompletionNewParams{
		Model:               opts.Model,
		Messages:            messages,
		Temperature:         openai.Float(opts.Temperature),
		MaxCompletionTokens: openai.Int(opts.MaxTokens),
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai api returned no choices")
	}

	return &model.Response{
		Text: resp.Choices[0].Message.Content,
		Usage: core.TokenUsage{
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
		},
	}, nil
}

// referenceDocument frames the cacheable context as a stable leading section
// so the byte prefix is identical across calls.
func referenceDocument(text string) string {
	return "## Reference document\n\n" + text
}
