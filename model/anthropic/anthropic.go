// Package anthropic provides a model.Port implementation backed by the
// Anthropic Messages API. The cacheable context block is sent as the first
// system block with an ephemeral cache_control marker so repeated whiteboard
// content is encoded and billed once.
package anthropic

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/kaigi-ai/kaigi/core"
	"github.com/kaigi-ai/kaigi/model"
)

// Options configures the Anthropic port.
type Options struct {
	APIKey string
}

// Port adapts the Anthropic Messages API to the generic model.Port interface.
type Port struct {
	client *anthropic.Client
}

// NewPort creates a new Anthropic port constructing its own client.
func NewPort(optFns ...func(o *Options)) *Port {
	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return &Port{client: &client}
}

// NewPortFromClient creates a new Anthropic port from an existing client.
func NewPortFromClient(client *anthropic.Client) *Port {
	return &Port{client: client}
}

// Invoke implements model.Port.
func (p *Port) Invoke(ctx context.Context, prompt model.Prompt, opts model.Options) (*model.Response, error) {
	var systemBlocks []anthropic.TextBlockParam
	if prompt.CacheableContext != "" {
		systemBlocks = append(systemBlocks, anthropic.TextBlockParam{
			Text:         "## Reference document\n\n" + prompt.CacheableContext,
			CacheControl: anthropic.NewCacheControlEphemeralParam(),
		})
	}
	if prompt.System != "" {
		systemBlocks = append(systemBlocks, anthropic.TextBlockParam{Text: prompt.System})
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(opts.Model),
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt.User))},
		MaxTokens:   opts.MaxTokens,
		Temperature: anthropic.Float(opts.Temperature),
	}
	if len(systemBlocks) > 0 {
		params.System = systemBlocks
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic api error: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.AsText().Text
		}
	}

	return &model.Response{
		Text: text,
		Usage: core.TokenUsage{
			InputTokens:  int(resp.Usage.InputTokens),
			OutputTokens: int(resp.Usage.OutputTokens),
		},
	}, nil
}
