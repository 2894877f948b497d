package adk

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	antoption "github.com/anthropics/anthropic-sdk-go/option"
)

const anthropicMaxTokens = 1024

type AnthropicProvider struct {
	Model  string
	client anthropic.Client
}

// NewAnthropicProvider builds a Claude messages provider. Extra options
// such as option.WithBaseURL are applied after the API key.
func NewAnthropicProvider(apiKey, model string, opts ...antoption.RequestOption) *AnthropicProvider {
	if model == "" {
		model = "claude-sonnet-4-5"
	}
	opts = append([]antoption.RequestOption{
		antoption.WithAPIKey(apiKey),
		antoption.WithRequestTimeout(providerTimeout),
	}, opts...)
	return &AnthropicProvider{Model: model, client: anthropic.NewClient(opts...)}
}

func (p *AnthropicProvider) ListModels(ctx context.Context) ([]string, error) {
	page, err := p.client.Models.List(ctx, anthropic.ModelListParams{})
	if err != nil {
		return nil, fmt.Errorf("Anthropic API: %w", err)
	}
	models := make([]string, 0, len(page.Data))
	for _, m := range page.Data {
		models = append(models, m.ID)
	}
	return models, nil
}

// anthropicMessages maps history onto alternating user/assistant turns,
// merging consecutive turns of the same role.
func anthropicMessages(history []Message) []anthropic.MessageParam {
	type turn struct {
		assistant bool
		text      string
	}
	var turns []turn
	for _, msg := range history {
		assistant := msg.Role == "model"
		if n := len(turns); n > 0 && turns[n-1].assistant == assistant {
			turns[n-1].text += "\n\n" + msg.Content
			continue
		}
		turns = append(turns, turn{assistant: assistant, text: msg.Content})
	}

	out := make([]anthropic.MessageParam, 0, len(turns))
	for _, t := range turns {
		block := anthropic.NewTextBlock(t.text)
		if t.assistant {
			out = append(out, anthropic.NewAssistantMessage(block))
		} else {
			out = append(out, anthropic.NewUserMessage(block))
		}
	}
	return out
}

func (p *AnthropicProvider) GenerateResponse(ctx context.Context, history []Message, tools []Tool) (string, *ToolCall, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.Model),
		MaxTokens: anthropicMaxTokens,
		System:    []anthropic.TextBlockParam{{Text: GetSystemPrompt()}},
		Messages:  anthropicMessages(history),
	}
	for _, t := range tools {
		params.Tools = append(params.Tools, anthropic.ToolUnionParam{OfTool: &anthropic.ToolParam{
			Name:        t.Name(),
			Description: anthropic.String(t.Description()),
			InputSchema: anthropic.ToolInputSchemaParam{Properties: t.Schema()["properties"]},
		}})
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", nil, fmt.Errorf("Anthropic API: %w", err)
	}

	var text string
	var call *ToolCall
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			text += block.Text
		case "tool_use":
			if call != nil {
				continue
			}
			args := map[string]interface{}{}
			if len(block.Input) > 0 {
				if err := json.Unmarshal(block.Input, &args); err != nil {
					return "", nil, fmt.Errorf("decoding arguments for %s: %w", block.Name, err)
				}
			}
			call = &ToolCall{ToolName: block.Name, Args: args}
		}
	}
	if call == nil && text == "" {
		return "", nil, fmt.Errorf("empty response")
	}
	return text, call, nil
}
