package adk

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

const providerTimeout = 60 * time.Second

type OpenAIProvider struct {
	Model  string
	client openai.Client
}

// NewOpenAIProvider builds an OpenAI chat provider. Extra options such as
// option.WithBaseURL are applied after the API key.
func NewOpenAIProvider(apiKey, model string, opts ...option.RequestOption) *OpenAIProvider {
	if model == "" {
		model = "gpt-4o"
	}
	opts = append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithRequestTimeout(providerTimeout),
	}, opts...)
	return &OpenAIProvider{Model: model, client: openai.NewClient(opts...)}
}

func (p *OpenAIProvider) ListModels(ctx context.Context) ([]string, error) {
	page, err := p.client.Models.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API: %w", err)
	}

	var models []string
	for _, m := range page.Data {
		if strings.HasPrefix(m.ID, "gpt-") || strings.HasPrefix(m.ID, "o") {
			models = append(models, m.ID)
		}
	}
	return models, nil
}

func openAIMessages(history []Message) []openai.ChatCompletionMessageParamUnion {
	msgs := []openai.ChatCompletionMessageParamUnion{openai.SystemMessage(GetSystemPrompt())}
	for _, msg := range history {
		if msg.Role == "model" {
			msgs = append(msgs, openai.AssistantMessage(msg.Content))
			continue
		}
		msgs = append(msgs, openai.UserMessage(msg.Content))
	}
	return msgs
}

// GenerateResponse runs one chat completion with the tools declared as
// functions.
func (p *OpenAIProvider) GenerateResponse(ctx context.Context, history []Message, tools []Tool) (string, *ToolCall, error) {
	params := openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(p.Model),
		Messages:    openAIMessages(history),
		Temperature: openai.Float(0),
	}
	for _, t := range tools {
		params.Tools = append(params.Tools, openai.ChatCompletionToolParam{
			Function: shared.FunctionDefinitionParam{
				Name:        t.Name(),
				Description: openai.String(t.Description()),
				Parameters:  shared.FunctionParameters(t.Schema()),
			},
		})
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", nil, fmt.Errorf("OpenAI API: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil, fmt.Errorf("no response choices")
	}

	msg := resp.Choices[0].Message
	if len(msg.ToolCalls) > 0 {
		fn := msg.ToolCalls[0].Function
		args := map[string]interface{}{}
		if fn.Arguments != "" {
			if err := json.Unmarshal([]byte(fn.Arguments), &args); err != nil {
				return "", nil, fmt.Errorf("decoding arguments for %s: %w", fn.Name, err)
			}
		}
		return msg.Content, &ToolCall{ToolName: fn.Name, Args: args}, nil
	}
	return msg.Content, nil, nil
}
