package adk

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

type GeminiProvider struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewGeminiProvider(ctx context.Context, apiKey string, modelName string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(GetSystemPrompt())}}

	return &GeminiProvider{client: client, model: model}, nil
}

func (g *GeminiProvider) ListModels(ctx context.Context) ([]string, error) {
	iter := g.client.ListModels(ctx)
	var names []string
	for {
		m, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		// m.Name is like "models/gemini-pro"
		if strings.Contains(m.Name, "gemini") {
			names = append(names, strings.TrimPrefix(m.Name, "models/"))
		}
	}
	return names, nil
}

// geminiSchema converts a tool's JSON schema into the genai form. Only the
// types the check tools use are mapped.
func geminiSchema(s map[string]interface{}) *genai.Schema {
	out := &genai.Schema{Type: genai.TypeObject}
	if desc, ok := s["description"].(string); ok {
		out.Description = desc
	}
	switch s["type"] {
	case "string":
		out.Type = genai.TypeString
	case "integer":
		out.Type = genai.TypeInteger
	case "number":
		out.Type = genai.TypeNumber
	case "boolean":
		out.Type = genai.TypeBoolean
	}

	props, _ := s["properties"].(map[string]interface{})
	if len(props) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(props))
		for name, raw := range props {
			if p, ok := raw.(map[string]interface{}); ok {
				out.Properties[name] = geminiSchema(p)
			}
		}
	}
	if req, ok := s["required"].([]string); ok {
		out.Required = append([]string(nil), req...)
		sort.Strings(out.Required)
	}
	return out
}

func geminiContents(history []Message) []*genai.Content {
	var cs []*genai.Content
	for _, msg := range history {
		// Function output goes back as a user turn so the model sees it.
		role := "user"
		if msg.Role == "model" {
			role = "model"
		}
		cs = append(cs, &genai.Content{
			Parts: []genai.Part{genai.Text(msg.Content)},
			Role:  role,
		})
	}
	return cs
}

func (g *GeminiProvider) GenerateResponse(ctx context.Context, history []Message, tools []Tool) (string, *ToolCall, error) {
	var toolDefs []*genai.FunctionDeclaration
	for _, t := range tools {
		decl := &genai.FunctionDeclaration{
			Name:        t.Name(),
			Description: t.Description(),
		}
		// Gemini rejects object schemas without properties.
		if schema := geminiSchema(t.Schema()); len(schema.Properties) > 0 {
			decl.Parameters = schema
		}
		toolDefs = append(toolDefs, decl)
	}
	if len(toolDefs) > 0 {
		g.model.Tools = []*genai.Tool{{FunctionDeclarations: toolDefs}}
	}

	cs := geminiContents(history)
	if len(cs) == 0 {
		return "", nil, fmt.Errorf("empty history")
	}

	session := g.model.StartChat()
	session.History = cs[:len(cs)-1]

	resp, err := session.SendMessage(ctx, cs[len(cs)-1].Parts...)
	if err != nil {
		return "", nil, err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", nil, fmt.Errorf("no response candidates")
	}

	var responseText string
	var toolCall *ToolCall
	for _, part := range resp.Candidates[0].Content.Parts {
		switch p := part.(type) {
		case genai.FunctionCall:
			toolCall = &ToolCall{ToolName: p.Name, Args: p.Args}
		case genai.Text:
			responseText += string(p)
		}
	}

	if toolCall == nil && responseText == "" {
		return "", nil, fmt.Errorf("empty response")
	}
	return responseText, toolCall, nil
}

func (g *GeminiProvider) Close() {
	g.client.Close()
}
