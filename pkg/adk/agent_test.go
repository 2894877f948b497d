package adk

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	antoption "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/generative-ai-go/genai"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type scriptedProvider struct {
	calls   []*ToolCall
	seen    [][]Message
	toolSet []string
}

func (s *scriptedProvider) GenerateResponse(_ context.Context, history []Message, tools []Tool) (string, *ToolCall, error) {
	s.seen = append(s.seen, append([]Message(nil), history...))
	s.toolSet = s.toolSet[:0]
	for _, t := range tools {
		s.toolSet = append(s.toolSet, t.Name())
	}
	if len(s.calls) > 0 {
		c := s.calls[0]
		s.calls = s.calls[1:]
		return "", c, nil
	}
	return "done", nil, nil
}

func (s *scriptedProvider) ListModels(context.Context) ([]string, error) { return nil, nil }

type echoTool struct{ name string }

func (e echoTool) Name() string                   { return e.name }
func (e echoTool) Description() string            { return "echo" }
func (e echoTool) Schema() map[string]interface{} { return map[string]interface{}{"type": "object"} }
func (e echoTool) Execute(_ context.Context, args map[string]interface{}, progress func(string)) (string, error) {
	if progress != nil {
		progress("running " + e.name)
	}
	return `{"ok":true}`, nil
}

func TestAgentChatRunsTools(t *testing.T) {
	llm := &scriptedProvider{calls: []*ToolCall{
		{ToolName: "open_ports", Args: map[string]interface{}{"target": "127.0.0.1"}},
		{ToolName: "missing"},
	}}
	agent := NewAgent(llm)
	agent.RegisterTool(echoTool{"open_ports"})
	agent.RegisterTool(echoTool{"clamav"})

	var progress []string
	reply, err := agent.Chat(context.Background(), "scan me", func(s string) { progress = append(progress, s) })
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if reply != "done" {
		t.Errorf("reply = %q", reply)
	}
	if strings.Join(llm.toolSet, ",") != "clamav,open_ports" {
		t.Errorf("tools = %v, want sorted", llm.toolSet)
	}
	if len(progress) != 1 {
		t.Errorf("progress = %v", progress)
	}

	history := agent.History()
	var sawResult, sawMissing bool
	for _, m := range history {
		if m.Role == "function" && strings.Contains(m.Content, `Tool open_ports returned: {"ok":true}`) {
			sawResult = true
		}
		if m.Role == "function" && strings.Contains(m.Content, "Tool missing not found") {
			sawMissing = true
		}
	}
	if !sawResult || !sawMissing {
		t.Errorf("history = %+v", history)
	}
}

func TestAgentChatBoundsToolLoop(t *testing.T) {
	llm := &scriptedProvider{}
	for i := 0; i < maxToolSteps+1; i++ {
		llm.calls = append(llm.calls, &ToolCall{ToolName: "clamav"})
	}
	agent := NewAgent(llm)
	agent.RegisterTool(echoTool{"clamav"})

	if _, err := agent.Chat(context.Background(), "loop", nil); err == nil {
		t.Error("Chat() did not stop a runaway tool loop")
	}
}

func TestOpenAIGenerateResponse(t *testing.T) {
	var req struct {
		Messages []struct {
			Role string `json:"role"`
		} `json:"messages"`
		Tools []struct {
			Function struct {
				Name string `json:"name"`
			} `json:"function"`
		} `json:"tools"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" || r.Header.Get("Authorization") != "Bearer sk" {
			t.Errorf("request %s auth %q", r.URL.Path, r.Header.Get("Authorization"))
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"gpt-4o",
"choices":[{"index":0,"finish_reason":"tool_calls","message":{"role":"assistant","content":null,
"tool_calls":[{"id":"call_1","type":"function","function":{"name":"vuln_feeds","arguments":"{\"keyword\":\"openssl\"}"}}]}}]}`))
	}))
	defer server.Close()

	p := NewOpenAIProvider("sk", "", option.WithBaseURL(server.URL), option.WithMaxRetries(0))

	_, call, err := p.GenerateResponse(context.Background(), []Message{{Role: "user", Content: "cves?"}}, []Tool{echoTool{"vuln_feeds"}})
	if err != nil {
		t.Fatalf("GenerateResponse() error = %v", err)
	}
	if call == nil || call.ToolName != "vuln_feeds" || call.Args["keyword"] != "openssl" {
		t.Errorf("call = %+v", call)
	}
	if len(req.Messages) != 2 || req.Messages[0].Role != "system" || len(req.Tools) != 1 || req.Tools[0].Function.Name != "vuln_feeds" {
		t.Errorf("request = %+v", req)
	}
}

func TestAnthropicGenerateResponse(t *testing.T) {
	var req struct {
		System []struct {
			Text string `json:"text"`
		} `json:"system"`
		Messages []struct {
			Role string `json:"role"`
		} `json:"messages"`
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" || r.Header.Get("X-Api-Key") != "ak" || r.Header.Get("Anthropic-Version") == "" {
			t.Errorf("request %s headers = %v", r.URL.Path, r.Header)
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","model":"claude-sonnet-4-5",
"stop_reason":"tool_use","usage":{"input_tokens":1,"output_tokens":1},
"content":[{"type":"text","text":"Checking."},{"type":"tool_use","id":"toolu_1","name":"ssh_logins","input":{"days":2}}]}`))
	}))
	defer server.Close()

	p := NewAnthropicProvider("ak", "", antoption.WithBaseURL(server.URL), antoption.WithMaxRetries(0))

	history := []Message{
		{Role: "user", Content: "who is attacking ssh?"},
		{Role: "model", Content: "I will call tool ssh_logins"},
		{Role: "function", Content: "Tool ssh_logins returned: {}"},
		{Role: "user", Content: "and now?"},
	}
	text, call, err := p.GenerateResponse(context.Background(), history, []Tool{echoTool{"ssh_logins"}})
	if err != nil {
		t.Fatalf("GenerateResponse() error = %v", err)
	}
	if text != "Checking." || call == nil || call.ToolName != "ssh_logins" || call.Args["days"] != float64(2) {
		t.Errorf("text = %q call = %+v", text, call)
	}
	if len(req.Messages) != 3 || req.Messages[2].Role != "user" || len(req.System) != 1 || req.System[0].Text == "" {
		t.Errorf("request = %+v", req)
	}
	if len(req.Tools) != 1 || req.Tools[0].Name != "ssh_logins" {
		t.Errorf("tools = %+v", req.Tools)
	}
}

func TestProviderHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	p := NewOpenAIProvider("sk", "gpt-4o", option.WithBaseURL(server.URL), option.WithMaxRetries(0))
	_, err := p.ListModels(context.Background())
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("ListModels() error = %v, want a 401 API error", err)
	}
}

func TestGeminiSchema(t *testing.T) {
	s := geminiSchema(map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"days":    map[string]interface{}{"type": "integer", "description": "window"},
			"keyword": map[string]interface{}{"type": "string"},
		},
		"required": []string{"keyword"},
	})
	if s.Type != genai.TypeObject || len(s.Properties) != 2 {
		t.Fatalf("schema = %+v", s)
	}
	if s.Properties["days"].Type != genai.TypeInteger || s.Properties["days"].Description != "window" {
		t.Errorf("days = %+v", s.Properties["days"])
	}
	if len(s.Required) != 1 || s.Required[0] != "keyword" {
		t.Errorf("required = %v", s.Required)
	}
}

func TestNewProviderRequiresKey(t *testing.T) {
	if _, err := NewProvider(context.Background(), "openai", "", ""); err == nil {
		t.Error("NewProvider() accepted empty key")
	}
	if _, err := NewProvider(context.Background(), "mystery", "k", ""); err == nil {
		t.Error("NewProvider() accepted unknown provider")
	}
}

func TestSystemPromptEmbedded(t *testing.T) {
	if !strings.Contains(GetSystemPrompt(), "ssh_logins") {
		t.Error("system prompt missing tool list")
	}
}
