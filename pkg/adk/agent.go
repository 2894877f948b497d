package adk

import (
	"context"
	"fmt"
	"sort"

	"github.com/user/mssp-agent/pkg/logging"
)

// maxToolSteps bounds consecutive tool calls within one Chat turn.
const maxToolSteps = 8

// Tool represents an executable action for the agent
type Tool interface {
	Name() string
	Description() string
	Execute(ctx context.Context, args map[string]interface{}, progress func(string)) (string, error)
	Schema() map[string]interface{} // JSON schema for arguments
}

// ToolCall represents a request from the LLM to execute a tool
type ToolCall struct {
	ToolName string
	Args     map[string]interface{}
}

// Message represents a chat message
type Message struct {
	Role    string // "user", "model", "function"
	Content string
}

// LLMProvider defines the interface for different AI models
type LLMProvider interface {
	GenerateResponse(ctx context.Context, history []Message, tools []Tool) (string, *ToolCall, error)
	ListModels(ctx context.Context) ([]string, error)
}

// Agent is the triage agent: it relays the operator's questions to the
// model and runs the host checks the model asks for.
type Agent struct {
	llm     LLMProvider
	tools   map[string]Tool
	history []Message
}

// NewAgent creates a new agent with the given LLM provider
func NewAgent(llm LLMProvider) *Agent {
	return &Agent{
		llm:   llm,
		tools: make(map[string]Tool),
	}
}

// RegisterTool adds a tool to the agent's registry
func (a *Agent) RegisterTool(t Tool) {
	a.tools[t.Name()] = t
}

// History returns the conversation so far.
func (a *Agent) History() []Message {
	return append([]Message(nil), a.history...)
}

func (a *Agent) toolList() []Tool {
	names := make([]string, 0, len(a.tools))
	for n := range a.tools {
		names = append(names, n)
	}
	sort.Strings(names)

	list := make([]Tool, 0, len(names))
	for _, n := range names {
		list = append(list, a.tools[n])
	}
	return list
}

// Chat sends a message to the agent and returns the response
func (a *Agent) Chat(ctx context.Context, input string, progress func(string)) (string, error) {
	a.history = append(a.history, Message{Role: "user", Content: input})
	toolList := a.toolList()

	for step := 0; ; step++ {
		if step >= maxToolSteps {
			return "", fmt.Errorf("model requested more than %d tool calls in one turn", maxToolSteps)
		}

		respText, toolCall, err := a.llm.GenerateResponse(ctx, a.history, toolList)
		if err != nil {
			return "", err
		}

		if toolCall == nil {
			a.history = append(a.history, Message{Role: "model", Content: respText})
			return respText, nil
		}

		logging.Debugf("Executing tool: %s with args: %v", toolCall.ToolName, toolCall.Args)

		a.history = append(a.history, Message{
			Role:    "model",
			Content: fmt.Sprintf("I will call tool %s with args %v", toolCall.ToolName, toolCall.Args),
		})

		tool, exists := a.tools[toolCall.ToolName]
		if !exists {
			a.history = append(a.history, Message{Role: "function", Content: fmt.Sprintf("Error: Tool %s not found", toolCall.ToolName)})
			continue
		}

		result, err := tool.Execute(ctx, toolCall.Args, progress)
		if err != nil {
			result = fmt.Sprintf("Error executing tool: %v", err)
		}

		a.history = append(a.history, Message{
			Role:    "function",
			Content: fmt.Sprintf("Tool %s returned: %s", toolCall.ToolName, result),
		})
	}
}
