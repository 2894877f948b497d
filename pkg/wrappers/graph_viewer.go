package wrappers

import (
	"context"

	"github.com/user/mssp-agent/pkg/engine"
)

// FindingsTool shows the findings gathered so far in the session. It is
// offered to the LLM agent only; it is not a host check.
type FindingsTool struct {
	Graph *engine.UnifiedGraph
}

func (g *FindingsTool) Name() string {
	return "show_findings"
}

func (g *FindingsTool) Description() string {
	return "Displays every finding collected by earlier checks in this session, ranked by severity, including SSH exposure escalations."
}

func (g *FindingsTool) Schema() map[string]interface{} {
	return objectSchema(map[string]interface{}{})
}

func (g *FindingsTool) Execute(ctx context.Context, args map[string]interface{}, progress func(string)) (string, error) {
	if g.Graph == nil {
		return "Error: findings graph not initialized.", nil
	}
	if len(g.Graph.Sorted()) == 0 {
		return "No findings yet. Run some checks first.", nil
	}
	return g.Graph.GetReport(), nil
}
