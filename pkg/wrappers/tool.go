package wrappers

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/user/mssp-agent/pkg/checks"
	"github.com/user/mssp-agent/pkg/engine"
	"github.com/user/mssp-agent/pkg/logging"
)

// Tool is a host check exposed to the reporter, the audit command, the
// LLM agent and the MCP server.
type Tool interface {
	Name() string
	Description() string
	Schema() map[string]interface{}
	Collect(ctx context.Context, args map[string]interface{}) checks.Record
	Execute(ctx context.Context, args map[string]interface{}, progress func(string)) (string, error)
}

// base carries what every check tool shares.
type base struct {
	Env   *checks.Env
	Graph *engine.UnifiedGraph
}

// run collects the record, feeds the graph and renders the record as JSON.
func (b base) run(ctx context.Context, t Tool, args map[string]interface{}, progress func(string)) (string, error) {
	if progress != nil {
		progress(fmt.Sprintf("Running %s...", t.Name()))
	}

	rec := t.Collect(ctx, args)
	if rec.Failed() {
		logging.Check(t.Name()).Str("kind", string(rec.Kind())).Err(rec.Err).Msg("check failed")
	}

	if b.Graph != nil {
		findings := engine.FromRecord(rec)
		b.Graph.AddFindings(findings)
		logging.Debugf("[UnifiedGraph] Added %d findings from %s", len(findings), t.Name())
	}

	out, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding %s record: %w", t.Name(), err)
	}
	return string(out), nil
}

// stringArg reads a string argument, falling back to def when absent or empty.
func stringArg(args map[string]interface{}, key, def string) string {
	v, ok := args[key]
	if !ok || v == nil {
		return def
	}
	if s := strings.TrimSpace(fmt.Sprint(v)); s != "" {
		return s
	}
	return def
}

// intArg reads an integer argument. JSON numbers arrive as float64 and
// --arg values as strings; both are accepted.
func intArg(args map[string]interface{}, key string, def int) int {
	switch v := args[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

func stringProp(desc string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": desc}
}

func intProp(desc string) map[string]interface{} {
	return map[string]interface{}{"type": "integer", "description": desc}
}

func objectSchema(props map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": props,
	}
}
