package wrappers

import (
	"fmt"
	"sort"
	"strings"

	"github.com/user/mssp-agent/pkg/checks"
	"github.com/user/mssp-agent/pkg/engine"
)

// Registry holds the check tools by name.
type Registry struct {
	tools []Tool
	byKey map[string]Tool
}

// aliases map CLI subcommand names onto reporting names.
var aliases = map[string]string{
	"ports":   "open_ports",
	"patches": "patch_status",
	"ssh":     "ssh_logins",
	"logs":    "log_summary",
	"cves":    "vuln_feeds",
	"lynis":   "lynis_audit",
}

// NewRegistry builds every check tool over env. graph may be nil.
func NewRegistry(env *checks.Env, graph *engine.UnifiedGraph) *Registry {
	b := base{Env: env, Graph: graph}
	tools := []Tool{
		&PortScanTool{b},
		&PatchTool{b},
		&SSHTool{b},
		&AVTool{b},
		&LogSummaryTool{b},
		&CVETool{b},
		&LynisTool{b},
	}

	r := &Registry{tools: tools, byKey: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		r.byKey[t.Name()] = t
	}
	return r
}

// All returns the tools in registration order.
func (r *Registry) All() []Tool {
	return append([]Tool(nil), r.tools...)
}

// Lookup finds a tool by reporting name or CLI alias.
func (r *Registry) Lookup(name string) (Tool, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := aliases[key]; ok {
		key = alias
	}
	if t, ok := r.byKey[key]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("unknown check %q (available: %s)", name, strings.Join(r.Names(), ", "))
}

// Names returns the sorted reporting names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byKey))
	for n := range r.byKey {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
