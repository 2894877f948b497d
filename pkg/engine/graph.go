package engine

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// UnifiedGraph holds the normalized findings of one audit run
type UnifiedGraph struct {
	Findings []Finding
	mu       sync.RWMutex
}

// NewUnifiedGraph creates a new graph instance
func NewUnifiedGraph() *UnifiedGraph {
	return &UnifiedGraph{
		Findings: make([]Finding, 0),
	}
}

// AddFindings ingests new findings, clamps severities, deduplicates, and
// re-evaluates correlations
func (g *UnifiedGraph) AddFindings(newFindings []Finding) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, f := range newFindings {
		if f.Severity < 1 {
			f.Severity = 1
		}
		if f.Severity > 10 {
			f.Severity = 10
		}

		// Same asset + category + tool + evidence is the same finding;
		// keep the latest copy.
		exists := false
		for i, existing := range g.Findings {
			if existing.Asset == f.Asset && existing.Category == f.Category && existing.SourceTool == f.SourceTool && existing.Evidence == f.Evidence {
				g.Findings[i] = f
				exists = true
				break
			}
		}

		if !exists {
			g.Findings = append(g.Findings, f)
		}
	}

	g.detectRelationships()
}

const escalationNote = " [CRITICAL: SSH is exposed and under password brute force]"

// detectRelationships escalates an open SSH port when the auth log shows
// failed password attempts.
func (g *UnifiedGraph) detectRelationships() {
	sshIndex := -1
	for i, f := range g.Findings {
		if f.Category == "network" && strings.HasPrefix(f.Asset, "22/") {
			sshIndex = i
			break
		}
	}
	if sshIndex < 0 {
		return
	}

	bruteForce := false
	for _, f := range g.Findings {
		if f.Category == "auth" && strings.HasPrefix(f.ID, "ssh-fail-") {
			bruteForce = true
			break
		}
	}
	if !bruteForce {
		return
	}

	ssh := &g.Findings[sshIndex]
	if strings.HasSuffix(ssh.RemediationHint, escalationNote) {
		return
	}
	ssh.Severity += 2
	if ssh.Severity > 10 {
		ssh.Severity = 10
	}
	ssh.RemediationHint += escalationNote
}

// Sorted returns a copy of the findings, highest severity first
func (g *UnifiedGraph) Sorted() []Finding {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := append([]Finding(nil), g.Findings...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Severity > out[j].Severity
	})
	return out
}

// GetReport returns a text summary of the graph
func (g *UnifiedGraph) GetReport() string {
	findings := g.Sorted()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Unified Finding Graph (%d findings):\n", len(findings)))
	sb.WriteString("--------------------------------------------------\n")

	for _, f := range findings {
		sb.WriteString(fmt.Sprintf("[%d/10] %s (%s)\n", f.Severity, f.Category, f.SourceTool))
		sb.WriteString(fmt.Sprintf("  Asset: %s\n", f.Asset))
		sb.WriteString(fmt.Sprintf("  Evidence: %s\n", f.Evidence))
		if f.RemediationHint != "" {
			sb.WriteString(fmt.Sprintf("  Fix: %s\n", f.RemediationHint))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
