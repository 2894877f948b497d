package engine

import (
	"errors"
	"strings"
	"testing"

	"github.com/user/mssp-agent/pkg/checks"
)

func TestUnifiedGraphEscalatesExposedSSH(t *testing.T) {
	graph := NewUnifiedGraph()

	graph.AddFindings(FromRecord(checks.NewRecord("open_ports", &checks.PortScan{OpenPorts: []checks.OpenPort{
		{Port: "22", Protocol: "tcp", Service: "ssh"},
		{Port: "80", Protocol: "tcp", Service: "http"},
	}}, nil)))

	graph.AddFindings(FromRecord(checks.NewRecord("ssh_logins", &checks.SSHFailures{FailedLogins: []checks.FailedLogin{
		{IP: "203.0.113.7", Attempts: 3, Usernames: []string{"root"}},
	}}, nil)))

	var ssh *Finding
	for i := range graph.Findings {
		if graph.Findings[i].Asset == "22/tcp" {
			ssh = &graph.Findings[i]
		}
	}
	if ssh == nil {
		t.Fatal("SSH port finding missing")
	}
	if ssh.Severity != 10 {
		t.Errorf("SSH severity = %d, want 10 (8 escalated by 2)", ssh.Severity)
	}
	if !strings.Contains(ssh.RemediationHint, "brute force") {
		t.Errorf("RemediationHint = %q, want escalation note", ssh.RemediationHint)
	}

	// Re-adding the same findings must neither duplicate nor re-escalate.
	graph.AddFindings(FromRecord(checks.NewRecord("ssh_logins", &checks.SSHFailures{FailedLogins: []checks.FailedLogin{
		{IP: "203.0.113.7", Attempts: 3, Usernames: []string{"root"}},
	}}, nil)))
	if len(graph.Findings) != 3 {
		t.Errorf("len(Findings) = %d, want 3", len(graph.Findings))
	}
	if n := strings.Count(graph.GetReport(), "brute force]"); n != 1 {
		t.Errorf("escalation note appears %d times, want 1", n)
	}
}

func TestUnifiedGraphClampsAndSorts(t *testing.T) {
	graph := NewUnifiedGraph()
	graph.AddFindings([]Finding{
		{SourceTool: "a", Category: "x", Asset: "1", Evidence: "low", Severity: -3},
		{SourceTool: "a", Category: "x", Asset: "2", Evidence: "high", Severity: 42},
	})

	sorted := graph.Sorted()
	if sorted[0].Severity != 10 || sorted[1].Severity != 1 {
		t.Errorf("severities = %d, %d; want 10, 1", sorted[0].Severity, sorted[1].Severity)
	}
}

func TestFromRecord(t *testing.T) {
	idx := "70"
	tests := []struct {
		name string
		rec  checks.Record
		want int
	}{
		{"error record", checks.NewRecord("clamav", nil, errors.New("clamscan missing")), 1},
		{"no updates", checks.NewRecord("patch_status", &checks.PatchStatus{PackageManager: "apt", Updates: []string{}}, nil), 0},
		{"infected", checks.NewRecord("clamav", &checks.AVScan{InfectedCount: 2, InfectedFiles: []string{"/a", "/b"}}, nil), 2},
		{"lynis", checks.NewRecord("lynis_audit", &checks.HardeningReport{Warnings: []string{"w"}, Suggestions: []string{"s1", "s2"}, HardeningIndex: &idx}, nil), 3},
		{"cves", checks.NewRecord("vuln_feeds", &checks.CVEFeed{CVEs: []checks.CVE{{ID: "CVE-1", Severity: "HIGH (7.5)"}}}, nil), 1},
		{"logwatch", checks.NewRecord("log_summary", &checks.LogSummary{Logwatch: "digest"}, nil), 0},
		{"keywords", checks.NewRecord("log_summary", &checks.LogSummary{EventCounts: map[string]int{"syslog:error": 4}}, nil), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromRecord(tt.rec); len(got) != tt.want {
				t.Errorf("len(FromRecord()) = %d, want %d: %+v", len(got), tt.want, got)
			}
		})
	}
}

func TestCVSSToSeverity(t *testing.T) {
	tests := map[string]int{
		"CRITICAL (9.8)": 10,
		"HIGH (7.5)":     8,
		"MEDIUM (5.0)":   5,
		"LOW (2.1)":      3,
		"unknown":        4,
	}
	for in, want := range tests {
		if got := cvssToSeverity(in); got != want {
			t.Errorf("cvssToSeverity(%q) = %d, want %d", in, got, want)
		}
	}
}
