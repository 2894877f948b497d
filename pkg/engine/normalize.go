package engine

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/user/mssp-agent/pkg/checks"
)

// Severity thresholds used when normalizing check records.
const (
	bruteForceAttempts = 10
	manyUpdates        = 20
)

var highRiskPorts = map[string]bool{"22": true, "23": true, "3389": true}

// FromRecord converts a check record into findings. Failed records become
// a single low-severity finding so that a broken check is still visible.
func FromRecord(rec checks.Record) []Finding {
	if rec.Failed() {
		return []Finding{{
			ID:              "check-error-" + rec.Check,
			SourceTool:      rec.Check,
			Category:        "agent",
			Severity:        1,
			Confidence:      "High",
			Asset:           "localhost",
			Evidence:        fmt.Sprintf("check failed (%s): %v", rec.Kind(), rec.Err),
			RemediationHint: "Install the missing tool or run the agent with sufficient privileges.",
		}}
	}

	switch data := rec.Data.(type) {
	case *checks.PortScan:
		return fromPortScan(rec.Check, data)
	case *checks.SSHFailures:
		return fromSSHFailures(rec.Check, data)
	case *checks.PatchStatus:
		return fromPatchStatus(rec.Check, data)
	case *checks.AVScan:
		return fromAVScan(rec.Check, data)
	case *checks.LogSummary:
		return fromLogSummary(rec.Check, data)
	case *checks.CVEFeed:
		return fromCVEFeed(rec.Check, data)
	case *checks.HardeningReport:
		return fromHardening(rec.Check, data)
	}
	return nil
}

func fromPortScan(tool string, scan *checks.PortScan) []Finding {
	var findings []Finding
	for _, p := range scan.OpenPorts {
		severity := 5
		if highRiskPorts[p.Port] {
			severity = 8
		}
		findings = append(findings, Finding{
			ID:              fmt.Sprintf("ports-%s-%s", p.Port, p.Protocol),
			SourceTool:      tool,
			Category:        "network",
			Severity:        severity,
			Confidence:      "High",
			Asset:           p.Port + "/" + p.Protocol,
			Evidence:        fmt.Sprintf("Port %s/%s is open (Service: %s)", p.Port, p.Protocol, p.Service),
			RemediationHint: fmt.Sprintf("Verify if port %s needs to be exposed. Use firewall rules to restrict access.", p.Port),
		})
	}
	return findings
}

func fromSSHFailures(tool string, s *checks.SSHFailures) []Finding {
	var findings []Finding
	for _, f := range s.FailedLogins {
		severity := 4
		if f.Attempts >= bruteForceAttempts {
			severity = 7
		}
		findings = append(findings, Finding{
			ID:              "ssh-fail-" + f.IP,
			SourceTool:      tool,
			Category:        "auth",
			Severity:        severity,
			Confidence:      "High",
			Asset:           f.IP,
			Evidence:        fmt.Sprintf("%d failed SSH logins from %s (users: %s)", f.Attempts, f.IP, strings.Join(f.Usernames, ", ")),
			RemediationHint: "Block the source with fail2ban or a firewall rule and disable password authentication.",
		})
	}
	return findings
}

func fromPatchStatus(tool string, p *checks.PatchStatus) []Finding {
	if p.Count == 0 {
		return nil
	}
	severity := 3
	if p.Count >= manyUpdates {
		severity = 6
	}
	return []Finding{{
		ID:              "patches-" + p.PackageManager,
		SourceTool:      tool,
		Category:        "patching",
		Severity:        severity,
		Confidence:      "High",
		Asset:           "localhost",
		Evidence:        fmt.Sprintf("%d pending %s updates", p.Count, p.PackageManager),
		RemediationHint: "Apply pending updates during the next maintenance window.",
	}}
}

func fromAVScan(tool string, s *checks.AVScan) []Finding {
	var findings []Finding
	for _, path := range s.InfectedFiles {
		findings = append(findings, Finding{
			ID:              "clamav-" + shortHash(path),
			SourceTool:      tool,
			Category:        "malware",
			Severity:        10,
			Confidence:      "High",
			Asset:           path,
			Evidence:        "ClamAV detection: " + path,
			RemediationHint: "Quarantine the file and investigate how it got there.",
		})
	}
	return findings
}

func fromLogSummary(tool string, s *checks.LogSummary) []Finding {
	if s.FromLogwatch() {
		return nil
	}
	keys := make([]string, 0, len(s.EventCounts))
	for k := range s.EventCounts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var findings []Finding
	for _, k := range keys {
		findings = append(findings, Finding{
			ID:              "logs-" + k,
			SourceTool:      tool,
			Category:        "logs",
			Severity:        2,
			Confidence:      "Low",
			Asset:           k,
			Evidence:        fmt.Sprintf("%d lines matching %s", s.EventCounts[k], k),
			RemediationHint: "Review the matching log lines.",
		})
	}
	return findings
}

func fromCVEFeed(tool string, feed *checks.CVEFeed) []Finding {
	var findings []Finding
	for _, c := range feed.CVEs {
		findings = append(findings, Finding{
			ID:              c.ID,
			SourceTool:      tool,
			Category:        "vuln",
			Severity:        cvssToSeverity(c.Severity),
			Confidence:      "Medium",
			Asset:           c.ID,
			Evidence:        fmt.Sprintf("%s [%s]: %s", c.ID, c.Severity, c.Summary),
			RemediationHint: "Check whether installed packages are affected and patch.",
		})
	}
	return findings
}

func fromHardening(tool string, r *checks.HardeningReport) []Finding {
	var findings []Finding
	for _, msg := range r.Warnings {
		findings = append(findings, Finding{
			ID:              "lynis-warn-" + shortHash(msg),
			SourceTool:      tool,
			Category:        "hardening",
			Severity:        6,
			Confidence:      "High",
			Asset:           "localhost",
			Evidence:        msg,
			RemediationHint: "Check Lynis logs for specific remediation steps.",
		})
	}
	for _, msg := range r.Suggestions {
		findings = append(findings, Finding{
			ID:              "lynis-sugg-" + shortHash(msg),
			SourceTool:      tool,
			Category:        "hardening",
			Severity:        3,
			Confidence:      "Medium",
			Asset:           "localhost",
			Evidence:        msg,
			RemediationHint: "Consider implementing this suggestion for better hardening.",
		})
	}
	return findings
}

// cvssToSeverity maps "CRITICAL (9.8)" style strings onto the 1-10 scale.
func cvssToSeverity(s string) int {
	switch {
	case strings.HasPrefix(s, "CRITICAL"):
		return 10
	case strings.HasPrefix(s, "HIGH"):
		return 8
	case strings.HasPrefix(s, "MEDIUM"):
		return 5
	case strings.HasPrefix(s, "LOW"):
		return 3
	}
	return 4
}

func shortHash(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])[:8]
}
