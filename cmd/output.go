package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/user/mssp-agent/pkg/checks"
)

// writeJSON prints v indented, the form the collector and cron pipe expect.
func writeJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// printRecordError prints a failed record's message to stderr.
func printRecordError(w io.Writer, rec checks.Record) {
	fmt.Fprintln(w, colorError("Error:"), rec.Err.Error())
}

// printSummary renders a successful record for humans.
func printSummary(w io.Writer, rec checks.Record, args map[string]interface{}) {
	switch data := rec.Data.(type) {
	case *checks.PortScan:
		fmt.Fprintf(w, "%s\n", colorHeader(fmt.Sprintf("Open ports on %v:", argOr(args, "target", checks.DefaultScanTarget))))
		for _, p := range data.OpenPorts {
			fmt.Fprintf(w, " - %s/%s: %s\n", p.Port, p.Protocol, p.Service)
		}

	case *checks.PatchStatus:
		fmt.Fprintf(w, "Package Manager: %s\n", colorInfo(data.PackageManager))
		fmt.Fprintln(w, colorHeader(fmt.Sprintf("Available Updates (%d):", data.Count)))
		for _, pkg := range data.Updates {
			fmt.Fprintf(w, " - %s\n", pkg)
		}

	case *checks.SSHFailures:
		fmt.Fprintln(w, colorHeader(fmt.Sprintf("SSH Failed Login Summary (last %v day(s)):", argOr(args, "days", 1))))
		for _, e := range data.FailedLogins {
			fmt.Fprintf(w, " - IP: %s, Attempts: %d, Usernames: %s\n", e.IP, e.Attempts, strings.Join(e.Usernames, ", "))
		}

	case *checks.AVScan:
		fmt.Fprintln(w, colorHeader(fmt.Sprintf("ClamAV Scan Summary for %s:", data.Target)))
		count := fmt.Sprintf("%d", data.InfectedCount)
		if data.InfectedCount > 0 {
			count = colorError(count)
		} else {
			count = colorSuccess(count)
		}
		fmt.Fprintf(w, " - Infected Files: %s\n", count)
		for _, f := range data.InfectedFiles {
			fmt.Fprintf(w, "   %s %s\n", colorWarn("!"), f)
		}

	case *checks.LogSummary:
		if data.FromLogwatch() {
			fmt.Fprintln(w, colorHeader("Logwatch Summary:"))
			fmt.Fprintln(w, data.Logwatch)
			return
		}
		fmt.Fprintln(w, colorHeader("Custom Log Summary:"))
		fmt.Fprintf(w, "Files Found: %s\n", strings.Join(data.FoundFiles, ", "))
		fmt.Fprintln(w, "Event Counts:")
		for _, k := range sortedKeys(data.EventCounts) {
			fmt.Fprintf(w, " - %s: %d\n", k, data.EventCounts[k])
		}
		for path, msg := range data.FileErrors {
			fmt.Fprintf(w, " %s %s: %s\n", colorWarn("unreadable"), path, msg)
		}

	case *checks.CVEFeed:
		fmt.Fprintln(w, colorHeader(fmt.Sprintf("Recent CVEs in last %v days:", argOr(args, "days", checks.DefaultCVEDays))))
		for _, c := range data.CVEs {
			fmt.Fprintf(w, "- %s (%s)\n", c.ID, c.Severity)
			fmt.Fprintf(w, "  %s...\n", truncate(c.Summary, 100))
			fmt.Fprintf(w, "  Published: %s\n\n", c.Published)
		}

	case *checks.HardeningReport:
		fmt.Fprintf(w, "Hardening Index: %s\n", deref(data.HardeningIndex))
		fmt.Fprintf(w, "Tests Performed: %s\n", deref(data.TestsPerformed))
		fmt.Fprintln(w, "\n"+colorWarn("Warnings:"))
		for _, m := range data.Warnings {
			fmt.Fprintf(w, " - %s\n", m)
		}
		fmt.Fprintln(w, "\n"+colorInfo("Suggestions:"))
		for _, m := range data.Suggestions {
			fmt.Fprintf(w, " - %s\n", m)
		}
	}
}

func argOr(args map[string]interface{}, key string, def interface{}) interface{} {
	if v, ok := args[key]; ok && v != nil && fmt.Sprint(v) != "" {
		return v
	}
	return def
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func deref(s *string) string {
	if s == nil {
		return "None"
	}
	return *s
}
