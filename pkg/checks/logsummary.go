package checks

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// DefaultSystemLogs are scanned by the keyword fallback, in this order.
var DefaultSystemLogs = []string{
	"/var/log/syslog",
	"/var/log/messages",
	"/var/log/auth.log",
	"/var/log/secure",
}

// LogKeywords are counted, case-insensitively, by the keyword fallback.
var LogKeywords = []string{"failed", "error", "denied", "unauthorized", "segfault"}

const maxLogwatchSummary = 5000

// LogSummary is the log-summary record. Exactly one of the two variants is
// set: Logwatch when logwatch produced the digest, otherwise the keyword
// tallies.
type LogSummary struct {
	Logwatch    string
	FoundFiles  []string
	EventCounts map[string]int
	FileErrors  map[string]string
}

// FromLogwatch reports whether the summary came from logwatch.
func (s *LogSummary) FromLogwatch() bool { return s.EventCounts == nil }

func (s *LogSummary) MarshalJSON() ([]byte, error) {
	if s.FromLogwatch() {
		return json.Marshal(struct {
			Summary string `json:"logwatch_summary"`
		}{s.Logwatch})
	}
	return json.Marshal(struct {
		FoundFiles  []string          `json:"found_files"`
		EventCounts map[string]int    `json:"event_counts"`
		FileErrors  map[string]string `json:"file_errors,omitempty"`
	}{s.FoundFiles, s.EventCounts, s.FileErrors})
}

// SummarizeLogs prefers a logwatch digest and falls back to counting
// keywords in the system logs.
func (e *Env) SummarizeLogs(ctx context.Context) (*LogSummary, error) {
	if e.commandExists("logwatch") {
		return e.logwatchSummary(ctx)
	}
	return e.KeywordSummary(), nil
}

func (e *Env) logwatchSummary(ctx context.Context) (*LogSummary, error) {
	res, err := e.Runner.Run(ctx, TimeoutLogwatch, "logwatch",
		"--range", "yesterday", "--detail", "low", "--service", "All", "--format", "text")
	if err != nil {
		return nil, executionFailed(err, "logwatch failed")
	}
	if res.TimedOut {
		return nil, executionFailed(nil, "logwatch failed: timed out after %s", TimeoutLogwatch)
	}
	if !res.Success {
		return nil, executionFailed(nil, "logwatch failed: %s", strings.TrimSpace(res.Stderr))
	}

	summary := strings.TrimSpace(res.Stdout)
	if utf8.RuneCountInString(summary) > maxLogwatchSummary {
		summary = string([]rune(summary)[:maxLogwatchSummary])
	}
	return &LogSummary{Logwatch: summary}, nil
}

// KeywordSummary counts keyword hits on today's and yesterday's lines of
// each system log, keyed "<basename>:<keyword>".
func (e *Env) KeywordSummary() *LogSummary {
	now := e.Now()
	stamps := []string{
		now.Format("Jan _2"),
		now.AddDate(0, 0, -1).Format("Jan _2"),
	}

	summary := &LogSummary{
		FoundFiles:  []string{},
		EventCounts: map[string]int{},
	}
	for _, path := range e.SystemLogs {
		if !e.Exists(path) {
			continue
		}
		summary.FoundFiles = append(summary.FoundFiles, path)
		if err := countKeywords(path, stamps, summary.EventCounts); err != nil {
			if summary.FileErrors == nil {
				summary.FileErrors = map[string]string{}
			}
			summary.FileErrors[path] = err.Error()
		}
	}
	return summary
}

func countKeywords(path string, stamps []string, counts map[string]int) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	base := filepath.Base(path)
	return eachLine(f, func(raw []byte) {
		line := string(raw)
		if !containsAny(line, stamps) {
			return
		}
		lower := strings.ToLower(line)
		for _, word := range LogKeywords {
			if strings.Contains(lower, word) {
				counts[base+":"+word]++
			}
		}
	})
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
