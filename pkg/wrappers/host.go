package wrappers

import (
	"context"

	"github.com/user/mssp-agent/pkg/checks"
)

// PatchTool reports pending package updates.
type PatchTool struct{ base }

func (p *PatchTool) Name() string { return "patch_status" }

func (p *PatchTool) Description() string {
	return "Lists pending package updates using the first of apt, dnf or yum found on the host."
}

func (p *PatchTool) Schema() map[string]interface{} {
	return objectSchema(map[string]interface{}{})
}

func (p *PatchTool) Collect(ctx context.Context, args map[string]interface{}) checks.Record {
	status, err := p.Env.CheckPatchStatus(ctx)
	return checks.NewRecord(p.Name(), status, err)
}

func (p *PatchTool) Execute(ctx context.Context, args map[string]interface{}, progress func(string)) (string, error) {
	return p.run(ctx, p, args, progress)
}

// SSHTool tallies failed SSH password logins per source IP.
type SSHTool struct{ base }

// DefaultSSHDays is the lookback window for the SSH check.
const DefaultSSHDays = 1

func (s *SSHTool) Name() string { return "ssh_logins" }

func (s *SSHTool) Description() string {
	return "Parses the SSH auth log for failed password attempts in the last N days, grouped by source IP."
}

func (s *SSHTool) Schema() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"days":     intProp("Lookback window in days. Defaults to 1."),
		"log_path": stringProp("Auth log to parse. Defaults to /var/log/auth.log or /var/log/secure."),
	})
}

func (s *SSHTool) Collect(ctx context.Context, args map[string]interface{}) checks.Record {
	path := stringArg(args, "log_path", "")
	if path == "" {
		var err error
		if path, err = s.Env.FindAuthLog(); err != nil {
			return checks.NewRecord(s.Name(), nil, err)
		}
	}
	failures, err := s.Env.ParseSSHFailures(path, intArg(args, "days", DefaultSSHDays))
	return checks.NewRecord(s.Name(), failures, err)
}

func (s *SSHTool) Execute(ctx context.Context, args map[string]interface{}, progress func(string)) (string, error) {
	return s.run(ctx, s, args, progress)
}

// AVTool runs a recursive ClamAV scan.
type AVTool struct{ base }

func (a *AVTool) Name() string { return "clamav" }

func (a *AVTool) Description() string {
	return "Runs clamscan recursively over a directory and returns the infected files."
}

func (a *AVTool) Schema() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"dir": stringProp("Directory to scan. Defaults to /."),
	})
}

func (a *AVTool) Collect(ctx context.Context, args map[string]interface{}) checks.Record {
	scan, err := a.Env.ScanAV(ctx, stringArg(args, "dir", checks.DefaultScanDir))
	return checks.NewRecord(a.Name(), scan, err)
}

func (a *AVTool) Execute(ctx context.Context, args map[string]interface{}, progress func(string)) (string, error) {
	return a.run(ctx, a, args, progress)
}

// LogSummaryTool summarizes yesterday's system logs.
type LogSummaryTool struct{ base }

func (l *LogSummaryTool) Name() string { return "log_summary" }

func (l *LogSummaryTool) Description() string {
	return "Summarizes recent system logs with logwatch, or counts error keywords per log file when logwatch is absent."
}

func (l *LogSummaryTool) Schema() map[string]interface{} {
	return objectSchema(map[string]interface{}{})
}

func (l *LogSummaryTool) Collect(ctx context.Context, args map[string]interface{}) checks.Record {
	summary, err := l.Env.SummarizeLogs(ctx)
	return checks.NewRecord(l.Name(), summary, err)
}

func (l *LogSummaryTool) Execute(ctx context.Context, args map[string]interface{}, progress func(string)) (string, error) {
	return l.run(ctx, l, args, progress)
}

// CVETool fetches recently published CVEs from the NVD.
type CVETool struct{ base }

func (c *CVETool) Name() string { return "vuln_feeds" }

func (c *CVETool) Description() string {
	return "Fetches CVEs published in the last N days from the NVD, optionally filtered by keyword."
}

func (c *CVETool) Schema() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"days":    intProp("Lookback window in days. Defaults to 3."),
		"keyword": stringProp("Keyword filter, e.g. a product name."),
		"limit":   intProp("Maximum number of CVEs. Defaults to 25."),
	})
}

func (c *CVETool) Collect(ctx context.Context, args map[string]interface{}) checks.Record {
	feed, err := c.Env.FetchRecentCVEs(ctx, checks.CVEQuery{
		Days:    intArg(args, "days", checks.DefaultCVEDays),
		Keyword: stringArg(args, "keyword", ""),
		Limit:   intArg(args, "limit", checks.DefaultCVELimit),
	})
	return checks.NewRecord(c.Name(), feed, err)
}

func (c *CVETool) Execute(ctx context.Context, args map[string]interface{}, progress func(string)) (string, error) {
	return c.run(ctx, c, args, progress)
}
