package checks

import (
	"context"
	"os"
	"strings"

	"github.com/user/mssp-agent/pkg/logging"
)

// DefaultLynisReport is where lynis writes its report by default.
const DefaultLynisReport = "/var/log/lynis-report.dat"

// HardeningReport is the hardening-audit record.
type HardeningReport struct {
	Warnings       []string `json:"warnings"`
	Suggestions    []string `json:"suggestions"`
	HardeningIndex *string  `json:"hardening_index"`
	TestsPerformed *string  `json:"tests_performed"`
}

// RunLynis runs a quiet system audit and parses the resulting report file.
func (e *Env) RunLynis(ctx context.Context) (*HardeningReport, error) {
	if !e.commandExists("lynis") {
		return nil, dependencyMissing("Lynis is not installed or not in PATH.")
	}

	res, err := e.Runner.Run(ctx, TimeoutUntimed, "lynis", "audit", "system",
		"--quiet", "--no-colors", "--report-file", e.LynisReport)
	if err != nil {
		return nil, executionFailed(err, "lynis failed to start")
	}
	// A leftover report from an earlier run must not pass for this one.
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, executionFailed(ctxErr, "lynis interrupted")
	}
	if res.ExitCode < 0 {
		return nil, executionFailed(nil, "lynis terminated abnormally: %s", strings.TrimSpace(res.Stderr))
	}
	// A non-zero exit is normal when lynis has warnings.
	if !res.Success {
		logging.Check("lynis_audit").Int("exit_code", res.ExitCode).Msg("lynis finished with non-zero status")
	}

	if !e.Exists(e.LynisReport) {
		return nil, inputMissing("Lynis report not found at %s", e.LynisReport)
	}
	return ParseLynisReport(e.LynisReport)
}

// ParseLynisReport reads a lynis-report.dat key=value file.
func ParseLynisReport(path string) (*HardeningReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, parseFailed(err, "Failed to parse report")
	}
	defer f.Close()

	report := &HardeningReport{Warnings: []string{}, Suggestions: []string{}}

	err = eachLine(f, func(raw []byte) {
		line := strings.TrimSpace(string(raw))
		switch {
		case strings.HasPrefix(line, "warning[]="):
			report.Warnings = append(report.Warnings, strings.TrimPrefix(line, "warning[]="))
		case strings.HasPrefix(line, "suggestion[]="):
			report.Suggestions = append(report.Suggestions, strings.TrimPrefix(line, "suggestion[]="))
		case strings.HasPrefix(line, "hardening_index="):
			report.HardeningIndex = scalarField(line)
		case strings.HasPrefix(line, "tests_performed="):
			report.TestsPerformed = scalarField(line)
		}
	})
	if err != nil {
		return nil, parseFailed(err, "Failed to parse report")
	}
	return report, nil
}

// scalarField returns the value between the first and second '='.
func scalarField(line string) *string {
	v := strings.Split(line, "=")[1]
	return &v
}
