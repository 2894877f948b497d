package checks

import (
	"context"
	"strings"

	"github.com/user/mssp-agent/pkg/logging"
)

// DefaultScanDir is scanned when no directory is given.
const DefaultScanDir = "/"

// clamscan exits 1 when it found infections and 2 when some files could
// not be scanned; both still produce a usable report.
const (
	clamExitInfected = 1
	clamExitErrors   = 2
)

// AVScan is the antivirus record.
type AVScan struct {
	Target        string   `json:"target"`
	InfectedCount int      `json:"infected_count"`
	InfectedFiles []string `json:"infected_files"`
}

// ScanAV runs a recursive clamscan over dir, reporting infected files only.
func (e *Env) ScanAV(ctx context.Context, dir string) (*AVScan, error) {
	if dir == "" {
		dir = DefaultScanDir
	}
	if !e.commandExists("clamscan") {
		return nil, dependencyMissing("ClamAV is not installed or clamscan not found in PATH.")
	}
	if !e.Exists(dir) {
		return nil, inputMissing("Target directory does not exist: %s", dir)
	}

	res, err := e.Runner.Run(ctx, TimeoutClamAV, "clamscan", "-r", dir, "--infected", "--no-summary")
	if err != nil {
		return nil, executionFailed(err, "clamscan failed")
	}
	if res.TimedOut {
		return nil, executionFailed(nil, "clamscan timed out after %s", TimeoutClamAV)
	}
	switch {
	case res.Success, res.ExitCode == clamExitInfected:
	case res.ExitCode == clamExitErrors:
		logging.Warnf("clamscan reported errors while scanning %s: %s", dir, strings.TrimSpace(res.Stderr))
	default:
		return nil, executionFailed(nil, "clamscan exited with status %d: %s", res.ExitCode, strings.TrimSpace(res.Stderr))
	}

	files := ParseClamscan(res.Stdout)
	return &AVScan{Target: dir, InfectedCount: len(files), InfectedFiles: files}, nil
}

// ParseClamscan returns the paths of "<path>: <signature> FOUND" lines.
func ParseClamscan(out string) []string {
	files := []string{}
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if !strings.Contains(line, ": ") || !strings.Contains(line, "FOUND") {
			continue
		}
		i := strings.LastIndex(line, ":")
		files = append(files, strings.TrimSpace(line[:i]))
	}
	return files
}
