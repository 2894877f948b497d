package checks

import (
	"context"
	"strings"

	"github.com/user/mssp-agent/pkg/logging"
)

// PackageManagers lists the supported package managers in probe order.
var PackageManagers = ordered("apt", "dnf", "yum")

// dnf and yum exit with this code when updates are available.
const checkUpdateAvailable = 100

// PatchStatus is the pending-updates record.
type PatchStatus struct {
	PackageManager string   `json:"package_manager"`
	Updates        []string `json:"updates"`
	Count          int      `json:"count"`
}

// DetectPackageManager returns the first supported package manager on
// PATH.
func (e *Env) DetectPackageManager() (string, bool) {
	c, ok := Resolve(PackageManagers, e.commandExists)
	return c.Name, ok
}

// CheckPatchStatus lists pending package updates with whichever package
// manager the host has.
func (e *Env) CheckPatchStatus(ctx context.Context) (*PatchStatus, error) {
	pm, ok := e.DetectPackageManager()
	if !ok {
		return nil, dependencyMissing("Unsupported package manager or OS")
	}
	logging.Check("patch_status").Str("package_manager", pm).Msg("detected package manager")

	switch pm {
	case "apt":
		// Refresh the package index; failures here surface in the listing.
		if _, err := e.Runner.Run(ctx, TimeoutUntimed, "apt", "update"); err != nil {
			logging.Warnf("apt update could not start: %v", err)
		}
		res, err := e.Runner.Run(ctx, TimeoutUntimed, "apt", "list", "--upgradable")
		if err != nil {
			return nil, executionFailed(err, "apt list failed")
		}
		// apt warns on stderr and can exit non-zero with a usable listing.
		if !res.Success {
			logging.Check("patch_status").Int("exit_code", res.ExitCode).Str("stderr", strings.TrimSpace(res.Stderr)).Msg("apt list exited non-zero")
		}
		updates := ParseAptUpgradable(res.Stdout)
		return &PatchStatus{PackageManager: pm, Updates: updates, Count: len(updates)}, nil

	default:
		res, err := e.Runner.Run(ctx, TimeoutUntimed, pm, "check-update")
		if err != nil {
			return nil, executionFailed(err, "%s check-update failed", pm)
		}
		if !res.Success && res.ExitCode != checkUpdateAvailable {
			return nil, executionFailed(nil, "%s check-update failed: %s", pm, strings.TrimSpace(res.Stderr))
		}
		updates := ParseCheckUpdate(res.Stdout)
		return &PatchStatus{PackageManager: pm, Updates: updates, Count: len(updates)}, nil
	}
}

// ParseAptUpgradable parses `apt list --upgradable`. The first line is the
// "Listing..." header.
func ParseAptUpgradable(out string) []string {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	updates := []string{}
	if len(lines) <= 1 {
		return updates
	}
	for _, line := range lines[1:] {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		name, _, _ := strings.Cut(line, "/")
		updates = append(updates, name)
	}
	return updates
}

// ParseCheckUpdate parses `dnf check-update` / `yum check-update` output.
func ParseCheckUpdate(out string) []string {
	updates := []string{}
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line == "" || strings.HasPrefix(line, "Last metadata expiration") || strings.HasPrefix(line, "Obsoleting") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		updates = append(updates, fields[0])
	}
	return updates
}
