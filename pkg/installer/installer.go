// Package installer copies the agent binary into its directory, writes the
// agent config and registers the periodic SSH report with the OS scheduler.
package installer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/user/mssp-agent/pkg/checks"
	"github.com/user/mssp-agent/pkg/config"
	"github.com/user/mssp-agent/pkg/logging"
)

const (
	DefaultCronFile = "/etc/cron.d/mssp-agent"
	TaskName        = "MSSPAgent"
	binaryName      = "mssp-agent"
)

var (
	// ErrUnsupportedOS is returned by Schedule on anything but linux and windows.
	ErrUnsupportedOS = errors.New("unsupported OS")
	// ErrNeedRoot is returned when the cron file cannot be written for lack
	// of privileges.
	ErrNeedRoot = errors.New("permission denied: run as root (sudo) to install the cron job")
)

// Options controls an installation. Zero values fall back to the defaults.
type Options struct {
	Dir        string // agent directory, default ~/mssp-agent
	APIURL     string
	Token      string
	CronFile   string
	Executable string // binary to copy, default the running executable
	GOOS       string
	Runner     checks.Runner
}

func (o *Options) withDefaults() error {
	if o.Dir == "" {
		dir, err := config.AgentDir()
		if err != nil {
			return err
		}
		o.Dir = dir
	}
	if o.APIURL == "" {
		o.APIURL = config.PlaceholderURL
	}
	if o.Token == "" {
		o.Token = config.PlaceholderToken
	}
	if o.CronFile == "" {
		o.CronFile = DefaultCronFile
	}
	if o.GOOS == "" {
		o.GOOS = runtime.GOOS
	}
	if o.Runner == nil {
		o.Runner = checks.ExecRunner{}
	}
	return nil
}

// BinaryPath is where the agent binary lives after Install.
func (o *Options) BinaryPath() string {
	name := binaryName
	if o.GOOS == "windows" {
		name += ".exe"
	}
	return filepath.Join(o.Dir, name)
}

// Install creates the agent directory, copies the executable into it and
// writes config.json.
func Install(opts Options) (*Options, error) {
	if err := opts.withDefaults(); err != nil {
		return nil, err
	}

	logging.Infof("[*] Creating agent directory at %s", opts.Dir)
	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", opts.Dir, err)
	}

	src := opts.Executable
	if src == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("locating executable: %w", err)
		}
		src = exe
	}
	if err := copyFile(src, opts.BinaryPath()); err != nil {
		return nil, err
	}
	logging.Infof("[*] Binary copied to %s", opts.BinaryPath())

	cfgPath, err := config.AgentConfigPath(opts.Dir)
	if err != nil {
		return nil, err
	}
	if err := config.SaveAgent(cfgPath, &config.AgentConfig{APIURL: opts.APIURL, Token: opts.Token}); err != nil {
		return nil, fmt.Errorf("writing %s: %w", cfgPath, err)
	}
	logging.Infof("[*] config.json written.")

	return &opts, nil
}

func copyFile(src, dst string) error {
	if same(src, dst) {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0755)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying to %s: %w", dst, err)
	}
	return out.Close()
}

func same(a, b string) bool {
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}

// BuildCronLine returns the cron.d entry that pipes the SSH report to the
// collector every six hours.
func BuildCronLine(bin, token, apiURL string) string {
	return fmt.Sprintf("0 */6 * * * root %s ssh --json | curl -X POST -H 'Content-Type: application/json' -H 'Authorization: Token %s' -d @- %s",
		bin, token, apiURL)
}

// Schedule registers the periodic run: a cron.d file on linux, an hourly
// scheduled task on windows.
func Schedule(ctx context.Context, opts Options) error {
	if err := opts.withDefaults(); err != nil {
		return err
	}

	switch opts.GOOS {
	case "linux":
		line := BuildCronLine(opts.BinaryPath(), opts.Token, opts.APIURL)
		if err := os.WriteFile(opts.CronFile, []byte(line+"\n"), 0644); err != nil {
			if errors.Is(err, os.ErrPermission) {
				return ErrNeedRoot
			}
			return fmt.Errorf("writing %s: %w", opts.CronFile, err)
		}
		logging.Infof("[✓] Cron job created at %s", opts.CronFile)
		return nil

	case "windows":
		logging.Infof("[*] Detected Windows. Scheduling task...")
		res, err := opts.Runner.Run(ctx, checks.TimeoutUntimed, "schtasks",
			"/Create", "/SC", "HOURLY", "/TN", TaskName,
			"/TR", fmt.Sprintf("%s ssh --json", opts.BinaryPath()), "/F")
		if err != nil {
			return fmt.Errorf("failed to create Windows task: %w", err)
		}
		if !res.Success {
			return fmt.Errorf("failed to create Windows task: %s", strings.TrimSpace(res.Stderr+res.Stdout))
		}
		logging.Infof("[✓] Scheduled task created.")
		return nil
	}

	return fmt.Errorf("%w: %s", ErrUnsupportedOS, opts.GOOS)
}
