package checks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"time"
)

// CommandResult represents the result of a command execution.
type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Success  bool
	TimedOut bool
}

// Timeouts per external tool. Zero means no deadline beyond the caller's
// context.
const (
	TimeoutPortScan = 60 * time.Second
	TimeoutLogwatch = 60 * time.Second
	TimeoutClamAV   = 600 * time.Second
	TimeoutVulnFeed = 20 * time.Second
	TimeoutUntimed  = time.Duration(0)
)

// Runner runs external tools. ExecRunner is the real implementation; tests
// substitute fakes.
type Runner interface {
	Run(ctx context.Context, timeout time.Duration, name string, args ...string) (*CommandResult, error)
	LookPath(name string) (string, error)
}

// ExecRunner runs commands through os/exec.
type ExecRunner struct{}

// Run executes name with args. A non-zero exit is reported in the result,
// not as an error; err is set only when the command could not be started.
func (ExecRunner) Run(ctx context.Context, timeout time.Duration, name string, args ...string) (*CommandResult, error) {
	if name == "" {
		return nil, fmt.Errorf("no command specified")
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := &CommandResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Success:  err == nil,
		TimedOut: errors.Is(ctx.Err(), context.DeadlineExceeded),
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}
	if err != nil && !result.TimedOut {
		return result, err
	}
	return result, nil
}

// LookPath searches PATH for name.
func (ExecRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// Env bundles what checks touch on the host, so tests can replace each
// piece. The zero value is not usable; start from NewEnv.
type Env struct {
	Runner Runner
	HTTP   *http.Client
	Now    func() time.Time
	Exists func(path string) bool

	// NVDURL is the CVE API endpoint.
	NVDURL string
	// LynisReport is where lynis writes its key=value report.
	LynisReport string
	// AuthLogs and SystemLogs are the candidate log paths in priority order.
	AuthLogs   []string
	SystemLogs []string
}

// NewEnv returns an Env wired to the real host.
func NewEnv() *Env {
	return &Env{
		Runner:      ExecRunner{},
		HTTP:        &http.Client{Timeout: TimeoutVulnFeed},
		Now:         time.Now,
		Exists:      pathExists,
		NVDURL:      DefaultNVDURL,
		LynisReport: DefaultLynisReport,
		AuthLogs:    append([]string(nil), DefaultAuthLogs...),
		SystemLogs:  append([]string(nil), DefaultSystemLogs...),
	}
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// commandExists reports whether name is on PATH.
func (e *Env) commandExists(name string) bool {
	_, err := e.Runner.LookPath(name)
	return err == nil
}
