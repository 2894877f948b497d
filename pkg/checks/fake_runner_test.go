package checks

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"
)

// fakeRunner answers commands from a table keyed by the joined command
// line and records every call.
type fakeRunner struct {
	installed map[string]bool
	results   map[string]*CommandResult
	startErr  map[string]error
	calls     []string
	timeouts  []time.Duration
}

func newFakeRunner(installed ...string) *fakeRunner {
	f := &fakeRunner{
		installed: map[string]bool{},
		results:   map[string]*CommandResult{},
		startErr:  map[string]error{},
	}
	for _, name := range installed {
		f.installed[name] = true
	}
	return f
}

func (f *fakeRunner) on(cmdline string, res *CommandResult) *fakeRunner {
	f.results[cmdline] = res
	return f
}

func (f *fakeRunner) Run(_ context.Context, timeout time.Duration, name string, args ...string) (*CommandResult, error) {
	key := strings.Join(append([]string{name}, args...), " ")
	f.calls = append(f.calls, key)
	f.timeouts = append(f.timeouts, timeout)
	if err, ok := f.startErr[key]; ok {
		return nil, err
	}
	if res, ok := f.results[key]; ok {
		return res, nil
	}
	return &CommandResult{Success: true}, nil
}

func (f *fakeRunner) LookPath(name string) (string, error) {
	if f.installed[name] {
		return "/usr/bin/" + name, nil
	}
	return "", exec.ErrNotFound
}

func ok(stdout string) *CommandResult {
	return &CommandResult{Stdout: stdout, Success: true}
}

func exit(code int, stdout, stderr string) *CommandResult {
	return &CommandResult{Stdout: stdout, Stderr: stderr, ExitCode: code}
}

var errStart = errors.New("exec: permission denied")

func testEnv(r Runner, now time.Time) *Env {
	env := NewEnv()
	env.Runner = r
	env.Now = func() time.Time { return now }
	env.Exists = func(string) bool { return false }
	return env
}
