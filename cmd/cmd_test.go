package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/user/mssp-agent/pkg/checks"
	"github.com/user/mssp-agent/pkg/config"
	"github.com/user/mssp-agent/pkg/engine"
)

func init() {
	color.NoColor = true
}

// stubRunner sees only the listed tools and answers with canned stdout.
type stubRunner struct {
	installed map[string]bool
	stdout    map[string]string
}

func (s *stubRunner) Run(_ context.Context, _ time.Duration, name string, _ ...string) (*checks.CommandResult, error) {
	return &checks.CommandResult{Stdout: s.stdout[name], Success: true}, nil
}

func (s *stubRunner) LookPath(name string) (string, error) {
	if s.installed[name] {
		return "/usr/bin/" + name, nil
	}
	return "", exec.ErrNotFound
}

func useStubEnv(t *testing.T, r *stubRunner) {
	t.Helper()
	orig := newEnv
	newEnv = func() *checks.Env {
		env := checks.NewEnv()
		env.Runner = r
		env.Exists = func(string) bool { return false }
		return env
	}
	t.Cleanup(func() { newEnv = orig })
}

// resetFlags restores scalar flags between runs of the shared command tree.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		switch f.Value.Type() {
		case "bool", "string", "int":
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		resetFlags(rootCmd)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})
	err = rootCmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestPatchesJSONUnsupported(t *testing.T) {
	useStubEnv(t, &stubRunner{})

	out, _, err := execute(t, "patches", "--json")
	if err != nil {
		t.Fatalf("execute error = %v", err)
	}
	want := "{\n  \"error\": \"Unsupported package manager or OS\"\n}\n"
	if out != want {
		t.Errorf("stdout = %q, want %q", out, want)
	}
}

func TestSSHNoLogExitsOne(t *testing.T) {
	useStubEnv(t, &stubRunner{})

	_, stderr, err := execute(t, "ssh", "--json")
	var ee *exitError
	if !errors.As(err, &ee) || ee.code != 1 {
		t.Fatalf("error = %v, want exit status 1", err)
	}
	if strings.TrimSpace(stderr) != "Error: No suitable SSH log file found." {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestPortsHumanSummary(t *testing.T) {
	useStubEnv(t, &stubRunner{stdout: map[string]string{"nmap": `<nmaprun><host><ports>
<port protocol="tcp" portid="22"><state state="open"/><service name="ssh"/></port>
</ports></host></nmaprun>`}})

	out, _, err := execute(t, "ports", "--target", "10.1.1.1")
	if err != nil {
		t.Fatal(err)
	}
	if out != "Open ports on 10.1.1.1:\n - 22/tcp: ssh\n" {
		t.Errorf("stdout = %q", out)
	}
}

func TestCheckErrorGoesToStderr(t *testing.T) {
	useStubEnv(t, &stubRunner{})

	out, stderr, err := execute(t, "clamav", "--dir", "/tmp")
	if err != nil {
		t.Fatalf("error = %v, want nil (only ssh changes exit status)", err)
	}
	if out != "" || !strings.Contains(stderr, "ClamAV is not installed") {
		t.Errorf("stdout = %q stderr = %q", out, stderr)
	}
}

func TestReportDryRun(t *testing.T) {
	useStubEnv(t, &stubRunner{})
	cfgPath := filepath.Join(t.TempDir(), "config.json")
	if err := config.SaveAgent(cfgPath, &config.AgentConfig{APIURL: "https://c.example/", Token: "tok"}); err != nil {
		t.Fatal(err)
	}

	out, _, err := execute(t, "report", "clamav", "--dry-run", "--config", cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	var payload struct {
		Check string            `json:"check"`
		Data  map[string]string `json:"data"`
		Token string            `json:"token"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if payload.Check != "clamav" || payload.Token != "tok" || !strings.Contains(payload.Data["error"], "ClamAV") {
		t.Errorf("payload = %+v", payload)
	}
}

func TestReportSubmitsWithArgs(t *testing.T) {
	useStubEnv(t, &stubRunner{})

	logPath := filepath.Join(t.TempDir(), "auth.log")
	stamp := time.Now().Format("Jan _2 15:04:05")
	line := stamp + " host sshd[9]: Failed password for root from 192.0.2.9 port 22 ssh2\n"
	if err := os.WriteFile(logPath, []byte(line), 0644); err != nil {
		t.Fatal(err)
	}

	var got struct {
		Check string `json:"check"`
		Data  struct {
			FailedLogins []struct {
				IP string `json:"ip"`
			} `json:"failed_logins"`
		} `json:"data"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Token tok" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
	}))
	defer server.Close()

	cfgPath := filepath.Join(t.TempDir(), "config.json")
	if err := config.SaveAgent(cfgPath, &config.AgentConfig{APIURL: server.URL, Token: "tok"}); err != nil {
		t.Fatal(err)
	}

	out, _, err := execute(t, "report", "ssh", "--config", cfgPath, "--arg", "log_path="+logPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "ssh_logins submitted") {
		t.Errorf("stdout = %q", out)
	}
	if got.Check != "ssh_logins" || len(got.Data.FailedLogins) != 1 || got.Data.FailedLogins[0].IP != "192.0.2.9" {
		t.Errorf("collector got %+v", got)
	}
}

func TestReportUnknownCheck(t *testing.T) {
	useStubEnv(t, &stubRunner{})
	if _, _, err := execute(t, "report", "nikto", "--dry-run"); err == nil {
		t.Error("report accepted an unknown check")
	}
}

func TestConfigSetAndShow(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.json")

	if _, _, err := execute(t, "config", "set-url", "https://c.example/api/report/", "--config", cfgPath); err != nil {
		t.Fatal(err)
	}
	if _, _, err := execute(t, "config", "set-token", "abcdef123", "--config", cfgPath); err != nil {
		t.Fatal(err)
	}

	out, _, err := execute(t, "config", "show", "--config", cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "API URL: https://c.example/api/report/") || !strings.Contains(out, "Token:   *****f123") {
		t.Errorf("show = %q", out)
	}
	if strings.Contains(out, "abcdef123") {
		t.Error("show printed the raw token")
	}
}

func TestConfigSetURLKeepsStoredToken(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.json")
	if err := config.SaveAgent(cfgPath, &config.AgentConfig{APIURL: "https://old.example/", Token: "stored"}); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MSSP_TOKEN", "from-env")

	if _, _, err := execute(t, "config", "set-url", "https://new.example/", "--config", cfgPath); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.LoadAgentFile(cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Token != "stored" || cfg.APIURL != "https://new.example/" {
		t.Errorf("saved config = %+v", cfg)
	}
}

func TestInstallNoSchedule(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "agent")

	out, _, err := execute(t, "install", "--dir", dir, "--no-schedule", "--api-url", "https://c.example/", "--token", "tok")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Agent installed in "+dir) {
		t.Errorf("stdout = %q", out)
	}
	cfg, err := config.LoadAgent(filepath.Join(dir, "config.json"))
	if err != nil || cfg.Token != "tok" {
		t.Errorf("config = %+v, %v", cfg, err)
	}
}

func TestAuditJSON(t *testing.T) {
	useStubEnv(t, &stubRunner{})

	out, _, err := execute(t, "audit", "--json", "--skip", "cves")
	if err != nil {
		t.Fatal(err)
	}
	var findings []engine.Finding
	if err := json.Unmarshal([]byte(out), &findings); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	// ports, patches, ssh, clamav and lynis all fail on the bare stub host.
	if len(findings) != 5 {
		t.Errorf("len(findings) = %d, want 5: %+v", len(findings), findings)
	}
	for _, f := range findings {
		if f.Category != "agent" {
			t.Errorf("unexpected finding %+v", f)
		}
	}
}
