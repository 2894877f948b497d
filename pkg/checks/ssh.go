package checks

import (
	"bytes"
	"io"
	"os"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/user/mssp-agent/pkg/logging"
)

// DefaultAuthLogs are the authentication logs in probe order: Debian
// family first, then RHEL family.
var DefaultAuthLogs = []string{"/var/log/auth.log", "/var/log/secure"}

// ErrNoAuthLog is returned when none of the candidate auth logs exist.
var ErrNoAuthLog = &Error{Kind: KindInputMissing, Msg: "No suitable SSH log file found."}

var (
	syslogDateRe  = regexp.MustCompile(`^([A-Z][a-z]{2} +\d{1,2}) `)
	sshFailureRe  = regexp.MustCompile(`Failed password for (invalid user )?(\S+) from ([\d.]+)`)
	multiSpaceRe  = regexp.MustCompile(` +`)
	syslogDateFmt = "Jan 2 2006"
)

// FailedLogin aggregates failed SSH password attempts from one source IP.
type FailedLogin struct {
	IP        string   `json:"ip"`
	Attempts  int      `json:"attempts"`
	Usernames []string `json:"usernames"`
}

// SSHFailures is the failed-login record.
type SSHFailures struct {
	FailedLogins []FailedLogin `json:"failed_logins"`
}

// FindAuthLog returns the first candidate auth log that exists.
func (e *Env) FindAuthLog() (string, error) {
	c, ok := Resolve(ordered(e.AuthLogs...), e.Exists)
	if !ok {
		return "", ErrNoAuthLog
	}
	return c.Name, nil
}

// ParseSSHFailures summarizes failed SSH logins in the log at path over the
// last daysBack days.
//
// Syslog timestamps carry no year, so each line is dated in the current
// year. A date more than a day in the future is taken to be from the
// previous year.
func (e *Env) ParseSSHFailures(path string, daysBack int) (*SSHFailures, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &Error{Kind: KindInputMissing, Err: err}
	}
	defer f.Close()

	logging.Check("ssh_logins").Str("path", path).Int("days_back", daysBack).Msg("parsing auth log")
	return parseSSHFailures(f, e.Now(), daysBack)
}

type ipStats struct {
	attempts  int
	usernames map[string]struct{}
}

func parseSSHFailures(r io.Reader, now time.Time, daysBack int) (*SSHFailures, error) {
	cutoff := now.AddDate(0, 0, -daysBack)
	future := now.AddDate(0, 0, 1)

	stats := make(map[string]*ipStats)
	var order []string

	err := eachLine(r, func(line []byte) {
		ip, user, ok := matchFailure(line, now, cutoff, future)
		if !ok {
			return
		}
		s, seen := stats[ip]
		if !seen {
			s = &ipStats{usernames: make(map[string]struct{})}
			stats[ip] = s
			order = append(order, ip)
		}
		s.attempts++
		s.usernames[user] = struct{}{}
	})
	if err != nil {
		return nil, executionFailed(err, "reading auth log")
	}

	result := &SSHFailures{FailedLogins: make([]FailedLogin, 0, len(order))}
	for _, ip := range order {
		s := stats[ip]
		names := make([]string, 0, len(s.usernames))
		for n := range s.usernames {
			names = append(names, n)
		}
		sort.Strings(names)
		result.FailedLogins = append(result.FailedLogins, FailedLogin{
			IP:        ip,
			Attempts:  s.attempts,
			Usernames: names,
		})
	}
	return result, nil
}

func matchFailure(line []byte, now, cutoff, future time.Time) (ip, user string, ok bool) {
	m := syslogDateRe.FindSubmatch(line)
	if m == nil {
		return "", "", false
	}
	stamp := multiSpaceRe.ReplaceAll(m[1], []byte(" "))
	date, err := time.ParseInLocation(syslogDateFmt, string(stamp)+" "+strconv.Itoa(now.Year()), now.Location())
	if err != nil {
		return "", "", false
	}
	if date.After(future) {
		date = date.AddDate(-1, 0, 0)
	}
	if date.Before(cutoff) {
		return "", "", false
	}

	fm := sshFailureRe.FindSubmatch(bytes.TrimRight(line, "\r\n"))
	if fm == nil {
		return "", "", false
	}
	return string(fm[3]), string(fm[2]), true
}
