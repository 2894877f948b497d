// Package checks implements the host security checks: open ports, patch
// status, SSH login failures, antivirus scan, log summary, CVE feed and
// hardening audit.
//
// Every check returns its own result type and a *Error on failure. Wrap the
// pair in a Record to get the report record, which serializes either as
// the result or as {"error": message}.
package checks
