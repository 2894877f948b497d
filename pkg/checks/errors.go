package checks

import (
	"errors"
	"fmt"
)

// Kind classifies why a check failed.
type Kind string

const (
	KindDependencyMissing Kind = "dependency_missing"
	KindInputMissing      Kind = "input_missing"
	KindExecutionFailed   Kind = "execution_failed"
	KindParseFailed       Kind = "parse_failed"
)

// Error is the failure type returned by every check. Only Error() crosses
// the record boundary; Kind is for callers and tests.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg == "" && e.Err != nil:
		return e.Err.Error()
	case e.Err != nil:
		return e.Msg + ": " + e.Err.Error()
	case e.Msg == "":
		return string(e.Kind)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches kind sentinels, so errors.Is(err, ErrParseFailed) holds for
// any parse failure regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Msg == "" && t.Err == nil && t.Kind == e.Kind
}

// Kind sentinels for errors.Is.
var (
	ErrDependencyMissing = &Error{Kind: KindDependencyMissing}
	ErrInputMissing      = &Error{Kind: KindInputMissing}
	ErrExecutionFailed   = &Error{Kind: KindExecutionFailed}
	ErrParseFailed       = &Error{Kind: KindParseFailed}
)

func dependencyMissing(format string, args ...interface{}) error {
	return &Error{Kind: KindDependencyMissing, Msg: fmt.Sprintf(format, args...)}
}

func inputMissing(format string, args ...interface{}) error {
	return &Error{Kind: KindInputMissing, Msg: fmt.Sprintf(format, args...)}
}

func executionFailed(err error, format string, args ...interface{}) error {
	return &Error{Kind: KindExecutionFailed, Msg: fmt.Sprintf(format, args...), Err: err}
}

func parseFailed(err error, format string, args ...interface{}) error {
	return &Error{Kind: KindParseFailed, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of err, or "" if err is not a check error.
// Unclassified errors surfacing from a check are treated as execution
// failures by Record.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}
