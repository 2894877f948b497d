package checks

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func TestRecordJSON(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		want string
	}{
		{
			name: "success",
			rec:  NewRecord("clamav", &AVScan{Target: "/tmp", InfectedCount: 0, InfectedFiles: []string{}}, nil),
			want: `{"target":"/tmp","infected_count":0,"infected_files":[]}`,
		},
		{
			name: "error drops data",
			rec:  NewRecord("clamav", &AVScan{Target: "/tmp"}, inputMissing("Target directory does not exist: /tmp")),
			want: `{"error":"Target directory does not exist: /tmp"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.rec)
			if err != nil {
				t.Fatal(err)
			}
			if string(data) != tt.want {
				t.Errorf("json = %s, want %s", data, tt.want)
			}
		})
	}
}

func TestRecordKind(t *testing.T) {
	if k := NewRecord("x", nil, errors.New("boom")).Kind(); k != KindExecutionFailed {
		t.Errorf("Kind() for plain error = %q, want %q", k, KindExecutionFailed)
	}
	if k := NewRecord("x", 1, nil).Kind(); k != "" {
		t.Errorf("Kind() for success = %q, want empty", k)
	}
}

func TestErrorIsKind(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", parseFailed(errors.New("eof"), "XML parse error"))

	if !errors.Is(err, ErrParseFailed) {
		t.Error("errors.Is(err, ErrParseFailed) = false")
	}
	if errors.Is(err, ErrExecutionFailed) {
		t.Error("errors.Is(err, ErrExecutionFailed) = true")
	}
	if KindOf(err) != KindParseFailed {
		t.Errorf("KindOf() = %q", KindOf(err))
	}

	var ce *Error
	if !errors.As(err, &ce) || ce.Error() != "XML parse error: eof" {
		t.Errorf("message = %q", ce.Error())
	}
}

func TestResolve(t *testing.T) {
	cands := []Candidate{{Name: "yum", Priority: 2}, {Name: "apt", Priority: 0}, {Name: "dnf", Priority: 1}}
	present := func(n string) bool { return n != "apt" }

	got, ok := Resolve(cands, present)
	if !ok || got.Name != "dnf" {
		t.Errorf("Resolve() = %+v, %v; want dnf", got, ok)
	}
	if _, ok := Resolve(cands, func(string) bool { return false }); ok {
		t.Error("Resolve() found a candidate when none present")
	}
}
