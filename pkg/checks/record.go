package checks

import (
	"encoding/json"
)

// Record is the report record of one check run: either the check's result
// or its error, never both.
type Record struct {
	Check string
	Data  interface{}
	Err   error
}

// NewRecord builds a record from a check's return values, dropping data
// when err is set.
func NewRecord(check string, data interface{}, err error) Record {
	if err != nil {
		return Record{Check: check, Err: err}
	}
	return Record{Check: check, Data: data}
}

// Failed reports whether the record carries an error.
func (r Record) Failed() bool { return r.Err != nil }

// Kind returns the failure kind, or "" for a successful record.
func (r Record) Kind() Kind {
	if r.Err == nil {
		return ""
	}
	if k := KindOf(r.Err); k != "" {
		return k
	}
	return KindExecutionFailed
}

// MarshalJSON emits the result's own fields on success and exactly
// {"error": message} on failure.
func (r Record) MarshalJSON() ([]byte, error) {
	if r.Err != nil {
		return json.Marshal(struct {
			Error string `json:"error"`
		}{r.Err.Error()})
	}
	return json.Marshal(r.Data)
}
