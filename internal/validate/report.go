// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package validate

import "encoding/json"

// Report is the outcome of validating one document.
type Report struct {
	Path   string  `json:"path,omitempty"`
	Issues []Issue `json:"issues"`
}

// Report snapshots the accumulated issues into a Report for path.
func (v *Validator) Report(path string) Report {
	issues := make([]Issue, len(v.issues))
	copy(issues, v.issues)
	return Report{Path: path, Issues: issues}
}

// Valid reports whether the document has no error-level issues.
func (r Report) Valid() bool {
	for _, is := range r.Issues {
		if is.Severity == SeverityError {
			return false
		}
	}
	return true
}

// Errors returns the error-level issues.
func (r Report) Errors() []Issue { return filter(r.Issues, SeverityError) }

// Warnings returns the warning-level issues.
func (r Report) Warnings() []Issue { return filter(r.Issues, SeverityWarning) }

// Count returns how many issues carry code.
func (r Report) Count(code string) int {
	n := 0
	for _, is := range r.Issues {
		if is.Code == code {
			n++
		}
	}
	return n
}

// Err bundles the error-level issues, or returns nil for a valid report.
func (r Report) Err() error {
	errs := r.Errors()
	if len(errs) == 0 {
		return nil
	}
	return ValidationError{errors: errs}
}

// MarshalJSON adds the derived validity and counters to the wire form.
func (r Report) MarshalJSON() ([]byte, error) {
	issues := r.Issues
	if issues == nil {
		issues = []Issue{}
	}
	return json.Marshal(struct {
		Path     string  `json:"path,omitempty"`
		Valid    bool    `json:"valid"`
		Errors   int     `json:"errors"`
		Warnings int     `json:"warnings"`
		Issues   []Issue `json:"issues"`
	}{
		Path:     r.Path,
		Valid:    r.Valid(),
		Errors:   len(r.Errors()),
		Warnings: len(r.Warnings()),
		Issues:   issues,
	})
}

// UnmarshalJSON accepts the wire form produced by MarshalJSON.
func (r *Report) UnmarshalJSON(data []byte) error {
	var wire struct {
		Path   string  `json:"path"`
		Issues []Issue `json:"issues"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	r.Path = wire.Path
	r.Issues = wire.Issues
	return nil
}
