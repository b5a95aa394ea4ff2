// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package validate accumulates validation issues for course documents and
// tool configuration, and holds the content rules for course documents.
package validate

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Severity separates problems that make a document unusable from content
// problems a consumer may choose to tolerate.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is a single validation finding.
type Issue struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Field    string   `json:"path"`          // Location, e.g. "plan[1].materials[0]"
	Value    any      `json:"value,omitempty"` // The offending value, if any
	Message  string   `json:"message"`
}

// Error implements the error interface
func (e Issue) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

// Validator accumulates issues and can produce a ValidationError when invalid.
type Validator struct {
	issues []Issue
}

// ValidationError bundles multiple error-level issues into a single error value.
type ValidationError struct {
	errors []Issue
}

// New creates a new validator
func New() *Validator {
	return &Validator{
		issues: make([]Issue, 0),
	}
}

// Add records an issue as-is.
func (v *Validator) Add(issue Issue) {
	v.issues = append(v.issues, issue)
}

// AddError records an error-level issue.
func (v *Validator) AddError(code, field, message string, value any) {
	v.Add(Issue{Severity: SeverityError, Code: code, Field: field, Value: value, Message: message})
}

// AddWarning records a warning-level issue.
func (v *Validator) AddWarning(code, field, message string, value any) {
	v.Add(Issue{Severity: SeverityWarning, Code: code, Field: field, Value: value, Message: message})
}

// IsValid returns true if no error-level issues have been accumulated.
// Warnings do not affect validity.
func (v *Validator) IsValid() bool {
	for _, is := range v.issues {
		if is.Severity == SeverityError {
			return false
		}
	}
	return true
}

// Issues returns every accumulated issue in the order it was found.
func (v *Validator) Issues() []Issue {
	return v.issues
}

// Errors returns the error-level issues.
func (v *Validator) Errors() []Issue {
	return filter(v.issues, SeverityError)
}

// Warnings returns the warning-level issues.
func (v *Validator) Warnings() []Issue {
	return filter(v.issues, SeverityWarning)
}

// Err converts the accumulated error-level issues into an error value.
func (v *Validator) Err() error {
	errs := v.Errors()
	if len(errs) == 0 {
		return nil
	}
	return ValidationError{errors: errs}
}

// Errors returns the individual issues making up the validation failure.
func (e ValidationError) Errors() []Issue {
	return e.errors
}

// Error implements the error interface for ValidationError.
func (e ValidationError) Error() string {
	if len(e.errors) == 0 {
		return ""
	}

	if len(e.errors) == 1 {
		return e.errors[0].Error()
	}

	msgs := make([]string, len(e.errors))
	for i, err := range e.errors {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

func filter(issues []Issue, sev Severity) []Issue {
	out := make([]Issue, 0, len(issues))
	for _, is := range issues {
		if is.Severity == sev {
			out = append(out, is)
		}
	}
	return out
}

// URL validates an absolute URL string
func (v *Validator) URL(field, value string, allowedSchemes []string) {
	if value == "" {
		v.AddError(CodeInvalidURL, field, "URL cannot be empty", value)
		return
	}

	u, err := url.Parse(value)
	if err != nil {
		v.AddError(CodeInvalidURL, field, fmt.Sprintf("invalid URL: %v", err), value)
		return
	}

	if u.Host == "" {
		v.AddError(CodeInvalidURL, field, "URL must have a host", value)
		return
	}

	if len(allowedSchemes) > 0 {
		schemeValid := false
		for _, scheme := range allowedSchemes {
			if u.Scheme == scheme {
				schemeValid = true
				break
			}
		}
		if !schemeValid {
			v.AddError(CodeInvalidURL, field,
				fmt.Sprintf("unsupported URL scheme %q (allowed: %v)", u.Scheme, allowedSchemes),
				value)
		}
	}
}

// NotEmpty validates that a string is not empty or whitespace-only
func (v *Validator) NotEmpty(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.AddError(CodeMissingField, field, "value cannot be empty", value)
	}
}

// OneOf validates that a value is one of the allowed values
func (v *Validator) OneOf(field, value string, allowed []string) {
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	v.AddError(CodeInvalidValue, field,
		fmt.Sprintf("value must be one of %v, got %q", allowed, value),
		value)
}

// Custom allows custom validation logic
// The validator function should return an error if validation fails
func (v *Validator) Custom(field string, value any, validator func(any) error) {
	if err := validator(value); err != nil {
		v.AddError(CodeInvalidValue, field, err.Error(), value)
	}
}

// Directory validates a directory path.
// If mustExist is false a missing directory is accepted; its owner creates it
// on first use. An existing path must always be a directory.
func (v *Validator) Directory(field, path string, mustExist bool) {
	if path == "" {
		v.AddError(CodeInvalidPath, field, "directory path cannot be empty", path)
		return
	}

	if strings.Contains(path, "..") {
		v.AddError(CodeInvalidPath, field, "path contains traversal sequences (..)", path)
		return
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		v.AddError(CodeInvalidPath, field, fmt.Sprintf("invalid path: %v", err), path)
		return
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			if mustExist {
				v.AddError(CodeInvalidPath, field, "directory does not exist", path)
			}
			return
		}
		v.AddError(CodeInvalidPath, field, fmt.Sprintf("cannot access directory: %v", err), path)
		return
	}

	if !info.IsDir() {
		v.AddError(CodeInvalidPath, field, "path is not a directory", path)
	}
}
