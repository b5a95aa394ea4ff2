// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package course

import "errors"

var (
	// ErrMalformed classifies documents that are not valid YAML, contain more
	// than one document, or have values of the wrong shape.
	ErrMalformed = errors.New("malformed course document")

	// ErrMissingField is returned when a required top-level key (title, plan)
	// is absent or blank. The field name is included in the wrapped message.
	ErrMissingField = errors.New("missing required field")

	// ErrEmptyPlan is returned when plan is present but has no sessions.
	ErrEmptyPlan = errors.New("plan must contain at least one session")

	// ErrUnsupportedFormat is returned by Load for non-YAML file extensions.
	ErrUnsupportedFormat = errors.New("unsupported document format")
)

// FieldError carries the name of the offending field for ErrMissingField.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return e.Err.Error() + ": " + e.Field
}

func (e *FieldError) Unwrap() error { return e.Err }
