// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package validate

import "errors"

// Issue codes. They are stable identifiers for tooling; messages are not.
const (
	CodeMalformed         = "malformed"
	CodeMissingField      = "missing_field"
	CodeEmptyPlan         = "empty_plan"
	CodeEmptySlug         = "empty_slug"
	CodeDuplicateSlug     = "duplicate_slug"
	CodeMaterialAmbiguous = "material_ambiguous"
	CodeMaterialEmpty     = "material_empty"
	CodeInvalidDate       = "invalid_date"
	CodeInvalidTime       = "invalid_time"
	CodeTimeOrder         = "time_order"
	CodeInvalidURL        = "invalid_url"
	CodeInvalidLessonRef  = "invalid_lesson_ref"
	CodeDanglingLesson    = "dangling_lesson"
	CodeUnsafeHTML        = "unsafe_html"
	CodeSchema            = "schema"
	CodeInvalidValue      = "invalid_value"
	CodeInvalidPath       = "invalid_path"
)

// LogLevel represents valid log levels
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// ErrInvalidLogLevel is returned by ParseLogLevel.
var ErrInvalidLogLevel = errors.New("invalid log level (must be: debug, info, warn, error)")

// IsValid checks if the log level is valid
func (l LogLevel) IsValid() bool {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true
	default:
		return false
	}
}

// String returns the string representation
func (l LogLevel) String() string {
	return string(l)
}

// ParseLogLevel parses a string into a LogLevel
func ParseLogLevel(s string) (LogLevel, error) {
	level := LogLevel(s)
	if !level.IsValid() {
		return "", ErrInvalidLogLevel
	}
	return level, nil
}
