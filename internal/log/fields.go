// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID  = "request_id"
	FieldSnapshotID = "snapshot_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// Document fields
	FieldPath     = "path"
	FieldSlug     = "slug"
	FieldLesson   = "lesson"
	FieldSessions = "sessions"
	FieldSHA256   = "sha256"

	// Validation fields
	FieldValid    = "valid"
	FieldErrors   = "errors"
	FieldWarnings = "warnings"
	FieldCode     = "code"

	// Network fields
	FieldRemoteAddr = "remote_addr"
	FieldListenAddr = "listen_addr"
)
