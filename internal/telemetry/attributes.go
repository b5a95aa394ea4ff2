// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// InstrumentationName names the tracer used by Start.
const InstrumentationName = "github.com/dejvthedrummer/naucse.python.cz"

// Common attribute keys for consistent tracing across the application.
const (
	// HTTP attributes
	HTTPMethodKey     = "http.method"
	HTTPStatusCodeKey = "http.status_code"
	HTTPRouteKey      = "http.route"

	// Document attributes
	DocumentPathKey     = "document.path"
	DocumentSizeKey     = "document.size_bytes"
	DocumentSessionsKey = "document.sessions"

	// Validation attributes
	ValidationValidKey    = "validation.valid"
	ValidationErrorsKey   = "validation.errors"
	ValidationWarningsKey = "validation.warnings"

	// Catalog attributes
	CatalogBackendKey = "catalog.backend"
	CatalogLessonsKey = "catalog.lessons"

	// Error attributes
	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// HTTPAttributes creates common HTTP span attributes.
func HTTPAttributes(method, route string, statusCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(HTTPMethodKey, method),
		attribute.String(HTTPRouteKey, route),
		attribute.Int(HTTPStatusCodeKey, statusCode),
	}
}

// DocumentAttributes describes the document being processed.
func DocumentAttributes(path string, size, sessions int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(DocumentPathKey, path),
		attribute.Int(DocumentSizeKey, size),
		attribute.Int(DocumentSessionsKey, sessions),
	}
}

// ValidationAttributes summarises a validation outcome.
func ValidationAttributes(valid bool, errors, warnings int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ValidationValidKey, valid),
		attribute.Int(ValidationErrorsKey, errors),
		attribute.Int(ValidationWarningsKey, warnings),
	}
}

// CatalogAttributes describes a lesson catalog operation.
func CatalogAttributes(backend string, lessons int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(CatalogBackendKey, backend),
		attribute.Int(CatalogLessonsKey, lessons),
	}
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
