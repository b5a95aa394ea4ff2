// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package schema holds the structural JSON Schema of a course document and
// validates raw documents against it.
package schema

import (
	"encoding/json"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

var (
	eventOnce   sync.Once
	eventSchema *openapi3.Schema
)

// EventSchema returns the schema of a course document. Objects accept
// additional properties at every level so documents can carry keys newer
// than this tool.
func EventSchema() *openapi3.Schema {
	eventOnce.Do(func() { eventSchema = buildEventSchema() })
	return eventSchema
}

func text() *openapi3.Schema {
	return openapi3.NewStringSchema().WithNullable()
}

func timeRange() *openapi3.Schema {
	s := openapi3.NewObjectSchema().
		WithProperty("start", openapi3.NewStringSchema()).
		WithProperty("end", openapi3.NewStringSchema()).
		WithRequired([]string{"start", "end"})
	s.Description = `Times of day as "H:MM" or "HH:MM".`
	return s
}

func buildEventSchema() *openapi3.Schema {
	material := openapi3.NewObjectSchema().
		WithProperty("lesson", openapi3.NewStringSchema()).
		WithProperty("title", openapi3.NewStringSchema()).
		WithProperty("url", text()).
		WithProperty("type", text())
	material.Description = `Either a lesson reference ("area/name") or an inline entry with title and url.`

	session := openapi3.NewObjectSchema().
		WithProperty("title", openapi3.NewStringSchema()).
		WithProperty("slug", openapi3.NewStringSchema()).
		WithProperty("date", openapi3.NewStringSchema()).
		WithProperty("time", timeRange()).
		WithProperty("materials", openapi3.NewArraySchema().WithItems(material).WithNullable())

	event := openapi3.NewObjectSchema().
		WithProperty("title", openapi3.NewStringSchema()).
		WithProperty("subtitle", text()).
		WithProperty("place", text()).
		WithProperty("time", text()).
		WithProperty("description", text()).
		WithProperty("long_description", text()).
		WithProperty("vars", openapi3.NewObjectSchema().WithNullable()).
		WithProperty("default_time", timeRange()).
		WithProperty("plan", openapi3.NewArraySchema().WithItems(session).WithMinItems(1)).
		WithRequired([]string{"title", "plan"})
	event.Title = "Course event"
	return event
}

// MarshalSchema renders the event schema as indented JSON.
func MarshalSchema() ([]byte, error) {
	return json.MarshalIndent(EventSchema(), "", "  ")
}
