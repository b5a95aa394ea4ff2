// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package course

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Parse decodes a single YAML course document.
//
// Only fatal problems are reported here: a malformed document, a missing or
// blank title, a missing plan, or a plan without sessions. Unknown keys at any
// level are kept, never rejected.
func Parse(data []byte) (*Event, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))

	var doc yaml.Node
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrMalformed)
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var trailing yaml.Node
	if err := dec.Decode(&trailing); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: multiple documents or trailing content", ErrMalformed)
	}

	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: top level must be a mapping (line %d)", ErrMalformed, root.Line)
	}

	title := mappingValue(root, "title")
	if title == nil || isNull(title) || (title.Kind == yaml.ScalarNode && strings.TrimSpace(title.Value) == "") {
		return nil, &FieldError{Field: "title", Err: ErrMissingField}
	}

	plan := mappingValue(root, "plan")
	if plan == nil || isNull(plan) {
		return nil, &FieldError{Field: "plan", Err: ErrMissingField}
	}
	if plan.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("%w: plan must be a sequence (line %d)", ErrMalformed, plan.Line)
	}
	if len(plan.Content) == 0 {
		return nil, ErrEmptyPlan
	}

	var ev Event
	if err := root.Decode(&ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	ev.normalize()

	return &ev, nil
}

// Load reads and parses a course document from disk.
func Load(path string) (*Event, error) {
	data, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseFile(path, data)
}

// ParseFile parses data that was read from path and records path as the
// event's source.
func ParseFile(path string, data []byte) (*Event, error) {
	ev, err := Parse(data)
	if err != nil {
		return nil, err
	}
	ev.source = filepath.Clean(path)
	return ev, nil
}

// ReadFile reads a course document after checking its extension.
func ReadFile(path string) ([]byte, error) {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("%w: %s (only YAML supported)", ErrUnsupportedFormat, ext)
	}

	// #nosec G304 -- document paths are provided by the operator via CLI
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return data, nil
}

// Marshal encodes the event as canonical YAML with two-space indentation.
func Marshal(ev *Event) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(ev); err != nil {
		return nil, fmt.Errorf("encode course: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("close encoder: %w", err)
	}
	return buf.Bytes(), nil
}

// normalize applies defaults so that parsed values compare equal regardless
// of whether optional collections were absent or written empty.
//
// Nested mappings with non-string keys are rekeyed by their text form so the
// event always encodes to JSON.
func (e *Event) normalize() {
	if e.Vars == nil {
		e.Vars = make(map[string]any)
	}
	stringKeys(e.Vars)
	stringKeys(e.Extra)
	for i := range e.Plan {
		s := &e.Plan[i]
		if len(s.Materials) == 0 {
			s.Materials = nil
		}
		stringKeys(s.Extra)
		for j := range s.Materials {
			stringKeys(s.Materials[j].Extra)
		}
	}
}

// stringKeys rewrites the values of m in place.
func stringKeys(m map[string]any) {
	for k, v := range m {
		m[k] = jsonValue(v)
	}
}

// jsonValue converts map[any]any, as yaml.v3 produces for mappings with
// non-string keys, into map[string]any at any depth.
func jsonValue(v any) any {
	switch t := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = jsonValue(val)
		}
		return out
	case map[string]any:
		stringKeys(t)
		return t
	case []any:
		for i := range t {
			t[i] = jsonValue(t[i])
		}
		return t
	default:
		return v
	}
}
