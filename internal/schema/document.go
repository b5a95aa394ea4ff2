// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package schema

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"

	"github.com/dejvthedrummer/naucse.python.cz/internal/validate"
)

// ValidateDocument checks raw YAML against EventSchema and returns one
// schema issue per violation. A document that is not YAML at all yields a
// single malformed issue.
func ValidateDocument(data []byte) []validate.Issue {
	var root yaml.Node
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&root); err != nil {
		return []validate.Issue{{
			Severity: validate.SeverityError,
			Code:     validate.CodeMalformed,
			Message:  err.Error(),
		}}
	}

	value, err := ToJSON(&root)
	if err != nil {
		return []validate.Issue{{
			Severity: validate.SeverityError,
			Code:     validate.CodeMalformed,
			Message:  err.Error(),
		}}
	}

	err = EventSchema().VisitJSON(value, openapi3.MultiErrors())
	if err == nil {
		return nil
	}

	var issues []validate.Issue
	for _, e := range flatten(err) {
		issue := validate.Issue{
			Severity: validate.SeverityError,
			Code:     validate.CodeSchema,
			Message:  e.Error(),
		}
		var se *openapi3.SchemaError
		if errors.As(e, &se) {
			issue.Field = FieldPath(se.JSONPointer())
			issue.Message = se.Reason
			if issue.Message == "" {
				issue.Message = fmt.Sprintf("does not match schema %q", se.SchemaField)
			}
		}
		issues = append(issues, issue)
	}
	return issues
}

func flatten(err error) []error {
	var me openapi3.MultiError
	if !errors.As(err, &me) {
		return []error{err}
	}
	var out []error
	for _, e := range me {
		out = append(out, flatten(e)...)
	}
	return out
}

// FieldPath renders a JSON pointer as the dotted form used in issues,
// e.g. ["plan","0","materials","1"] becomes "plan[0].materials[1]".
func FieldPath(pointer []string) string {
	var b strings.Builder
	for _, seg := range pointer {
		if _, err := strconv.Atoi(seg); err == nil {
			b.WriteString("[" + seg + "]")
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(seg)
	}
	return b.String()
}

// ToJSON converts a YAML node tree into the value shapes encoding/json
// produces: map[string]any, []any, string, float64, bool and nil.
// Timestamps stay strings.
func ToJSON(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return ToJSON(n.Content[0])
	case yaml.AliasNode:
		return ToJSON(n.Alias)
	case yaml.MappingNode:
		out := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if k.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: mapping key must be a scalar", k.Line)
			}
			val, err := ToJSON(v)
			if err != nil {
				return nil, err
			}
			out[k.Value] = val
		}
		return out, nil
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			val, err := ToJSON(c)
			if err != nil {
				return nil, err
			}
			out = append(out, val)
		}
		return out, nil
	case yaml.ScalarNode:
		return scalar(n)
	}
	return nil, fmt.Errorf("line %d: unsupported YAML node", n.Line)
}

func scalar(n *yaml.Node) (any, error) {
	switch n.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, err
		}
		return b, nil
	case "!!int", "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return f, nil
	default:
		return n.Value, nil
	}
}
