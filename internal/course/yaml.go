// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package course

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// UnmarshalYAML decodes a material mapping, keeping track of whether url was
// present so that "url: null" survives a round trip.
func (m *Material) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: material must be a mapping", value.Line)
	}

	*m = Material{}
	for i := 0; i+1 < len(value.Content); i += 2 {
		key, val := value.Content[i], value.Content[i+1]
		switch key.Value {
		case "lesson":
			s, err := scalarString(val, "lesson")
			if err != nil {
				return err
			}
			m.Lesson = s
		case "title":
			s, err := scalarString(val, "title")
			if err != nil {
				return err
			}
			m.Title = s
		case "url":
			m.HasURL = true
			if isNull(val) {
				m.URL = nil
				continue
			}
			s, err := scalarString(val, "url")
			if err != nil {
				return err
			}
			m.URL = &s
		case "type":
			s, err := scalarString(val, "type")
			if err != nil {
				return err
			}
			m.Type = s
		default:
			var v any
			if err := val.Decode(&v); err != nil {
				return err
			}
			if m.Extra == nil {
				m.Extra = make(map[string]any)
			}
			m.Extra[key.Value] = v
		}
	}
	return nil
}

// MarshalYAML writes known keys in a fixed order followed by sorted extras.
func (m Material) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	add := func(key string, val *yaml.Node) {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
			val,
		)
	}

	if m.Lesson != "" {
		add("lesson", strNode(m.Lesson))
	}
	if m.Title != "" {
		add("title", strNode(m.Title))
	}
	if m.URL != nil {
		add("url", strNode(*m.URL))
	} else if m.HasURL {
		add("url", &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"})
	}
	if m.Type != "" {
		add("type", strNode(m.Type))
	}

	keys := make([]string, 0, len(m.Extra))
	for k := range m.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		var v yaml.Node
		if err := v.Encode(m.Extra[k]); err != nil {
			return nil, fmt.Errorf("encode material key %q: %w", k, err)
		}
		add(k, &v)
	}
	return node, nil
}

// Date is a calendar date in "YYYY-MM-DD" form. It is kept as text so that
// malformed values reach the validator instead of failing the parse.
type Date string

// MarshalYAML emits well-formed dates as plain YAML timestamps so canonical
// output does not quote them.
func (d Date) MarshalYAML() (any, error) {
	if _, err := ParseDate(string(d)); err == nil {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!timestamp", Value: string(d)}, nil
	}
	return strNode(string(d)), nil
}

func strNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null"
}

func scalarString(n *yaml.Node, field string) (string, error) {
	if isNull(n) {
		return "", nil
	}
	if n.Kind != yaml.ScalarNode {
		return "", fmt.Errorf("line %d: %s must be a scalar", n.Line, field)
	}
	return n.Value, nil
}

// mappingValue returns the value node for key in a mapping node.
func mappingValue(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}
