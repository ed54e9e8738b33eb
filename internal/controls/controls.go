// Package controls reads security control mappings: a YAML mapping from
// control IDs (such as AC-2) to the component that implements them.
package controls

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Control is one mapped security control
type Control struct {
	ID        string `yaml:"-" json:"id"`
	Name      string `yaml:"name" json:"name"`
	Component string `yaml:"component" json:"component"`
	Notes     string `yaml:"notes" json:"notes"`
}

// LoadFile loads the controls of a mapping file in document order
func LoadFile(path string) ([]Control, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is the user's argument
	if err != nil {
		return nil, fmt.Errorf("failed to read control mapping: %w", err)
	}

	controls, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return controls, nil
}

// Parse parses a control mapping document
func Parse(data []byte) ([]Control, error) {
	var doc yaml.Node
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("control mapping is empty")
		}
		return nil, err
	}

	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("control mapping must be a YAML mapping, got %s", kindName(root.Kind))
	}

	controls := make([]Control, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]

		var c Control
		if value.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("control %s (line %d): expected a mapping of name, component, notes", key.Value, value.Line)
		}
		if err := value.Decode(&c); err != nil {
			return nil, fmt.Errorf("control %s: %w", key.Value, err)
		}
		c.ID = key.Value
		controls = append(controls, c)
	}

	return controls, nil
}

// Format renders controls one block each:
//
//	AC-2: Account Management
//	  Component: identity-service
//	  Notes: ...
func Format(controls []Control) string {
	var sb strings.Builder
	for _, c := range controls {
		fmt.Fprintf(&sb, "%s: %s\n", c.ID, c.Name)
		fmt.Fprintf(&sb, "  Component: %s\n", c.Component)
		fmt.Fprintf(&sb, "  Notes: %s\n\n", c.Notes)
	}
	return sb.String()
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "empty document"
	}
}
