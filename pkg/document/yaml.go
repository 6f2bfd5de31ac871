package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

var (
	// ErrNoDocument is returned when the input holds no document at all.
	ErrNoDocument = errors.New("no document")
	// ErrTrailingContent is returned when more than one document follows
	// the first one.
	ErrTrailingContent = errors.New("malformed trailing content")
)

// ParseYAML decodes a YAML (and therefore JSON) document into a Value,
// preserving mapping order.
func ParseYAML(data []byte) (Value, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var root yaml.Node
	if err := dec.Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return Value{}, ErrNoDocument
		}
		return Value{}, fmt.Errorf("parse document: %w", err)
	}
	var extra yaml.Node
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return Value{}, ErrTrailingContent
	}
	return fromNode(&root)
}

func fromNode(n *yaml.Node) (Value, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Null(), nil
		}
		return fromNode(n.Content[0])
	case yaml.AliasNode:
		return fromNode(n.Alias)
	case yaml.SequenceNode:
		items := make([]Value, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := fromNode(c)
			if err != nil {
				return Value{}, err
			}
			items = append(items, v)
		}
		return List(items...), nil
	case yaml.MappingNode:
		m := NewMap()
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i]
			if k.Kind == yaml.AliasNode {
				k = k.Alias
			}
			if k.Kind != yaml.ScalarNode {
				return Value{}, fmt.Errorf("line %d: mapping key must be a scalar", k.Line)
			}
			if m.Has(k.Value) {
				return Value{}, fmt.Errorf("line %d: duplicate key %q", k.Line, k.Value)
			}
			v, err := fromNode(n.Content[i+1])
			if err != nil {
				return Value{}, err
			}
			m.Set(k.Value, v)
		}
		return FromMap(m), nil
	case yaml.ScalarNode:
		return fromScalar(n)
	}
	return Value{}, fmt.Errorf("line %d: unsupported node kind %d", n.Line, n.Kind)
}

func fromScalar(n *yaml.Node) (Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return Null(), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return Value{}, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return Bool(b), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			// Out of int64 range; keep the literal.
			return Number(n.Value), nil
		}
		return Int(i), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return Value{}, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return Float(f), nil
	}
	return String(n.Value), nil
}
