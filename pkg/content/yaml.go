package content

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// MarshalYAML keeps object key order by building the yaml.Node tree directly.
func (n Node) MarshalYAML() (any, error) {
	return n.yamlNode()
}

func (n Node) yamlNode() (*yaml.Node, error) {
	switch n.t {
	case TypeObject:
		out := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for p := n.obj.Oldest(); p != nil; p = p.Next() {
			val, err := p.Value.yamlNode()
			if err != nil {
				return nil, err
			}
			key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: p.Key}
			out.Content = append(out.Content, key, val)
		}
		return out, nil
	case TypeArray:
		out := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, it := range n.arr {
			val, err := it.yamlNode()
			if err != nil {
				return nil, err
			}
			out.Content = append(out.Content, val)
		}
		return out, nil
	}
	out := &yaml.Node{}
	if err := out.Encode(n.Interface()); err != nil {
		return nil, err
	}
	return out, nil
}

func (n *Node) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.DocumentNode:
		if len(value.Content) == 0 {
			*n = Null()
			return nil
		}
		return n.UnmarshalYAML(value.Content[0])
	case yaml.AliasNode:
		if value.Alias == nil {
			return fmt.Errorf("content: dangling yaml alias at line %d", value.Line)
		}
		return n.UnmarshalYAML(value.Alias)
	case yaml.MappingNode:
		fields := make([]Field, 0, len(value.Content)/2)
		for i := 0; i+1 < len(value.Content); i += 2 {
			var child Node
			if err := child.UnmarshalYAML(value.Content[i+1]); err != nil {
				return err
			}
			fields = append(fields, F(value.Content[i].Value, child))
		}
		*n = Object(fields...)
	case yaml.SequenceNode:
		items := make([]Node, len(value.Content))
		for i, c := range value.Content {
			if err := items[i].UnmarshalYAML(c); err != nil {
				return err
			}
		}
		*n = Array(items...)
	default:
		var v any
		if err := value.Decode(&v); err != nil {
			return err
		}
		*n = FromValue(v)
	}
	return nil
}
