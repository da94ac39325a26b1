package convert

import (
	"encoding/base64"
	"fmt"
	"math"
	"strconv"
	"unicode/utf8"

	"github.com/helml-lang/go-helml"
	"gopkg.in/yaml.v3"
)

// Tags of the YAML core schema used by the bridge.
const (
	tagNull   = "!!null"
	tagBool   = "!!bool"
	tagInt    = "!!int"
	tagFloat  = "!!float"
	tagStr    = "!!str"
	tagBinary = "!!binary"
)

// FromYAML parses the first YAML document in data. Mapping order is kept,
// aliases are resolved and !!binary scalars become binary strings. An
// empty document yields an empty map.
func FromYAML(data []byte) (helml.Value, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return helml.Value{}, err
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return helml.Of(helml.NewMap()), nil
	}
	r := &yamlReader{budget: nodeBudget(len(data))}
	return r.fromNode(doc.Content[0], 0)
}

// nodeBudget bounds the nodes built from a document of n bytes, so alias
// expansion cannot grow far beyond the input.
func nodeBudget(n int) int {
	return 64*n + 4096
}

// yamlReader converts a yaml.Node tree while counting the nodes it builds.
type yamlReader struct {
	budget int
}

func (r *yamlReader) fromNode(n *yaml.Node, depth int) (helml.Value, error) {
	if depth > helml.DefaultMaxDepth {
		return helml.Value{}, ErrTooDeep
	}
	if r.budget--; r.budget < 0 {
		return helml.Value{}, ErrTooLarge
	}

	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return helml.Null(), nil
		}
		return r.fromNode(n.Content[0], depth+1)
	case yaml.AliasNode:
		return r.fromNode(n.Alias, depth+1)
	case yaml.MappingNode:
		m := helml.NewMap()
		for i := 0; i+1 < len(n.Content); i += 2 {
			v, err := r.fromNode(n.Content[i+1], depth+1)
			if err != nil {
				return helml.Value{}, err
			}
			m.Set(n.Content[i].Value, v)
		}
		return helml.Of(m), nil
	case yaml.SequenceNode:
		l := helml.NewList()
		for _, item := range n.Content {
			v, err := r.fromNode(item, depth+1)
			if err != nil {
				return helml.Value{}, err
			}
			l.Append(v)
		}
		return helml.Of(l), nil
	case yaml.ScalarNode:
		return fromScalar(n)
	}
	return helml.Value{}, fmt.Errorf("convert: line %d: unsupported YAML node", n.Line)
}

func fromScalar(n *yaml.Node) (helml.Value, error) {
	switch n.ShortTag() {
	case tagNull:
		return helml.Null(), nil
	case tagBool:
		var b bool
		if err := n.Decode(&b); err != nil {
			return helml.Value{}, err
		}
		return helml.Bool(b), nil
	case tagInt:
		var i int64
		if err := n.Decode(&i); err == nil {
			return helml.Int(i), nil
		}
		var f float64
		if err := n.Decode(&f); err != nil {
			return helml.Value{}, err
		}
		return helml.Float(f), nil
	case tagFloat:
		var f float64
		if err := n.Decode(&f); err != nil {
			return helml.Value{}, err
		}
		return helml.Float(f), nil
	case tagBinary:
		var s string
		if err := n.Decode(&s); err != nil {
			return helml.Value{}, err
		}
		return helml.String(s), nil
	}
	return helml.String(n.Value), nil
}

// ToYAML renders v as a YAML document. Strings that are not valid UTF-8
// are written as !!binary.
func ToYAML(v helml.Value) ([]byte, error) {
	n, err := toNode(v, 0)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(n)
}

func toNode(v helml.Value, depth int) (*yaml.Node, error) {
	if depth > helml.DefaultMaxDepth {
		return nil, ErrTooDeep
	}

	switch v.Kind() {
	case helml.KindNull:
		return scalar(tagNull, "null"), nil
	case helml.KindBool:
		return scalar(tagBool, strconv.FormatBool(v.AsBool())), nil
	case helml.KindInt:
		return scalar(tagInt, strconv.FormatInt(v.AsInt(), 10)), nil
	case helml.KindFloat:
		return scalar(tagFloat, formatFloat(v.AsFloat())), nil
	case helml.KindString:
		s := v.AsString()
		if !utf8.ValidString(s) {
			return scalar(tagBinary, base64.StdEncoding.EncodeToString([]byte(s))), nil
		}
		return scalar(tagStr, s), nil
	}

	c := v.Container()
	if c.IsList() {
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range c.Values() {
			child, err := toNode(item, depth+1)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, child)
		}
		return n, nil
	}

	n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for key, item := range c.All() {
		child, err := toNode(item, depth+1)
		if err != nil {
			return nil, err
		}
		n.Content = append(n.Content, scalar(tagStr, key), child)
	}
	return n, nil
}

func scalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return ".nan"
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		s += ".0"
	}
	return s
}
