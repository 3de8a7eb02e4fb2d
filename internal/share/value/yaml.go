package value

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// YAML tags understood by FromYAML and produced by MarshalYAML.
const (
	// TagSymbol marks a scalar as an interned symbol: `!sym ready`.
	TagSymbol = "!sym"
	// TagMutable leaves a text, list or table unfrozen: `!mutable [1, 2]`.
	TagMutable = "!mutable"

	tagCycle  = "!cycle"
	tagShared = "!shared"
	tagHost   = "!host"
)

// MarshalYAML implements yaml.Marshaler.
//
// Frozen composites encode as plain YAML; mutable ones carry the !mutable tag
// and symbols the !sym tag, so FromYAML restores the same shape. A composite
// reached again while it is being encoded is written as a !cycle scalar.
// Shared and host objects encode as descriptive scalars and do not round-trip.
func (v Value) MarshalYAML() (interface{}, error) {
	e := yamlEncoder{}
	return e.node(v), nil
}

type yamlEncoder struct {
	path []any
}

func (e *yamlEncoder) onPath(ref any) bool {
	for _, r := range e.path {
		if r == ref {
			return true
		}
	}
	return false
}

func scalar(tag, val string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: val}
}

func (e *yamlEncoder) node(v Value) *yaml.Node {
	switch v.kind {
	case KindNull:
		return scalar("!!null", "null")
	case KindBool:
		return scalar("!!bool", strconv.FormatBool(v.bits != 0))
	case KindInt:
		return scalar("!!int", strconv.FormatInt(int64(v.bits), 10))
	case KindFloat:
		return scalar("!!float", formatYAMLFloat(math.Float64frombits(v.bits)))
	case KindSymbol:
		return scalar(TagSymbol, v.ref.(*symEntry).name)
	case KindText:
		t := v.ref.(*Text)
		n := scalar("!!str", t.String())
		if !t.Frozen() {
			n.Tag = TagMutable
			n.Style = yaml.DoubleQuotedStyle
		}
		return n
	case KindList:
		l := v.ref.(*List)
		if e.onPath(l) {
			return scalar(tagCycle, "list")
		}
		e.path = append(e.path, l)
		defer func() { e.path = e.path[:len(e.path)-1] }()
		n := &yaml.Node{Kind: yaml.SequenceNode}
		if !l.Frozen() {
			n.Tag = TagMutable
		}
		for _, el := range l.view() {
			n.Content = append(n.Content, e.node(el))
		}
		return n
	case KindTable:
		t := v.ref.(*Table)
		if e.onPath(t) {
			return scalar(tagCycle, "table")
		}
		e.path = append(e.path, t)
		defer func() { e.path = e.path[:len(e.path)-1] }()
		n := &yaml.Node{Kind: yaml.MappingNode}
		if !t.Frozen() {
			n.Tag = TagMutable
		}
		t.Range(func(k string, el Value) bool {
			n.Content = append(n.Content, scalar("!!str", k), e.node(el))
			return true
		})
		return n
	case KindShared:
		s := v.ref.(Shared)
		return scalar(tagShared, s.SharedKind()+" "+s.SharedID().String())
	case KindHost:
		return scalar(tagHost, typeName(v.ref))
	}
	return scalar("!!null", "null")
}

func formatYAMLFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return ".nan"
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEn") {
		s += ".0"
	}
	return s
}

// FromYAML converts a parsed YAML node into a Value.
//
// Scalars map onto primitives by their resolved tag; strings become frozen
// text. Sequences become frozen lists and mappings frozen tables with string
// keys, unless tagged !mutable. An alias yields the very composite built for
// its anchor, so a document can express shared substructure.
func FromYAML(n *yaml.Node) (Value, error) {
	d := yamlDecoder{anchors: map[*yaml.Node]Value{}}
	return d.value(n)
}

// DecodeAll reads every YAML document from r.
func DecodeAll(r io.Reader) ([]Value, error) {
	dec := yaml.NewDecoder(r)
	var out []Value
	for i := 0; ; i++ {
		var doc yaml.Node
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return out, fmt.Errorf("document %d: %w", i, err)
		}
		v, err := FromYAML(&doc)
		if err != nil {
			return out, fmt.Errorf("document %d: %w", i, err)
		}
		out = append(out, v)
	}
}

type yamlDecoder struct {
	anchors map[*yaml.Node]Value
}

func (d *yamlDecoder) value(n *yaml.Node) (Value, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Null(), nil
		}
		return d.value(n.Content[0])
	case yaml.AliasNode:
		if v, ok := d.anchors[n.Alias]; ok {
			return v, nil
		}
		return d.value(n.Alias)
	case yaml.ScalarNode:
		v, err := d.scalar(n)
		if err == nil && n.Anchor != "" {
			d.anchors[n] = v
		}
		return v, err
	case yaml.SequenceNode:
		l := NewList()
		v := ListOf(l)
		d.anchors[n] = v
		for _, c := range n.Content {
			el, err := d.value(c)
			if err != nil {
				return Null(), err
			}
			_ = l.Append(el)
		}
		if n.Tag != TagMutable {
			l.Freeze()
		}
		return v, nil
	case yaml.MappingNode:
		t := NewTable()
		v := TableOf(t)
		d.anchors[n] = v
		for i := 0; i+1 < len(n.Content); i += 2 {
			kn := n.Content[i]
			if kn.Kind != yaml.ScalarNode {
				return Null(), fmt.Errorf("line %d: table keys must be scalars", kn.Line)
			}
			el, err := d.value(n.Content[i+1])
			if err != nil {
				return Null(), err
			}
			_ = t.Set(kn.Value, el)
		}
		if n.Tag != TagMutable {
			t.Freeze()
		}
		return v, nil
	}
	return Null(), fmt.Errorf("line %d: unsupported YAML node kind %d", n.Line, n.Kind)
}

func (d *yamlDecoder) scalar(n *yaml.Node) (Value, error) {
	switch n.Tag {
	case TagSymbol:
		return Symbol(n.Value), nil
	case TagMutable:
		return TextOf(NewText(n.Value)), nil
	}
	switch tag := n.ShortTag(); tag {
	case "!!null":
		return Null(), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return Null(), err
		}
		return Bool(b), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			return Null(), err
		}
		return Int(i), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return Null(), err
		}
		return Float(f), nil
	case "!!str", "!!timestamp":
		return Str(n.Value), nil
	default:
		return Null(), fmt.Errorf("line %d: unsupported tag %s", n.Line, tag)
	}
}
