// Package content defines the tree-shaped data model underlying all site
// content: a tagged union of primitives, records, and lists.
package content

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Kind identifies the variant of a content node.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindBool
	KindRecord
	KindList
)

// String returns the kind name used in error messages and wire payloads.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindRecord:
		return "record"
	case KindList:
		return "list"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// IsPrimitive reports whether the kind is a leaf value.
func (k Kind) IsPrimitive() bool {
	return k == KindString || k == KindNumber || k == KindBool
}

// Node is a content tree value. Trees are acyclic: no constructor or
// editing operation ever introduces a back-reference.
type Node interface {
	Kind() Kind

	// Clone returns a deep copy that shares no mutable state with the
	// receiver.
	Clone() Node
}

// String is a string-valued leaf.
type String string

// Number is a numeric leaf (JSON numbers decode to float64).
type Number float64

// Bool is a boolean leaf.
type Bool bool

// Record maps field names to child nodes. Field order is irrelevant.
type Record map[string]Node

// List is an ordered sequence of child nodes.
type List []Node

func (String) Kind() Kind { return KindString }
func (Number) Kind() Kind { return KindNumber }
func (Bool) Kind() Kind   { return KindBool }
func (Record) Kind() Kind { return KindRecord }
func (List) Kind() Kind   { return KindList }

func (s String) Clone() Node { return s }
func (n Number) Clone() Node { return n }
func (b Bool) Clone() Node   { return b }

func (r Record) Clone() Node {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v.Clone()
	}
	return out
}

func (l List) Clone() Node {
	out := make(List, len(l))
	for i, v := range l {
		out[i] = v.Clone()
	}
	return out
}

// Keys returns the record's field names in sorted order.
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Equal reports deep equality of two nodes. Nodes of different kinds are
// never equal.
func Equal(a, b Node) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case String:
		return av == b.(String)
	case Number:
		return av == b.(Number)
	case Bool:
		return av == b.(Bool)
	case Record:
		bv := b.(Record)
		if len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			other, ok := bv[k]
			if !ok || !Equal(v, other) {
				return false
			}
		}
		return true
	case List:
		bv := b.(List)
		if len(av) != len(bv) {
			return false
		}
		for i, v := range av {
			if !Equal(v, bv[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// FromValue converts a decoded JSON value (string, float64, bool,
// map[string]any, []any) into a Node.
func FromValue(v any) (Node, error) {
	switch tv := v.(type) {
	case string:
		return String(tv), nil
	case float64:
		return Number(tv), nil
	case bool:
		return Bool(tv), nil
	case int:
		return Number(tv), nil
	case int64:
		return Number(tv), nil
	case map[string]any:
		rec := make(Record, len(tv))
		for k, child := range tv {
			node, err := FromValue(child)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", k, err)
			}
			rec[k] = node
		}
		return rec, nil
	case []any:
		list := make(List, len(tv))
		for i, child := range tv {
			node, err := FromValue(child)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			list[i] = node
		}
		return list, nil
	case nil:
		// JSON null collapses to the empty string; the model has no
		// null variant.
		return String(""), nil
	}
	return nil, fmt.Errorf("unsupported value type %T", v)
}

// ToValue converts a Node back into a plain JSON-ready value.
func ToValue(n Node) any {
	switch nv := n.(type) {
	case String:
		return string(nv)
	case Number:
		return float64(nv)
	case Bool:
		return bool(nv)
	case Record:
		out := make(map[string]any, len(nv))
		for k, v := range nv {
			out[k] = ToValue(v)
		}
		return out
	case List:
		out := make([]any, len(nv))
		for i, v := range nv {
			out[i] = ToValue(v)
		}
		return out
	}
	return nil
}

// FromJSON decodes a JSON document into a Node.
func FromJSON(data []byte) (Node, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return FromValue(raw)
}

// ToJSON encodes a Node as JSON.
func ToJSON(n Node) ([]byte, error) {
	return json.Marshal(ToValue(n))
}
