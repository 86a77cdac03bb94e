package editor

import (
	"regexp"
	"strings"

	"github.com/folio-sh/folio/internal/content"
)

// InputKind identifies the input affordance inferred for a field.
type InputKind int

const (
	InputText     InputKind = iota // single-line text box
	InputTextArea                  // multi-line text box
	InputList                      // growable list of inputs
	InputRecord                    // nested sub-editor
)

// String returns the affordance name used in wire payloads.
func (k InputKind) String() string {
	switch k {
	case InputText:
		return "text"
	case InputTextArea:
		return "textarea"
	case InputList:
		return "list"
	case InputRecord:
		return "record"
	}
	return "text"
}

// InputDescriptor describes how one field of a draft should be rendered.
// The shape is inferred from the runtime kind of the current value; no
// schema is consulted.
type InputDescriptor struct {
	Name     string                     `json:"name"`
	Kind     string                     `json:"kind"`
	Value    any                        `json:"value,omitempty"`
	Fields   map[string]InputDescriptor `json:"fields,omitempty"`   // for record
	Elements []InputDescriptor          `json:"elements,omitempty"` // one per list row
	Default  any                        `json:"default,omitempty"`  // shape appended by the add control
}

// Field names matching this pattern get a multi-line input.
var longFormPattern = regexp.MustCompile(`description|story|content|bio|summary`)

// isLongForm reports whether a field name implies long-form text.
func isLongForm(name string) bool {
	return longFormPattern.MatchString(strings.ToLower(name))
}

// Describe infers the input affordance for a named value. Records produce
// one sub-descriptor per key recursively; lists produce one row per element
// plus the default shape their add control appends; primitives produce a
// single-line input unless the field name implies long-form text.
func Describe(name string, node content.Node) InputDescriptor {
	desc := InputDescriptor{Name: name}

	switch nv := node.(type) {
	case content.Record:
		desc.Kind = InputRecord.String()
		desc.Fields = make(map[string]InputDescriptor, len(nv))
		for _, key := range nv.Keys() {
			desc.Fields[key] = Describe(key, nv[key])
		}
	case content.List:
		desc.Kind = InputList.String()
		desc.Elements = make([]InputDescriptor, len(nv))
		for i, elem := range nv {
			desc.Elements[i] = Describe(name, elem)
		}
		desc.Default = content.ToValue(listDefault(nv))
	default:
		if node.Kind() == content.KindString && isLongForm(name) {
			desc.Kind = InputTextArea.String()
		} else {
			desc.Kind = InputText.String()
		}
		desc.Value = content.ToValue(node)
	}

	return desc
}

// DescribeDraft describes every field of a draft record, keyed by name.
func DescribeDraft(draft content.Node) map[string]InputDescriptor {
	rec, ok := draft.(content.Record)
	if !ok {
		return nil
	}
	out := make(map[string]InputDescriptor, len(rec))
	for _, key := range rec.Keys() {
		out[key] = Describe(key, rec[key])
	}
	return out
}

// listDefault picks the shape the add control appends: an empty string for
// lists of text, an emptied copy of the first element for lists of records.
func listDefault(list content.List) content.Node {
	if len(list) == 0 {
		return content.String("")
	}
	if rec, ok := list[0].(content.Record); ok {
		blank := make(content.Record, len(rec))
		for k, v := range rec {
			blank[k] = blankValue(v)
		}
		return blank
	}
	return content.String("")
}

// blankValue returns a zero value of the same kind as v.
func blankValue(v content.Node) content.Node {
	switch v.Kind() {
	case content.KindNumber:
		return content.Number(0)
	case content.KindBool:
		return content.Bool(false)
	case content.KindRecord:
		return content.Record{}
	case content.KindList:
		return content.List{}
	}
	return content.String("")
}
