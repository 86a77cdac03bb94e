// Package editor implements the generic record editor: schema-free editing
// of any record in a content tree, with path-based lookup and
// structural-sharing commits.
package editor

import (
	"github.com/folio-sh/folio/internal/content"
	"github.com/folio-sh/folio/internal/path"
)

// Session is the transient state for one in-progress edit. The draft is a
// deep copy of the target record; the original tree is never touched until
// Commit.
type Session struct {
	TargetPath path.Path
	Draft      content.Node
	IsNew      bool
}

// Lookup resolves a path inside a tree. It returns a path-not-found error
// when an intermediate segment does not resolve to a record or list, or
// when an index is out of range.
func Lookup(tree content.Node, p path.Path) (content.Node, *EditError) {
	node := tree
	for i, seg := range p.Segments {
		switch seg.Type {
		case path.SegmentField:
			rec, ok := node.(content.Record)
			if !ok {
				return nil, pathNotFound("segment %q of %q: not a record", seg.Field, p.Raw)
			}
			child, ok := rec[seg.Field]
			if !ok {
				return nil, pathNotFound("field %q not found in %q", seg.Field, p.Raw)
			}
			node = child
		case path.SegmentIndex:
			list, ok := node.(content.List)
			if !ok {
				return nil, pathNotFound("segment %d of %q: not a list", i, p.Raw)
			}
			if seg.Index < 0 || seg.Index >= len(list) {
				return nil, pathNotFound("index %d out of range in %q", seg.Index, p.Raw)
			}
			node = list[seg.Index]
		case path.SegmentAppend:
			return nil, pathNotFound("append sentinel cannot be resolved in %q", p.Raw)
		}
	}
	return node, nil
}

// BeginEdit opens an edit session for the record at p inside tree. When p
// ends with the append sentinel, the session starts from defaults (an empty
// record when defaults is nil) and Commit will append to the list at the
// sentinel's parent. The draft is always a deep copy.
func BeginEdit(tree content.Node, p path.Path, defaults content.Record) (*Session, error) {
	if p.IsAppend() {
		// The parent must already resolve to a list.
		parent, err := Lookup(tree, p.Parent())
		if err != nil {
			return nil, err
		}
		if _, ok := parent.(content.List); !ok {
			return nil, pathNotFound("append target %q is not a list", p.Parent().Raw)
		}
		draft := content.Record{}
		if defaults != nil {
			draft = defaults.Clone().(content.Record)
		}
		return &Session{TargetPath: p, Draft: draft, IsNew: true}, nil
	}

	node, err := Lookup(tree, p)
	if err != nil {
		return nil, err
	}
	return &Session{TargetPath: p, Draft: node.Clone()}, nil
}

// SetField replaces a field of the draft record. No coercion is performed:
// when the field already exists, the new value must be the same variant the
// field previously held.
func (s *Session) SetField(name string, value content.Node) error {
	rec, ok := s.Draft.(content.Record)
	if !ok {
		return validationErr("draft is %s, not a record", s.Draft.Kind())
	}
	if value == nil {
		return validationErr("field %q: nil value", name)
	}
	if prev, exists := rec[name]; exists && prev.Kind() != value.Kind() {
		return validationErr("field %q holds %s, got %s", name, prev.Kind(), value.Kind())
	}
	rec[name] = value
	return nil
}

// lookupList resolves a path inside the draft to a list.
func (s *Session) lookupList(fieldPath path.Path) (content.List, *EditError) {
	node, err := Lookup(s.Draft, fieldPath)
	if err != nil {
		return nil, err
	}
	list, ok := node.(content.List)
	if !ok {
		return nil, pathNotFound("%q is %s, not a list", fieldPath.Raw, node.Kind())
	}
	return list, nil
}

// AddListItem appends defaultValue to the list at fieldPath inside the
// draft. A nil defaultValue appends an empty string, matching the add
// control of a list-of-text field.
func (s *Session) AddListItem(fieldPath path.Path, defaultValue content.Node) error {
	list, err := s.lookupList(fieldPath)
	if err != nil {
		return err
	}
	if defaultValue == nil {
		defaultValue = content.String("")
	}
	return s.replaceInDraft(fieldPath, append(list, defaultValue.Clone()))
}

// RemoveListItem removes the element at index from the list at fieldPath.
// An out-of-range index is a silent no-op so UI interactions never throw.
func (s *Session) RemoveListItem(fieldPath path.Path, index int) error {
	list, err := s.lookupList(fieldPath)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(list) {
		return nil
	}
	next := make(content.List, 0, len(list)-1)
	next = append(next, list[:index]...)
	next = append(next, list[index+1:]...)
	return s.replaceInDraft(fieldPath, next)
}

// replaceInDraft swaps the node at fieldPath inside the draft. The draft is
// session-private, so in-place mutation of its containers is safe.
func (s *Session) replaceInDraft(fieldPath path.Path, value content.Node) error {
	if fieldPath.IsEmpty() {
		s.Draft = value
		return nil
	}
	parent, err := Lookup(s.Draft, fieldPath.Parent())
	if err != nil {
		return err
	}
	switch seg := fieldPath.Last(); seg.Type {
	case path.SegmentField:
		rec, ok := parent.(content.Record)
		if !ok {
			return pathNotFound("parent of %q is not a record", fieldPath.Raw)
		}
		rec[seg.Field] = value
	case path.SegmentIndex:
		list, ok := parent.(content.List)
		if !ok {
			return pathNotFound("parent of %q is not a list", fieldPath.Raw)
		}
		if seg.Index < 0 || seg.Index >= len(list) {
			return pathNotFound("index %d out of range in %q", seg.Index, fieldPath.Raw)
		}
		list[seg.Index] = value
	default:
		return pathNotFound("cannot replace at %q", fieldPath.Raw)
	}
	return nil
}

// Commit merges the draft back into tree at the session's target path and
// returns the new root. Ancestor records and lists along the path are
// shallow-copied; every subtree off the path is shared with the input tree.
// On error the input tree is returned unmodified.
func (s *Session) Commit(tree content.Node) (content.Node, error) {
	target := s.TargetPath
	if s.IsNew {
		// Append the draft to the list at the sentinel's parent.
		newRoot, err := replaceAt(tree, target.Parent().Segments, func(node content.Node) (content.Node, *EditError) {
			list, ok := node.(content.List)
			if !ok {
				return nil, pathNotFound("append target %q is not a list", target.Parent().Raw)
			}
			next := make(content.List, len(list), len(list)+1)
			copy(next, list)
			return append(next, s.Draft), nil
		})
		if err != nil {
			return tree, err
		}
		return newRoot, nil
	}

	newRoot, err := replaceAt(tree, target.Segments, func(content.Node) (content.Node, *EditError) {
		return s.Draft, nil
	})
	if err != nil {
		return tree, err
	}
	return newRoot, nil
}

// Discard releases the draft; the tree is untouched.
func (s *Session) Discard() {
	s.Draft = nil
}

// replaceAt rebuilds the spine from the root to the addressed node, applying
// fn to the node and shallow-copying each ancestor on the way back up.
func replaceAt(node content.Node, segs []path.Segment, fn func(content.Node) (content.Node, *EditError)) (content.Node, *EditError) {
	if len(segs) == 0 {
		return fn(node)
	}

	seg := segs[0]
	switch seg.Type {
	case path.SegmentField:
		rec, ok := node.(content.Record)
		if !ok {
			return nil, pathNotFound("segment %q: not a record", seg.Field)
		}
		child, ok := rec[seg.Field]
		if !ok {
			return nil, pathNotFound("field %q not found", seg.Field)
		}
		newChild, err := replaceAt(child, segs[1:], fn)
		if err != nil {
			return nil, err
		}
		next := make(content.Record, len(rec))
		for k, v := range rec {
			next[k] = v
		}
		next[seg.Field] = newChild
		return next, nil
	case path.SegmentIndex:
		list, ok := node.(content.List)
		if !ok {
			return nil, pathNotFound("segment %d: not a list", seg.Index)
		}
		if seg.Index < 0 || seg.Index >= len(list) {
			return nil, pathNotFound("index %d out of range", seg.Index)
		}
		newChild, err := replaceAt(list[seg.Index], segs[1:], fn)
		if err != nil {
			return nil, err
		}
		next := make(content.List, len(list))
		copy(next, list)
		next[seg.Index] = newChild
		return next, nil
	}
	return nil, pathNotFound("unexpected segment")
}
