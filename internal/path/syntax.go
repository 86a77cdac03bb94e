// Package path implements the dot-separated syntax used to address nodes
// inside a content tree.
package path

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// SegmentType identifies the type of path segment.
type SegmentType int

const (
	SegmentField  SegmentType = iota // Record field: title
	SegmentIndex                     // List index: 0, 1, 2 (0-based)
	SegmentAppend                    // List-append sentinel: +
)

// Segment represents a single path segment.
type Segment struct {
	Type  SegmentType
	Field string // field name for SegmentField
	Index int    // for SegmentIndex (0-based)
}

// Path represents a parsed content path.
type Path struct {
	Segments []Segment
	Raw      string // original path string
}

var (
	fieldPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_-]*$`)
	indexPattern = regexp.MustCompile(`^(0|[1-9][0-9]*)$`)
)

// Parse splits a path string into segments.
// Examples:
//   - "photos" -> field access
//   - "photos.2.title" -> field.index.field
//   - "photos.+" -> append to the photos list
//   - "" -> the root node
func Parse(pathStr string) (Path, error) {
	p := Path{Raw: pathStr}

	if pathStr == "" {
		return p, nil
	}

	parts := strings.Split(pathStr, ".")
	for i, part := range parts {
		if part == "+" {
			if i != len(parts)-1 {
				return Path{}, fmt.Errorf("append sentinel must be the last segment in %q", pathStr)
			}
			p.Segments = append(p.Segments, Segment{Type: SegmentAppend})
			continue
		}

		if indexPattern.MatchString(part) {
			idx, _ := strconv.Atoi(part)
			p.Segments = append(p.Segments, Segment{Type: SegmentIndex, Index: idx})
			continue
		}

		if fieldPattern.MatchString(part) {
			p.Segments = append(p.Segments, Segment{Type: SegmentField, Field: part})
			continue
		}

		return Path{}, fmt.Errorf("invalid path segment %q in %q", part, pathStr)
	}

	return p, nil
}

// MustParse parses a path and panics on error. For tests and literals.
func MustParse(pathStr string) Path {
	p, err := Parse(pathStr)
	if err != nil {
		panic(err)
	}
	return p
}

// String reconstructs the path string.
func (p Path) String() string {
	parts := make([]string, len(p.Segments))
	for i, seg := range p.Segments {
		switch seg.Type {
		case SegmentAppend:
			parts[i] = "+"
		case SegmentIndex:
			parts[i] = strconv.Itoa(seg.Index)
		case SegmentField:
			parts[i] = seg.Field
		}
	}
	return strings.Join(parts, ".")
}

// IsEmpty returns true if the path has no segments.
func (p Path) IsEmpty() bool {
	return len(p.Segments) == 0
}

// Len returns the number of segments.
func (p Path) Len() int {
	return len(p.Segments)
}

// Last returns the final segment. The path must be non-empty.
func (p Path) Last() Segment {
	return p.Segments[len(p.Segments)-1]
}

// Parent returns the path with its final segment removed.
func (p Path) Parent() Path {
	if p.IsEmpty() {
		return p
	}
	parent := Path{Segments: p.Segments[:len(p.Segments)-1]}
	parent.Raw = parent.String()
	return parent
}

// IsAppend reports whether the path ends with the list-append sentinel.
func (p Path) IsAppend() bool {
	return !p.IsEmpty() && p.Last().Type == SegmentAppend
}

// GetField returns the field name if this is a field segment.
func (s Segment) GetField() (string, bool) {
	if s.Type == SegmentField {
		return s.Field, true
	}
	return "", false
}

// GetIndex returns the 0-based index if this is an index segment.
func (s Segment) GetIndex() (int, bool) {
	if s.Type == SegmentIndex {
		return s.Index, true
	}
	return 0, false
}
