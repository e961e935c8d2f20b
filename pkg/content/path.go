package content

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ohler55/ojg/jp"
)

// PadValue fills array slots skipped by Apply when a path addresses an index
// past the end of a list. It matches the default of AddItem so padded rows
// stay text editable.
const PadValue = ""

// MaxIndex is the largest array index a path may address. Apply pads at
// most this many slots.
const MaxIndex = 9999

// ErrIndexOutOfRange is returned for paths addressing an index above MaxIndex.
var ErrIndexOutOfRange = errors.New("array index out of range")

// Path addresses a node inside a tree. A segment made only of decimal
// digits is an array index; anything else is an object key.
type Path []string

// PathOf builds a Path from strings and non-negative ints.
func PathOf(segments ...any) Path {
	p := make(Path, 0, len(segments))
	for _, s := range segments {
		switch v := s.(type) {
		case int:
			p = append(p, strconv.Itoa(v))
		default:
			p = append(p, fmt.Sprint(v))
		}
	}
	return p
}

// Append returns a new path with seg added; p is not modified.
func (p Path) Append(seg string) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, seg)
}

// AppendIndex is Append for an array index.
func (p Path) AppendIndex(i int) Path {
	return p.Append(strconv.Itoa(i))
}

// Parent returns p without its last segment. The parent of the root is the root.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return Path{}
	}
	return append(Path{}, p[:len(p)-1]...)
}

// Last returns the final segment, or "" for the root.
func (p Path) Last() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

func (p Path) Equal(o Path) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

// SegmentIndex reports whether seg addresses an array index. Every
// all-digit segment does; indexes too large for an int come back as
// math.MaxInt.
func SegmentIndex(seg string) (int, bool) {
	if seg == "" {
		return 0, false
	}
	for i := 0; i < len(seg); i++ {
		if seg[i] < '0' || seg[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(seg)
	if err != nil {
		return math.MaxInt, true
	}
	return n, true
}

// Validate rejects paths with an index segment above MaxIndex.
func (p Path) Validate() error {
	for _, seg := range p {
		if i, ok := SegmentIndex(seg); ok && i > MaxIndex {
			return fmt.Errorf("%w: %s (max %d)", ErrIndexOutOfRange, seg, MaxIndex)
		}
	}
	return nil
}

// Expr converts p into a JSONPath expression.
func (p Path) Expr() jp.Expr {
	x := jp.R()
	for _, seg := range p {
		if i, ok := SegmentIndex(seg); ok {
			x = x.N(i)
		} else {
			x = x.C(seg)
		}
	}
	return x
}

// String renders p in JSONPath notation, e.g. $.list[2].name.
func (p Path) String() string {
	return p.Expr().String()
}

// ParsePath parses JSONPath notation. Only child keys and non-negative
// indexes are allowed; the leading "$" is optional.
func ParsePath(s string) (Path, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "$" {
		return Path{}, nil
	}
	if !strings.HasPrefix(s, "$") {
		if strings.HasPrefix(s, "[") {
			s = "$" + s
		} else {
			s = "$." + s
		}
	}
	x, err := jp.ParseString(s)
	if err != nil {
		return nil, fmt.Errorf("parse path %q: %w", s, err)
	}
	p := make(Path, 0, len(x))
	for _, frag := range x {
		switch f := frag.(type) {
		case jp.Root, jp.At, jp.Bracket:
		case jp.Child:
			p = append(p, string(f))
		case jp.Nth:
			if f < 0 {
				return nil, fmt.Errorf("parse path %q: negative index %d", s, int(f))
			}
			p = append(p, strconv.Itoa(int(f)))
		default:
			return nil, fmt.Errorf("parse path %q: unsupported fragment %T", s, frag)
		}
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("parse path %q: %w", s, err)
	}
	return p, nil
}

// UnmarshalJSON accepts either a JSONPath string or an array of keys and
// non-negative integer indexes.
func (p *Path) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := ParsePath(s)
		if err != nil {
			return err
		}
		*p = parsed
		return nil
	}
	var raw []any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("path: %w", err)
	}
	out := make(Path, 0, len(raw))
	for _, r := range raw {
		switch v := r.(type) {
		case string:
			out = append(out, v)
		case json.Number:
			if _, ok := SegmentIndex(v.String()); !ok {
				return fmt.Errorf("path: invalid index %s", v)
			}
			out = append(out, v.String())
		default:
			return fmt.Errorf("path: invalid segment %v", r)
		}
	}
	if err := out.Validate(); err != nil {
		return fmt.Errorf("path: %w", err)
	}
	*p = out
	return nil
}

// Read returns the node at path. The boolean is false when the path does
// not exist in tree, including when a segment's kind does not match the
// node it addresses.
func Read(tree Node, path Path) (Node, bool) {
	cur := tree
	for _, seg := range path {
		var ok bool
		if i, isIndex := SegmentIndex(seg); isIndex {
			cur, ok = cur.Index(i)
		} else {
			cur, ok = cur.Get(seg)
		}
		if !ok {
			return Node{}, false
		}
	}
	return cur, true
}

// Apply returns a copy of tree with the node at path replaced by value.
// Missing containers along the path are created, an array when the next
// segment is an index and an object otherwise. An existing node whose type
// conflicts with the segment addressing into it is replaced by a fresh
// container. Neither tree nor value is modified. A path that fails
// Validate leaves the tree unchanged.
func Apply(tree Node, path Path, value Node) Node {
	if len(path) == 0 {
		return value.Clone()
	}
	if path.Validate() != nil {
		return tree.Clone()
	}
	return assign(tree.Clone(), path, value.Clone())
}

// assign writes value at path inside n, which must be owned by the caller.
func assign(n Node, path Path, value Node) Node {
	if len(path) == 0 {
		return value
	}
	seg := path[0]
	if idx, ok := SegmentIndex(seg); ok {
		if n.t != TypeArray {
			n = Array()
		}
		for len(n.arr) <= idx {
			n.arr = append(n.arr, String(PadValue))
		}
		n.arr[idx] = assign(n.arr[idx], path[1:], value)
		return n
	}
	if n.t != TypeObject {
		n = Object()
	}
	child, _ := n.obj.Get(seg)
	n.set(seg, assign(child, path[1:], value))
	return n
}
