// Package content implements the schema-less, localized content tree editor:
// path based copy-on-write mutation, node classification, recursive editing
// widgets, array templating and per-locale drafts of a page section.
package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Type is the structural type of a Node.
type Type uint8

const (
	TypeNull Type = iota
	TypeString
	TypeNumber
	TypeBool
	TypeObject
	TypeArray
)

var typeNames = [...]string{"null", "string", "number", "boolean", "object", "array"}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("type(%d)", t)
}

// Node is one value of a content tree. The zero Node is null.
//
// Nodes are treated as values: every operation in this package that
// "changes" a tree returns a new one and leaves its inputs untouched.
type Node struct {
	t   Type
	s   string
	n   float64
	b   bool
	obj *orderedmap.OrderedMap[string, Node]
	arr []Node
}

// Field is a key/value pair of an object node.
type Field struct {
	Key   string
	Value Node
}

// F is shorthand for building object fields.
func F(key string, value Node) Field {
	return Field{Key: key, Value: value}
}

func Null() Node              { return Node{} }
func String(s string) Node    { return Node{t: TypeString, s: s} }
func Number(f float64) Node   { return Node{t: TypeNumber, n: f} }
func Bool(b bool) Node        { return Node{t: TypeBool, b: b} }
func Array(items ...Node) Node { return Node{t: TypeArray, arr: append([]Node{}, items...)} }

// Object builds an object node keeping the order of fields. A repeated key
// keeps its first position and takes the last value.
func Object(fields ...Field) Node {
	om := orderedmap.New[string, Node]()
	for _, f := range fields {
		om.Set(f.Key, f.Value)
	}
	return Node{t: TypeObject, obj: om}
}

func (n Node) Type() Type     { return n.t }
func (n Node) IsNull() bool   { return n.t == TypeNull }
func (n Node) IsObject() bool { return n.t == TypeObject }
func (n Node) IsArray() bool  { return n.t == TypeArray }

func (n Node) AsString() (string, bool) { return n.s, n.t == TypeString }
func (n Node) AsNumber() (float64, bool) { return n.n, n.t == TypeNumber }
func (n Node) AsBool() (bool, bool)     { return n.b, n.t == TypeBool }

// Len returns the number of children of an object or array, 0 otherwise.
func (n Node) Len() int {
	switch n.t {
	case TypeObject:
		return n.obj.Len()
	case TypeArray:
		return len(n.arr)
	}
	return 0
}

// Get looks up key in an object node.
func (n Node) Get(key string) (Node, bool) {
	if n.t != TypeObject {
		return Node{}, false
	}
	return n.obj.Get(key)
}

// Index returns the i-th element of an array node.
func (n Node) Index(i int) (Node, bool) {
	if n.t != TypeArray || i < 0 || i >= len(n.arr) {
		return Node{}, false
	}
	return n.arr[i], true
}

// Keys returns object keys in insertion order.
func (n Node) Keys() []string {
	if n.t != TypeObject {
		return nil
	}
	keys := make([]string, 0, n.obj.Len())
	for p := n.obj.Oldest(); p != nil; p = p.Next() {
		keys = append(keys, p.Key)
	}
	return keys
}

// Fields returns object fields in insertion order.
func (n Node) Fields() []Field {
	if n.t != TypeObject {
		return nil
	}
	fields := make([]Field, 0, n.obj.Len())
	for p := n.obj.Oldest(); p != nil; p = p.Next() {
		fields = append(fields, Field{Key: p.Key, Value: p.Value})
	}
	return fields
}

// Items returns a copy of the element slice of an array node.
func (n Node) Items() []Node {
	if n.t != TypeArray {
		return nil
	}
	return append([]Node{}, n.arr...)
}

// Clone returns a deep copy of n.
func (n Node) Clone() Node {
	switch n.t {
	case TypeObject:
		om := orderedmap.New[string, Node]()
		for p := n.obj.Oldest(); p != nil; p = p.Next() {
			om.Set(p.Key, p.Value.Clone())
		}
		return Node{t: TypeObject, obj: om}
	case TypeArray:
		arr := make([]Node, len(n.arr))
		for i := range n.arr {
			arr[i] = n.arr[i].Clone()
		}
		return Node{t: TypeArray, arr: arr}
	}
	return n
}

// Equal reports structural equality. Object key order is significant.
func (n Node) Equal(o Node) bool {
	if n.t != o.t {
		return false
	}
	switch n.t {
	case TypeNull:
		return true
	case TypeString:
		return n.s == o.s
	case TypeNumber:
		return n.n == o.n
	case TypeBool:
		return n.b == o.b
	case TypeArray:
		if len(n.arr) != len(o.arr) {
			return false
		}
		for i := range n.arr {
			if !n.arr[i].Equal(o.arr[i]) {
				return false
			}
		}
		return true
	case TypeObject:
		if n.obj.Len() != o.obj.Len() {
			return false
		}
		for p, q := n.obj.Oldest(), o.obj.Oldest(); p != nil; p, q = p.Next(), q.Next() {
			if p.Key != q.Key || !p.Value.Equal(q.Value) {
				return false
			}
		}
		return true
	}
	return false
}

// set writes key into an object node in place. Only used on freshly cloned
// trees owned by the caller.
func (n *Node) set(key string, v Node) {
	n.obj.Set(key, v)
}

// FromValue converts a generic decoded value (as produced by encoding/json,
// yaml.v3 or go-toml) into a Node. Maps without an inherent order get their
// keys sorted. Values of unknown types become null.
func FromValue(v any) Node {
	switch x := v.(type) {
	case nil:
		return Null()
	case Node:
		return x.Clone()
	case string:
		return String(x)
	case bool:
		return Bool(x)
	case float64:
		return Number(x)
	case float32:
		return Number(float64(x))
	case int:
		return Number(float64(x))
	case int64:
		return Number(float64(x))
	case int32:
		return Number(float64(x))
	case uint64:
		return Number(float64(x))
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return String(x.String())
		}
		return Number(f)
	case time.Time:
		return String(x.UTC().Format(time.RFC3339Nano))
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fields := make([]Field, 0, len(keys))
		for _, k := range keys {
			fields = append(fields, F(k, FromValue(x[k])))
		}
		return Object(fields...)
	case map[any]any:
		m := make(map[string]any, len(x))
		for k, inner := range x {
			m[fmt.Sprint(k)] = inner
		}
		return FromValue(m)
	case []any:
		items := make([]Node, len(x))
		for i := range x {
			items[i] = FromValue(x[i])
		}
		return Array(items...)
	case []string:
		items := make([]Node, len(x))
		for i := range x {
			items[i] = String(x[i])
		}
		return Array(items...)
	default:
		return Null()
	}
}

// Interface converts n into plain Go values: map[string]any, []any, string,
// float64, bool or nil. Object key order is lost.
func (n Node) Interface() any {
	switch n.t {
	case TypeString:
		return n.s
	case TypeNumber:
		return n.n
	case TypeBool:
		return n.b
	case TypeObject:
		m := make(map[string]any, n.obj.Len())
		for p := n.obj.Oldest(); p != nil; p = p.Next() {
			m[p.Key] = p.Value.Interface()
		}
		return m
	case TypeArray:
		s := make([]any, len(n.arr))
		for i := range n.arr {
			s[i] = n.arr[i].Interface()
		}
		return s
	}
	return nil
}

func (n Node) MarshalJSON() ([]byte, error) {
	switch n.t {
	case TypeObject:
		return n.obj.MarshalJSON()
	case TypeArray:
		if n.arr == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(n.arr)
	case TypeNumber:
		if math.IsNaN(n.n) || math.IsInf(n.n, 0) {
			return nil, fmt.Errorf("content: unsupported number %v", n.n)
		}
		return json.Marshal(n.n)
	}
	return json.Marshal(n.Interface())
}

func (n *Node) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("content: empty JSON value")
	}
	switch data[0] {
	case '{':
		om := orderedmap.New[string, Node]()
		if err := om.UnmarshalJSON(data); err != nil {
			return err
		}
		*n = Node{t: TypeObject, obj: om}
	case '[':
		var items []Node
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		if items == nil {
			items = []Node{}
		}
		*n = Node{t: TypeArray, arr: items}
	default:
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*n = FromValue(v)
	}
	return nil
}

// String renders n as compact JSON, mostly for logs and test failures.
func (n Node) String() string {
	b, err := json.Marshal(n)
	if err != nil {
		return fmt.Sprintf("<%s: %v>", n.t, err)
	}
	return string(b)
}
