// Package document implements the ordered key-value tree used to represent
// test cases and HTTP bodies. A Value is a closed tagged union over
// null, bool, number, string, list and map.
package document

import (
	"strconv"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is an immutable-by-convention node of a document tree.
// The zero Value is null.
type Value struct {
	kind Kind
	b    bool
	s    string // string contents, or the canonical literal of a number
	list []Value
	m    *Map
}

// Null returns the null value.
func Null() Value { return Value{} }

// Bool wraps b.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// String wraps s.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Number wraps a numeric literal. The literal is canonicalised, see
// CanonicalNumber.
func Number(literal string) Value {
	return Value{kind: KindNumber, s: CanonicalNumber(literal)}
}

// Int wraps an integer.
func Int(i int64) Value { return Value{kind: KindNumber, s: strconv.FormatInt(i, 10)} }

// Float wraps a float.
func Float(f float64) Value { return Value{kind: KindNumber, s: FormatFloat(f)} }

// List wraps items. The slice is not copied.
func List(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindList, list: items}
}

// FromMap wraps m. A nil map becomes an empty one.
func FromMap(m *Map) Value {
	if m == nil {
		m = NewMap()
	}
	return Value{kind: KindMap, m: m}
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean held by v.
func (v Value) AsBool() bool { return v.b }

// Text returns the contents of a string or the literal of a number.
func (v Value) Text() string { return v.s }

// Items returns the elements of a list, nil for other kinds.
func (v Value) Items() []Value { return v.list }

// Map returns the mapping held by v, nil for other kinds.
func (v Value) Map() *Map { return v.m }

// Truthy follows the usual scripting notion of truthiness: null, false,
// zero, "" and empty containers are false.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNull:
		return false
	case KindBool:
		return v.b
	case KindNumber:
		f, err := strconv.ParseFloat(v.s, 64)
		return err != nil || f != 0
	case KindString:
		return v.s != ""
	case KindList:
		return len(v.list) > 0
	case KindMap:
		return v.m.Len() > 0
	}
	return false
}

// Clone returns a deep copy of v.
func (v Value) Clone() Value {
	switch v.kind {
	case KindList:
		items := make([]Value, len(v.list))
		for i, item := range v.list {
			items[i] = item.Clone()
		}
		return Value{kind: KindList, list: items}
	case KindMap:
		return Value{kind: KindMap, m: v.m.Clone()}
	}
	return v
}

// Get looks up key when v is a map.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindMap {
		return Value{}, false
	}
	return v.m.Get(key)
}

// Map is an insertion-ordered mapping from string keys to values.
type Map struct {
	om *orderedmap.OrderedMap[string, Value]
}

// NewMap returns an empty map.
func NewMap() *Map {
	return &Map{om: orderedmap.New[string, Value]()}
}

func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return m.om.Len()
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (Value, bool) {
	if m == nil {
		return Value{}, false
	}
	return m.om.Get(key)
}

// Has reports whether key is present.
func (m *Map) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Set stores value under key. An existing key keeps its position.
func (m *Map) Set(key string, value Value) {
	m.om.Set(key, value)
}

// Delete removes key and reports whether it was present.
func (m *Map) Delete(key string) bool {
	_, ok := m.om.Delete(key)
	return ok
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	keys := make([]string, 0, m.om.Len())
	for p := m.om.Oldest(); p != nil; p = p.Next() {
		keys = append(keys, p.Key)
	}
	return keys
}

// Each calls fn for every entry in insertion order and stops at the first
// error.
func (m *Map) Each(fn func(key string, value Value) error) error {
	if m == nil {
		return nil
	}
	for p := m.om.Oldest(); p != nil; p = p.Next() {
		if err := fn(p.Key, p.Value); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a deep copy of m.
func (m *Map) Clone() *Map {
	out := NewMap()
	if m == nil {
		return out
	}
	for p := m.om.Oldest(); p != nil; p = p.Next() {
		out.Set(p.Key, p.Value.Clone())
	}
	return out
}

// Pair is a key/value entry used by Object.
type Pair struct {
	Key   string
	Value Value
}

// Object builds a map value from pairs, in order.
func Object(pairs ...Pair) Value {
	m := NewMap()
	for _, p := range pairs {
		m.Set(p.Key, p.Value)
	}
	return FromMap(m)
}

// P is shorthand for a Pair.
func P(key string, value Value) Pair { return Pair{Key: key, Value: value} }
