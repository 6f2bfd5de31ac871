package document

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// CanonicalNumber rewrites a numeric literal into the form used for
// comparison: integers in plain decimal, floats via FormatFloat. Literals
// that do not parse are returned trimmed but otherwise untouched.
func CanonicalNumber(literal string) string {
	literal = strings.TrimSpace(literal)
	if isIntegerLiteral(literal) {
		if i, err := strconv.ParseInt(literal, 10, 64); err == nil {
			return strconv.FormatInt(i, 10)
		}
		return literal
	}
	f, err := strconv.ParseFloat(literal, 64)
	if err != nil {
		return literal
	}
	return FormatFloat(f)
}

func isIntegerLiteral(s string) bool {
	s = strings.TrimPrefix(s, "-")
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// FormatFloat renders f the way a float is written in the canonical form:
// shortest round-trip digits, always with a fraction or exponent, exponent
// notation outside [1e-4, 1e16).
func FormatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		if math.Signbit(f) {
			return "-0.0"
		}
		return "0.0"
	}
	e := strconv.FormatFloat(f, 'e', -1, 64)
	exp, _ := strconv.Atoi(e[strings.IndexByte(e, 'e')+1:])
	if exp < -4 || exp >= 16 {
		return e
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

// Encode serialises v as JSON in map insertion order. An empty indent
// produces compact output; otherwise every nesting level is indented by
// indent. Non-ASCII characters are written literally.
func Encode(v Value, indent string) string {
	var b strings.Builder
	encode(&b, v, indent, 0)
	return b.String()
}

// String renders v compactly.
func (v Value) String() string { return Encode(v, "") }

// MarshalJSON encodes v compactly, keeping mapping order.
func (v Value) MarshalJSON() ([]byte, error) { return []byte(v.String()), nil }

func encode(b *strings.Builder, v Value, indent string, depth int) {
	switch v.kind {
	case KindNull:
		b.WriteString("null")
	case KindBool:
		b.WriteString(strconv.FormatBool(v.b))
	case KindNumber:
		b.WriteString(v.s)
	case KindString:
		Quote(b, v.s)
	case KindList:
		if len(v.list) == 0 {
			b.WriteString("[]")
			return
		}
		b.WriteByte('[')
		for i, item := range v.list {
			if i > 0 {
				b.WriteByte(',')
			}
			newline(b, indent, depth+1)
			encode(b, item, indent, depth+1)
		}
		newline(b, indent, depth)
		b.WriteByte(']')
	case KindMap:
		if v.m.Len() == 0 {
			b.WriteString("{}")
			return
		}
		b.WriteByte('{')
		i := 0
		_ = v.m.Each(func(key string, item Value) error {
			if i > 0 {
				b.WriteByte(',')
			}
			i++
			newline(b, indent, depth+1)
			Quote(b, key)
			b.WriteByte(':')
			if indent != "" {
				b.WriteByte(' ')
			}
			encode(b, item, indent, depth+1)
			return nil
		})
		newline(b, indent, depth)
		b.WriteByte('}')
	}
}

func newline(b *strings.Builder, indent string, depth int) {
	if indent == "" {
		return
	}
	b.WriteByte('\n')
	for i := 0; i < depth; i++ {
		b.WriteString(indent)
	}
}

// Quote writes s as a JSON string literal. Only the quote, the backslash and
// control characters are escaped.
func Quote(b *strings.Builder, s string) {
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		default:
			if r < 0x20 {
				fmt.Fprintf(b, `\u%04x`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
}

// Interface converts v to plain Go values: map[string]any, []any, string,
// bool, nil, int64 or float64.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		if i, err := strconv.ParseInt(v.s, 10, 64); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(v.s, 64); err == nil {
			return f
		}
		return json.Number(v.s)
	case KindString:
		return v.s
	case KindList:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = item.Interface()
		}
		return out
	case KindMap:
		out := make(map[string]any, v.m.Len())
		_ = v.m.Each(func(key string, item Value) error {
			out[key] = item.Interface()
			return nil
		})
		return out
	}
	return nil
}

// FromInterface converts plain Go values into a Value. Keys of Go maps are
// inserted in sorted order.
func FromInterface(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case int:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case float64:
		return Float(t), nil
	case json.Number:
		return Number(t.String()), nil
	case []any:
		items := make([]Value, len(t))
		for i, item := range t {
			v, err := FromInterface(item)
			if err != nil {
				return Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			items[i] = v
		}
		return List(items...), nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := NewMap()
		for _, k := range keys {
			v, err := FromInterface(t[k])
			if err != nil {
				return Value{}, fmt.Errorf("%s: %w", k, err)
			}
			m.Set(k, v)
		}
		return FromMap(m), nil
	}
	return Value{}, fmt.Errorf("unsupported type %T", x)
}

// MustFromInterface is FromInterface for literals known to be valid.
func MustFromInterface(x any) Value {
	v, err := FromInterface(x)
	if err != nil {
		panic(err)
	}
	return v
}
