package document

import (
	"bytes"
	"fmt"

	"github.com/buger/jsonparser"
)

// ParseJSON decodes strict JSON into a Value, keeping object key order.
// Blank input returns ErrNoDocument.
func ParseJSON(data []byte) (Value, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Value{}, ErrNoDocument
	}
	raw, typ, end, err := jsonparser.Get(data)
	if err != nil {
		return Value{}, fmt.Errorf("parse json: %w", err)
	}
	if rest := bytes.TrimSpace(data[end:]); len(rest) > 0 {
		return Value{}, fmt.Errorf("parse json: unexpected content after value at offset %d", end)
	}
	return fromJSON(raw, typ)
}

func fromJSON(raw []byte, typ jsonparser.ValueType) (Value, error) {
	switch typ {
	case jsonparser.Null:
		return Null(), nil
	case jsonparser.Boolean:
		b, err := jsonparser.ParseBoolean(raw)
		if err != nil {
			return Value{}, fmt.Errorf("parse json: %w", err)
		}
		return Bool(b), nil
	case jsonparser.Number:
		if _, err := jsonparser.ParseFloat(raw); err != nil {
			return Value{}, fmt.Errorf("parse json: invalid number %q", raw)
		}
		return Number(string(raw)), nil
	case jsonparser.String:
		s, err := jsonparser.ParseString(raw)
		if err != nil {
			return Value{}, fmt.Errorf("parse json: %w", err)
		}
		return String(s), nil
	case jsonparser.Array:
		items := []Value{}
		var inner error
		_, err := jsonparser.ArrayEach(raw, func(value []byte, dt jsonparser.ValueType, _ int, err error) {
			if inner != nil {
				return
			}
			if err != nil {
				inner = err
				return
			}
			v, err := fromJSON(value, dt)
			if err != nil {
				inner = err
				return
			}
			items = append(items, v)
		})
		if err == nil {
			err = inner
		}
		if err != nil {
			return Value{}, fmt.Errorf("parse json: %w", err)
		}
		return List(items...), nil
	case jsonparser.Object:
		m := NewMap()
		err := jsonparser.ObjectEach(raw, func(key []byte, value []byte, dt jsonparser.ValueType, _ int) error {
			v, err := fromJSON(value, dt)
			if err != nil {
				return err
			}
			m.Set(string(key), v)
			return nil
		})
		if err != nil {
			return Value{}, fmt.Errorf("parse json: %w", err)
		}
		return FromMap(m), nil
	}
	return Value{}, fmt.Errorf("parse json: unknown value type %s", typ)
}
