package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"unicode/utf16"
)

// IRValue is a sealed interface over the JSON shapes the serializer emits.
// Only IRString, IRInt, IRBool, IRArray and IRObject implement it. There
// is no float variant: float literals and time bounds are rendered as
// strings so that hashes never depend on float formatting.
type IRValue interface {
	irValue()
}

type IRString string

func (IRString) irValue() {}

type IRInt int64

func (IRInt) irValue() {}

type IRBool bool

func (IRBool) irValue() {}

type IRArray []IRValue

func (IRArray) irValue() {}

// IRObject maps keys to values. Use SortedKeys for deterministic
// iteration.
type IRObject map[string]IRValue

func (IRObject) irValue() {}

// SortedKeys returns keys in RFC 8785 order (UTF-16 code units).
// Go's string comparison uses UTF-8 bytes and orders some keys differently.
func (obj IRObject) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)
	return keys
}

func compareUTF16(a, b string) int {
	return slices.Compare(utf16.Encode([]rune(a)), utf16.Encode([]rune(b)))
}

// Str returns the string stored under key, or "".
func (obj IRObject) Str(key string) string {
	s, _ := obj[key].(IRString)
	return string(s)
}

// Obj returns the object stored under key, or nil.
func (obj IRObject) Obj(key string) IRObject {
	o, _ := obj[key].(IRObject)
	return o
}

// UnmarshalIRValue decodes JSON into an IRValue. Null and non-integer
// numbers are rejected, matching what the serializer can produce.
func UnmarshalIRValue(data []byte) (IRValue, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return convert(raw)
}

func convert(v any) (IRValue, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("null is not an IR value")
	case bool:
		return IRBool(val), nil
	case string:
		return IRString(val), nil
	case json.Number:
		n, err := val.Int64()
		if err != nil {
			return nil, fmt.Errorf("not an integer: %s", val)
		}
		return IRInt(n), nil
	case []any:
		arr := make(IRArray, len(val))
		for i, elem := range val {
			e, err := convert(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = e
		}
		return arr, nil
	case map[string]any:
		obj := make(IRObject, len(val))
		for k, elem := range val {
			e, err := convert(elem)
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", k, err)
			}
			obj[k] = e
		}
		return obj, nil
	}
	return nil, fmt.Errorf("unsupported type: %T", v)
}
