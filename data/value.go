package data

import (
	"encoding/json"
	"fmt"
	"sort"
)

// The attribute and document model is restricted to the JSON value
// types: null, bool, number, string, array, and object. Normalize
// coerces arbitrary Go values into that closed set so that canonical
// serialization and equality are defined for every stored value.
func Normalize(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case bool, string, float64:
		return t, nil
	case int:
		return float64(t), nil
	case int8:
		return float64(t), nil
	case int16:
		return float64(t), nil
	case int32:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case uint:
		return float64(t), nil
	case uint8:
		return float64(t), nil
	case uint16:
		return float64(t), nil
	case uint32:
		return float64(t), nil
	case uint64:
		return float64(t), nil
	case float32:
		return float64(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return nil, fmt.Errorf("grove: invalid number %q: %w", t.String(), err)
		}
		return f, nil
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			n, err := Normalize(e)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			n, err := Normalize(e)
			if err != nil {
				return nil, err
			}
			out[k] = n
		}
		return out, nil
	default:
		return nil, fmt.Errorf("grove: unsupported value type %T", v)
	}
}

// Canonical returns the canonical serialization of a normalized value:
// object keys sorted, strings escaped and numbers rendered exactly as
// encoding/json does. Equal values always serialize to equal bytes, so
// the result is safe to hash and to diff.
func Canonical(v any) ([]byte, error) {
	return appendCanonical(nil, v)
}

func appendCanonical(dst []byte, v any) ([]byte, error) {
	switch t := v.(type) {
	case nil:
		return append(dst, "null"...), nil
	case bool, float64, string:
		raw, err := json.Marshal(t)
		if err != nil {
			return nil, err
		}
		return append(dst, raw...), nil
	case []any:
		dst = append(dst, '[')
		for i, e := range t {
			if i > 0 {
				dst = append(dst, ',')
			}
			var err error
			dst, err = appendCanonical(dst, e)
			if err != nil {
				return nil, err
			}
		}
		return append(dst, ']'), nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		dst = append(dst, '{')
		for i, k := range keys {
			if i > 0 {
				dst = append(dst, ',')
			}
			raw, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			dst = append(dst, raw...)
			dst = append(dst, ':')
			dst, err = appendCanonical(dst, t[k])
			if err != nil {
				return nil, err
			}
		}
		return append(dst, '}'), nil
	default:
		return nil, fmt.Errorf("grove: unsupported value type %T", v)
	}
}

// ParseObject decodes a JSON object and normalizes it into the closed
// value model.
func ParseObject(raw []byte) (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, nil
	}

	n, err := Normalize(m)
	if err != nil {
		return nil, err
	}
	return n.(map[string]any), nil
}

// Equal compares two values under JSON-value equality, ignoring object
// key order and Go integer/float representation differences.
func Equal(a, b any) bool {
	na, err := Normalize(a)
	if err != nil {
		return false
	}
	nb, err := Normalize(b)
	if err != nil {
		return false
	}

	ba, err := Canonical(na)
	if err != nil {
		return false
	}
	bb, err := Canonical(nb)
	if err != nil {
		return false
	}

	return string(ba) == string(bb)
}
