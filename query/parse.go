package query

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/mwantia/grove/data"
)

// Compile normalizes any accepted filter form into a compiled Filter:
// a *Filter (builder form), a compact filter string, or a field→value
// mapping. Nil compiles to the match-all filter.
func Compile(filter any) (*Filter, error) {
	switch t := filter.(type) {
	case nil:
		return &Filter{}, nil
	case *Filter:
		if t == nil {
			return &Filter{}, nil
		}
		if t.err != nil {
			return nil, t.err
		}
		return t, nil
	case string:
		return Parse(t)
	case map[string]any:
		return FromMap(t)
	case data.Attrs:
		return FromMap(map[string]any(t))
	case data.Doc:
		return FromMap(map[string]any(t))
	default:
		return nil, fmt.Errorf("%w: unsupported filter type %T", data.ErrInvalidFilter, filter)
	}
}

// FromMap compiles the mapping form: field → scalar for equality, or
// field → {operator: operand}. Fields are compiled in sorted order so
// equal mappings always produce the same condition sequence.
func FromMap(m map[string]any) (*Filter, error) {
	fields := make([]string, 0, len(m))
	for k := range m {
		fields = append(fields, k)
	}
	sort.Strings(fields)

	f := &Filter{}
	for _, field := range fields {
		ns, path, err := splitField(field)
		if err != nil {
			return nil, err
		}

		if ops, ok := m[field].(map[string]any); ok && operatorMap(ops) {
			opNames := make([]string, 0, len(ops))
			for op := range ops {
				opNames = append(opNames, op)
			}
			sort.Strings(opNames)

			for _, op := range opNames {
				if err := f.add(ns, path, Op(op), ops[op]); err != nil {
					return nil, err
				}
			}
			continue
		}

		if err := f.add(ns, path, OpEq, m[field]); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// operatorMap reports whether every key is an operator token. A plain
// nested object is an equality operand, not an operator set.
func operatorMap(m map[string]any) bool {
	if len(m) == 0 {
		return false
	}
	for k := range m {
		if !strings.HasPrefix(k, "$") {
			return false
		}
	}
	return true
}

// Parse compiles the compact string syntax: whitespace-separated
// groups of field, optional operator, and JSON-scalar value. The
// operator may be attached to the field ("foo.$gt 15") or stand alone
// ("foo $gt 15").
func Parse(s string) (*Filter, error) {
	tokens := strings.Fields(s)
	f := &Filter{}

	for i := 0; i < len(tokens); {
		field := tokens[i]
		i++

		op := OpEq
		if idx := strings.LastIndex(field, ".$"); idx >= 0 {
			op = Op(field[idx+1:])
			field = field[:idx]
		} else if i < len(tokens) && strings.HasPrefix(tokens[i], "$") {
			op = Op(tokens[i])
			i++
		}

		if i >= len(tokens) {
			return nil, fmt.Errorf("%w: missing value for field %q", data.ErrInvalidFilter, field)
		}

		ns, path, err := splitField(field)
		if err != nil {
			return nil, err
		}
		if err := f.add(ns, path, op, parseToken(tokens[i])); err != nil {
			return nil, err
		}
		i++
	}
	return f, nil
}

// parseToken reads a value token as JSON, falling back to a plain
// string for bare words.
func parseToken(tok string) any {
	var v any
	if err := json.Unmarshal([]byte(tok), &v); err != nil {
		return tok
	}
	return v
}

// Where starts a builder filter with one equality condition. Further
// conditions chain through And/AndOp; construction errors surface on
// compilation.
func Where(field string, value any) *Filter {
	return new(Filter).AndOp(field, OpEq, value)
}

// WhereOp starts a builder filter with one operator condition.
func WhereOp(field string, op Op, value any) *Filter {
	return new(Filter).AndOp(field, op, value)
}

// And appends an equality condition.
func (f *Filter) And(field string, value any) *Filter {
	return f.AndOp(field, OpEq, value)
}

// AndOp appends an operator condition.
func (f *Filter) AndOp(field string, op Op, value any) *Filter {
	if f.err != nil {
		return f
	}

	ns, path, err := splitField(field)
	if err != nil {
		f.err = err
		return f
	}
	if err := f.add(ns, path, op, value); err != nil {
		f.err = err
	}
	return f
}

func (f *Filter) add(ns, path string, op Op, operand any) error {
	if !validOp(op) {
		return fmt.Errorf("%w: unsupported operator %q", data.ErrInvalidFilter, op)
	}

	normalized, err := data.Normalize(operand)
	if err != nil {
		return fmt.Errorf("%w: %v", data.ErrInvalidFilter, err)
	}

	if op == OpExists {
		if _, ok := normalized.(bool); !ok {
			return fmt.Errorf("%w: $exists requires a boolean operand", data.ErrInvalidFilter)
		}
	}
	if op == OpIn {
		if _, ok := normalized.([]any); !ok {
			return fmt.Errorf("%w: $in requires an array operand", data.ErrInvalidFilter)
		}
	}

	f.conds = append(f.conds, Condition{
		Namespace: ns,
		Field:     path,
		Op:        op,
		Operand:   normalized,
	})
	return nil
}

// splitField resolves the optional namespace prefix. Unprefixed fields
// belong to the attrs namespace; the identifier is addressed as "id"
// and carries no sub-field.
func splitField(field string) (ns, path string, err error) {
	if field == "" {
		return "", "", fmt.Errorf("%w: empty field", data.ErrInvalidFilter)
	}

	if field == NamespaceID {
		return NamespaceID, "", nil
	}

	head, rest, found := strings.Cut(field, ".")
	if found {
		switch head {
		case NamespaceAttrs:
			return NamespaceAttrs, rest, nil
		case NamespaceDoc:
			return NamespaceDoc, rest, nil
		case NamespaceID:
			return "", "", fmt.Errorf("%w: the id namespace has no sub-fields (%q)", data.ErrInvalidFilter, field)
		}
	}
	return NamespaceAttrs, field, nil
}
