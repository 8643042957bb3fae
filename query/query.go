// Package query implements the flat predicate filters evaluated
// against indexed documents. A filter is a conjunction of per-field
// conditions over the attrs, doc, and id namespaces.
package query

import (
	"strings"

	"github.com/mwantia/grove/data"
)

// Op identifies a comparison operator. Equality is the implicit
// operator of a bare field/value pair.
type Op string

const (
	OpEq     Op = "$eq"
	OpNe     Op = "$ne"
	OpGt     Op = "$gt"
	OpGte    Op = "$gte"
	OpLt     Op = "$lt"
	OpLte    Op = "$lte"
	OpExists Op = "$exists"
	OpIn     Op = "$in"
)

func validOp(op Op) bool {
	switch op {
	case OpEq, OpNe, OpGt, OpGte, OpLt, OpLte, OpExists, OpIn:
		return true
	default:
		return false
	}
}

// Field namespaces. An unprefixed field belongs to the attrs
// namespace; the identifier is addressed as the bare field "id".
const (
	NamespaceAttrs = "attrs"
	NamespaceDoc   = "doc"
	NamespaceID    = "id"
)

// Condition is one compiled field predicate.
type Condition struct {
	Namespace string
	Field     string // dotted path inside the namespace, empty for id
	Op        Op
	Operand   any // normalized value
}

// Filter is a compiled conjunction of conditions. The zero filter
// matches every document.
type Filter struct {
	conds []Condition
	err   error
}

// Err returns the first construction error of a builder-made filter.
func (f *Filter) Err() error {
	if f == nil {
		return nil
	}
	return f.err
}

// Conditions returns the compiled predicate list in evaluation order.
func (f *Filter) Conditions() []Condition {
	if f == nil {
		return nil
	}
	out := make([]Condition, len(f.conds))
	copy(out, f.conds)
	return out
}

// Match evaluates the filter against one document. All conditions must
// hold. A condition on a missing field holds only for $exists:false.
func (f *Filter) Match(id string, attrs data.Attrs, doc data.Doc) bool {
	if f == nil {
		return true
	}

	for _, c := range f.conds {
		if !f.matchCondition(c, id, attrs, doc) {
			return false
		}
	}
	return true
}

func (f *Filter) matchCondition(c Condition, id string, attrs data.Attrs, doc data.Doc) bool {
	var (
		value   any
		present bool
	)

	switch c.Namespace {
	case NamespaceID:
		value, present = id, true
	case NamespaceDoc:
		value, present = lookupPath(map[string]any(doc), c.Field)
	default:
		value, present = lookupPath(map[string]any(attrs), c.Field)
	}

	if c.Op == OpExists {
		want, ok := c.Operand.(bool)
		return ok && present == want
	}
	if !present {
		return false
	}

	switch c.Op {
	case OpEq:
		return sameKind(value, c.Operand) && data.Equal(value, c.Operand)
	case OpNe:
		return sameKind(value, c.Operand) && !data.Equal(value, c.Operand)
	case OpGt, OpGte, OpLt, OpLte:
		cmp, ok := compareOrdered(value, c.Operand)
		if !ok {
			return false
		}
		switch c.Op {
		case OpGt:
			return cmp > 0
		case OpGte:
			return cmp >= 0
		case OpLt:
			return cmp < 0
		default:
			return cmp <= 0
		}
	case OpIn:
		members, ok := c.Operand.([]any)
		if !ok {
			return false
		}
		for _, m := range members {
			if sameKind(value, m) && data.Equal(value, m) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// LookupField walks a dotted path through nested objects, reporting
// whether the field is present.
func LookupField(m map[string]any, path string) (any, bool) {
	return lookupPath(m, path)
}

// lookupPath walks a dotted path through nested objects.
func lookupPath(m map[string]any, path string) (any, bool) {
	if m == nil {
		return nil, false
	}

	segments := strings.Split(path, ".")
	var current any = map[string]any(m)
	for _, seg := range segments {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[seg]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "bool"
	case float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return "unknown"
	}
}

func sameKind(a, b any) bool {
	ka, kb := kindOf(a), kindOf(b)
	return ka == kb && ka != "unknown"
}

// compareOrdered totally orders numbers against numbers and strings
// against strings. Every other pairing is incomparable and matches
// nothing.
func compareOrdered(a, b any) (int, bool) {
	switch av := a.(type) {
	case float64:
		bv, ok := b.(float64)
		if !ok {
			return 0, false
		}
		switch {
		case av < bv:
			return -1, true
		case av > bv:
			return 1, true
		default:
			return 0, true
		}
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(av, bv), true
	default:
		return 0, false
	}
}
