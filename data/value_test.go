package data

import (
	"testing"
)

// TestCanonical_KeyOrder verifies that construction order never leaks
// into the serialized form.
func TestCanonical_KeyOrder(t *testing.T) {
	a := map[string]any{"b": 1, "a": 2, "c": map[string]any{"y": 1, "x": 2}}
	b := map[string]any{"c": map[string]any{"x": 2, "y": 1}, "a": 2, "b": 1}

	na, err := Normalize(a)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	nb, err := Normalize(b)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	ca, err := Canonical(na)
	if err != nil {
		t.Fatalf("Canonical failed: %v", err)
	}
	cb, err := Canonical(nb)
	if err != nil {
		t.Fatalf("Canonical failed: %v", err)
	}

	if string(ca) != string(cb) {
		t.Errorf("Expected identical serialization, got %s and %s", ca, cb)
	}
	if want := `{"a":2,"b":1,"c":{"x":2,"y":1}}`; string(ca) != want {
		t.Errorf("Expected %s, got %s", want, ca)
	}
}

func TestCanonical_NumberCoercion(t *testing.T) {
	ca, err := Attrs{"n": 42}.Canonical()
	if err != nil {
		t.Fatalf("Canonical failed: %v", err)
	}
	cb, err := Attrs{"n": 42.0}.Canonical()
	if err != nil {
		t.Fatalf("Canonical failed: %v", err)
	}

	if string(ca) != string(cb) {
		t.Errorf("Expected int and float to serialize identically, got %s and %s", ca, cb)
	}
}

func TestCanonical_NilAttrs(t *testing.T) {
	raw, err := Attrs(nil).Canonical()
	if err != nil {
		t.Fatalf("Canonical failed: %v", err)
	}
	if string(raw) != "null" {
		t.Errorf("Expected null, got %s", raw)
	}
}

func TestEqual(t *testing.T) {
	cases := []struct {
		name string
		a, b any
		want bool
	}{
		{"int vs float", 42, 42.0, true},
		{"key order", map[string]any{"a": 1, "b": 2}, map[string]any{"b": 2, "a": 1}, true},
		{"different value", map[string]any{"a": 1}, map[string]any{"a": 2}, false},
		{"string vs number", "42", 42, false},
		{"nested arrays", []any{1, "x"}, []any{1, "x"}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Equal(tc.a, tc.b); got != tc.want {
				t.Errorf("Equal(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestNormalize_RejectsUnsupported(t *testing.T) {
	if _, err := Normalize(struct{}{}); err == nil {
		t.Error("Expected error for unsupported type")
	}
}

// TestCheckKeys_WarnsOnce verifies the one-time warning per offending
// key.
func TestCheckKeys_WarnsOnce(t *testing.T) {
	var warnings []string
	SetKeyWarnFunc(func(format string, args ...any) {
		warnings = append(warnings, format)
	})
	defer SetKeyWarnFunc(nil)

	attrs := Attrs{"legal_key": 1, "not a key!": 2}
	CheckKeys(attrs)
	CheckKeys(attrs)

	if len(warnings) != 1 {
		t.Errorf("Expected exactly one warning, got %d", len(warnings))
	}
}
