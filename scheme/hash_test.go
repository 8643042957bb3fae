package scheme

import (
	"testing"

	"github.com/mwantia/grove/data"
)

// TestHashScheme_Determinism verifies that key order and numeric
// representation never change the computed identifier.
func TestHashScheme_Determinism(t *testing.T) {
	s := HashScheme{}

	a := data.Attrs{"foo": 42, "bar": "baz", "nested": map[string]any{"x": 1, "y": 2}}
	b := data.Attrs{"nested": map[string]any{"y": 2.0, "x": 1.0}, "bar": "baz", "foo": 42.0}

	ida, err := s.Compute(a)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	idb, err := s.Compute(b)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	if ida != idb {
		t.Errorf("Expected identical identifiers, got %s and %s", ida, idb)
	}
	if !s.Validate(ida) {
		t.Errorf("Computed identifier %s fails its own validator", ida)
	}
}

func TestHashScheme_DistinctAttrs(t *testing.T) {
	s := HashScheme{}

	ida, err := s.Compute(data.Attrs{"foo": 1})
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	idb, err := s.Compute(data.Attrs{"foo": 2})
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	if ida == idb {
		t.Error("Expected different attributes to produce different identifiers")
	}
}

func TestHashScheme_Validate(t *testing.T) {
	s := HashScheme{}

	cases := []struct {
		id   string
		want bool
	}{
		{"0123456789abcdef0123456789abcdef", true},
		{"0123456789ABCDEF0123456789ABCDEF", false},
		{"0123456789abcdef", false},
		{"not-a-hash", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := s.Validate(tc.id); got != tc.want {
			t.Errorf("Validate(%q) = %v, want %v", tc.id, got, tc.want)
		}
	}
}

func TestLookup(t *testing.T) {
	s, err := Lookup(HashName)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if s.Name() != HashName {
		t.Errorf("Expected %s, got %s", HashName, s.Name())
	}

	if _, err := Lookup("no-such-scheme"); err == nil {
		t.Error("Expected error for unknown scheme")
	}
}
