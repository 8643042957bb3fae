package index_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/mwantia/grove/data"
	"github.com/mwantia/grove/index"
)

func fixtureCursor(t *testing.T, n int) *index.Cursor {
	t.Helper()

	root := t.TempDir()
	for i := 0; i < n; i++ {
		writeDir(t, root, fmt.Sprintf("dir-%02d", i), data.Attrs{"n": i}, nil)
	}

	cursor, err := buildIndex(t, root).Find(nil)
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if cursor.Len() != n {
		t.Fatalf("Expected %d matches, got %d", n, cursor.Len())
	}
	return cursor
}

func TestCursor_Reiterable(t *testing.T) {
	cursor := fixtureCursor(t, 5)

	var first, second []string
	for doc := range cursor.Iter() {
		first = append(first, doc.ID)
	}
	for doc := range cursor.Iter() {
		second = append(second, doc.ID)
	}

	if len(first) != 5 || len(second) != 5 {
		t.Fatalf("Expected two full iterations, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("Iteration order changed at %d: %s vs %s", i, first[i], second[i])
		}
	}
}

func TestCursor_Project(t *testing.T) {
	cursor := fixtureCursor(t, 3)

	seq, err := cursor.Project("n")
	if err != nil {
		t.Fatalf("Project failed: %v", err)
	}

	var values []any
	for v := range seq {
		values = append(values, v)
	}
	if len(values) != 3 {
		t.Fatalf("Expected 3 projected values, got %d", len(values))
	}
	for i, v := range values {
		if !data.Equal(v, i) {
			t.Errorf("Expected %d at position %d, got %v", i, i, v)
		}
	}

	paths, err := cursor.Project("path/" + data.AttrsFileName)
	if err != nil {
		t.Fatalf("Project failed: %v", err)
	}
	for p := range paths {
		if p == nil {
			t.Error("Expected joined path, got nil")
		}
	}

	if _, err := cursor.Project("id.sub"); !errors.Is(err, data.ErrInvalidFilter) {
		t.Errorf("Expected ErrInvalidFilter for bad selector, got %v", err)
	}
}

func TestCursor_Apply(t *testing.T) {
	cursor := fixtureCursor(t, 4)

	invocations := 0
	seq := cursor.Apply(func(doc *index.Document) any {
		invocations++
		return doc.ID
	})

	var ids []string
	for v := range seq {
		ids = append(ids, v.(string))
	}
	// Re-running re-invokes fn.
	for range seq {
	}

	if invocations != 8 {
		t.Errorf("Expected 8 invocations across two runs, got %d", invocations)
	}
	if len(ids) != 4 {
		t.Errorf("Expected 4 results, got %d", len(ids))
	}
}

// TestCursor_ApplyParallelOrdering verifies that result positions
// follow cursor order even when invocations finish out of order.
func TestCursor_ApplyParallelOrdering(t *testing.T) {
	cursor := fixtureCursor(t, 12)

	expected := make([]string, 0, cursor.Len())
	for doc := range cursor.Iter() {
		expected = append(expected, doc.ID)
	}

	results, err := cursor.ApplyParallel(t.Context(), 4, func(ctx context.Context, doc *index.Document) (any, error) {
		time.Sleep(time.Duration(rand.Intn(10)) * time.Millisecond)
		return doc.ID, nil
	})
	if err != nil {
		t.Fatalf("ApplyParallel failed: %v", err)
	}

	if len(results) != len(expected) {
		t.Fatalf("Expected %d results, got %d", len(expected), len(results))
	}
	for i, r := range results {
		if r != expected[i] {
			t.Errorf("Result %d out of order: expected %s, got %v", i, expected[i], r)
		}
	}
}

func TestCursor_ApplyParallelError(t *testing.T) {
	cursor := fixtureCursor(t, 6)

	boom := errors.New("boom")
	_, err := cursor.ApplyParallel(t.Context(), 2, func(ctx context.Context, doc *index.Document) (any, error) {
		if doc.ID == "dir-03" {
			return nil, boom
		}
		return doc.ID, nil
	})
	if !errors.Is(err, boom) {
		t.Errorf("Expected propagated error, got %v", err)
	}
}
