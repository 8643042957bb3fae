package index_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mwantia/grove/data"
	"github.com/mwantia/grove/index"
)

func writeDir(t *testing.T, root, name string, attrs data.Attrs, doc data.Doc) {
	t.Helper()

	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if attrs != nil {
		if err := data.WriteAttrs(dir, attrs); err != nil {
			t.Fatalf("WriteAttrs failed: %v", err)
		}
	}
	if doc != nil {
		if err := data.WriteDoc(dir, doc); err != nil {
			t.Fatalf("WriteDoc failed: %v", err)
		}
	}
}

func buildIndex(t *testing.T, root string, opts ...index.Option) *index.Index {
	t.Helper()

	ix, err := index.New(root, opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := ix.Build(t.Context()); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return ix
}

func TestIndex_BuildExcludesAttrless(t *testing.T) {
	root := t.TempDir()
	writeDir(t, root, "with-attrs", data.Attrs{"foo": 1}, nil)
	writeDir(t, root, "without-attrs", nil, nil)

	ix := buildIndex(t, root)
	if ix.Len() != 1 {
		t.Fatalf("Expected 1 document, got %d", ix.Len())
	}
	if _, err := ix.Get("without-attrs"); !errors.Is(err, data.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for attrless directory, got %v", err)
	}
}

func TestIndex_Recursive(t *testing.T) {
	root := t.TempDir()
	writeDir(t, root, "top", data.Attrs{"foo": 1}, nil)
	writeDir(t, root, filepath.Join("group", "nested"), data.Attrs{"foo": 2}, nil)

	flat := buildIndex(t, root)
	if flat.Len() != 1 {
		t.Errorf("Flat scan: expected 1 document, got %d", flat.Len())
	}

	deep := buildIndex(t, root, index.WithRecursive())
	if deep.Len() != 2 {
		t.Fatalf("Recursive scan: expected 2 documents, got %d", deep.Len())
	}
	if _, err := deep.Get("group/nested"); err != nil {
		t.Errorf("Expected nested identifier in slash form, got %v", err)
	}
}

func TestIndex_GetDefault(t *testing.T) {
	root := t.TempDir()
	writeDir(t, root, "present", data.Attrs{"foo": 1}, nil)

	ix := buildIndex(t, root)

	if doc := ix.GetDefault("present", nil); doc == nil {
		t.Error("Expected document for present identifier")
	}

	def := &index.Document{ID: "fallback"}
	if doc := ix.GetDefault("absent", def); doc != def {
		t.Error("Expected default for absent identifier")
	}
}

func TestIndex_Lookup(t *testing.T) {
	root := t.TempDir()
	writeDir(t, root, "03a1", data.Attrs{"foo": 1}, nil)
	writeDir(t, root, "03b2", data.Attrs{"foo": 2}, nil)
	writeDir(t, root, "99c3", data.Attrs{"foo": 3}, nil)

	ix := buildIndex(t, root)

	if _, err := ix.Lookup("03"); !errors.Is(err, data.ErrAmbiguous) {
		t.Errorf("Expected ErrAmbiguous for shared prefix, got %v", err)
	}

	doc, err := ix.Lookup("99")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if doc.ID != "99c3" {
		t.Errorf("Expected 99c3, got %s", doc.ID)
	}

	if _, err := ix.Lookup("zz"); !errors.Is(err, data.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestIndex_Find(t *testing.T) {
	root := t.TempDir()
	for name, foo := range map[string]float64{
		"a": 4, "b": 8, "c": 15, "d": 16, "e": 23, "f": 42,
	} {
		writeDir(t, root, name, data.Attrs{"foo": foo}, nil)
	}

	ix := buildIndex(t, root)

	cursor, err := ix.Find(map[string]any{"foo": map[string]any{"$gt": 15}})
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if cursor.Len() != 3 {
		t.Fatalf("Expected 3 matches, got %d", cursor.Len())
	}
	for doc := range cursor.Iter() {
		if v, _ := doc.Attrs["foo"].(float64); v <= 15 {
			t.Errorf("Unexpected match %s with foo=%v", doc.ID, doc.Attrs["foo"])
		}
	}

	none, err := ix.Find(map[string]any{"foo": map[string]any{"$exists": false}})
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if none.Len() != 0 {
		t.Errorf("Expected no matches, got %d", none.Len())
	}
}

// TestIndex_CursorStability verifies that a cursor snapshots its match
// set: rebuilding the index afterwards never changes it.
func TestIndex_CursorStability(t *testing.T) {
	root := t.TempDir()
	writeDir(t, root, "one", data.Attrs{"foo": 1}, nil)
	writeDir(t, root, "two", data.Attrs{"foo": 2}, nil)

	ix := buildIndex(t, root)
	cursor, err := ix.Find(nil)
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if cursor.Len() != 2 {
		t.Fatalf("Expected 2 matches, got %d", cursor.Len())
	}

	if err := os.RemoveAll(filepath.Join(root, "two")); err != nil {
		t.Fatalf("RemoveAll failed: %v", err)
	}
	if err := ix.Build(t.Context()); err != nil {
		t.Fatalf("Rebuild failed: %v", err)
	}
	if ix.Len() != 1 {
		t.Fatalf("Expected rebuilt index with 1 document, got %d", ix.Len())
	}

	if cursor.Len() != 2 {
		t.Errorf("Cursor changed after rebuild: %d", cursor.Len())
	}
	count := 0
	for range cursor.Iter() {
		count++
	}
	if count != 2 {
		t.Errorf("Expected 2 iterated documents, got %d", count)
	}
}

func TestIndex_FileCacheDeterminism(t *testing.T) {
	root := t.TempDir()
	writeDir(t, root, "one", data.Attrs{"b": 1, "a": 2}, data.Doc{"note": "x"})
	writeDir(t, root, "two", data.Attrs{"foo": 42}, nil)

	ix := buildIndex(t, root, index.WithScheme("hash-md5"), index.WithDocuments())
	if err := ix.StoreCache(t.Context()); err != nil {
		t.Fatalf("StoreCache failed: %v", err)
	}

	cachePath := filepath.Join(root, index.CacheFileName)
	first, err := os.ReadFile(cachePath)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	if err := ix.StoreCache(t.Context()); err != nil {
		t.Fatalf("StoreCache failed: %v", err)
	}
	second, err := os.ReadFile(cachePath)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	if string(first) != string(second) {
		t.Error("Expected byte-identical reserialization of the same collection")
	}

	// A fresh index loads the persisted snapshot without scanning.
	fresh, err := index.New(root, index.WithScheme("hash-md5"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := fresh.Load(t.Context()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if fresh.Len() != 2 {
		t.Fatalf("Expected 2 cached documents, got %d", fresh.Len())
	}
	doc, err := fresh.Get("one")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !data.Equal(doc.Doc["note"], "x") {
		t.Errorf("Expected document sidecar in cache, got %v", doc.Doc)
	}
}

func TestIndex_CacheSchemeMismatch(t *testing.T) {
	root := t.TempDir()
	writeDir(t, root, "one", data.Attrs{"foo": 1}, nil)

	ix := buildIndex(t, root, index.WithScheme("hash-md5"))
	if err := ix.StoreCache(t.Context()); err != nil {
		t.Fatalf("StoreCache failed: %v", err)
	}

	other, err := index.New(root, index.WithScheme("custom"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := other.Load(t.Context()); !errors.Is(err, data.ErrCacheMismatch) {
		t.Errorf("Expected ErrCacheMismatch, got %v", err)
	}
}

func TestIndex_SQLiteCache(t *testing.T) {
	root := t.TempDir()
	writeDir(t, root, "one", data.Attrs{"foo": 1}, data.Doc{"note": "x"})
	writeDir(t, root, "two", data.Attrs{"foo": 2}, nil)

	store, err := index.NewSQLiteCache(filepath.Join(t.TempDir(), "cache.db"), root)
	if err != nil {
		t.Fatalf("NewSQLiteCache failed: %v", err)
	}
	defer store.Close()

	ix := buildIndex(t, root, index.WithDocuments(), index.WithCache(store))
	if err := ix.StoreCache(t.Context()); err != nil {
		t.Fatalf("StoreCache failed: %v", err)
	}

	fresh, err := index.New(root, index.WithCache(store))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := fresh.Load(t.Context()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if fresh.Len() != 2 {
		t.Fatalf("Expected 2 cached documents, got %d", fresh.Len())
	}

	doc, err := fresh.Get("one")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !data.Equal(doc.Attrs["foo"], 1) || !data.Equal(doc.Doc["note"], "x") {
		t.Errorf("Cached document mismatch: %v / %v", doc.Attrs, doc.Doc)
	}
}

func TestMultiIndex(t *testing.T) {
	rootA := t.TempDir()
	rootB := t.TempDir()
	writeDir(t, rootA, "shared", data.Attrs{"foo": 1}, nil)
	writeDir(t, rootA, "only-a", data.Attrs{"foo": 2}, nil)
	writeDir(t, rootB, "shared", data.Attrs{"foo": 3}, nil)
	writeDir(t, rootB, "only-b", data.Attrs{"foo": 4}, nil)

	multi := index.NewMulti(buildIndex(t, rootA), buildIndex(t, rootB))

	if multi.Len() != 4 {
		t.Errorf("Expected 4 documents, got %d", multi.Len())
	}

	// A duplicate identifier across members is surfaced, not merged.
	if _, err := multi.Get("shared"); !errors.Is(err, data.ErrDuplicateID) {
		t.Errorf("Expected ErrDuplicateID, got %v", err)
	}

	doc, err := multi.Get("only-a")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if doc.Source != rootA {
		t.Errorf("Expected source %s, got %s", rootA, doc.Source)
	}

	cursor, err := multi.Find(map[string]any{"foo": map[string]any{"$gte": 3}})
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if cursor.Len() != 2 {
		t.Errorf("Expected 2 matches, got %d", cursor.Len())
	}
}
