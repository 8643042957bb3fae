package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/mwantia/grove/data"
)

// CacheFileName is the default cache file at the index root.
const CacheFileName = ".grove-index"

// Snapshot is the persisted form of an index: the scheme tag plus the
// documents in identifier order.
type Snapshot struct {
	Scheme string
	Docs   []*Document
}

// CacheStore persists index snapshots. Stores always replace the
// previous snapshot wholesale; a concurrent reader sees either the old
// or the new collection, never a mix.
type CacheStore interface {
	Store(ctx context.Context, snap *Snapshot) error
	Load(ctx context.Context) (*Snapshot, error)
}

// StoreCache persists the current collection through the configured
// cache store, defaulting to the cache file at the index root.
func (ix *Index) StoreCache(ctx context.Context) error {
	return ix.cacheStore().Store(ctx, &Snapshot{
		Scheme: ix.opts.SchemeName,
		Docs:   ix.snapshot(),
	})
}

// Load replaces the collection with the persisted snapshot, skipping a
// scan. Freshness is the caller's responsibility: a stale cache stays
// stale until Build is called. A snapshot written under a different
// scheme tag fails with ErrCacheMismatch.
func (ix *Index) Load(ctx context.Context) error {
	snap, err := ix.cacheStore().Load(ctx)
	if err != nil {
		return err
	}

	if snap.Scheme != ix.opts.SchemeName {
		return fmt.Errorf("%w: cache %q, index %q", data.ErrCacheMismatch, snap.Scheme, ix.opts.SchemeName)
	}

	ix.replace(snap.Docs)
	ix.log.Debug("loaded cached index of %s: %d documents", ix.root, len(snap.Docs))
	return nil
}

func (ix *Index) cacheStore() CacheStore {
	if ix.opts.Cache != nil {
		return ix.opts.Cache
	}
	return &FileCache{Path: filepath.Join(ix.root, CacheFileName), Root: ix.root}
}

// FileCache stores snapshots as one canonical JSON file. Equal
// collections always serialize to identical bytes, so cache files can
// be diffed across runs.
type FileCache struct {
	// Path of the cache file.
	Path string
	// Root resolves relative document paths on load.
	Root string
}

func (fc *FileCache) Store(ctx context.Context, snap *Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	documents := make(map[string]any, len(snap.Docs))
	for _, doc := range snap.Docs {
		record := map[string]any{
			"attrs": map[string]any(doc.Attrs),
		}
		if doc.Doc != nil {
			record["doc"] = map[string]any(doc.Doc)
		}
		documents[doc.ID] = record
	}

	raw, err := data.Canonical(map[string]any{
		"scheme":    snap.Scheme,
		"documents": documents,
	})
	if err != nil {
		return fmt.Errorf("grove: store cache: %w", err)
	}
	raw = append(raw, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(fc.Path), ".grove-write-*")
	if err != nil {
		return fmt.Errorf("grove: store cache: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("grove: store cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("grove: store cache: %w", err)
	}
	if err := os.Rename(tmp.Name(), fc.Path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("grove: store cache: %w", err)
	}
	return nil
}

func (fc *FileCache) Load(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(fc.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: no cache at %s", data.ErrNotFound, fc.Path)
		}
		return nil, fmt.Errorf("grove: load cache: %w", err)
	}

	var parsed struct {
		Scheme    string                    `json:"scheme"`
		Documents map[string]map[string]any `json:"documents"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("grove: load cache %s: %w", fc.Path, err)
	}

	ids := make([]string, 0, len(parsed.Documents))
	for id := range parsed.Documents {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	snap := &Snapshot{Scheme: parsed.Scheme}
	for _, id := range ids {
		record := parsed.Documents[id]

		doc := &Document{
			ID:     id,
			Path:   filepath.Join(fc.Root, filepath.FromSlash(id)),
			Source: fc.Root,
		}
		if attrs, ok := record["attrs"].(map[string]any); ok {
			n, err := data.Normalize(attrs)
			if err != nil {
				return nil, fmt.Errorf("grove: load cache %s: %w", fc.Path, err)
			}
			doc.Attrs = data.Attrs(n.(map[string]any))
		}
		if d, ok := record["doc"].(map[string]any); ok {
			n, err := data.Normalize(d)
			if err != nil {
				return nil, fmt.Errorf("grove: load cache %s: %w", fc.Path, err)
			}
			doc.Doc = data.Doc(n.(map[string]any))
		}

		snap.Docs = append(snap.Docs, doc)
	}
	return snap, nil
}
