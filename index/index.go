package index

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mwantia/grove/data"
	"github.com/mwantia/grove/log"
	"github.com/mwantia/grove/query"
	"github.com/tidwall/btree"
)

// Index is a compiled, queryable snapshot of the directories below a
// root path. Build replaces the whole collection atomically from the
// caller's viewpoint; lookups and queries run against whatever
// snapshot is current.
type Index struct {
	mu   sync.RWMutex
	root string
	opts Options
	docs *btree.Map[string, *Document]
	log  *log.Logger
}

// New creates an index over root. The collection is empty until Build
// or Load is called.
func New(root string, opts ...Option) (*Index, error) {
	options := newDefaultOptions()
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("grove: index root: %w", err)
	}

	logger := options.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Index{
		root: abs,
		opts: *options,
		docs: btree.NewMap[string, *Document](0),
		log:  logger.Named("index"),
	}, nil
}

// Root returns the absolute index root.
func (ix *Index) Root() string {
	return ix.root
}

// Scheme returns the identifier-scheme tag, if any.
func (ix *Index) Scheme() string {
	return ix.opts.SchemeName
}

// Build scans the root and replaces the collection with the result.
// Directories without a readable attributes sidecar are not
// addressable documents and are excluded.
func (ix *Index) Build(ctx context.Context) error {
	fresh := btree.NewMap[string, *Document](0)

	collect := func(dir string) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		attrs, err := data.ReadAttrs(dir)
		if err != nil {
			ix.log.Warn("skipping %s: %v", dir, err)
			return nil
		}
		if attrs == nil {
			return nil
		}

		rel, err := filepath.Rel(ix.root, dir)
		if err != nil {
			return fmt.Errorf("grove: index scan: %w", err)
		}

		doc := &Document{
			ID:     filepath.ToSlash(rel),
			Path:   dir,
			Source: ix.root,
			Attrs:  attrs,
		}
		if ix.opts.IncludeDocs {
			if doc.Doc, err = data.ReadDoc(dir); err != nil {
				ix.log.Warn("skipping document sidecar of %s: %v", dir, err)
			}
		}

		fresh.Set(doc.ID, doc)
		return nil
	}

	if ix.opts.Recursive {
		err := filepath.WalkDir(ix.root, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !entry.IsDir() || path == ix.root {
				return nil
			}
			return collect(path)
		})
		if err != nil {
			return fmt.Errorf("grove: index scan: %w", err)
		}
	} else {
		entries, err := os.ReadDir(ix.root)
		if err != nil {
			return fmt.Errorf("grove: index scan: %w", err)
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			if err := collect(filepath.Join(ix.root, entry.Name())); err != nil {
				return err
			}
		}
	}

	ix.mu.Lock()
	ix.docs = fresh
	ix.mu.Unlock()

	ix.log.Debug("built index of %s: %d documents", ix.root, fresh.Len())
	return nil
}

// Len returns the number of indexed documents.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	return ix.docs.Len()
}

// IDs returns all identifiers in ascending order.
func (ix *Index) IDs() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	out := make([]string, 0, ix.docs.Len())
	ix.docs.Scan(func(id string, _ *Document) bool {
		out = append(out, id)
		return true
	})
	return out
}

// Get returns the document with the exact identifier.
func (ix *Index) Get(id string) (*Document, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	doc, exists := ix.docs.Get(id)
	if !exists {
		return nil, fmt.Errorf("%w: %s", data.ErrNotFound, id)
	}
	return doc, nil
}

// GetDefault returns the document with the exact identifier, or def
// when there is none.
func (ix *Index) GetDefault(id string, def *Document) *Document {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if doc, exists := ix.docs.Get(id); exists {
		return doc
	}
	return def
}

// Lookup resolves an abbreviated identifier. The prefix must select
// exactly one document: zero matches is ErrNotFound, more than one is
// ErrAmbiguous.
func (ix *Index) Lookup(prefix string) (*Document, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var matches []*Document
	ix.docs.Ascend(prefix, func(id string, doc *Document) bool {
		if !strings.HasPrefix(id, prefix) {
			return false
		}
		matches = append(matches, doc)
		return len(matches) < 2
	})

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: prefix %s", data.ErrNotFound, prefix)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("%w: prefix %s", data.ErrAmbiguous, prefix)
	}
}

// Find evaluates a filter (any form accepted by query.Compile) against
// every document and returns a cursor over the matches. Match order is
// the identifier order of the current snapshot.
func (ix *Index) Find(filter any) (*Cursor, error) {
	compiled, err := query.Compile(filter)
	if err != nil {
		return nil, err
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var matches []*Document
	ix.docs.Scan(func(id string, doc *Document) bool {
		if compiled.Match(doc.ID, doc.Attrs, doc.Doc) {
			matches = append(matches, doc)
		}
		return true
	})
	return newCursor(matches), nil
}

// snapshot returns the current documents in identifier order.
func (ix *Index) snapshot() []*Document {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	out := make([]*Document, 0, ix.docs.Len())
	ix.docs.Scan(func(_ string, doc *Document) bool {
		out = append(out, doc)
		return true
	})
	return out
}

// replace installs a loaded snapshot as the current collection.
func (ix *Index) replace(docs []*Document) {
	fresh := btree.NewMap[string, *Document](0)
	for _, doc := range docs {
		fresh.Set(doc.ID, doc)
	}

	ix.mu.Lock()
	ix.docs = fresh
	ix.mu.Unlock()
}
