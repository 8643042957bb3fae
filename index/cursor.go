package index

import (
	"context"
	"fmt"
	"iter"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/mwantia/grove/data"
	"github.com/mwantia/grove/query"
	"golang.org/x/sync/errgroup"
)

// Cursor is a finite, re-iterable view over the documents matched by
// one query. It snapshots the match set at creation time: rebuilding
// the index afterwards never changes what an existing cursor yields.
// Iteration order is fixed once the cursor exists.
type Cursor struct {
	docs []*Document
}

func newCursor(docs []*Document) *Cursor {
	return &Cursor{docs: docs}
}

// Len returns the number of matched documents.
func (c *Cursor) Len() int {
	return len(c.docs)
}

// All returns the matched documents in cursor order.
func (c *Cursor) All() []*Document {
	out := make([]*Document, len(c.docs))
	copy(out, c.docs)
	return out
}

// Iter returns a restartable sequence over the matched documents.
func (c *Cursor) Iter() iter.Seq[*Document] {
	return func(yield func(*Document) bool) {
		for _, doc := range c.docs {
			if !yield(doc) {
				return
			}
		}
	}
}

// Project yields one value per matched document, in cursor order. The
// selector is either a field in query notation ("foo", "attrs.foo",
// "doc.bar", "id"), "path" for the absolute directory path, or
// "path/<name>" for a file name joined onto it. Missing fields project
// to nil.
func (c *Cursor) Project(selector string) (iter.Seq[any], error) {
	project, err := compileSelector(selector)
	if err != nil {
		return nil, err
	}

	return func(yield func(any) bool) {
		for _, doc := range c.docs {
			if !yield(project(doc)) {
				return
			}
		}
	}, nil
}

func compileSelector(selector string) (func(*Document) any, error) {
	if selector == "path" {
		return func(doc *Document) any { return doc.Path }, nil
	}
	if name, found := strings.CutPrefix(selector, "path/"); found {
		return func(doc *Document) any { return filepath.Join(doc.Path, name) }, nil
	}

	probe := query.WhereOp(selector, query.OpExists, true)
	if err := probe.Err(); err != nil {
		return nil, fmt.Errorf("%w: invalid selector %q", data.ErrInvalidFilter, selector)
	}
	cond := probe.Conditions()[0]

	return func(doc *Document) any {
		switch cond.Namespace {
		case query.NamespaceID:
			return doc.ID
		case query.NamespaceDoc:
			v, _ := query.LookupField(map[string]any(doc.Doc), cond.Field)
			return v
		default:
			v, _ := query.LookupField(map[string]any(doc.Attrs), cond.Field)
			return v
		}
	}, nil
}

// Apply yields fn(doc) per matched document, lazily and in cursor
// order. Re-ranging the sequence re-invokes fn.
func (c *Cursor) Apply(fn func(*Document) any) iter.Seq[any] {
	return func(yield func(any) bool) {
		for _, doc := range c.docs {
			if !yield(fn(doc)) {
				return
			}
		}
	}
}

// ApplyParallel invokes fn once per matched document across a worker
// pool and blocks until every invocation finished. Invocation order is
// unspecified, but results[i] always corresponds to the i-th cursor
// entry. fn must be safe for concurrent use; the first error cancels
// the remaining work.
func (c *Cursor) ApplyParallel(ctx context.Context, workers int, fn func(context.Context, *Document) (any, error)) ([]any, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make([]any, len(c.docs))
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(workers)

	for i, doc := range c.docs {
		group.Go(func() error {
			result, err := fn(ctx, doc)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
