package index

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mwantia/grove/data"
	"github.com/mwantia/grove/query"
)

// MultiIndex merges several indexes, potentially built under different
// identifier schemes, behind one search surface. Every result carries
// its Source root; the same identifier appearing in more than one
// member is surfaced as a conflict, never silently merged.
type MultiIndex struct {
	indexes []*Index
}

func NewMulti(indexes ...*Index) *MultiIndex {
	return &MultiIndex{indexes: indexes}
}

// Len returns the total document count across all members.
func (mi *MultiIndex) Len() int {
	total := 0
	for _, ix := range mi.indexes {
		total += ix.Len()
	}
	return total
}

// Get returns the document with the exact identifier. An identifier
// present in more than one member fails with ErrDuplicateID naming the
// sources.
func (mi *MultiIndex) Get(id string) (*Document, error) {
	var found []*Document
	for _, ix := range mi.indexes {
		if doc := ix.GetDefault(id, nil); doc != nil {
			found = append(found, doc)
		}
	}

	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%w: %s", data.ErrNotFound, id)
	case 1:
		return found[0], nil
	default:
		return nil, fmt.Errorf("%w: %s in %s", data.ErrDuplicateID, id, strings.Join(sources(found), ", "))
	}
}

// Lookup resolves an abbreviated identifier across all members. The
// prefix must select exactly one document overall.
func (mi *MultiIndex) Lookup(prefix string) (*Document, error) {
	var found []*Document
	for _, ix := range mi.indexes {
		doc, err := ix.Lookup(prefix)
		if err != nil {
			if errors.Is(err, data.ErrNotFound) {
				continue
			}
			return nil, err
		}
		found = append(found, doc)
	}

	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%w: prefix %s", data.ErrNotFound, prefix)
	case 1:
		return found[0], nil
	default:
		if found[0].ID == found[1].ID {
			return nil, fmt.Errorf("%w: %s in %s", data.ErrDuplicateID, found[0].ID, strings.Join(sources(found), ", "))
		}
		return nil, fmt.Errorf("%w: prefix %s", data.ErrAmbiguous, prefix)
	}
}

// Find queries every member and concatenates the matches in member
// order. Within one member the match order is its identifier order.
func (mi *MultiIndex) Find(filter any) (*Cursor, error) {
	compiled, err := query.Compile(filter)
	if err != nil {
		return nil, err
	}

	var matches []*Document
	for _, ix := range mi.indexes {
		cursor, err := ix.Find(compiled)
		if err != nil {
			return nil, err
		}
		matches = append(matches, cursor.docs...)
	}
	return newCursor(matches), nil
}

func sources(docs []*Document) []string {
	out := make([]string, len(docs))
	for i, doc := range docs {
		out[i] = doc.Source
	}
	return out
}
