// Package index builds queryable snapshots of the directories below a
// root path, keyed by their identifiers.
package index

import "github.com/mwantia/grove/data"

// Document is the compiled record of one indexed directory. It is
// built wholesale during a scan or cache load and never mutated in
// place afterwards.
type Document struct {
	// ID is the directory path relative to the index root, in slash
	// form.
	ID string
	// Path is the absolute directory path.
	Path string
	// Source is the root of the index that produced this record. Multi
	// index results are disambiguated through it.
	Source string

	Attrs data.Attrs
	Doc   data.Doc
}
