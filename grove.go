// Package grove manages collections of directories whose names are
// derived deterministically from the attributes stored inside them.
// A workspace binds a root directory to an identifier scheme and keeps
// the names of its first-level children synchronized with their
// attribute sidecars; the index and query packages provide search over
// such collections.
package grove

import (
	"github.com/mwantia/grove/data"
)

// Attrs and Doc alias the data package document types so that common
// call sites only need the root import.
type (
	Attrs = data.Attrs
	Doc   = data.Doc
)
