package data

import (
	"errors"
	"fmt"
	"strings"
)

// Standard grove errors. Callers match these with errors.Is.
var (
	// Directory and workspace errors
	ErrNotExist   = errors.New("grove: directory does not exist")
	ErrNotManaged = errors.New("grove: directory is not managed by a workspace")
	ErrCorrupted  = errors.New("grove: directory name does not match its attributes")
	ErrReservedID = errors.New("grove: identifier is a reserved file name")

	// Attribute store errors
	ErrConflict = errors.New("grove: attributes already initialized with different values")

	// Lookup errors
	ErrNotFound    = errors.New("grove: no matching document")
	ErrAmbiguous   = errors.New("grove: abbreviated identifier matches more than one document")
	ErrDuplicateID = errors.New("grove: identifier present in more than one index")

	// Query errors
	ErrInvalidFilter = errors.New("grove: invalid filter")

	// Scheme and cache errors
	ErrSchemeUnknown  = errors.New("grove: unknown identifier scheme")
	ErrCacheMismatch  = errors.New("grove: cache was written under a different scheme")
	ErrWorkspaceSetup = errors.New("grove: workspace configuration conflict")
)

// ErrWorkspaceBroken is the sentinel matched by errors.Is for any
// BrokenError returned from Workspace.Check.
var ErrWorkspaceBroken = errors.New("grove: workspace is broken")

// BrokenError reports managed directories whose names no longer match
// the identifier computed from their attributes. When Exhaustive is
// false the IDs slice holds only the first corruption found.
type BrokenError struct {
	IDs        []string
	Exhaustive bool
}

func (e *BrokenError) Error() string {
	if e.Exhaustive {
		return fmt.Sprintf("%v: %d corrupted: %s", ErrWorkspaceBroken, len(e.IDs), strings.Join(e.IDs, ", "))
	}
	return fmt.Sprintf("%v: first corrupted: %s", ErrWorkspaceBroken, strings.Join(e.IDs, ", "))
}

func (e *BrokenError) Unwrap() error {
	return ErrWorkspaceBroken
}
