package grove

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mwantia/grove/data"
)

// Directory is a handle on one directory, managed or plain. Attribute
// and document reads always go to disk, so two independent handles on
// the same path observe each other's writes without coordination.
type Directory struct {
	path string
	ws   *Workspace // nil for plain handles
}

// OpenDirectory returns a handle on an existing directory that is not
// bound to any workspace. Its identifier is its absolute path and
// attribute changes never rename it.
func OpenDirectory(path string) (*Directory, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("grove: open directory: %w", err)
	}

	if info, err := os.Stat(abs); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", data.ErrNotExist, abs)
	}
	return &Directory{path: abs}, nil
}

// Path returns the absolute directory path.
func (d *Directory) Path() string {
	return d.path
}

// ID returns the directory identifier: the path relative to the
// workspace root for managed handles, the absolute path otherwise.
func (d *Directory) ID() string {
	if d.ws != nil && d.ws.IsManaged(d) {
		return filepath.Base(d.path)
	}
	return d.path
}

// Join returns a path inside the directory.
func (d *Directory) Join(names ...string) string {
	return filepath.Join(append([]string{d.path}, names...)...)
}

// Attrs reads the current attributes from the sidecar. Nil means no
// attributes are set.
func (d *Directory) Attrs() (data.Attrs, error) {
	return data.ReadAttrs(d.path)
}

// InitAttrs sets the attributes if they are currently null. Equal
// re-initialization is a no-op; a different value fails with
// ErrConflict unless force is set. A forced overwrite on a managed
// directory migrates like SetAttrs.
func (d *Directory) InitAttrs(ctx context.Context, attrs data.Attrs, force bool) error {
	existing, err := d.Attrs()
	if err != nil {
		return err
	}

	if existing != nil {
		if existing.Equal(attrs) {
			return nil
		}
		if !force {
			return fmt.Errorf("%w: %s", data.ErrConflict, d.path)
		}
	}

	_, err = d.SetAttrs(ctx, attrs)
	return err
}

// Migration reports how an attribute change on a managed directory was
// resolved. Pending means the attributes were persisted but the rename
// failed, leaving the directory corrupted per Check and recoverable
// via Repair.
type Migration struct {
	AttrsPersisted bool
	Renamed        bool
	Pending        bool
	OldID          string
	NewID          string
}

// SetAttrs persists attrs and, on a managed directory, immediately
// renames it to the identifier the new attributes compute to. The
// attribute write happens first: a crash between the two steps leaves
// a corrupted but checkable directory, never an inconsistent one. On a
// plain handle this is just the attribute write.
func (d *Directory) SetAttrs(ctx context.Context, attrs data.Attrs) (*Migration, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if d.ws == nil || !d.ws.IsManaged(d) {
		if err := data.WriteAttrs(d.path, attrs); err != nil {
			return nil, err
		}
		return &Migration{AttrsPersisted: true}, nil
	}

	oldID := d.ID()
	newID, err := d.ws.AttrsID(attrs)
	if err != nil {
		return nil, err
	}

	if err := data.WriteAttrs(d.path, attrs); err != nil {
		return nil, err
	}

	migration := &Migration{AttrsPersisted: true, OldID: oldID, NewID: newID}
	if newID == oldID {
		return migration, nil
	}

	newPath := filepath.Join(d.ws.root, newID)
	if err := os.Rename(d.path, newPath); err != nil {
		migration.Pending = true
		return migration, fmt.Errorf("grove: migrate %s -> %s: %w", oldID, newID, err)
	}

	d.path = newPath
	migration.Renamed = true
	d.ws.log.Debug("migrated %s -> %s", oldID, newID)
	return migration, nil
}

// Doc reads the free-form document sidecar. Changing the document
// never renames the directory.
func (d *Directory) Doc() (data.Doc, error) {
	return data.ReadDoc(d.path)
}

// SetDoc persists the free-form document. Empty documents remove the
// sidecar.
func (d *Directory) SetDoc(doc data.Doc) error {
	return data.WriteDoc(d.path, doc)
}
