package grove

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mwantia/grove/config"
	"github.com/mwantia/grove/data"
	"github.com/mwantia/grove/index"
	"github.com/mwantia/grove/log"
	"github.com/mwantia/grove/scheme"
)

// Workspace binds a root directory to one identifier scheme. Its
// invariant: every managed directory (first-level child of the root)
// is named exactly the scheme's image of its current attributes. A
// workspace violating that for at least one child is broken; Check
// detects it and Repair re-establishes it.
type Workspace struct {
	root   string
	scheme scheme.Scheme
	log    *log.Logger
}

// NewWorkspace creates a handle on root. If root already carries a
// workspace record the scheme is resolved from it; an explicitly bound
// scheme must then agree with the record.
func NewWorkspace(root string, opts ...WorkspaceOption) (*Workspace, error) {
	options := newDefaultWorkspaceOptions()
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("grove: workspace root: %w", err)
	}

	bound := options.Scheme
	if config.Exists(abs) {
		rec, err := config.Read(abs)
		if err != nil {
			return nil, err
		}
		if bound == nil {
			if bound, err = scheme.Lookup(rec.SchemeName); err != nil {
				return nil, err
			}
		} else if bound.Name() != rec.SchemeName {
			return nil, fmt.Errorf("%w: record declares %q, caller bound %q",
				data.ErrWorkspaceSetup, rec.SchemeName, bound.Name())
		}
	}
	if bound == nil {
		if bound, err = scheme.Lookup(scheme.HashName); err != nil {
			return nil, err
		}
	}

	logger := options.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger = logger.Named("workspace")

	data.SetKeyWarnFunc(logger.Warn)

	return &Workspace{
		root:   abs,
		scheme: bound,
		log:    logger,
	}, nil
}

// Root returns the absolute workspace root.
func (w *Workspace) Root() string {
	return w.root
}

// Scheme returns the bound identifier scheme.
func (w *Workspace) Scheme() scheme.Scheme {
	return w.scheme
}

// Init idempotently creates the root directory and its workspace
// record. Re-initializing an existing workspace is safe as long as the
// recorded scheme matches the bound one.
func (w *Workspace) Init() error {
	if err := os.MkdirAll(w.root, 0755); err != nil {
		return fmt.Errorf("grove: init workspace: %w", err)
	}

	if config.Exists(w.root) {
		rec, err := config.Read(w.root)
		if err != nil {
			return err
		}
		if rec.SchemeName != w.scheme.Name() {
			return fmt.Errorf("%w: record declares %q, workspace bound %q",
				data.ErrWorkspaceSetup, rec.SchemeName, w.scheme.Name())
		}
		return nil
	}

	return config.Write(w.root, &config.Record{SchemeName: w.scheme.Name()})
}

// AttrsID computes the identifier the bound scheme derives from attrs.
// The workspace record file names are reserved and never legal
// identifiers.
func (w *Workspace) AttrsID(attrs data.Attrs) (string, error) {
	id, err := w.scheme.Compute(attrs)
	if err != nil {
		return "", err
	}
	if config.Reserved(id) {
		return "", fmt.Errorf("%w: %s", data.ErrReservedID, id)
	}
	return id, nil
}

// Get returns the managed directory holding attrs, creating it and
// persisting the attributes when it does not exist yet. An existing
// directory under that identifier must already hold equal attributes;
// anything else means the workspace is corrupted.
func (w *Workspace) Get(ctx context.Context, attrs data.Attrs) (*Directory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id, err := w.AttrsID(attrs)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(w.root, id)

	if _, err := os.Stat(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("grove: get %s: %w", id, err)
		}
		if err := os.Mkdir(path, 0755); err != nil && !errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("grove: get %s: %w", id, err)
		}
	}

	existing, err := data.ReadAttrs(path)
	if err != nil {
		return nil, err
	}
	switch {
	case existing == nil:
		// First write wins, also after a crash between create and write.
		if err := data.WriteAttrs(path, attrs); err != nil {
			return nil, err
		}
	case !existing.Equal(attrs):
		return nil, fmt.Errorf("%w: %s", data.ErrCorrupted, id)
	}

	return &Directory{path: path, ws: w}, nil
}

// Open returns the managed directory holding attrs without creating
// anything. ErrNotExist when no such directory exists.
func (w *Workspace) Open(ctx context.Context, attrs data.Attrs) (*Directory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id, err := w.AttrsID(attrs)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(w.root, id)

	if info, err := os.Stat(path); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", data.ErrNotExist, id)
	}
	return &Directory{path: path, ws: w}, nil
}

// Directory returns a handle on the managed directory with the given
// identifier.
func (w *Workspace) Directory(id string) (*Directory, error) {
	path := filepath.Join(w.root, id)
	if info, err := os.Stat(path); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", data.ErrNotExist, id)
	}
	return &Directory{path: path, ws: w}, nil
}

// IsManaged reports whether dir is a first-level child of the
// workspace root.
func (w *Workspace) IsManaged(dir *Directory) bool {
	return filepath.Dir(dir.path) == w.root
}

// Check verifies the naming invariant over all managed directories.
// With exhaustive set, every corrupted identifier is collected before
// failing; otherwise the first corruption short-circuits. The scheme
// validator is consulted first so syntactically impossible names skip
// the attribute load entirely.
func (w *Workspace) Check(ctx context.Context, exhaustive bool) error {
	names, err := w.managed()
	if err != nil {
		return err
	}

	var broken []string
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}

		corrupted, err := w.checkOne(name)
		if err != nil {
			return err
		}
		if corrupted {
			broken = append(broken, name)
			if !exhaustive {
				break
			}
		}
	}

	if len(broken) > 0 {
		return &data.BrokenError{IDs: broken, Exhaustive: exhaustive}
	}
	return nil
}

func (w *Workspace) checkOne(name string) (corrupted bool, err error) {
	// Only a negative validator result is conclusive; a positive one
	// still requires recomputing the identifier.
	if !w.scheme.Validate(name) {
		return true, nil
	}

	attrs, err := data.ReadAttrs(filepath.Join(w.root, name))
	if err != nil {
		return false, err
	}

	want, err := w.scheme.Compute(attrs)
	if err != nil {
		return false, err
	}
	return want != name, nil
}

// Index returns an index over the workspace's managed directories,
// tagged with the bound scheme name.
func (w *Workspace) Index(opts ...index.Option) (*index.Index, error) {
	opts = append([]index.Option{
		index.WithScheme(w.scheme.Name()),
		index.WithLogger(w.log),
	}, opts...)
	return index.New(w.root, opts...)
}

// managed lists the identifiers of all managed directories in name
// order. Hidden directories are not managed; staging directories of an
// interrupted repair deliberately are, so Check flags them and Repair
// converges them.
func (w *Workspace) managed() ([]string, error) {
	entries, err := os.ReadDir(w.root)
	if err != nil {
		return nil, fmt.Errorf("grove: list workspace: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}
