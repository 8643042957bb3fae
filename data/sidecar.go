package data

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Sidecar file names inside a managed or plain directory.
const (
	AttrsFileName = "grove_attrs.json"
	DocFileName   = "grove_document.json"

	// DataFileName is the opaque large-array container. Grove only
	// reserves the name; reading and writing it is up to the caller.
	DataFileName = "grove_data.db"
)

// ReadAttrs loads the attributes sidecar of dir. A missing sidecar
// means null attributes and is not an error.
func ReadAttrs(dir string) (Attrs, error) {
	m, err := readSidecar(filepath.Join(dir, AttrsFileName))
	if err != nil {
		return nil, err
	}
	return Attrs(m), nil
}

// WriteAttrs persists attrs as the attributes sidecar of dir. Nil
// attributes delete the sidecar. The write is an atomic replace, so a
// concurrent reader sees either the old or the new document, never a
// torn file.
func WriteAttrs(dir string, attrs Attrs) error {
	if attrs == nil {
		return removeSidecar(filepath.Join(dir, AttrsFileName))
	}

	CheckKeys(attrs)
	return writeSidecar(dir, AttrsFileName, map[string]any(attrs))
}

// InitAttrs sets the attributes of dir if they are currently null.
// Re-initializing with equal attributes is a no-op. Re-initializing
// with different attributes fails with ErrConflict unless force is
// set, in which case the existing attributes are overwritten.
func InitAttrs(dir string, attrs Attrs, force bool) error {
	existing, err := ReadAttrs(dir)
	if err != nil {
		return err
	}

	if existing != nil && !force {
		if existing.Equal(attrs) {
			return nil
		}
		return fmt.Errorf("%w: %s", ErrConflict, dir)
	}

	return WriteAttrs(dir, attrs)
}

// ReadDoc loads the document sidecar of dir. A missing sidecar means
// an empty document.
func ReadDoc(dir string) (Doc, error) {
	m, err := readSidecar(filepath.Join(dir, DocFileName))
	if err != nil {
		return nil, err
	}
	return Doc(m), nil
}

// WriteDoc persists doc as the document sidecar of dir. A nil or empty
// document deletes the sidecar.
func WriteDoc(dir string, doc Doc) error {
	if len(doc) == 0 {
		return removeSidecar(filepath.Join(dir, DocFileName))
	}
	return writeSidecar(dir, DocFileName, map[string]any(doc))
}

func readSidecar(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("grove: read %s: %w", path, err)
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("grove: parse %s: %w", path, err)
	}

	n, err := Normalize(m)
	if err != nil {
		return nil, fmt.Errorf("grove: %s: %w", path, err)
	}
	return n.(map[string]any), nil
}

// writeSidecar serializes the document canonically and replaces the
// sidecar atomically via a temp file rename in the same directory.
func writeSidecar(dir, name string, m map[string]any) error {
	n, err := Normalize(m)
	if err != nil {
		return err
	}

	raw, err := Canonical(n)
	if err != nil {
		return err
	}
	raw = append(raw, '\n')

	tmp, err := os.CreateTemp(dir, ".grove-write-*")
	if err != nil {
		return fmt.Errorf("grove: write %s: %w", name, err)
	}

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("grove: write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("grove: write %s: %w", name, err)
	}

	if err := os.Rename(tmp.Name(), filepath.Join(dir, name)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("grove: write %s: %w", name, err)
	}
	return nil
}

func removeSidecar(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("grove: remove %s: %w", path, err)
	}
	return nil
}
